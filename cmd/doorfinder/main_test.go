package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"github.com/swatdrc/doorpcl/config"
	"github.com/swatdrc/doorpcl/logging"
	"github.com/swatdrc/doorpcl/publish"
	"github.com/swatdrc/doorpcl/rimage"
	"github.com/swatdrc/doorpcl/rimage/transform"
)

type edgeDetector struct{}

// DetectLines reports the top edge of the mask's bounding box.
func (edgeDetector) DetectLines(mask *rimage.BinaryMask) ([]rimage.LineSegment2D, error) {
	on := mask.OnIndices()
	if len(on) == 0 {
		return nil, nil
	}
	w := mask.Width()
	return []rimage.LineSegment2D{rimage.NewLineSegment2D(on[0]%w, on[0]/w, w-1, on[0]/w)}, nil
}

func writeFrame(t *testing.T, path string, width, height int, fn func(x, y int) [3]float32) {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "VERSION 0.7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA binary\n", width, height, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for _, f := range fn(x, y) {
				test.That(t, binary.Write(&buf, binary.LittleEndian, math.Float32bits(f)), test.ShouldBeNil)
			}
		}
	}
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o600), test.ShouldBeNil)
}

func wall(x, y int) [3]float32 {
	return [3]float32{float32(x-40) * 0.02, float32(y-30) * 0.02, 2}
}

func unmeasured(x, y int) [3]float32 {
	nan := float32(math.NaN())
	return [3]float32{nan, nan, nan}
}

func newTestRunner(t *testing.T, cfg config.Config, useDefault bool) *runner {
	logger := logging.NewTestLogger(t)
	return &runner{
		cfg:              cfg,
		useDefaultCamera: useDefault,
		detector:         edgeDetector{},
		publisher:        publish.NewLinePublisher(nil, cfg.MQTT, logger),
		logger:           logger,
	}
}

func TestRunFrames(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "sample")
	writeFrame(t, prefix+"0.pcd", 80, 60, wall)
	writeFrame(t, prefix+"1.pcd", 80, 60, unmeasured)
	writeFrame(t, prefix+"2.pcd", 80, 60, wall)
	test.That(t, os.WriteFile(prefix+"3.pcd", []byte("garbage"), 0o600), test.ShouldBeNil)
	writeFrame(t, prefix+"4.pcd", 80, 60, wall)

	cfg := config.Default()
	cfg.Frames.Prefix = prefix
	cfg.Segmentation.Iterations = 50

	summary, err := newTestRunner(t, cfg, true).run(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary, test.ShouldResemble, runSummary{Frames: 3, Planes: 3, Lines: 3, Skipped: 2})

	summary, err = newTestRunner(t, cfg, true).run(2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary, test.ShouldResemble, runSummary{Frames: 1, Planes: 1, Lines: 1, Skipped: 1})

	cfg.Frames.Start = 4
	summary, err = newTestRunner(t, cfg, true).run(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Frames, test.ShouldEqual, 1)
}

func TestRunNeedsIntrinsics(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "sample")
	writeFrame(t, prefix+"0.pcd", 80, 60, wall)

	cfg := config.Default()
	cfg.Frames.Prefix = prefix
	_, err := newTestRunner(t, cfg, false).run(0)
	test.That(t, errors.Is(err, transform.ErrNoIntrinsics), test.ShouldBeTrue)

	cfg.Camera = transform.DefaultDepthIntrinsics(80, 60)
	cfg.Segmentation.Iterations = 50
	summary, err := newTestRunner(t, cfg, false).run(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Frames, test.ShouldEqual, 1)
}

func TestRunNoFrames(t *testing.T) {
	cfg := config.Default()
	cfg.Frames.Prefix = filepath.Join(t.TempDir(), "sample")
	summary, err := newTestRunner(t, cfg, true).run(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary, test.ShouldResemble, runSummary{})
}

func TestRunCommand(t *testing.T) {
	orig := newDetector
	defer func() { newDetector = orig }()
	newDetector = func(cfg rimage.HoughConfig) (rimage.LineDetector, error) {
		if err := cfg.CheckValid(); err != nil {
			return nil, err
		}
		return edgeDetector{}, nil
	}

	dir := t.TempDir()
	prefix := filepath.Join(dir, "frame")
	writeFrame(t, prefix+"7.pcd", 80, 60, wall)

	cfgPath := filepath.Join(dir, "doorfinder.yaml")
	test.That(t, os.WriteFile(cfgPath, []byte("segmentation:\n  iterations: 50\n"), 0o600), test.ShouldBeNil)

	err := newApp().Run([]string{
		"doorfinder", "run",
		"--config", cfgPath,
		"--frames", prefix,
		"--start", "7",
		"--default-intrinsics",
	})
	test.That(t, err, test.ShouldBeNil)

	err = newApp().Run([]string{"doorfinder", "run", "--frames", prefix, "--start", "7"})
	test.That(t, errors.Is(err, transform.ErrNoIntrinsics), test.ShouldBeTrue)

	badCfg := filepath.Join(dir, "bad.yaml")
	test.That(t, os.WriteFile(badCfg, []byte("lines:\n  rho: -8\n"), 0o600), test.ShouldBeNil)
	err = newApp().Run([]string{"doorfinder", "run", "--config", badCfg, "--default-intrinsics"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lines: rho")
}

func TestDebugFlagReplacesGlobalLogger(t *testing.T) {
	app := newApp()
	app.Commands = nil
	app.Action = func(*cli.Context) error { return nil }
	test.That(t, app.Run([]string{"doorfinder", "--debug"}), test.ShouldBeNil)
	test.That(t, logging.Global().AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)

	test.That(t, app.Run([]string{"doorfinder"}), test.ShouldBeNil)
	test.That(t, logging.Global().AsZap().Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)
}

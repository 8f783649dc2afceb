package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/swatdrc/doorpcl/config"
	"github.com/swatdrc/doorpcl/logging"
	"github.com/swatdrc/doorpcl/pointcloud"
	"github.com/swatdrc/doorpcl/publish"
	"github.com/swatdrc/doorpcl/rimage"
	"github.com/swatdrc/doorpcl/rimage/transform"
	"github.com/swatdrc/doorpcl/vision/segmentation"
)

// runSummary counts what a run did.
type runSummary struct {
	Frames  int
	Planes  int
	Lines   int
	Skipped int
}

func runAction(c *cli.Context, logger logging.Logger) (runSummary, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		read, err := config.Read(path)
		if err != nil {
			return runSummary{}, err
		}
		cfg = *read
	}
	if c.IsSet(flagFrames) {
		cfg.Frames.Prefix = c.String(flagFrames)
	}
	if c.IsSet(flagStart) {
		cfg.Frames.Start = c.Int(flagStart)
	}
	if path := c.String(flagIntrinsics); path != "" {
		intrinsics, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(path)
		if err != nil {
			return runSummary{}, err
		}
		cfg.Camera = intrinsics
	}
	if err := cfg.CheckValid(); err != nil {
		return runSummary{}, err
	}

	detector, err := newDetector(cfg.Lines)
	if err != nil {
		return runSummary{}, err
	}
	client, err := publish.Connect(cfg.MQTT, logger.Sublogger("mqtt"))
	if err != nil {
		return runSummary{}, err
	}
	if client != nil {
		defer client.Disconnect(250)
	}

	r := &runner{
		cfg:              cfg,
		useDefaultCamera: c.Bool(flagDefaultIntrinsics),
		detector:         detector,
		publisher:        publish.NewLinePublisher(client, cfg.MQTT, logger.Sublogger("publish")),
		logger:           logger,
	}
	return r.run(c.Int(flagCount))
}

// runner segments the frames of one session. The segmenter is built from the first frame
// when intrinsics come from the default profile, since the principal point depends on
// the frame size.
type runner struct {
	cfg              config.Config
	useDefaultCamera bool
	detector         rimage.LineDetector
	publisher        *publish.LinePublisher
	logger           logging.Logger

	seg          *segmentation.MultiPlaneSegmenter
	segIntrinsic *transform.PinholeCameraIntrinsics
}

func (r *runner) intrinsicsFor(cloud pointcloud.PointCloud) (*transform.PinholeCameraIntrinsics, error) {
	if r.cfg.Camera != nil {
		return r.cfg.Camera, nil
	}
	if !r.useDefaultCamera {
		return nil, transform.NewNoIntrinsicsError("no camera section, --intrinsics file or --default-intrinsics given")
	}
	return transform.DefaultDepthIntrinsics(cloud.Width(), cloud.Height()), nil
}

func (r *runner) segmenterFor(cloud pointcloud.PointCloud) (*segmentation.MultiPlaneSegmenter, error) {
	intrinsics, err := r.intrinsicsFor(cloud)
	if err != nil {
		return nil, err
	}
	if r.seg != nil && *r.segIntrinsic == *intrinsics {
		return r.seg, nil
	}
	if intrinsics.Width != cloud.Width() || intrinsics.Height != cloud.Height() {
		r.logger.Warnw("camera size does not match frame size",
			"camera", []int{intrinsics.Width, intrinsics.Height},
			"frame", []int{cloud.Width(), cloud.Height()})
	}
	seg, err := segmentation.NewMultiPlaneSegmenter(r.cfg.Segmentation, intrinsics, nil, r.detector,
		r.logger.Sublogger("segmentation"))
	if err != nil {
		return nil, err
	}
	r.seg, r.segIntrinsic = seg, intrinsics
	return seg, nil
}

// run processes up to count frames, or every frame until one is missing when count is 0.
func (r *runner) run(count int) (runSummary, error) {
	var summary runSummary
	frames := pointcloud.NewFrameReader(r.cfg.Frames.Prefix, r.cfg.Frames.Start)
	for count <= 0 || summary.Frames+summary.Skipped < count {
		cloud, seq, err := frames.Next()
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Infow("no more frames", "next", pointcloud.FrameFileName(r.cfg.Frames.Prefix, seq))
			break
		}
		if err != nil {
			r.logger.Errorw("skipping unreadable frame", "sequence", seq, "error", err)
			frames.Skip()
			summary.Skipped++
			continue
		}
		if cloud.Size() == 0 {
			r.logger.Warnw("skipping frame", "sequence", seq, "error", segmentation.ErrNoPlaneFound)
			summary.Skipped++
			continue
		}

		seg, err := r.segmenterFor(cloud)
		if err != nil {
			return summary, err
		}
		planes, err := seg.Segment(cloud)
		if errors.Is(err, segmentation.ErrNoPlaneFound) {
			r.logger.Warnw("skipping frame", "sequence", seq, "error", err)
			summary.Skipped++
			continue
		}
		if err != nil {
			return summary, err
		}

		lines := 0
		for _, p := range planes {
			lines += len(p.Lines)
		}
		summary.Frames++
		summary.Planes += len(planes)
		summary.Lines += lines
		r.logger.Infow("segmented frame", "sequence", seq, "planes", len(planes), "lines", lines)

		if err := r.publisher.PublishFrame(seq, planes); err != nil {
			r.logger.Warnw("failed to publish frame", "sequence", seq, "error", err)
		}
	}
	return summary, nil
}

package transform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestCheckValid(t *testing.T) {
	var nilIntrinsics *PinholeCameraIntrinsics
	err := nilIntrinsics.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	params := &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 500, Fy: 500, Ppx: 320, Ppy: 240}
	test.That(t, params.CheckValid(), test.ShouldBeNil)

	params.Fy = 0
	err = params.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Fy")

	// the unset principal point sentinel is rejected rather than used
	params.Fy = 500
	params.Ppx = -1
	err = params.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Ppx")

	params = &PinholeCameraIntrinsics{}
	err = params.CheckValid()
	test.That(t, err.Error(), test.ShouldContainSubstring, "Invalid size")
}

func TestDefaultDepthIntrinsics(t *testing.T) {
	params := DefaultDepthIntrinsics(640, 480)
	test.That(t, params.CheckValid(), test.ShouldBeNil)
	test.That(t, params.Ppx, test.ShouldEqual, 320)
	test.That(t, params.Ppy, test.ShouldEqual, 240)
	test.That(t, params.Fx, test.ShouldAlmostEqual, 493.5358, 1e-3)
	test.That(t, params.Fy, test.ShouldEqual, params.Fx)

	odd := DefaultDepthIntrinsics(5, 3)
	test.That(t, odd.Ppx, test.ShouldEqual, 2)
	test.That(t, odd.Ppy, test.ShouldEqual, 1)
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intrinsics.json")
	content := `{"width_px": 640, "height_px": 480, "fx": 525.5, "fy": 526.1, "ppx": 319.5, "ppy": 239.5}`
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)

	params, err := NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *params, test.ShouldResemble, PinholeCameraIntrinsics{640, 480, 525.5, 526.1, 319.5, 239.5})

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error opening JSON file")

	test.That(t, os.WriteFile(path, []byte(`{"width_px": 640, "height_px": 480, "fx": 525.5}`), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	test.That(t, os.WriteFile(path, []byte(`{"width": 640}`), 0o600), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error parsing intrinsics")
}

func TestPixelPointRoundTrip(t *testing.T) {
	params := &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 500, Fy: 510, Ppx: 320, Ppy: 240}
	x, y, z := params.PixelToPoint(100, 400, 2)
	u, v := params.PointToPixel(x, y, z)
	test.That(t, u, test.ShouldEqual, 100)
	test.That(t, v, test.ShouldEqual, 400)

	u, v = params.PointToPixel(1, 1, 0)
	test.That(t, u, test.ShouldEqual, -1)
	test.That(t, v, test.ShouldEqual, -1)
}

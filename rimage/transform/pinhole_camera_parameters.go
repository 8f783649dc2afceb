package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// ErrProjectionDegenerate is returned when a camera ray does not meet a plane in a single point,
// i.e. the ray lies in the plane or runs parallel to it.
var ErrProjectionDegenerate = errors.New("camera ray and plane do not intersect in a single point")

const (
	// defaultDepthFocalLength and defaultDepthPixelSize describe the depth sensor the
	// door finder was first run on; the focal length in pixels is their ratio.
	defaultDepthFocalLength = 530.551
	defaultDepthPixelSize   = 1.075
)

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px" yaml:"width_px"`
	Height int     `json:"height_px" yaml:"height_px"`
	Fx     float64 `json:"fx" yaml:"fx"`
	Fy     float64 `json:"fy" yaml:"fy"`
	Ppx    float64 `json:"ppx" yaml:"ppx"`
	Ppy    float64 `json:"ppy" yaml:"ppy"`
}

// DefaultDepthIntrinsics returns intrinsics for the default depth sensor with the principal
// point at the center of a width x height image.
func DefaultDepthIntrinsics(width, height int) *PinholeCameraIntrinsics {
	f := defaultDepthFocalLength / defaultDepthPixelSize
	return &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Ppx:    float64(width / 2),
		Ppy:    float64(height / 2),
	}
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile reads intrinsics from a JSON file using the same
// field names as the camera section of a config. The result is checked with CheckValid.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)

	intrinsics := &PinholeCameraIntrinsics{}
	dec := json.NewDecoder(jsonFile)
	dec.DisallowUnknownFields()
	if err := dec.Decode(intrinsics); err != nil {
		return nil, errors.Wrapf(err, "error parsing intrinsics in %q", jsonPath)
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "intrinsics in %q", jsonPath)
	}
	return intrinsics, nil
}

// PixelToPoint returns the camera space point at depth z seen through pixel (u, v).
func (params *PinholeCameraIntrinsics) PixelToPoint(u, v, z float64) (float64, float64, float64) {
	if params == nil {
		return 0, 0, 0
	}
	return (u - params.Ppx) / params.Fx * z, (v - params.Ppy) / params.Fy * z, z
}

// PointToPixel projects a camera space point to the nearest pixel. Points at zero depth
// have no projection and map to (-1, -1), which lies outside every image.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z == 0 {
		return -1, -1
	}
	return math.Round(x/z*params.Fx + params.Ppx), math.Round(y/z*params.Fy + params.Ppy)
}

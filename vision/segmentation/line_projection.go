package segmentation

import (
	"github.com/golang/geo/r3"

	"github.com/swatdrc/doorpcl/logging"
	"github.com/swatdrc/doorpcl/rimage"
	"github.com/swatdrc/doorpcl/rimage/transform"
)

// LineSegment3D is a straight segment in camera space.
type LineSegment3D struct {
	Start r3.Vector `json:"start"`
	End   r3.Vector `json:"end"`
}

// Length returns the length of the segment.
func (l LineSegment3D) Length() float64 {
	return l.End.Sub(l.Start).Norm()
}

// ProjectLines lifts each 2D segment onto the plane by intersecting the camera rays through
// its endpoints with the plane. Segments with an endpoint whose ray misses the plane are
// dropped; the number dropped is returned alongside the projected segments.
func ProjectLines(
	plane Plane,
	segments []rimage.LineSegment2D,
	intrinsics *transform.PinholeCameraIntrinsics,
	logger logging.Logger,
) ([]LineSegment3D, int) {
	lines := make([]LineSegment3D, 0, len(segments))
	dropped := 0
	eq := plane.Equation()
	for _, seg := range segments {
		start, err := intrinsics.PixelOnPlane(eq, float64(seg.Start.X), float64(seg.Start.Y))
		if err == nil {
			var end r3.Vector
			end, err = intrinsics.PixelOnPlane(eq, float64(seg.End.X), float64(seg.End.Y))
			if err == nil {
				lines = append(lines, LineSegment3D{Start: start, End: end})
				continue
			}
		}
		dropped++
		if logger != nil {
			logger.Debugw("dropping segment", "segment", seg, "error", err)
		}
	}
	return lines, dropped
}

// Package transform holds camera models and the geometry that moves points between
// pixel space and camera space.
package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PixelOnPlane returns the point where the camera ray through pixel (u, v) meets the plane
// plane[0]*x + plane[1]*y + plane[2]*z + plane[3] = 0.
//
// The point is the solution of
//
//	| A   B   C     |   |x|   |-D|
//	| fx  0   ppx-u | * |y| = | 0|
//	| 0   fy  ppy-v |   |z|   | 0|
//
// whose last two rows pin (x, y, z) to the ray x = (u-ppx)z/fx, y = (v-ppy)z/fy, the same
// model PixelToPoint and PointToPixel use. If the system is singular ErrProjectionDegenerate
// is returned.
func (params *PinholeCameraIntrinsics) PixelOnPlane(plane [4]float64, u, v float64) (r3.Vector, error) {
	a := mat.NewDense(3, 3, []float64{
		plane[0], plane[1], plane[2],
		params.Fx, 0, params.Ppx - u,
		0, params.Fy, params.Ppy - v,
	})
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return r3.Vector{}, errors.Wrapf(ErrProjectionDegenerate, "pixel (%v, %v): %v", u, v, err)
	}
	b := mat.NewVecDense(3, []float64{-plane[3], 0, 0})
	var x mat.VecDense
	x.MulVec(&inv, b)

	pt := r3.Vector{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	for _, c := range []float64{pt.X, pt.Y, pt.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return r3.Vector{}, errors.Wrapf(ErrProjectionDegenerate, "pixel (%v, %v)", u, v)
		}
	}
	return pt, nil
}

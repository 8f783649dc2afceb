// Package segmentation implements plane segmentation of organized point clouds and the
// recovery of 3D edges on the planes it finds.
package segmentation

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	pc "github.com/swatdrc/doorpcl/pointcloud"
)

// Plane is the plane Equation()[0]*x + Equation()[1]*y + Equation()[2]*z + Equation()[3] = 0.
type Plane struct {
	equation [4]float64
}

// NewPlane returns the plane a*x + b*y + c*z + d = 0.
func NewPlane(a, b, c, d float64) Plane {
	return Plane{equation: [4]float64{a, b, c, d}}
}

// newPlaneFromNormal returns the plane with the given normal passing through pt.
func newPlaneFromNormal(normal, pt r3.Vector) Plane {
	return NewPlane(normal.X, normal.Y, normal.Z, -normal.Dot(pt))
}

// Equation returns the plane coefficients (A, B, C, D).
func (p Plane) Equation() [4]float64 {
	return p.equation
}

// Normal returns the normal vector (A, B, C). It is not normalized.
func (p Plane) Normal() r3.Vector {
	return r3.Vector{X: p.equation[0], Y: p.equation[1], Z: p.equation[2]}
}

// Distance returns the signed distance from the plane to pt.
func (p Plane) Distance(pt r3.Vector) float64 {
	return p.residual(pt) / p.Normal().Norm()
}

// residual evaluates the plane equation at pt. It is the signed distance scaled by the
// length of the normal.
func (p Plane) residual(pt r3.Vector) float64 {
	return p.equation[0]*pt.X + p.equation[1]*pt.Y + p.equation[2]*pt.Z + p.equation[3]
}

// A PlaneFitter finds the dominant plane among the candidate points of a cloud. It returns
// the plane and the inliers in ascending order, which are always a subset of candidates.
// An empty inlier set means no plane was found.
type PlaneFitter interface {
	FitPlane(cloud pc.PointCloud, candidates []int) (Plane, []int, error)
}

// RansacPlaneFitter fits planes by random sample consensus.
type RansacPlaneFitter struct {
	// Iterations is the number of three point samples drawn.
	// nIter = log(1-p)/log(1-(1-e)^3), where p is the probability of success and e the outlier ratio.
	Iterations int
	// DistanceThreshold is the largest distance from the plane a point may have to be an inlier.
	DistanceThreshold float64
	// OptimizeCoefficients refits the winning plane to all of its inliers by least squares.
	OptimizeCoefficients bool
	Seed                 int64
}

// NewRansacPlaneFitter returns a fitter using the sampling parameters of cfg.
func NewRansacPlaneFitter(cfg MultiPlaneConfig) *RansacPlaneFitter {
	return &RansacPlaneFitter{
		Iterations:           cfg.Iterations,
		DistanceThreshold:    cfg.DistanceThreshold,
		OptimizeCoefficients: cfg.OptimizeCoefficients,
		Seed:                 1,
	}
}

// FitPlane segments the biggest plane among the candidate points.
func (f *RansacPlaneFitter) FitPlane(cloud pc.PointCloud, candidates []int) (Plane, []int, error) {
	if f.Iterations <= 0 {
		return Plane{}, nil, errors.Errorf("ransac iterations must be greater than 0, got %d", f.Iterations)
	}
	if f.DistanceThreshold <= 0 {
		return Plane{}, nil, errors.Errorf("ransac distance threshold must be greater than 0, got %v", f.DistanceThreshold)
	}

	pts := make([]r3.Vector, 0, len(candidates))
	ptIdx := make([]int, 0, len(candidates))
	for _, idx := range candidates {
		p, _ := cloud.At(idx)
		if pc.IsValidPoint(p) {
			pts = append(pts, p)
			ptIdx = append(ptIdx, idx)
		}
	}
	// not even 3 points, so no plane
	if len(pts) < 3 {
		return Plane{}, []int{}, nil
	}

	r := rand.New(rand.NewSource(f.Seed)) //nolint:gosec
	var best Plane
	bestInliers := 0
	for i := 0; i < f.Iterations; i++ {
		n1, n2, n3 := sampleThree(len(pts), r)
		p1, p2, p3 := pts[n1], pts[n2], pts[n3]

		// the two sides of the sampled triangle span the candidate plane
		cross := p2.Sub(p1).Cross(p3.Sub(p1))
		if cross.Norm() < 1e-12 {
			// collinear sample
			continue
		}
		candidate := newPlaneFromNormal(cross.Normalize(), p1)

		count := 0
		for _, p := range pts {
			if math.Abs(candidate.residual(p)) < f.DistanceThreshold {
				count++
			}
		}
		if count > bestInliers {
			best = candidate
			bestInliers = count
		}
	}
	if bestInliers == 0 {
		return Plane{}, []int{}, nil
	}

	inliers := f.collectInliers(best, pts, ptIdx)
	if f.OptimizeCoefficients {
		refit, err := fitPlaneLeastSquares(pts, ptIdx, inliers)
		if err != nil {
			return Plane{}, nil, err
		}
		if refined := f.collectInliers(refit, pts, ptIdx); len(refined) > 0 {
			best, inliers = refit, refined
		}
	}
	return best, inliers, nil
}

func (f *RansacPlaneFitter) collectInliers(plane Plane, pts []r3.Vector, ptIdx []int) []int {
	// compare residuals against the threshold scaled once by the normal's length
	limit := f.DistanceThreshold * plane.Normal().Norm()
	inliers := make([]int, 0)
	for i, p := range pts {
		if math.Abs(plane.residual(p)) < limit {
			inliers = append(inliers, ptIdx[i])
		}
	}
	return inliers
}

// sampleThree draws three distinct values from [0, n). n must be at least 3.
func sampleThree(n int, r *rand.Rand) (int, int, int) {
	a := r.Intn(n)
	b := r.Intn(n - 1)
	if b >= a {
		b++
	}
	c := r.Intn(n - 2)
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if c >= lo {
		c++
	}
	if c >= hi {
		c++
	}
	return a, b, c
}

// fitPlaneLeastSquares returns the plane through the centroid of the inliers whose normal is
// the direction of least variance, the last right singular vector of the centered points.
func fitPlaneLeastSquares(pts []r3.Vector, ptIdx, inliers []int) (Plane, error) {
	if len(inliers) < 3 {
		return Plane{}, errors.Errorf("need at least 3 inliers to refit a plane, got %d", len(inliers))
	}
	selected := make([]r3.Vector, 0, len(inliers))
	j := 0
	for i, idx := range ptIdx {
		if j < len(inliers) && inliers[j] == idx {
			selected = append(selected, pts[i])
			j++
		}
	}

	var centroid r3.Vector
	for _, p := range selected {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(selected)))

	centered := mat.NewDense(len(selected), 3, nil)
	for i, p := range selected {
		d := p.Sub(centroid)
		centered.SetRow(i, []float64{d.X, d.Y, d.Z})
	}
	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThinV); !ok {
		return Plane{}, errors.New("least squares plane refit did not converge")
	}
	var v mat.Dense
	svd.VTo(&v)
	normal := r3.Vector{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
	return newPlaneFromNormal(normal.Normalize(), centroid), nil
}

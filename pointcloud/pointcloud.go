// Package pointcloud defines an organized point cloud and provides an implementation for one.
//
// Clouds are grids of width x height points stored in row-major order, the way depth
// sensors deliver them. Positions that the sensor could not measure are NaN.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool

	// ValidPoints counts the points with finite positions that have been set.
	ValidPoints int

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns an empty MetaData with bounds ready to be merged into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with the new data. Invalid positions are ignored.
func (meta *MetaData) Merge(v r3.Vector, data Data) {
	if !IsValidPoint(v) {
		return
	}
	meta.ValidPoints++
	if data != nil && data.HasColor() {
		meta.HasColor = true
	}

	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)

	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
}

// PointCloud is an ordered grid of points. Index i addresses the point in column
// i % Width() and row i / Width().
type PointCloud interface {
	// Width returns the number of columns.
	Width() int

	// Height returns the number of rows.
	Height() int

	// Size returns the number of points in the cloud, Width()*Height().
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// At returns the position and data of the point at flattened index i.
	At(i int) (r3.Vector, Data)

	// AtXY returns the position and data of the point at column x, row y.
	AtXY(x, y int) (r3.Vector, Data)

	// Set places the given point at flattened index i.
	Set(i int, p r3.Vector, d Data) error

	// Iterate iterates over all points in index order and calls the given
	// function for each point. If the supplied function returns false,
	// iteration will stop after the function returns.
	Iterate(fn func(i int, p r3.Vector, d Data) bool)
}

// IsValidPoint reports whether every component of p is finite.
func IsValidPoint(p r3.Vector) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsNaN(p.Z) &&
		!math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) && !math.IsInf(p.Z, 0)
}

// InvalidPoint returns the position used for unmeasured points.
func InvalidPoint() r3.Vector {
	return r3.Vector{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

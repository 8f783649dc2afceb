package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// organizedPointCloud is the basic implementation of the PointCloud interface backed by
// flat slices in row-major order.
type organizedPointCloud struct {
	width, height int
	points        []r3.Vector
	data          []Data
	meta          MetaData
}

// NewOrganized returns a width x height PointCloud whose points all start out invalid.
// Negative dimensions are treated as zero.
func NewOrganized(width, height int) PointCloud {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	points := make([]r3.Vector, width*height)
	for i := range points {
		points[i] = InvalidPoint()
	}
	return &organizedPointCloud{
		width:  width,
		height: height,
		points: points,
		data:   make([]Data, width*height),
		meta:   NewMetaData(),
	}
}

func (cloud *organizedPointCloud) Width() int {
	return cloud.width
}

func (cloud *organizedPointCloud) Height() int {
	return cloud.height
}

func (cloud *organizedPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *organizedPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *organizedPointCloud) At(i int) (r3.Vector, Data) {
	if i < 0 || i >= len(cloud.points) {
		return InvalidPoint(), nil
	}
	return cloud.points[i], cloud.data[i]
}

func (cloud *organizedPointCloud) AtXY(x, y int) (r3.Vector, Data) {
	if x < 0 || x >= cloud.width || y < 0 || y >= cloud.height {
		return InvalidPoint(), nil
	}
	return cloud.At(y*cloud.width + x)
}

// Set stores the point at index i. Replacing a point does not shrink the meta data bounds.
func (cloud *organizedPointCloud) Set(i int, p r3.Vector, d Data) error {
	if i < 0 || i >= len(cloud.points) {
		return errors.Errorf("index %d out of range for %dx%d point cloud", i, cloud.width, cloud.height)
	}
	if IsValidPoint(cloud.points[i]) {
		cloud.meta.ValidPoints--
	}
	cloud.points[i] = p
	cloud.data[i] = d
	cloud.meta.Merge(p, d)
	return nil
}

func (cloud *organizedPointCloud) Iterate(fn func(i int, p r3.Vector, d Data) bool) {
	for i, p := range cloud.points {
		if !fn(i, p, cloud.data[i]) {
			return
		}
	}
}

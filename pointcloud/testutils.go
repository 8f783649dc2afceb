package pointcloud

import (
	"github.com/golang/geo/r3"
)

// NewTestGrid returns a width x height cloud whose point at (x, y) is fn(x, y).
// It is meant for building synthetic scenes in tests.
func NewTestGrid(width, height int, fn func(x, y int) r3.Vector) PointCloud {
	cloud := NewOrganized(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_ = cloud.Set(y*width+x, fn(x, y), nil)
		}
	}
	return cloud
}

// Package rimage holds the 2D image side of plane processing: binary plane masks and the
// detection of straight line segments on them.
package rimage

import (
	"image"

	"github.com/pkg/errors"
)

const (
	// MaskOn is the gray value of a cell that belongs to the plane.
	MaskOn uint8 = 255
	// MaskOff is the gray value of every other cell.
	MaskOff uint8 = 0
)

// BinaryMask is a grid the size of an organized point cloud where each cell is either on
// or off a plane. Cell (x, y) corresponds to cloud index y*width + x.
type BinaryMask struct {
	gray *image.Gray
}

// NewBinaryMask returns an all-off width x height mask.
func NewBinaryMask(width, height int) *BinaryMask {
	return &BinaryMask{gray: image.NewGray(image.Rect(0, 0, width, height))}
}

// RasterizeIndices marks each flattened cloud index in indices as on. An empty index set
// produces an all-off mask; an index outside [0, width*height) is an error.
func RasterizeIndices(width, height int, indices []int) (*BinaryMask, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("invalid mask size (%d, %d)", width, height)
	}
	mask := NewBinaryMask(width, height)
	size := width * height
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			return nil, errors.Errorf("index %d out of range for %dx%d mask", idx, width, height)
		}
		// Gray.Pix is row-major with Stride == width, so the cloud index is the pixel offset.
		mask.gray.Pix[idx] = MaskOn
	}
	return mask, nil
}

// Width returns the number of columns.
func (m *BinaryMask) Width() int {
	return m.gray.Rect.Dx()
}

// Height returns the number of rows.
func (m *BinaryMask) Height() int {
	return m.gray.Rect.Dy()
}

// IsOn reports whether cell (x, y) is on. Cells outside the mask are off.
func (m *BinaryMask) IsOn(x, y int) bool {
	if !(image.Point{x, y}).In(m.gray.Rect) {
		return false
	}
	return m.gray.GrayAt(x, y).Y == MaskOn
}

// Count returns the number of on cells.
func (m *BinaryMask) Count() int {
	n := 0
	for _, v := range m.gray.Pix {
		if v == MaskOn {
			n++
		}
	}
	return n
}

// OnIndices returns the flattened indices of the on cells in ascending order.
func (m *BinaryMask) OnIndices() []int {
	out := make([]int, 0, m.Count())
	for i, v := range m.gray.Pix {
		if v == MaskOn {
			out = append(out, i)
		}
	}
	return out
}

// Gray returns the mask as a grayscale image. The image is shared, not copied.
func (m *BinaryMask) Gray() *image.Gray {
	return m.gray
}

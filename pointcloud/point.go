package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Data is the payload stored next to a point's position. A nil Data is a bare position.
type Data interface {
	HasColor() bool
	Color() color.NRGBA
}

// rgbData is the payload of a point decoded from a PCD rgb field.
type rgbData color.NRGBA

// NewColoredData returns the payload of a point with the given color.
func NewColoredData(c color.NRGBA) Data {
	return rgbData(c)
}

func (d rgbData) HasColor() bool {
	return true
}

func (d rgbData) Color() color.NRGBA {
	return color.NRGBA(d)
}

// packedRGBToColor unpacks the 0x00RRGGBB layout used by PCD rgb fields.
func packedRGBToColor(c uint32) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

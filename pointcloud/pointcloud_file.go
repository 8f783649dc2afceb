package pointcloud

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/pc"
	"go.viam.com/utils"
)

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string) (PointCloud, error) {
	switch filepath.Ext(fn) {
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		cloud, err := ReadPCD(f)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading %q", fn)
		}
		return cloud, nil
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// ReadPCD decodes an organized PCD stream. The ascii, binary and binary_compressed
// encodings are supported, and WIDTH/HEIGHT are kept so the cloud stays a grid.
// Colors are read from an "rgb" or "rgba" field when one is present.
func ReadPCD(in io.Reader) (PointCloud, error) {
	pp, err := pc.Unmarshal(in)
	if err != nil {
		return nil, errors.Wrap(err, "error decoding pcd")
	}
	if pp.Width*pp.Height != pp.Points {
		return nil, errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", pp.Points, pp.Width*pp.Height)
	}

	cloud := NewOrganized(pp.Width, pp.Height)
	if pp.Points == 0 {
		return cloud, nil
	}
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "pcd has no x y z fields")
	}
	var colorIt pc.Float32Iterator
	for _, name := range pp.Fields {
		if name == "rgb" || name == "rgba" {
			if colorIt, err = pp.Float32Iterator(name); err != nil {
				return nil, err
			}
			break
		}
	}

	for i := 0; it.IsValid() && i < pp.Points; i++ {
		v := it.Vec3()
		pos := NewVector(float64(v[0]), float64(v[1]), float64(v[2]))
		var data Data
		if colorIt != nil {
			data = NewColoredData(packedRGBToColor(math.Float32bits(colorIt.Float32())))
			colorIt.Incr()
		}
		if err := cloud.Set(i, pos, data); err != nil {
			return nil, err
		}
		it.Incr()
	}
	return cloud, nil
}

// FrameFileName names the PCD file of frame seq for the given prefix, e.g.
// "pcd_frames/sample" and 3 give "pcd_frames/sample3.pcd".
func FrameFileName(prefix string, seq int) string {
	return fmt.Sprintf("%s%d.pcd", prefix, seq)
}

// FrameReader reads numbered PCD frames in order. The sequence it owns replaces any
// process-wide counter; two readers over the same prefix are independent.
type FrameReader struct {
	prefix string
	next   int
}

// NewFrameReader returns a FrameReader that will read prefix<start>.pcd first.
func NewFrameReader(prefix string, start int) *FrameReader {
	return &FrameReader{prefix: prefix, next: start}
}

// Next reads the next frame and returns it with its sequence number. When the file
// does not exist the returned error satisfies errors.Is(err, os.ErrNotExist) and
// the sequence is not advanced.
func (fr *FrameReader) Next() (PointCloud, int, error) {
	seq := fr.next
	cloud, err := NewFromFile(FrameFileName(fr.prefix, seq))
	if err != nil {
		return nil, seq, err
	}
	fr.next++
	return cloud, seq, nil
}

// Sequence returns the sequence number the next call to Next will read.
func (fr *FrameReader) Sequence() int {
	return fr.next
}

// Skip advances past the next frame without reading it, e.g. after Next failed to decode it.
func (fr *FrameReader) Skip() {
	fr.next++
}

//go:build !no_cgo

package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Swapped out in tests to simulate OpenCV failures.
var (
	canny       = gocv.Canny
	houghLinesP = gocv.HoughLinesPWithParams
)

type cannyHoughDetector struct {
	cfg HoughConfig
}

// NewCannyHoughDetector returns a LineDetector that runs OpenCV's Canny edge filter over the
// mask and then its probabilistic Hough transform over the edges.
func NewCannyHoughDetector(cfg HoughConfig) (LineDetector, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, err
	}
	return &cannyHoughDetector{cfg: cfg}, nil
}

func (d *cannyHoughDetector) DetectLines(mask *BinaryMask) ([]LineSegment2D, error) {
	if mask.Width() == 0 || mask.Height() == 0 {
		return nil, nil
	}
	src, err := gocv.ImageGrayToMatGray(mask.Gray())
	if err != nil {
		return nil, errors.Wrap(ErrEdgeDetection, err.Error())
	}
	defer src.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	if err := d.detectEdges(src, &edges); err != nil {
		return nil, err
	}

	lines := gocv.NewMat()
	defer lines.Close()
	if err := houghLinesP(edges, &lines,
		float32(d.cfg.Rho), float32(d.cfg.Theta), d.cfg.Threshold,
		float32(d.cfg.MinLineLength), float32(d.cfg.MaxLineGap)); err != nil {
		return nil, errors.Wrap(ErrEdgeDetection, err.Error())
	}

	segments := make([]LineSegment2D, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		l := lines.GetVeciAt(i, 0)
		segments = append(segments, LineSegment2D{
			Start: image.Pt(int(l[0]), int(l[1])),
			End:   image.Pt(int(l[2]), int(l[3])),
		})
	}
	return segments, nil
}

// detectEdges runs the edge filter, turning an OpenCV failure into ErrEdgeDetection.
func (d *cannyHoughDetector) detectEdges(src gocv.Mat, edges *gocv.Mat) error {
	if err := canny(src, edges, float32(d.cfg.CannyLow), float32(d.cfg.CannyHigh)); err != nil {
		return errors.Wrap(ErrEdgeDetection, err.Error())
	}
	if edges.Empty() {
		return errors.Wrap(ErrEdgeDetection, "edge filter produced no output")
	}
	return nil
}

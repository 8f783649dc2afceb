//go:build no_cgo

package rimage

import "github.com/pkg/errors"

// NewCannyHoughDetector is unavailable without cgo since it needs OpenCV.
func NewCannyHoughDetector(cfg HoughConfig) (LineDetector, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, err
	}
	return nil, errors.New("the canny/hough line detector requires cgo and OpenCV")
}

package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// ErrEdgeDetection is returned by a LineDetector whose edge filter failed on a mask.
var ErrEdgeDetection = errors.New("edge detection failed")

// LineSegment2D is a straight segment between two pixels, (u1, v1) to (u2, v2).
type LineSegment2D struct {
	Start image.Point
	End   image.Point
}

// NewLineSegment2D returns the segment from (u1, v1) to (u2, v2).
func NewLineSegment2D(u1, v1, u2, v2 int) LineSegment2D {
	return LineSegment2D{Start: image.Pt(u1, v1), End: image.Pt(u2, v2)}
}

// Length returns the euclidean length of the segment in pixels.
func (l LineSegment2D) Length() float64 {
	return math.Hypot(float64(l.End.X-l.Start.X), float64(l.End.Y-l.Start.Y))
}

// A LineDetector finds straight line segments along the boundaries of a binary mask.
type LineDetector interface {
	DetectLines(mask *BinaryMask) ([]LineSegment2D, error)
}

// HoughConfig holds the edge filter and probabilistic Hough transform parameters.
type HoughConfig struct {
	// CannyLow and CannyHigh are the hysteresis thresholds of the edge filter.
	CannyLow  float64 `json:"canny_low" yaml:"canny_low"`
	CannyHigh float64 `json:"canny_high" yaml:"canny_high"`
	// ApertureSize is the Sobel aperture of the edge filter.
	ApertureSize int `json:"aperture_size" yaml:"aperture_size"`
	// Rho is the distance resolution of the accumulator in pixels.
	Rho float64 `json:"rho" yaml:"rho"`
	// Theta is the angle resolution of the accumulator in radians.
	Theta float64 `json:"theta" yaml:"theta"`
	// Threshold is the minimum number of accumulator votes for a line.
	Threshold int `json:"threshold" yaml:"threshold"`
	// MinLineLength is the shortest segment reported, in pixels.
	MinLineLength float64 `json:"min_line_length" yaml:"min_line_length"`
	// MaxLineGap is the largest gap between collinear pieces merged into one segment.
	MaxLineGap float64 `json:"max_line_gap" yaml:"max_line_gap"`
}

// DefaultHoughConfig returns the profile tuned for door and wall masks from a 640x480 depth sensor.
func DefaultHoughConfig() HoughConfig {
	return HoughConfig{
		CannyLow:      25,
		CannyHigh:     230,
		ApertureSize:  3,
		Rho:           8,
		Theta:         math.Pi / 180,
		Threshold:     40,
		MinLineLength: 75,
		MaxLineGap:    4,
	}
}

// CheckValid checks that the parameters can be handed to the edge filter and Hough transform.
func (cfg *HoughConfig) CheckValid() error {
	if cfg.CannyLow < 0 {
		return errors.Errorf("canny_low cannot be less than 0, got %v", cfg.CannyLow)
	}
	if cfg.CannyHigh < cfg.CannyLow {
		return errors.Errorf("canny_high (%v) cannot be less than canny_low (%v)", cfg.CannyHigh, cfg.CannyLow)
	}
	// OpenCV's Canny binding in gocv always runs with a 3x3 Sobel aperture.
	if cfg.ApertureSize != 3 {
		return errors.Errorf("aperture_size must be 3, got %d", cfg.ApertureSize)
	}
	if cfg.Rho <= 0 {
		return errors.Errorf("rho must be greater than 0, got %v", cfg.Rho)
	}
	if cfg.Theta <= 0 || cfg.Theta > math.Pi {
		return errors.Errorf("theta must be in (0, pi], got %v", cfg.Theta)
	}
	if cfg.Threshold <= 0 {
		return errors.Errorf("threshold must be greater than 0, got %d", cfg.Threshold)
	}
	if cfg.MinLineLength < 0 {
		return errors.Errorf("min_line_length cannot be less than 0, got %v", cfg.MinLineLength)
	}
	if cfg.MaxLineGap < 0 {
		return errors.Errorf("max_line_gap cannot be less than 0, got %v", cfg.MaxLineGap)
	}
	return nil
}

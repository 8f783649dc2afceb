package segmentation

import (
	"github.com/pkg/errors"

	"github.com/swatdrc/doorpcl/logging"
	pc "github.com/swatdrc/doorpcl/pointcloud"
	"github.com/swatdrc/doorpcl/rimage"
	"github.com/swatdrc/doorpcl/rimage/transform"
)

// ErrNoPlaneFound is returned when not even a first plane can be fit to a cloud.
var ErrNoPlaneFound = errors.New("no plane found in point cloud")

// MultiPlaneConfig holds the parameters of a multi-plane segmentation run.
type MultiPlaneConfig struct {
	// MaxPlanes caps the number of planes per cloud. 0 means no cap.
	MaxPlanes int `json:"max_planes" yaml:"max_planes"`
	// MinRemainingSize is the inlier count a plane must exceed for the search to go on
	// once two planes have been found.
	MinRemainingSize     int     `json:"min_remaining_size" yaml:"min_remaining_size"`
	DistanceThreshold    float64 `json:"distance_threshold" yaml:"distance_threshold"`
	Iterations           int     `json:"iterations" yaml:"iterations"`
	OptimizeCoefficients bool    `json:"optimize_coefficients" yaml:"optimize_coefficients"`
}

// DefaultMultiPlaneConfig returns the parameters used for 640x480 depth frames of indoor scenes.
func DefaultMultiPlaneConfig() MultiPlaneConfig {
	return MultiPlaneConfig{
		MaxPlanes:         6,
		MinRemainingSize:  50000,
		DistanceThreshold: 0.03,
		Iterations:        50,
	}
}

// CheckValid checks the config fields.
func (cfg *MultiPlaneConfig) CheckValid() error {
	if cfg.MaxPlanes < 0 {
		return errors.Errorf("max_planes cannot be less than 0, got %d", cfg.MaxPlanes)
	}
	if cfg.MinRemainingSize < 0 {
		return errors.Errorf("min_remaining_size cannot be less than 0, got %d", cfg.MinRemainingSize)
	}
	if cfg.DistanceThreshold <= 0 {
		return errors.Errorf("distance_threshold must be greater than 0, got %v", cfg.DistanceThreshold)
	}
	if cfg.Iterations <= 0 {
		return errors.Errorf("iterations must be greater than 0, got %d", cfg.Iterations)
	}
	return nil
}

// PlaneLines is one plane found by a segmentation run together with the edges found on it.
type PlaneLines struct {
	Plane Plane
	// Inliers are the cloud indices assigned to the plane, ascending.
	Inliers []int
	Lines2D []rimage.LineSegment2D
	// Lines are the 2D segments projected onto the plane.
	Lines []LineSegment3D
	// ResidualSize is the number of points not yet assigned to a plane once this one was removed.
	ResidualSize int
	// Dropped counts the 2D segments that could not be projected onto the plane.
	Dropped int
}

// MultiPlaneSegmenter repeatedly peels the dominant plane off a cloud and recovers the
// straight edges of each plane in camera space.
// It holds no per-cloud state, but concurrent Segment calls must be serialized by the caller.
type MultiPlaneSegmenter struct {
	cfg        MultiPlaneConfig
	intrinsics *transform.PinholeCameraIntrinsics
	fitter     PlaneFitter
	detector   rimage.LineDetector
	logger     logging.Logger
}

// NewMultiPlaneSegmenter returns a segmenter. A nil fitter defaults to a RansacPlaneFitter
// built from cfg.
func NewMultiPlaneSegmenter(
	cfg MultiPlaneConfig,
	intrinsics *transform.PinholeCameraIntrinsics,
	fitter PlaneFitter,
	detector rimage.LineDetector,
	logger logging.Logger,
) (*MultiPlaneSegmenter, error) {
	if err := cfg.CheckValid(); err != nil {
		return nil, errors.Wrap(err, "invalid segmentation config")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, errors.New("multi-plane segmenter needs a line detector")
	}
	if fitter == nil {
		fitter = NewRansacPlaneFitter(cfg)
	}
	if logger == nil {
		logger = logging.NewBlankLogger("segmentation")
	}
	return &MultiPlaneSegmenter{
		cfg:        cfg,
		intrinsics: intrinsics,
		fitter:     fitter,
		detector:   detector,
		logger:     logger,
	}, nil
}

// Segment runs SegmentWithLimits with the configured limits.
func (s *MultiPlaneSegmenter) Segment(cloud pc.PointCloud) ([]PlaneLines, error) {
	return s.SegmentWithLimits(cloud, s.cfg.MaxPlanes, s.cfg.MinRemainingSize)
}

// SegmentWithLimits finds planes in the cloud in order of discovery. The search goes on
// while fewer than two planes were found or the last plane had more than minRemainingSize
// inliers, as long as unassigned points remain and fewer than maxPlanes planes were found.
// A maxPlanes of 0 means no cap.
//
// ErrNoPlaneFound is returned if the cloud is empty or the first fit fails. A failed fit
// after that ends the search.
func (s *MultiPlaneSegmenter) SegmentWithLimits(cloud pc.PointCloud, maxPlanes, minRemainingSize int) ([]PlaneLines, error) {
	if cloud == nil {
		return nil, errors.New("cannot segment a nil point cloud")
	}
	width, height := cloud.Width(), cloud.Height()
	if width == 0 || height == 0 {
		return nil, errors.Wrapf(ErrNoPlaneFound, "empty %dx%d cloud", width, height)
	}

	residual := allIndices(cloud.Size())
	results := make([]PlaneLines, 0)
	lastInliers := 0
	for len(results) < 2 || lastInliers > minRemainingSize {
		if len(residual) == 0 {
			break
		}
		if maxPlanes > 0 && len(results) >= maxPlanes {
			break
		}

		plane, inliers, err := s.fitter.FitPlane(cloud, residual)
		if err != nil || len(inliers) == 0 {
			if len(results) == 0 {
				if err != nil {
					return nil, errors.Wrap(ErrNoPlaneFound, err.Error())
				}
				return nil, ErrNoPlaneFound
			}
			if err != nil {
				s.logger.Warnw("plane fit failed, stopping", "planes", len(results), "error", err)
			}
			break
		}

		next := SubtractSortedIndices(residual, inliers)
		if len(residual)-len(next) != len(inliers) {
			return nil, errors.Errorf("plane %d: fitter returned %d inliers but only %d were unassigned candidates",
				len(results), len(inliers), len(residual)-len(next))
		}

		mask, err := rimage.RasterizeIndices(width, height, inliers)
		if err != nil {
			return nil, errors.Wrapf(err, "plane %d", len(results))
		}
		lines2D, err := s.detector.DetectLines(mask)
		if err != nil {
			s.logger.Warnw("line detection failed, plane keeps no lines", "plane", len(results), "error", err)
			lines2D = nil
		}
		lines, dropped := ProjectLines(plane, lines2D, s.intrinsics, s.logger)

		residual = next
		lastInliers = len(inliers)
		results = append(results, PlaneLines{
			Plane:        plane,
			Inliers:      inliers,
			Lines2D:      lines2D,
			Lines:        lines,
			ResidualSize: len(residual),
			Dropped:      dropped,
		})
		s.logger.Debugw("found plane",
			"plane", len(results)-1,
			"equation", plane.Equation(),
			"inliers", len(inliers),
			"lines", len(lines),
			"dropped", dropped,
			"residual", len(residual))
	}
	return results, nil
}

package segment

import (
	"fmt"
	"image"

	"go.uber.org/zap"
)

// Region is the result of one live detection cycle.
type Region struct {
	Sample   ColorSample     // Center sample in the alternate color space
	Window   ToleranceWindow // Derived color window
	Contour  Contour         // Largest contour of the selected mask stage
	Area     float64         // Polygon area of Contour
	Hull     []image.Point   // Convex hull of Contour
	Expanded []image.Point   // Hull scaled about its vertex centroid
	Mask     *image.Gray     // Filled expanded hull; the region of interest
}

// Detector runs the detection, segmentation and measurement stages with a
// fixed configuration. It holds no per-frame state and is safe for
// concurrent use.
type Detector struct {
	cfg    Config
	logger *zap.SugaredLogger
}

// NewDetector validates cfg and returns a Detector.
func NewDetector(cfg Config, logger *zap.SugaredLogger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Detector{cfg: cfg, logger: logger}, nil
}

// Config returns the detector's configuration.
func (d *Detector) Config() Config { return d.cfg }

// DetectRegion runs color masking, refinement, contour extraction and hull
// expansion on one frame pair. color and hsv must be the same size.
//
// It returns ErrNoRegionFound when nothing matches the center color and
// ErrInvalidInput for empty or mismatched frames.
func (d *Detector) DetectRegion(color, hsv *Frame) (*Region, error) {
	if err := checkFrame("color", color); err != nil {
		return nil, err
	}
	if err := checkFrame("alternate", hsv); err != nil {
		return nil, err
	}
	if color.Width != hsv.Width || color.Height != hsv.Height {
		return nil, fmt.Errorf("color frame %dx%d does not match alternate frame %dx%d: %w",
			color.Width, color.Height, hsv.Width, hsv.Height, ErrInvalidInput)
	}

	raw, sample, window, err := MaskFromCenter(hsv, d.cfg.Tolerance)
	if err != nil {
		return nil, err
	}

	source := raw
	if d.cfg.ContourSource != ContourFromRaw {
		refined, err := RefineMask(raw, d.cfg.Refine)
		if err != nil {
			return nil, fmt.Errorf("refine: %w", err)
		}
		source = refined.Filtered
		if d.cfg.ContourSource == ContourFromOpened {
			source = refined.Opened
		}
	}

	contour, area, err := ExtractLargest(source)
	if err != nil {
		d.logger.Debugw("no region", "sample", sample, "lower", window.Lower, "upper", window.Upper)
		return nil, err
	}

	hull, expanded, mask, err := HullMask(contour, d.cfg.HullScale, color.Width, color.Height)
	if err != nil {
		return nil, fmt.Errorf("hull: %w", err)
	}

	d.logger.Debugw("region detected",
		"sample", sample,
		"contour_points", len(contour),
		"area", area,
		"hull_points", len(hull),
	)
	return &Region{
		Sample:   sample,
		Window:   window,
		Contour:  contour,
		Area:     area,
		Hull:     hull,
		Expanded: expanded,
		Mask:     mask,
	}, nil
}

// Segment runs interactive segmentation of color seeded by roi. An
// iterations value of zero uses the configured default.
func (d *Detector) Segment(color *Frame, roi *image.Gray, iterations int) (*image.Gray, error) {
	if iterations == 0 {
		iterations = d.cfg.GrabCut.Iterations
	}
	mask, err := Segment(color, roi, iterations, d.cfg.GrabCut)
	if err != nil {
		return nil, err
	}
	d.logger.Debugw("segmented", "iterations", iterations, "foreground", CountSet(mask))
	return mask, nil
}

// Measure returns the vertical extent of mask.
func (d *Detector) Measure(mask *image.Gray) (Extent, error) {
	return Measure(mask)
}

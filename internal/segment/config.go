package segment

import "fmt"

// ContourSource selects which mask stage feeds contour extraction.
type ContourSource string

const (
	// ContourFromFiltered uses the median-filtered mask before opening. This
	// is the legacy behavior: the opened mask is computed and then unused.
	ContourFromFiltered ContourSource = "filtered"

	// ContourFromOpened uses the median-filtered, morphologically opened mask.
	ContourFromOpened ContourSource = "opened"

	// ContourFromRaw skips refinement and traces the color-range mask directly.
	ContourFromRaw ContourSource = "raw"
)

// Config holds all parameters of the detection and capture pipeline.
type Config struct {
	Tolerance     ToleranceConfig `yaml:"tolerance" json:"tolerance"`
	Refine        RefineConfig    `yaml:"refine" json:"refine"`
	ContourSource ContourSource   `yaml:"contour_source" json:"contour_source"`
	HullScale     float64         `yaml:"hull_scale" json:"hull_scale"` // Outward scale of the hull about its centroid
	GrabCut       GrabCutConfig   `yaml:"grabcut" json:"grabcut"`
}

// ToleranceConfig holds the parameters of the adaptive color window.
type ToleranceConfig struct {
	HueDelta         int     `yaml:"hue_delta" json:"hue_delta"`                 // Fixed hue half-width
	SaturationFloor  int     `yaml:"saturation_floor" json:"saturation_floor"`   // Minimum saturation half-width
	ValueFloor       int     `yaml:"value_floor" json:"value_floor"`             // Minimum value half-width
	AdaptiveFraction float64 `yaml:"adaptive_fraction" json:"adaptive_fraction"` // Fraction of S and V used as half-width
	HueMax           int     `yaml:"hue_max" json:"hue_max"`                     // Largest valid hue (179 for half-turn hue)
}

// RefineConfig holds the mask denoising window sizes. Both must be odd.
type RefineConfig struct {
	MedianSize int `yaml:"median_size" json:"median_size"`
	KernelSize int `yaml:"kernel_size" json:"kernel_size"`
}

// GrabCutConfig holds the interactive segmentation parameters.
type GrabCutConfig struct {
	Iterations int     `yaml:"iterations" json:"iterations"` // Rounds of model fitting and min-cut
	Components int     `yaml:"components" json:"components"` // Gaussians per color model
	Gamma      float64 `yaml:"gamma" json:"gamma"`           // Smoothness weight
}

// DefaultConfig returns the reference parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance: ToleranceConfig{
			HueDelta:         40,
			SaturationFloor:  30,
			ValueFloor:       40,
			AdaptiveFraction: 0.2,
			HueMax:           179,
		},
		Refine: RefineConfig{
			MedianSize: 5,
			KernelSize: 5,
		},
		ContourSource: ContourFromFiltered,
		HullScale:     1.1,
		GrabCut: GrabCutConfig{
			Iterations: 10,
			Components: 5,
			Gamma:      50,
		},
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	t := c.Tolerance
	if t.HueDelta < 0 || t.SaturationFloor < 0 || t.ValueFloor < 0 {
		return fmt.Errorf("tolerance deltas must be non-negative")
	}
	if t.AdaptiveFraction < 0 {
		return fmt.Errorf("adaptive fraction must be non-negative, got %v", t.AdaptiveFraction)
	}
	if t.HueMax <= 0 || t.HueMax > 255 {
		return fmt.Errorf("hue max must be in 1..255, got %d", t.HueMax)
	}
	if err := checkWindow("median", c.Refine.MedianSize); err != nil {
		return err
	}
	if err := checkWindow("kernel", c.Refine.KernelSize); err != nil {
		return err
	}
	switch c.ContourSource {
	case ContourFromFiltered, ContourFromOpened, ContourFromRaw:
	default:
		return fmt.Errorf("unknown contour source %q", c.ContourSource)
	}
	if c.HullScale <= 0 {
		return fmt.Errorf("hull scale must be positive, got %v", c.HullScale)
	}
	g := c.GrabCut
	if g.Iterations <= 0 {
		return fmt.Errorf("grabcut iterations must be positive, got %d", g.Iterations)
	}
	if g.Components <= 0 {
		return fmt.Errorf("grabcut components must be positive, got %d", g.Components)
	}
	if g.Gamma < 0 {
		return fmt.Errorf("grabcut gamma must be non-negative, got %v", g.Gamma)
	}
	return nil
}

func checkWindow(name string, size int) error {
	if size <= 0 || size%2 == 0 {
		return fmt.Errorf("%s size must be a positive odd number, got %d", name, size)
	}
	return nil
}

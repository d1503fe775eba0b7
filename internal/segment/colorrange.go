package segment

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// ColorSample is a single pixel's three channel values.
type ColorSample [3]uint8

// ToleranceWindow is a per-channel inclusive [Lower, Upper] range.
type ToleranceWindow struct {
	Lower [3]uint8 `json:"lower"`
	Upper [3]uint8 `json:"upper"`
}

// Contains reports whether every channel of c lies inside the window.
func (w ToleranceWindow) Contains(c [3]uint8) bool {
	return c[0] >= w.Lower[0] && c[0] <= w.Upper[0] &&
		c[1] >= w.Lower[1] && c[1] <= w.Upper[1] &&
		c[2] >= w.Lower[2] && c[2] <= w.Upper[2]
}

// SampleCenter reads the pixel at (Width/2, Height/2).
func SampleCenter(f *Frame) (ColorSample, error) {
	if err := checkFrame("sample", f); err != nil {
		return ColorSample{}, err
	}
	return ColorSample(f.At(f.Width/2, f.Height/2)), nil
}

// NewToleranceWindow derives the adaptive window around an HSV sample.
//
// Hue uses a fixed half-width. Saturation and value use the larger of their
// floor and AdaptiveFraction of the sampled channel, so dim or washed-out
// seeds get a tighter window than bright, saturated ones. Bounds are clamped
// to [0, HueMax] for hue and [0, 255] otherwise; hue does not wrap.
func NewToleranceWindow(s ColorSample, cfg ToleranceConfig) ToleranceWindow {
	hDelta := cfg.HueDelta
	sDelta := adaptiveDelta(s[1], cfg.SaturationFloor, cfg.AdaptiveFraction)
	vDelta := adaptiveDelta(s[2], cfg.ValueFloor, cfg.AdaptiveFraction)

	maxes := [3]int{cfg.HueMax, 255, 255}
	deltas := [3]int{hDelta, sDelta, vDelta}

	var w ToleranceWindow
	for c := 0; c < 3; c++ {
		v := int(s[c])
		w.Lower[c] = uint8(clampInt(v-deltas[c], 0, maxes[c]))
		w.Upper[c] = uint8(clampInt(v+deltas[c], 0, maxes[c]))
	}
	return w
}

func adaptiveDelta(v uint8, floor int, fraction float64) int {
	d := int(math.Round(float64(v) * fraction))
	if d < floor {
		return floor
	}
	return d
}

// ColorRangeMask returns a mask that is 255 where every channel of f lies
// inside w and 0 elsewhere.
func ColorRangeMask(f *Frame, w ToleranceWindow) (*image.Gray, error) {
	if err := checkFrame("color range", f); err != nil {
		return nil, err
	}
	mask := NewMask(f.Width, f.Height)

	parallel.Line(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			src := f.Pix[y*f.Width*3 : (y+1)*f.Width*3]
			dst := mask.Pix[y*mask.Stride : y*mask.Stride+f.Width]
			for x := range dst {
				i := x * 3
				if w.Contains([3]uint8{src[i], src[i+1], src[i+2]}) {
					dst[x] = 255
				}
			}
		}
	})
	return mask, nil
}

// MaskFromCenter samples the center of hsv and masks it with the derived
// window. It returns the sample and window alongside the mask.
func MaskFromCenter(hsv *Frame, cfg ToleranceConfig) (*image.Gray, ColorSample, ToleranceWindow, error) {
	sample, err := SampleCenter(hsv)
	if err != nil {
		return nil, ColorSample{}, ToleranceWindow{}, err
	}
	window := NewToleranceWindow(sample, cfg)
	mask, err := ColorRangeMask(hsv, window)
	if err != nil {
		return nil, sample, window, fmt.Errorf("color range: %w", err)
	}
	return mask, sample, window, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package segment

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	bildsegment "github.com/anthonynsimon/bild/segment"
)

// RefinedMask holds both outputs of the denoising stage.
type RefinedMask struct {
	// Filtered is the median-filtered mask.
	Filtered *image.Gray
	// Opened is Filtered after erosion followed by dilation.
	Opened *image.Gray
}

// RefineMask median-filters mask and then opens it with a square structuring
// element.
//
// Both windows are square with odd side lengths. Pixels beyond the border are
// replicated from the nearest edge pixel. Outputs remain binary (0 or 255).
func RefineMask(mask *image.Gray, cfg RefineConfig) (*RefinedMask, error) {
	if err := checkMask("refine", mask); err != nil {
		return nil, err
	}
	if err := checkWindow("median", cfg.MedianSize); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if err := checkWindow("kernel", cfg.KernelSize); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}

	filtered := MedianFilter(mask, cfg.MedianSize)
	opened := Open(filtered, cfg.KernelSize)
	return &RefinedMask{Filtered: filtered, Opened: opened}, nil
}

// MedianFilter replaces every pixel with the median of its size×size window.
func MedianFilter(mask *image.Gray, size int) *image.Gray {
	return binarize(effect.Median(mask, windowRadius(size)))
}

// Erode shrinks set regions with a size×size square element.
func Erode(mask *image.Gray, size int) *image.Gray {
	return binarize(effect.Erode(mask, windowRadius(size)))
}

// Dilate grows set regions with a size×size square element.
func Dilate(mask *image.Gray, size int) *image.Gray {
	return binarize(effect.Dilate(mask, windowRadius(size)))
}

// Open performs erosion followed by dilation.
func Open(mask *image.Gray, size int) *image.Gray {
	return Dilate(Erode(mask, size), size)
}

// windowRadius converts an odd window side to the radius bild expects, where
// a radius of r searches a window of 2r+1 pixels.
func windowRadius(size int) float64 {
	return float64(size-1) / 2
}

func binarize(img image.Image) *image.Gray {
	out := bildsegment.Threshold(img, 128)
	// Threshold keeps the source bounds; normalize to the origin.
	if out.Bounds().Min != (image.Point{}) {
		return CloneMask(out)
	}
	return out
}

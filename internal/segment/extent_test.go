package segment

import (
	"errors"
	"image"
	"testing"
)

func TestMeasure(t *testing.T) {
	tests := []struct {
		name string
		mask *image.Gray
		want Extent
	}{
		{"rows 10 to 50", maskWithRects(30, 80, image.Rect(0, 10, 30, 51)), Extent{Top: 10, Bottom: 50, Height: 40}},
		{"single row", maskWithRects(30, 80, image.Rect(4, 7, 5, 8)), Extent{Top: 7, Bottom: 7, Height: 0}},
		{"full mask", maskWithRects(5, 5, image.Rect(0, 0, 5, 5)), Extent{Top: 0, Bottom: 4, Height: 4}},
		{"disjoint blobs", maskWithRects(20, 20, image.Rect(1, 2, 3, 4), image.Rect(10, 15, 12, 18)), Extent{Top: 2, Bottom: 17, Height: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Measure(tt.mask)
			if err != nil {
				t.Fatalf("Measure failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMeasure_Threshold(t *testing.T) {
	mask := NewMask(4, 10)
	mask.Pix[2*mask.Stride+1] = 128 // not above threshold
	mask.Pix[5*mask.Stride+1] = 129

	got, err := Measure(mask)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if got.Top != 5 || got.Bottom != 5 {
		t.Errorf("got %+v, want top=bottom=5", got)
	}
}

func TestMeasure_Empty(t *testing.T) {
	_, err := Measure(NewMask(30, 30))
	if !errors.Is(err, ErrEmptyMask) {
		t.Errorf("expected ErrEmptyMask, got %v", err)
	}

	_, err = Measure(nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil mask, got %v", err)
	}
}

func TestMeasure_SubImage(t *testing.T) {
	mask := maskWithRects(40, 40, image.Rect(0, 20, 40, 30))
	sub := mask.SubImage(image.Rect(0, 10, 40, 40)).(*image.Gray)

	got, err := Measure(sub)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if got.Top != 10 || got.Bottom != 19 {
		t.Errorf("got %+v, want rows relative to the sub-image origin", got)
	}
}

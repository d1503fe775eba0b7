package segment

import (
	"errors"
	"image"
	"testing"
)

var (
	diskColor       = [3]uint8{220, 40, 30}
	backgroundColor = [3]uint8{30, 60, 200}
)

func TestSegment_Disk(t *testing.T) {
	img := solidFrame(80, 80, backgroundColor)
	fillFrameDisk(img, 40, 40, 18, diskColor)
	roi := diskMask(80, 80, 40, 40, 24)
	cfg := DefaultConfig().GrabCut

	mask, err := Segment(img, roi, 3, cfg)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if !isBinary(mask) {
		t.Error("result is not binary")
	}

	want := diskMask(80, 80, 40, 40, 18)
	if d := maskDiff(mask, want); d > 20 {
		t.Errorf("segmentation differs from the disk in %d pixels", d)
	}
}

func TestSegment_NeverGrowsBeyondRegion(t *testing.T) {
	img := solidFrame(60, 40, backgroundColor)
	// Same-colored objects inside and outside the region of interest
	fillFrameRect(img, image.Rect(10, 10, 25, 30), diskColor)
	fillFrameRect(img, image.Rect(35, 10, 55, 30), diskColor)
	roi := maskWithRects(60, 40, image.Rect(5, 5, 30, 35))

	mask, err := Segment(img, roi, 2, DefaultConfig().GrabCut)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			if mask.GrayAt(x, y).Y != 0 && roi.GrayAt(x, y).Y == 0 {
				t.Fatalf("pixel (%d,%d) became foreground outside the region", x, y)
			}
		}
	}
	if mask.GrayAt(15, 15).Y != 255 {
		t.Error("object pixel inside the region was lost")
	}
	if mask.GrayAt(7, 7).Y != 0 {
		t.Error("background pixel inside the region kept as foreground")
	}
}

func TestSegment_InvalidInput(t *testing.T) {
	img := solidFrame(20, 20, backgroundColor)
	roi := maskWithRects(20, 20, image.Rect(5, 5, 15, 15))
	cfg := DefaultConfig().GrabCut

	tests := []struct {
		name       string
		img        *Frame
		roi        *image.Gray
		iterations int
		cfg        GrabCutConfig
	}{
		{"empty frame", NewFrame(0, 0), roi, 1, cfg},
		{"nil region", img, nil, 1, cfg},
		{"size mismatch", img, maskWithRects(20, 10, image.Rect(5, 5, 15, 8)), 1, cfg},
		{"empty region", img, NewMask(20, 20), 1, cfg},
		{"full region", img, maskWithRects(20, 20, image.Rect(0, 0, 20, 20)), 1, cfg},
		{"zero iterations", img, roi, 0, cfg},
		{"zero components", img, roi, 1, GrabCutConfig{Iterations: 1, Components: 0, Gamma: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Segment(tt.img, tt.roi, tt.iterations, tt.cfg)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestInitLabels(t *testing.T) {
	roi := maskWithRects(4, 2, image.Rect(1, 0, 3, 1))

	labels := InitLabels(roi)
	want := []Label{
		LabelBackground, LabelProbableForeground, LabelProbableForeground, LabelBackground,
		LabelBackground, LabelBackground, LabelBackground, LabelBackground,
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label %d: got %d, want %d", i, labels[i], want[i])
		}
	}
	for _, l := range labels {
		if l == LabelForeground {
			t.Error("no pixel should start as definite foreground")
		}
	}
}

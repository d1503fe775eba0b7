package segment

import (
	"fmt"
	"image"
)

// Frame is a 3-channel, 8-bit pixel buffer stored row-major with no padding.
//
// The channel meaning depends on the producer: the color frame carries
// R, G, B and the alternate frame carries H (0-179), S and V (0-255).
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At returns the three channel values at (x, y). No bounds checking is
// performed.
func (f *Frame) At(x, y int) [3]uint8 {
	i := (y*f.Width + x) * 3
	return [3]uint8{f.Pix[i], f.Pix[i+1], f.Pix[i+2]}
}

// Set stores c at (x, y). No bounds checking is performed.
func (f *Frame) Set(x, y int, c [3]uint8) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c[0], c[1], c[2]
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}

// NewMask allocates an all-zero binary mask.
func NewMask(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// CloneMask returns a deep copy of m normalized to an origin-anchored rectangle.
func CloneMask(m *image.Gray) *image.Gray {
	if m == nil {
		return nil
	}
	b := m.Bounds()
	out := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}

// CountSet returns the number of non-zero pixels in m.
func CountSet(m *image.Gray) int {
	b := m.Bounds()
	n := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[m.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				n++
			}
		}
	}
	return n
}

func checkFrame(name string, f *Frame) error {
	if f.Empty() {
		return fmt.Errorf("%s frame is empty: %w", name, ErrInvalidInput)
	}
	return nil
}

func checkMask(name string, m *image.Gray) error {
	if m == nil || m.Bounds().Empty() {
		return fmt.Errorf("%s mask is empty: %w", name, ErrInvalidInput)
	}
	return nil
}

func checkSameSize(f *Frame, m *image.Gray) error {
	b := m.Bounds()
	if b.Dx() != f.Width || b.Dy() != f.Height {
		return fmt.Errorf("mask %dx%d does not match frame %dx%d: %w",
			b.Dx(), b.Dy(), f.Width, f.Height, ErrInvalidInput)
	}
	return nil
}

package segment

import (
	"image"
)

// solidFrame creates a frame filled with c.
func solidFrame(width, height int, c [3]uint8) *Frame {
	f := NewFrame(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			f.Set(x, y, c)
		}
	}
	return f
}

// fillFrameRect paints r in f with c.
func fillFrameRect(f *Frame, r image.Rectangle, c [3]uint8) {
	r = r.Intersect(f.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Set(x, y, c)
		}
	}
}

// fillFrameDisk paints a filled disk centered at (cx, cy) in f with c.
func fillFrameDisk(f *Frame, cx, cy, radius int, c [3]uint8) {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				f.Set(x, y, c)
			}
		}
	}
}

// maskWithRects creates a mask with every rectangle set to 255.
func maskWithRects(width, height int, rects ...image.Rectangle) *image.Gray {
	m := NewMask(width, height)
	for _, r := range rects {
		r = r.Intersect(m.Bounds())
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Pix[y*m.Stride+x] = 255
			}
		}
	}
	return m
}

// diskMask creates a mask with a filled disk centered at (cx, cy).
func diskMask(width, height, cx, cy, radius int) *image.Gray {
	m := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				m.Pix[y*m.Stride+x] = 255
			}
		}
	}
	return m
}

// isBinary reports whether every pixel of m is 0 or 255.
func isBinary(m *image.Gray) bool {
	for _, v := range m.Pix {
		if v != 0 && v != 255 {
			return false
		}
	}
	return true
}

// maskDiff counts pixels set in exactly one of a and b.
func maskDiff(a, b *image.Gray) int {
	n := 0
	for i := range a.Pix {
		if (a.Pix[i] != 0) != (b.Pix[i] != 0) {
			n++
		}
	}
	return n
}

package segment

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// ConvexHull returns the convex hull of points in counter-clockwise order
// (clockwise on screen, since y points down) using Andrew's monotone chain.
// Collinear points along hull edges are dropped.
//
// It returns ErrInvalidInput when fewer than three points are given or when
// all points are collinear.
func ConvexHull(points []image.Point) ([]image.Point, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("hull needs at least 3 points, got %d: %w", len(points), ErrInvalidInput)
	}

	pts := make([]image.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	hull := make([]image.Point, 0, 2*len(pts))
	// Lower hull
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// Upper hull
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	hull = hull[:len(hull)-1]

	if len(hull) < 3 {
		return nil, fmt.Errorf("points are collinear: %w", ErrInvalidInput)
	}
	return hull, nil
}

func cross(o, a, b image.Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Centroid returns the arithmetic mean of the vertices.
func Centroid(points []image.Point) (float64, float64) {
	if len(points) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, p := range points {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(points))
	return sx / n, sy / n
}

// ExpandHull scales every vertex away from the hull's vertex centroid by
// scale, rounding to the nearest pixel. A scale of 1 returns the hull
// unchanged. Vertices may land outside the frame; FillPolygon clips them.
func ExpandHull(hull []image.Point, scale float64) ([]image.Point, error) {
	if len(hull) == 0 {
		return nil, fmt.Errorf("empty hull: %w", ErrInvalidInput)
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("hull scale %v must be positive: %w", scale, ErrInvalidInput)
	}

	cx, cy := Centroid(hull)
	out := make([]image.Point, len(hull))
	for i, p := range hull {
		out[i] = image.Point{
			X: int(math.Round(cx + (float64(p.X)-cx)*scale)),
			Y: int(math.Round(cy + (float64(p.Y)-cy)*scale)),
		}
	}
	return out, nil
}

// FillPolygon rasterizes the closed polygon poly into a new width×height
// mask. Interior pixels and the boundary itself are set to 255; anything
// outside the mask bounds is clipped.
func FillPolygon(width, height int, poly []image.Point) (*image.Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mask size %dx%d: %w", width, height, ErrInvalidInput)
	}
	if len(poly) == 0 {
		return nil, fmt.Errorf("empty polygon: %w", ErrInvalidInput)
	}

	mask := NewMask(width, height)
	setPixel := func(x, y int) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return
		}
		mask.Pix[y*mask.Stride+x] = 255
	}

	if len(poly) >= 3 {
		fillScanlines(mask, poly)
	}
	for i := range poly {
		drawLine(poly[i], poly[(i+1)%len(poly)], setPixel)
	}
	return mask, nil
}

// fillScanlines sets every pixel whose center lies inside poly, using the
// even-odd rule sampled at pixel centers.
func fillScanlines(mask *image.Gray, poly []image.Point) {
	width, height := mask.Rect.Dx(), mask.Rect.Dy()

	minY, maxY := poly[0].Y, poly[0].Y
	for _, p := range poly[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > height-1 {
		maxY = height - 1
	}

	xs := make([]float64, 0, len(poly))
	for y := minY; y <= maxY; y++ {
		sy := float64(y) + 0.5
		xs = xs[:0]
		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			ay, by := float64(a.Y), float64(b.Y)
			if (ay <= sy && by > sy) || (by <= sy && ay > sy) {
				t := (sy - ay) / (by - ay)
				xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
			}
		}
		sort.Float64s(xs)

		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i] - 0.5))
			x1 := int(math.Floor(xs[i+1] - 0.5))
			if x0 < 0 {
				x0 = 0
			}
			if x1 > width-1 {
				x1 = width - 1
			}
			row := mask.Pix[y*mask.Stride:]
			for x := x0; x <= x1; x++ {
				row[x] = 255
			}
		}
	}
}

// drawLine walks the Bresenham line from a to b inclusive.
func drawLine(a, b image.Point, plot func(x, y int)) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		plot(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// HullMask computes the convex hull of contour, expands it by scale and
// fills it into a width×height mask. It returns the hull, the expanded hull
// and the mask.
func HullMask(contour Contour, scale float64, width, height int) (hull, expanded []image.Point, mask *image.Gray, err error) {
	hull, err = ConvexHull(contour)
	if err != nil {
		return nil, nil, nil, err
	}
	expanded, err = ExpandHull(hull, scale)
	if err != nil {
		return nil, nil, nil, err
	}
	mask, err = FillPolygon(width, height, expanded)
	if err != nil {
		return nil, nil, nil, err
	}
	return hull, expanded, mask, nil
}

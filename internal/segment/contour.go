package segment

import (
	"fmt"
	"image"
	"math"
)

// Contour is a closed polygon of pixel coordinates tracing a region's outer
// boundary. The last point connects back to the first.
type Contour []image.Point

// Area returns the polygon area enclosed by c using the shoelace formula.
// Orientation is ignored, so the result is never negative.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// neighbors8 lists the eight neighbor offsets in clockwise order (with y
// pointing down), starting east.
var neighbors8 = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// FindContours returns the outer boundary of every 8-connected region of
// non-zero pixels in mask.
//
// Regions are reported in raster order of their topmost-leftmost pixel. Holes
// are not traced. Boundaries are compressed so that straight runs keep only
// their end points, which leaves the enclosed area unchanged.
func FindContours(mask *image.Gray) ([]Contour, error) {
	if err := checkMask("contour", mask); err != nil {
		return nil, err
	}
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()

	set := func(x, y int) bool {
		if x < 0 || y < 0 || x >= width || y >= height {
			return false
		}
		return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
	}

	visited := make([]bool, width*height)
	contours := make([]Contour, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !set(x, y) || visited[y*width+x] {
				continue
			}
			markRegion(set, visited, width, x, y)
			contours = append(contours, compressChain(traceBoundary(set, image.Pt(x, y))))
		}
	}
	return contours, nil
}

// markRegion flood-fills the 8-connected region containing (startX, startY).
// It uses an explicit stack so large regions cannot overflow the call stack.
func markRegion(set func(x, y int) bool, visited []bool, width, startX, startY int) {
	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, d := range neighbors8 {
			nx, ny := p.X+d.X, p.Y+d.Y
			if !set(nx, ny) || visited[ny*width+nx] {
				continue
			}
			visited[ny*width+nx] = true
			stack = append(stack, image.Point{X: nx, Y: ny})
		}
	}
}

// traceBoundary follows the outer boundary clockwise with Moore-neighbor
// tracing. start must be the region's first pixel in raster order, so its
// west neighbor is known to be unset.
func traceBoundary(set func(x, y int) bool, start image.Point) Contour {
	contour := Contour{start}

	// next finds the first set neighbor of c scanning clockwise from the
	// neighbor after back. It returns the neighbor and the unset pixel seen
	// just before it.
	next := func(c image.Point, back int) (image.Point, int, bool) {
		for i := 1; i <= 8; i++ {
			k := (back + i) % 8
			n := c.Add(neighbors8[k])
			if set(n.X, n.Y) {
				prev := c.Add(neighbors8[(k+7)%8])
				return n, directionTo(n, prev), true
			}
		}
		return image.Point{}, 0, false
	}

	first, back, ok := next(start, 4)
	if !ok {
		// Isolated pixel.
		return contour
	}

	cur := first
	for {
		if cur == start {
			n, b, _ := next(cur, back)
			if n == first {
				break
			}
			contour = append(contour, cur)
			cur, back = n, b
			continue
		}
		contour = append(contour, cur)
		cur, back, _ = next(cur, back)
	}
	return contour
}

// directionTo returns the index in neighbors8 of the offset from p to q.
// q must be one of p's eight neighbors.
func directionTo(p, q image.Point) int {
	d := q.Sub(p)
	for i, n := range neighbors8 {
		if n == d {
			return i
		}
	}
	panic(fmt.Sprintf("segment: %v is not adjacent to %v", q, p))
}

// compressChain drops points that lie in the middle of straight runs.
func compressChain(c Contour) Contour {
	if len(c) < 3 {
		return c
	}
	out := make(Contour, 0, len(c))
	n := len(c)
	for i := 0; i < n; i++ {
		prev := c[(i+n-1)%n]
		next := c[(i+1)%n]
		d1 := c[i].Sub(prev)
		d2 := next.Sub(c[i])
		if d1 == d2 {
			continue
		}
		out = append(out, c[i])
	}
	if len(out) == 0 {
		return c[:1]
	}
	return out
}

// LargestContour returns the contour with the strictly greatest area. Ties
// keep the contour found first. It returns ErrNoRegionFound when no contour
// has positive area.
func LargestContour(contours []Contour) (Contour, float64, error) {
	var best Contour
	maxArea := 0.0
	for _, c := range contours {
		if a := c.Area(); a > maxArea {
			maxArea = a
			best = c
		}
	}
	if best == nil {
		return nil, 0, fmt.Errorf("%d contours, none with positive area: %w", len(contours), ErrNoRegionFound)
	}
	return best, maxArea, nil
}

// ExtractLargest traces mask and selects its largest contour.
func ExtractLargest(mask *image.Gray) (Contour, float64, error) {
	contours, err := FindContours(mask)
	if err != nil {
		return nil, 0, err
	}
	return LargestContour(contours)
}

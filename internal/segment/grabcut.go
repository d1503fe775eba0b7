package segment

import (
	"fmt"
	"image"
	"math"
)

// Label is a per-pixel segmentation label.
type Label uint8

const (
	LabelBackground         Label = iota // definite background
	LabelForeground                      // definite foreground
	LabelProbableBackground              // probable background
	LabelProbableForeground              // probable foreground
)

// IsForeground reports whether l collapses to a set mask pixel.
func (l Label) IsForeground() bool {
	return l == LabelForeground || l == LabelProbableForeground
}

// minDensity floors mixture densities before taking logs so terminal
// weights stay finite.
const minDensity = 1e-300

// InitLabels seeds labels from a region of interest: set pixels become
// probable foreground and everything else definite background.
func InitLabels(roi *image.Gray) []Label {
	b := roi.Bounds()
	labels := make([]Label, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := roi.Pix[roi.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				labels[y*b.Dx()+x] = LabelProbableForeground
			}
		}
	}
	return labels
}

// Segment refines roi into a tight foreground mask of img by iterated graph
// cuts over foreground and background color mixtures.
//
// Pixels inside roi start as probable foreground, pixels outside as definite
// background. Each round fits both mixtures to the current labeling, builds
// the pixel graph and relabels every probable pixel by the minimum cut.
// Exactly iterations rounds are run. The result is 255 for foreground and 0
// elsewhere.
//
// It returns ErrInvalidInput when img and roi differ in size, when roi is
// empty, or when roi covers the whole frame and leaves no background.
func Segment(img *Frame, roi *image.Gray, iterations int, cfg GrabCutConfig) (*image.Gray, error) {
	if err := checkFrame("segment", img); err != nil {
		return nil, err
	}
	if err := checkMask("region of interest", roi); err != nil {
		return nil, err
	}
	if err := checkSameSize(img, roi); err != nil {
		return nil, err
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d: %w", iterations, ErrInvalidInput)
	}
	if cfg.Components <= 0 {
		return nil, fmt.Errorf("components must be positive, got %d: %w", cfg.Components, ErrInvalidInput)
	}

	labels := InitLabels(roi)
	fg := 0
	for _, l := range labels {
		if l.IsForeground() {
			fg++
		}
	}
	if fg == 0 {
		return nil, fmt.Errorf("region of interest has no set pixels: %w", ErrInvalidInput)
	}
	if fg == len(labels) {
		return nil, fmt.Errorf("region of interest leaves no background: %w", ErrInvalidInput)
	}

	gc := newGrabCut(img, labels, cfg)
	if err := gc.initModels(); err != nil {
		return nil, err
	}
	for i := 0; i < iterations; i++ {
		if err := gc.iterate(); err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
	}
	return gc.mask(), nil
}

type grabCut struct {
	width, height int
	colors        [][3]float64
	labels        []Label
	comps         []int
	fgd, bgd      *GMM

	gamma, lambda float64
	left, upLeft  []float64
	up, upRight   []float64
}

func newGrabCut(img *Frame, labels []Label, cfg GrabCutConfig) *grabCut {
	n := img.Width * img.Height
	colors := make([][3]float64, n)
	for i := 0; i < n; i++ {
		colors[i] = [3]float64{float64(img.Pix[i*3]), float64(img.Pix[i*3+1]), float64(img.Pix[i*3+2])}
	}
	gc := &grabCut{
		width:  img.Width,
		height: img.Height,
		colors: colors,
		labels: labels,
		comps:  make([]int, n),
		fgd:    NewGMM(cfg.Components),
		bgd:    NewGMM(cfg.Components),
		gamma:  cfg.Gamma,
		lambda: 9 * cfg.Gamma,
	}
	gc.calcSmoothness()
	return gc
}

// initModels seeds both mixtures with k-means over their initial pixels.
func (gc *grabCut) initModels() error {
	var fgSamples, bgSamples [][3]float64
	for i, l := range gc.labels {
		if l.IsForeground() {
			fgSamples = append(fgSamples, gc.colors[i])
		} else {
			bgSamples = append(bgSamples, gc.colors[i])
		}
	}
	if err := gc.fgd.Fit(fgSamples); err != nil {
		return fmt.Errorf("foreground model: %w", err)
	}
	if err := gc.bgd.Fit(bgSamples); err != nil {
		return fmt.Errorf("background model: %w", err)
	}
	return nil
}

func (gc *grabCut) iterate() error {
	// Assign each pixel to its most likely component.
	for i, c := range gc.colors {
		if gc.labels[i].IsForeground() {
			gc.comps[i] = gc.fgd.MostLikely(c)
		} else {
			gc.comps[i] = gc.bgd.MostLikely(c)
		}
	}

	// Learn both mixtures from the assignment.
	gc.fgd.InitLearning()
	gc.bgd.InitLearning()
	for i, c := range gc.colors {
		if gc.labels[i].IsForeground() {
			gc.fgd.AddSample(gc.comps[i], c)
		} else {
			gc.bgd.AddSample(gc.comps[i], c)
		}
	}
	if err := gc.fgd.EndLearning(); err != nil {
		return fmt.Errorf("foreground model: %w", err)
	}
	if err := gc.bgd.EndLearning(); err != nil {
		return fmt.Errorf("background model: %w", err)
	}

	g := gc.buildGraph()
	g.MaxFlow()
	for i, l := range gc.labels {
		if l == LabelProbableBackground || l == LabelProbableForeground {
			if g.InSourceSegment(i) {
				gc.labels[i] = LabelProbableForeground
			} else {
				gc.labels[i] = LabelProbableBackground
			}
		}
	}
	return nil
}

// calcSmoothness precomputes the neighbor edge weights
// gamma*exp(-beta*|c1-c2|^2), scaled by 1/sqrt(2) for diagonals.
func (gc *grabCut) calcSmoothness() {
	w, h := gc.width, gc.height
	n := w * h
	gc.left = make([]float64, n)
	gc.upLeft = make([]float64, n)
	gc.up = make([]float64, n)
	gc.upRight = make([]float64, n)

	beta := gc.calcBeta()
	diagGamma := gc.gamma / math.Sqrt2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := gc.colors[i]
			if x > 0 {
				gc.left[i] = gc.gamma * math.Exp(-beta*sqDist(c, gc.colors[i-1]))
			}
			if x > 0 && y > 0 {
				gc.upLeft[i] = diagGamma * math.Exp(-beta*sqDist(c, gc.colors[i-w-1]))
			}
			if y > 0 {
				gc.up[i] = gc.gamma * math.Exp(-beta*sqDist(c, gc.colors[i-w]))
			}
			if x+1 < w && y > 0 {
				gc.upRight[i] = diagGamma * math.Exp(-beta*sqDist(c, gc.colors[i-w+1]))
			}
		}
	}
}

// calcBeta returns 1/(2*mean squared neighbor color difference), or 0 for a
// flat image.
func (gc *grabCut) calcBeta() float64 {
	w, h := gc.width, gc.height
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			c := gc.colors[i]
			if x > 0 {
				sum += sqDist(c, gc.colors[i-1])
			}
			if x > 0 && y > 0 {
				sum += sqDist(c, gc.colors[i-w-1])
			}
			if y > 0 {
				sum += sqDist(c, gc.colors[i-w])
			}
			if x+1 < w && y > 0 {
				sum += sqDist(c, gc.colors[i-w+1])
			}
		}
	}
	pairs := float64(4*w*h - 3*w - 3*h + 2)
	if sum <= 1e-12 || pairs <= 0 {
		return 0
	}
	return 1 / (2 * sum / pairs)
}

func (gc *grabCut) buildGraph() *Graph {
	w, h := gc.width, gc.height
	n := w * h
	g := NewGraph(n, 2*(4*w*h-3*w-3*h+2))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := g.AddVertex()
			c := gc.colors[i]

			var fromSource, toSink float64
			switch gc.labels[i] {
			case LabelProbableBackground, LabelProbableForeground:
				fromSource = -math.Log(math.Max(gc.bgd.Density(c), minDensity))
				toSink = -math.Log(math.Max(gc.fgd.Density(c), minDensity))
			case LabelBackground:
				toSink = gc.lambda
			case LabelForeground:
				fromSource = gc.lambda
			}
			g.AddTermWeights(i, fromSource, toSink)

			if x > 0 {
				wt := gc.left[i]
				g.AddEdges(i, i-1, wt, wt)
			}
			if x > 0 && y > 0 {
				wt := gc.upLeft[i]
				g.AddEdges(i, i-w-1, wt, wt)
			}
			if y > 0 {
				wt := gc.up[i]
				g.AddEdges(i, i-w, wt, wt)
			}
			if x+1 < w && y > 0 {
				wt := gc.upRight[i]
				g.AddEdges(i, i-w+1, wt, wt)
			}
		}
	}
	return g
}

func (gc *grabCut) mask() *image.Gray {
	m := NewMask(gc.width, gc.height)
	for y := 0; y < gc.height; y++ {
		for x := 0; x < gc.width; x++ {
			if gc.labels[y*gc.width+x].IsForeground() {
				m.Pix[y*m.Stride+x] = 255
			}
		}
	}
	return m
}

func sqDist(a, b [3]float64) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

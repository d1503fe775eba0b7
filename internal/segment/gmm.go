package segment

import (
	"fmt"
	"math"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"
)

const (
	// kmeansSampleCap bounds the number of colors handed to k-means when
	// seeding the mixture components.
	kmeansSampleCap = 2000
	// covarianceJitter is added to the diagonal of singular covariances.
	covarianceJitter = 0.01
	minDeterminant   = 1e-12
)

// gaussian is one component of a color mixture model.
type gaussian struct {
	coef   float64
	mean   [3]float64
	inv    [9]float64
	invDet float64 // 1/sqrt(det(cov))

	// accumulators used while learning
	sum   [3]float64
	prod  [9]float64
	count int
}

// GMM is a Gaussian mixture model over RGB colors.
type GMM struct {
	components []gaussian
	total      int
}

// NewGMM returns an untrained mixture with k components.
func NewGMM(k int) *GMM {
	return &GMM{components: make([]gaussian, k)}
}

// Components returns the number of mixture components.
func (g *GMM) Components() int { return len(g.components) }

// Density returns the mixture probability density at color c.
func (g *GMM) Density(c [3]float64) float64 {
	var p float64
	for i := range g.components {
		p += g.components[i].coef * g.components[i].density(c)
	}
	return p
}

// MostLikely returns the component whose weighted density at c is highest.
func (g *GMM) MostLikely(c [3]float64) int {
	best, bestP := 0, -1.0
	for i := range g.components {
		if p := g.components[i].coef * g.components[i].density(c); p > bestP {
			best, bestP = i, p
		}
	}
	return best
}

func (gc *gaussian) density(c [3]float64) float64 {
	if gc.coef <= 0 {
		return 0
	}
	d0, d1, d2 := c[0]-gc.mean[0], c[1]-gc.mean[1], c[2]-gc.mean[2]
	m := &gc.inv
	mahal := d0*(d0*m[0]+d1*m[3]+d2*m[6]) +
		d1*(d0*m[1]+d1*m[4]+d2*m[7]) +
		d2*(d0*m[2]+d1*m[5]+d2*m[8])
	return gc.invDet * math.Exp(-0.5*mahal)
}

// InitLearning clears the sample accumulators.
func (g *GMM) InitLearning() {
	for i := range g.components {
		gc := &g.components[i]
		gc.sum = [3]float64{}
		gc.prod = [9]float64{}
		gc.count = 0
	}
	g.total = 0
}

// AddSample accumulates color c into component ci.
func (g *GMM) AddSample(ci int, c [3]float64) {
	gc := &g.components[ci]
	for i := 0; i < 3; i++ {
		gc.sum[i] += c[i]
		for j := 0; j < 3; j++ {
			gc.prod[i*3+j] += c[i] * c[j]
		}
	}
	gc.count++
	g.total++
}

// EndLearning recomputes weights, means and covariances from the
// accumulated samples. Components without samples get zero weight. A mixture
// that received no samples at all keeps its previous parameters.
func (g *GMM) EndLearning() error {
	if g.total == 0 {
		return nil
	}
	for i := range g.components {
		gc := &g.components[i]
		if gc.count == 0 {
			gc.coef = 0
			continue
		}
		n := float64(gc.count)
		gc.coef = n / float64(g.total)
		for k := 0; k < 3; k++ {
			gc.mean[k] = gc.sum[k] / n
		}

		cov := mat.NewSymDense(3, nil)
		for r := 0; r < 3; r++ {
			for c := r; c < 3; c++ {
				cov.SetSym(r, c, gc.prod[r*3+c]/n-gc.mean[r]*gc.mean[c])
			}
		}
		if err := gc.setCovariance(cov); err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
	}
	return nil
}

// setCovariance factorizes cov, regularizing it when it is singular, and
// caches its inverse and normalization.
func (gc *gaussian) setCovariance(cov *mat.SymDense) error {
	var chol mat.Cholesky
	for attempt := 0; attempt < 8; attempt++ {
		if chol.Factorize(cov) && chol.Det() > minDeterminant {
			break
		}
		for k := 0; k < 3; k++ {
			cov.SetSym(k, k, cov.At(k, k)+covarianceJitter*math.Pow(10, float64(attempt)))
		}
		if attempt == 7 {
			return fmt.Errorf("covariance is not positive definite")
		}
	}

	inv := mat.NewSymDense(3, nil)
	if err := chol.InverseTo(inv); err != nil {
		return fmt.Errorf("invert covariance: %w", err)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			gc.inv[r*3+c] = inv.At(r, c)
		}
	}
	gc.invDet = 1 / math.Sqrt(chol.Det())
	return nil
}

// colorObservation adapts a normalized color to the clustering interfaces.
type colorObservation [3]float64

func (o colorObservation) Coordinates() clusters.Coordinates {
	return clusters.Coordinates{o[0], o[1], o[2]}
}

func (o colorObservation) Distance(p clusters.Coordinates) float64 {
	d0, d1, d2 := o[0]-p[0], o[1]-p[1], o[2]-p[2]
	return d0*d0 + d1*d1 + d2*d2
}

// seedComponents clusters samples with k-means and returns a component index
// per sample. Colors are scaled to [0, 1] for clustering.
func seedComponents(samples [][3]float64, k int) ([]int, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to cluster: %w", ErrInvalidInput)
	}
	if k > len(samples) {
		k = len(samples)
	}

	stride := 1
	if len(samples) > kmeansSampleCap {
		stride = (len(samples) + kmeansSampleCap - 1) / kmeansSampleCap
	}
	var obs clusters.Observations
	for i := 0; i < len(samples); i += stride {
		obs = append(obs, normalizedColor(samples[i]))
	}
	if k > len(obs) {
		k = len(obs)
	}

	km := kmeans.New()
	cc, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}

	labels := make([]int, len(samples))
	for i, s := range samples {
		labels[i] = cc.Nearest(normalizedColor(s))
	}
	return labels, nil
}

func normalizedColor(c [3]float64) colorObservation {
	return colorObservation{c[0] / 255, c[1] / 255, c[2] / 255}
}

// Fit trains g from samples, seeding component membership with k-means.
func (g *GMM) Fit(samples [][3]float64) error {
	labels, err := seedComponents(samples, len(g.components))
	if err != nil {
		return err
	}
	g.InitLearning()
	for i, s := range samples {
		g.AddSample(labels[i], s)
	}
	return g.EndLearning()
}

package readout

import "math/rand/v2"

// NoiseSource draws electronic noise samples.
type NoiseSource interface {
	Gaussian(sigma float64) float64
}

// GaussianNoise is a seeded noise generator. It is not safe for concurrent use.
type GaussianNoise struct {
	rng *rand.Rand
}

func NewGaussianNoise(seed uint64) *GaussianNoise {
	return &GaussianNoise{rng: rand.New(rand.NewPCG(seed, seed^0x5DEECE66D))}
}

func (g *GaussianNoise) Gaussian(sigma float64) float64 {
	return g.rng.NormFloat64() * sigma
}

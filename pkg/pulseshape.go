package readout

import (
	"fmt"
	"math"
)

const (
	PulseShapeCRRC     = "CR-RC"
	PulseShapeFourPole = "FourPole"
)

// PulseShape is the shaper response of a channel to a unit charge deposited
// at time zero, normalized so that its maximum is 1.
type PulseShape interface {
	Name() string
	AmplitudePeakNorm(ch ChannelID, time float64) float64
}

// NewPulseShape builds the named shaper model with the shape parameters of
// every channel. Unknown names and invalid parameters are configuration errors.
func NewPulseShape(name string, calibrations []*ChannelCalibration) (PulseShape, error) {
	switch name {
	case PulseShapeCRRC:
		return newCRRC(calibrations)
	case PulseShapeFourPole:
		return newFourPole(calibrations)
	default:
		return nil, &ErrUnknownPulseShape{Name: name}
	}
}

// ValidPulseShape reports whether name is a supported shaper model.
func ValidPulseShape(name string) bool {
	return name == PulseShapeCRRC || name == PulseShapeFourPole
}

// CRRC is the single time constant CR-RC shaper: (t/tp) e^(1-t/tp).
type CRRC struct {
	tp []float64
}

func newCRRC(calibrations []*ChannelCalibration) (*CRRC, error) {
	shape := &CRRC{tp: make([]float64, len(calibrations))}
	for ch, calibration := range calibrations {
		tp := calibration.Shape.Tp
		if !(tp > 0) {
			return nil, fmt.Errorf("channel %d: CR-RC shaping time must be positive, got %f", ch, tp)
		}
		shape.tp[ch] = tp
	}
	return shape, nil
}

func (s *CRRC) Name() string {
	return PulseShapeCRRC
}

func (s *CRRC) AmplitudePeakNorm(ch ChannelID, time float64) float64 {
	if time < 0 {
		return 0
	}
	tp := s.tp[ch]
	return (time / tp) * math.Exp(1-time/tp)
}

// FourPole is the shaper with one CR differentiator and three RC
// integrators, with time constants tp and tp2 (tp > tp2).
type FourPole struct {
	tp   []float64
	tp2  []float64
	peak []float64
}

func newFourPole(calibrations []*ChannelCalibration) (*FourPole, error) {
	n := len(calibrations)
	shape := &FourPole{
		tp:   make([]float64, n),
		tp2:  make([]float64, n),
		peak: make([]float64, n),
	}
	for ch, calibration := range calibrations {
		tp := calibration.Shape.Tp
		tp2 := calibration.Shape.Tp2
		if !(tp2 > 0) || !(tp > tp2) {
			return nil, fmt.Errorf("channel %d: four-pole shaping times must satisfy tp > tp2 > 0, got tp=%f tp2=%f", ch, tp, tp2)
		}
		shape.tp[ch] = tp
		shape.tp2[ch] = tp2
		shape.peak[ch] = fourPolePeak(tp, tp2)
	}
	return shape, nil
}

func (s *FourPole) Name() string {
	return PulseShapeFourPole
}

func (s *FourPole) AmplitudePeakNorm(ch ChannelID, time float64) float64 {
	return fourPoleAmplitude(time, s.tp[ch], s.tp2[ch]) / s.peak[ch]
}

func fourPoleAmplitude(time, tp, tp2 float64) float64 {
	if time < 0 {
		return 0
	}
	x := time * (tp - tp2) / (tp * tp2)
	scale := tp * tp / math.Pow(tp-tp2, 3)
	return scale * (math.Exp(-time/tp) - math.Exp(-time/tp2)*(1+x+0.5*x*x))
}

// fourPolePeak returns the maximum of the un-normalized four-pole response.
// Coarse scan, then golden section search around the best point.
func fourPolePeak(tp, tp2 float64) float64 {
	step := tp / 100
	limit := 10 * (tp + tp2)
	best := 0.0
	for t := step; t < limit; t += step {
		if fourPoleAmplitude(t, tp, tp2) > fourPoleAmplitude(best, tp, tp2) {
			best = t
		}
	}

	invPhi := (math.Sqrt(5) - 1) / 2
	a, b := math.Max(0, best-step), best+step
	for i := 0; i < 60; i++ {
		c := b - invPhi*(b-a)
		d := a + invPhi*(b-a)
		if fourPoleAmplitude(c, tp, tp2) > fourPoleAmplitude(d, tp, tp2) {
			b = d
		} else {
			a = c
		}
	}
	return fourPoleAmplitude((a+b)/2, tp, tp2)
}

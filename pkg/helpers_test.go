package readout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// triangleShape peaks at 1 for t == 0 and falls linearly to 0 at |t| = width.
type triangleShape struct {
	width float64
}

func (s triangleShape) Name() string { return "triangle" }

func (s triangleShape) AmplitudePeakNorm(ch ChannelID, time float64) float64 {
	return math.Max(0, 1-math.Abs(time)/s.width)
}

// fixedNoise returns the same offset for every sample, scaled by sigma.
type fixedNoise struct {
	pulls int
	value float64
}

func (n *fixedNoise) Gaussian(sigma float64) float64 {
	n.pulls++
	return n.value * sigma
}

// recordingSink keeps every readout it receives.
type recordingSink struct {
	readouts []*Readout
}

func (s *recordingSink) WriteReadout(readout *Readout) error {
	s.readouts = append(s.readouts, readout)
	return nil
}

func testCatalog(t *testing.T) *ChannelCatalog {
	t.Helper()
	catalog, err := NewChannelCatalog("TestTracker", []SensorInfo{
		{Name: "layer1", NStrips: 16},
		{Name: "layer2", NStrips: 8},
	})
	require.NoError(t, err)
	return catalog
}

func flatCalibration(pedestal, noise float64) ChannelCalibration {
	calibration := ChannelCalibration{
		Gain:  1,
		Shape: ShapeParameters{Tp: 50, Tp2: 10},
	}
	for i := 0; i < NSamples; i++ {
		calibration.Pedestal[i] = pedestal
		calibration.Noise[i] = noise
	}
	return calibration
}

func flatCalibrations(t *testing.T, catalog *ChannelCatalog, pedestal, noise float64) []*ChannelCalibration {
	t.Helper()
	table := NewCalibrationTable(catalog)
	for ch := 0; ch < catalog.NChannels(); ch++ {
		table.Set(ChannelID(ch), flatCalibration(pedestal, noise))
	}
	calibrations, err := resolveCalibrations(catalog, table)
	require.NoError(t, err)
	return calibrations
}

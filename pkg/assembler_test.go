package readout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstSampleTime(t *testing.T) {
	tests := []struct {
		name     string
		trigger  float64
		latency  float64
		offset   float64
		interval float64
		want     float64
	}{
		{"aligned", 1000, 280, 0, 24, 720},
		{"rounded down", 1010, 280, 0, 24, 720},
		{"with offset", 1000, 280, 4, 24, 700},
		{"before latency", 100, 280, 0, 24, -192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstSampleTime(tt.trigger, tt.latency, tt.offset, tt.interval))
		})
	}
}

func TestAssemblePedestalOnly(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 4000.4, 70)
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 100}, nil, 24)

	d := assembler.AssembleTriggered(3, nil, 720)

	assert.Equal(t, [NSamples]int16{4000, 4000, 4000, 4000, 4000, 4000}, d.Samples)
	assert.Empty(t, d.Hits)
	assert.Equal(t, ChannelKey{Sensor: 0, Strip: 3}, d.Key)
}

func TestAssembleTriggeredAtAnchor(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 3000, 10)
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 100}, nil, 24)

	pulse := PulseRecord{Channel: 0, Amplitude: 4000, Time: 720, Hits: []uint64{7}}
	d := assembler.AssembleTriggered(0, []PulseRecord{pulse}, 720)

	assert.Equal(t, [NSamples]int16{7000, 6040, 5080, 4120, 3160, 3000}, d.Samples)
	assert.Equal(t, []uint64{7}, d.Hits)
}

func TestAssembleLonePulseAtPeak(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 500, 10)
	shape, err := NewPulseShape(PulseShapeCRRC, calibrations)
	require.NoError(t, err)
	assembler := NewAssembler(catalog, calibrations, shape, nil, 25)

	// the CR-RC peak is at t = tp = 50 ns, the third sample
	pulse := PulseRecord{Channel: 4, Amplitude: 1234.4, Time: 900}
	d := assembler.AssembleTriggered(4, []PulseRecord{pulse}, 900)

	assert.Equal(t, int16(500+1234), d.Samples[2])
	assert.Equal(t, int16(500), d.Samples[0])
}

func TestAssembleSumsPileup(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 100, 10)
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 100}, nil, 24)

	pulses := []PulseRecord{
		{Channel: 1, Amplitude: 3000, Time: 48, Hits: []uint64{1}},
		{Channel: 1, Amplitude: 4000, Time: 48, Hits: []uint64{2}},
	}
	d := assembler.AssembleTriggered(1, pulses, 0)

	assert.Equal(t, int16(7100), d.Samples[2])
	assert.Equal(t, []uint64{1, 2}, d.Hits)
	// pulses are not modified
	assert.Equal(t, 3000.0, pulses[0].Amplitude)
	assert.Equal(t, 48.0, pulses[0].Time)
}

func TestAssembleAttributionThreshold(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 0, 10)
	// a narrow shape only seen by one sample
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 1}, nil, 24)

	small := PulseRecord{Channel: 0, Amplitude: 40, Time: 0, Hits: []uint64{1}}
	large := PulseRecord{Channel: 0, Amplitude: 41, Time: 24, Hits: []uint64{2}}
	d := assembler.AssembleTriggered(0, []PulseRecord{small, large}, 0)

	assert.Equal(t, []uint64{2}, d.Hits)
	assert.Equal(t, int16(40), d.Samples[0])
	assert.Equal(t, int16(41), d.Samples[1])
}

func TestAssembleImmediate(t *testing.T) {
	catalog := testCatalog(t)
	table := NewCalibrationTable(catalog)
	for ch := 0; ch < catalog.NChannels(); ch++ {
		calibration := flatCalibration(200, 10)
		calibration.TimeOffset = -6
		table.Set(ChannelID(ch), calibration)
	}
	calibrations, err := resolveCalibrations(catalog, table)
	require.NoError(t, err)
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 1}, nil, 24)

	pulse := PulseRecord{Channel: 17, Amplitude: 5, Time: 1234, Hits: []uint64{3, 4}}
	d := assembler.AssembleImmediate(pulse, 30)

	// sample i is taken i*24 - 30 + 6 ns after the pulse
	assert.Equal(t, [NSamples]int16{200, 205, 200, 200, 200, 200}, d.Samples)
	assert.Equal(t, []uint64{3, 4}, d.Hits, "every hit is attached, even below the noise")
	assert.Equal(t, ChannelKey{Sensor: 1, Strip: 1}, d.Key)

	d.Hits[0] = 99
	assert.Equal(t, uint64(3), pulse.Hits[0])
}

func TestAssembleAddsNoise(t *testing.T) {
	catalog := testCatalog(t)
	calibrations := flatCalibrations(t, catalog, 1000, 10)
	noise := &fixedNoise{value: 1.5}
	assembler := NewAssembler(catalog, calibrations, triangleShape{width: 100}, noise, 24)

	d := assembler.AssembleTriggered(0, nil, 0)

	assert.Equal(t, NSamples, noise.pulls)
	for _, sample := range d.Samples {
		assert.Equal(t, int16(1015), sample)
	}
}

func TestQuantize(t *testing.T) {
	samples := quantize([NSamples]float64{2.5, -2.5, 2.4, 40000, -40000, math.Inf(1)})
	assert.Equal(t, [NSamples]int16{3, -3, 2, math.MaxInt16, math.MinInt16, math.MaxInt16}, samples)
}

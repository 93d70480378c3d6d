package readout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pulseTimes(pulses []PulseRecord) []float64 {
	times := make([]float64, len(pulses))
	for i, pulse := range pulses {
		times[i] = pulse.Time
	}
	return times
}

func TestPileupBufferOrdersByTime(t *testing.T) {
	buffer := NewPileupBuffer(4)
	for _, time := range []float64{30, 10, 20} {
		buffer.Insert(PulseRecord{Channel: 2, Time: time})
	}

	assert.Equal(t, []float64{10, 20, 30}, pulseTimes(buffer.Pulses(2)))
	earliest, ok := buffer.Peek(2)
	require.True(t, ok)
	assert.Equal(t, 10.0, earliest.Time)

	popped, ok := buffer.PopEarliest(2)
	require.True(t, ok)
	assert.Equal(t, 10.0, popped.Time)
	assert.Equal(t, 2, buffer.Len())
}

func TestPileupBufferTiesKeepInsertionOrder(t *testing.T) {
	buffer := NewPileupBuffer(1)
	for id := uint64(1); id <= 5; id++ {
		buffer.Insert(PulseRecord{Channel: 0, Time: 100, Hits: []uint64{id}})
	}

	for id := uint64(1); id <= 5; id++ {
		pulse, ok := buffer.PopEarliest(0)
		require.True(t, ok)
		assert.Equal(t, []uint64{id}, pulse.Hits)
	}
	assert.True(t, buffer.IsEmpty(0))
}

func TestPileupBufferEvictionBoundary(t *testing.T) {
	const latency, cutoff = 280.0, 300.0
	buffer := NewPileupBuffer(1)
	buffer.Insert(PulseRecord{Channel: 0, Time: 0})

	assert.Equal(t, 0, buffer.Evict(580-(latency+cutoff)))
	assert.False(t, buffer.IsEmpty(0))

	assert.Equal(t, 1, buffer.Evict(581-(latency+cutoff)))
	assert.True(t, buffer.IsEmpty(0))
}

func TestPileupBufferEvictsOnlyOlderPulses(t *testing.T) {
	buffer := NewPileupBuffer(3)
	for _, time := range []float64{0, 5, 10} {
		buffer.Insert(PulseRecord{Channel: 0, Time: time})
		buffer.Insert(PulseRecord{Channel: 2, Time: time + 1})
	}

	evicted := buffer.Evict(5)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, []float64{5, 10}, pulseTimes(buffer.Pulses(0)))
	assert.Equal(t, []float64{6, 11}, pulseTimes(buffer.Pulses(2)))
	for ch := 0; ch < buffer.NChannels(); ch++ {
		for _, pulse := range buffer.Pulses(ChannelID(ch)) {
			assert.GreaterOrEqual(t, pulse.Time, 5.0)
		}
	}
}

func TestPileupBufferReleasesEmptyChannels(t *testing.T) {
	buffer := NewPileupBuffer(8)
	assert.Equal(t, 0, buffer.ActiveChannels())

	buffer.Insert(PulseRecord{Channel: 1, Time: 1})
	buffer.Insert(PulseRecord{Channel: 5, Time: 2})
	buffer.Insert(PulseRecord{Channel: 5, Time: 3})
	assert.Equal(t, 2, buffer.ActiveChannels())
	assert.Equal(t, 3, buffer.Len())

	assert.Equal(t, 1, buffer.EvictOlderThan(1, 100))
	assert.True(t, buffer.IsEmpty(1))
	assert.Nil(t, buffer.Pulses(1))
	assert.Equal(t, 1, buffer.ActiveChannels())

	_, ok := buffer.Peek(1)
	assert.False(t, ok)
	_, ok = buffer.PopEarliest(1)
	assert.False(t, ok)
}

func TestPileupBufferPulsesIsACopy(t *testing.T) {
	buffer := NewPileupBuffer(1)
	buffer.Insert(PulseRecord{Channel: 0, Time: 1, Amplitude: 10})

	pulses := buffer.Pulses(0)
	pulses[0].Amplitude = 99

	earliest, _ := buffer.Peek(0)
	assert.Equal(t, 10.0, earliest.Amplitude)
}

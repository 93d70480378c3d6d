package readout

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubEventStream(t *testing.T) {
	subEvents := []*SubEvent{
		{Number: 0, Trigger: true, Hits: []TruthHit{
			{ID: 1, Sensor: "layer1", U: 3.25, Time: 0.5, Edep: mipEdep, Particle: 11},
			{ID: 2, Sensor: "layer2", U: 7.75, Time: 1.5, Edep: 2 * mipEdep, Particle: -11},
		}},
		{Number: 1},
		{Number: 2, Hits: []TruthHit{{ID: 3, Sensor: "layer1", U: 0, Time: 0, Edep: mipEdep, Particle: 22}}},
	}

	var buffer bytes.Buffer
	writer := NewSubEventWriter(&buffer)
	for _, subEvent := range subEvents {
		require.NoError(t, writer.Write(subEvent))
	}
	require.NoError(t, writer.Flush())

	reader := NewSubEventReader(&buffer)
	for _, expected := range subEvents {
		subEvent, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, expected.Number, subEvent.Number)
		assert.Equal(t, expected.Trigger, subEvent.Trigger)
		assert.Equal(t, len(expected.Hits), len(subEvent.Hits))
		for i := range expected.Hits {
			assert.Equal(t, expected.Hits[i], subEvent.Hits[i])
		}
	}
	_, err := reader.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSubEventReaderCorruptStream(t *testing.T) {
	reader := NewSubEventReader(bytes.NewReader([]byte{0xc1}))
	_, err := reader.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

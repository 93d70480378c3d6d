package readout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelCatalog(t *testing.T) {
	catalog := testCatalog(t)

	assert.Equal(t, "TestTracker", catalog.Detector)
	assert.Equal(t, 24, catalog.NChannels())
	require.Len(t, catalog.Sensors(), 2)

	id, ok := catalog.Lookup("layer2")
	require.True(t, ok)
	assert.Equal(t, SensorID(1), id)
	assert.Equal(t, 8, catalog.Sensor(id).NStrips)
	_, ok = catalog.Lookup("layer3")
	assert.False(t, ok)

	ch, err := catalog.Channel(id, 7)
	require.NoError(t, err)
	assert.Equal(t, ChannelID(23), ch)
	assert.Equal(t, ChannelKey{Sensor: 1, Strip: 7}, catalog.Key(ch))
	assert.Equal(t, "layer2:7", catalog.Describe(ch))

	_, err = catalog.Channel(id, 8)
	var outOfRange *ErrChannelOutOfRange
	require.True(t, errors.As(err, &outOfRange))
	assert.Equal(t, "layer2", outOfRange.Sensor)
	assert.Equal(t, 8, outOfRange.NStrip)
}

func TestChannelCatalogErrors(t *testing.T) {
	_, err := NewChannelCatalog("empty", nil)
	var empty *ErrEmptyCatalog
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "empty", empty.Detector)

	_, err = NewChannelCatalog("zero", []SensorInfo{{Name: "a", NStrips: 0}})
	assert.True(t, errors.As(err, &empty))

	_, err = NewChannelCatalog("dup", []SensorInfo{{Name: "a", NStrips: 2}, {Name: "a", NStrips: 2}})
	assert.Error(t, err)

	_, err = NewChannelCatalog("negative", []SensorInfo{{Name: "a", NStrips: -1}})
	assert.Error(t, err)
}

func TestPackedID(t *testing.T) {
	assert.Equal(t, int64(0), ChannelKey{}.PackedID())
	assert.Equal(t, int64(3)<<32|638, ChannelKey{Sensor: 3, Strip: 638}.PackedID())
}

func TestNominalCalibration(t *testing.T) {
	catalog := testCatalog(t)
	nominal := NominalConditions{
		Pedestal: 4000,
		Noise:    70,
		Gain:     1.2,
		Tp:       50,
		Tp2:      10,
		BadChannels: []BadChannel{
			{Sensor: "layer1", Strip: 3},
			{Sensor: "layer2", Strip: 100},
			{Sensor: "nowhere", Strip: 1},
		},
	}
	table := NominalCalibration(catalog, nominal)

	for ch := 0; ch < catalog.NChannels(); ch++ {
		calibration, ok := table.Calibration(ChannelID(ch))
		require.True(t, ok)
		assert.Equal(t, 4000.0, calibration.Pedestal[5])
		assert.Equal(t, 70.0, calibration.MeanNoise())
		assert.Equal(t, 1.2, calibration.Gain)
		assert.Equal(t, ch == 3, calibration.Bad, "channel %d", ch)
	}

	_, ok := table.Calibration(ChannelID(catalog.NChannels()))
	assert.False(t, ok)
	_, ok = table.Calibration(-1)
	assert.False(t, ok)
}

func TestResolveCalibrationsMissingChannel(t *testing.T) {
	catalog := testCatalog(t)
	table := NewCalibrationTable(catalog)
	for ch := 0; ch < catalog.NChannels(); ch++ {
		if ch == 20 {
			continue
		}
		table.Set(ChannelID(ch), flatCalibration(0, 1))
	}

	_, err := resolveCalibrations(catalog, table)
	var missing *ErrMissingCalibration
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "layer2", missing.Sensor)
	assert.Equal(t, 4, missing.Strip)
}

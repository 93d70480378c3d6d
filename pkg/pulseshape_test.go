package readout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shapeCalibrations(tp, tp2 float64, n int) []*ChannelCalibration {
	calibrations := make([]*ChannelCalibration, n)
	for i := range calibrations {
		calibration := flatCalibration(0, 1)
		calibration.Shape.Tp = tp
		calibration.Shape.Tp2 = tp2
		calibrations[i] = &calibration
	}
	return calibrations
}

func TestCRRCShape(t *testing.T) {
	shape, err := NewPulseShape(PulseShapeCRRC, shapeCalibrations(50, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, PulseShapeCRRC, shape.Name())

	assert.Equal(t, 0.0, shape.AmplitudePeakNorm(0, -10))
	assert.Equal(t, 0.0, shape.AmplitudePeakNorm(0, 0))
	assert.InDelta(t, 1.0, shape.AmplitudePeakNorm(1, 50), 1e-12)
	assert.Less(t, shape.AmplitudePeakNorm(0, 49), 1.0)
	assert.Less(t, shape.AmplitudePeakNorm(0, 51), 1.0)
	assert.Less(t, shape.AmplitudePeakNorm(0, 5000), 1e-12)
}

func TestFourPoleShapeIsPeakNormalized(t *testing.T) {
	shape, err := NewPulseShape(PulseShapeFourPole, shapeCalibrations(50, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, PulseShapeFourPole, shape.Name())

	maximum := 0.0
	for time := 0.0; time < 500; time += 0.01 {
		value := shape.AmplitudePeakNorm(0, time)
		assert.LessOrEqual(t, value, 1+1e-9)
		if value > maximum {
			maximum = value
		}
	}
	assert.InDelta(t, 1.0, maximum, 1e-6)
	assert.Equal(t, 0.0, shape.AmplitudePeakNorm(0, -1))
	assert.InDelta(t, 0.0, shape.AmplitudePeakNorm(0, 0), 1e-12)
	assert.Less(t, shape.AmplitudePeakNorm(0, 5000), 1e-9)
}

func TestPulseShapeParameters(t *testing.T) {
	_, err := NewPulseShape(PulseShapeCRRC, shapeCalibrations(0, 0, 1))
	assert.Error(t, err)

	_, err = NewPulseShape(PulseShapeFourPole, shapeCalibrations(10, 10, 1))
	assert.Error(t, err)

	_, err = NewPulseShape(PulseShapeFourPole, shapeCalibrations(50, 0, 1))
	assert.Error(t, err)
}

func TestUnknownPulseShape(t *testing.T) {
	_, err := NewPulseShape("Gaussian", shapeCalibrations(50, 10, 1))
	var unknown *ErrUnknownPulseShape
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Gaussian", unknown.Name)

	assert.True(t, ValidPulseShape(PulseShapeCRRC))
	assert.True(t, ValidPulseShape(PulseShapeFourPole))
	assert.False(t, ValidPulseShape("Gaussian"))
}

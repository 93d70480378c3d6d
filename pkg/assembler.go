package readout

import "math"

// FirstSampleTime returns the time of the first sample read out for a trigger
// at triggerTime. The sampling grid is anchored to the trigger, not to pulses.
func FirstSampleTime(triggerTime, latency, offset, interval float64) float64 {
	return math.Floor((triggerTime-latency-offset)/interval)*interval + offset
}

// Assembler builds the sampled shaper output of a channel from its pulses.
// It never modifies the pulses it reads.
type Assembler struct {
	shape        PulseShape
	calibrations []*ChannelCalibration
	catalog      *ChannelCatalog
	noise        NoiseSource
	interval     float64
}

// NewAssembler creates an assembler. A nil noise source disables noise.
func NewAssembler(catalog *ChannelCatalog, calibrations []*ChannelCalibration, shape PulseShape,
	noise NoiseSource, interval float64) *Assembler {
	return &Assembler{
		shape:        shape,
		calibrations: calibrations,
		catalog:      catalog,
		noise:        noise,
		interval:     interval,
	}
}

// baseline returns the pedestal of every sample plus noise, if enabled.
func (a *Assembler) baseline(ch ChannelID) [NSamples]float64 {
	calibration := a.calibrations[ch]
	signal := calibration.Pedestal
	if a.noise != nil {
		for i := range signal {
			signal[i] += a.noise.Gaussian(calibration.Noise[i])
		}
	}
	return signal
}

// AssembleTriggered samples every pulse of a channel on the grid starting at
// firstSample. Truth hits are attached from the pulses whose contribution,
// summed over the samples, is above four times the mean noise of the channel.
func (a *Assembler) AssembleTriggered(ch ChannelID, pulses []PulseRecord, firstSample float64) Digitization {
	calibration := a.calibrations[ch]
	signal := a.baseline(ch)
	meanNoise := calibration.MeanNoise()
	hits := make([]uint64, 0)

	for _, pulse := range pulses {
		totalContrib := 0.0
		for i := 0; i < NSamples; i++ {
			sampleTime := firstSample + float64(i)*a.interval - pulse.Time - calibration.TimeOffset
			contrib := pulse.Amplitude * a.shape.AmplitudePeakNorm(ch, sampleTime)
			totalContrib += contrib
			signal[i] += contrib
		}
		if totalContrib > attributionNoiseFactor*meanNoise {
			hits = append(hits, pulse.Hits...)
		}
	}

	return Digitization{
		Channel: ch,
		Key:     a.catalog.Key(ch),
		Samples: quantize(signal),
		Hits:    hits,
	}
}

// AssembleImmediate samples a single pulse with its first sample timeOffset
// before the pulse. All its truth hits are attached.
func (a *Assembler) AssembleImmediate(pulse PulseRecord, timeOffset float64) Digitization {
	ch := pulse.Channel
	calibration := a.calibrations[ch]
	signal := a.baseline(ch)
	for i := 0; i < NSamples; i++ {
		sampleTime := float64(i)*a.interval - timeOffset - calibration.TimeOffset
		signal[i] += pulse.Amplitude * a.shape.AmplitudePeakNorm(ch, sampleTime)
	}

	hits := make([]uint64, len(pulse.Hits))
	copy(hits, pulse.Hits)
	return Digitization{
		Channel: ch,
		Key:     a.catalog.Key(ch),
		Samples: quantize(signal),
		Hits:    hits,
	}
}

// quantize rounds to the nearest ADC count.
func quantize(signal [NSamples]float64) [NSamples]int16 {
	var samples [NSamples]int16
	for i, value := range signal {
		value = math.Round(value)
		samples[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, value)))
	}
	return samples
}

package readout

import "fmt"

// Cut identifies the readout cut that rejected a digitization.
type Cut int

const (
	CutNone Cut = iota
	CutThreshold
	CutPileup
	CutBadChannel
)

func (c Cut) String() string {
	switch c {
	case CutNone:
		return "none"
	case CutThreshold:
		return "threshold"
	case CutPileup:
		return "pileup"
	case CutBadChannel:
		return "bad_channel"
	default:
		return "unknown"
	}
}

// QualityFilter applies the readout cuts. Disabled cuts always pass.
type QualityFilter struct {
	EnableThresholdCut    bool
	EnablePileupCut       bool
	DropBadChannels       bool
	NoiseThreshold        float64
	SamplesAboveThreshold int
	Verbosity             int
}

func NewQualityFilter(config Configuration) *QualityFilter {
	return &QualityFilter{
		EnableThresholdCut:    config.EnableThresholdCut,
		EnablePileupCut:       config.EnablePileupCut,
		DropBadChannels:       config.DropBadChannels,
		NoiseThreshold:        config.NoiseThreshold,
		SamplesAboveThreshold: config.SamplesAboveThreshold,
		Verbosity:             config.Verbosity,
	}
}

// Apply returns the first cut failed by the digitization, or CutNone.
func (f *QualityFilter) Apply(d *Digitization, calibration *ChannelCalibration) Cut {
	if f.EnableThresholdCut && !f.samplesAboveThreshold(d, calibration) {
		return CutThreshold
	}
	if f.EnablePileupCut && !pileupCut(d) {
		return CutPileup
	}
	if f.DropBadChannels && calibration.Bad {
		return CutBadChannel
	}
	return CutNone
}

func (f *QualityFilter) Accept(d *Digitization, calibration *ChannelCalibration) bool {
	return f.Apply(d, calibration) == CutNone
}

func (f *QualityFilter) samplesAboveThreshold(d *Digitization, calibration *ChannelCalibration) bool {
	count := 0
	for i, sample := range d.Samples {
		signal := float64(sample) - calibration.Pedestal[i]
		threshold := calibration.Noise[i] * f.NoiseThreshold
		if f.Verbosity > 2 {
			message := fmt.Sprintf("sample %d: %f, threshold %f", i, signal, threshold)
			logger.Info(message, "filter")
		}
		if signal > threshold {
			count++
		}
	}
	return count >= f.SamplesAboveThreshold
}

// pileupCut requires a rising edge in the first samples, which rejects
// pulses already decaying when the readout window opens.
func pileupCut(d *Digitization) bool {
	s := d.Samples
	return s[2] > s[1] || s[3] > s[2]
}

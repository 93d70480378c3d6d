package readout

// Readout chip constants.
const (
	// Total number of shaper samples read out per channel.
	NSamples = 6

	// Default strips per sensor when the catalog does not say otherwise.
	StripsPerSensor = 639

	// Approximate number of electron-hole pairs created by a min. ionizing
	// particle in 300 micrometers of Si.
	MIP = 25000 // electrons

	// Energy needed to create one electron-hole pair in silicon.
	PairEnergy = 3.62e-9 // GeV

	// Input stage of the preamplifier
	resistorValue  = 100.0 // Ohms
	inputStageGain = 1.5
	adcCounts      = 1 << 14
	adcRange       = 2000.0

	// A pulse is attributed to a digitization when its summed contribution
	// exceeds this many times the mean noise of the channel.
	attributionNoiseFactor = 4.0
)

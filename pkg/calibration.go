package readout

// ShapeParameters are the shaper fit parameters of one channel.
type ShapeParameters struct {
	Tp  float64 // ns
	Tp2 float64 // ns, only used by the four-pole shape
}

type ChannelCalibration struct {
	Pedestal   [NSamples]float64
	Noise      [NSamples]float64
	Gain       float64 // relative to nominal
	TimeOffset float64 // ns
	Shape      ShapeParameters
	Bad        bool
}

// MeanNoise returns the noise averaged over the samples of the channel.
func (c *ChannelCalibration) MeanNoise() float64 {
	sum := 0.0
	for _, noise := range c.Noise {
		sum += noise
	}
	return sum / NSamples
}

// CalibrationProvider gives read access to per-channel calibrations.
type CalibrationProvider interface {
	Calibration(ch ChannelID) (*ChannelCalibration, bool)
}

// CalibrationTable is an in-memory calibration indexed by channel handle.
type CalibrationTable struct {
	catalog *ChannelCatalog
	entries []*ChannelCalibration
}

func NewCalibrationTable(catalog *ChannelCatalog) *CalibrationTable {
	return &CalibrationTable{
		catalog: catalog,
		entries: make([]*ChannelCalibration, catalog.NChannels()),
	}
}

func (t *CalibrationTable) Set(ch ChannelID, calibration ChannelCalibration) {
	t.entries[ch] = &calibration
}

func (t *CalibrationTable) Calibration(ch ChannelID) (*ChannelCalibration, bool) {
	if ch < 0 || int(ch) >= len(t.entries) || t.entries[ch] == nil {
		return nil, false
	}
	return t.entries[ch], true
}

// NominalCalibration builds a calibration with the same nominal values for
// every channel of the catalog. Used when running without database.
func NominalCalibration(catalog *ChannelCatalog, nominal NominalConditions) *CalibrationTable {
	table := NewCalibrationTable(catalog)
	calibration := ChannelCalibration{
		Gain: nominal.Gain,
		Shape: ShapeParameters{
			Tp:  nominal.Tp,
			Tp2: nominal.Tp2,
		},
	}
	for i := 0; i < NSamples; i++ {
		calibration.Pedestal[i] = nominal.Pedestal
		calibration.Noise[i] = nominal.Noise
	}
	for ch := 0; ch < catalog.NChannels(); ch++ {
		table.Set(ChannelID(ch), calibration)
	}
	for _, bad := range nominal.BadChannels {
		sensor, ok := catalog.Lookup(bad.Sensor)
		if !ok {
			continue
		}
		ch, err := catalog.Channel(sensor, bad.Strip)
		if err != nil {
			continue
		}
		table.entries[ch].Bad = true
	}
	return table
}

// resolveCalibrations checks that every catalogued channel is calibrated and
// returns the calibrations indexed by channel handle.
func resolveCalibrations(catalog *ChannelCatalog, provider CalibrationProvider) ([]*ChannelCalibration, error) {
	resolved := make([]*ChannelCalibration, catalog.NChannels())
	for ch := range resolved {
		calibration, ok := provider.Calibration(ChannelID(ch))
		if !ok {
			key := catalog.Key(ChannelID(ch))
			return nil, &ErrMissingCalibration{
				Sensor: catalog.Sensor(key.Sensor).Name,
				Strip:  key.Strip,
			}
		}
		resolved[ch] = calibration
	}
	return resolved, nil
}

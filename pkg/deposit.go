package readout

import (
	"math"

	"golang.org/x/exp/slices"
)

type electrodeData struct {
	charge float64 // electrons
	hits   []*TruthHit
}

// ChargeDeposition collects the charge of the truth hits of one sub-event on
// the strips of every sensor.
type ChargeDeposition struct {
	catalog      *ChannelCatalog
	calibrations []*ChannelCalibration
	spread       float64
	electrodes   []map[int]*electrodeData
}

// NewChargeDeposition creates the deposition model. spread is the width of
// the charge cloud at the strips, in strip pitch units; zero puts all the
// charge on the strip under the hit.
func NewChargeDeposition(catalog *ChannelCatalog, calibrations []*ChannelCalibration, spread float64) *ChargeDeposition {
	return &ChargeDeposition{
		catalog:      catalog,
		calibrations: calibrations,
		spread:       math.Max(spread, 0),
		electrodes:   make([]map[int]*electrodeData, len(catalog.Sensors())),
	}
}

// Deposit adds the charge of a truth hit to the strips of its sensor. Hits on
// unknown sensors or outside the sensor are rejected and nothing is deposited.
func (d *ChargeDeposition) Deposit(hit *TruthHit) error {
	sensorID, ok := d.catalog.Lookup(hit.Sensor)
	if !ok {
		return &ErrUnknownSensor{Sensor: hit.Sensor}
	}
	sensor := d.catalog.Sensor(sensorID)
	center := int(math.Floor(hit.U))
	if _, err := d.catalog.Channel(sensorID, center); err != nil {
		return err
	}

	charge := hit.Edep / PairEnergy
	if d.electrodes[sensorID] == nil {
		d.electrodes[sensorID] = make(map[int]*electrodeData)
	}
	electrodes := d.electrodes[sensorID]

	if d.spread == 0 {
		addCharge(electrodes, center, charge, hit)
		return nil
	}
	first := max(int(math.Floor(hit.U-3*d.spread)), 0)
	last := min(int(math.Ceil(hit.U+3*d.spread))-1, sensor.NStrips-1)
	for strip := first; strip <= last; strip++ {
		fraction := gaussianFraction(float64(strip), float64(strip+1), hit.U, d.spread)
		addCharge(electrodes, strip, charge*fraction, hit)
	}
	return nil
}

func addCharge(electrodes map[int]*electrodeData, strip int, charge float64, hit *TruthHit) {
	if charge <= 0 {
		return
	}
	data, ok := electrodes[strip]
	if !ok {
		data = &electrodeData{}
		electrodes[strip] = data
	}
	data.charge += charge
	data.hits = append(data.hits, hit)
}

// gaussianFraction is the fraction of a gaussian centered at mean that lies in [low, high).
func gaussianFraction(low, high, mean, sigma float64) float64 {
	cdf := func(x float64) float64 {
		return 0.5 * (1 + math.Erf((x-mean)/(sigma*math.Sqrt2)))
	}
	return cdf(high) - cdf(low)
}

// Extract returns one pulse per strip with collected charge, sensors in
// catalog order and strips ascending, and clears the collected charge.
//
// The pulse time is the unweighted average of the truth hit times; this is
// crude but there is generally only one truth hit per strip.
func (d *ChargeDeposition) Extract(clock float64) ([]PulseRecord, error) {
	pulses := make([]PulseRecord, 0)
	defer d.clear()

	for sensorID, electrodes := range d.electrodes {
		if len(electrodes) == 0 {
			continue
		}
		strips := make([]int, 0, len(electrodes))
		for strip := range electrodes {
			strips = append(strips, strip)
		}
		slices.Sort(strips)

		for _, strip := range strips {
			data := electrodes[strip]
			if data.charge <= 0 {
				continue
			}
			ch, err := d.catalog.Channel(SensorID(sensorID), strip)
			if err != nil {
				return nil, err
			}
			time, err := meanHitTime(d.catalog.Sensor(SensorID(sensorID)).Name, strip, data.hits)
			if err != nil {
				return nil, err
			}
			ids := make([]uint64, len(data.hits))
			for i, hit := range data.hits {
				ids[i] = hit.ID
			}
			pulses = append(pulses, PulseRecord{
				Channel:   ch,
				Amplitude: chargeToAmplitude(data.charge, d.calibrations[ch].Gain),
				Time:      time + clock,
				Hits:      ids,
			})
		}
	}
	return pulses, nil
}

func (d *ChargeDeposition) clear() {
	for i := range d.electrodes {
		d.electrodes[i] = nil
	}
}

func meanHitTime(sensor string, strip int, hits []*TruthHit) (float64, error) {
	if len(hits) == 0 {
		return 0, &ErrNoContributingHits{Sensor: sensor, Strip: strip}
	}
	time := 0.0
	for _, hit := range hits {
		time += hit.Time
	}
	return time / float64(len(hits)), nil
}

// chargeToAmplitude converts collected electrons to ADC counts.
func chargeToAmplitude(charge float64, gain float64) float64 {
	return (charge / MIP) * resistorValue * inputStageGain * adcCounts / adcRange * gain
}

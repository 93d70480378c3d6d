package readout

import "fmt"

// SensorID is the index of a sensor in the channel catalog.
type SensorID uint16

// ChannelID is a dense handle into the catalog's channel arena.
type ChannelID int32

// ChannelKey identifies one readout channel (one strip of one sensor).
type ChannelKey struct {
	Sensor SensorID
	Strip  int
}

// PackedID returns the 64-bit channel id written to the output files.
func (k ChannelKey) PackedID() int64 {
	return int64(k.Sensor)<<32 | int64(k.Strip)
}

// SensorInfo describes one sensor as provided by the geometry.
type SensorInfo struct {
	Name    string `db:"Name" koanf:"name"`
	NStrips int    `db:"NStrips" koanf:"strips"`
}

type Sensor struct {
	ID      SensorID
	Name    string
	NStrips int
	first   ChannelID
}

// ChannelCatalog holds every readout channel of a detector. Channels of a
// sensor are contiguous and ordered by strip.
type ChannelCatalog struct {
	Detector string
	sensors  []Sensor
	byName   map[string]SensorID
	keys     []ChannelKey
}

func NewChannelCatalog(detector string, infos []SensorInfo) (*ChannelCatalog, error) {
	catalog := &ChannelCatalog{
		Detector: detector,
		sensors:  make([]Sensor, 0, len(infos)),
		byName:   make(map[string]SensorID, len(infos)),
	}
	for _, info := range infos {
		if _, ok := catalog.byName[info.Name]; ok {
			return nil, fmt.Errorf("duplicated sensor %q in detector %q", info.Name, detector)
		}
		if info.NStrips < 0 {
			return nil, fmt.Errorf("sensor %q has negative strip count %d", info.Name, info.NStrips)
		}
		id := SensorID(len(catalog.sensors))
		catalog.sensors = append(catalog.sensors, Sensor{
			ID:      id,
			Name:    info.Name,
			NStrips: info.NStrips,
			first:   ChannelID(len(catalog.keys)),
		})
		catalog.byName[info.Name] = id
		for strip := 0; strip < info.NStrips; strip++ {
			catalog.keys = append(catalog.keys, ChannelKey{Sensor: id, Strip: strip})
		}
	}
	if len(catalog.keys) == 0 {
		return nil, &ErrEmptyCatalog{Detector: detector}
	}
	return catalog, nil
}

func (c *ChannelCatalog) Sensors() []Sensor {
	return c.sensors
}

func (c *ChannelCatalog) Sensor(id SensorID) Sensor {
	return c.sensors[id]
}

func (c *ChannelCatalog) Lookup(name string) (SensorID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// NChannels returns the total number of channels of the detector.
func (c *ChannelCatalog) NChannels() int {
	return len(c.keys)
}

func (c *ChannelCatalog) Key(ch ChannelID) ChannelKey {
	return c.keys[ch]
}

// Channel returns the handle of a strip, or ErrChannelOutOfRange.
func (c *ChannelCatalog) Channel(sensor SensorID, strip int) (ChannelID, error) {
	s := c.sensors[sensor]
	if strip < 0 || strip >= s.NStrips {
		return -1, &ErrChannelOutOfRange{Sensor: s.Name, Strip: strip, NStrip: s.NStrips}
	}
	return s.first + ChannelID(strip), nil
}

// Describe returns a printable name for a channel, used in log messages.
func (c *ChannelCatalog) Describe(ch ChannelID) string {
	key := c.keys[ch]
	return fmt.Sprintf("%s:%d", c.sensors[key.Sensor].Name, key.Strip)
}

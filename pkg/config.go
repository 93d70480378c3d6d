package readout

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "STRIPREADOUT_"

type BadChannel struct {
	Sensor string `koanf:"sensor"`
	Strip  int    `koanf:"strip"`
}

// NominalConditions are the calibration values used for every channel when
// running without database.
type NominalConditions struct {
	Pedestal    float64      `koanf:"pedestal"`
	Noise       float64      `koanf:"noise"`
	Gain        float64      `koanf:"gain"`
	Tp          float64      `koanf:"tp"`
	Tp2         float64      `koanf:"tp2"`
	BadChannels []BadChannel `koanf:"bad_channels"`
}

type InfluxConfiguration struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Token   string `koanf:"token"`
	Org     string `koanf:"org"`
	Bucket  string `koanf:"bucket"`
}

type Configuration struct {
	MaxEvents int    `koanf:"max_events"`
	Skip      int    `koanf:"skip"`
	Verbosity int    `koanf:"verbosity"`
	FileIn    string `koanf:"file_in"`
	FileOut   string `koanf:"file_out"`
	WriteData bool   `koanf:"write_data"`
	RunNumber int    `koanf:"run_number"`
	Detector  string `koanf:"detector"`

	NoDB    bool              `koanf:"no_db"`
	Host    string            `koanf:"host"`
	User    string            `koanf:"user"`
	Passwd  string            `koanf:"pass"`
	DBName  string            `koanf:"dbname"`
	Sensors []SensorInfo      `koanf:"sensors"`
	Nominal NominalConditions `koanf:"nominal"`

	PulseShape            string  `koanf:"pulse_shape"`
	AddNoise              bool    `koanf:"add_noise"`
	NoPileup              bool    `koanf:"no_pileup"`
	EnableThresholdCut    bool    `koanf:"enable_threshold_cut"`
	EnablePileupCut       bool    `koanf:"enable_pileup_cut"`
	DropBadChannels       bool    `koanf:"drop_bad_channels"`
	NoiseThreshold        float64 `koanf:"noise_threshold"`
	SamplesAboveThreshold int     `koanf:"samples_above_threshold"`
	PileupCutoff          float64 `koanf:"pileup_cutoff"`
	ReadoutLatency        float64 `koanf:"readout_latency"`
	ReadoutOffset         float64 `koanf:"readout_offset"`
	TimeOffset            float64 `koanf:"time_offset"`
	TriggerDelay          float64 `koanf:"trigger_delay"`
	SamplingInterval      float64 `koanf:"sampling_interval"`
	UseTimingConditions   bool    `koanf:"use_timing_conditions"`
	RandomSeed            uint64  `koanf:"random_seed"`
	SubEventSpacing       float64 `koanf:"subevent_spacing"`
	ChargeSpread          float64 `koanf:"charge_spread"`

	CompressionLevel int                 `koanf:"compression_level"`
	MetricsAddr      string              `koanf:"metrics_addr"`
	Influx           InfluxConfiguration `koanf:"influx"`
}

// DefaultSensors is the sensor list used without database when the
// configuration does not give one.
func DefaultSensors() []SensorInfo {
	sensors := make([]SensorInfo, 0, 14)
	for layer := 1; layer <= 14; layer++ {
		sensors = append(sensors, SensorInfo{
			Name:    fmt.Sprintf("TaggerTracker_layer%d", layer),
			NStrips: StripsPerSensor,
		})
	}
	return sensors
}

// NewConfiguration returns the configuration with default values.
func NewConfiguration() Configuration {
	return Configuration{
		MaxEvents: 1000000000,
		Skip:      0,
		Verbosity: 0,
		WriteData: true,
		Detector:  "TaggerTracker",

		NoDB:    false,
		Host:    "localhost",
		User:    "reader",
		Passwd:  "readonly",
		DBName:  "TRACKER",
		Nominal: NominalConditions{
			Pedestal: 4000,
			Noise:    70,
			Gain:     1,
			Tp:       50,
			Tp2:      10,
		},

		PulseShape:            PulseShapeFourPole,
		AddNoise:              true,
		NoPileup:              false,
		EnableThresholdCut:    true,
		EnablePileupCut:       true,
		DropBadChannels:       true,
		NoiseThreshold:        2.0,
		SamplesAboveThreshold: 3,
		PileupCutoff:          300.0,
		ReadoutLatency:        280.0,
		ReadoutOffset:         0.0,
		TimeOffset:            30.0,
		TriggerDelay:          100.0,
		SamplingInterval:      24.0,
		UseTimingConditions:   false,
		RandomSeed:            1,
		SubEventSpacing:       2.0,
		ChargeSpread:          0.0,

		CompressionLevel: 4,
		Influx: InfluxConfiguration{
			Org:    "tracker",
			Bucket: "readout",
		},
	}
}

// LoadConfiguration layers the defaults, the YAML file at filename (if not
// empty) and the STRIPREADOUT_ environment variables. Nested keys are
// separated by a double underscore, e.g. STRIPREADOUT_NOMINAL__NOISE.
func LoadConfiguration(filename string) (Configuration, error) {
	config := NewConfiguration()
	k := koanf.New(".")

	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return config, fmt.Errorf("error reading configuration file %q: %w", filename, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return config, fmt.Errorf("error reading environment: %w", err)
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return config, fmt.Errorf("error decoding configuration: %w", err)
	}
	if len(config.Sensors) == 0 {
		config.Sensors = DefaultSensors()
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks the options that would make the simulation meaningless.
func (c Configuration) Validate() error {
	if !ValidPulseShape(c.PulseShape) {
		return &ErrUnknownPulseShape{Name: c.PulseShape}
	}
	if c.SamplingInterval <= 0 {
		return fmt.Errorf("sampling interval must be positive, got %f", c.SamplingInterval)
	}
	if c.SamplesAboveThreshold < 0 || c.SamplesAboveThreshold > NSamples {
		return fmt.Errorf("samples above threshold must be in [0, %d], got %d", NSamples, c.SamplesAboveThreshold)
	}
	if c.NoiseThreshold < 0 {
		return fmt.Errorf("noise threshold must not be negative, got %f", c.NoiseThreshold)
	}
	if c.PileupCutoff < 0 || c.ReadoutLatency < 0 {
		return fmt.Errorf("pileup cutoff and readout latency must not be negative")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("compression level must be in [0, 9], got %d", c.CompressionLevel)
	}
	return nil
}

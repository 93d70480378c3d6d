package readout

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

const testConfigYAML = `
detector: TestTracker
no_db: true
pulse_shape: CR-RC
readout_latency: 300
add_noise: false
nominal:
  pedestal: 3500
  bad_channels:
    - sensor: layer1
      strip: 7
sensors:
  - name: layer1
    strips: 16
  - name: layer2
    strips: 8
`

func TestLoadConfiguration(t *testing.T) {
	convey.Convey("Given no configuration file", t, func() {
		convey.Convey("When the configuration is loaded", func() {
			config, err := LoadConfiguration("")

			convey.Convey("Then the defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.Detector, convey.ShouldEqual, "TaggerTracker")
				convey.So(config.PulseShape, convey.ShouldEqual, PulseShapeFourPole)
				convey.So(config.SamplingInterval, convey.ShouldEqual, 24.0)
				convey.So(config.ReadoutLatency, convey.ShouldEqual, 280.0)
				convey.So(config.PileupCutoff, convey.ShouldEqual, 300.0)
				convey.So(config.TriggerDelay, convey.ShouldEqual, 100.0)
				convey.So(config.AddNoise, convey.ShouldBeTrue)
			})

			convey.Convey("And the default sensors are filled in", func() {
				convey.So(config.Sensors, convey.ShouldHaveLength, 14)
				convey.So(config.Sensors[0].Name, convey.ShouldEqual, "TaggerTracker_layer1")
				convey.So(config.Sensors[13].NStrips, convey.ShouldEqual, StripsPerSensor)
			})
		})
	})

	convey.Convey("Given a YAML configuration file", t, func() {
		filename := filepath.Join(t.TempDir(), "config.yaml")
		convey.So(os.WriteFile(filename, []byte(testConfigYAML), 0o644), convey.ShouldBeNil)

		convey.Convey("When the configuration is loaded", func() {
			config, err := LoadConfiguration(filename)

			convey.Convey("Then the file overrides the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.Detector, convey.ShouldEqual, "TestTracker")
				convey.So(config.NoDB, convey.ShouldBeTrue)
				convey.So(config.PulseShape, convey.ShouldEqual, PulseShapeCRRC)
				convey.So(config.ReadoutLatency, convey.ShouldEqual, 300.0)
				convey.So(config.AddNoise, convey.ShouldBeFalse)
				convey.So(config.Nominal.Pedestal, convey.ShouldEqual, 3500.0)
				convey.So(config.Nominal.BadChannels, convey.ShouldResemble, []BadChannel{{Sensor: "layer1", Strip: 7}})
				convey.So(config.Sensors, convey.ShouldResemble, []SensorInfo{
					{Name: "layer1", NStrips: 16},
					{Name: "layer2", NStrips: 8},
				})
			})

			convey.Convey("And the options it does not set keep their defaults", func() {
				convey.So(config.Nominal.Noise, convey.ShouldEqual, 70.0)
				convey.So(config.SamplingInterval, convey.ShouldEqual, 24.0)
			})
		})

		convey.Convey("When environment variables are set", func() {
			t.Setenv("STRIPREADOUT_NOMINAL__NOISE", "55")
			t.Setenv("STRIPREADOUT_NO_PILEUP", "true")
			config, err := LoadConfiguration(filename)

			convey.Convey("Then they override the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(config.Nominal.Noise, convey.ShouldEqual, 55.0)
				convey.So(config.Nominal.Pedestal, convey.ShouldEqual, 3500.0)
				convey.So(config.NoPileup, convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a configuration file that does not exist", t, func() {
		_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))

		convey.Convey("Then loading fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestValidateConfiguration(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		config := NewConfiguration()

		convey.Convey("Then it is valid", func() {
			convey.So(config.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the pulse shape is unknown", func() {
			config.PulseShape = "Gaussian"
			err := config.Validate()

			convey.Convey("Then validation returns ErrUnknownPulseShape", func() {
				var unknown *ErrUnknownPulseShape
				convey.So(errors.As(err, &unknown), convey.ShouldBeTrue)
				convey.So(unknown.Name, convey.ShouldEqual, "Gaussian")
			})
		})

		convey.Convey("When the sampling interval is zero", func() {
			config.SamplingInterval = 0
			convey.So(config.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When more samples above threshold than samples are required", func() {
			config.SamplesAboveThreshold = NSamples + 1
			convey.So(config.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the compression level is out of range", func() {
			config.CompressionLevel = 10
			convey.So(config.Validate(), convey.ShouldNotBeNil)
		})
	})
}

func TestApplyTimingConstants(t *testing.T) {
	convey.Convey("Given the timing constants of a run", t, func() {
		config := NewConfiguration()
		config.ApplyTimingConstants(TimingConstants{OffsetPhase: 2, OffsetTime: 36})

		convey.Convey("Then the readout offset and latency are derived from them", func() {
			convey.So(config.ReadoutOffset, convey.ShouldEqual, 20.0)
			convey.So(config.ReadoutLatency, convey.ShouldEqual, 284.0)
		})
	})
}

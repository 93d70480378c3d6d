package main

import (
	"fmt"

	readout "github.com/next-exp/stripreadout_go/pkg"
)

func printConfiguration(config readout.Configuration, logger readout.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Write data: %t", config.WriteData), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Detector: %s", config.Detector), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	if config.NoDB {
		logger.Info(fmt.Sprintf("Sensors: %d", len(config.Sensors)), "config")
		logger.Info(fmt.Sprintf("Nominal pedestal: %.1f, noise: %.1f, gain: %.2f",
			config.Nominal.Pedestal, config.Nominal.Noise, config.Nominal.Gain), "config")
		logger.Info(fmt.Sprintf("Bad channels: %d", len(config.Nominal.BadChannels)), "config")
	}
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Pulse shape: %s", config.PulseShape), "config")
	logger.Info(fmt.Sprintf("Add noise: %t", config.AddNoise), "config")
	logger.Info(fmt.Sprintf("Random seed: %d", config.RandomSeed), "config")
	logger.Info(fmt.Sprintf("No pileup: %t", config.NoPileup), "config")
	logger.Info(fmt.Sprintf("Threshold cut: %t (%.1f sigma, %d samples)",
		config.EnableThresholdCut, config.NoiseThreshold, config.SamplesAboveThreshold), "config")
	logger.Info(fmt.Sprintf("Pileup cut: %t", config.EnablePileupCut), "config")
	logger.Info(fmt.Sprintf("Drop bad channels: %t", config.DropBadChannels), "config")
	logger.Info(fmt.Sprintf("Pileup cutoff: %.1f ns", config.PileupCutoff), "config")
	logger.Info(fmt.Sprintf("Readout latency: %.1f ns", config.ReadoutLatency), "config")
	logger.Info(fmt.Sprintf("Readout offset: %.1f ns", config.ReadoutOffset), "config")
	logger.Info(fmt.Sprintf("Use timing conditions: %t", config.UseTimingConditions), "config")
	logger.Info(fmt.Sprintf("Time offset: %.1f ns", config.TimeOffset), "config")
	logger.Info(fmt.Sprintf("Trigger delay: %.1f ns", config.TriggerDelay), "config")
	logger.Info(fmt.Sprintf("Sampling interval: %.1f ns", config.SamplingInterval), "config")
	logger.Info(fmt.Sprintf("Sub-event spacing: %.1f ns", config.SubEventSpacing), "config")
	logger.Info(fmt.Sprintf("Charge spread: %.2f strips", config.ChargeSpread), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
	logger.Info(fmt.Sprintf("Influx: %t %s", config.Influx.Enabled, config.Influx.URL), "config")
}

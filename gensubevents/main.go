package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	readout "github.com/next-exp/stripreadout_go/pkg"
)

var logger readout.SlogLogger

func init() {
	logger = readout.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	output := flag.String("out", "subevents.msgpack", "Output file")
	nEvents := flag.Int("n", 10000, "Number of sub-events")
	hitsPerEvent := flag.Float64("hits", 5, "Mean number of truth hits per sub-event")
	triggerEvery := flag.Int("trigger-every", 200, "Flag one sub-event in this many as trigger, 0 for none")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	configuration, err := readout.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	readout.SetLogger(logger)

	if err := generate(*output, configuration.Sensors, *nEvents, *hitsPerEvent, *triggerEvery, *seed); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Wrote %d sub-events to %s", *nEvents, *output)
		logger.Info(message, "gensubevents")
	}
}

func generate(filename string, sensors []readout.SensorInfo, nEvents int, hitsPerEvent float64,
	triggerEvery int, seed uint64) error {
	if len(sensors) == 0 {
		return fmt.Errorf("no sensors configured")
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}

	writer := readout.NewSubEventWriter(file)
	generator := NewGenerator(sensors, seed, hitsPerEvent, triggerEvery)
	for i := 0; i < nEvents; i++ {
		if err := writer.Write(generator.Next(int64(i))); err != nil {
			return errors.Join(err, file.Close())
		}
	}
	if err := writer.Flush(); err != nil {
		return errors.Join(fmt.Errorf("error writing file: %w", err), file.Close())
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

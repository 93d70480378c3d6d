package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	readout "github.com/next-exp/stripreadout_go/pkg"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

var logger readout.SlogLogger

func init() {
	logger = readout.NewSlogLogger(os.Stdout, os.Stderr)
}

// ScanResult is the outcome of one run over the input for a pileup cutoff.
type ScanResult struct {
	Cutoff    float64
	Readouts  int
	Hits      int
	Relations int
	Evicted   int
	Duration  time.Duration
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	cutoffList := flag.String("cutoffs", "100,200,300,400,500", "Comma separated pileup cutoffs in ns")
	numWorkers := flag.Int("workers", 4, "Settings simulated in parallel")
	flag.Parse()

	configuration, err := readout.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	readout.SetLogger(logger)
	// per readout logs from several runs at once are useless
	configuration.Verbosity = 0

	cutoffs, err := parseCutoffs(*cutoffList)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	subEvents, err := readSubEvents(configuration.FileIn, configuration.Skip, configuration.MaxEvents)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Sub-events read: %d", len(subEvents)), "pileupScan")

	catalog, calibrations, err := loadConditions(&configuration, readout.ConnectToDatabase)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	start := time.Now()
	results, err := scan(context.Background(), configuration, catalog, calibrations, subEvents, cutoffs, *numWorkers)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	for _, r := range results {
		fmt.Printf("(cutoff %.0f ns) readouts %d, hits %d, relations %d, evicted %d, time: %d ms\n",
			r.Cutoff, r.Readouts, r.Hits, r.Relations, r.Evicted, r.Duration.Milliseconds())
	}
	duration := time.Since(start)
	fmt.Printf("Total time: %d ms\n", duration.Milliseconds())
}

type dbConnector func(user string, pass string, host string, dbname string) (*sqlx.DB, error)

// loadConditions reads the conditions of the configured run from the
// database, or uses the nominal ones when no_db is set.
func loadConditions(configuration *readout.Configuration, connect dbConnector) (*readout.ChannelCatalog, readout.CalibrationProvider, error) {
	if configuration.NoDB {
		return readout.LoadConditions(nil, configuration)
	}
	dbConn, err := connect(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
	if err != nil {
		return nil, nil, fmt.Errorf("Error connection to database: %w", err)
	}
	defer dbConn.Close()
	return readout.LoadConditions(dbConn, configuration)
}

func parseCutoffs(list string) ([]float64, error) {
	cutoffs := make([]float64, 0)
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff %q: %w", field, err)
		}
		cutoffs = append(cutoffs, value)
	}
	if len(cutoffs) == 0 {
		return nil, fmt.Errorf("no cutoffs given")
	}
	return cutoffs, nil
}

func readSubEvents(filename string, skip int, maxEvents int) ([]*readout.SubEvent, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("Error opening file: %w", err)
	}
	defer file.Close()

	subEvents := make([]*readout.SubEvent, 0)
	channel := make(chan *readout.SubEvent, 100)
	errs := make(chan error, 1)
	go func() {
		errs <- readout.SendSubEvents(context.Background(), readout.NewSubEventReader(file), channel, skip, maxEvents)
	}()
	for subEvent := range channel {
		subEvents = append(subEvents, subEvent)
	}
	return subEvents, <-errs
}

// sliceSource replays sub-events kept in memory.
type sliceSource struct {
	subEvents []*readout.SubEvent
	position  int
}

func (s *sliceSource) Next() (*readout.SubEvent, error) {
	if s.position >= len(s.subEvents) {
		return nil, io.EOF
	}
	subEvent := s.subEvents[s.position]
	s.position++
	return subEvent, nil
}

func scan(ctx context.Context, configuration readout.Configuration, catalog *readout.ChannelCatalog,
	calibrations readout.CalibrationProvider, subEvents []*readout.SubEvent, cutoffs []float64,
	numWorkers int) ([]ScanResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(numWorkers, 1))

	var mu sync.Mutex
	results := make([]ScanResult, 0, len(cutoffs))
	for _, cutoff := range cutoffs {
		config := configuration
		config.PileupCutoff = cutoff
		g.Go(func() error {
			result, err := runSetting(ctx, config, catalog, calibrations, subEvents)
			if err != nil {
				return fmt.Errorf("cutoff %.0f: %w", cutoff, err)
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b ScanResult) int {
		switch {
		case a.Cutoff < b.Cutoff:
			return -1
		case a.Cutoff > b.Cutoff:
			return 1
		}
		return 0
	})
	return results, nil
}

func runSetting(ctx context.Context, config readout.Configuration, catalog *readout.ChannelCatalog,
	calibrations readout.CalibrationProvider, subEvents []*readout.SubEvent) (ScanResult, error) {
	start := time.Now()
	clock := readout.NewSimClock(0)
	counter := &readout.CountingSink{}
	metrics := readout.NewMetrics(nil)
	orchestrator, err := readout.NewOrchestrator(config, catalog, calibrations, clock, nil, counter, metrics)
	if err != nil {
		return ScanResult{}, err
	}

	channel := make(chan *readout.SubEvent, 100)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		source := &sliceSource{subEvents: subEvents}
		return readout.SendSubEvents(ctx, source, channel, 0, len(subEvents))
	})
	g.Go(func() error {
		return readout.Simulate(ctx, orchestrator, clock, channel, config.SubEventSpacing)
	})
	if err := g.Wait(); err != nil {
		return ScanResult{}, err
	}

	return ScanResult{
		Cutoff:    config.PileupCutoff,
		Readouts:  counter.Readouts,
		Hits:      counter.Hits,
		Relations: counter.Relations,
		Evicted:   orchestrator.Evicted(),
		Duration:  time.Since(start),
	}, nil
}

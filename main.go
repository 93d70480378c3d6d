package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	sqlx "github.com/jmoiron/sqlx"
	readout "github.com/next-exp/stripreadout_go/pkg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

var configuration readout.Configuration

var (
	logger         readout.SlogLogger
	VerbosityLevel int
)

func init() {
	logger = readout.NewSlogLogger(os.Stdout, os.Stderr)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = readout.LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	readout.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	runID := uuid.New()
	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Run %d, id %s", configuration.RunNumber, runID), "main")
	}

	var dbConn *sqlx.DB
	if !configuration.NoDB {
		var err error
		dbConn, err = readout.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()
	}
	catalog, calibrations, err := readout.LoadConditions(dbConn, &configuration)
	if err != nil {
		return err
	}

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return fmt.Errorf("Error opening file: %w", err)
	}
	defer file.Close()

	sinks := readout.MultiSink{}
	if configuration.WriteData {
		writer, err := readout.NewHDF5Writer(configuration.FileOut, configuration, catalog, runID)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error(err.Error())
			}
		}()
		sinks = append(sinks, writer)
	}
	var monitor *readout.InfluxMonitor
	if configuration.Influx.Enabled {
		client := influxdb2.NewClient(configuration.Influx.URL, configuration.Influx.Token)
		defer client.Close()
		monitor = readout.NewInfluxMonitor(client.WriteAPIBlocking(configuration.Influx.Org, configuration.Influx.Bucket),
			runID, catalog)
		sinks = append(sinks, monitor)
	}
	counter := &readout.CountingSink{}
	sinks = append(sinks, counter)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := readout.NewMetrics(registry)

	clock := readout.NewSimClock(0)
	orchestrator, err := readout.NewOrchestrator(configuration, catalog, calibrations, clock, nil, sinks, metrics)
	if err != nil {
		return err
	}
	if monitor != nil {
		monitor.Occupancy = orchestrator
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	subEvents := make(chan *readout.SubEvent, 1000)
	g.Go(func() error {
		reader := readout.NewSubEventReader(file)
		return readout.SendSubEvents(ctx, reader, subEvents, configuration.Skip, configuration.MaxEvents)
	})

	start := time.Now()
	g.Go(func() error {
		if err := readout.Simulate(ctx, orchestrator, clock, subEvents, configuration.SubEventSpacing); err != nil {
			return err
		}
		// done, stop the metrics server
		cancel()
		return nil
	})

	if configuration.MetricsAddr != "" {
		server := &http.Server{
			Addr:    configuration.MetricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if VerbosityLevel > 0 {
		pulses, channels := orchestrator.Occupancy()
		message := fmt.Sprintf("Readouts: %d, raw hits: %d, truth relations: %d, buffered pulses: %d in %d channels",
			counter.Readouts, counter.Hits, counter.Relations, pulses, channels)
		logger.Info(message, "main")
		duration := time.Since(start)
		logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
	}
	return nil
}

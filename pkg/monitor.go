package readout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// OccupancyReporter reports the pulses and active channels in the pipelines.
type OccupancyReporter interface {
	Occupancy() (pulses int, channels int)
}

// InfluxMonitor sends a summary of every readout to InfluxDB: a "readout"
// point with the hit and relation counts and, when an OccupancyReporter is
// set, the pipeline occupancy; plus one "sensor_hits" point per sensor with
// hits.
type InfluxMonitor struct {
	WriteAPI  api.WriteAPIBlocking
	Occupancy OccupancyReporter
	runID     string
	catalog   *ChannelCatalog
	timeout   time.Duration
}

func NewInfluxMonitor(writeAPI api.WriteAPIBlocking, runID uuid.UUID, catalog *ChannelCatalog) *InfluxMonitor {
	return &InfluxMonitor{
		WriteAPI: writeAPI,
		runID:    runID.String(),
		catalog:  catalog,
		timeout:  5 * time.Second,
	}
}

func (m *InfluxMonitor) WriteReadout(readout *Readout) error {
	now := time.Now()
	tags := map[string]string{
		"run_id":   m.runID,
		"detector": m.catalog.Detector,
	}
	fields := map[string]interface{}{
		"readout":      readout.Number,
		"hits":         len(readout.Hits),
		"relations":    len(readout.Relations),
		"time":         readout.Time,
		"first_sample": readout.FirstSample,
	}
	if m.Occupancy != nil {
		pulses, channels := m.Occupancy.Occupancy()
		fields["buffered_pulses"] = pulses
		fields["active_channels"] = channels
	}
	points := []*write.Point{influxdb2.NewPoint("readout", tags, fields, now)}

	perSensor := make([]int, len(m.catalog.Sensors()))
	for _, hit := range readout.Hits {
		perSensor[hit.Key.Sensor]++
	}
	for id, hits := range perSensor {
		if hits == 0 {
			continue
		}
		sensorTags := map[string]string{
			"run_id":   m.runID,
			"detector": m.catalog.Detector,
			"sensor":   m.catalog.Sensor(SensorID(id)).Name,
		}
		points = append(points, influxdb2.NewPoint("sensor_hits", sensorTags,
			map[string]interface{}{"hits": hits}, now))
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.WriteAPI.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("error writing readout %d to influx: %w", readout.Number, err)
	}
	return nil
}

// MultiSink forwards every readout to all its sinks.
type MultiSink []Sink

func (s MultiSink) WriteReadout(readout *Readout) error {
	var errs []error
	for _, sink := range s {
		if err := sink.WriteReadout(readout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CountingSink keeps totals of the readouts it receives.
type CountingSink struct {
	Readouts  int
	Hits      int
	Relations int
}

func (s *CountingSink) WriteReadout(readout *Readout) error {
	s.Readouts++
	s.Hits += len(readout.Hits)
	s.Relations += len(readout.Relations)
	return nil
}

package readout

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// Sink receives every readout emitted by the simulation.
type Sink interface {
	WriteReadout(readout *Readout) error
}

// Orchestrator runs the readout simulation one sub-event at a time. In
// pileup mode pulses wait in per-channel pipelines until a trigger reads
// them out; in no-pileup mode every sub-event is read out immediately.
// It is not safe for concurrent use.
type Orchestrator struct {
	config       Configuration
	catalog      *ChannelCatalog
	calibrations []*ChannelCalibration
	shape        PulseShape
	deposition   *ChargeDeposition
	buffer       *PileupBuffer
	assembler    *Assembler
	filter       *QualityFilter
	clock        Clock
	sink         Sink
	metrics      *Metrics
	triggers     []TriggerSignal
	evicted      int
}

// NewOrchestrator validates the setup and allocates the pipelines. An unknown
// pulse shape or a catalogued channel without calibration is an error. When
// noise is enabled and noise is nil, a generator seeded with the configured
// seed is used. A nil metrics creates unregistered metrics.
func NewOrchestrator(config Configuration, catalog *ChannelCatalog, provider CalibrationProvider,
	clock Clock, noise NoiseSource, sink Sink, metrics *Metrics) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil || catalog.NChannels() == 0 {
		return nil, &ErrEmptyCatalog{Detector: config.Detector}
	}
	calibrations, err := resolveCalibrations(catalog, provider)
	if err != nil {
		return nil, err
	}
	shape, err := NewPulseShape(config.PulseShape, calibrations)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, errors.New("readout sink must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if !config.AddNoise {
		noise = nil
	} else if noise == nil {
		noise = NewGaussianNoise(config.RandomSeed)
	}

	o := &Orchestrator{
		config:       config,
		catalog:      catalog,
		calibrations: calibrations,
		shape:        shape,
		deposition:   NewChargeDeposition(catalog, calibrations, config.ChargeSpread),
		assembler:    NewAssembler(catalog, calibrations, shape, noise, config.SamplingInterval),
		filter:       NewQualityFilter(config),
		clock:        clock,
		sink:         sink,
		metrics:      metrics,
	}
	if !config.NoPileup {
		o.buffer = NewPileupBuffer(catalog.NChannels())
	}

	if config.Verbosity > 0 {
		message := fmt.Sprintf("Detector %s: %d sensors, %d channels, pulse shape %s",
			catalog.Detector, len(catalog.Sensors()), catalog.NChannels(), shape.Name())
		logger.Info(message, "orchestrator")
	}
	return o, nil
}

// Trigger queues a readout of the pipelines. It is read out once the clock
// reaches the trigger time plus the trigger delay. Ignored in no-pileup mode.
func (o *Orchestrator) Trigger(signal TriggerSignal) {
	if o.config.NoPileup {
		return
	}
	// keep the queue ordered by time, equal times in arrival order
	i, _ := slices.BinarySearchFunc(o.triggers, signal.Time, func(t TriggerSignal, target float64) int {
		if t.Time <= target {
			return -1
		}
		return 1
	})
	o.triggers = slices.Insert(o.triggers, i, signal)
}

// ReadoutDeltaT returns the time of the first sample of a trigger at triggerTime.
func (o *Orchestrator) ReadoutDeltaT(triggerTime float64) float64 {
	return FirstSampleTime(triggerTime+o.config.TriggerDelay, o.config.ReadoutLatency,
		o.config.ReadoutOffset, o.config.SamplingInterval)
}

// ProcessSubEvent deposits the charge of a sub-event, then either reads it
// out immediately (no-pileup) or adds it to the pipelines, drops stale
// pulses and reads out the triggers that are due.
func (o *Orchestrator) ProcessSubEvent(subEvent *SubEvent) error {
	o.metrics.SubEvents.Inc()
	now := o.clock.Time()

	for i := range subEvent.Hits {
		if err := o.deposition.Deposit(&subEvent.Hits[i]); err != nil {
			o.dropDeposit(subEvent, &subEvent.Hits[i], err)
		}
	}
	pulses, err := o.deposition.Extract(now)
	if err != nil {
		return fmt.Errorf("sub-event %d: %w", subEvent.Number, err)
	}
	o.metrics.PulsesCreated.Add(float64(len(pulses)))
	if o.config.Verbosity > 1 {
		message := fmt.Sprintf("Sub-event %d at %.1f ns: %d truth hits, %d pulses",
			subEvent.Number, now, len(subEvent.Hits), len(pulses))
		logger.Info(message, "orchestrator")
	}

	if o.config.NoPileup {
		return o.readoutImmediate(subEvent.Number, now, pulses)
	}

	for _, pulse := range pulses {
		o.buffer.Insert(pulse)
	}
	evicted := o.buffer.Evict(o.evictionCutoff(now))
	o.evicted += evicted
	o.metrics.PulsesEvicted.Add(float64(evicted))
	o.updateOccupancy()

	for len(o.triggers) > 0 && o.triggers[0].Time+o.config.TriggerDelay <= now {
		signal := o.triggers[0]
		o.triggers = o.triggers[1:]
		if err := o.readoutTriggered(signal); err != nil {
			return err
		}
	}
	return nil
}

// Flush reads out the triggers still waiting for their delay to pass.
func (o *Orchestrator) Flush() error {
	for len(o.triggers) > 0 {
		signal := o.triggers[0]
		o.triggers = o.triggers[1:]
		if err := o.readoutTriggered(signal); err != nil {
			return err
		}
	}
	return nil
}

// PendingTriggers returns the number of triggers not yet read out.
func (o *Orchestrator) PendingTriggers() int {
	return len(o.triggers)
}

// Occupancy returns the number of buffered pulses and of channels holding them.
func (o *Orchestrator) Occupancy() (pulses int, channels int) {
	if o.buffer == nil {
		return 0, 0
	}
	return o.buffer.Len(), o.buffer.ActiveChannels()
}

// Evicted returns the number of pulses dropped from the pipelines so far.
func (o *Orchestrator) Evicted() int {
	return o.evicted
}

func (o *Orchestrator) evictionCutoff(now float64) float64 {
	return now - (o.config.ReadoutLatency + o.config.PileupCutoff)
}

func (o *Orchestrator) updateOccupancy() {
	pulses, channels := o.Occupancy()
	o.metrics.BufferedPulses.Set(float64(pulses))
	o.metrics.ActiveChannels.Set(float64(channels))
}

func (o *Orchestrator) dropDeposit(subEvent *SubEvent, hit *TruthHit, err error) {
	var unknownSensor *ErrUnknownSensor
	var outOfRange *ErrChannelOutOfRange
	reason := DropInvalidDeposit
	switch {
	case errors.As(err, &unknownSensor):
		reason = DropUnknownSensor
	case errors.As(err, &outOfRange):
		reason = DropChannelOutOfRange
	}
	o.metrics.DepositsDropped.WithLabelValues(reason).Inc()
	if o.config.Verbosity > 1 {
		message := fmt.Sprintf("sub-event %d: dropping truth hit %d: %v", subEvent.Number, hit.ID, err)
		logger.Error(message)
	}
}

func (o *Orchestrator) readoutTriggered(signal TriggerSignal) error {
	start := time.Now()
	triggerTime := signal.Time + o.config.TriggerDelay
	firstSample := FirstSampleTime(triggerTime, o.config.ReadoutLatency,
		o.config.ReadoutOffset, o.config.SamplingInterval)
	readout := &Readout{
		Number:      signal.Number,
		Time:        triggerTime,
		FirstSample: firstSample,
	}

	for ch := 0; ch < o.catalog.NChannels(); ch++ {
		channel := ChannelID(ch)
		if !o.config.AddNoise && o.buffer.IsEmpty(channel) {
			continue
		}
		digitization := o.assembler.AssembleTriggered(channel, o.buffer.Pulses(channel), firstSample)
		o.emit(readout, digitization)
	}

	o.metrics.Triggers.Inc()
	o.metrics.ReadoutDuration.Observe(time.Since(start).Seconds())
	return o.write(readout)
}

func (o *Orchestrator) readoutImmediate(number int64, now float64, pulses []PulseRecord) error {
	start := time.Now()
	readout := &Readout{
		Number:      number,
		Time:        now,
		FirstSample: now - o.config.TimeOffset,
	}
	for _, pulse := range pulses {
		digitization := o.assembler.AssembleImmediate(pulse, o.config.TimeOffset)
		o.emit(readout, digitization)
	}
	o.metrics.ReadoutDuration.Observe(time.Since(start).Seconds())
	return o.write(readout)
}

func (o *Orchestrator) emit(readout *Readout, digitization Digitization) {
	o.metrics.HitsAssembled.Inc()
	calibration := o.calibrations[digitization.Channel]
	cut := o.filter.Apply(&digitization, calibration)
	if cut != CutNone {
		o.metrics.HitsRejected.WithLabelValues(cut.String()).Inc()
		if o.config.Verbosity > 2 {
			message := fmt.Sprintf("Channel %s failed %s cut: %v",
				o.catalog.Describe(digitization.Channel), cut, digitization.Samples)
			logger.Info(message, "orchestrator")
		}
		return
	}

	index := len(readout.Hits)
	readout.Hits = append(readout.Hits, digitization)
	for _, truthHit := range digitization.Hits {
		readout.Relations = append(readout.Relations, Relation{Hit: index, TruthHit: truthHit})
	}
	o.metrics.HitsEmitted.Inc()
	o.metrics.Relations.Add(float64(len(digitization.Hits)))
}

func (o *Orchestrator) write(readout *Readout) error {
	if o.config.Verbosity > 0 {
		message := fmt.Sprintf("Readout %d: made %d raw hits, %d truth relations",
			readout.Number, len(readout.Hits), len(readout.Relations))
		logger.Info(message, "orchestrator")
	}
	if err := o.sink.WriteReadout(readout); err != nil {
		return fmt.Errorf("error writing readout %d: %w", readout.Number, err)
	}
	return nil
}

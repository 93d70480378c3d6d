package readout

// TruthHit is a simulated energy deposit in a sensor.
type TruthHit struct {
	ID       uint64  `msgpack:"id"`
	Sensor   string  `msgpack:"sensor"`
	U        float64 `msgpack:"u"`    // position across the strips, in strip pitch units
	Time     float64 `msgpack:"time"` // ns, relative to the sub-event
	Edep     float64 `msgpack:"edep"` // GeV
	Particle int32   `msgpack:"particle"`
}

// SubEvent is one bunch crossing worth of truth hits. Trigger marks the
// sub-events that fire the external trigger.
type SubEvent struct {
	Number  int64      `msgpack:"number"`
	Hits    []TruthHit `msgpack:"hits"`
	Trigger bool       `msgpack:"trigger"`
}

// PulseRecord is the analog pulse produced on one channel by one sub-event.
type PulseRecord struct {
	Channel   ChannelID
	Amplitude float64
	Time      float64 // ns, absolute
	Hits      []uint64
}

// Digitization is the sampled shaper output of one channel.
type Digitization struct {
	Channel ChannelID
	Key     ChannelKey
	Samples [NSamples]int16
	Hits    []uint64
}

// Relation links the digitization at index Hit of a Readout to a truth hit.
type Relation struct {
	Hit      int
	TruthHit uint64
}

// Readout is everything emitted for one trigger (or one sub-event in
// no-pileup mode).
type Readout struct {
	Number      int64
	Time        float64
	FirstSample float64
	Hits        []Digitization
	Relations   []Relation
}

// TriggerSignal asks for a readout of the pipelines at Time.
type TriggerSignal struct {
	Number int64
	Time   float64
}

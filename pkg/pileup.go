package readout

import (
	"container/heap"

	"golang.org/x/exp/slices"
)

type queuedPulse struct {
	pulse PulseRecord
	seq   uint64
}

func earlier(a, b *queuedPulse) bool {
	if a.pulse.Time != b.pulse.Time {
		return a.pulse.Time < b.pulse.Time
	}
	return a.seq < b.seq
}

// pulseQueue is a min-heap of pulses ordered by time, then insertion order.
type pulseQueue []queuedPulse

func (q pulseQueue) Len() int           { return len(q) }
func (q pulseQueue) Less(i, j int) bool { return earlier(&q[i], &q[j]) }
func (q pulseQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *pulseQueue) Push(x any) {
	*q = append(*q, x.(queuedPulse))
}

func (q *pulseQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = queuedPulse{}
	*q = old[:n-1]
	return item
}

// PileupBuffer keeps, for every channel, the pulses still able to contribute
// to a readout. Queues are allocated on first insert and released when they
// become empty. There is no capacity limit.
type PileupBuffer struct {
	queues []*pulseQueue
	seq    uint64
	size   int
	active int
}

func NewPileupBuffer(nChannels int) *PileupBuffer {
	return &PileupBuffer{queues: make([]*pulseQueue, nChannels)}
}

func (b *PileupBuffer) Insert(pulse PulseRecord) {
	queue := b.queues[pulse.Channel]
	if queue == nil {
		queue = &pulseQueue{}
		b.queues[pulse.Channel] = queue
		b.active++
	}
	heap.Push(queue, queuedPulse{pulse: pulse, seq: b.seq})
	b.seq++
	b.size++
}

func (b *PileupBuffer) IsEmpty(ch ChannelID) bool {
	return b.queues[ch] == nil
}

// Peek returns the earliest pulse of a channel.
func (b *PileupBuffer) Peek(ch ChannelID) (PulseRecord, bool) {
	queue := b.queues[ch]
	if queue == nil {
		return PulseRecord{}, false
	}
	return (*queue)[0].pulse, true
}

// PopEarliest removes and returns the earliest pulse of a channel.
func (b *PileupBuffer) PopEarliest(ch ChannelID) (PulseRecord, bool) {
	queue := b.queues[ch]
	if queue == nil {
		return PulseRecord{}, false
	}
	item := heap.Pop(queue).(queuedPulse)
	b.size--
	if queue.Len() == 0 {
		b.queues[ch] = nil
		b.active--
	}
	return item.pulse, true
}

// EvictOlderThan drops the pulses of a channel with time < cutoff and
// returns how many were dropped.
func (b *PileupBuffer) EvictOlderThan(ch ChannelID, cutoff float64) int {
	evicted := 0
	for {
		pulse, ok := b.Peek(ch)
		if !ok || pulse.Time >= cutoff {
			return evicted
		}
		b.PopEarliest(ch)
		evicted++
	}
}

// Evict runs EvictOlderThan on every channel.
func (b *PileupBuffer) Evict(cutoff float64) int {
	evicted := 0
	for ch, queue := range b.queues {
		if queue != nil {
			evicted += b.EvictOlderThan(ChannelID(ch), cutoff)
		}
	}
	return evicted
}

// Pulses returns the live pulses of a channel, ascending in time.
func (b *PileupBuffer) Pulses(ch ChannelID) []PulseRecord {
	queue := b.queues[ch]
	if queue == nil {
		return nil
	}
	items := slices.Clone(*queue)
	slices.SortFunc(items, func(a, b queuedPulse) int {
		switch {
		case earlier(&a, &b):
			return -1
		case earlier(&b, &a):
			return 1
		default:
			return 0
		}
	})
	pulses := make([]PulseRecord, len(items))
	for i := range items {
		pulses[i] = items[i].pulse
	}
	return pulses
}

// Len returns the number of buffered pulses over all channels.
func (b *PileupBuffer) Len() int {
	return b.size
}

// ActiveChannels returns the number of channels with buffered pulses.
func (b *PileupBuffer) ActiveChannels() int {
	return b.active
}

func (b *PileupBuffer) NChannels() int {
	return len(b.queues)
}

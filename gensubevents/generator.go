package main

import (
	"math"
	"math/rand/v2"

	readout "github.com/next-exp/stripreadout_go/pkg"
)

// mipEdep is the most probable energy deposit of a MIP, in GeV.
const mipEdep = readout.MIP * readout.PairEnergy

type Generator struct {
	sensors      []readout.SensorInfo
	rng          *rand.Rand
	hitsPerEvent float64
	triggerEvery int
	bunchLength  float64
	nextID       uint64
}

func NewGenerator(sensors []readout.SensorInfo, seed uint64, hitsPerEvent float64, triggerEvery int) *Generator {
	return &Generator{
		sensors:      sensors,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		hitsPerEvent: hitsPerEvent,
		triggerEvery: triggerEvery,
		bunchLength:  2.0,
	}
}

// poisson draws from a Poisson distribution with the given mean.
func (g *Generator) poisson(mean float64) int {
	if mean <= 0 {
		return 0
	}
	limit := math.Exp(-mean)
	n := 0
	p := g.rng.Float64()
	for p > limit {
		n++
		p *= g.rng.Float64()
	}
	return n
}

// Next returns sub-event number. Every hit is a particle crossing one random
// sensor; every triggerEvery-th sub-event is flagged as a trigger.
func (g *Generator) Next(number int64) *readout.SubEvent {
	nHits := g.poisson(g.hitsPerEvent)
	subEvent := &readout.SubEvent{
		Number: number,
		Hits:   make([]readout.TruthHit, 0, nHits),
	}
	if g.triggerEvery > 0 && number%int64(g.triggerEvery) == 0 {
		subEvent.Trigger = true
	}
	for i := 0; i < nHits; i++ {
		sensor := g.sensors[g.rng.IntN(len(g.sensors))]
		g.nextID++
		subEvent.Hits = append(subEvent.Hits, readout.TruthHit{
			ID:       g.nextID,
			Sensor:   sensor.Name,
			U:        g.rng.Float64() * float64(sensor.NStrips),
			Time:     g.rng.Float64() * g.bunchLength,
			Edep:     mipEdep * (1 + 0.3*math.Abs(g.rng.NormFloat64())),
			Particle: 11,
		})
	}
	return subEvent
}

package trend

import (
	"math/rand/v2"
	"time"

	"pmwatch/internal/reading"
)

// Walker produces a bounded random walk of readings, one per call, for the
// sensor simulator.
type Walker struct {
	rng  *rand.Rand
	last reading.Reading
}

// NewWalker starts the walk at a random point inside the generator bounds.
func NewWalker(rng *rand.Rand) *Walker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Walker{
		rng: rng,
		last: reading.Reading{
			PM25:        PM25Bounds.draw(rng),
			Temperature: TemperatureBounds.draw(rng),
			Humidity:    HumidityBounds.draw(rng),
		},
	}
}

// Next returns the next reading stamped with t.
func (w *Walker) Next(t time.Time) reading.Reading {
	step := func(b Bounds, v, maxStep float64) float64 {
		return b.clamp(v + (w.rng.Float64()*2-1)*maxStep)
	}
	w.last = reading.Reading{
		Timestamp:   reading.Timestamp{Time: t},
		PM25:        step(PM25Bounds, w.last.PM25, 5),
		Temperature: step(TemperatureBounds, w.last.Temperature, 0.5),
		Humidity:    step(HumidityBounds, w.last.Humidity, 1.5),
	}
	return w.last
}

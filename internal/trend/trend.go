// Package trend generates synthetic hourly sensor series for the trend
// dashboard and the sensor simulator.
package trend

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/markcheno/go-talib"

	"pmwatch/internal/reading"
)

// Window is the trailing moving-average window applied to every series.
const Window = 3

// ErrInvalidRange is returned when the start date is after the end date.
var ErrInvalidRange = errors.New("start date must not be after end date")

// Bounds is the closed interval a generated metric is drawn from.
type Bounds struct {
	Min, Max float64
}

var (
	PM25Bounds        = Bounds{Min: 10, Max: 150}
	TemperatureBounds = Bounds{Min: 22, Max: 38}
	HumidityBounds    = Bounds{Min: 40, Max: 90}
)

func (b Bounds) draw(rng *rand.Rand) float64 {
	return b.Min + rng.Float64()*(b.Max-b.Min)
}

func (b Bounds) clamp(v float64) float64 {
	return min(max(v, b.Min), b.Max)
}

// Series is a generated hourly sequence covering the wall-clock hours from
// Start 00:00 to End 23:00.
type Series struct {
	Start    time.Time         `json:"start"`
	End      time.Time         `json:"end"`
	Readings []reading.Reading `json:"readings"`
}

type rangeKey struct {
	start, end string
}

// Generator produces and memoizes series per (start, end) date pair. It is
// safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	cache map[rangeKey]Series
}

// NewGenerator returns a Generator drawing from rng, or from a randomly
// seeded source when rng is nil.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		rng:   rng,
		cache: make(map[rangeKey]Series),
	}
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateRange reports ErrInvalidRange when start falls on a later day than end.
func ValidateRange(start, end time.Time) error {
	if Day(start).After(Day(end)) {
		return ErrInvalidRange
	}
	return nil
}

// Fetch returns the series for the days start..end inclusive. Calls with
// the same dates return the same values for the lifetime of the Generator.
// The returned slice is a copy.
func (g *Generator) Fetch(start, end time.Time) (Series, error) {
	if err := ValidateRange(start, end); err != nil {
		return Series{}, err
	}
	start, end = Day(start), Day(end)
	key := rangeKey{start: start.Format(time.DateOnly), end: end.Format(time.DateOnly)}

	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.cache[key]
	if !ok {
		s = g.generate(start, end)
		g.cache[key] = s
	}
	s.Readings = slices.Clone(s.Readings)
	return s, nil
}

func (g *Generator) generate(start, end time.Time) Series {
	times := Hours(start, end)
	n := len(times)

	pm := make([]float64, n)
	temp := make([]float64, n)
	hum := make([]float64, n)
	for i := range pm {
		pm[i] = PM25Bounds.draw(g.rng)
	}
	for i := range temp {
		temp[i] = TemperatureBounds.draw(g.rng)
	}
	for i := range hum {
		hum[i] = HumidityBounds.draw(g.rng)
	}
	pm, temp, hum = Smooth(pm, Window), Smooth(temp, Window), Smooth(hum, Window)

	readings := make([]reading.Reading, n)
	for i, t := range times {
		readings[i] = reading.Reading{
			Timestamp:   reading.Timestamp{Time: t},
			PM25:        pm[i],
			Temperature: temp[i],
			Humidity:    hum[i],
		}
	}
	return Series{Start: start, End: end, Readings: readings}
}

// Hours lists the wall-clock hours 00:00 through 23:00 of every day from
// start's date to end's date, in start's location. An hour skipped by a
// daylight-saving jump is left out, so the result is strictly increasing.
func Hours(start, end time.Time) []time.Time {
	loc := start.Location()
	last := Day(end.In(loc))
	var out []time.Time
	for d := Day(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		y, m, dd := d.Date()
		for h := range 24 {
			t := time.Date(y, m, dd, h, 0, 0, 0, loc)
			if t.Hour() != h {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// Smooth applies a trailing mean over window samples. The first window-1
// outputs average however many samples exist so far.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || window <= 1 {
		copy(out, values)
		return out
	}

	var sum float64
	for i := 0; i < window-1 && i < len(values); i++ {
		sum += values[i]
		out[i] = sum / float64(i+1)
	}
	if len(values) >= window {
		sma := talib.Sma(values, window)
		copy(out[window-1:], sma[window-1:])
	}
	return out
}

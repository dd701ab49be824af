// Package quality derives display values from readings: the AQI badge for a
// PM2.5 level and the change between consecutive samples.
package quality

import (
	"fmt"

	"pmwatch/internal/reading"
)

// Upper bounds (inclusive) of the PM2.5 categories, in µg/m³.
const (
	GoodMax     = 37.5
	ModerateMax = 75.0
)

type Category int

const (
	Good Category = iota
	Moderate
	Unhealthy
)

// Badge maps a PM2.5 level to its category. A value on a boundary belongs to
// the safer category.
func Badge(pm25 float64) Category {
	switch {
	case pm25 <= GoodMax:
		return Good
	case pm25 <= ModerateMax:
		return Moderate
	default:
		return Unhealthy
	}
}

func (c Category) String() string {
	switch c {
	case Good:
		return "Good"
	case Moderate:
		return "Moderate"
	case Unhealthy:
		return "Unhealthy"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Class is the CSS class used for the badge.
func (c Category) Class() string {
	switch c {
	case Good:
		return "good"
	case Moderate:
		return "moderate"
	default:
		return "unhealthy"
	}
}

// Color is the badge colour as a hex string without '#'.
func (c Category) Color() string {
	switch c {
	case Good:
		return "2e9e44"
	case Moderate:
		return "e0a800"
	default:
		return "d62d20"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	for _, known := range []Category{Good, Moderate, Unhealthy} {
		if string(b) == known.String() {
			*c = known
			return nil
		}
	}
	return fmt.Errorf("unknown air quality category %q", b)
}

// Delta is latest minus previous, per metric.
type Delta struct {
	PM25        float64 `json:"pm2.5"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

func Deltas(latest, previous reading.Reading) Delta {
	return Delta{
		PM25:        latest.PM25 - previous.PM25,
		Temperature: latest.Temperature - previous.Temperature,
		Humidity:    latest.Humidity - previous.Humidity,
	}
}

// Summary is what the metric cards show for a sequence of readings.
type Summary struct {
	Latest   reading.Reading `json:"latest"`
	Previous reading.Reading `json:"previous"`
	Delta    Delta           `json:"delta"`
	Badge    Category        `json:"badge"`
	PM25Mean float64         `json:"pm25Mean"`
	PM25Max  float64         `json:"pm25Max"`
	Count    int             `json:"count"`
}

// Summarize builds the card values for readings ordered oldest first. With a
// single reading the deltas are zero. ok is false for an empty slice.
func Summarize(readings []reading.Reading) (s Summary, ok bool) {
	if len(readings) == 0 {
		return Summary{}, false
	}
	latest := readings[len(readings)-1]
	previous := latest
	if len(readings) > 1 {
		previous = readings[len(readings)-2]
	}

	var sum float64
	pmMax := readings[0].PM25
	for _, r := range readings {
		sum += r.PM25
		pmMax = max(pmMax, r.PM25)
	}

	return Summary{
		Latest:   latest,
		Previous: previous,
		Delta:    Deltas(latest, previous),
		Badge:    Badge(latest.PM25),
		PM25Mean: sum / float64(len(readings)),
		PM25Max:  pmMax,
		Count:    len(readings),
	}, true
}

// FormatDelta renders a delta with an explicit sign and one decimal.
func FormatDelta(d float64) string {
	if d > -0.05 && d < 0.05 {
		return "0.0"
	}
	return fmt.Sprintf("%+.1f", d)
}

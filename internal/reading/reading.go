// Package reading defines the sensor sample carried on the wire and shown on
// both dashboards.
package reading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// ErrMalformed is returned by Decode for payloads that cannot become a Reading.
var ErrMalformed = errors.New("malformed reading")

// Reading is one sensor sample. The JSON keys match what the field sensors publish.
type Reading struct {
	Timestamp   Timestamp `json:"timestamp"`
	PM25        float64   `json:"pm2.5"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// wire mirrors Reading with pointers so absent keys can be told apart from zeros.
type wire struct {
	Timestamp   *Timestamp `json:"timestamp"`
	PM25        *float64   `json:"pm2.5"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
}

// Decode parses one UTF-8 JSON payload. Every key is required.
func Decode(payload []byte) (Reading, error) {
	if !utf8.Valid(payload) {
		return Reading{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}

	var w wire
	if err := json.Unmarshal(payload, &w); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch {
	case w.Timestamp == nil:
		return Reading{}, fmt.Errorf("%w: timestamp is required", ErrMalformed)
	case w.PM25 == nil:
		return Reading{}, fmt.Errorf("%w: pm2.5 is required", ErrMalformed)
	case w.Temperature == nil:
		return Reading{}, fmt.Errorf("%w: temperature is required", ErrMalformed)
	case w.Humidity == nil:
		return Reading{}, fmt.Errorf("%w: humidity is required", ErrMalformed)
	}

	return Reading{
		Timestamp:   *w.Timestamp,
		PM25:        *w.PM25,
		Temperature: *w.Temperature,
		Humidity:    *w.Humidity,
	}, nil
}

// Encode is the inverse of Decode.
func Encode(r Reading) ([]byte, error) {
	return json.Marshal(r)
}

// Timestamp accepts the formats seen from sensor firmware: RFC 3339, a
// zone-less "2006-01-02 15:04:05" (or with a T) read as local time, or a Unix
// epoch as a JSON number in seconds or milliseconds. It always encodes as
// RFC 3339.
type Timestamp struct {
	time.Time
}

const (
	// Numbers at or above this are epoch milliseconds (seconds would be past year 5000).
	millisThreshold = 1e11
	// 9999-12-31T23:59:59Z
	maxUnixSeconds = 253402300799
)

var zonelessLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return errors.New("empty timestamp")
	}

	if b[0] != '"' {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		if math.Abs(secs) >= millisThreshold {
			secs /= 1000
		}
		if secs < 0 || secs > maxUnixSeconds {
			return fmt.Errorf("timestamp %s: out of range", b)
		}
		whole, frac := math.Modf(secs)
		t.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unsupported format", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

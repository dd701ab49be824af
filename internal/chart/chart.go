// Package chart renders the dashboard time-series charts as SVG.
package chart

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 360
)

// ErrMismatchedSeries is returned when a series has a different number of
// timestamps and values.
var ErrMismatchedSeries = errors.New("series times and values differ in length")

// Series is one named line on a chart. Color is a hex string without '#'.
type Series struct {
	Name   string
	Color  string
	Times  []time.Time
	Values []float64
}

// Options controls the chart frame.
type Options struct {
	Title      string
	YLabel     string
	Width      int
	Height     int
	TimeFormat string
	// Placeholder is shown instead of the chart when there is nothing to plot.
	Placeholder string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.TimeFormat == "" {
		o.TimeFormat = "01-02 15:04"
	}
	if o.Placeholder == "" {
		o.Placeholder = "Not enough data to plot yet"
	}
	return o
}

// Line writes a multi-series line chart with a legend.
func Line(w io.Writer, opts Options, series ...Series) error {
	return render(w, opts, false, series)
}

// Area writes a single series filled down to the axis.
func Area(w io.Writer, opts Options, s Series) error {
	return render(w, opts, true, []Series{s})
}

func render(w io.Writer, opts Options, fill bool, series []Series) error {
	opts = opts.withDefaults()

	for _, s := range series {
		if len(s.Times) != len(s.Values) {
			return fmt.Errorf("%w: %q has %d times and %d values", ErrMismatchedSeries, s.Name, len(s.Times), len(s.Values))
		}
	}
	lo, hi, ok := plottable(series)
	if !ok {
		return Placeholder(w, opts.Width, opts.Height, opts.Placeholder)
	}

	out := make([]gochart.Series, 0, len(series))
	for _, s := range series {
		style := gochart.Style{StrokeWidth: 2}
		if s.Color != "" {
			c := drawing.ColorFromHex(s.Color)
			style.StrokeColor = c
			if fill {
				style.FillColor = c.WithAlpha(80)
			}
		}
		out = append(out, gochart.TimeSeries{
			Name:    s.Name,
			XValues: s.Times,
			YValues: s.Values,
			Style:   style,
		})
	}

	// go-chart cannot scale a zero-height range.
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	if fill {
		lo = math.Min(lo, 0)
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(opts.TimeFormat),
		},
		YAxis: gochart.YAxis{
			Name:  opts.YLabel,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: out,
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	if err := ch.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render %q chart: %w", opts.Title, err)
	}
	return nil
}

// plottable reports the value range across all series, or false when no
// series has at least two points spread over a non-zero time span.
func plottable(series []Series) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if len(s.Times) < 2 {
			return 0, 0, false
		}
		first, last := s.Times[0], s.Times[0]
		for i, t := range s.Times {
			if t.Before(first) {
				first = t
			}
			if t.After(last) {
				last = t
			}
			lo = math.Min(lo, s.Values[i])
			hi = math.Max(hi, s.Values[i])
		}
		if !last.After(first) {
			return 0, 0, false
		}
	}
	if len(series) == 0 || math.IsInf(lo, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return 0, 0, false
	}
	return lo, hi, true
}

// Placeholder writes a blank SVG frame carrying msg.
func Placeholder(w io.Writer, width, height int, msg string) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<rect width="100%%" height="100%%" fill="#fafafa" stroke="#dddddd"/>`+
			`<text x="50%%" y="50%%" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="14" fill="#888888">%s</text>`+
			`</svg>`,
		width, height, width, height, html.EscapeString(msg))
	return err
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"pmwatch/internal/buffer"
	"pmwatch/internal/chart"
	"pmwatch/internal/quality"
	"pmwatch/internal/reading"
)

// ErrStopped is returned to callers once the loop has exited.
var ErrStopped = errors.New("render loop stopped")

// Connector is the broker session the loop drives.
type Connector interface {
	Connect(ctx context.Context) error
	IsConnected() bool
}

// Frame is one rendered state of the dashboard. Frames are immutable once
// published.
type Frame struct {
	Readings   []reading.Reading
	Summary    quality.Summary
	HasData    bool
	Connected  bool
	Topic      string
	Chart      []byte
	RenderedAt time.Time
}

type Options struct {
	Topic    string
	Capacity int
	Interval time.Duration
}

// Loop owns the reading buffer. Readings arrive on a channel and are folded
// into the buffer at the start of every cycle; handlers only ever see the
// last published Frame.
type Loop struct {
	conn     Connector
	in       <-chan reading.Reading
	buf      *buffer.Buffer
	topic    string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	connectCh chan chan error
	refreshCh chan chan struct{}
	done      chan struct{}

	frame atomic.Pointer[Frame]
}

func NewLoop(conn Connector, in <-chan reading.Reading, opts Options, logger *slog.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	l := &Loop{
		conn:      conn,
		in:        in,
		buf:       buffer.New(opts.Capacity),
		topic:     opts.Topic,
		interval:  opts.Interval,
		logger:    logger,
		now:       time.Now,
		connectCh: make(chan chan error),
		refreshCh: make(chan chan struct{}),
		done:      make(chan struct{}),
	}
	l.frame.Store(l.render())
	return l
}

// Run cycles until ctx is cancelled or a connect attempt fails. A failed
// connect is returned so the process can exit with it.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			l.cycle()

		case reply := <-l.refreshCh:
			l.cycle()
			close(reply)

		case reply := <-l.connectCh:
			if l.conn.IsConnected() {
				reply <- nil
				continue
			}
			l.logger.Info("connecting to broker", "topic", l.topic)
			if err := l.conn.Connect(ctx); err != nil {
				reply <- err
				return fmt.Errorf("connect to broker: %w", err)
			}
			reply <- nil
			l.cycle()
		}
	}
}

// Connect asks the loop to connect and subscribe, and waits for the outcome.
// It is a no-op when already connected.
func (l *Loop) Connect(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case l.connectCh <- reply:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh forces a render cycle and waits until its frame is published.
func (l *Loop) Refresh(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case l.refreshCh <- reply:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frame returns the most recently published frame. It is never nil.
func (l *Loop) Frame() *Frame {
	return l.frame.Load()
}

func (l *Loop) cycle() {
	if n := l.drain(); n > 0 {
		l.logger.Debug("folded readings into buffer", "count", n, "buffered", l.buf.Len())
	}
	l.frame.Store(l.render())
}

func (l *Loop) drain() int {
	n := 0
	for {
		select {
		case r, ok := <-l.in:
			if !ok {
				l.in = nil
				return n
			}
			l.buf.Push(r)
			n++
		default:
			return n
		}
	}
}

func (l *Loop) render() *Frame {
	readings := l.buf.Readings()
	summary, ok := quality.Summarize(readings)

	f := &Frame{
		Readings:   readings,
		Summary:    summary,
		HasData:    ok,
		Connected:  l.conn.IsConnected(),
		Topic:      l.topic,
		RenderedAt: l.now(),
	}

	var svg bytes.Buffer
	if err := renderChart(&svg, readings); err != nil {
		l.logger.Error("live chart render failed", "error", err)
		svg.Reset()
		_ = chart.Placeholder(&svg, chart.DefaultWidth, chart.DefaultHeight, "Chart unavailable")
	}
	f.Chart = svg.Bytes()
	return f
}

func renderChart(w *bytes.Buffer, readings []reading.Reading) error {
	times := make([]time.Time, len(readings))
	pm := make([]float64, len(readings))
	temp := make([]float64, len(readings))
	hum := make([]float64, len(readings))
	for i, r := range readings {
		times[i] = r.Timestamp.Time
		pm[i] = r.PM25
		temp[i] = r.Temperature
		hum[i] = r.Humidity
	}

	return chart.Line(w, chart.Options{
		Title:       fmt.Sprintf("Latest readings (%d points)", len(readings)),
		TimeFormat:  "15:04:05",
		Placeholder: "Waiting for sensor data",
	},
		chart.Series{Name: "PM2.5", Color: "e67e22", Times: times, Values: pm},
		chart.Series{Name: "Temperature", Color: "e74c3c", Times: times, Values: temp},
		chart.Series{Name: "Humidity", Color: "3498db", Times: times, Values: hum},
	)
}

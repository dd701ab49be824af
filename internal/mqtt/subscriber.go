package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"pmwatch/internal/config"
	"pmwatch/internal/reading"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber receives readings from the configured topic and hands them to
// the render loop through a bounded queue. It never reconnects on its own.
type Subscriber struct {
	*conn

	readings chan reading.Reading
	dropped  atomic.Uint64
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	size := cfg.IngestQueueSize
	if size <= 0 {
		size = 1
	}
	s := &Subscriber{
		conn:     newConn(cfg, logger),
		readings: make(chan reading.Reading, size),
	}

	opts := s.baseOptions()
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	s.client = paho.NewClient(opts)
	return s
}

// Readings is the queue of decoded readings awaiting the render loop.
func (s *Subscriber) Readings() <-chan reading.Reading {
	return s.readings
}

// Dropped counts readings evicted from a full queue.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Connect connects and subscribes to the configured topic. Calling it while
// already connected does nothing.
func (s *Subscriber) Connect(ctx context.Context) error {
	if s.IsConnected() {
		return nil
	}
	if err := s.connect(ctx); err != nil {
		return err
	}
	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		s.setConnected(false)
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (s *Subscriber) subscribe() error {
	topic := s.cfg.MQTTTopic
	const qos = byte(0)

	token := s.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	r, err := reading.Decode(payload)
	if err != nil {
		s.logger.Warn("dropping malformed reading",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}
	s.enqueue(r)
}

// enqueue never blocks paho's delivery goroutine. When the queue is full the
// oldest queued reading is discarded.
func (s *Subscriber) enqueue(r reading.Reading) {
	for {
		select {
		case s.readings <- r:
			return
		default:
		}

		select {
		case <-s.readings:
			n := s.dropped.Add(1)
			s.logger.Warn("ingest queue full, dropped oldest reading", "dropped_total", n)
		default:
		}
	}
}

// Disconnect unsubscribes and closes the connection. Idempotent.
func (s *Subscriber) Disconnect() {
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}
	s.disconnect()
	s.logger.Info("mqtt subscriber disconnected")
}

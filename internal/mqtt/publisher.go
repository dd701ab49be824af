package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pmwatch/internal/config"
	"pmwatch/internal/reading"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var ErrNotConnected = errors.New("mqtt client not connected")

// Publisher sends readings to the configured topic. Unlike Subscriber it
// retries and reconnects, since the simulator is expected to run unattended.
type Publisher struct {
	*conn
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	p := &Publisher{conn: newConn(cfg, logger)}

	opts := p.baseOptions()
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	p.client = paho.NewClient(opts)
	return p
}

// Connect waits for the initial connection, honouring ctx and Disconnect.
func (p *Publisher) Connect(ctx context.Context) error {
	if p.IsConnected() {
		return nil
	}
	return p.connect(ctx)
}

// Publish sends r in the sensor wire format at QoS 0.
func (p *Publisher) Publish(r reading.Reading) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	data, err := reading.Encode(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	topic := p.cfg.MQTTTopic
	token := p.client.Publish(topic, 0, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.Debug("published reading", "topic", topic, "pm2.5", r.PM25)
	return nil
}

// Disconnect closes the connection. Idempotent.
func (p *Publisher) Disconnect() {
	p.disconnect()
	p.logger.Info("mqtt publisher disconnected")
}

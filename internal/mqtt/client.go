// Package mqtt wraps paho for the live dashboard subscriber and the sensor
// simulator publisher.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pmwatch/internal/config"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var errStopped = errors.New("mqtt client stopped")

func brokerURL(cfg config.Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
}

// conn holds the state shared by Subscriber and Publisher.
type conn struct {
	client    paho.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newConn(cfg config.Config, logger *slog.Logger) *conn {
	return &conn{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (c *conn) baseOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL(c.cfg))
	opts.SetClientID(c.cfg.MQTTClientID)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(c.cfg.ConnectTimeout)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.setConnected(true)
		c.logger.Info("mqtt connected", "broker", c.cfg.MQTTBroker, "port", c.cfg.MQTTPort)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.setConnected(false)
		c.logger.Warn("mqtt connection lost", "error", err)
	})
	return opts
}

// connect starts a connect attempt and waits for it while honouring ctx and
// Disconnect.
func (c *conn) connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return errStopped
	default:
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect %s: %w", brokerURL(c.cfg), err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			c.client.Disconnect(0)
			return ctx.Err()
		case <-c.stopCh:
			c.client.Disconnect(0)
			return errStopped
		default:
		}
	}
}

// IsConnected returns whether the client is connected.
func (c *conn) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

func (c *conn) disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

func (c *conn) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

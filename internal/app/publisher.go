package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pmwatch/internal/config"
	"pmwatch/internal/mqtt"
	"pmwatch/internal/reading"
	"pmwatch/internal/trend"
)

// publisher is the part of mqtt.Publisher the simulator drives.
type publisher interface {
	Connect(ctx context.Context) error
	Publish(r reading.Reading) error
	Disconnect()
}

// RunPublisher publishes a simulated reading every PublishInterval until ctx
// is cancelled.
func RunPublisher(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"publishInterval", cfg.PublishInterval,
	)

	pub := mqtt.NewPublisher(cfg, slog.Default())
	return simulate(ctx, pub, trend.NewWalker(nil), cfg.PublishInterval, time.Now)
}

func simulate(ctx context.Context, pub publisher, walker *trend.Walker, interval time.Duration, now func() time.Time) error {
	defer pub.Disconnect()

	if err := pub.Connect(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r := walker.Next(now())
		if err := pub.Publish(r); err != nil {
			if errors.Is(err, mqtt.ErrNotConnected) {
				slog.Warn("publish skipped, broker not connected")
			} else {
				slog.Error("publish failed", "error", err)
			}
		} else {
			slog.Info("published reading", "pm2.5", r.PM25, "temperature", r.Temperature, "humidity", r.Humidity)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

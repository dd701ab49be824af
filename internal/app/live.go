package app

import (
	"context"
	"log/slog"

	"pmwatch/internal/buffer"
	"pmwatch/internal/config"
	httpapi "pmwatch/internal/httpapi"
	"pmwatch/internal/modules/live"
	"pmwatch/internal/modules/live/service"
	liveviews "pmwatch/internal/modules/live/views"
	"pmwatch/internal/mqtt"
)

// RunLive serves the live dashboard. It returns when ctx is cancelled or
// when connecting to the broker fails.
func RunLive(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"ingestQueueSize", cfg.IngestQueueSize,
		"refreshInterval", cfg.RefreshInterval,
	)

	if err := liveviews.LoadTemplates(); err != nil {
		return err
	}

	subscriber := mqtt.NewSubscriber(cfg, slog.Default())
	defer func() {
		slog.Info("mqtt disconnecting")
		subscriber.Disconnect()
	}()

	loop := service.NewLoop(subscriber, subscriber.Readings(), service.Options{
		Topic:    cfg.MQTTTopic,
		Capacity: buffer.Capacity,
		Interval: cfg.RefreshInterval,
	}, slog.Default())

	mux := httpapi.NewMux(subscriber)
	live.RegisterFeature(mux, loop, cfg.SiteName, cfg.RefreshInterval)
	srv := httpapi.NewServer(cfg, mux)

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()

	fatal := make(chan error, 1)
	go func() {
		if err := loop.Run(loopCtx); err != nil && loopCtx.Err() == nil {
			fatal <- err
		}
	}()

	return serve(ctx, srv, fatal)
}

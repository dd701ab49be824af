package app

import (
	"context"
	"log/slog"

	"pmwatch/internal/config"
	httpapi "pmwatch/internal/httpapi"
	trendmodule "pmwatch/internal/modules/trend"
	trendviews "pmwatch/internal/modules/trend/views"
	"pmwatch/internal/trend"
)

// RunTrend serves the synthetic trend dashboard until ctx is cancelled.
func RunTrend(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"trendMaxDays", cfg.TrendMaxDays,
	)

	if err := trendviews.LoadTemplates(); err != nil {
		return err
	}

	mux := httpapi.NewMux(nil)
	trendmodule.RegisterFeature(mux, trend.NewGenerator(nil), cfg.SiteName, cfg.TrendMaxDays)
	srv := httpapi.NewServer(cfg, mux)

	return serve(ctx, srv, nil)
}

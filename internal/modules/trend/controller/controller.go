package controller

import (
	"net/http"
	"time"

	"pmwatch/internal/trend"
)

// SeriesSource produces the hourly series for a date range.
type SeriesSource interface {
	Fetch(start, end time.Time) (trend.Series, error)
}

type TrendController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type trendControllerImpl struct {
	source   SeriesSource
	siteName string
	maxDays  int
	now      func() time.Time
}

func NewTrendController(source SeriesSource, siteName string, maxDays int) TrendController {
	return &trendControllerImpl{
		source:   source,
		siteName: siteName,
		maxDays:  maxDays,
		now:      time.Now,
	}
}

func (c *trendControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /charts/pm25.svg", c.handlePM25Chart)
	mux.HandleFunc("GET /charts/climate.svg", c.handleClimateChart)
	mux.HandleFunc("GET /api/v1/trend", c.handleTrend)
}

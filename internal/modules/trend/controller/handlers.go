package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pmwatch/internal/chart"
	"pmwatch/internal/modules/trend/views"
	"pmwatch/internal/quality"
	"pmwatch/internal/reading"
	"pmwatch/internal/trend"
	"pmwatch/internal/utils"
)

func (c *trendControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := &views.TrendData{
		Title:    views.Title,
		SiteName: c.siteName,
		Start:    r.URL.Query().Get("start"),
		End:      r.URL.Query().Get("end"),
	}
	status := http.StatusOK

	start, end, err := parseRangeQuery(r, c.now(), c.maxDays)
	switch {
	case errors.Is(err, trend.ErrInvalidRange):
		data.Warning = "The start date must not be after the end date."
	case err != nil:
		data.Warning = err.Error()
		status = http.StatusBadRequest
	default:
		data.Start, data.End = start.Format(time.DateOnly), end.Format(time.DateOnly)
		series, err := c.source.Fetch(start, end)
		if err != nil {
			slog.Error("trend: fetch series failed", "start", data.Start, "end", data.End, "error", err)
			utils.WriteError(w, http.StatusInternalServerError, "failed to generate series")
			return
		}
		if s, ok := quality.Summarize(series.Readings); ok {
			data.HasData = true
			data.Summary = s
			data.Cards = []views.Card{
				{Label: "PM2.5", Value: s.Latest.PM25, Unit: "µg/m³", Delta: s.Delta.PM25},
				{Label: "Temperature", Value: s.Latest.Temperature, Unit: "°C", Delta: s.Delta.Temperature},
				{Label: "Humidity", Value: s.Latest.Humidity, Unit: "%", Delta: s.Delta.Humidity},
			}
			q := rangeQuery(start, end)
			data.PM25ChartPath = "/charts/pm25.svg?" + q
			data.ClimateChartPath = "/charts/climate.svg?" + q
		}
	}

	if status != http.StatusOK {
		slog.Warn("trend: invalid range query", "query", r.URL.RawQuery, "error", err)
	}
	if err := utils.WriteRendered(w, status, "text/html; charset=utf-8", func(out io.Writer) error {
		return views.RenderTrend(out, data)
	}); err != nil {
		slog.Error("trend template render failed", "error", err)
	}
}

// fetch resolves the range query and writes a JSON error when it cannot.
func (c *trendControllerImpl) fetch(w http.ResponseWriter, r *http.Request) (trend.Series, bool) {
	start, end, err := parseRangeQuery(r, c.now(), c.maxDays)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return trend.Series{}, false
	}
	series, err := c.source.Fetch(start, end)
	if err != nil {
		slog.Error("trend: fetch series failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to generate series")
		return trend.Series{}, false
	}
	return series, true
}

func columns(readings []reading.Reading) (times []time.Time, pm, temp, hum []float64) {
	times = make([]time.Time, len(readings))
	pm = make([]float64, len(readings))
	temp = make([]float64, len(readings))
	hum = make([]float64, len(readings))
	for i, r := range readings {
		times[i] = r.Timestamp.Time
		pm[i] = r.PM25
		temp[i] = r.Temperature
		hum[i] = r.Humidity
	}
	return times, pm, temp, hum
}

func (c *trendControllerImpl) handlePM25Chart(w http.ResponseWriter, r *http.Request) {
	series, ok := c.fetch(w, r)
	if !ok {
		return
	}
	times, pm, _, _ := columns(series.Readings)

	color := quality.Good.Color()
	if len(pm) > 0 {
		color = quality.Badge(pm[len(pm)-1]).Color()
	}
	if err := utils.WriteRendered(w, http.StatusOK, "image/svg+xml", func(out io.Writer) error {
		return chart.Area(out, chart.Options{Title: "PM2.5 (3-hour mean)", YLabel: "µg/m³"},
			chart.Series{Name: "PM2.5", Color: color, Times: times, Values: pm})
	}); err != nil {
		slog.Error("trend: pm2.5 chart render failed", "error", err)
	}
}

func (c *trendControllerImpl) handleClimateChart(w http.ResponseWriter, r *http.Request) {
	series, ok := c.fetch(w, r)
	if !ok {
		return
	}
	times, _, temp, hum := columns(series.Readings)

	if err := utils.WriteRendered(w, http.StatusOK, "image/svg+xml", func(out io.Writer) error {
		return chart.Line(out, chart.Options{Title: "Temperature and humidity (3-hour mean)"},
			chart.Series{Name: "Temperature (°C)", Color: "e74c3c", Times: times, Values: temp},
			chart.Series{Name: "Humidity (%)", Color: "3498db", Times: times, Values: hum},
		)
	}); err != nil {
		slog.Error("trend: climate chart render failed", "error", err)
	}
}

type trendResponse struct {
	Start    string            `json:"start"`
	End      string            `json:"end"`
	Count    int               `json:"count"`
	Readings []reading.Reading `json:"readings"`
	Summary  quality.Summary   `json:"summary"`
}

func (c *trendControllerImpl) handleTrend(w http.ResponseWriter, r *http.Request) {
	series, ok := c.fetch(w, r)
	if !ok {
		return
	}
	s, _ := quality.Summarize(series.Readings)
	utils.WriteJSON(w, http.StatusOK, trendResponse{
		Start:    series.Start.Format(time.DateOnly),
		End:      series.End.Format(time.DateOnly),
		Count:    len(series.Readings),
		Readings: series.Readings,
		Summary:  s,
	})
}

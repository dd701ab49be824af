package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"pmwatch/internal/modules/live/service"
	"pmwatch/internal/modules/live/views"
	"pmwatch/internal/quality"
	"pmwatch/internal/reading"
	"pmwatch/internal/utils"
)

func (c *liveControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	f := c.session.Frame()
	data := &views.LiveData{
		Title:     views.Title,
		SiteName:  c.siteName,
		Topic:     f.Topic,
		Connected: f.Connected,
		Flash:     r.URL.Query().Get("flash"),
		HasData:   f.HasData,
		Readings:  f.Readings,
		ChartPath: fmt.Sprintf("/chart.svg?v=%d", f.RenderedAt.UnixNano()),
	}
	if f.Connected {
		data.RefreshSeconds = c.refreshSeconds
	}
	if f.HasData {
		s := f.Summary
		data.Cards = []views.Card{
			{Label: "PM2.5", Value: s.Latest.PM25, Unit: "µg/m³", Delta: s.Delta.PM25},
			{Label: "Temperature", Value: s.Latest.Temperature, Unit: "°C", Delta: s.Delta.Temperature},
			{Label: "Humidity", Value: s.Latest.Humidity, Unit: "%", Delta: s.Delta.Humidity},
		}
		data.Badge = s.Badge
		data.Latest = s.Latest
	}

	if err := utils.WriteRendered(w, http.StatusOK, "text/html; charset=utf-8", func(out io.Writer) error {
		return c.render(out, data)
	}); err != nil {
		slog.Error("live template render failed", "error", err)
	}
}

func (c *liveControllerImpl) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := c.session.Connect(r.Context()); err != nil {
		slog.Error("mqtt connect failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, service.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		utils.WriteError(w, status, "failed to connect to broker")
		return
	}

	topic := c.session.Frame().Topic
	flash := fmt.Sprintf("Connected to topic %s. Waiting for sensor data...", topic)
	http.Redirect(w, r, "/?flash="+url.QueryEscape(flash), http.StatusSeeOther)
}

func (c *liveControllerImpl) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := c.session.Refresh(r.Context()); err != nil {
		slog.Error("refresh failed", "error", err)
		utils.WriteError(w, http.StatusServiceUnavailable, "render loop is not running")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *liveControllerImpl) handleChart(w http.ResponseWriter, _ *http.Request) {
	f := c.session.Frame()
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(f.Chart); err != nil {
		slog.Error("chart: write response failed", "error", err)
	}
}

type readingsResponse struct {
	Topic     string            `json:"topic"`
	Connected bool              `json:"connected"`
	Count     int               `json:"count"`
	Readings  []reading.Reading `json:"readings"`
	Summary   *quality.Summary  `json:"summary,omitempty"`
}

func (c *liveControllerImpl) handleReadings(w http.ResponseWriter, _ *http.Request) {
	f := c.session.Frame()
	resp := readingsResponse{
		Topic:     f.Topic,
		Connected: f.Connected,
		Count:     len(f.Readings),
		Readings:  f.Readings,
	}
	if resp.Readings == nil {
		resp.Readings = []reading.Reading{}
	}
	if f.HasData {
		s := f.Summary
		resp.Summary = &s
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

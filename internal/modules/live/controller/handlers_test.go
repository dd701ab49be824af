package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pmwatch/internal/modules/live/service"
	"pmwatch/internal/modules/live/views"
	"pmwatch/internal/quality"
	"pmwatch/internal/reading"
)

type mockSession struct {
	frame      *service.Frame
	connectErr error
	refreshErr error
	connects   int
	refreshes  int
}

func (m *mockSession) Frame() *service.Frame { return m.frame }

func (m *mockSession) Connect(context.Context) error {
	m.connects++
	return m.connectErr
}

func (m *mockSession) Refresh(context.Context) error {
	m.refreshes++
	return m.refreshErr
}

func emptyFrame() *service.Frame {
	return &service.Frame{Topic: "leantech/tesaban6/pm1", Chart: []byte("<svg/>"), RenderedAt: time.Unix(0, 42)}
}

func dataFrame() *service.Frame {
	prev := reading.Reading{Timestamp: reading.Timestamp{Time: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}, PM25: 30, Temperature: 29, Humidity: 60}
	latest := reading.Reading{Timestamp: reading.Timestamp{Time: time.Date(2025, 3, 1, 9, 0, 5, 0, time.UTC)}, PM25: 40, Temperature: 29.5, Humidity: 58}
	readings := []reading.Reading{prev, latest}
	s, _ := quality.Summarize(readings)
	return &service.Frame{
		Readings:   readings,
		Summary:    s,
		HasData:    true,
		Connected:  true,
		Topic:      "leantech/tesaban6/pm1",
		Chart:      []byte("<svg>chart</svg>"),
		RenderedAt: time.Unix(0, 7),
	}
}

func newController(s Session) *liveControllerImpl {
	return NewLiveController(s, "Test School", 2*time.Second).(*liveControllerImpl)
}

func Test_handleDashboard(t *testing.T) {
	t.Run("returns 404 when path is not /", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame()})
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}

	t.Run("returns 500 and error body when render fails", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame()})
		ctrl.render = func(io.Writer, *views.LiveData) error { return errors.New("boom") }
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(rec.Body.String(), "failed to render response") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("empty buffer shows waiting notice", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame()})
		rec := httptest.NewRecorder()

		ctrl.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `id="waiting"`) {
			t.Errorf("body missing waiting notice")
		}
		if strings.Contains(body, "http-equiv") {
			t.Errorf("disconnected page should not auto refresh")
		}
	})

	t.Run("data renders cards chart and flash", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: dataFrame()})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/?flash="+url.QueryEscape("Connected!"), nil)

		ctrl.handleDashboard(rec, req)

		body := rec.Body.String()
		for _, want := range []string{"40.0", "Moderate", "/chart.svg?v=7", "Connected!", `content="2"`, "Test School"} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
	})
}

func Test_handleConnect(t *testing.T) {
	t.Run("redirects with flash on success", func(t *testing.T) {
		sess := &mockSession{frame: emptyFrame()}
		ctrl := newController(sess)
		rec := httptest.NewRecorder()

		ctrl.handleConnect(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusSeeOther)
		}
		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("parse Location: %v", err)
		}
		if loc.Path != "/" || !strings.Contains(loc.Query().Get("flash"), "leantech/tesaban6/pm1") {
			t.Errorf("Location = %q", loc)
		}
		if sess.connects != 1 {
			t.Errorf("connects = %d; want 1", sess.connects)
		}
	})

	t.Run("broker failure is 502", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame(), connectErr: errors.New("refused")})
		rec := httptest.NewRecorder()

		ctrl.handleConnect(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadGateway)
		}
	})

	t.Run("stopped loop is 503", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame(), connectErr: service.ErrStopped})
		rec := httptest.NewRecorder()

		ctrl.handleConnect(rec, httptest.NewRequest(http.MethodPost, "/connect", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusServiceUnavailable)
		}
	})
}

func Test_handleRefresh(t *testing.T) {
	sess := &mockSession{frame: emptyFrame()}
	ctrl := newController(sess)
	rec := httptest.NewRecorder()

	ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("status = %d Location = %q; want 303 to /", rec.Code, rec.Header().Get("Location"))
	}
	if sess.refreshes != 1 {
		t.Errorf("refreshes = %d; want 1", sess.refreshes)
	}

	sess.refreshErr = service.ErrStopped
	rec = httptest.NewRecorder()
	ctrl.handleRefresh(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", rec.Code)
	}
}

func Test_handleChart(t *testing.T) {
	ctrl := newController(&mockSession{frame: dataFrame()})
	rec := httptest.NewRecorder()

	ctrl.handleChart(rec, httptest.NewRequest(http.MethodGet, "/chart.svg", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != "<svg>chart</svg>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func Test_handleReadings(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: emptyFrame()})
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil))

		var body map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if items, ok := body["readings"].([]any); !ok || len(items) != 0 {
			t.Errorf("readings = %v; want empty array", body["readings"])
		}
		if _, ok := body["summary"]; ok {
			t.Errorf("summary present for empty buffer")
		}
	})

	t.Run("with data", func(t *testing.T) {
		ctrl := newController(&mockSession{frame: dataFrame()})
		rec := httptest.NewRecorder()

		ctrl.handleReadings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil))

		var body readingsResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Count != 2 || len(body.Readings) != 2 {
			t.Fatalf("count = %d len = %d; want 2", body.Count, len(body.Readings))
		}
		if body.Summary == nil || body.Summary.Badge != quality.Moderate || body.Summary.Delta.PM25 != 10 {
			t.Errorf("summary = %+v", body.Summary)
		}
		if !body.Connected {
			t.Errorf("connected = false")
		}
	})
}

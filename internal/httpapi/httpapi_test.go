package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pmwatch/internal/config"
)

type fakeStatus bool

func (f fakeStatus) IsConnected() bool { return bool(f) }

func newTestServer(t *testing.T, status ConnectionStatus, origins ...string) *httptest.Server {
	t.Helper()

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	srv := NewServer(config.Config{HTTPAddr: ":0", CORSAllowedOrigins: origins}, NewMux(status))
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(ts.Close)
	return ts
}

func mustGetJSON[T any](t *testing.T, client *http.Client, url string, out *T) *http.Response {
	t.Helper()

	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	tests := []struct {
		name     string
		status   ConnectionStatus
		wantMQTT string
	}{
		{name: "no broker", status: nil, wantMQTT: ""},
		{name: "connected", status: fakeStatus(true), wantMQTT: "connected"},
		{name: "disconnected", status: fakeStatus(false), wantMQTT: "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.status)

			var body map[string]string
			resp := mustGetJSON(t, ts.Client(), ts.URL+"/healthz", &body)

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusOK)
			}
			if body["status"] != "ok" {
				t.Fatalf("body.status=%q want=%q", body["status"], "ok")
			}
			if body["mqtt"] != tt.wantMQTT {
				t.Fatalf("body.mqtt=%q want=%q", body["mqtt"], tt.wantMQTT)
			}
		})
	}
}

func TestHealthz_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.Client().Post(ts.URL+"/healthz", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d want=%d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, nil, "http://dash.example")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://dash.example")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://dash.example" {
		t.Errorf("Access-Control-Allow-Origin=%q want=%q", got, "http://dash.example")
	}

	req.Header.Set("Origin", "http://other.example")
	resp2, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()

	if got := resp2.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin=%q for disallowed origin, want empty", got)
	}
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	h := requestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d want=%d", rec.Code, http.StatusTeapot)
	}
}

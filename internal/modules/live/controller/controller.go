package controller

import (
	"context"
	"io"
	"net/http"
	"time"

	"pmwatch/internal/modules/live/service"
	"pmwatch/internal/modules/live/views"
)

// Session is the render loop as seen by the HTTP handlers.
type Session interface {
	Frame() *service.Frame
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error
}

type LiveController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type liveControllerImpl struct {
	session        Session
	siteName       string
	refreshSeconds int
	render         func(io.Writer, *views.LiveData) error
}

func NewLiveController(session Session, siteName string, refresh time.Duration) LiveController {
	secs := int(refresh.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &liveControllerImpl{
		session:        session,
		siteName:       siteName,
		refreshSeconds: secs,
		render:         views.RenderLive,
	}
}

func (c *liveControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("POST /connect", c.handleConnect)
	mux.HandleFunc("POST /refresh", c.handleRefresh)
	mux.HandleFunc("GET /chart.svg", c.handleChart)
	mux.HandleFunc("GET /api/v1/readings", c.handleReadings)
}

package live

import (
	"net/http"
	"time"

	"pmwatch/internal/modules/live/controller"
)

func RegisterFeature(mux *http.ServeMux, session controller.Session, siteName string, refresh time.Duration) {
	liveController := controller.NewLiveController(session, siteName, refresh)
	liveController.RegisterRoutes(mux)
}

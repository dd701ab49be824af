package httpapi

import (
	"net/http"

	"pmwatch/internal/utils"
)

type healthchecker struct {
	status ConnectionStatus
}

func (h *healthchecker) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.status != nil {
		body["mqtt"] = "disconnected"
		if h.status.IsConnected() {
			body["mqtt"] = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, body)
}

func registerHealthcheck(mux *http.ServeMux, status ConnectionStatus) {
	h := &healthchecker{status: status}
	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

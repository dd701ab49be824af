package httpapi

import (
	"net/http"
)

// ConnectionStatus reports broker connectivity for the health check.
type ConnectionStatus interface {
	IsConnected() bool
}

// NewMux returns a mux with the health check registered. status may be nil
// for programs without a broker connection.
func NewMux(status ConnectionStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, status)
	return mux
}

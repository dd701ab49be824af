package httpapi

import (
	"net/http"
	"time"

	"pmwatch/internal/config"

	"github.com/rs/cors"
)

// NewServer wraps handler with CORS and request logging.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(c.Handler(handler)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

package httpserver

import (
	"net/http"
	"time"

	"minkyc/internal/platform/config"
)

const readHeaderTimeout = 5 * time.Second

// New builds the HTTP server. The write timeout must outlast the per-request
// handler timeout so a timed-out handler can still write its 504.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

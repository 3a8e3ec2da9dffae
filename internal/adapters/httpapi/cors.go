package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// newCORS allows the configured origins, or only loopback origins when
// none are configured. A literal "*" admits every origin.
func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = isLoopbackOrigin
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts)
}

func isLoopbackOrigin(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"
)

// CORSConfig describes which browser origins may call the API with
// credentials.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// DefaultCORSConfig allows the given origins with the methods and headers the
// budget API uses.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After", "X-Months-Changed"},
		MaxAge:         10 * time.Minute,
	}
}

// CORS answers preflight requests and marks allowed origins on responses.
// Credentials are always allowed, so the origin is echoed, never "*".
// Preflights from origins off the list are refused with 403.
type CORS struct {
	cors *cors.Cors
}

func NewCORS(config CORSConfig) *CORS {
	origins := make([]string, 0, len(config.AllowedOrigins))
	for _, o := range config.AllowedOrigins {
		origins = append(origins, strings.TrimRight(o, "/"))
	}
	return &CORS{cors: cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       config.AllowedMethods,
		AllowedHeaders:       config.AllowedHeaders,
		ExposedHeaders:       config.ExposedHeaders,
		AllowCredentials:     true,
		MaxAge:               int(config.MaxAge / time.Second),
		OptionsSuccessStatus: http.StatusNoContent,
	})}
}

// Allowed reports whether the request's Origin is on the allow list.
func (c *CORS) Allowed(r *http.Request) bool {
	return c.cors.OriginAllowed(r)
}

func (c *CORS) Middleware(next http.Handler) http.Handler {
	handler := c.cors.Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
		if preflight && r.Header.Get("Origin") != "" && !c.Allowed(r) {
			w.Header().Add("Vary", "Origin")
			w.WriteHeader(http.StatusForbidden)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"budgify/internal/auth"
	"budgify/internal/core"
	applog "budgify/internal/log"
	"budgify/internal/middleware/ratelimit"
	"budgify/internal/middleware/security"
	"budgify/internal/middleware/trace"
	"budgify/internal/services"
)

// Service is the budget API the handlers call. *services.BudgetService
// implements it.
type Service interface {
	Ping(ctx context.Context) error

	Register(ctx context.Context, email, password string) (services.User, error)
	Login(ctx context.Context, email, password string) (services.User, error)
	Me(ctx context.Context, userID string) (services.User, error)

	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	AddCategory(ctx context.Context, userID string, kind core.CategoryKind, in core.CategoryInput) (core.Category, error)
	UpdateCategory(ctx context.Context, userID string, kind core.CategoryKind, id string, patch core.CategoryPatch) (core.Category, error)
	DeleteCategory(ctx context.Context, userID string, kind core.CategoryKind, id string) ([]string, error)

	ListMonths(ctx context.Context, userID string) ([]core.Month, error)
	GetMonth(ctx context.Context, userID, key string) (services.MonthView, error)
	CreateMonth(ctx context.Context, userID, key string) (services.MonthView, error)
	DuplicateMonth(ctx context.Context, userID, from, to string) (services.MonthView, error)
	ReplaceMonth(ctx context.Context, userID, key string, raw map[string]any) (services.MonthView, error)
	SetCarryOver(ctx context.Context, userID, key string, v any) (services.MonthView, error)
	DeleteMonth(ctx context.Context, userID, key string) error
}

// Options tunes the middleware around the API.
type Options struct {
	ClientOrigins      []string
	RateLimitPerMinute int
	CookieSecure       bool
	Logger             *applog.Logger
}

// Server is the HTTP front of the budget service.
type Server struct {
	http.Server
	svc          Service
	tokens       *auth.Tokens
	cookieSecure bool

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background goroutines.
func NewServer(addr string, svc Service, tokens *auth.Tokens, opts Options) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		svc:              svc,
		tokens:           tokens,
		cookieSecure:     opts.CookieSecure,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}

	var handler http.Handler = s.routes()
	handler = s.limitAPI(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = security.NewCORS(security.DefaultCORSConfig(opts.ClientOrigins)).Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger.WithComponent(applog.ComponentHTTP))(handler)
	s.Handler = handler

	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(s.tokens)(h)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.Handle("GET /api/auth/me", protected(s.handleMe))

	mux.Handle("GET /api/settings", protected(s.handleGetSettings))
	mux.Handle("POST /api/settings/{category}", protected(s.handleCreateCategory))
	mux.Handle("PUT /api/settings/{category}/{id}", protected(s.handleUpdateCategory))
	mux.Handle("DELETE /api/settings/{category}/{id}", protected(s.handleDeleteCategory))

	mux.Handle("GET /api/months", protected(s.handleListMonths))
	mux.Handle("POST /api/months", protected(s.handleCreateMonth))
	mux.Handle("GET /api/months/{key}", protected(s.handleGetMonth))
	mux.Handle("PUT /api/months/{key}", protected(s.handleReplaceMonth))
	mux.Handle("DELETE /api/months/{key}", protected(s.handleDeleteMonth))
	mux.Handle("POST /api/months/{key}/duplicate", protected(s.handleDuplicateMonth))
	mux.Handle("PUT /api/months/{key}/carry-over", protected(s.handleSetCarryOver))
	mux.Handle("GET /api/months/{key}/summary", protected(s.handleMonthSummary))

	mux.HandleFunc("/", handleNotFound)
	return mux
}

// limitAPI applies the per-client rate limit to /api routes only, so probes
// and metrics scrapes are never throttled.
func (s *Server) limitAPI(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "too many requests, please try again later").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Package api serves the conversion engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"boxmeta/app"
	"boxmeta/internal"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
)

// Config holds API server configuration
type Config struct {
	Port           string
	Language       string   // default report language
	RateLimit      float64  // requests per second, 0 disables limiting
	Burst          int      // rate limiter burst
	AllowedOrigins []string // CORS origins
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		Port:           "8080",
		Language:       "en",
		RateLimit:      20,
		Burst:          40,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   8 << 20,
		RequestTimeout: 30 * time.Second,
	}
}

// App represents the HTTP application
type App struct {
	router   *chi.Mux
	config   Config
	opts     app.ConversionOptions
	validate *validator.Validate
	metrics  *Metrics
	logger   *internal.Logger
}

// NewApp creates the HTTP application. opts are the defaults each request
// may override.
func NewApp(config Config, opts app.ConversionOptions, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:   chi.NewRouter(),
		config:   config,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  NewMetrics(),
		logger:   logger,
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(requestLogger(a.logger))
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))
	if a.config.RequestTimeout > 0 {
		a.router.Use(middleware.Timeout(a.config.RequestTimeout))
	}
	a.router.Use(a.metrics.Instrument)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)
	a.router.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	a.router.Route("/api", func(r chi.Router) {
		if a.config.RateLimit > 0 {
			r.Use(NewRateLimiter(a.config.RateLimit, a.config.Burst, a.logger).Handler)
		}
		r.Use(middleware.RequestSize(a.maxBody()))

		r.Post("/convert", a.handleConvert)
		r.Post("/quick", a.handleQuick)
		r.Post("/compare", a.handleCompare)
		r.Get("/template", a.handleTemplate)
	})
}

func (a *App) maxBody() int64 {
	if a.config.MaxBodyBytes > 0 {
		return a.config.MaxBodyBytes
	}
	return DefaultConfig().MaxBodyBytes
}

// Handler exposes the router, mainly for tests
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (a *App) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("[API] Starting boxmeta server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("[API] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/batch-picker/internal/api"
	"github.com/eugenenazirov/batch-picker/internal/config"
	"github.com/eugenenazirov/batch-picker/internal/metrics"
	"github.com/eugenenazirov/batch-picker/internal/search"
	"github.com/eugenenazirov/batch-picker/internal/storage"
)

const indexText = `batch-picker

GET  /api/health
GET  /api/batches
PUT  /api/batches
POST /api/search
GET  /metrics
`

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	engine  *search.Engine
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetBatches(cfg.Batches); err != nil {
		return nil, fmt.Errorf("failed to apply initial batches: %w", err)
	}

	engine := search.New(search.WithLogger(logger))
	handler := api.NewHandler(engine, store,
		api.WithDefaultWindow(cfg.Window),
		api.WithSearchTimeout(cfg.SearchTimeout),
		api.WithHandlerLogger(logger),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage: store,
		engine:  engine,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler constructs the root HTTP handler that routes API and metrics requests.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(indexText))
	}))

	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Engine returns the search engine shared by all requests.
func (a *App) Engine() *search.Engine {
	return a.engine
}

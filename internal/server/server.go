package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/raaihank/bias-auditor/internal/audit"
	"github.com/raaihank/bias-auditor/internal/bias"
	"github.com/raaihank/bias-auditor/internal/buildinfo"
	"github.com/raaihank/bias-auditor/internal/cache"
	"github.com/raaihank/bias-auditor/internal/config"
	"github.com/raaihank/bias-auditor/internal/extract"
	"github.com/raaihank/bias-auditor/internal/history"
	"github.com/raaihank/bias-auditor/internal/logger"
	"github.com/raaihank/bias-auditor/internal/metrics"
	"github.com/raaihank/bias-auditor/internal/privacy"
	"github.com/raaihank/bias-auditor/internal/security"
	"github.com/raaihank/bias-auditor/internal/upload"
	"github.com/raaihank/bias-auditor/internal/web"
	"github.com/raaihank/bias-auditor/internal/websocket"
	"go.uber.org/zap"
)

// Server represents the HTTP front end of the auditor
type Server struct {
	config    *config.Config
	logger    *logger.Logger
	service   *audit.Service
	registry  *extract.Registry
	store     *upload.Store
	cache     cache.ReportCache
	history   history.Store
	metrics   *metrics.Collector
	limiter   *security.RateLimiter
	renderer  *web.Renderer
	wsHub     *websocket.Hub
	router    *mux.Router
	server    *http.Server
	startedAt time.Time
	cancel    context.CancelFunc
}

// New creates a new server instance. The upload directory is created here,
// before any request can be served.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	dict, err := cfg.Scanner.Dictionary()
	if err != nil {
		return nil, fmt.Errorf("failed to build dictionary: %w", err)
	}
	scanner, err := bias.NewScanner(dict)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	store := upload.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err := store.Init(); err != nil {
		return nil, err
	}

	registry := extract.NewRegistry()
	renderer, err := web.NewRenderer(registry.Extensions(), cfg.WebSocket.Path)
	if err != nil {
		return nil, err
	}

	var masker audit.Masker
	if cfg.Privacy.Enabled {
		detector, err := privacy.New(cfg.Privacy, log.WithComponent("privacy"))
		if err != nil {
			return nil, err
		}
		masker = detector
	}

	// Cache and history hold connection pools; nothing below may fail without closing them
	reportCache, err := cache.New(cfg.Cache, log.WithComponent("cache").Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	historyStore, err := history.New(cfg.History, log.WithComponent("history").Logger)
	if err != nil {
		if cerr := reportCache.Close(); cerr != nil {
			log.Warn("Failed to close report cache", zap.Error(cerr))
		}
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}

	collector := metrics.New()
	wsHub := websocket.NewHub(cfg.WebSocket, log.WithComponent("websocket").Logger)
	wsHub.TrustProxyHeaders(cfg.Server.TrustProxyHeaders)

	service := audit.New(audit.Options{
		Scanner:    scanner,
		Extractor:  registry,
		Store:      store,
		Cache:      reportCache,
		Metrics:    collector,
		Publisher:  wsHub,
		History:    historyStore,
		Masker:     masker,
		Samples:    cfg.Privacy.Samples,
		Logger:     log.WithComponent("audit"),
		MaxTextLen: cfg.Scanner.MaxTextLen,
	})

	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		service:   service,
		registry:  registry,
		store:     store,
		cache:     reportCache,
		history:   historyStore,
		metrics:   collector,
		limiter:   security.NewRateLimiter(cfg.RateLimit),
		renderer:  renderer,
		wsHub:     wsHub,
		router:    mux.NewRouter(),
		startedAt: time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	s.logger.Info("Bias scanner initialized",
		zap.Int("categories", len(dict)),
		zap.String("upload_dir", cfg.Upload.Dir),
		zap.Strings("formats", registry.Extensions()),
	)

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.Handle("/", s.rateLimitMiddleware(http.HandlerFunc(s.handleUploadForm))).Methods(http.MethodPost)
	s.router.HandleFunc("/dashboard", s.renderer.ServeDashboard).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dictionary", s.handleDictionary).Methods(http.MethodGet)
	api.HandleFunc("/scans", s.handleHistory).Methods(http.MethodGet)
	scans := api.PathPrefix("/scan").Subrouter()
	scans.Use(s.rateLimitMiddleware)
	scans.HandleFunc("", s.handleScanText).Methods(http.MethodPost)
	scans.HandleFunc("/upload", s.handleScanUpload).Methods(http.MethodPost)

	if s.config.Metrics.Enabled {
		s.router.Handle(s.config.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.wsHub.HandleWebSocket).Methods(http.MethodGet)
	}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Service returns the audit service behind the server
func (s *Server) Service() *audit.Service {
	return s.service
}

// Start runs background routines and blocks serving HTTP
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info("Starting bias auditor server",
		zap.Int("port", s.config.Server.Port),
		zap.String("cache_backend", s.config.Cache.Backend),
		zap.Bool("websocket_enabled", s.config.WebSocket.Enabled),
	)

	go s.wsHub.Run(ctx)
	go s.runEvery(ctx, s.config.Upload.SweepInterval, s.sweepUploads)
	go s.runEvery(ctx, s.config.WebSocket.StatusInterval, s.broadcastStatus)
	if s.config.RateLimit.Enabled && s.config.RateLimit.IdleTTL > 0 {
		s.limiter.StartCleanupRoutine(s.config.RateLimit.IdleTTL, ctx.Done())
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and background routines
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping bias auditor server")

	err := s.server.Shutdown(ctx)
	if s.cancel != nil {
		s.cancel()
	}
	if cerr := s.cache.Close(); cerr != nil {
		s.logger.Warn("Failed to close report cache", zap.Error(cerr))
	}
	if herr := s.history.Close(); herr != nil {
		s.logger.Warn("Failed to close history store", zap.Error(herr))
	}
	return err
}

// ReloadScanner rebuilds the scanner from cfg and swaps it in
func (s *Server) ReloadScanner(cfg *config.Config) error {
	dict, err := cfg.Scanner.Dictionary()
	if err != nil {
		return err
	}
	scanner, err := bias.NewScanner(dict)
	if err != nil {
		return err
	}
	s.service.SetScanner(scanner)
	return nil
}

func (s *Server) runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// sweepUploads deletes uploads orphaned by crashed requests
func (s *Server) sweepUploads() {
	removed, err := s.store.Sweep(s.config.Upload.SweepAge)
	if err != nil {
		s.logger.Warn("Upload sweep failed", zap.Error(err))
		return
	}
	s.metrics.ObserveSweep(removed)
	if removed > 0 {
		s.logger.Info("Removed stale uploads", zap.Int("count", removed))
	}
}

func (s *Server) broadcastStatus() {
	scans, findings := s.service.Totals()
	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeSystemStatus,
		Timestamp: time.Now(),
		Data: websocket.SystemStatusEvent{
			Status:           "healthy",
			Uptime:           time.Since(s.startedAt).Round(time.Second).String(),
			TotalScans:       scans,
			TotalFindings:    findings,
			ActiveCategories: len(s.service.Dictionary()),
			ConnectedClients: int(s.wsHub.GetStats().ActiveConnections),
		},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	scans, findings := s.service.Totals()
	categories := make([]string, 0)
	for _, c := range s.service.Dictionary() {
		categories = append(categories, c.Name)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":              "bias-auditor",
		"version":           buildinfo.Version,
		"commit":            buildinfo.Commit,
		"uptime":            time.Since(s.startedAt).Round(time.Second).String(),
		"categories":        categories,
		"formats":           s.registry.Extensions(),
		"max_upload_bytes":  s.config.Upload.MaxBytes,
		"total_scans":       scans,
		"total_findings":    findings,
		"cache":             s.service.CacheStats(),
		"history_backend":   s.history.Backend(),
		"websocket_enabled": s.config.WebSocket.Enabled,
		"websocket":         s.wsHub.GetStats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

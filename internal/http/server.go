package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// ReadyFunc reports whether the storage backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// Options tune the server. Zero values pick the defaults.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	Ready              ReadyFunc
	Logger             *applog.Logger
}

const (
	defaultCacheTTL  = 5 * time.Minute
	defaultCacheSize = 128
	cacheCleanup     = 10 * time.Minute
	readyTimeout     = 5 * time.Second
)

// Server is the JSON API over a SnapshotService.
type Server struct {
	http.Server

	svc    *services.SnapshotService
	ready  ReadyFunc
	logger *applog.Logger

	yearCache    *cache.LRUCache[*services.YearView]
	historyCache *cache.LRUCache[*services.HistoryView]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime      time.Time
	mutations   int64
	imports     int64
	cacheHits   int64
	cacheMisses int64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Derived views are cached until the next mutation of svc.
func NewServer(addr string, svc *services.SnapshotService, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		svc:              svc,
		ready:            opts.Ready,
		logger:           logger,
		yearCache:        cache.NewLRUCache[*services.YearView](opts.CacheSize, opts.CacheTTL),
		historyCache:     cache.NewLRUCache[*services.HistoryView](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(logger.Logger),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: security.NewDetector(logger.Logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	s.cacheManager.Register(s.yearCache)
	s.cacheManager.Register(s.historyCache)
	s.cacheManager.StartCleanup(cacheCleanup)
	svc.OnChange(func() {
		atomic.AddInt64(&s.appMetrics.mutations, 1)
		s.cacheManager.InvalidateAll()
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/months/{month}", s.handleGetMonth)
	mux.HandleFunc("PUT /api/months/{month}", s.handleSaveMonth)
	mux.HandleFunc("DELETE /api/months/{month}", s.handleDeleteMonth)
	mux.HandleFunc("GET /api/years/{year}", s.handleGetYear)
	mux.HandleFunc("DELETE /api/years/{year}", s.handleDeleteYear)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("DELETE /api/history", s.handleDeleteHistory)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export.sql", s.handleExportSQL)

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestID)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, func(r *http.Request) bool {
		return ratelimit.Mutating(r.Method)
	}, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, ErrKindRateLimited, "rate limit exceeded, try again later").Write(w)
	})(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// yearView returns the cached year view for params or derives it.
func (s *Server) yearView(ctx context.Context, year string, params ViewParams) (*services.YearView, error) {
	return cachedView(s, s.yearCache, params.CacheKey(year), func() (*services.YearView, error) {
		return s.svc.YearView(ctx, year, params.Sort, params.Visible)
	})
}

// historyView returns the cached history view for params or derives it.
func (s *Server) historyView(ctx context.Context, params ViewParams) (*services.HistoryView, error) {
	return cachedView(s, s.historyCache, params.CacheKey("history"), func() (*services.HistoryView, error) {
		return s.svc.HistoryView(ctx, params.Sort, params.Visible)
	})
}

func cachedView[T any](s *Server, c cache.Cache[T], key string, load func() (T, error)) (T, error) {
	missed := false
	v, err := cache.GetOrLoad(c, key, func() (T, error) {
		missed = true
		return load()
	})
	if missed {
		atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
	} else {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
	}
	return v, err
}

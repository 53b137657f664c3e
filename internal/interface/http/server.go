// Package http implements the REST API for Stridemate.
// It exposes the matching feed, match creation, chat, and the profile
// sync webhook, plus health and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stridemate/stridemate-hub/internal/application/command"
	"github.com/stridemate/stridemate-hub/internal/application/query"
	"github.com/stridemate/stridemate-hub/internal/interface/http/handlers"
	"github.com/stridemate/stridemate-hub/pkg/logger"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// profile sync, which stays well under this.
const maxBodyBytes = 1 << 20

// Config contains HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// AllowedOrigins enables CORS for the listed origins. "*" allows all.
	// Empty disables CORS handling.
	AllowedOrigins []string

	// EnableMetrics mounts the Prometheus endpoint at /metrics.
	EnableMetrics bool

	// RateLimitPerMinute is the per-IP request budget. Zero disables
	// rate limiting.
	RateLimitPerMinute int

	// ServiceKeyHash is the bcrypt hash of the service key protecting
	// the sync webhook. Empty disables the webhook entirely.
	ServiceKeyHash string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		AllowedOrigins:     []string{"*"},
		EnableMetrics:      true,
		RateLimitPerMinute: 120,
	}
}

// Address returns the host:port string the server binds to.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Dependencies contains everything the HTTP handlers call into.
type Dependencies struct {
	// Read side
	PotentialMatchesHandler *query.PotentialMatchesHandler
	RecentMatchesHandler    *query.RecentMatchesHandler
	ListMessagesHandler     *query.ListMessagesHandler

	// Write side
	CreateMatchHandler   *command.CreateMatchHandler
	UnmatchHandler       *command.UnmatchHandler
	SendMessageHandler   *command.SendMessageHandler
	SyncProfileHandler   *command.SyncProfileHandler
	TrackPresenceHandler *command.TrackPresenceHandler

	Logger        *logger.Logger
	HealthChecker handlers.HealthChecker
	Metrics       *Metrics
}

// Server wraps net/http with the route table and middleware stack.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	serviceKeyAuth *handlers.ServiceKeyAuth
	rateLimiter    *rateLimiter
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}

	if config.ServiceKeyHash != "" {
		s.serviceKeyAuth = handlers.NewServiceKeyAuth(config.ServiceKeyHash)
	}

	if config.RateLimitPerMinute > 0 {
		s.rateLimiter = newRateLimiter(config.RateLimitPerMinute, time.Minute)
	}

	s.routes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildMiddlewareChain(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: maxBodyBytes,
	}

	return s
}

func (s *Server) routes() {
	// Health and status
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /", s.handleRoot)

	// Matching
	s.router.HandleFunc("GET /matching/potential-matches", s.handlePotentialMatches)
	s.router.HandleFunc("POST /create-match", s.handleCreateMatch)
	s.router.HandleFunc("GET /recent-matches/{userId}", s.handleRecentMatches)
	s.router.HandleFunc("POST /matches/{matchId}/unmatch", s.handleUnmatch)

	// Chat
	s.router.HandleFunc("POST /send-message", s.handleSendMessage)
	s.router.HandleFunc("GET /messages/{matchId}", s.handleListMessages)

	// Presence
	s.router.HandleFunc("POST /presence", s.handlePresence)

	// Profile sync webhook, service key required
	if s.serviceKeyAuth != nil {
		s.router.Handle("POST /sync-user", s.serviceKeyAuth.Middleware(http.HandlerFunc(s.handleSyncUser)))
	}

	if s.config.EnableMetrics {
		s.router.Handle("GET /metrics", promhttp.Handler())
	}
}

// buildMiddlewareChain assembles the middleware stack, outermost first.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	mw := []handlers.MiddlewareFunc{}

	if s.rateLimiter != nil {
		mw = append(mw, s.rateLimit)
	}
	if len(s.config.AllowedOrigins) > 0 {
		mw = append(mw, s.cors)
	}
	mw = append(mw, s.recovery, handlers.SecurityHeadersMiddleware)
	if s.deps.Metrics != nil {
		mw = append(mw, s.observe)
	}
	mw = append(mw,
		s.logRequests,
		s.requestID,
		handlers.RequestSizeLimitMiddleware(maxBodyBytes),
	)

	return handlers.ChainHandler(handler, mw...)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.status),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
			logger.String("ip", clientIP(r)),
			logger.String("request_id", getRequestID(r.Context())),
		)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.deps.Metrics.ObserveRequest(r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("panic recovered",
					logger.Any("error", v),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", getRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		for _, o := range s.config.AllowedOrigins {
			if o != "*" && o != origin {
				continue
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Service-Key, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
			break
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start blocks serving requests until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync starts the server in a goroutine. The channel is closed
// once the server stops, carrying the error if there was one.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server binds to.
func (s *Server) Address() string {
	return s.config.Address()
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// JSONResponse is the envelope every endpoint answers with. Error is a
// plain string; on a duplicate-match conflict Data carries the existing
// match alongside the error so the client can reconcile its state.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, resp JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, JSONResponse{Error: message})
}

// writeConflict reports a duplicate match: the error message plus the
// existing record.
func writeConflict(w http.ResponseWriter, message string, existing interface{}) {
	writeEnvelope(w, http.StatusConflict, JSONResponse{Error: message, Data: existing})
}

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// statusRecorder captures the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

func getQueryParamInt(r *http.Request, key string, defaultValue int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// rateLimiter is a fixed-window per-key counter. Windows reset lazily
// on access; a sweeper drops keys that have gone quiet.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	limit   int
	window  time.Duration
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*rateBucket),
		limit:   limit,
		window:  window,
	}
	go rl.sweep()
	return rl
}

func (rl *rateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.buckets[key]
	if b == nil || now.After(b.resetAt) {
		rl.buckets[key] = &rateBucket{count: 1, resetAt: now.Add(rl.window)}
		return true
	}
	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if now.After(b.resetAt) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

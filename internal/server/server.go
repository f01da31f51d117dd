package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gkobilansky/sample-goat/internal/store"
)

type Server struct {
	store     store.Store
	port      int
	token     string
	tokenFile string
	logger    *slog.Logger
	router    *http.ServeMux
	startTime time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithToken fixes the admin token instead of generating one at startup.
func WithToken(token string) Option {
	return func(s *Server) {
		if token != "" {
			s.token = token
		}
	}
}

func New(s store.Store, port int, tokenFile string, opts ...Option) *Server {
	srv := &Server{
		store:     s,
		port:      port,
		token:     generateToken(),
		tokenFile: tokenFile,
		logger:    slog.Default(),
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	// Public endpoints
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/api/calculate", s.handleCalculate)
	s.router.HandleFunc("/api/presets", s.handlePresets)
	s.router.HandleFunc("/api/presets/", s.handlePreset)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.HandleFunc("/", s.handleCalculator)
}

func (s *Server) Start() error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn("failed to write token file", "path", s.tokenFile, "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("server listening", "addr", addr)

	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

// Handler returns the router wrapped in request logging and metrics.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.router)
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a simple token if crypto/rand fails
		return "a1b2c3d4e5f6a7b8"
	}
	return hex.EncodeToString(bytes)
}

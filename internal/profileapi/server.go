// Package profileapi is the profile service the wizard submits to. It accepts
// a full draft, validates it with the same rules as the wizard and replaces
// the caller's stored profile.
package profileapi

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/profile"
	"github.com/kingrea/profile-wizard/internal/steps"
)

// ServerStatus reports runtime lifecycle states for the HTTP server.
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// CreatedMessage is returned with a stored profile.
const CreatedMessage = "Profile created successfully"

// Server wraps the HTTP listener and handlers backing the profile service.
type Server struct {
	settings  Settings
	repo      Repository
	publisher Publisher
	registry  *steps.Registry
	sanitizer *sanitizer
	logger    *zap.Logger
	clock     func() time.Time
	gatherer  *prometheus.Registry
	metrics   *metrics
	engine    *gin.Engine

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	startTime time.Time
}

// Option customizes server construction.
type Option func(*Server)

// WithPublisher overrides the default no-op event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Server) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRegistry replaces the record validators.
func WithRegistry(reg *steps.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// NewServer prepares the service using the provided settings and repository.
func NewServer(settings Settings, repo Repository, opts ...Option) (*Server, error) {
	if repo == nil {
		return nil, fmt.Errorf("profileapi: repository is required")
	}
	if settings.JWTSecret == "" {
		return nil, fmt.Errorf("profileapi: jwt secret is required")
	}
	settings.normalize()
	s := &Server{
		settings:  settings,
		repo:      repo,
		publisher: nopPublisher{},
		sanitizer: newSanitizer(),
		logger:    zap.NewNop(),
		clock:     func() time.Time { return time.Now().UTC() },
		gatherer:  prometheus.NewRegistry(),
		status:    StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.registry == nil {
		s.registry = steps.NewRegistry(steps.WithClock(s.clock))
	}
	m, err := newMetrics(s.gatherer)
	if err != nil {
		return nil, fmt.Errorf("profileapi: register metrics: %w", err)
	}
	s.metrics = m
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware(), s.requestLogger())
	r.GET("/health", s.handleHealth)
	r.HEAD("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/profiles", authMiddleware([]byte(s.settings.JWTSecret)))
	api.POST("/create-profile/", s.handleCreateProfile)
	api.GET("/me/", s.handleGetProfile)
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("profileapi: server is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("profileapi: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("profileapi: listen %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = s.clock()
	server := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = StatusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", zap.Error(err))
		}
	}()
	s.logger.Info("profile service listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.server == nil {
		return nil
	}
	s.status = StatusDraining
	deadline := ctx
	if deadline == nil {
		var cancel context.CancelFunc
		deadline, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := s.server.Shutdown(deadline); err != nil {
		return err
	}
	s.listener = nil
	s.server = nil
	return nil
}

// Addr returns the bound TCP address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL returns the HTTP base URL (scheme + host:port) for the running server.
func (s *Server) BaseURL() string {
	addr := s.Addr()
	if addr == "" {
		return s.settings.URL()
	}
	return "http://" + addr
}

// Status reports the server's lifecycle state.
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return int64(s.clock().Sub(s.startTime).Seconds())
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		UptimeSeconds: s.uptimeSeconds(),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.clock()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", s.clock().Sub(start)))
	}
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	userID := c.GetString(userIDKey)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.settings.MaxBodyBytes)
	var d profile.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		s.metrics.submissions.WithLabelValues("invalid").Inc()
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Payload exceeds limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid JSON: " + err.Error()})
		return
	}
	d = s.sanitizer.draft(d.Normalized())
	if errs := s.registry.CheckDraft(d); len(errs) > 0 {
		s.metrics.submissions.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": validationDetail(errs), "errors": errs})
		return
	}

	stored, err := s.repo.Replace(c.Request.Context(), userID, d)
	if err != nil {
		s.metrics.submissions.WithLabelValues("error").Inc()
		s.logger.Error("store profile failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to save profile"})
		return
	}
	s.metrics.submissions.WithLabelValues("created").Inc()
	s.publish(c.Request.Context(), stored)
	s.logger.Info("profile stored",
		zap.String("user_id", userID),
		zap.String("profile_id", stored.ID),
		zap.Int("educations", len(d.Educations)),
		zap.Int("skills", len(d.Skills)))
	c.JSON(http.StatusCreated, gateway.ProfileRef{
		ID:      stored.ID,
		Message: CreatedMessage,
	})
}

// publish emits profile.created. A failed publish is logged; the profile is
// already stored.
func (s *Server) publish(ctx context.Context, stored StoredProfile) {
	evt := ProfileEvent{
		Event:      EventProfileCreated,
		ProfileID:  stored.ID,
		UserID:     stored.UserID,
		OccurredAt: s.clock(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.published.WithLabelValues("error").Inc()
		s.logger.Warn("publish profile event failed", zap.String("profile_id", stored.ID), zap.Error(err))
		return
	}
	s.metrics.published.WithLabelValues("ok").Inc()
}

type profileResponse struct {
	ID        string        `json:"profile_id"`
	Profile   profile.Draft `json:"profile"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *Server) handleGetProfile(c *gin.Context) {
	stored, err := s.repo.Get(c.Request.Context(), c.GetString(userIDKey))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Profile not found"})
		return
	}
	if err != nil {
		s.logger.Error("load profile failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, profileResponse{
		ID:        stored.ID,
		Profile:   stored.Draft.Normalized(),
		UpdatedAt: stored.UpdatedAt,
	})
}

// validationDetail flattens field errors into one sentence for clients that
// only read detail.
func validationDetail(errs steps.FieldErrors) string {
	keys := slices.Sorted(maps.Keys(errs))
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+errs[key])
	}
	return "Invalid profile data. " + strings.Join(parts, "; ")
}

// Package bootstrap wires configuration, logging, the draft store, the
// submission gateway and the wizard engine for a working directory.
package bootstrap

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/config"
	"github.com/kingrea/profile-wizard/internal/draftstore"
	"github.com/kingrea/profile-wizard/internal/gateway"
	"github.com/kingrea/profile-wizard/internal/logging"
	"github.com/kingrea/profile-wizard/internal/wizard"
)

// Session owns everything opened for one run.
type Session struct {
	Config  *config.Config
	Logger  *logging.Logger
	Store   draftstore.Store
	Gateway gateway.Gateway
	Engine  *wizard.Engine
}

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	gateway    gateway.Gateway
	engineOpts []wizard.Option
	quietLogs  bool
}

// WithGateway replaces the HTTP gateway built from config.
func WithGateway(gw gateway.Gateway) Option {
	return func(o *openOptions) {
		o.gateway = gw
	}
}

// WithEngineOptions appends engine options after the ones derived from config.
func WithEngineOptions(opts ...wizard.Option) Option {
	return func(o *openOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithoutLogFile discards logs instead of writing wizard.log.
func WithoutLogFile() Option {
	return func(o *openOptions) {
		o.quietLogs = true
	}
}

// Open initializes .profilewizard/ in projectDir and builds a session.
func Open(projectDir string, opts ...Option) (*Session, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := config.InitProjectDir(projectDir); err != nil {
		return nil, fmt.Errorf("bootstrap: init project dir: %w", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}

	logger := logging.Nop()
	if !o.quietLogs {
		logger, err = logging.New(projectDir, cfg.Project.Logging.Level)
		if err != nil {
			return nil, err
		}
	}
	s := &Session{Config: cfg, Logger: logger}

	store, err := draftstore.Open(draftstore.Options{
		Backend:  cfg.Project.Draft.Backend,
		Key:      cfg.Project.Draft.Key,
		Dir:      cfg.DraftsDir(),
		RedisURL: cfg.Project.Draft.RedisURL,
		Logger:   logger.Named("draftstore"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Store = store

	gw := o.gateway
	if gw == nil {
		gw, err = newHTTPGateway(cfg, logger.Logger)
		if err != nil {
			s.Close()
			return nil, err
		}
	}
	s.Gateway = gw

	engineOpts := []wizard.Option{
		wizard.WithLogger(logger.Named("wizard")),
		wizard.WithPolicy(wizard.Policy{RequireCompleteSections: cfg.Project.Submission.RequireCompleteSections}),
	}
	engineOpts = append(engineOpts, o.engineOpts...)
	eng, err := wizard.New(store, gw, engineOpts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = eng
	logger.Info("session opened",
		zap.String("project_dir", projectDir),
		zap.String("draft_backend", cfg.Project.Draft.Backend))
	return s, nil
}

func newHTTPGateway(cfg *config.Config, logger *zap.Logger) (*gateway.HTTPGateway, error) {
	gc := cfg.Project.Gateway
	return gateway.NewHTTP(gc.BaseURL, gc.Timeout,
		gateway.WithTokenSource(gateway.EnvToken(gc.TokenEnv)),
		gateway.WithRetry(gateway.RetryConfig{
			MaxAttempts:  gc.Retry.MaxAttempts,
			InitialDelay: gc.Retry.InitialDelay,
			MaxDelay:     gc.Retry.MaxDelay,
			Multiplier:   2,
			AddJitter:    true,
		}),
		gateway.WithLogger(logger.Named("gateway")),
	)
}

// Close releases the store and the log file.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if closer, ok := s.Store.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	errs = append(errs, s.Logger.Close())
	return errors.Join(errs...)
}

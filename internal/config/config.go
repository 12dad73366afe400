// internal/config/config.go
//
// This package handles configuration and the .profilewizard directory structure.
// Every directory the wizard runs in gets a .profilewizard/ folder holding the
// draft, the logs and config.yaml.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// WizardDir is the name of the directory we create in each working directory
	WizardDir = ".profilewizard"

	defaultDraftKey   = "profile_form_draft"
	defaultAPIBaseURL = "http://localhost:8000/api"
	defaultTokenEnv   = "PROFILEWIZARD_TOKEN"
)

// Environment variables that override config.yaml. They may also be set in a
// .env file next to .profilewizard/.
const (
	EnvAPIURL       = "PROFILEWIZARD_API_URL"
	EnvDraftBackend = "PROFILEWIZARD_DRAFT_BACKEND"
	EnvRedisURL     = "PROFILEWIZARD_REDIS_URL"
	EnvLogLevel     = "PROFILEWIZARD_LOG_LEVEL"
)

const defaultProjectConfigYAML = `# profile wizard configuration
version: 1

# Where the in-progress draft is kept between sessions.
# backend: file | sqlite | redis | memory
draft:
  backend: file
  key: profile_form_draft
  path: drafts
  # redis_url: redis://localhost:6379/0

# Profile service the finished profile is submitted to.
gateway:
  base_url: http://localhost:8000/api
  timeout: 30s
  # Name of the environment variable holding the session token.
  token_env: PROFILEWIZARD_TOKEN
  retry:
    max_attempts: 2
    initial_delay: 250ms
    max_delay: 2s

submission:
  # Also require education, experience, projects and skills before submitting.
  require_complete_sections: false

logging:
  level: info
`

// DraftConfig selects the draft store backend.
type DraftConfig struct {
	Backend  string `yaml:"backend"`
	Key      string `yaml:"key"`
	Path     string `yaml:"path,omitempty"`
	RedisURL string `yaml:"redis_url,omitempty"`
}

// RetryConfig bounds retries of transient submission failures.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// GatewayConfig points at the profile service.
type GatewayConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	TokenEnv string        `yaml:"token_env"`
	Retry    RetryConfig   `yaml:"retry"`
}

// SubmissionConfig toggles the stricter submission rule.
type SubmissionConfig struct {
	RequireCompleteSections bool `yaml:"require_complete_sections"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .profilewizard/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Draft      DraftConfig      `yaml:"draft"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Submission SubmissionConfig `yaml:"submission"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Config holds the runtime configuration for the wizard.
type Config struct {
	// ProjectDir is the directory the wizard was started from
	ProjectDir string

	// WizardProjectDir is ProjectDir/.profilewizard
	WizardProjectDir string

	Project ProjectConfig
}

// InitProjectDir creates the .profilewizard directory structure and a default
// config.yaml when none exists.
//
// Structure created:
// .profilewizard/
// ├── drafts/       <- file and sqlite draft stores
// ├── logs/         <- wizard.log
// └── config.yaml
func InitProjectDir(projectDir string) error {
	wizardDir := filepath.Join(projectDir, WizardDir)
	dirs := []string{
		filepath.Join(wizardDir, "drafts"),
		filepath.Join(wizardDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(wizardDir, "config.yaml"))
}

// NewConfig loads .env (if present), config.yaml and environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(projectDir, ".env")); err != nil {
		return nil, err
	}
	cfg := &Config{
		ProjectDir:       projectDir,
		WizardProjectDir: filepath.Join(projectDir, WizardDir),
		Project:          defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.WizardProjectDir, "logs")
}

// DraftsDir returns the directory used by the file and sqlite draft stores.
func (c *Config) DraftsDir() string {
	return resolvePath(c.WizardProjectDir, c.Project.Draft.Path)
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.WizardProjectDir, "config.yaml")
}

// SetAPIBaseURL updates the profile service URL and persists it back to
// .profilewizard/config.yaml.
func (c *Config) SetAPIBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("config: api url is required")
	}
	c.Project.Gateway.BaseURL = raw
	return c.saveProjectConfig()
}

// SetDraftBackend switches the draft backend and persists it.
func (c *Config) SetDraftBackend(backend string) error {
	c.Project.Draft.Backend = backend
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.Project.Gateway.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDraftBackend)); v != "" {
		c.Project.Draft.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" {
		c.Project.Draft.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Project.Logging.Level = v
	}
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Draft.Backend == "" {
		pc.Draft.Backend = "file"
	}
	if pc.Draft.Key == "" {
		pc.Draft.Key = defaultDraftKey
	}
	if pc.Draft.Path == "" {
		pc.Draft.Path = "drafts"
	}
	if pc.Gateway.BaseURL == "" {
		pc.Gateway.BaseURL = defaultAPIBaseURL
	}
	if pc.Gateway.Timeout == 0 {
		pc.Gateway.Timeout = 30 * time.Second
	}
	if pc.Gateway.TokenEnv == "" {
		pc.Gateway.TokenEnv = defaultTokenEnv
	}
	if pc.Gateway.Retry.MaxAttempts == 0 {
		pc.Gateway.Retry.MaxAttempts = 2
	}
	if pc.Gateway.Retry.InitialDelay == 0 {
		pc.Gateway.Retry.InitialDelay = 250 * time.Millisecond
	}
	if pc.Gateway.Retry.MaxDelay == 0 {
		pc.Gateway.Retry.MaxDelay = 2 * time.Second
	}
	if pc.Logging.Level == "" {
		pc.Logging.Level = "info"
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Draft.Backend = normalizeName(pc.Draft.Backend)
	pc.Draft.Key = strings.TrimSpace(pc.Draft.Key)
	pc.Draft.Path = strings.TrimSpace(pc.Draft.Path)
	pc.Draft.RedisURL = strings.TrimSpace(pc.Draft.RedisURL)
	pc.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Gateway.BaseURL), "/")
	pc.Gateway.TokenEnv = strings.TrimSpace(pc.Gateway.TokenEnv)
	pc.Logging.Level = normalizeName(pc.Logging.Level)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Draft.Backend {
	case "file", "sqlite", "memory":
	case "redis":
		if pc.Draft.RedisURL == "" {
			return fmt.Errorf("draft.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("draft.backend must be one of file, sqlite, redis, memory")
	}
	if pc.Draft.Key == "" {
		return fmt.Errorf("draft.key is required")
	}
	if strings.ContainsAny(pc.Draft.Key, `/\`) {
		return fmt.Errorf("draft.key must not contain path separators")
	}
	u, err := url.Parse(pc.Gateway.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("gateway.base_url must be an http(s) URL")
	}
	if pc.Gateway.Timeout < 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if pc.Gateway.Retry.MaxAttempts < 1 || pc.Gateway.Retry.MaxAttempts > 10 {
		return fmt.Errorf("gateway.retry.max_attempts must be between 1 and 10")
	}
	if pc.Gateway.Retry.MaxDelay < pc.Gateway.Retry.InitialDelay {
		return fmt.Errorf("gateway.retry.max_delay must be >= initial_delay")
	}
	switch pc.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}

func normalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.WizardProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure wizard dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}

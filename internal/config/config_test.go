package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	projectDir := t.TempDir()
	wizardDir := filepath.Join(projectDir, WizardDir)
	if err := os.MkdirAll(wizardDir, 0755); err != nil {
		t.Fatal(err)
	}
	return &Config{ProjectDir: projectDir, WizardProjectDir: wizardDir, Project: defaultProjectConfig()}
}

func writeConfig(t *testing.T, c *Config, body string) {
	t.Helper()
	if err := os.WriteFile(c.ProjectConfigPath(), []byte(strings.TrimSpace(body)), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	c := newTestConfig(t)
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Project.Draft.Backend != "file" || c.Project.Draft.Key != defaultDraftKey {
		t.Fatalf("unexpected draft defaults: %+v", c.Project.Draft)
	}
	if c.Project.Gateway.BaseURL != defaultAPIBaseURL {
		t.Fatalf("expected default api url, got %q", c.Project.Gateway.BaseURL)
	}
	if c.DraftsDir() != filepath.Join(c.WizardProjectDir, "drafts") {
		t.Fatalf("unexpected drafts dir %s", c.DraftsDir())
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	c := newTestConfig(t)
	writeConfig(t, c, `
version: 1
draft:
  backend: SQLite
  key: alice
  path: store
gateway:
  base_url: https://profiles.example.com/api/
  timeout: 5s
  token_env: MY_TOKEN
  retry:
    max_attempts: 4
    initial_delay: 100ms
    max_delay: 1s
submission:
  require_complete_sections: true
logging:
  level: DEBUG
`)
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	p := c.Project
	if p.Draft.Backend != "sqlite" || p.Draft.Key != "alice" {
		t.Fatalf("unexpected draft config: %+v", p.Draft)
	}
	if !strings.HasPrefix(c.DraftsDir(), c.WizardProjectDir) || !strings.HasSuffix(c.DraftsDir(), "store") {
		t.Fatalf("expected drafts dir to be resolved, got %s", c.DraftsDir())
	}
	if p.Gateway.BaseURL != "https://profiles.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %s", p.Gateway.BaseURL)
	}
	if p.Gateway.Timeout != 5*time.Second || p.Gateway.Retry.InitialDelay != 100*time.Millisecond {
		t.Fatalf("durations not parsed: %+v", p.Gateway)
	}
	if p.Gateway.Retry.MaxAttempts != 4 || p.Gateway.TokenEnv != "MY_TOKEN" {
		t.Fatalf("unexpected gateway config: %+v", p.Gateway)
	}
	if !p.Submission.RequireCompleteSections {
		t.Fatalf("expected strict submission")
	}
	if p.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %s", p.Logging.Level)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"redis without url": "draft:\n  backend: redis\n",
		"unknown backend":   "draft:\n  backend: etcd\n",
		"bad url":           "gateway:\n  base_url: localhost:8000\n",
		"bad level":         "logging:\n  level: loud\n",
		"key with slash":    "draft:\n  key: ../escape\n",
		"too many retries":  "gateway:\n  retry:\n    max_attempts: 50\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestConfig(t)
			writeConfig(t, c, body)
			if err := c.loadProjectConfig(); err == nil {
				t.Fatalf("expected validation error but got none")
			}
		})
	}
}

func TestInitProjectDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatalf("InitProjectDir: %v", err)
	}
	for _, dir := range []string{"drafts", "logs"} {
		if _, err := os.Stat(filepath.Join(projectDir, WizardDir, dir)); err != nil {
			t.Fatalf("expected %s dir: %v", dir, err)
		}
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig on default config: %v", err)
	}
	if c.Project.Gateway.Retry.MaxAttempts != 2 || c.Project.Gateway.Timeout != 30*time.Second {
		t.Fatalf("default yaml did not round trip: %+v", c.Project.Gateway)
	}

	// A second init leaves an edited config alone.
	if err := os.WriteFile(c.ProjectConfigPath(), []byte("version: 1\nlogging:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(c.ProjectConfigPath())
	if !strings.Contains(string(data), "warn") {
		t.Fatalf("config overwritten: %s", data)
	}
}

func TestNewConfigAppliesEnvironmentAndDotEnv(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitProjectDir(projectDir); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIURL, "https://api.example.com/v2")
	t.Setenv(EnvDraftBackend, "")
	dotenv := EnvLogLevel + "=error\n"
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte(dotenv), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvLogLevel) })

	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.Project.Gateway.BaseURL != "https://api.example.com/v2" {
		t.Fatalf("env override ignored: %s", c.Project.Gateway.BaseURL)
	}
	if c.Project.Logging.Level != "error" {
		t.Fatalf(".env override ignored: %s", c.Project.Logging.Level)
	}

	t.Setenv(EnvDraftBackend, "redis")
	if _, err := NewConfig(projectDir); err == nil {
		t.Fatalf("expected redis backend without url to fail validation")
	}
}

func TestSetAPIBaseURLPersists(t *testing.T) {
	c := newTestConfig(t)
	if err := c.SetAPIBaseURL("https://svc.example.com/api"); err != nil {
		t.Fatalf("SetAPIBaseURL: %v", err)
	}
	reloaded := &Config{ProjectDir: c.ProjectDir, WizardProjectDir: c.WizardProjectDir, Project: defaultProjectConfig()}
	if err := reloaded.loadProjectConfig(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Project.Gateway.BaseURL != "https://svc.example.com/api" {
		t.Fatalf("expected persisted url, got %s", reloaded.Project.Gateway.BaseURL)
	}
	if err := c.SetAPIBaseURL("ftp://nope"); err == nil {
		t.Fatalf("expected invalid url to be rejected")
	}
	if err := c.SetDraftBackend("nosql"); err == nil {
		t.Fatalf("expected invalid backend to be rejected")
	}
}

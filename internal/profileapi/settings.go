package profileapi

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the profile service.
	DefaultPort = 8000
	// DefaultMaxBodyBytes limits request payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultQueue receives profile.created events.
	DefaultQueue = "profile_events"
)

// Environment variables read by SettingsFromEnv.
const (
	EnvHost      = "PROFILED_HOST"
	EnvPort      = "PROFILED_PORT"
	EnvJWTSecret = "PROFILED_JWT_SECRET"
	EnvMySQLDSN  = "PROFILED_MYSQL_DSN"
	EnvAMQPURL   = "PROFILED_AMQP_URL"
	EnvQueue     = "PROFILED_QUEUE"
)

// Settings captures runtime configuration for the profile service.
type Settings struct {
	Host         string
	Port         int
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret string
	// MySQLDSN selects the gorm repository; empty keeps profiles in memory.
	MySQLDSN string
	// AMQPURL enables the RabbitMQ publisher; empty disables events.
	AMQPURL string
	Queue   string
}

// SettingsFromEnv builds Settings from defaults and PROFILED_* variables.
func SettingsFromEnv() Settings {
	settings := Settings{
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
		Queue:        DefaultQueue,
	}
	settings.applyEnvOverrides()
	settings.normalize()
	return settings
}

func (s *Settings) applyEnvOverrides() {
	if host := strings.TrimSpace(os.Getenv(EnvHost)); host != "" {
		s.Host = host
	}
	if port := strings.TrimSpace(os.Getenv(EnvPort)); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			s.Port = parsed
		}
	}
	if secret := os.Getenv(EnvJWTSecret); secret != "" {
		s.JWTSecret = secret
	}
	if dsn := strings.TrimSpace(os.Getenv(EnvMySQLDSN)); dsn != "" {
		s.MySQLDSN = dsn
	}
	if url := strings.TrimSpace(os.Getenv(EnvAMQPURL)); url != "" {
		s.AMQPURL = url
	}
	if queue := strings.TrimSpace(os.Getenv(EnvQueue)); queue != "" {
		s.Queue = queue
	}
}

func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port != 0 && !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.Queue == "" {
		s.Queue = DefaultQueue
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

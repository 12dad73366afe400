// Package draftstore persists the in-progress profile draft under a fixed
// logical key. Every backend treats unreadable content as absent.
package draftstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profile"
)

var nopLogger = zap.NewNop()

// ErrNotFound is returned when no draft is stored, or the stored content
// cannot be decoded.
var ErrNotFound = errors.New("draftstore: draft not found")

// DefaultKey is the logical key drafts are stored under.
const DefaultKey = "profile_form_draft"

// Store persists a single draft.
type Store interface {
	Load() (profile.Draft, error)
	Save(profile.Draft) error
	Clear() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Key      string
	Dir      string
	RedisURL string
	Logger   *zap.Logger
}

// Open constructs the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("draftstore: file backend requires a directory")
		}
		return NewFileStore(opts.Dir, key, logger), nil
	case BackendSQLite:
		if opts.Dir == "" {
			return nil, fmt.Errorf("draftstore: sqlite backend requires a directory")
		}
		return OpenSQLite(opts.Dir, key, logger)
	case BackendRedis:
		return OpenRedis(opts.RedisURL, key, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("draftstore: unknown backend %q", opts.Backend)
	}
}

func encode(d profile.Draft) ([]byte, error) {
	return json.MarshalIndent(d.Normalized(), "", "  ")
}

// decode maps any undecodable payload to ErrNotFound and logs it, so a corrupt
// draft never blocks startup.
func decode(data []byte, logger *zap.Logger, backend string) (profile.Draft, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return profile.Draft{}, ErrNotFound
	}
	var d profile.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		logger.Warn("discarding unreadable draft",
			zap.String("backend", backend),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return profile.Draft{}, ErrNotFound
	}
	return d.Normalized(), nil
}

package draftstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/kingrea/profile-wizard/internal/profile"
)

// SQLiteStore keeps drafts in a small SQLite database, one row per key.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	key    string
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLite creates or opens <dir>/drafts.db.
func OpenSQLite(dir, key string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dbPath := filepath.Join(dir, "drafts.db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("draftstore: create dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("draftstore: open sqlite: %w", err)
	}
	store := &SQLiteStore{db: db, dbPath: dbPath, key: key, logger: logger, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("draftstore: init sqlite schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS drafts (
		key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load() (profile.Draft, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM drafts WHERE key = ?`, s.key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Draft{}, ErrNotFound
	}
	if err != nil {
		return profile.Draft{}, fmt.Errorf("draftstore: query draft: %w", err)
	}
	return decode([]byte(body), s.logger, BackendSQLite)
}

func (s *SQLiteStore) Save(d profile.Draft) error {
	encoded, err := encode(d)
	if err != nil {
		return fmt.Errorf("draftstore: encode draft: %w", err)
	}
	_, err = s.db.Exec(`
	INSERT INTO drafts (key, body, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		s.key, string(encoded), s.now().UTC())
	if err != nil {
		return fmt.Errorf("draftstore: save draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM drafts WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("draftstore: clear draft: %w", err)
	}
	return nil
}

// writeRaw stores body verbatim under the store key.
func (s *SQLiteStore) writeRaw(body string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO drafts (key, body, updated_at) VALUES (?, ?, ?)`, s.key, body, s.now().UTC())
	return err
}

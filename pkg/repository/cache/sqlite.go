package cache

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS case_snapshots (
	cache_key   TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	captured_at TEXT NOT NULL,
	updated_at  TEXT NOT NULL
)`

// SQLite keeps the snapshot in an embedded database file. A snapshot is a
// single row, so an overwrite is one atomic statement.
type SQLite struct {
	db   *sql.DB
	path string
	key  string
	opts options
}

var _ interfaces.CacheStore = &SQLite{}

func NewSQLite(path, key string, opts ...Option) (*SQLite, error) {
	if key == "" {
		return nil, goerr.New("cache key is required", goerr.V("path", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, goerr.Wrap(err, "failed to create cache directory", goerr.V("path", path))
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open cache database", goerr.V("path", path))
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to initialize cache database",
				goerr.V("path", path),
				goerr.V("statement", stmt))
		}
	}

	return &SQLite{
		db:   db,
		path: path,
		key:  key,
		opts: newOptions(opts),
	}, nil
}

func (s *SQLite) Get(ctx context.Context) (*model.CaseSnapshot, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM case_snapshots WHERE cache_key = ?", s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read cache snapshot", goerr.V(KeyName, s.key))
	}
	return decode(s.key, raw)
}

func (s *SQLite) Put(ctx context.Context, snapshot *model.CaseSnapshot) error {
	raw, err := s.opts.encode(s.key, snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO case_snapshots (cache_key, payload, captured_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload,
			captured_at = excluded.captured_at,
			updated_at = excluded.updated_at`,
		s.key, raw,
		snapshot.CapturedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return goerr.Wrap(err, "failed to write cache snapshot", goerr.V(KeyName, s.key), goerr.V(SizeKey, len(raw)))
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM case_snapshots WHERE cache_key = ?", s.key); err != nil {
		return goerr.Wrap(err, "failed to clear cache snapshot", goerr.V(KeyName, s.key))
	}
	return nil
}

func (s *SQLite) HasData(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM case_snapshots WHERE cache_key = ?)", s.key).Scan(&exists)
	if err != nil {
		return false, goerr.Wrap(err, "failed to check cache snapshot", goerr.V(KeyName, s.key))
	}
	return exists, nil
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close cache database", goerr.V("path", s.path))
	}
	return nil
}

// Package store persists reader sessions in SQLite key/value table
// namespaced by story.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Well known keys.
const (
	KeySaveState = "save-state"
	KeyTheme     = "theme"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	story   TEXT NOT NULL,
	key     TEXT NOT NULL,
	value   TEXT NOT NULL,
	updated INTEGER NOT NULL,
	PRIMARY KEY (story, key)
)`

// Store is SQLite backed key/value storage. Single connection is shared and
// guarded by mutex.
type Store struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	path string
	log  *zap.Logger
}

// Open opens (creating if necessary) database at path. Empty path opens
// in-memory database which lives until Close.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	var (
		conn *sqlite.Conn
		err  error
	)
	if path == "" {
		conn, err = sqlite.OpenConn(":memory:", sqlite.OpenReadWrite, sqlite.OpenMemory)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("unable to create storage directory: %w", err)
		}
		conn, err = sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open storage %q: %w", path, err)
	}

	s := &Store{conn: conn, path: path, log: log.Named("store")}
	if err := s.exec(ctx, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to prepare storage schema: %w", err)
	}
	s.log.Debug("Storage opened", zap.String("path", path))
	return s, nil
}

// Close releases database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// Get returns value stored for story under key.
func (s *Store) Get(ctx context.Context, story, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.exec(ctx, `SELECT value FROM kv WHERE story = ? AND key = ?`, func(stmt *sqlite.Stmt) error {
		value, found = stmt.ColumnText(0), true
		return nil
	}, story, key)
	if err != nil {
		return "", false, fmt.Errorf("unable to read %q: %w", key, err)
	}
	return value, found, nil
}

// Set stores value for story under key replacing previous one.
func (s *Store) Set(ctx context.Context, story, key, value string) error {
	err := s.exec(ctx, `INSERT INTO kv (story, key, value, updated) VALUES (?, ?, ?, ?)
		ON CONFLICT (story, key) DO UPDATE SET value = excluded.value, updated = excluded.updated`,
		nil, story, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("unable to write %q: %w", key, err)
	}
	return nil
}

// Delete removes key of story, missing key is not an error.
func (s *Store) Delete(ctx context.Context, story, key string) error {
	if err := s.exec(ctx, `DELETE FROM kv WHERE story = ? AND key = ?`, nil, story, key); err != nil {
		return fmt.Errorf("unable to delete %q: %w", key, err)
	}
	return nil
}

// Keys lists keys stored for story.
func (s *Store) Keys(ctx context.Context, story string) ([]string, error) {
	var keys []string
	err := s.exec(ctx, `SELECT key FROM kv WHERE story = ? ORDER BY key`, func(stmt *sqlite.Stmt) error {
		keys = append(keys, stmt.ColumnText(0))
		return nil
	}, story)
	if err != nil {
		return nil, fmt.Errorf("unable to list keys: %w", err)
	}
	return keys, nil
}

// Bucket returns view of store limited to single story.
func (s *Store) Bucket(story string) *Bucket {
	return &Bucket{store: s, story: story}
}

func (s *Store) exec(ctx context.Context, query string, rows func(*sqlite.Stmt) error, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("storage is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(nil)

	if len(args) == 0 && rows == nil {
		return sqlitex.ExecuteTransient(s.conn, query, nil)
	}
	return sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{Args: args, ResultFunc: rows})
}

// Bucket is story namespaced view of Store.
type Bucket struct {
	store *Store
	story string
}

func (b *Bucket) Get(ctx context.Context, key string) (string, bool, error) {
	return b.store.Get(ctx, b.story, key)
}

func (b *Bucket) Set(ctx context.Context, key, value string) error {
	return b.store.Set(ctx, b.story, key, value)
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	return b.store.Delete(ctx, b.story, key)
}

// Story returns namespace of the bucket.
func (b *Bucket) Story() string {
	return b.story
}

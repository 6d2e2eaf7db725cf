// Package sqlite implements agents.UserStore on a local SQLite file using
// the pure-Go driver. Zero CGO required. Meant for development and tests;
// production agents normally use userstore/platform.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	agents "github.com/fixieai/agents-go"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// emits debug logs with timing for every operation. If not set, no logs
// are emitted.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store holds per-user key/value rows in a single SQLite file. Bind it to
// a user with User to get an agents.UserStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store using a local SQLite file at dbPath.
// It opens a single shared connection pool with SetMaxOpenConns(1) so that
// all goroutines serialize through one connection, eliminating SQLITE_BUSY
// errors caused by concurrent writers opening independent connections.
func New(dbPath string, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that cannot happen at runtime.
		panic(fmt.Sprintf("sqlite: open %s: %v", dbPath, err))
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: nopLogger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates the schema. Safe to call more than once.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_storage (
			user_id    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, key)
		)`)
	if err != nil {
		return fmt.Errorf("init user_storage: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// User returns the storage view bound to userID.
func (s *Store) User(userID string) agents.UserStore {
	return &userView{store: s, userID: userID}
}

// userView implements agents.UserStore for one user.
type userView struct {
	store  *Store
	userID string
}

var _ agents.UserStore = (*userView)(nil)

func (v *userView) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	s := v.store

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM user_storage WHERE user_id = ? AND key = ?`,
		v.userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, &agents.ErrKeyNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	s.logger.Debug("sqlite: get", "user", v.userID, "key", key, "bytes", len(value), "duration", time.Since(start))
	return value, nil
}

func (v *userView) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	s := v.store

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO user_storage (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		v.userID, key, value, agents.NowUnix())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	s.logger.Debug("sqlite: set", "user", v.userID, "key", key, "bytes", len(value), "duration", time.Since(start))
	return nil
}

func (v *userView) Delete(ctx context.Context, key string) error {
	_, err := v.store.db.ExecContext(ctx,
		`DELETE FROM user_storage WHERE user_id = ? AND key = ?`,
		v.userID, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (v *userView) Keys(ctx context.Context) ([]string, error) {
	rows, err := v.store.db.QueryContext(ctx,
		`SELECT key FROM user_storage WHERE user_id = ? ORDER BY key`, v.userID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("list keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (v *userView) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := v.store.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_storage WHERE user_id = ? AND key = ?`,
		v.userID, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}
	return true, nil
}

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

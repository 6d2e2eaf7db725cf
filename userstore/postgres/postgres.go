// Package postgres implements agents.UserStore using PostgreSQL, for
// self-hosted deployments that keep user data out of the platform.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	agents "github.com/fixieai/agents-go"
)

// Store holds per-user key/value rows in a user_storage table. Bind it to
// a user with User to get an agents.UserStore.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the schema. Safe to call more than once.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_storage (
			user_id    TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, key)
		)`)
	if err != nil {
		return fmt.Errorf("init user_storage: %w", err)
	}
	return nil
}

// User returns the storage view bound to userID.
func (s *Store) User(userID string) agents.UserStore {
	return &userView{pool: s.pool, userID: userID}
}

type userView struct {
	pool   *pgxpool.Pool
	userID string
}

var _ agents.UserStore = (*userView)(nil)

func (v *userView) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := v.pool.QueryRow(ctx,
		`SELECT value FROM user_storage WHERE user_id = $1 AND key = $2`,
		v.userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &agents.ErrKeyNotFound{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (v *userView) Set(ctx context.Context, key string, value []byte) error {
	_, err := v.pool.Exec(ctx, `
		INSERT INTO user_storage (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		v.userID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (v *userView) Delete(ctx context.Context, key string) error {
	_, err := v.pool.Exec(ctx,
		`DELETE FROM user_storage WHERE user_id = $1 AND key = $2`,
		v.userID, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (v *userView) Keys(ctx context.Context) ([]string, error) {
	rows, err := v.pool.Query(ctx,
		`SELECT key FROM user_storage WHERE user_id = $1 ORDER BY key`, v.userID)
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
	var exists bool
	err := v.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_storage WHERE user_id = $1 AND key = $2)`,
		v.userID, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}
	return exists, nil
}

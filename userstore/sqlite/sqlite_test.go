package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	agents "github.com/fixieai/agents-go"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "init.db"))
	defer s.Close()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestSetGetDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := s.User("user-1")

	value := []byte{0x00, 0x01, 0xff}
	if err := u.Set(ctx, "blob", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := u.Get(ctx, "blob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(got, value) {
		t.Errorf("Get = %v, want %v", got, value)
	}

	if err := u.Set(ctx, "blob", []byte("replaced")); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	got, _ = u.Get(ctx, "blob")
	if string(got) != "replaced" {
		t.Errorf("Get after replace = %q", got)
	}

	if err := u.Delete(ctx, "blob"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = u.Get(ctx, "blob")
	var missing *agents.ErrKeyNotFound
	if !errors.As(err, &missing) {
		t.Fatalf("Get after Delete error = %v, want *agents.ErrKeyNotFound", err)
	}
}

func TestUsersIsolated(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a, b := s.User("alice"), s.User("bob")
	if err := a.Set(ctx, "color", []byte("red")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := b.Get(ctx, "color"); err == nil {
		t.Error("bob can read alice's key")
	}
	ok, err := b.Has(ctx, "color")
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if ok {
		t.Error("Has across users = true")
	}
}

func TestKeysSorted(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u := s.User("user-1")

	for _, k := range []string{"zebra", "apple", "mango"} {
		if err := u.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	keys, err := u.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"apple", "mango", "zebra"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}
}

func TestSetWritesUpdatedAt(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	before := agents.NowUnix()
	if err := s.User("u").Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT updated_at FROM user_storage WHERE user_id = 'u' AND key = 'k'`).Scan(&ts)
	if err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if ts < before || ts > agents.NowUnix() {
		t.Errorf("updated_at = %d, want within [%d, now]", ts, before)
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	s := testStore(t)
	if err := s.User("u").Delete(context.Background(), "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

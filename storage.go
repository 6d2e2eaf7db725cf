package agents

import "context"

// UserStore is persistent key/value storage scoped to a single user.
// Implementations live in userstore/ (platform-backed, sqlite, postgres);
// each instance is already bound to one user, so methods take only the key.
//
// Values are opaque bytes. Get on a missing key fails with *ErrKeyNotFound.
type UserStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Has(ctx context.Context, key string) (bool, error)
}

// UserStoreProvider yields the storage bound to the user behind an access
// token. The serving layer calls it once per query; implementations are
// typically cheap constructors (a platform client struct, a sqlite view).
type UserStoreProvider func(accessToken string) UserStore

// FixedUserStore adapts a single store into a provider that ignores the
// access token. Meant for local development and tests.
func FixedUserStore(s UserStore) UserStoreProvider {
	return func(string) UserStore { return s }
}

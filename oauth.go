package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// oauthTokenKey is the user-storage key tokens persist under.
const oauthTokenKey = "oauth_token"

// OAuthParams declares the third-party authorization server an agent's
// funcs acquire tokens from.
type OAuthParams struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// OAuthHandler runs the authorization-code flow against the configured
// server and persists per-user tokens in user storage. It holds no mutable
// state and is safe for concurrent use.
type OAuthHandler struct {
	cfg oauth2.Config
}

// NewOAuthHandler creates a handler for the given parameters.
func NewOAuthHandler(p OAuthParams) *OAuthHandler {
	return &OAuthHandler{
		cfg: oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Scopes:       p.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  p.AuthURL,
				TokenURL: p.TokenURL,
			},
		},
	}
}

// AuthorizeURL returns the URL a user visits to grant access. The state
// value round-trips through the authorization server; callers use it to
// correlate the callback with the originating user.
func (h *OAuthHandler) AuthorizeURL(state string) string {
	return h.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (h *OAuthHandler) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := h.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return tok, nil
}

// SaveToken persists tok in the user's storage.
func (h *OAuthHandler) SaveToken(ctx context.Context, store UserStore, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("oauth: marshal token: %w", err)
	}
	return store.Set(ctx, oauthTokenKey, data)
}

// UserToken returns a valid token for the user behind store, refreshing an
// expired one through the token endpoint and persisting the refreshed
// value. A user who never completed the flow yields *ErrKeyNotFound;
// callers typically respond with AuthorizeURL.
func (h *OAuthHandler) UserToken(ctx context.Context, store UserStore) (*oauth2.Token, error) {
	data, err := store.Get(ctx, oauthTokenKey)
	if err != nil {
		return nil, err
	}
	var stored oauth2.Token
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("oauth: unmarshal stored token: %w", err)
	}

	tok, err := h.cfg.TokenSource(ctx, &stored).Token()
	if err != nil {
		return nil, fmt.Errorf("oauth: refresh token: %w", err)
	}
	if tok.AccessToken != stored.AccessToken {
		if err := h.SaveToken(ctx, store, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// HasToken reports whether the user behind store completed the flow.
func (h *OAuthHandler) HasToken(ctx context.Context, store UserStore) (bool, error) {
	_, err := store.Get(ctx, oauthTokenKey)
	var missing *ErrKeyNotFound
	if errors.As(err, &missing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

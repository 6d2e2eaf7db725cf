// Package platform implements agents.UserStore against the Fixie
// platform's hosted user-storage API.
//
// Each Client is bound to one agent and one user access token; the serving
// layer constructs one per query via agents.WithUserStore:
//
//	agents.WithUserStore(func(token string) agents.UserStore {
//		return platform.New(cfg.Platform.APIURL, cfg.Agent.ID, token)
//	})
package platform

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	agents "github.com/fixieai/agents-go"
)

// Client implements agents.UserStore over the platform REST API.
type Client struct {
	baseURL     string
	agentID     string
	accessToken string
	client      *http.Client
	logger      *slog.Logger
}

var _ agents.UserStore = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for storage calls. Use this to
// impose a timeout; the default client has none.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithLogger sets a structured logger. When set, the client emits debug
// logs with timing for every storage call. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a storage client for the given platform URL
// (e.g. "https://api.fixie.ai"), agent ID, and user access token.
func New(baseURL, agentID, accessToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		agentID:     agentID,
		accessToken: accessToken,
		client:      http.DefaultClient,
		logger:      nopLogger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// wireValue wraps stored bytes for JSON transport.
type wireValue struct {
	Data string `json:"data"`
}

func (c *Client) keyURL(key string) string {
	return fmt.Sprintf("%s/api/userstorage/%s/%s",
		c.baseURL, url.PathEscape(c.agentID), url.PathEscape(key))
}

func (c *Client) listURL() string {
	return fmt.Sprintf("%s/api/userstorage/%s", c.baseURL, url.PathEscape(c.agentID))
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, fmt.Errorf("user storage: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user storage: %s %s: %w", method, rawURL, err)
	}
	return resp, nil
}

// Get implements agents.UserStore.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	resp, err := c.do(ctx, http.MethodGet, c.keyURL(key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &agents.ErrKeyNotFound{Key: key}
	case resp.StatusCode != http.StatusOK:
		return nil, &agents.ErrUnexpectedStatus{Status: resp.StatusCode, URI: c.keyURL(key)}
	}

	var w wireValue
	if err := json.NewDecoder(resp.Body).Decode(&w); err != nil {
		return nil, fmt.Errorf("user storage: decode value: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(w.Data)
	if err != nil {
		return nil, fmt.Errorf("user storage: decode value data: %w", err)
	}
	c.logger.Debug("userstorage: get", "key", key, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

// Set implements agents.UserStore.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	body, err := json.Marshal(wireValue{Data: base64.StdEncoding.EncodeToString(value)})
	if err != nil {
		return fmt.Errorf("user storage: encode value: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, c.keyURL(key), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &agents.ErrUnexpectedStatus{Status: resp.StatusCode, URI: c.keyURL(key)}
	}
	c.logger.Debug("userstorage: set", "key", key, "bytes", len(value), "duration", time.Since(start))
	return nil
}

// Delete implements agents.UserStore. Deleting a missing key is a no-op.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.keyURL(key), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &agents.ErrUnexpectedStatus{Status: resp.StatusCode, URI: c.keyURL(key)}
	}
	return nil
}

// Keys implements agents.UserStore.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, c.listURL(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &agents.ErrUnexpectedStatus{Status: resp.StatusCode, URI: c.listURL()}
	}
	var keys []string
	if err := json.NewDecoder(resp.Body).Decode(&keys); err != nil {
		return nil, fmt.Errorf("user storage: decode key list: %w", err)
	}
	return keys, nil
}

// Has implements agents.UserStore.
func (c *Client) Has(ctx context.Context, key string) (bool, error) {
	resp, err := c.do(ctx, http.MethodHead, c.keyURL(key), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	default:
		return false, &agents.ErrUnexpectedStatus{Status: resp.StatusCode, URI: c.keyURL(key)}
	}
}

// nopLogger discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

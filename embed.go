package agents

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Embed is a single binary or text attachment with a MIME content-type tag.
// An Embed is immutable once constructed: build it with NewEmbed from
// base64-encoded bytes already in hand, or with FetchEmbed to download the
// bytes from a remote URI. Either way the payload is fully resident in
// memory afterwards and no further network access occurs.
type Embed struct {
	contentType string
	data        string // base64-encoded payload
}

// NewEmbed creates an Embed from base64-encoded data with the given MIME
// content type (e.g. "image/png").
//
// A payload that itself parses as a URI fails with *ErrInvalidPayload: that
// almost always means the caller meant FetchEmbed. This is a best-effort
// guard against a common mistake, not full base64 validation — malformed
// base64 that is not URI-shaped is only caught later, by Bytes.
func NewEmbed(contentType, base64Data string) (*Embed, error) {
	if looksLikeURI(base64Data) {
		return nil, &ErrInvalidPayload{Payload: base64Data}
	}
	return &Embed{contentType: contentType, data: base64Data}, nil
}

// fetchConfig holds FetchEmbed configuration set via FetchOption functions.
type fetchConfig struct {
	client *http.Client
}

// FetchOption configures a FetchEmbed call.
type FetchOption func(*fetchConfig)

// WithHTTPClient sets the client used for the fetch. Use this to impose a
// timeout or custom transport; the default is http.DefaultClient, which has
// no timeout of its own.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(cfg *fetchConfig) { cfg.client = c }
}

// FetchEmbed downloads the resource at uri with a single HTTP GET and
// returns an Embed holding its body, base64-encoded, tagged with
// contentType. The call blocks until the response arrives or ctx is
// cancelled.
//
// Any status other than 200 fails with *ErrUnexpectedStatus. Transport
// failures are returned as wrapped errors. There is no retry and no partial
// result: either the whole body is captured or no Embed is produced.
func FetchEmbed(ctx context.Context, contentType, uri string, opts ...FetchOption) (*Embed, error) {
	cfg := fetchConfig{client: http.DefaultClient}
	for _, o := range opts {
		o(&cfg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch embed: %w", err)
	}
	resp, err := cfg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch embed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrUnexpectedStatus{Status: resp.StatusCode, URI: uri}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch embed: read body: %w", err)
	}

	return &Embed{
		contentType: contentType,
		data:        base64.StdEncoding.EncodeToString(body),
	}, nil
}

// ContentType returns the embed's MIME content type.
func (e *Embed) ContentType() string { return e.contentType }

// Base64 returns the payload as base64 text, exactly as stored.
func (e *Embed) Base64() string { return e.data }

// Bytes decodes the stored base64 payload into raw bytes.
// Malformed base64 fails with *ErrDecode.
func (e *Embed) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(e.data)
	if err != nil {
		return nil, &ErrDecode{Err: err}
	}
	return b, nil
}

// looksLikeURI reports whether s parses as a URI with a scheme and some
// authority or path, e.g. "https://example.com/x" or "data:text/plain,hi".
// Base64 text never contains ':' so real payloads cannot match.
func looksLikeURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "" || u.Path != "")
}

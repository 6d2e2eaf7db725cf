package agents

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewEmbedValidBase64(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		data        string
	}{
		{"text payload", "text/plain", base64.StdEncoding.EncodeToString([]byte("hello world"))},
		{"binary payload", "image/png", base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})},
		{"empty payload", "application/octet-stream", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEmbed(tt.contentType, tt.data)
			if err != nil {
				t.Fatalf("NewEmbed: %v", err)
			}
			if got := e.ContentType(); got != tt.contentType {
				t.Errorf("ContentType() = %q, want %q", got, tt.contentType)
			}
			if got := e.Base64(); got != tt.data {
				t.Errorf("Base64() = %q, want %q", got, tt.data)
			}
		})
	}
}

func TestNewEmbedRejectsURIShapedPayload(t *testing.T) {
	uris := []string{
		"https://example.com/x",
		"http://example.com/image.png?size=large",
		"ftp://files.example.com/data.bin",
		"data:text/plain;base64,aGVsbG8=",
	}
	for _, u := range uris {
		_, err := NewEmbed("image/png", u)
		if err == nil {
			t.Errorf("NewEmbed(%q) succeeded, want *ErrInvalidPayload", u)
			continue
		}
		var perr *ErrInvalidPayload
		if !errors.As(err, &perr) {
			t.Errorf("NewEmbed(%q) error = %v, want *ErrInvalidPayload", u, err)
		}
	}
}

// The URI check is a best-effort guard, not base64 validation: strings that
// are neither valid base64 nor URI-shaped still construct, and only fail
// later when Bytes is called.
func TestNewEmbedHeuristicLetsMalformedBase64Through(t *testing.T) {
	e, err := NewEmbed("text/plain", "not!base64!")
	if err != nil {
		t.Fatalf("NewEmbed: %v", err)
	}
	if _, err := e.Bytes(); err == nil {
		t.Fatal("Bytes() on malformed base64 succeeded, want *ErrDecode")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox \x00\x01\x02")
	b64 := base64.StdEncoding.EncodeToString(raw)

	e, err := NewEmbed("application/octet-stream", b64)
	if err != nil {
		t.Fatalf("NewEmbed: %v", err)
	}
	got, err := e.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Bytes() = %v, want %v", got, raw)
	}
	if re := base64.StdEncoding.EncodeToString(got); re != b64 {
		t.Errorf("re-encoded = %q, want %q", re, b64)
	}
}

func TestBytesDecodeError(t *testing.T) {
	e, err := NewEmbed("text/plain", "!!!!")
	if err != nil {
		t.Fatalf("NewEmbed: %v", err)
	}
	_, err = e.Bytes()
	var derr *ErrDecode
	if !errors.As(err, &derr) {
		t.Fatalf("Bytes() error = %v, want *ErrDecode", err)
	}
}

func TestFetchEmbed(t *testing.T) {
	body := []byte("fetched binary content \xff\xfe")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Write(body)
	}))
	defer srv.Close()

	e, err := FetchEmbed(context.Background(), "image/jpeg", srv.URL)
	if err != nil {
		t.Fatalf("FetchEmbed: %v", err)
	}
	if got := e.ContentType(); got != "image/jpeg" {
		t.Errorf("ContentType() = %q, want %q", got, "image/jpeg")
	}
	got, err := e.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Bytes() = %v, want %v", got, body)
	}
}

func TestFetchEmbedNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := FetchEmbed(context.Background(), "image/png", srv.URL)
	if e != nil {
		t.Error("expected nil Embed on fetch failure")
	}
	var serr *ErrUnexpectedStatus
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *ErrUnexpectedStatus", err)
	}
	if serr.Status != 404 {
		t.Errorf("Status = %d, want 404", serr.Status)
	}
}

func TestFetchEmbedTransportFailure(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := FetchEmbed(context.Background(), "image/png", url)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var serr *ErrUnexpectedStatus
	if errors.As(err, &serr) {
		t.Errorf("transport failure surfaced as *ErrUnexpectedStatus: %v", err)
	}
}

func TestFetchEmbedHonorsCallerClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	_, err := FetchEmbed(context.Background(), "text/plain", srv.URL, WithHTTPClient(client))
	if err == nil {
		t.Fatal("expected timeout from caller-supplied client")
	}
}

func TestLooksLikeURI(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/x", true},
		{"data:text/plain,hi", true},
		{"aGVsbG8gd29ybGQ=", false},
		{"", false},
		{"SGVsbG8vV29ybGQrZm9v", false},
	}
	for _, tt := range tests {
		if got := looksLikeURI(tt.in); got != tt.want {
			t.Errorf("looksLikeURI(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

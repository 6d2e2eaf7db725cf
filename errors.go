package agents

import "fmt"

// ErrInvalidPayload reports an inline embed payload that is URI-shaped.
// Callers who hold a URI should use FetchEmbed instead of NewEmbed.
type ErrInvalidPayload struct {
	Payload string
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("embed payload %q looks like a URI; use FetchEmbed for remote content", e.Payload)
}

// ErrUnexpectedStatus reports a non-200 response from a remote endpoint.
type ErrUnexpectedStatus struct {
	Status int
	URI    string
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("%s: http %d", e.URI, e.Status)
}

// ErrDecode reports stored embed data that is not valid base64.
type ErrDecode struct {
	Err error
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("decode embed data: %v", e.Err)
}

func (e *ErrDecode) Unwrap() error { return e.Err }

// ErrKeyNotFound reports a missing key in per-user storage.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("user storage: key %q not found", e.Key)
}

// ErrUnknownFunc reports a query for a func the agent never registered.
type ErrUnknownFunc struct {
	Name string
}

func (e *ErrUnknownFunc) Error() string {
	return fmt.Sprintf("unknown func %q", e.Name)
}

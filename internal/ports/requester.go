package ports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request describes one call against the backend API. Endpoint is relative
// to the configured base URL.
type Request struct {
	Method   string
	Endpoint string
	Data     any
	Headers  http.Header
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Requester issues authenticated backend requests.
type Requester interface {
	Request(ctx context.Context, req Request) (*Response, error)
}

// SessionCredentials is what the request gateway needs from the session: the
// bearer token and the ability to end the session when the backend rejects it.
type SessionCredentials interface {
	Token() string
	Logout(ctx context.Context, forced bool) error
}

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tinytrail/internal/pkg/apierr"
)

// CredentialSource yields the credential to attach at send time. A read
// happening after a suspension point must see the value as of resumption,
// which is why the dispatcher re-reads on every call instead of capturing.
type CredentialSource interface {
	Current() string
}

// Dispatcher builds and sends every outbound request. It attaches the bearer
// credential when one is active, tags each delivery with a request ID, and
// passes HTTP results through without interpretation.
type Dispatcher struct {
	baseURL string
	client  *http.Client
	source  CredentialSource
}

func NewDispatcher(baseURL string, timeout time.Duration, source CredentialSource) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		source:  source,
	}
}

// Response is the raw transport result. Non-success statuses are not errors
// at this layer; callers decide what a status means for them.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// ServerError interprets a non-success response, pulling the message from
// the body when the server supplied one. Returns nil for 2xx.
func (r *Response) ServerError() *apierr.ServerError {
	if r.OK() {
		return nil
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(r.Body, &body)
	return apierr.NewServerError(r.Status, body.Message)
}

// DecodeJSON unmarshals the body. A body that does not match the expected
// envelope is a transport-level failure, not a server error.
func (r *Response) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &apierr.TransportError{Err: err}
	}
	return nil
}

// Dispatch sends one request. body, when non-nil, is JSON encoded. The
// returned error is always a transport-level failure; any HTTP response,
// success or not, comes back as a *Response.
func (d *Dispatcher) Dispatch(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := d.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	// Credential read happens here, at send time, never earlier.
	if credential := d.source.Current(); credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		log.Debug().Str("request_id", requestID).Str("method", method).Str("path", path).Msg("transport failure")
		return nil, &apierr.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apierr.TransportError{Err: err}
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("request complete")

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

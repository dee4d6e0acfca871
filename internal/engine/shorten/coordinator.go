package shorten

import (
	"context"
	"net/http"
	"strings"

	"tinytrail/internal/pkg/apierr"
	"tinytrail/internal/platform/session"
	"tinytrail/internal/transport"
)

// URLMapping is one of the caller's shortened links as the backend reports it.
type URLMapping struct {
	ID          int64  `json:"id"`
	ShortURL    string `json:"shortUrl"`
	OriginalURL string `json:"originalUrl"`
	ClickCount  int64  `json:"clickCount"`
	CreatedDate string `json:"createdDate"`
	Username    string `json:"username"`
}

// Coordinator submits long URLs for shortening and lists the caller's links.
// Both operations require an active credential and fail fast without one.
type Coordinator struct {
	dispatcher *transport.Dispatcher
	store      *session.Store
	clientBase string
}

func NewCoordinator(dispatcher *transport.Dispatcher, store *session.Store, clientBase string) *Coordinator {
	return &Coordinator{
		dispatcher: dispatcher,
		store:      store,
		clientBase: strings.TrimRight(clientBase, "/"),
	}
}

type shortenRequest struct {
	OriginalURL string `json:"originalUrl"`
}

type shortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

// Shorten submits one long URL and returns the composed short URL. The
// server issues a path suffix; the client origin completes it.
func (c *Coordinator) Shorten(ctx context.Context, originalURL string) (string, error) {
	if !c.store.Authenticated() {
		return "", apierr.ErrCredentialMissing
	}

	resp, err := c.dispatcher.Dispatch(ctx, http.MethodPost, "/api/urls/shorten", nil, shortenRequest{OriginalURL: originalURL})
	if err != nil {
		return "", err
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return "", serverErr
	}

	var body shortenResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return "", err
	}
	return c.Compose(body.ShortURL), nil
}

// MyURLs lists the caller's shortened links.
func (c *Coordinator) MyURLs(ctx context.Context) ([]URLMapping, error) {
	if !c.store.Authenticated() {
		return nil, apierr.ErrCredentialMissing
	}

	resp, err := c.dispatcher.Dispatch(ctx, http.MethodGet, "/api/urls/myurls", nil, nil)
	if err != nil {
		return nil, err
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return nil, serverErr
	}

	var mappings []URLMapping
	if err := resp.DecodeJSON(&mappings); err != nil {
		return nil, err
	}
	return mappings, nil
}

// Compose joins a server-issued suffix with the client origin. A suffix that
// is already absolute passes through untouched.
func (c *Coordinator) Compose(suffix string) string {
	if strings.HasPrefix(suffix, "http://") || strings.HasPrefix(suffix, "https://") {
		return suffix
	}
	return c.clientBase + "/" + strings.TrimLeft(suffix, "/")
}

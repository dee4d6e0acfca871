package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"tinytrail/internal/pkg/apierr"
	"tinytrail/internal/platform/session"
	"tinytrail/internal/transport"
)

// Service drives the public auth endpoints and keeps the session store in
// step with their outcomes.
type Service struct {
	dispatcher *transport.Dispatcher
	store      *session.Store
}

func NewService(dispatcher *transport.Dispatcher, store *session.Store) *Service {
	return &Service{dispatcher: dispatcher, store: store}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and activates it in the
// session store.
func (s *Service) Login(ctx context.Context, username, password string) error {
	resp, err := s.dispatcher.Dispatch(ctx, http.MethodPost, "/api/auth/public/login", nil, LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return err
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return serverErr
	}

	var body loginResponse
	if err := resp.DecodeJSON(&body); err != nil {
		return err
	}
	if body.Token == "" {
		return &apierr.TransportError{Err: errors.New("login response carried no token")}
	}

	if err := s.store.Login(body.Token); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("logged in")
	return nil
}

// Register creates an account. The backend issues no token here; the caller
// logs in separately.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	resp, err := s.dispatcher.Dispatch(ctx, http.MethodPost, "/api/auth/public/register", nil, RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if serverErr := resp.ServerError(); serverErr != nil {
		return serverErr
	}
	log.Info().Str("username", username).Msg("registered")
	return nil
}

// Logout discards the active credential.
func (s *Service) Logout() {
	s.store.Logout()
	log.Info().Msg("logged out")
}

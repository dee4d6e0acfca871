package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tinytrail/internal/pkg/apierr"
)

// Identity is what the client can read out of its own token for display.
// The decode is unverified; only the server validates credentials.
type Identity struct {
	Username  string
	ExpiresAt time.Time
}

func (s *Store) Identity() (*Identity, error) {
	credential := s.Current()
	if credential == "" {
		return nil, apierr.ErrCredentialMissing
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil, err
	}

	identity := &Identity{}
	if subject, err := claims.GetSubject(); err == nil {
		identity.Username = subject
	}
	if expiry, err := claims.GetExpirationTime(); err == nil && expiry != nil {
		identity.ExpiresAt = expiry.Time
	}
	return identity, nil
}

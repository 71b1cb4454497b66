// Package auth derives the signed-in user from the bearer token issued by the
// authentication provider.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken  = errors.New("no bearer token configured")
	ErrNoUserID = errors.New("token carries no subject and no user_id is configured")
)

// Session is the identity every gateway call is scoped to.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token has a known expiry in the past.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// NewSession builds a session from token. The signature is not checked here;
// the backend verifies it on every request. userID, when set, overrides the
// token subject, which allows opaque tokens.
func NewSession(token, userID string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrNoToken
	}
	s := Session{Token: token, UserID: strings.TrimSpace(userID)}

	claims := jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err == nil {
		if s.UserID == "" {
			s.UserID = claims.Subject
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
	}

	if s.UserID == "" {
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrNoUserID, err)
		}
		return Session{}, ErrNoUserID
	}
	return s, nil
}

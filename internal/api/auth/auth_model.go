package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var ErrUnauthenticated = errors.New("authentication required or invalid credentials")

type contextKey string

const (
	SessionIDKey contextKey = "sessionID"
	IdentityKey  contextKey = "identity"
)

// SessionCookieName carries the session id for browser clients.
const SessionCookieName = "trip_session"

// Claims is the JWT payload handed to API clients after sign-in.
type Claims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	Provider  string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// TokenResponse is returned by the OAuth callback.
type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	SessionID   string         `json:"session_id"`
	Identity    types.Identity `json:"identity"`
}

// SessionIDFromContext returns the session resolved by Authenticate.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(SessionIDKey).(string)
	return sid, ok && sid != ""
}

// IdentityFromContext returns the signed-in identity, if any.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(types.Identity)
	return id, ok
}

// WithSession stores the session id and optional identity on ctx.
func WithSession(ctx context.Context, sessionID string, identity *types.Identity) context.Context {
	ctx = context.WithValue(ctx, SessionIDKey, sessionID)
	if identity != nil {
		ctx = context.WithValue(ctx, IdentityKey, *identity)
	}
	return ctx
}

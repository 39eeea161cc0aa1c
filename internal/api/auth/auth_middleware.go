package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// Authenticate resolves the caller's session from a bearer token or the
// session cookie. Anonymous callers get a fresh session cookie; the identity
// is only attached when the session is signed in.
func Authenticate(logger *slog.Logger, tokens *TokenService, sessions *SessionProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				headerParts := strings.Split(authHeader, " ")
				if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
					l.WarnContext(ctx, "Invalid Authorization header format")
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
					return
				}
				claims, err := tokens.ParseToken(headerParts[1])
				if err != nil {
					l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusUnauthorized, tokenErrorMessage(err))
					return
				}

				identity, ok := sessions.CurrentIdentity(claims.SessionID)
				if !ok {
					// token outlived the in-memory session
					identity = claims.Identity()
					sessions.SignIn(claims.SessionID, identity)
				}
				next.ServeHTTP(w, r.WithContext(WithSession(ctx, claims.SessionID, &identity)))
				return
			}

			sessionID := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				sessionID = c.Value
			}
			if sessionID == "" {
				sessionID = ulid.Make().String()
				SetSessionCookie(w, r, sessionID)
				l.DebugContext(ctx, "Started anonymous session", slog.String("session_id", sessionID))
			}

			var identity *types.Identity
			if id, ok := sessions.CurrentIdentity(sessionID); ok {
				identity = &id
			}
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sessionID, identity)))
		})
	}
}

// RequireIdentity rejects requests whose session is not signed in. The
// response carries the sign-in URL of the caller's session.
func RequireIdentity(sessions *SessionProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			sessionID, _ := SessionIDFromContext(r.Context())
			api.WriteErrorWith(w, r, types.ErrAuthRequired, map[string]any{
				"sign_in_url": sessions.SignInURL(sessionID),
			})
		})
	}
}

func SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	}
	return "Invalid or expired token"
}

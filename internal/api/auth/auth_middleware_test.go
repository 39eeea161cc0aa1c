package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

type captured struct {
	sessionID string
	identity  *types.Identity
}

func captureHandler(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.sessionID, _ = SessionIDFromContext(r.Context())
		if id, ok := IdentityFromContext(r.Context()); ok {
			c.identity = &id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	sessions := setupSessionProviderTest()
	tokens := setupTokenServiceTest(t)
	mw := Authenticate(discardLogger(), tokens, sessions)

	t.Run("AnonymousGetsSessionCookie", func(t *testing.T) {
		var c captured
		w := httptest.NewRecorder()
		mw(captureHandler(&c)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, c.sessionID)
		assert.Nil(t, c.identity)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Equal(t, c.sessionID, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("CookieSessionSignedIn", func(t *testing.T) {
		sessions.SignIn("cookie-session", types.Identity{Email: "alice@example.com"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-session"})

		var c captured
		w := httptest.NewRecorder()
		mw(captureHandler(&c)).ServeHTTP(w, req)

		assert.Equal(t, "cookie-session", c.sessionID)
		require.NotNil(t, c.identity)
		assert.Equal(t, "alice@example.com", c.identity.Email)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("BearerRestoresSession", func(t *testing.T) {
		token, err := tokens.IssueToken("bearer-session", types.Identity{Email: "bob@example.com"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		var c captured
		w := httptest.NewRecorder()
		mw(captureHandler(&c)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "bearer-session", c.sessionID)
		require.NotNil(t, c.identity)
		assert.Equal(t, "bob@example.com", c.identity.Email)

		restored, ok := sessions.CurrentIdentity("bearer-session")
		require.True(t, ok)
		assert.Equal(t, "bob@example.com", restored.Email)
	})

	t.Run("InvalidBearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")

		var c captured
		w := httptest.NewRecorder()
		mw(captureHandler(&c)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, c.sessionID)
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Token abc")

		w := httptest.NewRecorder()
		mw(captureHandler(&captured{})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireIdentity(t *testing.T) {
	sessions := setupSessionProviderTest()
	mw := RequireIdentity(sessions)

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), "s1", nil))
		w := httptest.NewRecorder()
		mw(captureHandler(&captured{})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "AuthRequired", body["kind"])
		assert.Equal(t, "http://localhost:8000/auth/google?session_id=s1", body["sign_in_url"])
	})

	t.Run("SignedIn", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), "s1", &types.Identity{Email: "alice@example.com"}))
		w := httptest.NewRecorder()
		mw(captureHandler(&captured{})).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

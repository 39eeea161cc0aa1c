package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

const providerGoogle = "google"

// ConfigureProviders registers the Google provider and the cookie store
// gothic keeps its OAuth state in.
func ConfigureProviders(cfg config.OAuthConfig, secure bool) {
	goth.UseProviders(google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL, "email", "profile"))

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(int((15 * time.Minute).Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	gothic.GetProviderName = func(*http.Request) (string, error) {
		return providerGoogle, nil
	}
}

type HandlerImpl struct {
	logger   *slog.Logger
	sessions *SessionProvider
	tokens   *TokenService
}

func NewHandler(sessions *SessionProvider, tokens *TokenService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:   logger,
		sessions: sessions,
		tokens:   tokens,
	}
}

// BeginAuth godoc
// @Summary      Sign in with Google
// @Description  Redirects to Google. session_id binds the sign-in to a pending session, such as a generation waiting for auth.
// @Tags         auth
// @Param        session_id query string false "Session to sign in"
// @Success      307
// @Router       /auth/google [get]
func (h *HandlerImpl) BeginAuth(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID, _ = SessionIDFromContext(r.Context())
	}
	if sessionID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "session_id is required")
		return
	}
	// the callback reads the session back from this cookie
	SetSessionCookie(w, r, sessionID)
	gothic.BeginAuthHandler(w, r)
}

// Callback godoc
// @Summary      OAuth callback
// @Description  Completes Google sign-in, resumes any generation waiting on the session and returns an access token.
// @Tags         auth
// @Produce      json
// @Success      200 {object} TokenResponse
// @Failure      401 {object} map[string]string
// @Router       /auth/google/callback [get]
func (h *HandlerImpl) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Callback"))

	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		l.WarnContext(ctx, "OAuth sign-in failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Sign-in failed")
		return
	}
	sessionID, ok := SessionIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusBadRequest, "missing session")
		return
	}

	identity := identityFromUser(user)
	h.sessions.SignIn(sessionID, identity)

	token, err := h.tokens.IssueToken(sessionID, identity)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		SessionID:   sessionID,
		Identity:    identity,
	})
}

// Logout godoc
// @Summary      Sign out
// @Tags         auth
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := SessionIDFromContext(r.Context()); ok {
		h.sessions.SignOut(sessionID)
	}
	if err := gothic.Logout(w, r); err != nil {
		h.logger.DebugContext(r.Context(), "No OAuth session to clear", slog.Any("error", err))
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{"message": "signed out"})
}

// Me godoc
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200 {object} types.Identity
// @Failure      401 {object} map[string]any
// @Router       /auth/me [get]
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		sessionID, _ := SessionIDFromContext(r.Context())
		api.WriteErrorWith(w, r, types.ErrAuthRequired, map[string]any{
			"sign_in_url": h.sessions.SignInURL(sessionID),
		})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, identity)
}

func identityFromUser(user goth.User) types.Identity {
	return types.Identity{
		UserID:     user.UserID,
		Email:      user.Email,
		Name:       user.Name,
		PictureURL: user.AvatarURL,
		Provider:   user.Provider,
		SignedInAt: time.Now().UTC(),
	}
}

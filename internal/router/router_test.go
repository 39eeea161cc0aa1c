package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/auth"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/destinations"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/enrichment"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/trip"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

func setupRouterTest(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewTokenService(config.JWTConfig{SecretKey: "s", Issuer: "i", TTL: time.Hour})
	require.NoError(t, err)
	sessions := auth.NewSessionProvider("http://localhost:8000", time.Hour, logger)

	return SetupRouter(&Config{
		AuthHandler:         auth.NewHandler(sessions, tokens, logger),
		TripHandler:         &trip.HandlerImpl{},
		EnrichmentHandler:   &enrichment.HandlerImpl{},
		DestinationsHandler: &destinations.HandlerImpl{},
		Tokens:              tokens,
		Sessions:            sessions,
		Logger:              logger,
		GenerateRateLimit:   10,
	})
}

func TestSetupRouter_Routes(t *testing.T) {
	r := setupRouterTest(t)

	var got []string
	require.NoError(t, chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got = append(got, method+" "+strings.TrimSuffix(route, "/"))
		return nil
	}))
	sort.Strings(got)

	for _, want := range []string{
		"POST /api/v1/trips/generate",
		"GET /api/v1/trips/jobs/{jobID}",
		"DELETE /api/v1/trips/jobs/{jobID}",
		"POST /api/v1/trips/jobs/{jobID}/save",
		"GET /api/v1/trips",
		"DELETE /api/v1/trips",
		"GET /api/v1/trips/{tripID}",
		"GET /api/v1/trips/{tripID}/enriched",
		"DELETE /api/v1/trips/{tripID}",
		"POST /api/v1/trips/{tripID}/assistant",
		"POST /api/v1/destinations/suggest",
		"GET /api/v1/enrichment/image",
		"GET /api/v1/enrichment/weather",
		"GET /api/v1/enrichment/geocode",
		"GET /auth/google",
		"GET /auth/google/callback",
		"POST /auth/logout",
		"GET /auth/me",
		"GET /ping",
	} {
		assert.Contains(t, got, want)
	}
}

func TestSetupRouter_TripsRequireSignIn(t *testing.T) {
	r := setupRouterTest(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/trips/abc", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, string(types.KindAuthRequired), body["kind"])
	assert.Contains(t, body["sign_in_url"], "/auth/google?session_id=")
	assert.NotEmpty(t, rr.Result().Cookies(), "anonymous callers get a session cookie")
}

func TestSetupRouter_Ping(t *testing.T) {
	rr := httptest.NewRecorder()
	setupRouterTest(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

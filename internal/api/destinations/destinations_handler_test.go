package destinations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

type suggesterFunc func(ctx context.Context, prefs types.DestinationPreferences) ([]types.DestinationSuggestion, error)

func (f suggesterFunc) Suggest(ctx context.Context, prefs types.DestinationPreferences) ([]types.DestinationSuggestion, error) {
	return f(ctx, prefs)
}

func postSuggest(t *testing.T, h *HandlerImpl, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/destinations/suggest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.Suggest(rr, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr, out
}

func TestHandler_Suggest(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := NewHandler(suggesterFunc(func(_ context.Context, prefs types.DestinationPreferences) ([]types.DestinationSuggestion, error) {
			return []types.DestinationSuggestion{{Destination: "Lisbon, Portugal", MatchScore: 90}}, nil
		}), discardLogger())

		rr, body := postSuggest(t, h, `{"climate":"mild","vibe":"culture","budget":"mid","pace":"slow","crowd":"any"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		list, ok := body["suggestions"].([]any)
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("incomplete input is 400", func(t *testing.T) {
		h := NewHandler(suggesterFunc(func(context.Context, types.DestinationPreferences) ([]types.DestinationSuggestion, error) {
			return nil, types.ErrIncompleteInput
		}), discardLogger())

		rr, body := postSuggest(t, h, `{"climate":"mild"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, string(types.KindIncompleteInput), body["kind"])
	})

	t.Run("quota is 429", func(t *testing.T) {
		h := NewHandler(suggesterFunc(func(context.Context, types.DestinationPreferences) ([]types.DestinationSuggestion, error) {
			return nil, types.ErrQuotaExhausted
		}), discardLogger())

		rr, _ := postSuggest(t, h, `{"climate":"mild","vibe":"v","budget":"b","pace":"p","crowd":"c"}`)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})

	t.Run("unknown field is 400", func(t *testing.T) {
		h := NewHandler(suggesterFunc(nil), discardLogger())
		rr, _ := postSuggest(t, h, `{"weather":"hot"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

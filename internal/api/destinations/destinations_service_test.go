package destinations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-ai-trip-planner/app/retry"
	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt generativeAI.PromptContext) (*generativeAI.Generation, error) {
	args := m.Called(ctx, prompt)
	if g := args.Get(0); g != nil {
		return g.(*generativeAI.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

type prefixImages struct{}

func (prefixImages) FetchByQuery(_ context.Context, text string) string {
	return "https://img/" + strings.ToLower(text)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxRetries: 1, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

var beachPrefs = types.DestinationPreferences{
	Climate: "Tropical",
	Vibe:    "Relaxing",
	Budget:  "Moderate",
	Pace:    "Slow",
	Crowd:   "Quiet",
}

const fiveSuggestions = `Here you go:
[
 {"destination":"Bali, Indonesia","matchScore":97,"reason":"Beaches.","bestMonths":"Apr-Oct","highlightActivity":"Uluwatu"},
 {"destination":"Tulum, Mexico","matchScore":"93","reason":"Cenotes.","bestMonths":"Nov-Apr","highlightActivity":"Ruins"},
 {"destination":"Zanzibar, Tanzania","matchScore":91.6,"reason":"Spice.","bestMonths":"Jun-Oct","highlightActivity":"Stone Town"},
 {"destination":"Koh Lanta, Thailand","matchScore":90,"reason":"Quiet.","bestMonths":"Nov-Apr","highlightActivity":"Snorkeling"},
 {"destination":"Madeira, Portugal","matchScore":150,"reason":"Mild.","bestMonths":"All year","highlightActivity":"Levadas"},
 {"destination":"Extra, Place","matchScore":80,"reason":"","bestMonths":"","highlightActivity":""}
]`

func generation(text string) *generativeAI.Generation {
	return &generativeAI.Generation{Output: generativeAI.TextOutput(text), Model: "gemini-2.5-flash"}
}

func TestFinder_Suggest(t *testing.T) {
	ctx := context.Background()

	t.Run("parses, caps and attaches images", func(t *testing.T) {
		gen := new(MockGenerator)
		var sent generativeAI.PromptContext
		gen.On("Generate", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(generativeAI.PromptContext) }).
			Return(generation(fiveSuggestions), nil).Once()

		got, err := NewFinder(gen, prefixImages{}, fastRetry(), discardLogger()).Suggest(ctx, beachPrefs)
		require.NoError(t, err)
		require.Len(t, got, SuggestionCount)

		assert.Equal(t, types.DestinationSuggestion{
			Destination:       "Bali, Indonesia",
			MatchScore:        97,
			Reason:            "Beaches.",
			BestMonths:        "Apr-Oct",
			HighlightActivity: "Uluwatu",
			ImageURL:          "https://img/bali, indonesia",
		}, got[0])
		assert.Equal(t, 93, got[1].MatchScore)
		assert.Equal(t, 92, got[2].MatchScore)
		assert.Equal(t, 100, got[4].MatchScore)
		for _, s := range got {
			assert.NotEmpty(t, s.ImageURL)
		}

		assert.Contains(t, sent.Prompt, "Climate Preference: Tropical")
		assert.Contains(t, sent.Prompt, "Crowd Preference: Quiet")
		require.NotNil(t, sent.ResponseSchema)
		assert.Equal(t, genai.TypeArray, sent.ResponseSchema.Type)
		gen.AssertExpectations(t)
	})

	t.Run("wrapped object", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).
			Return(generation("```json\n{\"destinations\":[{\"destination\":\"Kyoto, Japan\",\"matchScore\":88}]}\n```"), nil).Once()

		got, err := NewFinder(gen, nil, fastRetry(), discardLogger()).Suggest(ctx, beachPrefs)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Kyoto, Japan", got[0].Destination)
		assert.Empty(t, got[0].ImageURL)
	})

	t.Run("missing preferences", func(t *testing.T) {
		gen := new(MockGenerator)
		prefs := beachPrefs
		prefs.Pace = "  "
		prefs.Crowd = ""

		_, err := NewFinder(gen, nil, fastRetry(), discardLogger()).Suggest(ctx, prefs)
		require.ErrorIs(t, err, types.ErrIncompleteInput)
		assert.Contains(t, err.Error(), "pace, crowd")
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("unparsable output", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(generation("Sorry, I can't help."), nil).Once()

		_, err := NewFinder(gen, nil, fastRetry(), discardLogger()).Suggest(ctx, beachPrefs)
		assert.Equal(t, types.KindUnparsableOutput, types.Kind(err))
	})

	t.Run("empty list is unparsable", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(generation("[]"), nil).Once()

		_, err := NewFinder(gen, nil, fastRetry(), discardLogger()).Suggest(ctx, beachPrefs)
		assert.ErrorIs(t, err, types.ErrUnparsableOutput)
	})

	t.Run("generation retried", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("503 unavailable")).Once()
		gen.On("Generate", mock.Anything, mock.Anything).Return(generation(fiveSuggestions), nil).Once()

		got, err := NewFinder(gen, nil, fastRetry(), discardLogger()).Suggest(ctx, beachPrefs)
		require.NoError(t, err)
		assert.Len(t, got, SuggestionCount)
		gen.AssertExpectations(t)
	})
}

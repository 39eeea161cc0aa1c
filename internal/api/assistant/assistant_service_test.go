package assistant

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var romeTrip = types.Trip{
	ID:            "trip-rome",
	UserSelection: types.TripRequest{Location: "Rome", Days: 2},
	Plan: types.CanonicalTripPlan{
		Location:     "Rome",
		HotelOptions: []types.Hotel{{Name: "Hotel Artemide"}, {Name: "Hotel de Russie"}},
		Itinerary: []types.DayPlan{
			{DayNumber: 1, Activities: []types.Activity{{Name: "Colosseum"}, {Name: "Roman Forum"}}},
			{DayNumber: 2, Activities: []types.Activity{{Name: "Vatican Museums"}}},
		},
	},
}

func TestService_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("primes context and replays history", func(t *testing.T) {
		gen := new(MockGenerator)
		s := NewService(gen, discardLogger())

		var sent generativeAI.PromptContext
		gen.On("Generate", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(generativeAI.PromptContext) }).
			Return(&generativeAI.Generation{Output: generativeAI.TextOutput("  Try carbonara in Trastevere! 🍝 "), Model: "gemini-2.5-flash"}, nil).
			Once()

		history := []types.ChatMessage{
			{Role: types.RoleUser, Text: "Is day 1 walkable?"},
			{Role: types.RoleModel, Text: "Yes, very! 🚶"},
			{Role: types.RoleUser, Text: "   "},
		}
		resp, err := s.Reply(ctx, romeTrip, history, " Where should we eat? ")
		require.NoError(t, err)
		assert.Equal(t, "Try carbonara in Trastevere! 🍝", resp.Reply)
		assert.Equal(t, "gemini-2.5-flash", resp.Model)

		assert.Nil(t, sent.ResponseSchema, "assistant replies are free text")
		assert.Equal(t, followUp, sent.Prompt)
		require.Len(t, sent.History, 5)
		assert.Equal(t, "user", sent.History[0].Role)
		assert.Contains(t, sent.History[0].Text, "Context: User is on a trip to Rome.")
		assert.Contains(t, sent.History[0].Text, "Hotels: Hotel Artemide, Hotel de Russie.")
		assert.Contains(t, sent.History[0].Text, "Day 1: Colosseum, Roman Forum\n")
		assert.Contains(t, sent.History[0].Text, "Day 2: Vatican Museums\n")
		assert.Equal(t, "model", sent.History[1].Role)
		assert.Equal(t, "Yes, very! 🚶", sent.History[3].Text)
		assert.Equal(t, generativeAI.Turn{Role: "user", Text: "Where should we eat?"}, sent.History[4])
		gen.AssertExpectations(t)
	})

	t.Run("empty message", func(t *testing.T) {
		gen := new(MockGenerator)
		_, err := NewService(gen, discardLogger()).Reply(ctx, romeTrip, nil, "  ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	})

	t.Run("generator failure propagates", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", mock.Anything, mock.Anything).Return(nil, types.ErrQuotaExhausted).Once()

		_, err := NewService(gen, discardLogger()).Reply(ctx, romeTrip, nil, "hi")
		assert.Equal(t, types.KindQuotaExhausted, types.Kind(err))
	})

	t.Run("history is capped", func(t *testing.T) {
		history := make([]types.ChatMessage, MaxHistory+10)
		for i := range history {
			history[i] = types.ChatMessage{Role: types.RoleUser, Text: strings.Repeat("x", i+1)}
		}
		pc := promptContext(romeTrip, history, "last")
		assert.Len(t, pc.History, MaxHistory+3)
		assert.Equal(t, strings.Repeat("x", 11), pc.History[2].Text)
	})
}

func TestContextPrompt_FallsBackToPlanLocation(t *testing.T) {
	trip := types.Trip{Plan: types.CanonicalTripPlan{Location: "Kyoto"}}
	assert.True(t, strings.HasPrefix(contextPrompt(trip), "Context: User is on a trip to Kyoto."))

	assert.Contains(t, contextPrompt(types.Trip{}), "this destination")
}

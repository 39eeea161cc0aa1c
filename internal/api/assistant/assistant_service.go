package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("message must not be empty")

// MaxHistory caps how many earlier turns are sent with a question.
const MaxHistory = 20

const (
	persona   = "You are a helpful travel assistant. Keep responses brief, friendly, and trip-focused. Use emojis."
	primedAck = "Understood! I'm ready to help with your trip details."
	followUp  = "Respond to the user's last message based on the context provided earlier."
)

// Service answers follow-up questions about a stored trip.
type Service struct {
	logger    *slog.Logger
	generator generativeAI.Generator
}

func NewService(generator generativeAI.Generator, logger *slog.Logger) *Service {
	return &Service{logger: logger, generator: generator}
}

// Reply primes the conversation with the trip, replays history and asks
// the model about message. The model answers in free text.
func (s *Service) Reply(ctx context.Context, trip types.Trip, history []types.ChatMessage, message string) (types.AssistantResponse, error) {
	ctx, span := otel.Tracer("AssistantService").Start(ctx, "Reply")
	defer span.End()
	span.SetAttributes(
		attribute.String("trip.id", trip.ID),
		attribute.Int("history.length", len(history)),
	)

	message = strings.TrimSpace(message)
	if message == "" {
		return types.AssistantResponse{}, ErrEmptyMessage
	}

	gen, err := s.generator.Generate(ctx, promptContext(trip, history, message))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assistant generation failed")
		s.logger.ErrorContext(ctx, "Assistant reply failed", slog.String("trip_id", trip.ID), slog.Any("error", err))
		return types.AssistantResponse{}, err
	}

	span.SetStatus(codes.Ok, "")
	return types.AssistantResponse{Reply: strings.TrimSpace(gen.Output.String()), Model: gen.Model}, nil
}

func promptContext(trip types.Trip, history []types.ChatMessage, message string) generativeAI.PromptContext {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	turns := make([]generativeAI.Turn, 0, len(history)+3)
	turns = append(turns,
		generativeAI.Turn{Role: string(types.RoleUser), Text: contextPrompt(trip)},
		generativeAI.Turn{Role: string(types.RoleModel), Text: primedAck},
	)
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := types.RoleUser
		if m.Role == types.RoleModel {
			role = types.RoleModel
		}
		turns = append(turns, generativeAI.Turn{Role: string(role), Text: m.Text})
	}
	turns = append(turns, generativeAI.Turn{Role: string(types.RoleUser), Text: message})

	return generativeAI.PromptContext{
		SystemInstruction: persona,
		History:           turns,
		Prompt:            followUp,
	}
}

func contextPrompt(trip types.Trip) string {
	location := trip.UserSelection.Location
	if location == "" {
		location = trip.Plan.Location
	}
	if location == "" {
		location = "this destination"
	}

	hotels := make([]string, 0, len(trip.Plan.HotelOptions))
	for _, h := range trip.Plan.HotelOptions {
		if h.Name != "" {
			hotels = append(hotels, h.Name)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Context: User is on a trip to %s.\n", location)
	fmt.Fprintf(&sb, "Hotels: %s.\n", strings.Join(hotels, ", "))
	sb.WriteString("Itinerary Highlights:\n")
	for _, day := range trip.Plan.Itinerary {
		names := make([]string, 0, len(day.Activities))
		for _, a := range day.Activities {
			names = append(names, a.Name)
		}
		fmt.Fprintf(&sb, "Day %d: %s\n", day.DayNumber, strings.Join(names, ", "))
	}
	sb.WriteString("\n" + persona)
	return sb.String()
}

package destinations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-ai-trip-planner/app/retry"
	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	llmparser "github.com/FACorreiaa/go-ai-trip-planner/internal/api/llm_parser"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// SuggestionCount is how many destinations the finder asks for.
const SuggestionCount = 5

const systemInstruction = "You are a travel expert. Return ONLY valid JSON arrays. No markdown, no explanations."

const promptTemplate = `You are a travel expert. Based on these user preferences, suggest exactly %d diverse destinations from different continents:

Climate Preference: %s
Travel Vibe: %s
Budget Style: %s
Travel Pace: %s
Crowd Preference: %s

Return ONLY a valid JSON array with this EXACT structure (no additional text):
[
  {
    "destination": "City, Country",
    "matchScore": 95,
    "reason": "Brief explanation why this destination perfectly matches their preferences (2-3 sentences)",
    "bestMonths": "Month-Month (e.g., Dec-Feb)",
    "highlightActivity": "One iconic activity or attraction"
  }
]

CRITICAL RULES:
- Return EXACTLY %d destinations
- Ensure destinations are diverse (different continents/regions)
- Match scores should be between 85-99
- Keep reasons concise but compelling
- Use real, popular destinations
- NO markdown, NO code blocks, ONLY the JSON array`

// ImageFetcher finds a picture for a destination. It never fails.
type ImageFetcher interface {
	FetchByQuery(ctx context.Context, text string) string
}

type Finder struct {
	logger    *slog.Logger
	generator generativeAI.Generator
	images    ImageFetcher
	validate  *validator.Validate
	retry     retry.Policy
}

// NewFinder builds a destination finder. images may be nil.
func NewFinder(generator generativeAI.Generator, images ImageFetcher, policy retry.Policy, logger *slog.Logger) *Finder {
	return &Finder{
		logger:    logger,
		generator: generator,
		images:    images,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		retry:     policy,
	}
}

// Suggest asks the model for destinations matching prefs and attaches an
// image to each.
func (f *Finder) Suggest(ctx context.Context, prefs types.DestinationPreferences) ([]types.DestinationSuggestion, error) {
	ctx, span := otel.Tracer("DestinationFinder").Start(ctx, "Suggest")
	defer span.End()

	prefs = trimPreferences(prefs)
	if err := f.validate.Struct(prefs); err != nil {
		span.SetStatus(codes.Error, "invalid preferences")
		return nil, fmt.Errorf("%w: %s", types.ErrIncompleteInput, missingFields(err))
	}
	span.SetAttributes(attribute.String("prefs.climate", prefs.Climate), attribute.String("prefs.vibe", prefs.Vibe))

	prompt := generativeAI.PromptContext{
		SystemInstruction: systemInstruction,
		Prompt:            buildPrompt(prefs),
		ResponseSchema:    suggestionsSchema(),
	}
	gen, err := retry.Do(ctx, f.retry, func(ctx context.Context, attempt int) (*generativeAI.Generation, error) {
		if attempt > 0 {
			f.logger.InfoContext(ctx, "Retrying destination suggestions", slog.Int("attempt", attempt+1))
		}
		return f.generator.Generate(ctx, prompt)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		f.logger.ErrorContext(ctx, "Destination suggestions failed", slog.Any("error", err))
		return nil, err
	}

	suggestions, err := parseSuggestions(gen.Output.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparsable suggestions")
		f.logger.WarnContext(ctx, "Could not parse destination suggestions", slog.Any("error", err))
		return nil, err
	}

	f.attachImages(ctx, suggestions)
	span.SetAttributes(attribute.Int("suggestions.count", len(suggestions)))
	span.SetStatus(codes.Ok, "")
	return suggestions, nil
}

func (f *Finder) attachImages(ctx context.Context, suggestions []types.DestinationSuggestion) {
	if f.images == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(SuggestionCount)
	for i := range suggestions {
		s := &suggestions[i]
		g.Go(func() error {
			s.ImageURL = f.images.FetchByQuery(gctx, s.Destination)
			return nil
		})
	}
	_ = g.Wait()
}

func buildPrompt(p types.DestinationPreferences) string {
	return fmt.Sprintf(promptTemplate, SuggestionCount, p.Climate, p.Vibe, p.Budget, p.Pace, p.Crowd, SuggestionCount)
}

func trimPreferences(p types.DestinationPreferences) types.DestinationPreferences {
	return types.DestinationPreferences{
		Climate: strings.TrimSpace(p.Climate),
		Vibe:    strings.TrimSpace(p.Vibe),
		Budget:  strings.TrimSpace(p.Budget),
		Pace:    strings.TrimSpace(p.Pace),
		Crowd:   strings.TrimSpace(p.Crowd),
	}
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, strings.ToLower(fe.Field()))
	}
	return "missing " + strings.Join(names, ", ")
}

type wireSuggestion struct {
	Destination       string      `json:"destination"`
	MatchScore        json.Number `json:"matchScore"`
	Reason            string      `json:"reason"`
	BestMonths        string      `json:"bestMonths"`
	HighlightActivity string      `json:"highlightActivity"`
}

// parseSuggestions accepts a bare array or an object wrapping one.
func parseSuggestions(text string) ([]types.DestinationSuggestion, error) {
	var raw json.RawMessage
	if err := llmparser.Decode(text, &raw); err != nil {
		return nil, err
	}

	var list []wireSuggestion
	if err := json.Unmarshal(raw, &list); err != nil {
		var wrapped struct {
			Destinations []wireSuggestion `json:"destinations"`
			Suggestions  []wireSuggestion `json:"suggestions"`
		}
		if werr := json.Unmarshal(raw, &wrapped); werr != nil {
			return nil, &llmparser.UnparsableError{Preview: llmparser.Preview(text), Err: err}
		}
		list = append(wrapped.Destinations, wrapped.Suggestions...)
	}

	out := make([]types.DestinationSuggestion, 0, SuggestionCount)
	for _, w := range list {
		name := strings.TrimSpace(w.Destination)
		if name == "" {
			continue
		}
		out = append(out, types.DestinationSuggestion{
			Destination:       name,
			MatchScore:        clampScore(w.MatchScore),
			Reason:            strings.TrimSpace(w.Reason),
			BestMonths:        strings.TrimSpace(w.BestMonths),
			HighlightActivity: strings.TrimSpace(w.HighlightActivity),
		})
		if len(out) == SuggestionCount {
			break
		}
	}
	if len(out) == 0 {
		return nil, &llmparser.UnparsableError{Preview: llmparser.Preview(text), Err: errors.New("no destinations in response")}
	}
	return out, nil
}

func clampScore(n json.Number) int {
	f, err := n.Float64()
	if err != nil {
		return 0
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f + 0.5)
}

func suggestionsSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"destination":       str(),
				"matchScore":        {Type: genai.TypeInteger},
				"reason":            str(),
				"bestMonths":        str(),
				"highlightActivity": str(),
			},
			Required: []string{"destination", "matchScore", "reason", "bestMonths", "highlightActivity"},
		},
	}
}

package destinations

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

type Suggester interface {
	Suggest(ctx context.Context, prefs types.DestinationPreferences) ([]types.DestinationSuggestion, error)
}

var _ Suggester = (*Finder)(nil)

type SuggestResponse struct {
	Suggestions []types.DestinationSuggestion `json:"suggestions"`
}

type HandlerImpl struct {
	logger *slog.Logger
	finder Suggester
}

func NewHandler(finder Suggester, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, finder: finder}
}

// Suggest godoc
// @Summary      Suggest destinations
// @Description  Suggests five destinations matching the quiz answers, each with an image.
// @Tags         destinations
// @Accept       json
// @Produce      json
// @Param        request body types.DestinationPreferences true "Quiz answers"
// @Success      200 {object} SuggestResponse
// @Failure      400 {object} map[string]any
// @Failure      429 {object} map[string]any
// @Failure      502 {object} map[string]any
// @Router       /api/v1/destinations/suggest [post]
func (h *HandlerImpl) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DestinationsHandler").Start(r.Context(), "Suggest", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/destinations/suggest"),
	))
	defer span.End()

	var prefs types.DestinationPreferences
	if err := api.DecodeJSONBody(w, r, &prefs); err != nil {
		h.logger.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	suggestions, err := h.finder.Suggest(ctx, prefs)
	if err != nil {
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, SuggestResponse{Suggestions: suggestions})
}

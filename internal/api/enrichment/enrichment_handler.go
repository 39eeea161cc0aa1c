package enrichment

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// Lookup is the part of Service the HTTP layer needs.
type Lookup interface {
	FetchByQuery(ctx context.Context, text string) string
	Weather(ctx context.Context, loc string) types.Weather
	Geocode(ctx context.Context, text string) (types.GeoPlace, bool)
}

var _ Lookup = (*Service)(nil)

type ImageResponse struct {
	Query    string `json:"query"`
	ImageURL string `json:"image_url"`
}

type HandlerImpl struct {
	logger *slog.Logger
	lookup Lookup
}

func NewHandler(lookup Lookup, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, lookup: lookup}
}

func (h *HandlerImpl) query(w http.ResponseWriter, r *http.Request, name string) (context.Context, trace.Span, string, bool) {
	ctx, span := otel.Tracer("EnrichmentHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(r.URL.Path),
	))
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "query parameter q is required")
		return ctx, span, "", false
	}
	return ctx, span, q, true
}

// Image godoc
// @Summary      Image for a place
// @Description  Returns an image URL for the query, or the default travel image.
// @Tags         enrichment
// @Produce      json
// @Param        q query string true "Place or activity"
// @Success      200 {object} ImageResponse
// @Failure      400 {object} map[string]any
// @Router       /api/v1/enrichment/image [get]
func (h *HandlerImpl) Image(w http.ResponseWriter, r *http.Request) {
	ctx, span, q, ok := h.query(w, r, "Image")
	defer span.End()
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, ImageResponse{Query: q, ImageURL: h.lookup.FetchByQuery(ctx, q)})
}

// Weather godoc
// @Summary      Current weather
// @Tags         enrichment
// @Produce      json
// @Param        q query string true "Location"
// @Success      200 {object} types.Weather
// @Failure      400 {object} map[string]any
// @Router       /api/v1/enrichment/weather [get]
func (h *HandlerImpl) Weather(w http.ResponseWriter, r *http.Request) {
	ctx, span, q, ok := h.query(w, r, "Weather")
	defer span.End()
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.lookup.Weather(ctx, q))
}

// Geocode godoc
// @Summary      Geocode a place
// @Tags         enrichment
// @Produce      json
// @Param        q query string true "Free-text place"
// @Success      200 {object} types.GeoPlace
// @Failure      400 {object} map[string]any
// @Failure      404 {object} map[string]any
// @Router       /api/v1/enrichment/geocode [get]
func (h *HandlerImpl) Geocode(w http.ResponseWriter, r *http.Request) {
	ctx, span, q, ok := h.query(w, r, "Geocode")
	defer span.End()
	if !ok {
		return
	}
	place, found := h.lookup.Geocode(ctx, q)
	if !found {
		h.logger.DebugContext(ctx, "No geocoding match", slog.String("q", q))
		api.WriteError(w, r, types.ErrNotFound)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, place)
}

package trip

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/api"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/auth"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// Enricher attaches images, weather and place data to a stored trip.
type Enricher interface {
	EnrichTrip(ctx context.Context, trip types.Trip) types.EnrichedTrip
}

// Assistant answers follow-up questions about a trip.
type Assistant interface {
	Reply(ctx context.Context, trip types.Trip, history []types.ChatMessage, message string) (types.AssistantResponse, error)
}

type SubmitResponse struct {
	JobID     string                `json:"job_id"`
	State     types.GenerationState `json:"state"`
	StatusURL string                `json:"status_url"`
}

type HandlerImpl struct {
	logger    *slog.Logger
	service   TripService
	jobs      *JobRegistry
	identity  IdentityProvider
	enricher  Enricher
	assistant Assistant
}

func NewHandler(service TripService, jobs *JobRegistry, identity IdentityProvider, enricher Enricher, assistant Assistant, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:    logger,
		service:   service,
		jobs:      jobs,
		identity:  identity,
		enricher:  enricher,
		assistant: assistant,
	}
}

func (h *HandlerImpl) startSpan(r *http.Request, name, route string) (context.Context, trace.Span) {
	return otel.Tracer("TripHandler").Start(r.Context(), name, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String(route),
	))
}

// GenerateTrip godoc
// @Summary      Generate a trip
// @Description  Validates the request and starts a generation job for the caller's session. While the session is not signed in the job waits and the response is 401 with a sign-in URL; the job resumes after sign-in.
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        request body types.TripRequest true "Trip preferences"
// @Success      202 {object} SubmitResponse
// @Failure      400 {object} map[string]any
// @Failure      401 {object} map[string]any
// @Router       /api/v1/trips/generate [post]
func (h *HandlerImpl) GenerateTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "GenerateTrip", "/api/v1/trips/generate")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GenerateTrip"))

	sessionID, ok := auth.SessionIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "missing session")
		return
	}

	var req types.TripRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req, err := h.service.Validate(req)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}

	job := h.jobs.Submit(sessionID, req)
	span.SetAttributes(semconv.EnduserIDKey.String(sessionID))
	l.InfoContext(ctx, "Generation job submitted", slog.String("job_id", job.ID), slog.String("location", req.Location))

	if _, signedIn := auth.IdentityFromContext(ctx); !signedIn {
		api.WriteErrorWith(w, r, types.ErrAuthRequired, map[string]any{
			"job_id":      job.ID,
			"sign_in_url": h.identity.SignInURL(sessionID),
			"status_url":  "/api/v1/trips/jobs/" + job.ID,
		})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusAccepted, SubmitResponse{
		JobID:     job.ID,
		State:     job.Status().State,
		StatusURL: "/api/v1/trips/jobs/" + job.ID,
	})
}

// ownedJob hides jobs of other sessions.
func (h *HandlerImpl) ownedJob(r *http.Request) (*Job, error) {
	job, err := h.jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		return nil, err
	}
	if sessionID, _ := auth.SessionIDFromContext(r.Context()); job.SessionID != sessionID {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetJob godoc
// @Summary      Generation job status
// @Tags         trips
// @Produce      json
// @Param        jobID path string true "Job ID"
// @Success      200 {object} JobStatus
// @Failure      404 {object} map[string]any
// @Router       /api/v1/trips/jobs/{jobID} [get]
func (h *HandlerImpl) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.ownedJob(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, job.Status())
}

// CancelJob godoc
// @Summary      Cancel a generation job
// @Tags         trips
// @Produce      json
// @Param        jobID path string true "Job ID"
// @Success      200 {object} JobStatus
// @Router       /api/v1/trips/jobs/{jobID} [delete]
func (h *HandlerImpl) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.ownedJob(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	if err := h.jobs.Cancel(job.ID); err != nil {
		api.WriteError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Generation job cancelled", slog.String("job_id", job.ID))
	api.WriteJSONResponse(w, r, http.StatusOK, job.Status())
}

// SaveJob godoc
// @Summary      Retry saving a generated trip
// @Tags         trips
// @Produce      json
// @Param        jobID path string true "Job ID"
// @Success      200 {object} JobStatus
// @Failure      500 {object} map[string]any
// @Router       /api/v1/trips/jobs/{jobID}/save [post]
func (h *HandlerImpl) SaveJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "SaveJob", "/api/v1/trips/jobs/{jobID}/save")
	defer span.End()

	job, err := h.ownedJob(r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	status, err := h.jobs.Save(ctx, job.ID)
	if err != nil {
		span.RecordError(err)
		api.WriteErrorWith(w, r, err, map[string]any{"job": status})
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, status)
}

func (h *HandlerImpl) userEmail(r *http.Request) string {
	identity, _ := auth.IdentityFromContext(r.Context())
	return identity.Email
}

// ListTrips godoc
// @Summary      List the caller's trips
// @Tags         trips
// @Produce      json
// @Success      200 {array} types.Trip
// @Failure      401 {object} map[string]any
// @Router       /api/v1/trips [get]
func (h *HandlerImpl) ListTrips(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "ListTrips", "/api/v1/trips")
	defer span.End()

	trips, err := h.service.ListTrips(ctx, h.userEmail(r))
	if err != nil {
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, trips)
}

// DeleteAllTrips godoc
// @Summary      Delete all of the caller's trips
// @Tags         trips
// @Produce      json
// @Success      200 {object} map[string]int
// @Router       /api/v1/trips [delete]
func (h *HandlerImpl) DeleteAllTrips(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "DeleteAllTrips", "/api/v1/trips")
	defer span.End()

	n, err := h.service.DeleteAllTrips(ctx, h.userEmail(r))
	if err != nil {
		span.RecordError(err)
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]int{"deleted": n})
}

func (h *HandlerImpl) loadTrip(ctx context.Context, r *http.Request) (*types.Trip, error) {
	return h.service.GetTrip(ctx, h.userEmail(r), strings.TrimSpace(chi.URLParam(r, "tripID")))
}

// GetTrip godoc
// @Summary      Get a trip
// @Tags         trips
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.Trip
// @Failure      404 {object} map[string]any
// @Router       /api/v1/trips/{tripID} [get]
func (h *HandlerImpl) GetTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "GetTrip", "/api/v1/trips/{tripID}")
	defer span.End()

	trip, err := h.loadTrip(ctx, r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, trip)
}

// GetEnrichedTrip godoc
// @Summary      Get a trip with images and weather
// @Tags         trips
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.EnrichedTrip
// @Failure      404 {object} map[string]any
// @Router       /api/v1/trips/{tripID}/enriched [get]
func (h *HandlerImpl) GetEnrichedTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "GetEnrichedTrip", "/api/v1/trips/{tripID}/enriched")
	defer span.End()

	trip, err := h.loadTrip(ctx, r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, h.enricher.EnrichTrip(ctx, *trip))
}

// DeleteTrip godoc
// @Summary      Delete a trip
// @Tags         trips
// @Param        tripID path string true "Trip ID"
// @Success      204
// @Failure      404 {object} map[string]any
// @Router       /api/v1/trips/{tripID} [delete]
func (h *HandlerImpl) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "DeleteTrip", "/api/v1/trips/{tripID}")
	defer span.End()

	if err := h.service.DeleteTrip(ctx, h.userEmail(r), chi.URLParam(r, "tripID")); err != nil {
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// AskAssistant godoc
// @Summary      Ask the travel assistant about a trip
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        request body types.AssistantRequest true "Conversation"
// @Success      200 {object} types.AssistantResponse
// @Failure      429 {object} map[string]any
// @Router       /api/v1/trips/{tripID}/assistant [post]
func (h *HandlerImpl) AskAssistant(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "AskAssistant", "/api/v1/trips/{tripID}/assistant")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AskAssistant"))

	var req types.AssistantRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "message is required")
		return
	}

	trip, err := h.loadTrip(ctx, r)
	if err != nil {
		api.WriteError(w, r, err)
		return
	}
	reply, err := h.assistant.Reply(ctx, *trip, req.History, req.Message)
	if err != nil {
		span.RecordError(err)
		l.WarnContext(ctx, "Assistant reply failed", slog.Any("error", err))
		api.WriteError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, reply)
}

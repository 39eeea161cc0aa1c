package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-ai-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-ai-trip-planner/app/retry"
	generativeAI "github.com/FACorreiaa/go-ai-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/api/itinerary"
	llmparser "github.com/FACorreiaa/go-ai-trip-planner/internal/api/llm_parser"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// DefaultMaxDays caps trip length when no limit is configured.
const DefaultMaxDays = 6

// IdentityProvider is the sign-in state the orchestrator depends on.
type IdentityProvider interface {
	CurrentIdentity(sessionID string) (types.Identity, bool)
	// Subscribe delivers the next sign-in of sessionID. cancel must be called
	// once the caller stops listening.
	Subscribe(sessionID string) (ch <-chan types.Identity, cancel func())
	SignInURL(sessionID string) string
}

// Observer follows one generation.
type Observer interface {
	StateChanged(state types.GenerationState)
	AuthRequired(signInURL string)
}

type nopObserver struct{}

func (nopObserver) StateChanged(types.GenerationState) {}
func (nopObserver) AuthRequired(string)                {}

var _ TripService = (*ServiceImpl)(nil)

// TripService generates trips and serves the stored ones.
type TripService interface {
	Validate(req types.TripRequest) (types.TripRequest, error)
	Generate(ctx context.Context, sessionID string, req types.TripRequest, obs Observer) (*types.GenerationResult, error)
	SaveTrip(ctx context.Context, result *types.GenerationResult) error
	GetTrip(ctx context.Context, userEmail, tripID string) (*types.Trip, error)
	ListTrips(ctx context.Context, userEmail string) ([]types.Trip, error)
	DeleteTrip(ctx context.Context, userEmail, tripID string) error
	DeleteAllTrips(ctx context.Context, userEmail string) (int, error)
}

// Config tunes the orchestrator.
type Config struct {
	MaxDays     int
	Retry       retry.Policy
	AuthTimeout time.Duration
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	generator generativeAI.Generator
	identity  IdentityProvider
	validate  *validator.Validate
	cfg       Config
	now       func() time.Time
	newID     func() string
}

func NewService(repo Repository, generator generativeAI.Generator, identity IdentityProvider, cfg Config, logger *slog.Logger) *ServiceImpl {
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	if cfg.Retry.IsRetryable == nil {
		cfg.Retry.IsRetryable = IsRetryableGenerationError
	}
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		generator: generator,
		identity:  identity,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return ulid.Make().String() },
	}
}

// GenerationRetryPolicy is used for whole failover rounds.
func GenerationRetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.IsRetryable = IsRetryableGenerationError
	return p
}

var retryableText = regexp.MustCompile(`(?i)503|unavailable|overloaded|rate limit|429|timeout`)

// IsRetryableGenerationError accepts quota exhaustion and transient
// availability errors. Cancellation and bad output are never retried.
func IsRetryableGenerationError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, types.ErrQuotaExhausted) {
		return true
	}
	if retryableText.MatchString(err.Error()) {
		return true
	}
	var exhausted *generativeAI.ExhaustedError
	if errors.As(err, &exhausted) {
		for _, f := range exhausted.Failures {
			if f.Class == generativeAI.ClassUnavailable || retryableText.MatchString(f.Err.Error()) {
				return true
			}
		}
	}
	return false
}

// Validate normalizes req and checks it against the configured limits
// without touching the network.
func (s *ServiceImpl) Validate(req types.TripRequest) (types.TripRequest, error) {
	req = req.Normalized()
	if req.Location == "" || req.Travelers == "" || req.Budget == "" || req.Days == 0 {
		return req, fmt.Errorf("%w: location, days, travelers and budget are required", types.ErrIncompleteInput)
	}
	if req.Days < 1 || req.Days > s.cfg.MaxDays {
		return req, fmt.Errorf("%w: days must be between 1 and %d", types.ErrInvalidDuration, s.cfg.MaxDays)
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return req, fmt.Errorf("%w: invalid %s", types.ErrIncompleteInput, strings.Join(fields, ", "))
		}
		return req, fmt.Errorf("%w: %w", types.ErrIncompleteInput, err)
	}
	return req, nil
}

// Generate runs one request through validation, sign-in, generation,
// recovery, normalization and persistence. A persistence failure does not
// fail the call; it is reported in the result's PersistErr.
func (s *ServiceImpl) Generate(ctx context.Context, sessionID string, req types.TripRequest, obs Observer) (*types.GenerationResult, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("trip.location", req.Location),
		attribute.Int("trip.days", req.Days),
	))
	defer span.End()

	if obs == nil {
		obs = nopObserver{}
	}
	l := s.logger.With(slog.String("session_id", sessionID))
	start := time.Now()
	state := types.StateIdle
	enter := func(next types.GenerationState) {
		l.DebugContext(ctx, "Generation state change", slog.String("from", string(state)), slog.String("to", string(next)))
		state = next
		span.AddEvent(string(next))
		obs.StateChanged(next)
	}
	fail := func(err error) (*types.GenerationResult, error) {
		failedIn := state
		enter(types.StateFailed)
		s.record(ctx, types.StateFailed, types.Kind(err), start)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(types.Kind(err)))
		l.WarnContext(ctx, "Trip generation failed",
			slog.String("state", string(failedIn)),
			slog.String("kind", string(types.Kind(err))),
			slog.Any("error", err))
		return nil, err
	}

	enter(types.StateValidating)
	req, err := s.Validate(req)
	if err != nil {
		return fail(err)
	}

	identity, ok := s.identity.CurrentIdentity(sessionID)
	if !ok {
		enter(types.StateAwaitingAuth)
		identity, err = s.awaitIdentity(ctx, sessionID, obs)
		if err != nil {
			return fail(err)
		}
		l.InfoContext(ctx, "Identity available, resuming generation", slog.String("email", identity.Email))
	}

	enter(types.StateGenerating)
	prompt := getTripPromptContext(req)
	gen, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context, attempt int) (*generativeAI.Generation, error) {
		if attempt > 0 {
			l.InfoContext(ctx, "Retrying trip generation", slog.Int("attempt", attempt+1))
		}
		return s.generator.Generate(ctx, prompt)
	})
	if err != nil {
		return fail(err)
	}
	text := gen.Output.String()
	s.saveInteraction(ctx, identity, prompt.Prompt, gen, text)

	enter(types.StateExtracting)
	doc, err := llmparser.Extract(text)
	if err != nil {
		return fail(err)
	}

	enter(types.StateNormalizing)
	plan := itinerary.Normalize(doc)

	enter(types.StatePersisting)
	result := &types.GenerationResult{
		TripID:    s.newID(),
		Request:   req,
		Plan:      plan,
		UserEmail: identity.Email,
		CreatedAt: s.now(),
		ModelUsed: gen.Model,
	}
	if err := s.persist(ctx, result); err != nil {
		result.PersistErr = err
		span.RecordError(err)
		l.ErrorContext(ctx, "Trip generated but not saved", slog.String("trip_id", result.TripID), slog.Any("error", err))
	}

	enter(types.StateDone)
	s.record(ctx, types.StateDone, types.Kind(result.PersistErr), start)
	span.SetAttributes(attribute.String("trip.id", result.TripID), attribute.Bool("trip.saved", result.Saved()))
	l.InfoContext(ctx, "Trip generated",
		slog.String("trip_id", result.TripID),
		slog.String("model", gen.Model),
		slog.Int("days", len(plan.Itinerary)),
		slog.Bool("saved", result.Saved()))
	return result, nil
}

// awaitIdentity subscribes for the duration of the wait and resumes on the
// first notification only.
func (s *ServiceImpl) awaitIdentity(ctx context.Context, sessionID string, obs Observer) (types.Identity, error) {
	ch, unsubscribe := s.identity.Subscribe(sessionID)
	defer unsubscribe()

	// a sign-in may have landed between the first check and Subscribe
	if id, ok := s.identity.CurrentIdentity(sessionID); ok {
		return id, nil
	}
	obs.AuthRequired(s.identity.SignInURL(sessionID))

	if s.cfg.AuthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AuthTimeout)
		defer cancel()
	}
	select {
	case id, ok := <-ch:
		if !ok {
			return types.Identity{}, fmt.Errorf("%w: sign-in abandoned", types.ErrAuthRequired)
		}
		return id, nil
	case <-ctx.Done():
		return types.Identity{}, fmt.Errorf("%w: %w", types.ErrAuthRequired, ctx.Err())
	}
}

func (s *ServiceImpl) persist(ctx context.Context, result *types.GenerationResult) error {
	record := types.TripRecord{
		ID:            result.TripID,
		UserSelection: result.Request,
		TripData:      itinerary.ToDocument(result.Plan),
		UserEmail:     result.UserEmail,
		CreatedAt:     result.CreatedAt,
	}
	if err := s.repo.SaveTrip(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", types.ErrPersistenceFailure, err)
	}
	return nil
}

// SaveTrip retries persistence of a generated plan under its original id.
func (s *ServiceImpl) SaveTrip(ctx context.Context, result *types.GenerationResult) error {
	if result == nil || result.TripID == "" {
		return fmt.Errorf("%w: nothing to save", types.ErrNotFound)
	}
	if err := s.persist(ctx, result); err != nil {
		result.PersistErr = err
		return err
	}
	result.PersistErr = nil
	return nil
}

func (s *ServiceImpl) saveInteraction(ctx context.Context, identity types.Identity, prompt string, gen *generativeAI.Generation, text string) {
	interaction := types.LlmInteraction{
		ID:           s.newID(),
		UserEmail:    identity.Email,
		Prompt:       prompt,
		ResponseText: text,
		ModelUsed:    gen.Model,
		KeyIndex:     gen.CredentialIndex,
		LatencyMs:    gen.Latency.Milliseconds(),
		CreatedAt:    s.now(),
	}
	if err := s.repo.SaveInteraction(ctx, interaction); err != nil {
		s.logger.WarnContext(ctx, "Failed to save llm interaction", slog.Any("error", err))
	}
}

func (s *ServiceImpl) record(ctx context.Context, state types.GenerationState, kind types.ErrorKind, start time.Time) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("state", string(state)), attribute.String("kind", string(kind)))
	m.GenerationRequestsTotal.Add(ctx, 1, attrs)
	m.GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
}

func toTrip(record *types.TripRecord) types.Trip {
	return types.Trip{
		ID:            record.ID,
		UserSelection: record.UserSelection,
		Plan:          itinerary.Normalize(record.TripData),
		UserEmail:     record.UserEmail,
		CreatedAt:     record.CreatedAt,
	}
}

// GetTrip returns a trip owned by userEmail.
func (s *ServiceImpl) GetTrip(ctx context.Context, userEmail, tripID string) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetTrip", trace.WithAttributes(attribute.String("trip.id", tripID)))
	defer span.End()

	record, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if userEmail != "" && record.UserEmail != userEmail {
		return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	trip := toTrip(record)
	return &trip, nil
}

// ListTrips returns the user's trips, newest first.
func (s *ServiceImpl) ListTrips(ctx context.Context, userEmail string) ([]types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ListTrips")
	defer span.End()

	records, err := s.repo.ListTrips(ctx, userEmail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	trips := make([]types.Trip, 0, len(records))
	for i := range records {
		trips = append(trips, toTrip(&records[i]))
	}
	return trips, nil
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, userEmail, tripID string) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "DeleteTrip", trace.WithAttributes(attribute.String("trip.id", tripID)))
	defer span.End()

	if _, err := s.GetTrip(ctx, userEmail, tripID); err != nil {
		return err
	}
	if err := s.repo.DeleteTrip(ctx, tripID); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.InfoContext(ctx, "Trip deleted", slog.String("trip_id", tripID))
	return nil
}

// DeleteAllTrips removes every trip of the user in one batch.
func (s *ServiceImpl) DeleteAllTrips(ctx context.Context, userEmail string) (int, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "DeleteAllTrips")
	defer span.End()

	records, err := s.repo.ListTrips(ctx, userEmail)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if err := s.repo.DeleteTrips(ctx, ids); err != nil {
		span.RecordError(err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "Trips deleted", slog.Int("count", len(ids)))
	return len(ids), nil
}

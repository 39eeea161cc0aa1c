package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-ai-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

var errNoCredentials = errors.New("no model credentials configured")

// Generator produces model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt PromptContext) (*Generation, error)
}

var _ Generator = (*FailoverClient)(nil)

// Generation is a successful model call.
type Generation struct {
	Output          RawModelOutput
	Model           string
	CredentialIndex int
	Attempts        int
	Latency         time.Duration
}

// AttemptFailure records one failed (credential, model) pair.
type AttemptFailure struct {
	CredentialIndex int
	Model           string
	Class           FailureClass
	Err             error
}

// ExhaustedError is returned when every pair failed. It matches
// types.ErrAllCredentialsExhausted, and types.ErrQuotaExhausted as well when
// the last failure was rate-limit class.
type ExhaustedError struct {
	Failures []AttemptFailure
}

func (e *ExhaustedError) last() *AttemptFailure {
	if len(e.Failures) == 0 {
		return nil
	}
	return &e.Failures[len(e.Failures)-1]
}

// Quota reports whether the last failure was rate-limit class.
func (e *ExhaustedError) Quota() bool {
	l := e.last()
	return l != nil && l.Class == ClassQuota
}

func (e *ExhaustedError) Error() string {
	if e.Quota() {
		return "All keys hit their limits! Please wait ~60s."
	}
	return "All AI fallbacks failed. Check connection/keys."
}

func (e *ExhaustedError) Unwrap() []error {
	errs := []error{types.ErrAllCredentialsExhausted}
	if e.Quota() {
		errs = append(errs, types.ErrQuotaExhausted)
	}
	if l := e.last(); l != nil && l.Err != nil {
		errs = append(errs, l.Err)
	} else if len(e.Failures) == 0 {
		errs = append(errs, errNoCredentials)
	}
	return errs
}

type pair struct {
	credentialIndex int
	credential      Credential
	model           string
}

// FailoverClient tries every (credential, model) pair in order until one
// returns a complete response. It never sleeps between pairs.
type FailoverClient struct {
	backend     Backend
	credentials []Credential
	models      []string
	classifier  Classifier
	logger      *slog.Logger
}

func NewFailoverClient(backend Backend, credentials []Credential, models []string, classifier Classifier, logger *slog.Logger) *FailoverClient {
	return &FailoverClient{
		backend:     backend,
		credentials: credentials,
		models:      models,
		classifier:  classifier,
		logger:      logger.With(slog.String("component", "failover")),
	}
}

// plan lists the pairs credential-major: every model of a credential is
// tried before the next credential.
func (f *FailoverClient) plan() []pair {
	pairs := make([]pair, 0, len(f.credentials)*len(f.models))
	for i, c := range f.credentials {
		for _, m := range f.models {
			pairs = append(pairs, pair{credentialIndex: i, credential: c, model: m})
		}
	}
	return pairs
}

func (f *FailoverClient) Generate(ctx context.Context, prompt PromptContext) (*Generation, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "FailoverClient.Generate", trace.WithAttributes(
		attribute.Int("credentials.count", len(f.credentials)),
		attribute.Int("models.count", len(f.models)),
	))
	defer span.End()

	m := metrics.Get()
	exhausted := &ExhaustedError{}
	skipCredential := -1
	attempts := 0

	for _, p := range f.plan() {
		if p.credentialIndex == skipCredential {
			continue
		}
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cancelled")
			return nil, err
		}

		attempts++
		attrs := metric.WithAttributes(attribute.String("model", p.model), attribute.Int("credential", p.credentialIndex))
		m.ModelAttemptsTotal.Add(ctx, 1, attrs)

		start := time.Now()
		out, err := f.attempt(ctx, p, prompt)
		if err == nil {
			span.SetAttributes(attribute.String("model.used", p.model), attribute.Int("attempts", attempts))
			span.SetStatus(codes.Ok, "generated")
			f.logger.InfoContext(ctx, "Model call succeeded",
				slog.String("model", p.model),
				slog.Int("credential", p.credentialIndex),
				slog.String("key", p.credential.Redacted()),
				slog.Int("attempt", attempts))
			return &Generation{
				Output:          out,
				Model:           p.model,
				CredentialIndex: p.credentialIndex,
				Attempts:        attempts,
				Latency:         time.Since(start),
			}, nil
		}

		class := ClassifyFailure(err)
		outcome := f.classifier.Classify(err)
		m.ModelFailuresTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("model", p.model),
			attribute.String("class", class.String()),
		))
		f.logger.WarnContext(ctx, "Model call failed",
			slog.String("model", p.model),
			slog.Int("credential", p.credentialIndex),
			slog.String("key", p.credential.Redacted()),
			slog.String("class", class.String()),
			slog.String("outcome", outcome.String()),
			slog.Any("error", err))

		if outcome == Terminal {
			span.RecordError(err)
			span.SetStatus(codes.Error, "terminal model error")
			if class == ClassCancelled {
				return nil, err
			}
			return nil, fmt.Errorf("model %s rejected the request: %w", p.model, err)
		}

		exhausted.Failures = append(exhausted.Failures, AttemptFailure{
			CredentialIndex: p.credentialIndex,
			Model:           p.model,
			Class:           class,
			Err:             err,
		})
		if outcome == NextCredential {
			skipCredential = p.credentialIndex
		}
	}

	span.RecordError(exhausted)
	span.SetStatus(codes.Error, "all pairs failed")
	f.logger.ErrorContext(ctx, "All model fallbacks failed",
		slog.Int("attempts", attempts),
		slog.Bool("quota", exhausted.Quota()))
	return nil, exhausted
}

// attempt makes one call and drains its stream, so a stream that breaks
// midway counts against this pair.
func (f *FailoverClient) attempt(ctx context.Context, p pair, prompt PromptContext) (RawModelOutput, error) {
	out, err := f.backend.Invoke(ctx, p.credential, p.model, prompt)
	if err != nil {
		return RawModelOutput{}, err
	}
	out, err = out.Drain()
	if err != nil {
		return RawModelOutput{}, err
	}
	if out.empty() {
		return RawModelOutput{}, errors.New("model returned an empty response")
	}
	return out, nil
}

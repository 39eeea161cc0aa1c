package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = fmt.Errorf("generation job %w", types.ErrNotFound)

// errSuperseded cancels a job replaced by a newer submission of its session.
var errSuperseded = errors.New("superseded by a newer request")

// Job is one background generation. It observes its own progress.
type Job struct {
	ID        string
	SessionID string
	Request   types.TripRequest
	CreatedAt time.Time

	mu        sync.Mutex
	state     types.GenerationState
	signInURL string
	result    *types.GenerationResult
	err       error
	cancel    context.CancelCauseFunc
	done      chan struct{}
}

// JobStatus is a snapshot of a Job.
type JobStatus struct {
	JobID     string                   `json:"job_id"`
	State     types.GenerationState    `json:"state"`
	SignInURL string                   `json:"sign_in_url,omitempty"`
	TripID    string                   `json:"trip_id,omitempty"`
	Plan      *types.CanonicalTripPlan `json:"plan,omitempty"`
	Saved     bool                     `json:"saved"`
	ErrorKind types.ErrorKind          `json:"error_kind,omitempty"`
	Error     string                   `json:"error,omitempty"`
	SaveError string                   `json:"save_error,omitempty"`
	ModelUsed string                   `json:"model_used,omitempty"`
	Finished  bool                     `json:"finished"`
}

func (j *Job) StateChanged(state types.GenerationState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
	if state != types.StateAwaitingAuth {
		j.signInURL = ""
	}
}

func (j *Job) AuthRequired(signInURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.signInURL = signInURL
}

// Done is closed when the job finishes.
func (j *Job) Done() <-chan struct{} { return j.done }

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := JobStatus{
		JobID:     j.ID,
		State:     j.state,
		SignInURL: j.signInURL,
	}
	select {
	case <-j.done:
		st.Finished = true
	default:
	}
	if j.result != nil {
		plan := j.result.Plan
		st.TripID = j.result.TripID
		st.Plan = &plan
		st.Saved = j.result.Saved()
		st.ModelUsed = j.result.ModelUsed
		if j.result.PersistErr != nil {
			st.SaveError = j.result.PersistErr.Error()
			st.ErrorKind = types.Kind(j.result.PersistErr)
		}
	}
	if j.err != nil {
		st.ErrorKind = types.Kind(j.err)
		st.Error = j.err.Error()
	}
	return st
}

func (j *Job) finish(result *types.GenerationResult, err error) {
	j.mu.Lock()
	j.result = result
	j.err = err
	j.mu.Unlock()
	close(j.done)
}

// JobRegistry runs at most one generation per session. A new submission
// cancels the previous job of the same session, pending backoff included.
type JobRegistry struct {
	logger  *slog.Logger
	service TripService
	jobs    *cache.Cache

	mu        sync.Mutex
	bySession map[string]*Job
	base      context.Context
	stop      context.CancelFunc
}

func NewJobRegistry(service TripService, ttl time.Duration, logger *slog.Logger) *JobRegistry {
	base, stop := context.WithCancel(context.Background())
	return &JobRegistry{
		logger:    logger.With(slog.String("component", "job_registry")),
		service:   service,
		jobs:      cache.New(ttl, 2*ttl),
		bySession: make(map[string]*Job),
		base:      base,
		stop:      stop,
	}
}

// Submit starts a generation for sessionID and returns its job.
func (r *JobRegistry) Submit(sessionID string, req types.TripRequest) *Job {
	ctx, cancel := context.WithCancelCause(r.base)
	job := &Job{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Request:   req,
		CreatedAt: time.Now().UTC(),
		state:     types.StateIdle,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	if prev, ok := r.bySession[sessionID]; ok {
		prev.cancel(errSuperseded)
		r.logger.Info("Superseding generation job", slog.String("previous_job", prev.ID), slog.String("job_id", job.ID))
	}
	r.bySession[sessionID] = job
	r.mu.Unlock()
	r.jobs.SetDefault(job.ID, job)

	go r.run(ctx, job)
	return job
}

func (r *JobRegistry) run(ctx context.Context, job *Job) {
	defer job.cancel(nil)
	result, err := r.service.Generate(ctx, job.SessionID, job.Request, job)
	if cause := context.Cause(ctx); err != nil && cause != nil && !errors.Is(cause, context.Canceled) {
		err = fmt.Errorf("%w: %w", err, cause)
	}
	job.finish(result, err)

	r.mu.Lock()
	if r.bySession[job.SessionID] == job {
		delete(r.bySession, job.SessionID)
	}
	r.mu.Unlock()
}

// Get returns a job by id.
func (r *JobRegistry) Get(jobID string) (*Job, error) {
	v, ok := r.jobs.Get(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}
	return v.(*Job), nil
}

func (r *JobRegistry) Status(jobID string) (JobStatus, error) {
	job, err := r.Get(jobID)
	if err != nil {
		return JobStatus{}, err
	}
	return job.Status(), nil
}

// Cancel abandons a running job. Finished jobs are left untouched.
func (r *JobRegistry) Cancel(jobID string) error {
	job, err := r.Get(jobID)
	if err != nil {
		return err
	}
	job.cancel(context.Canceled)
	return nil
}

// Save retries persistence for a finished job whose save failed.
func (r *JobRegistry) Save(ctx context.Context, jobID string) (JobStatus, error) {
	job, err := r.Get(jobID)
	if err != nil {
		return JobStatus{}, err
	}
	job.mu.Lock()
	if job.result == nil {
		job.mu.Unlock()
		return job.Status(), fmt.Errorf("job %s has no generated trip: %w", jobID, types.ErrNotFound)
	}
	snapshot := *job.result
	job.mu.Unlock()
	if snapshot.Saved() {
		return job.Status(), nil
	}

	err = r.service.SaveTrip(ctx, &snapshot)
	job.mu.Lock()
	job.result = &snapshot
	job.mu.Unlock()
	return job.Status(), err
}

// Shutdown cancels every running job.
func (r *JobRegistry) Shutdown() {
	r.stop()
}

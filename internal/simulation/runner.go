package simulation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// JobStatus is the lifecycle state of a background simulation job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobSnapshot is the poll view of a job: status, progress and, once the run
// finishes, the immutable comparison result.
type JobSnapshot struct {
	ID           string                   `json:"id"`
	Status       JobStatus                `json:"status"`
	DaysDone     int64                    `json:"days_done"`
	DaysTotal    int64                    `json:"days_total"`
	Error        string                   `json:"error,omitempty"`
	Result       *domain.ComparisonResult `json:"result,omitempty"`
	SubmittedAt  time.Time                `json:"submitted_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
}

type job struct {
	id          string
	status      JobStatus
	req         Request
	daysDone    atomic.Int64
	daysTotal   int64
	err         string
	result      *domain.ComparisonResult
	submittedAt time.Time
	completedAt *time.Time
	cancel      context.CancelFunc
}

// Runner executes simulation runs as cancellable background work. Submit
// returns a handle immediately; callers poll for progress and result. State
// mutated during a run stays private to the run — the result is published
// atomically on completion, with only the day counter visible in between.
type Runner struct {
	engine     *Engine
	mu         sync.RWMutex
	jobs       map[string]*job
	retention  time.Duration
	onComplete func(jobID string, result *domain.ComparisonResult)
}

func NewRunner(engine *Engine, retention time.Duration) *Runner {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Runner{
		engine:    engine,
		jobs:      make(map[string]*job),
		retention: retention,
	}
}

// SetOnComplete registers a hook invoked once per successfully completed
// job, after its result is published. Used for report export.
func (r *Runner) SetOnComplete(fn func(jobID string, result *domain.ComparisonResult)) {
	r.onComplete = fn
}

// Submit validates the request, registers a job and starts the run in the
// background. Validation failures are fatal and returned immediately.
func (r *Runner) Submit(req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	days := int64(req.EndDate.Sub(req.StartDate).Hours()/24) + 1
	ctx, cancel := context.WithCancel(context.Background())

	j := &job{
		id:          uuid.NewString(),
		status:      JobPending,
		req:         req,
		daysTotal:   days * int64(len(req.ItemIDs)),
		submittedAt: time.Now().UTC(),
		cancel:      cancel,
	}

	r.mu.Lock()
	r.evictExpiredLocked()
	r.jobs[j.id] = j
	r.mu.Unlock()

	go r.run(ctx, j)

	return j.id, nil
}

func (r *Runner) run(ctx context.Context, j *job) {
	r.setStatus(j, JobRunning)
	log.Info().Str("job_id", j.id).Int("items", len(j.req.ItemIDs)).Msg("simulation job started")

	result, err := r.engine.Run(ctx, j.req, func() { j.daysDone.Add(1) })

	now := time.Now().UTC()
	r.mu.Lock()
	j.completedAt = &now

	switch {
	case ctx.Err() != nil:
		j.status = JobCancelled
		log.Info().Str("job_id", j.id).Msg("simulation job cancelled")
	case err != nil:
		j.status = JobFailed
		j.err = err.Error()
		log.Error().Err(err).Str("job_id", j.id).Msg("simulation job failed")
	default:
		j.status = JobCompleted
		j.result = result
		log.Info().Str("job_id", j.id).
			Int("items", len(result.Items)).
			Int("skipped", len(result.Skipped)).
			Msg("simulation job completed")
	}
	completed := j.status == JobCompleted
	r.mu.Unlock()

	if completed && r.onComplete != nil {
		r.onComplete(j.id, result)
	}
}

// Get returns the current snapshot of a job.
func (r *Runner) Get(id string) (*JobSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, false
	}

	snap := &JobSnapshot{
		ID:          j.id,
		Status:      j.status,
		DaysDone:    j.daysDone.Load(),
		DaysTotal:   j.daysTotal,
		Error:       j.err,
		Result:      j.result,
		SubmittedAt: j.submittedAt,
		CompletedAt: j.completedAt,
	}
	return snap, true
}

// Cancel requests cancellation of a running job. The engine observes the
// flag between day iterations.
func (r *Runner) Cancel(id string) bool {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	j.cancel()
	return true
}

func (r *Runner) setStatus(j *job, status JobStatus) {
	r.mu.Lock()
	j.status = status
	r.mu.Unlock()
}

// evictExpiredLocked drops finished jobs older than the retention window.
// Caller holds the write lock.
func (r *Runner) evictExpiredLocked() {
	cutoff := time.Now().UTC().Add(-r.retention)
	for id, j := range r.jobs {
		if j.completedAt != nil && j.completedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}

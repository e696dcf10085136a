package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-leadgen-automation/internal/models"
)

// Registry is the in-process source of truth for job state. All mutation goes
// through its methods under one lock, so pollers always observe a consistent
// snapshot and never a torn update. There is no lock across jobs beyond this
// map guard.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry
}

type jobEntry struct {
	job     models.ScrapeJob
	records []models.ProfileRecord
	cancel  context.CancelFunc
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*jobEntry)}
}

// Put registers a new job together with its cancellation hook.
func (r *Registry) Put(job *models.ScrapeJob, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = &jobEntry{job: *job, cancel: cancel}
}

// Get returns a point-in-time copy of one job.
func (r *Registry) Get(jobID string) (models.ScrapeJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[jobID]
	if !ok {
		return models.ScrapeJob{}, false
	}
	return entry.job, true
}

// List returns copies of all jobs, most recent first.
func (r *Registry) List() []models.ScrapeJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ScrapeJob, 0, len(r.jobs))
	for _, entry := range r.jobs {
		out = append(out, entry.job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Records returns a copy of a job's accumulated records.
func (r *Registry) Records(jobID string) ([]models.ProfileRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	out := make([]models.ProfileRecord, len(entry.records))
	copy(out, entry.records)
	return out, true
}

// MarkRunning moves a job into the running state. No-op once terminal.
func (r *Registry) MarkRunning(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.jobs[jobID]
	if !ok || entry.job.Status.Terminal() {
		return
	}
	entry.job.Status = models.StatusRunning
}

// Append records one extracted profile and bumps the found counter in the
// same critical section, keeping the two consistent for readers.
func (r *Registry) Append(jobID string, rec models.ProfileRecord) (found int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.jobs[jobID]
	if !exists || entry.job.Status.Terminal() {
		return 0, false
	}
	entry.records = append(entry.records, rec)
	entry.job.ProfilesFound = len(entry.records)
	return entry.job.ProfilesFound, true
}

// Finish moves a job into a terminal state exactly once and returns the final
// snapshot. Later calls are ignored: a job never leaves a terminal state.
func (r *Registry) Finish(jobID string, status models.JobStatus, errMsg string) (models.ScrapeJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.jobs[jobID]
	if !ok || entry.job.Status.Terminal() {
		return models.ScrapeJob{}, false
	}
	now := time.Now().UTC()
	entry.job.Status = status
	entry.job.CompletedAt = &now
	entry.job.ErrorMessage = errMsg
	if entry.cancel != nil {
		// Release the job context even on normal completion.
		entry.cancel()
		entry.cancel = nil
	}
	return entry.job, true
}

// Cancel fires a job's cancellation hook. Reports false for unknown or
// already-terminal jobs.
func (r *Registry) Cancel(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.jobs[jobID]
	if !ok || entry.job.Status.Terminal() || entry.cancel == nil {
		return false
	}
	entry.cancel()
	return true
}

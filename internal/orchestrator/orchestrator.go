// Package orchestrator owns the scrape-job state machine: it sequences
// interpretation, session open, discovery, and extraction, tracks progress in
// the registry, and persists results through the store collaborator.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-leadgen-automation/internal/browser"
	"go-leadgen-automation/internal/database"
	"go-leadgen-automation/internal/models"
	"go-leadgen-automation/internal/scraper"

	"github.com/sirupsen/logrus"
)

var (
	// ErrJobNotFound is returned for unknown job identifiers.
	ErrJobNotFound = errors.New("job not found")
	// ErrNotReady is returned when records are requested before COMPLETED.
	ErrNotReady = errors.New("job not completed")
)

// QueryInterpreter converts free text into a filter. Synchronous and cheap.
type QueryInterpreter interface {
	Parse(ctx context.Context, query string, provider models.Provider, resultCap int) (*models.FilterModel, error)
}

// SessionManager opens authenticated browsing sessions. Exactly one session
// per running job; sessions are never shared across jobs.
type SessionManager interface {
	Open(ctx context.Context, creds models.TargetCredentials) (scraper.Session, error)
}

// Discovery enumerates candidate profile URLs page by page. nil, nil means
// exhausted. One instance per job.
type Discovery interface {
	Next(ctx context.Context, sess scraper.Session, filter *models.FilterModel) ([]string, error)
}

// Extractor parses one candidate profile into a record.
type Extractor interface {
	Extract(ctx context.Context, sess scraper.Session, profileURL string, filter *models.FilterModel) (*models.ProfileRecord, error)
}

// Store is the persistence collaborator. Terminal transitions must be durable
// at least once; the read side backs the boundary operations for jobs that
// predate this process.
type Store interface {
	SaveJob(ctx context.Context, job *models.ScrapeJob) error
	LoadJob(ctx context.Context, jobID string) (*models.ScrapeJob, error)
	ListJobs(ctx context.Context, limit int) ([]models.ScrapeJob, error)
	AppendRecord(ctx context.Context, jobID string, rec models.ProfileRecord) error
	ListRecords(ctx context.Context, jobID string) ([]models.ProfileRecord, error)
}

// CredentialProvider supplies the target account. Read-only to the core.
type CredentialProvider interface {
	GetCredentials(ctx context.Context) (*models.Credentials, error)
}

// Notifier is told about terminal jobs. Optional, best-effort.
type Notifier interface {
	JobFinished(job models.ScrapeJob)
}

// Deps wires the orchestrator's collaborators explicitly, with no ambient
// state, so every piece can be swapped in tests.
type Deps struct {
	Interpreter  QueryInterpreter
	Sessions     SessionManager
	NewDiscovery func() Discovery
	Extractor    Extractor
	Store        Store
	Credentials  CredentialProvider
	Notifier     Notifier
}

type Orchestrator struct {
	deps     Deps
	registry *Registry
	log      *logrus.Logger
	wg       sync.WaitGroup
}

func New(deps Deps, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		deps:     deps,
		registry: NewRegistry(),
		log:      log,
	}
}

// Interpret runs the query interpreter without creating a job.
func (o *Orchestrator) Interpret(ctx context.Context, query string, provider models.Provider, resultCap int) (*models.FilterModel, error) {
	return o.deps.Interpreter.Parse(ctx, query, provider, resultCap)
}

// SubmitJob interprets the query synchronously, creates the job record, and
// launches the execution goroutine. Interpretation failures are returned to
// the submitter directly; no job exists for them.
func (o *Orchestrator) SubmitJob(ctx context.Context, query string, provider models.Provider, resultCap int) (models.ScrapeJob, error) {
	filter, err := o.deps.Interpreter.Parse(ctx, query, provider, resultCap)
	if err != nil {
		return models.ScrapeJob{}, err
	}

	job := models.NewScrapeJob(query, provider, filter)
	jobCtx, cancel := context.WithCancel(context.Background())
	o.registry.Put(job, cancel)

	if err := o.deps.Store.SaveJob(ctx, job); err != nil {
		// Non-terminal saves are best-effort; the terminal write retries.
		o.log.WithField("job_id", job.ID).Warnf("⚠️ Initial job save failed: %v", err)
	}

	o.wg.Add(1)
	go o.run(jobCtx, job.ID)

	o.log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"provider": provider,
		"cap":      filter.ResultCap,
	}).Info("🚀 Scrape job submitted")

	return *job, nil
}

// GetJob returns a point-in-time snapshot. Jobs the registry does not know,
// from before the last restart, are served from the store.
func (o *Orchestrator) GetJob(ctx context.Context, jobID string) (models.ScrapeJob, error) {
	if job, ok := o.registry.Get(jobID); ok {
		return job, nil
	}
	job, err := o.deps.Store.LoadJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.ScrapeJob{}, ErrJobNotFound
		}
		return models.ScrapeJob{}, err
	}
	return *job, nil
}

// ListJobs merges the registry with the store, most recent first. The
// registry's view of a job wins: it is never older than the persisted row.
func (o *Orchestrator) ListJobs(ctx context.Context) ([]models.ScrapeJob, error) {
	jobs := o.registry.List()
	live := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		live[job.ID] = true
	}

	stored, err := o.deps.Store.ListJobs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing persisted jobs: %w", err)
	}
	for _, job := range stored {
		if !live[job.ID] {
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// CancelJob requests cooperative cancellation. The running task observes it
// between discovery pages and between profile extractions, never mid-profile.
func (o *Orchestrator) CancelJob(jobID string) error {
	if _, ok := o.registry.Get(jobID); !ok {
		return ErrJobNotFound
	}
	o.registry.Cancel(jobID)
	return nil
}

// ExportRecords returns a completed job's records, ranked by engagement. The
// store is the authority on ordering; the registry snapshot covers the window
// before a record's persist landed.
func (o *Orchestrator) ExportRecords(ctx context.Context, jobID string) ([]models.ProfileRecord, error) {
	job, err := o.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.StatusCompleted {
		return nil, ErrNotReady
	}

	records, err := o.deps.Store.ListRecords(ctx, jobID)
	if snapshot, ok := o.registry.Records(jobID); ok && len(snapshot) > len(records) {
		// Record persists are best-effort while the job runs; the registry
		// can be ahead of the store.
		sortByEngagement(snapshot)
		return snapshot, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing persisted records: %w", err)
	}
	return records, nil
}

// sortByEngagement mirrors the store's export order: best leads first,
// earliest scrape breaking ties.
func sortByEngagement(records []models.ProfileRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Engagement != records[j].Engagement {
			return records[i].Engagement > records[j].Engagement
		}
		return records[i].ScrapedAt.Before(records[j].ScrapedAt)
	})
}

// Wait blocks until every launched job goroutine has finished. Used by the
// one-shot CLI and by tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// run is the background execution task: exactly one per job, owner of all
// job mutation after submission.
func (o *Orchestrator) run(ctx context.Context, jobID string) {
	defer o.wg.Done()
	log := o.log.WithField("job_id", jobID)

	job, ok := o.registry.Get(jobID)
	if !ok {
		return
	}
	filter := job.Filter

	creds, err := o.deps.Credentials.GetCredentials(ctx)
	if err != nil {
		o.finish(jobID, models.StatusFailed, "credential store unavailable")
		return
	}

	sess, err := o.deps.Sessions.Open(ctx, creds.Target())
	if err != nil {
		// PENDING→FAILED without ever reaching RUNNING.
		o.finish(jobID, models.StatusFailed, authMessage(err))
		return
	}
	defer sess.Close()

	o.registry.MarkRunning(jobID)
	log.Info("🏃 Session open, discovery started")

	discovery := o.deps.NewDiscovery()
	reauthed := false
	found := 0

	for {
		if ctx.Err() != nil {
			o.finish(jobID, models.StatusFailed, "cancelled by caller")
			return
		}

		batch, err := discovery.Next(ctx, sess, filter)
		if err != nil {
			if errors.Is(err, scraper.ErrSessionExpired) && !reauthed {
				reauthed = true
				if rerr := sess.Relogin(ctx); rerr != nil {
					o.finish(jobID, models.StatusFailed, "session invalidated and re-authentication failed")
					return
				}
				continue
			}
			o.finish(jobID, models.StatusFailed, failureMessage(err))
			return
		}
		if batch == nil {
			o.finish(jobID, models.StatusCompleted, "")
			return
		}

		for _, profileURL := range batch {
			if ctx.Err() != nil {
				o.finish(jobID, models.StatusFailed, "cancelled by caller")
				return
			}
			if found >= filter.ResultCap {
				o.finish(jobID, models.StatusCompleted, "")
				return
			}

			rec, err := o.deps.Extractor.Extract(ctx, sess, profileURL, filter)
			if err != nil {
				if errors.Is(err, scraper.ErrSessionExpired) {
					if reauthed {
						o.finish(jobID, models.StatusFailed, "session invalidated and re-authentication failed")
						return
					}
					reauthed = true
					if rerr := sess.Relogin(ctx); rerr != nil {
						o.finish(jobID, models.StatusFailed, "session invalidated and re-authentication failed")
						return
					}
					rec, err = o.deps.Extractor.Extract(ctx, sess, profileURL, filter)
				}
				if err != nil {
					// Per-profile failures are skipped, never job-fatal.
					log.Warnf("⚠️ %v", err)
					continue
				}
			}

			rec.JobID = jobID
			count, ok := o.registry.Append(jobID, *rec)
			if !ok {
				return
			}
			found = count

			if serr := o.deps.Store.AppendRecord(ctx, jobID, *rec); serr != nil {
				log.Warnf("⚠️ Record persist failed: %v", serr)
			}

			if found >= filter.ResultCap {
				o.finish(jobID, models.StatusCompleted, "")
				return
			}
		}
	}
}

// finish applies the terminal transition exactly once, makes it durable (one
// retry), and fires the notifier.
func (o *Orchestrator) finish(jobID string, status models.JobStatus, errMsg string) {
	job, ok := o.registry.Finish(jobID, status, errMsg)
	if !ok {
		return
	}

	// The job context may already be cancelled; terminal durability gets its
	// own deadline.
	saveCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := o.deps.Store.SaveJob(saveCtx, &job); err != nil {
		o.log.WithField("job_id", jobID).Warnf("⚠️ Terminal save failed, retrying once: %v", err)
		time.Sleep(time.Second)
		if err := o.deps.Store.SaveJob(saveCtx, &job); err != nil {
			o.log.WithField("job_id", jobID).Errorf("❌ Terminal save failed twice: %v", err)
		}
	}

	if o.deps.Notifier != nil {
		o.deps.Notifier.JobFinished(job)
	}

	entry := o.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"found":  job.ProfilesFound,
	})
	if status == models.StatusCompleted {
		entry.Info("🏁 Job completed")
	} else {
		entry.Warnf("❌ Job failed: %s", errMsg)
	}
}

// authMessage maps session-open failures onto the single human-readable
// reason users see. No stack traces cross this boundary.
func authMessage(err error) string {
	var authErr *browser.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case browser.KindInvalidCredentials:
			return "login rejected: check the configured account credentials"
		case browser.KindChallengeRequired:
			return "the target requires additional verification; complete it manually and retry"
		case browser.KindEngineUnavailable:
			return "no browser engine could be started"
		}
	}
	return fmt.Sprintf("session could not be opened: %v", err)
}

func failureMessage(err error) string {
	var structural *scraper.StructuralError
	if errors.As(err, &structural) {
		return "the target's page layout changed; the listing could not be parsed"
	}
	return fmt.Sprintf("discovery failed: %v", err)
}

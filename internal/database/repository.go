package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-leadgen-automation/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned for lookups of unknown identifiers.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode (PgBouncer) do not support
	// prepared statements easily, so the statement cache stays off.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// ---------------- JOB OPERATIONS ----------------

// SaveJob upserts the full job row. Called on creation and on every status
// transition, so terminal states are durable before callers can observe them.
func (r *Repository) SaveJob(ctx context.Context, job *models.ScrapeJob) error {
	filterJSON, err := json.Marshal(job.Filter)
	if err != nil {
		return fmt.Errorf("failed to marshal filter: %w", err)
	}

	query := `
		INSERT INTO scrape_jobs (id, original_query, parsed_query, provider, status, profiles_found, created_at, completed_at, error_message)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET status = EXCLUDED.status, profiles_found = EXCLUDED.profiles_found,
		              completed_at = EXCLUDED.completed_at, error_message = EXCLUDED.error_message`

	_, err = r.db.Exec(ctx, query,
		job.ID, job.OriginalQuery, string(filterJSON), string(job.Provider), string(job.Status),
		job.ProfilesFound, job.CreatedAt, job.CompletedAt, nullable(job.ErrorMessage))
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// LoadJob retrieves one job by ID.
func (r *Repository) LoadJob(ctx context.Context, jobID string) (*models.ScrapeJob, error) {
	query := `SELECT id, original_query, parsed_query, provider, status, profiles_found, created_at, completed_at, error_message
	          FROM scrape_jobs WHERE id = $1`

	var (
		job        models.ScrapeJob
		filterJSON []byte
		errMsg     *string
	)
	err := r.db.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.OriginalQuery, &filterJSON, &job.Provider, &job.Status,
		&job.ProfilesFound, &job.CreatedAt, &job.CompletedAt, &errMsg)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	if len(filterJSON) > 0 {
		job.Filter = &models.FilterModel{}
		if err := json.Unmarshal(filterJSON, job.Filter); err != nil {
			return nil, fmt.Errorf("failed to unmarshal filter: %w", err)
		}
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}

// ListJobs returns up to limit jobs, most recent first.
func (r *Repository) ListJobs(ctx context.Context, limit int) ([]models.ScrapeJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, original_query, parsed_query, provider, status, profiles_found, created_at, completed_at, error_message
		 FROM scrape_jobs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.ScrapeJob
	for rows.Next() {
		var (
			job        models.ScrapeJob
			filterJSON []byte
			errMsg     *string
		)
		if err := rows.Scan(&job.ID, &job.OriginalQuery, &filterJSON, &job.Provider, &job.Status,
			&job.ProfilesFound, &job.CreatedAt, &job.CompletedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(filterJSON) > 0 {
			job.Filter = &models.FilterModel{}
			if err := json.Unmarshal(filterJSON, job.Filter); err != nil {
				return nil, fmt.Errorf("failed to unmarshal filter: %w", err)
			}
		}
		if errMsg != nil {
			job.ErrorMessage = *errMsg
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ---------------- RECORD OPERATIONS ----------------

// AppendRecord inserts one extracted profile. The (job_id, profile_url) pair
// is the natural key; conflicting inserts are silently skipped, which gives
// at-least-once durability without duplicate rows.
func (r *Repository) AppendRecord(ctx context.Context, jobID string, rec models.ProfileRecord) error {
	query := `
		INSERT INTO profile_records (id, job_id, full_name, job_title, company_name, location, profile_url,
		                             seniority_level, decision_maker, engagement_score, email, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (job_id, profile_url) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		rec.ID, jobID, rec.FullName, rec.JobTitle, rec.CompanyName, rec.Location, rec.ProfileURL,
		string(rec.Seniority), rec.DecisionMaker, rec.Engagement, nullable(rec.Email), rec.ScrapedAt)
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// ListRecords returns a job's records ranked by engagement score.
func (r *Repository) ListRecords(ctx context.Context, jobID string) ([]models.ProfileRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, job_id, full_name, job_title, company_name, location, profile_url,
		        seniority_level, decision_maker, engagement_score, email, scraped_at
		 FROM profile_records WHERE job_id = $1 ORDER BY engagement_score DESC, scraped_at ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []models.ProfileRecord
	for rows.Next() {
		var (
			rec   models.ProfileRecord
			email *string
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.FullName, &rec.JobTitle, &rec.CompanyName,
			&rec.Location, &rec.ProfileURL, &rec.Seniority, &rec.DecisionMaker,
			&rec.Engagement, &email, &rec.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if email != nil {
			rec.Email = *email
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ---------------- CREDENTIAL OPERATIONS ----------------

// GetCredentials returns the single credentials row, or an empty record when
// none has been saved yet.
func (r *Repository) GetCredentials(ctx context.Context) (*models.Credentials, error) {
	query := `SELECT id, linkedin_email, linkedin_password, openai_api_key, claude_api_key,
	                 gemini_api_key, hunter_api_key, created_at, updated_at
	          FROM credentials LIMIT 1`

	var c models.Credentials
	var email, pass, openaiKey, claudeKey, geminiKey, hunterKey *string
	err := r.db.QueryRow(ctx, query).Scan(&c.ID, &email, &pass, &openaiKey, &claudeKey,
		&geminiKey, &hunterKey, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return &models.Credentials{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	c.TargetEmail = deref(email)
	c.TargetPass = deref(pass)
	c.OpenAIKey = deref(openaiKey)
	c.ClaudeKey = deref(claudeKey)
	c.GeminiKey = deref(geminiKey)
	c.HunterKey = deref(hunterKey)
	return &c, nil
}

// SaveCredentials merges the non-empty fields of update into the stored row,
// creating it if necessary, and returns the merged record.
func (r *Repository) SaveCredentials(ctx context.Context, update *models.Credentials) (*models.Credentials, error) {
	current, err := r.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}

	merged := *current
	if update.TargetEmail != "" {
		merged.TargetEmail = update.TargetEmail
	}
	if update.TargetPass != "" {
		merged.TargetPass = update.TargetPass
	}
	if update.OpenAIKey != "" {
		merged.OpenAIKey = update.OpenAIKey
	}
	if update.ClaudeKey != "" {
		merged.ClaudeKey = update.ClaudeKey
	}
	if update.GeminiKey != "" {
		merged.GeminiKey = update.GeminiKey
	}
	if update.HunterKey != "" {
		merged.HunterKey = update.HunterKey
	}

	now := time.Now().UTC()
	if merged.ID == "" {
		query := `INSERT INTO credentials (linkedin_email, linkedin_password, openai_api_key, claude_api_key, gemini_api_key, hunter_api_key)
		          VALUES ($1, $2, $3, $4, $5, $6)
		          RETURNING id, created_at, updated_at`
		err = r.db.QueryRow(ctx, query,
			nullable(merged.TargetEmail), nullable(merged.TargetPass), nullable(merged.OpenAIKey),
			nullable(merged.ClaudeKey), nullable(merged.GeminiKey), nullable(merged.HunterKey)).
			Scan(&merged.ID, &merged.CreatedAt, &merged.UpdatedAt)
	} else {
		query := `UPDATE credentials SET linkedin_email = $1, linkedin_password = $2, openai_api_key = $3,
		          claude_api_key = $4, gemini_api_key = $5, hunter_api_key = $6, updated_at = $7
		          WHERE id = $8`
		merged.UpdatedAt = now
		_, err = r.db.Exec(ctx, query,
			nullable(merged.TargetEmail), nullable(merged.TargetPass), nullable(merged.OpenAIKey),
			nullable(merged.ClaudeKey), nullable(merged.GeminiKey), nullable(merged.HunterKey),
			now, merged.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}
	return &merged, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

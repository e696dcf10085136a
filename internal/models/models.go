package models

import (
	"time"

	"github.com/google/uuid"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderClaude, ProviderGemini:
		return true
	}
	return false
}

type Seniority string

const (
	SeniorityEntry    Seniority = "entry"
	SeniorityMid      Seniority = "mid"
	SenioritySenior   Seniority = "senior"
	SeniorityDirector Seniority = "director"
	SeniorityVP       Seniority = "vp"
	SeniorityCLevel   Seniority = "c-level"
)

// Rank orders seniority tags from entry (1) to c-level (6).
// Unknown tags rank 0 so they never cross the decision-maker threshold.
func (s Seniority) Rank() int {
	switch s {
	case SeniorityEntry:
		return 1
	case SeniorityMid:
		return 2
	case SenioritySenior:
		return 3
	case SeniorityDirector:
		return 4
	case SeniorityVP:
		return 5
	case SeniorityCLevel:
		return 6
	}
	return 0
}

const (
	DefaultResultCap = 50
	MaxResultCap     = 200
)

// FilterModel is the provider-independent search request. It is built once by
// the interpreter and never mutated afterwards.
type FilterModel struct {
	Roles          []string    `json:"roles"`
	Locations      []string    `json:"locations"`
	CompanySizeMin int         `json:"company_size_min,omitempty"`
	SeniorityTags  []Seniority `json:"seniority_levels,omitempty"`
	Industries     []string    `json:"industries,omitempty"`
	ResultCap      int         `json:"result_cap"`
}

// Actionable reports whether the filter can drive a search at all.
// A filter with neither roles nor locations is a parse failure, not a search.
func (f *FilterModel) Actionable() bool {
	return len(f.Roles) > 0 || len(f.Locations) > 0
}

// ClampCap normalizes the result cap into [1, MaxResultCap], applying the
// default when unset.
func (f *FilterModel) ClampCap() {
	if f.ResultCap <= 0 {
		f.ResultCap = DefaultResultCap
	}
	if f.ResultCap > MaxResultCap {
		f.ResultCap = MaxResultCap
	}
}

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Terminal reports whether a job may never transition again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ScrapeJob is one unit of work and its lifecycle record. Only the
// orchestrator's execution goroutine mutates it; everyone else reads
// snapshots.
type ScrapeJob struct {
	ID            string       `json:"id"`
	OriginalQuery string       `json:"original_query"`
	Filter        *FilterModel `json:"parsed_query"`
	Provider      Provider     `json:"llm_provider"`
	Status        JobStatus    `json:"status"`
	ProfilesFound int          `json:"profiles_found"`
	CreatedAt     time.Time    `json:"created_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	ErrorMessage  string       `json:"error_message,omitempty"`
}

func NewScrapeJob(query string, provider Provider, filter *FilterModel) *ScrapeJob {
	return &ScrapeJob{
		ID:            uuid.NewString(),
		OriginalQuery: query,
		Filter:        filter,
		Provider:      provider,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// ProfileRecord is one normalized extraction result. The profile URL is the
// natural key; the discovery layer guarantees it is unique within a job.
type ProfileRecord struct {
	ID            string    `json:"id"`
	JobID         string    `json:"job_id"`
	FullName      string    `json:"full_name"`
	JobTitle      string    `json:"job_title"`
	CompanyName   string    `json:"company_name"`
	Location      string    `json:"location"`
	ProfileURL    string    `json:"profile_url"`
	Seniority     Seniority `json:"seniority_level"`
	DecisionMaker bool      `json:"decision_maker_indicator"`
	Engagement    float64   `json:"engagement_score"`
	Email         string    `json:"email_address,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// TargetCredentials is the login pair for the scraped site.
type TargetCredentials struct {
	Email    string
	Password string
}

// Credentials is the full credential record held by the store. Secret fields
// are masked before leaving the API boundary.
type Credentials struct {
	ID            string    `json:"id"`
	TargetEmail   string    `json:"linkedin_email,omitempty"`
	TargetPass    string    `json:"linkedin_password,omitempty"`
	OpenAIKey     string    `json:"openai_api_key,omitempty"`
	ClaudeKey     string    `json:"claude_api_key,omitempty"`
	GeminiKey     string    `json:"gemini_api_key,omitempty"`
	HunterKey     string    `json:"hunter_api_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProviderKey returns the API key configured for the given provider.
func (c *Credentials) ProviderKey(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return c.OpenAIKey
	case ProviderClaude:
		return c.ClaudeKey
	case ProviderGemini:
		return c.GeminiKey
	}
	return ""
}

// Target returns the scraped-site login pair.
func (c *Credentials) Target() TargetCredentials {
	return TargetCredentials{Email: c.TargetEmail, Password: c.TargetPass}
}

const mask = "••••••••"

// Masked returns a copy safe to serve over the API: secrets are replaced with
// a fixed mask so the UI can show which fields are set without leaking them.
func (c Credentials) Masked() Credentials {
	if c.TargetPass != "" {
		c.TargetPass = mask
	}
	if c.OpenAIKey != "" {
		c.OpenAIKey = mask
	}
	if c.ClaudeKey != "" {
		c.ClaudeKey = mask
	}
	if c.GeminiKey != "" {
		c.GeminiKey = mask
	}
	if c.HunterKey != "" {
		c.HunterKey = mask
	}
	return c
}

package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-leadgen-automation/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	callTimeout  = 20 * time.Second
	retryBackoff = 500 * time.Millisecond
)

// CredentialSource supplies the provider API keys. Read-only to this package.
type CredentialSource interface {
	GetCredentials(ctx context.Context) (*models.Credentials, error)
}

// Interpreter turns free text into a FilterModel through one of the
// interchangeable backends. Interpretation is synchronous and bounded: one
// transport retry, one corrective re-prompt, nothing beyond that.
type Interpreter struct {
	creds CredentialSource
	log   *logrus.Logger

	// newClient is swapped out in tests.
	newClient func(provider models.Provider, apiKey string) Client
}

func New(creds CredentialSource, log *logrus.Logger) *Interpreter {
	return &Interpreter{
		creds:     creds,
		log:       log,
		newClient: defaultClient,
	}
}

func defaultClient(provider models.Provider, apiKey string) Client {
	switch provider {
	case models.ProviderClaude:
		return NewClaudeClient(apiKey)
	case models.ProviderGemini:
		return NewGeminiClient(apiKey)
	default:
		return NewOpenAIClient(apiKey)
	}
}

// filterPayload is the constrained structure the backends are asked to emit.
type filterPayload struct {
	Roles           []string `json:"roles"`
	Locations       []string `json:"locations"`
	CompanySizeMin  *int     `json:"company_size_min"`
	Industries      []string `json:"industries"`
	SeniorityLevels []string `json:"seniority_levels"`
}

// Parse converts a free-text query into a validated FilterModel.
// All failures come back as *ParseError; no job exists yet at this point.
func (i *Interpreter) Parse(ctx context.Context, query string, provider models.Provider, resultCap int) (*models.FilterModel, error) {
	if strings.TrimSpace(query) == "" {
		return nil, parseErr(KindEmptyResult, "query is empty", nil)
	}
	if !provider.Valid() {
		return nil, parseErr(KindBackendUnavailable, fmt.Sprintf("unknown provider %q", provider), nil)
	}

	creds, err := i.creds.GetCredentials(ctx)
	if err != nil {
		return nil, parseErr(KindBackendUnavailable, "credential lookup failed", err)
	}
	apiKey := creds.ProviderKey(provider)
	if apiKey == "" {
		return nil, parseErr(KindBackendUnavailable, fmt.Sprintf("no API key configured for %s", provider), nil)
	}

	client := i.newClient(provider, apiKey)

	raw, err := i.complete(ctx, client, buildParsePrompt(query))
	if err != nil {
		return nil, parseErr(KindBackendUnavailable, fmt.Sprintf("%s call failed", provider), err)
	}

	payload, decodeErr := decodePayload(raw)
	if decodeErr != nil {
		// One corrective re-prompt: show the model its own bad output.
		i.log.WithField("provider", provider).Warnf("⚠️ Malformed filter output, re-prompting once: %v", decodeErr)
		raw, err = i.complete(ctx, client, buildCorrectivePrompt(query, raw))
		if err != nil {
			return nil, parseErr(KindBackendUnavailable, fmt.Sprintf("%s corrective call failed", provider), err)
		}
		payload, decodeErr = decodePayload(raw)
		if decodeErr != nil {
			return nil, parseErr(KindMalformedResponse, "backend output could not be coerced into a filter", decodeErr)
		}
	}

	filter := normalize(payload, resultCap)
	if !filter.Actionable() {
		return nil, parseErr(KindEmptyResult, "no recognizable role or location in query", nil)
	}

	i.log.WithFields(logrus.Fields{
		"provider":  provider,
		"roles":     filter.Roles,
		"locations": filter.Locations,
	}).Info("🔍 Query interpreted")

	return filter, nil
}

// complete performs one backend call with a single retry after a short
// backoff. Interpretation must return quickly, so no retry beyond that.
func (i *Interpreter) complete(ctx context.Context, client Client, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	raw, err := client.Complete(callCtx, prompt)
	if err == nil {
		return raw, nil
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(retryBackoff):
	}

	retryCtx, cancel2 := context.WithTimeout(ctx, callTimeout)
	defer cancel2()
	return client.Complete(retryCtx, prompt)
}

func decodePayload(raw string) (*filterPayload, error) {
	cleaned := cleanMarkdownJSON(raw)
	if cleaned == "" || !strings.HasPrefix(cleaned, "{") {
		return nil, fmt.Errorf("no JSON object in output")
	}
	var payload filterPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal filter payload: %w", err)
	}
	return &payload, nil
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// normalize canonicalizes casing and whitespace and maps loose seniority
// words onto the fixed tag set. The filter is immutable once returned.
func normalize(p *filterPayload, resultCap int) *models.FilterModel {
	filter := &models.FilterModel{
		Roles:      normalizeTerms(p.Roles),
		Locations:  normalizeTerms(p.Locations),
		Industries: normalizeTerms(p.Industries),
		ResultCap:  resultCap,
	}
	if p.CompanySizeMin != nil && *p.CompanySizeMin > 0 {
		filter.CompanySizeMin = *p.CompanySizeMin
	}

	seen := make(map[models.Seniority]bool)
	for _, level := range p.SeniorityLevels {
		tag, ok := mapSeniority(level)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		filter.SeniorityTags = append(filter.SeniorityTags, tag)
	}

	filter.ClampCap()
	return filter
}

func normalizeTerms(terms []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range terms {
		t = strings.Join(strings.Fields(t), " ")
		if t == "" {
			continue
		}
		t = titleCaser.String(t)
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

func mapSeniority(level string) (models.Seniority, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "entry", "entry-level", "entry level", "junior", "intern", "graduate":
		return models.SeniorityEntry, true
	case "mid", "mid-level", "manager", "intermediate":
		return models.SeniorityMid, true
	case "senior", "sr", "sr.", "principal", "staff", "lead":
		return models.SenioritySenior, true
	case "director", "head", "head of":
		return models.SeniorityDirector, true
	case "vp", "vice president", "svp", "evp":
		return models.SeniorityVP, true
	case "c-level", "clevel", "cxo", "executive", "chief":
		return models.SeniorityCLevel, true
	}
	return "", false
}

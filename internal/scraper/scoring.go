package scraper

import (
	"math"
	"strings"

	"go-leadgen-automation/internal/config"
	"go-leadgen-automation/internal/models"
)

const maxEngagement = 10.0

// Scorer computes the engagement score and the decision-maker signal. The
// weights come from configuration; the score is only comparable across
// records of the same job.
type Scorer struct {
	weights   config.ScoringConfig
	threshold models.Seniority
}

func NewScorer(cfg config.ScoringConfig) *Scorer {
	threshold := models.Seniority(cfg.DecisionMakerThreshold)
	if threshold.Rank() == 0 {
		threshold = models.SeniorityDirector
	}
	return &Scorer{weights: cfg, threshold: threshold}
}

// DecisionMaker reports whether the tag sits at or above the configured
// threshold (director and above by default).
func (s *Scorer) DecisionMaker(tag models.Seniority) bool {
	return tag.Rank() >= s.threshold.Rank()
}

// Engagement is a weighted sum of seniority rank, title-role match strength,
// and profile completeness, normalized to [0, 10].
func (s *Scorer) Engagement(rec *models.ProfileRecord, filter *models.FilterModel) float64 {
	total := s.weights.SeniorityWeight + s.weights.TitleMatchWeight + s.weights.CompletenessWeight
	if total <= 0 {
		return 0
	}

	seniority := float64(rec.Seniority.Rank()) / float64(models.SeniorityCLevel.Rank())
	match := titleMatchStrength(rec.JobTitle, filter.Roles)
	complete := completeness(rec)

	score := (seniority*s.weights.SeniorityWeight +
		match*s.weights.TitleMatchWeight +
		complete*s.weights.CompletenessWeight) / total * maxEngagement

	return math.Round(math.Min(score, maxEngagement)*100) / 100
}

// titleMatchStrength is the best word-overlap fraction between the title and
// any target role. Roles are a semantic match, not an exact one, so partial
// overlap still counts. A filter with no roles scores neutral.
func titleMatchStrength(title string, roles []string) float64 {
	if len(roles) == 0 {
		return 0.5
	}
	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(title)) {
		titleWords[strings.Trim(w, ",.()")] = true
	}

	best := 0.0
	for _, role := range roles {
		words := strings.Fields(strings.ToLower(role))
		if len(words) == 0 {
			continue
		}
		hits := 0
		for _, w := range words {
			if titleWords[w] {
				hits++
			}
		}
		if frac := float64(hits) / float64(len(words)); frac > best {
			best = frac
		}
	}
	return best
}

func completeness(rec *models.ProfileRecord) float64 {
	fields := []string{rec.FullName, rec.JobTitle, rec.CompanyName, rec.Location}
	filled := 0
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" && !strings.EqualFold(f, "unknown") {
			filled++
		}
	}
	return float64(filled) / float64(len(fields))
}

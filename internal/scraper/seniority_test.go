package scraper

import (
	"testing"

	"go-leadgen-automation/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSeniorityFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  models.Seniority
	}{
		{"Chief Marketing Officer", models.SeniorityCLevel},
		{"CEO & Co-Founder", models.SeniorityCLevel},
		{"President", models.SeniorityCLevel},
		{"Vice President of Engineering", models.SeniorityVP},
		{"VP Sales EMEA", models.SeniorityVP},
		{"SVP, Product", models.SeniorityVP},
		{"Director of Operations", models.SeniorityDirector},
		{"Head of Growth", models.SeniorityDirector},
		{"Senior Software Engineer", models.SenioritySenior},
		{"Sr. Account Executive", models.SenioritySenior},
		{"Staff Engineer", models.SenioritySenior},
		{"Marketing Manager", models.SeniorityMid},
		{"Software Engineer", models.SeniorityMid}, // no marker defaults to mid
		{"Junior Analyst", models.SeniorityEntry},
		{"Engineering Intern", models.SeniorityEntry},
		{"", models.SeniorityMid},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SeniorityFromTitle(tt.title))
		})
	}
}

// "Vice President" contains the word "president"; the more specific keyword
// must win, otherwise every VP looks like a c-level hit.
func TestSeniorityFromTitle_VicePresidentNotCLevel(t *testing.T) {
	assert.Equal(t, models.SeniorityVP, SeniorityFromTitle("Vice President of Sales"))
	assert.Equal(t, models.SeniorityCLevel, SeniorityFromTitle("President of Sales"))
}

// "Chief of Staff" matches both "chief" and "staff"; chief ranks higher and
// sits earlier in the table.
func TestSeniorityFromTitle_ChiefOutranksStaff(t *testing.T) {
	assert.Equal(t, models.SeniorityCLevel, SeniorityFromTitle("Chief of Staff"))
}

// word boundaries: "vp" must not fire inside unrelated words
func TestSeniorityFromTitle_WordBoundaries(t *testing.T) {
	assert.Equal(t, models.SeniorityMid, SeniorityFromTitle("Developer"))
	assert.Equal(t, models.SeniorityMid, SeniorityFromTitle("Eventmanagement Coordinator"))
}

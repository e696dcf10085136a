package scraper

import (
	"regexp"
	"strings"

	"go-leadgen-automation/internal/models"
)

type seniorityKeyword struct {
	keyword string
	tag     models.Seniority
	re      *regexp.Regexp
}

// seniorityTable is consulted top to bottom; the first matching keyword wins.
// Rows are ordered by seniority rank, with more specific keywords hoisted
// above substrings of higher-ranked ones ("vice president" must be tried
// before "president", "chief" outranks "head").
var seniorityTable = []seniorityKeyword{
	{keyword: "chief", tag: models.SeniorityCLevel},
	{keyword: "ceo", tag: models.SeniorityCLevel},
	{keyword: "cto", tag: models.SeniorityCLevel},
	{keyword: "cfo", tag: models.SeniorityCLevel},
	{keyword: "coo", tag: models.SeniorityCLevel},
	{keyword: "cmo", tag: models.SeniorityCLevel},
	{keyword: "vice president", tag: models.SeniorityVP},
	{keyword: "svp", tag: models.SeniorityVP},
	{keyword: "evp", tag: models.SeniorityVP},
	{keyword: "vp", tag: models.SeniorityVP},
	{keyword: "president", tag: models.SeniorityCLevel},
	{keyword: "founder", tag: models.SeniorityCLevel},
	{keyword: "owner", tag: models.SeniorityCLevel},
	{keyword: "director", tag: models.SeniorityDirector},
	{keyword: "head of", tag: models.SeniorityDirector},
	{keyword: "head", tag: models.SeniorityDirector},
	{keyword: "senior", tag: models.SenioritySenior},
	{keyword: "sr", tag: models.SenioritySenior},
	{keyword: "principal", tag: models.SenioritySenior},
	{keyword: "staff", tag: models.SenioritySenior},
	{keyword: "lead", tag: models.SenioritySenior},
	{keyword: "manager", tag: models.SeniorityMid},
	{keyword: "supervisor", tag: models.SeniorityMid},
	{keyword: "intern", tag: models.SeniorityEntry},
	{keyword: "junior", tag: models.SeniorityEntry},
	{keyword: "graduate", tag: models.SeniorityEntry},
	{keyword: "trainee", tag: models.SeniorityEntry},
	{keyword: "entry", tag: models.SeniorityEntry},
}

func init() {
	for i := range seniorityTable {
		seniorityTable[i].re = regexp.MustCompile(`\b` + regexp.QuoteMeta(seniorityTable[i].keyword) + `\b`)
	}
}

// SeniorityFromTitle classifies a job title against the ranked keyword table.
// Titles matching nothing default to mid: most individual contributors carry
// no seniority marker at all.
func SeniorityFromTitle(title string) models.Seniority {
	t := strings.ToLower(title)
	for _, k := range seniorityTable {
		if k.re.MatchString(t) {
			return k.tag
		}
	}
	return models.SeniorityMid
}

package orchestrator

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go-leadgen-automation/internal/models"
)

// csvHeader is fixed: downstream tooling depends on this exact column order.
var csvHeader = []string{
	"full_name",
	"job_title",
	"company_name",
	"location",
	"profile_url",
	"seniority_level",
	"decision_maker",
	"engagement_score",
	"email",
}

// WriteCSV serializes records in the export schema. Unresolved emails are
// left blank.
func WriteCSV(w io.Writer, records []models.ProfileRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.FullName,
			rec.JobTitle,
			rec.CompanyName,
			rec.Location,
			rec.ProfileURL,
			string(rec.Seniority),
			strconv.FormatBool(rec.DecisionMaker),
			strconv.FormatFloat(rec.Engagement, 'f', 2, 64),
			rec.Email,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

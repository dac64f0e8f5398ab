package shortlist

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

const daysPerYear = 365.25

// ExperienceYears sums the durations of the given work-experience records and
// returns the total in years. Records without a parsable start date are
// skipped, a missing or unparsable end date counts as ongoing until now, and
// negative intervals are dropped as malformed. Overlapping roles both count;
// there is no deduplication.
func ExperienceYears(records []*airtable.Record, now time.Time) float64 {
	totalDays := 0.0

	for _, rec := range records {
		start, ok := parseDate(rec.Fields.String(airtable.FieldStart))
		if !ok {
			continue
		}

		end := now
		if raw := rec.Fields.String(airtable.FieldEnd); raw != "" {
			if parsed, parsedOK := parseDate(raw); parsedOK {
				end = parsed
			}
		}

		if end.Before(start) {
			continue
		}

		totalDays += end.Sub(start).Hours() / 24
	}

	return totalDays / daysPerYear
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

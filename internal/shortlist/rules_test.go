package shortlist

import (
	"strings"
	"testing"
	"time"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func salaryRecord(fields airtable.Fields) []*airtable.Record {
	return []*airtable.Record{{ID: "salary", Fields: fields}}
}

func personalRecord(location string) []*airtable.Record {
	return []*airtable.Record{{ID: "personal", Fields: airtable.Fields{airtable.FieldLocation: location}}}
}

func TestExperienceRulePassesOnYears(t *testing.T) {
	rule := &experienceRule{cfg: Config{}.WithDefaults()}

	result := rule.Evaluate(&RuleInput{
		Experience: []*airtable.Record{experienceRecordWith("LocalSoft", "2019-01-01", "2024-06-01")},
		Now:        testNow,
	})

	if !result.Meets {
		t.Fatalf("expected pass, got %q", result.Reason)
	}
	if !strings.Contains(result.Reason, "Experience >= 4.0 years") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestExperienceRulePassesOnTier1Substring(t *testing.T) {
	rule := &experienceRule{cfg: Config{}.WithDefaults()}

	// Too short on years, but the employer matches the "alphabet" token.
	result := rule.Evaluate(&RuleInput{
		Experience: []*airtable.Record{experienceRecordWith("Alphabet Inc.", "2025-01-01", "2025-06-01")},
		Now:        testNow,
	})

	if !result.Meets {
		t.Fatalf("expected tier-1 pass, got %q", result.Reason)
	}
	if !strings.Contains(result.Reason, "Tier-1 company: Alphabet Inc.") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestExperienceRuleFails(t *testing.T) {
	rule := &experienceRule{cfg: Config{}.WithDefaults()}

	result := rule.Evaluate(&RuleInput{
		Experience: []*airtable.Record{experienceRecordWith("LocalSoft", "2025-01-01", "2025-06-01")},
		Now:        testNow,
	})

	if result.Meets {
		t.Fatalf("expected fail, got %q", result.Reason)
	}
	if !strings.Contains(result.Reason, "Insufficient experience") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
}

func TestCompensationRule(t *testing.T) {
	rule := &compensationRule{cfg: Config{}.WithDefaults()}

	tests := []struct {
		name   string
		salary []*airtable.Record
		meets  bool
	}{
		{
			name: "within budget",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:      "USD",
				airtable.FieldPreferredRate: 80.0,
				airtable.FieldAvailability:  25.0,
			}),
			meets: true,
		},
		{
			name: "lowercase currency is normalized",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:      "usd",
				airtable.FieldPreferredRate: 100.0,
				airtable.FieldAvailability:  20.0,
			}),
			meets: true,
		},
		{
			name: "non-usd currency fails",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:      "EUR",
				airtable.FieldPreferredRate: 80.0,
				airtable.FieldAvailability:  25.0,
			}),
			meets: false,
		},
		{
			name: "rate over budget fails",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:      "USD",
				airtable.FieldPreferredRate: 120.0,
				airtable.FieldAvailability:  25.0,
			}),
			meets: false,
		},
		{
			name: "availability too low fails",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:      "USD",
				airtable.FieldPreferredRate: 80.0,
				airtable.FieldAvailability:  15.0,
			}),
			meets: false,
		},
		{
			name: "missing rate fails",
			salary: salaryRecord(airtable.Fields{
				airtable.FieldCurrency:     "USD",
				airtable.FieldAvailability: 25.0,
			}),
			meets: false,
		},
		{
			name:   "no salary record",
			salary: nil,
			meets:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := rule.Evaluate(&RuleInput{Salary: tt.salary, Now: testNow})
			if result.Meets != tt.meets {
				t.Fatalf("expected meets=%v, got %v (%q)", tt.meets, result.Meets, result.Reason)
			}
		})
	}
}

func TestLocationRule(t *testing.T) {
	rule := &locationRule{cfg: Config{}.WithDefaults()}

	tests := []struct {
		name     string
		personal []*airtable.Record
		meets    bool
	}{
		{"exact region", personalRecord("Germany"), true},
		{"city with region suffix", personalRecord("San Francisco, US"), true},
		{"case-insensitive", personalRecord("INDIA"), true},
		{"unapproved region", personalRecord("Brazil"), false},
		{"empty location", personalRecord(""), false},
		{"no personal record", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := rule.Evaluate(&RuleInput{Personal: tt.personal, Now: testNow})
			if result.Meets != tt.meets {
				t.Fatalf("expected meets=%v, got %v (%q)", tt.meets, result.Meets, result.Reason)
			}
		})
	}
}

func experienceRecordWith(company, start, end string) *airtable.Record {
	return &airtable.Record{
		ID: "exp",
		Fields: airtable.Fields{
			airtable.FieldCompany: company,
			airtable.FieldStart:   start,
			airtable.FieldEnd:     end,
		},
	}
}

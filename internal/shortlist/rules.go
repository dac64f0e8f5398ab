package shortlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

// Config holds the business eligibility thresholds. Zero values are replaced
// with the defaults the hiring team runs in production.
type Config struct {
	MinExperienceYears float64  `mapstructure:"min-experience-years"`
	MaxHourlyRate      float64  `mapstructure:"max-hourly-rate"`
	MinAvailability    float64  `mapstructure:"min-availability"`
	Tier1Companies     []string `mapstructure:"tier1-companies"`
	AllowedLocations   []string `mapstructure:"allowed-locations"`
}

// WithDefaults fills unset thresholds.
func (c Config) WithDefaults() Config {
	if c.MinExperienceYears == 0 {
		c.MinExperienceYears = 4.0
	}
	if c.MaxHourlyRate == 0 {
		c.MaxHourlyRate = 100.0
	}
	if c.MinAvailability == 0 {
		c.MinAvailability = 20.0
	}
	if len(c.Tier1Companies) == 0 {
		c.Tier1Companies = []string{
			"google", "alphabet", "meta", "facebook", "openai", "microsoft",
			"apple", "amazon", "netflix", "nvidia", "tesla", "stripe",
		}
	}
	if len(c.AllowedLocations) == 0 {
		c.AllowedLocations = []string{"us", "canada", "germany", "uk", "india"}
	}
	return c
}

// RuleInput carries the raw child records a rule inspects.
type RuleInput struct {
	Personal   []*airtable.Record
	Experience []*airtable.Record
	Salary     []*airtable.Record
	Now        time.Time
}

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Meets  bool
	Reason string
}

// Rule is a single eligibility criterion. Rules are independent; the
// shortlister combines them.
type Rule interface {
	Name() string
	Evaluate(input *RuleInput) RuleResult
}

// Rules builds the production rule set.
func Rules(cfg Config) []Rule {
	cfg = cfg.WithDefaults()
	return []Rule{
		&experienceRule{cfg: cfg},
		&compensationRule{cfg: cfg},
		&locationRule{cfg: cfg},
	}
}

// experienceRule passes when total experience reaches the minimum OR any role
// was at a tier-1 company. Tier-1 matching is a case-insensitive substring
// test, so "Alphabet Inc." matches the token "alphabet".
type experienceRule struct {
	cfg Config
}

func (r *experienceRule) Name() string { return "experience" }

func (r *experienceRule) Evaluate(input *RuleInput) RuleResult {
	years := ExperienceYears(input.Experience, input.Now)
	tier1 := r.tier1Company(input.Experience)

	meetsYears := years >= r.cfg.MinExperienceYears
	meetsTier1 := tier1 != ""

	reasons := make([]string, 0, 2)
	if meetsYears {
		reasons = append(reasons, fmt.Sprintf("Experience >= %.1f years (%.1f yrs)", r.cfg.MinExperienceYears, years))
	}
	if meetsTier1 {
		reasons = append(reasons, fmt.Sprintf("Tier-1 company: %s", tier1))
	}

	if len(reasons) == 0 {
		return RuleResult{Reason: fmt.Sprintf("Insufficient experience (%.1f yrs)", years)}
	}

	return RuleResult{Meets: true, Reason: strings.Join(reasons, "; ")}
}

func (r *experienceRule) tier1Company(records []*airtable.Record) string {
	for _, rec := range records {
		company := rec.Fields.String(airtable.FieldCompany)
		lowered := strings.ToLower(strings.TrimSpace(company))
		for _, token := range r.cfg.Tier1Companies {
			if strings.Contains(lowered, strings.ToLower(token)) {
				return company
			}
		}
	}
	return ""
}

// compensationRule requires USD, a preferred rate within budget and enough
// weekly availability. Missing or non-numeric values fail, they never error.
type compensationRule struct {
	cfg Config
}

func (r *compensationRule) Name() string { return "compensation" }

func (r *compensationRule) Evaluate(input *RuleInput) RuleResult {
	if len(input.Salary) == 0 {
		return RuleResult{Reason: "No salary information"}
	}

	fields := input.Salary[0].Fields
	currency := strings.ToUpper(strings.TrimSpace(fields.String(airtable.FieldCurrency)))
	rate, rateNumeric := fields.Number(airtable.FieldPreferredRate)
	availability, availabilityNumeric := fields.Number(airtable.FieldAvailability)

	rateOK := currency == "USD" && rateNumeric && rate <= r.cfg.MaxHourlyRate
	availabilityOK := availabilityNumeric && availability >= r.cfg.MinAvailability

	if rateOK && availabilityOK {
		return RuleResult{
			Meets:  true,
			Reason: fmt.Sprintf("Compensation: <= $%.0f/hr USD and >= %.0f hrs/wk", r.cfg.MaxHourlyRate, r.cfg.MinAvailability),
		}
	}

	issues := make([]string, 0, 2)
	if !rateOK {
		issues = append(issues, fmt.Sprintf("Rate: %v %s (needs <= $%.0f USD)",
			fields.Value(airtable.FieldPreferredRate, "none"), currency, r.cfg.MaxHourlyRate))
	}
	if !availabilityOK {
		issues = append(issues, fmt.Sprintf("Availability: %v hrs/wk (needs >= %.0f)",
			fields.Value(airtable.FieldAvailability, "none"), r.cfg.MinAvailability))
	}

	return RuleResult{Reason: strings.Join(issues, "; ")}
}

// locationRule passes when the location contains one of the allowed region
// tokens, case-insensitively.
type locationRule struct {
	cfg Config
}

func (r *locationRule) Name() string { return "location" }

func (r *locationRule) Evaluate(input *RuleInput) RuleResult {
	if len(input.Personal) == 0 {
		return RuleResult{Reason: "No location information"}
	}

	location := strings.ToLower(strings.TrimSpace(input.Personal[0].Fields.String(airtable.FieldLocation)))
	for _, token := range r.cfg.AllowedLocations {
		if strings.Contains(location, strings.ToLower(token)) {
			return RuleResult{Meets: true, Reason: "Location: Approved region"}
		}
	}

	return RuleResult{Reason: fmt.Sprintf("Location: %s (not in approved regions)", location)}
}

package shortlist

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
)

// Evaluation is the structured outcome of running all rules against one
// applicant. Reasons collect the rules that passed, FailReasons the ones that
// did not; both are kept for observability even when no side effect happens.
type Evaluation struct {
	Eligible       bool
	Reasons        []string
	FailReasons    []string
	CompressedJSON string
	Results        map[string]RuleResult
}

// Entry is one newly shortlisted applicant.
type Entry struct {
	ID      string
	Reasons []string
}

// Results partitions a shortlisting batch.
type Results struct {
	Shortlisted []Entry
	Failed      []applicant.Failure
	Ineligible  []applicant.Failure
}

// Shortlister evaluates applicants against the eligibility rules and creates
// Shortlisted Lead records for the ones that pass.
type Shortlister struct {
	store  airtable.Store
	tables airtable.Tables
	rules  []Rule
	logger *zap.Logger

	now func() time.Time
}

func New(store airtable.Store, tables airtable.Tables, cfg Config, logger *zap.Logger) *Shortlister {
	return &Shortlister{
		store:  store,
		tables: tables,
		rules:  Rules(cfg),
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate runs every rule against the applicant's child records. All three
// top-level rules must pass for eligibility. The call is read-only and
// deterministic for identical records.
func (s *Shortlister) Evaluate(app *airtable.Record) (*Evaluation, error) {
	raw := app.Fields.String(airtable.FieldCompressedJSON)
	if raw == "" {
		return &Evaluation{FailReasons: []string{"No compressed document found"}}, nil
	}

	if _, err := applicant.Parse(raw); err != nil {
		return &Evaluation{FailReasons: []string{fmt.Sprintf("Invalid document: %v", err)}}, nil
	}

	personal, err := s.store.LinkedRecords(s.tables.Personal, app.ID)
	if err != nil {
		return nil, fmt.Errorf("personal records: %w", err)
	}

	experience, err := s.store.LinkedRecords(s.tables.Experience, app.ID)
	if err != nil {
		return nil, fmt.Errorf("experience records: %w", err)
	}

	salary, err := s.store.LinkedRecords(s.tables.Salary, app.ID)
	if err != nil {
		return nil, fmt.Errorf("salary records: %w", err)
	}

	input := &RuleInput{
		Personal:   personal,
		Experience: experience,
		Salary:     salary,
		Now:        s.now(),
	}

	eval := &Evaluation{
		Eligible:       true,
		Reasons:        make([]string, 0, len(s.rules)),
		FailReasons:    make([]string, 0),
		CompressedJSON: raw,
		Results:        make(map[string]RuleResult, len(s.rules)),
	}

	for _, rule := range s.rules {
		result := rule.Evaluate(input)
		eval.Results[rule.Name()] = result

		if result.Meets {
			eval.Reasons = append(eval.Reasons, result.Reason)
			continue
		}

		eval.Eligible = false
		eval.FailReasons = append(eval.FailReasons, fmt.Sprintf("%s: %s", rule.Name(), result.Reason))
	}

	return eval, nil
}

// Shortlist evaluates one applicant and, when eligible, creates a Shortlisted
// Lead carrying a copy of the document and the passing reasons, then marks the
// applicant. The status update is not rolled back if it fails after the lead
// was created; a retry may produce a duplicate lead and that risk is accepted.
func (s *Shortlister) Shortlist(app *airtable.Record) (*Evaluation, error) {
	eval, err := s.Evaluate(app)
	if err != nil {
		return nil, err
	}

	if !eval.Eligible {
		s.logger.Info("applicant rejected",
			zap.String("applicant_id", app.ID),
			zap.String("reasons", strings.Join(eval.FailReasons, " | ")),
		)
		return eval, nil
	}

	s.logger.Info("applicant selected",
		zap.String("applicant_id", app.ID),
		zap.String("reasons", strings.Join(eval.Reasons, "; ")),
	)

	lead := map[string]any{
		airtable.LinkField:           []string{app.ID},
		airtable.FieldCompressedJSON: eval.CompressedJSON,
		airtable.FieldScoreReason:    strings.Join(eval.Reasons, "\n"),
	}

	if _, err := s.store.Create(s.tables.Shortlisted, lead); err != nil {
		return eval, fmt.Errorf("create shortlisted lead: %w", err)
	}

	if _, err := s.store.Update(s.tables.Applicants, app.ID, map[string]any{
		airtable.FieldShortlistStatus: "yes",
	}); err != nil {
		s.logger.Warn("shortlist status update failed after lead creation",
			zap.String("applicant_id", app.ID),
			zap.Error(err),
		)
	}

	return eval, nil
}

// ShortlistAll evaluates every applicant, skipping the ones already marked as
// shortlisted. One applicant's failure never aborts the batch.
func (s *Shortlister) ShortlistAll() (*Results, error) {
	applicants, err := s.store.List(s.tables.Applicants)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Shortlisted: make([]Entry, 0),
		Failed:      make([]applicant.Failure, 0),
		Ineligible:  make([]applicant.Failure, 0),
	}

	for _, app := range applicants {
		if app.Fields.String(airtable.FieldShortlistStatus) == "yes" {
			continue
		}

		s.logger.Info("evaluating applicant", zap.String("applicant_id", app.ID))

		eval, err := s.Shortlist(app)
		if err != nil {
			results.Failed = append(results.Failed, applicant.Failure{ID: app.ID, Reason: err.Error()})
			continue
		}

		if eval.Eligible {
			results.Shortlisted = append(results.Shortlisted, Entry{ID: app.ID, Reasons: eval.Reasons})
			continue
		}

		results.Ineligible = append(results.Ineligible, applicant.Failure{
			ID:     app.ID,
			Reason: strings.Join(eval.FailReasons, "; "),
		})
	}

	return results, nil
}

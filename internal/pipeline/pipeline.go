// Package pipeline sequences the three processing phases: compression,
// shortlisting and LLM evaluation. Phases run strictly one after another
// because later phases read what earlier phases wrote, and sequential
// processing keeps the external APIs within their rate limits.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
	"github.com/talentops/applicant-pipeline/internal/evaluation"
	"github.com/talentops/applicant-pipeline/internal/shortlist"
)

// Mode selects which applicants a run picks up.
type Mode string

const (
	// ModeNewOnly processes applicants without a compressed document.
	ModeNewOnly Mode = "new_only"
	// ModeChanged processes applicants compressed but not yet evaluated.
	ModeChanged Mode = "changed"
	// ModeAll recompresses every applicant, overwriting stored documents.
	ModeAll Mode = "all"
)

// ParseMode validates a mode string.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeNewOnly, ModeChanged, ModeAll:
		return Mode(raw), nil
	default:
		return "", fmt.Errorf("invalid mode %q (want new_only, changed or all)", raw)
	}
}

const defaultMaxAttempts = 3

// Summary aggregates the per-phase results of one run.
type Summary struct {
	NoWork       bool
	Compression  *applicant.CompressResults
	Shortlisting *shortlist.Results
	Evaluation   *evaluation.Results
}

// HasFailures reports whether any phase recorded a per-applicant failure.
func (s *Summary) HasFailures() bool {
	if s.NoWork {
		return false
	}
	return len(s.Compression.Failed) > 0 ||
		len(s.Shortlisting.Failed) > 0 ||
		len(s.Evaluation.Failed) > 0
}

type Pipeline struct {
	store       airtable.Store
	tables      airtable.Tables
	compressor  *applicant.Compressor
	shortlister *shortlist.Shortlister
	evaluator   *evaluation.Evaluator
	logger      *zap.Logger
	maxAttempts uint64
}

func New(
	store airtable.Store,
	tables airtable.Tables,
	compressor *applicant.Compressor,
	shortlister *shortlist.Shortlister,
	evaluator *evaluation.Evaluator,
	maxAttempts int,
	logger *zap.Logger,
) *Pipeline {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Pipeline{
		store:       store,
		tables:      tables,
		compressor:  compressor,
		shortlister: shortlister,
		evaluator:   evaluator,
		logger:      logger,
		maxAttempts: uint64(maxAttempts),
	}
}

// ApplicantsFor returns the applicants a run in the given mode would touch.
func (p *Pipeline) ApplicantsFor(mode Mode) ([]*airtable.Record, error) {
	all, err := p.store.List(p.tables.Applicants)
	if err != nil {
		return nil, err
	}

	switch mode {
	case ModeAll:
		return all, nil
	case ModeNewOnly:
		selected := make([]*airtable.Record, 0, len(all))
		for _, app := range all {
			if app.Fields.String(airtable.FieldCompressedJSON) == "" {
				selected = append(selected, app)
			}
		}
		return selected, nil
	case ModeChanged:
		selected := make([]*airtable.Record, 0, len(all))
		for _, app := range all {
			if app.Fields.String(airtable.FieldCompressedJSON) != "" &&
				app.Fields.String(airtable.FieldLLMSummary) == "" {
				selected = append(selected, app)
			}
		}
		return selected, nil
	default:
		return nil, fmt.Errorf("invalid mode %q", mode)
	}
}

// Run executes the full pipeline. With a non-empty singleID only that
// applicant is compressed; the shortlisting and evaluation phases always
// sweep the whole base because their own skip logic makes re-runs cheap.
func (p *Pipeline) Run(ctx context.Context, mode Mode, singleID string) (*Summary, error) {
	var process []*airtable.Record

	if singleID != "" {
		app, err := p.store.Get(p.tables.Applicants, singleID)
		if err != nil {
			return nil, fmt.Errorf("get applicant %s: %w", singleID, err)
		}
		process = []*airtable.Record{app}
		p.logger.Info("processing single applicant", zap.String("applicant_id", singleID))
	} else {
		applicants, err := p.ApplicantsFor(mode)
		if err != nil {
			return nil, err
		}
		process = applicants
		p.logger.Info("selected applicants for processing",
			zap.String("mode", string(mode)),
			zap.Int("count", len(process)),
		)
	}

	if len(process) == 0 {
		p.logger.Info("no applicants need processing")
		return &Summary{NoWork: true}, nil
	}

	summary := &Summary{}

	p.logger.Info("phase 1: document compression")
	compression, err := p.runCompression(ctx, mode, process)
	if err != nil {
		return nil, fmt.Errorf("compression phase: %w", err)
	}
	summary.Compression = compression
	p.logger.Info("compression phase complete",
		zap.Int("succeeded", len(compression.Succeeded)),
		zap.Int("failed", len(compression.Failed)),
		zap.Int("skipped", len(compression.Skipped)),
	)

	p.logger.Info("phase 2: shortlisting evaluation")
	var shortlisting *shortlist.Results
	err = p.retry(ctx, "shortlisting", func() error {
		var stepErr error
		shortlisting, stepErr = p.shortlister.ShortlistAll()
		return stepErr
	})
	if err != nil {
		return nil, fmt.Errorf("shortlisting phase: %w", err)
	}
	summary.Shortlisting = shortlisting
	p.logger.Info("shortlisting phase complete",
		zap.Int("shortlisted", len(shortlisting.Shortlisted)),
		zap.Int("ineligible", len(shortlisting.Ineligible)),
		zap.Int("failed", len(shortlisting.Failed)),
	)

	p.logger.Info("phase 3: llm evaluation")
	var evaluated *evaluation.Results
	err = p.retry(ctx, "llm evaluation", func() error {
		var stepErr error
		evaluated, stepErr = p.evaluator.EvaluateAll(ctx)
		return stepErr
	})
	if err != nil {
		return nil, fmt.Errorf("llm evaluation phase: %w", err)
	}
	summary.Evaluation = evaluated
	p.logger.Info("llm evaluation phase complete",
		zap.Int("succeeded", len(evaluated.Succeeded)),
		zap.Int("failed", len(evaluated.Failed)),
		zap.Int("skipped", len(evaluated.Skipped)),
		zap.Int64("total_tokens", evaluated.TotalTokens),
	)

	return summary, nil
}

// runCompression forces per-applicant recompression in "all" mode and
// otherwise defers to the skip-if-present batch.
func (p *Pipeline) runCompression(ctx context.Context, mode Mode, process []*airtable.Record) (*applicant.CompressResults, error) {
	if mode == ModeAll {
		results := &applicant.CompressResults{
			Succeeded: make([]string, 0, len(process)),
			Failed:    make([]applicant.Failure, 0),
			Skipped:   make([]string, 0),
		}

		for _, app := range process {
			p.logger.Info("recompressing applicant", zap.String("applicant_id", app.ID))
			if _, err := p.compressor.Compress(app.ID); err != nil {
				results.Failed = append(results.Failed, applicant.Failure{ID: app.ID, Reason: err.Error()})
				continue
			}
			results.Succeeded = append(results.Succeeded, app.ID)
		}

		return results, nil
	}

	var results *applicant.CompressResults
	err := p.retry(ctx, "compression", func() error {
		var stepErr error
		results, stepErr = p.compressor.CompressAll()
		return stepErr
	})

	return results, err
}

// retry wraps a batch-level entry point in exponential backoff. Per-applicant
// failures are data, not errors, so only whole-batch failures land here; the
// last attempt's error propagates to the caller.
func (p *Pipeline) retry(ctx context.Context, step string, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), p.maxAttempts-1), ctx)

	notify := func(err error, wait time.Duration) {
		p.logger.Warn("batch attempt failed, retrying",
			zap.String("step", step),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	return backoff.RetryNotify(op, policy, notify)
}

// Package evaluation runs the LLM pass of the pipeline: it fingerprints each
// applicant's compressed document, skips unchanged applicants, and asks the
// model for a summary, score, data gaps and follow-up questions.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/ai"
	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
	"github.com/talentops/applicant-pipeline/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxTokens    = 500
	defaultTemperature  = 0.3
	defaultCallDelay    = 500 * time.Millisecond
	defaultMaxLogLength = 200

	skipReasonUnchanged = "No changes detected"
)

// Evaluation is the parsed model output for one applicant.
type Evaluation struct {
	Summary   string
	Score     int
	Issues    []string
	FollowUps []string
}

// Result is the outcome of evaluating a single applicant.
type Result struct {
	Skipped    bool
	SkipReason string
	Evaluation *Evaluation
	TokensUsed int64
}

// Results partitions an evaluation batch.
type Results struct {
	Succeeded   []string
	Failed      []applicant.Failure
	Skipped     []applicant.Failure
	TotalTokens int64
}

// Config tunes the evaluator. Zero values fall back to defaults.
type Config struct {
	MaxTokens    int64         `mapstructure:"max-tokens"`
	Temperature  float64       `mapstructure:"temperature"`
	CallDelay    time.Duration `mapstructure:"call-delay"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

func (c Config) withDefaults() Config {
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.CallDelay == 0 {
		c.CallDelay = defaultCallDelay
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
	return c
}

type Evaluator struct {
	store     airtable.Store
	tables    airtable.Tables
	completer ai.Completer
	cfg       Config
	logger    *zap.Logger
}

func New(store airtable.Store, tables airtable.Tables, completer ai.Completer, cfg Config, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		store:     store,
		tables:    tables,
		completer: completer,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Evaluate runs one applicant through the LLM. When the document fingerprint
// matches the stored one and a summary already exists, the call is skipped
// entirely; repeated invocations over unchanged data cost zero external calls.
func (e *Evaluator) Evaluate(ctx context.Context, app *airtable.Record) (*Result, error) {
	raw := app.Fields.String(airtable.FieldCompressedJSON)
	if raw == "" {
		return nil, applicant.ErrNoDocument
	}

	doc, err := applicant.Parse(raw)
	if err != nil {
		return nil, err
	}

	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("fingerprint document: %w", err)
	}

	storedHash := app.Fields.String(airtable.FieldLLMDataHash)
	storedSummary := app.Fields.String(airtable.FieldLLMSummary)
	if storedHash == fingerprint && storedSummary != "" {
		return &Result{Skipped: true, SkipReason: skipReasonUnchanged}, nil
	}

	encoded, err := doc.Encode()
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(encoded)

	e.logger.Debug("llm evaluation request",
		zap.String("applicant_id", app.ID),
		zap.String("model", e.completer.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.cfg.MaxLogLength)),
	)

	resp, err := e.completer.Complete(ctx, &ai.Request{
		Prompt:      prompt,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm evaluation: %w", err)
	}

	e.logger.Debug("llm evaluation response",
		zap.String("applicant_id", app.ID),
		zap.Int("response_length", utf8.RuneCountInString(resp.Content)),
		zap.String("response_preview", utils.TruncateForLog(resp.Content, e.cfg.MaxLogLength)),
	)

	eval := parseResponse(resp.Content)

	// One atomic field-set update: nothing is persisted unless the whole
	// evaluation succeeded.
	if _, err := e.store.Update(e.tables.Applicants, app.ID, map[string]any{
		airtable.FieldLLMSummary:   eval.Summary,
		airtable.FieldLLMScore:     eval.Score,
		airtable.FieldLLMFollowUps: strings.Join(eval.FollowUps, "\n"),
		airtable.FieldLLMDataHash:  fingerprint,
	}); err != nil {
		return nil, err
	}

	return &Result{Evaluation: eval, TokensUsed: resp.TotalTokens}, nil
}

// EvaluateAll evaluates every applicant that has a compressed document,
// pausing between LLM calls to stay friendly to provider rate limits.
func (e *Evaluator) EvaluateAll(ctx context.Context) (*Results, error) {
	applicants, err := e.store.List(e.tables.Applicants)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Succeeded: make([]string, 0),
		Failed:    make([]applicant.Failure, 0),
		Skipped:   make([]applicant.Failure, 0),
	}

	for _, app := range applicants {
		if app.Fields.String(airtable.FieldCompressedJSON) == "" {
			results.Skipped = append(results.Skipped, applicant.Failure{ID: app.ID, Reason: "No compressed document"})
			continue
		}

		e.logger.Info("evaluating applicant with llm", zap.String("applicant_id", app.ID))

		result, err := e.Evaluate(ctx, app)
		switch {
		case err != nil:
			results.Failed = append(results.Failed, applicant.Failure{ID: app.ID, Reason: err.Error()})
			e.logger.Warn("llm evaluation failed", zap.String("applicant_id", app.ID), zap.Error(err))
		case result.Skipped:
			results.Skipped = append(results.Skipped, applicant.Failure{ID: app.ID, Reason: result.SkipReason})
		default:
			results.Succeeded = append(results.Succeeded, app.ID)
			results.TotalTokens += result.TokensUsed
			e.logger.Info("llm evaluation complete",
				zap.String("applicant_id", app.ID),
				zap.Int("score", result.Evaluation.Score),
				zap.Int64("tokens_used", result.TokensUsed),
			)
		}

		if err := utils.WaitFor(ctx, e.cfg.CallDelay); err != nil {
			return results, err
		}
	}

	return results, nil
}

func buildPrompt(documentJSON string) string {
	return strings.ReplaceAll(promptTemplate, "{{APPLICANT_JSON}}", documentJSON)
}

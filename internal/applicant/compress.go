package applicant

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

// Failure records a per-applicant error inside a batch run. Batch operations
// never abort on a single bad applicant.
type Failure struct {
	ID     string
	Reason string
}

// CompressResults partitions the outcome of a compression batch.
type CompressResults struct {
	Succeeded []string
	Failed    []Failure
	Skipped   []string
}

// Compressor folds the linked child records of an applicant into a single
// compressed document on the parent record.
type Compressor struct {
	store  airtable.Store
	tables airtable.Tables
	logger *zap.Logger
}

func NewCompressor(store airtable.Store, tables airtable.Tables, logger *zap.Logger) *Compressor {
	return &Compressor{
		store:  store,
		tables: tables,
		logger: logger,
	}
}

type personalFields struct {
	FullName string `mapstructure:"Full Name"`
	Email    string `mapstructure:"Email"`
	Location string `mapstructure:"Location"`
	LinkedIn string `mapstructure:"LinkedIn"`
}

type experienceFields struct {
	Company      string `mapstructure:"Company"`
	Title        string `mapstructure:"Title"`
	Start        string `mapstructure:"Start"`
	End          string `mapstructure:"End"`
	Technologies string `mapstructure:"Technologies"`
}

type salaryFields struct {
	PreferredRate *float64 `mapstructure:"Preferred Rate"`
	MinimumRate   *float64 `mapstructure:"Minimum Rate"`
	Currency      string   `mapstructure:"Currency"`
	Availability  *float64 `mapstructure:"Availability (hrs/wk)"`
}

// Compress builds the document for one applicant and persists it onto the
// applicant's compressed-document field.
func (c *Compressor) Compress(applicantID string) (*Document, error) {
	personal, err := c.store.LinkedRecords(c.tables.Personal, applicantID)
	if err != nil {
		return nil, fmt.Errorf("personal records: %w", err)
	}

	experience, err := c.store.LinkedRecords(c.tables.Experience, applicantID)
	if err != nil {
		return nil, fmt.Errorf("experience records: %w", err)
	}

	salary, err := c.store.LinkedRecords(c.tables.Salary, applicantID)
	if err != nil {
		return nil, fmt.Errorf("salary records: %w", err)
	}

	doc, err := buildDocument(personal, experience, salary)
	if err != nil {
		return nil, err
	}

	encoded, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	if _, err = c.store.Update(c.tables.Applicants, applicantID, map[string]any{
		airtable.FieldCompressedJSON: encoded,
	}); err != nil {
		return nil, err
	}

	return doc, nil
}

// CompressAll compresses every applicant that has no stored document yet.
// Presence of a document means the applicant is skipped; re-running never
// overwrites unless the caller forces recompression per applicant.
func (c *Compressor) CompressAll() (*CompressResults, error) {
	applicants, err := c.store.List(c.tables.Applicants)
	if err != nil {
		return nil, err
	}

	results := &CompressResults{
		Succeeded: make([]string, 0),
		Failed:    make([]Failure, 0),
		Skipped:   make([]string, 0),
	}

	for _, app := range applicants {
		if app.Fields.String(airtable.FieldCompressedJSON) != "" {
			results.Skipped = append(results.Skipped, app.ID)
			continue
		}

		c.logger.Info("compressing applicant", zap.String("applicant_id", app.ID))

		if _, err := c.Compress(app.ID); err != nil {
			results.Failed = append(results.Failed, Failure{ID: app.ID, Reason: err.Error()})
			c.logger.Warn("compression failed", zap.String("applicant_id", app.ID), zap.Error(err))
			continue
		}

		results.Succeeded = append(results.Succeeded, app.ID)
	}

	return results, nil
}

// buildDocument keeps only the first personal and salary record; extras are
// ignored on purpose, matching the upstream "first wins" behavior.
func buildDocument(personal, experience, salary []*airtable.Record) (*Document, error) {
	doc := &Document{Experience: make([]Experience, 0, len(experience))}

	if len(personal) > 0 {
		var p personalFields
		if err := decodeFields(personal[0].Fields, &p); err != nil {
			return nil, fmt.Errorf("decode personal fields: %w", err)
		}
		doc.Personal = Personal{
			Name:     p.FullName,
			Email:    p.Email,
			Location: p.Location,
			LinkedIn: p.LinkedIn,
		}
	}

	for _, rec := range experience {
		var e experienceFields
		if err := decodeFields(rec.Fields, &e); err != nil {
			return nil, fmt.Errorf("decode experience fields: %w", err)
		}
		entry := Experience{
			Company:      e.Company,
			Title:        e.Title,
			Start:        e.Start,
			End:          e.End,
			Technologies: e.Technologies,
		}
		if entry.isEmpty() {
			continue
		}
		doc.Experience = append(doc.Experience, entry)
	}

	if len(salary) > 0 {
		var s salaryFields
		if err := decodeFields(salary[0].Fields, &s); err != nil {
			return nil, fmt.Errorf("decode salary fields: %w", err)
		}
		doc.Salary = Salary{
			PreferredRate: s.PreferredRate,
			MinimumRate:   s.MinimumRate,
			Currency:      s.Currency,
			Availability:  s.Availability,
		}
	}

	return doc, nil
}

func decodeFields(fields airtable.Fields, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(map[string]any(fields))
}

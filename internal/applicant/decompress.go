package applicant

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

// Decompressor expands a stored document back into freshly created child
// records. It exists for manual-edit workflows: the document is the source of
// truth and the child tables are re-derived from it.
type Decompressor struct {
	store  airtable.Store
	tables airtable.Tables
	logger *zap.Logger
}

func NewDecompressor(store airtable.Store, tables airtable.Tables, logger *zap.Logger) *Decompressor {
	return &Decompressor{
		store:  store,
		tables: tables,
		logger: logger,
	}
}

// Decompress deletes all existing child records of the applicant and
// recreates them from the stored document. This is lossy: child fields
// outside the document schema are gone afterwards.
func (d *Decompressor) Decompress(applicantID string) (*Document, error) {
	app, err := d.store.Get(d.tables.Applicants, applicantID)
	if err != nil {
		return nil, err
	}

	raw := app.Fields.String(airtable.FieldCompressedJSON)
	if raw == "" {
		return nil, ErrNoDocument
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	if err := d.clearChildren(applicantID); err != nil {
		return nil, err
	}

	if err := d.createChildren(applicantID, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (d *Decompressor) clearChildren(applicantID string) error {
	for _, table := range []string{d.tables.Personal, d.tables.Experience, d.tables.Salary} {
		records, err := d.store.LinkedRecords(table, applicantID)
		if err != nil {
			return err
		}

		for _, rec := range records {
			if err := d.store.Delete(table, rec.ID); err != nil {
				return err
			}
		}

		if len(records) > 0 {
			d.logger.Debug("cleared child records",
				zap.String("table", table),
				zap.String("applicant_id", applicantID),
				zap.Int("count", len(records)),
			)
		}
	}

	return nil
}

func (d *Decompressor) createChildren(applicantID string, doc *Document) error {
	if !doc.Personal.isEmpty() {
		fields := linkedFields(applicantID)
		setIfPresent(fields, airtable.FieldFullName, doc.Personal.Name)
		setIfPresent(fields, airtable.FieldEmail, doc.Personal.Email)
		setIfPresent(fields, airtable.FieldLocation, doc.Personal.Location)
		setIfPresent(fields, airtable.FieldLinkedIn, doc.Personal.LinkedIn)

		if _, err := d.store.Create(d.tables.Personal, fields); err != nil {
			return fmt.Errorf("create personal record: %w", err)
		}
	}

	for _, exp := range doc.Experience {
		if exp.isEmpty() {
			continue
		}

		fields := linkedFields(applicantID)
		setIfPresent(fields, airtable.FieldCompany, exp.Company)
		setIfPresent(fields, airtable.FieldTitle, exp.Title)
		setIfPresent(fields, airtable.FieldStart, exp.Start)
		setIfPresent(fields, airtable.FieldEnd, exp.End)
		setIfPresent(fields, airtable.FieldTechnologies, exp.Technologies)

		if _, err := d.store.Create(d.tables.Experience, fields); err != nil {
			return fmt.Errorf("create experience record: %w", err)
		}
	}

	if !doc.Salary.isEmpty() {
		fields := linkedFields(applicantID)
		if doc.Salary.PreferredRate != nil {
			fields[airtable.FieldPreferredRate] = *doc.Salary.PreferredRate
		}
		if doc.Salary.MinimumRate != nil {
			fields[airtable.FieldMinimumRate] = *doc.Salary.MinimumRate
		}
		setIfPresent(fields, airtable.FieldCurrency, doc.Salary.Currency)
		if doc.Salary.Availability != nil {
			fields[airtable.FieldAvailability] = *doc.Salary.Availability
		}

		if _, err := d.store.Create(d.tables.Salary, fields); err != nil {
			return fmt.Errorf("create salary record: %w", err)
		}
	}

	return nil
}

func linkedFields(applicantID string) map[string]any {
	return map[string]any{airtable.LinkField: []string{applicantID}}
}

func setIfPresent(fields map[string]any, name, value string) {
	if value != "" {
		fields[name] = value
	}
}

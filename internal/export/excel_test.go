package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
)

type fakeStore struct {
	records map[string][]*airtable.Record
}

func (s *fakeStore) List(table string) ([]*airtable.Record, error) {
	return s.records[table], nil
}

func (s *fakeStore) Get(table, id string) (*airtable.Record, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStore) Create(table string, fields map[string]any) (*airtable.Record, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStore) Update(table, id string, fields map[string]any) (*airtable.Record, error) {
	return nil, fmt.Errorf("not implemented")
}

func (s *fakeStore) Delete(table, id string) error { return fmt.Errorf("not implemented") }

func (s *fakeStore) LinkedRecords(table, parentID string) ([]*airtable.Record, error) {
	return airtable.FilterLinked(s.records[table], parentID), nil
}

func TestExportWritesWorkbook(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := &fakeStore{records: map[string][]*airtable.Record{
		tables.Applicants: {
			{
				ID: "app1",
				Fields: airtable.Fields{
					airtable.FieldCompressedJSON:  `{"personal":{"name":"Candidate 1","email":"c1@example.com","location":"US"},"experience":[],"salary":{}}`,
					airtable.FieldShortlistStatus: "yes",
					airtable.FieldLLMScore:        8.0,
					airtable.FieldLLMSummary:      "Strong candidate.",
				},
			},
		},
		tables.Shortlisted: {
			{
				ID: "lead1",
				Fields: airtable.Fields{
					airtable.LinkField:           []any{"app1"},
					airtable.FieldScoreReason:    "Tier-1 company: Google",
					airtable.FieldCompressedJSON: "{}",
				},
			},
		},
	}}

	outputPath := filepath.Join(t.TempDir(), "report")

	path, err := New(store, tables, zap.NewNop()).Export(outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != outputPath+".xlsx" {
		t.Fatalf("expected .xlsx extension appended, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	name, err := f.GetCellValue("Applicants", "B2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if name != "Candidate 1" {
		t.Fatalf("expected name from the document, got %q", name)
	}

	reason, err := f.GetCellValue("Shortlisted Leads", "C2")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if reason != "Tier-1 company: Google" {
		t.Fatalf("unexpected score reason: %q", reason)
	}
}

func TestExportEmptyBase(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := &fakeStore{records: map[string][]*airtable.Record{}}

	outputPath := filepath.Join(t.TempDir(), "empty.xlsx")

	path, err := New(store, tables, zap.NewNop()).Export(outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != outputPath {
		t.Fatalf("existing extension must be preserved, got %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
}

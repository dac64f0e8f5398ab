package evaluation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/ai"
	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
)

type fakeStore struct {
	records map[string][]*airtable.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string][]*airtable.Record)}
}

func (s *fakeStore) add(table string, rec *airtable.Record) {
	s.records[table] = append(s.records[table], rec)
}

func (s *fakeStore) List(table string) ([]*airtable.Record, error) {
	return s.records[table], nil
}

func (s *fakeStore) Get(table, id string) (*airtable.Record, error) {
	for _, rec := range s.records[table] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("record %s not found in %s", id, table)
}

func (s *fakeStore) Create(table string, fields map[string]any) (*airtable.Record, error) {
	rec := &airtable.Record{ID: "recNew", Fields: airtable.Fields(fields)}
	s.add(table, rec)
	return rec, nil
}

func (s *fakeStore) Update(table, id string, fields map[string]any) (*airtable.Record, error) {
	rec, err := s.Get(table, id)
	if err != nil {
		return nil, err
	}
	for name, value := range fields {
		rec.Fields[name] = value
	}
	return rec, nil
}

func (s *fakeStore) Delete(table, id string) error { return nil }

func (s *fakeStore) LinkedRecords(table, parentID string) ([]*airtable.Record, error) {
	return airtable.FilterLinked(s.records[table], parentID), nil
}

// stubCompleter returns a fixed response and counts calls.
type stubCompleter struct {
	response string
	calls    int
	lastReq  *ai.Request
}

func (c *stubCompleter) Complete(_ context.Context, req *ai.Request) (*ai.Response, error) {
	c.calls++
	c.lastReq = req
	return &ai.Response{Content: c.response, TotalTokens: 120}, nil
}

func (c *stubCompleter) Model() string { return "stub-model" }

const testDocument = `{"personal":{"name":"Candidate 1","location":"US"},"experience":[],"salary":{"preferred_rate":80,"currency":"USD","availability":25}}`

func testConfig() Config {
	return Config{CallDelay: time.Nanosecond}
}

func TestEvaluatePersistsAllFields(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := newFakeStore()
	store.add(tables.Applicants, &airtable.Record{
		ID:     "app1",
		Fields: airtable.Fields{airtable.FieldCompressedJSON: testDocument},
	})

	completer := &stubCompleter{
		response: `{"summary":"Solid candidate.","score":8,"issues":[],"follow_ups":["Confirm start date","Share portfolio"]}`,
	}

	e := New(store, tables, completer, testConfig(), zap.NewNop())

	app, _ := store.Get(tables.Applicants, "app1")
	result, err := e.Evaluate(context.Background(), app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Skipped {
		t.Fatalf("expected a full evaluation, got skip: %s", result.SkipReason)
	}
	if result.TokensUsed != 120 {
		t.Fatalf("unexpected token count: %d", result.TokensUsed)
	}
	if completer.lastReq == nil || !completer.lastReq.JSONOnly {
		t.Fatalf("expected a JSON-constrained request")
	}
	if !strings.Contains(completer.lastReq.Prompt, `"Candidate 1"`) {
		t.Fatalf("prompt does not embed the document")
	}

	if got := app.Fields.String(airtable.FieldLLMSummary); got != "Solid candidate." {
		t.Fatalf("unexpected stored summary: %q", got)
	}
	if got, _ := app.Fields.Number(airtable.FieldLLMScore); got != 8 {
		t.Fatalf("unexpected stored score: %v", got)
	}
	if got := app.Fields.String(airtable.FieldLLMFollowUps); got != "Confirm start date\nShare portfolio" {
		t.Fatalf("unexpected stored follow-ups: %q", got)
	}

	doc, _ := applicant.Parse(testDocument)
	fingerprint, _ := doc.Fingerprint()
	if got := app.Fields.String(airtable.FieldLLMDataHash); got != fingerprint {
		t.Fatalf("stored hash does not match the document fingerprint")
	}
}

func TestEvaluateSkipsUnchangedDocument(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := newFakeStore()

	doc, _ := applicant.Parse(testDocument)
	fingerprint, _ := doc.Fingerprint()

	store.add(tables.Applicants, &airtable.Record{
		ID: "app1",
		Fields: airtable.Fields{
			airtable.FieldCompressedJSON: testDocument,
			airtable.FieldLLMDataHash:    fingerprint,
			airtable.FieldLLMSummary:     "Already evaluated.",
		},
	})

	completer := &stubCompleter{response: `{}`}
	e := New(store, tables, completer, testConfig(), zap.NewNop())

	app, _ := store.Get(tables.Applicants, "app1")
	result, err := e.Evaluate(context.Background(), app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Skipped {
		t.Fatalf("expected skip for unchanged document")
	}
	if completer.calls != 0 {
		t.Fatalf("expected zero llm calls, got %d", completer.calls)
	}
}

func TestEvaluateReevaluatesWhenHashSetButSummaryMissing(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := newFakeStore()

	doc, _ := applicant.Parse(testDocument)
	fingerprint, _ := doc.Fingerprint()

	// A matching hash without a summary means the previous run died before
	// persisting; the applicant must be evaluated again.
	store.add(tables.Applicants, &airtable.Record{
		ID: "app1",
		Fields: airtable.Fields{
			airtable.FieldCompressedJSON: testDocument,
			airtable.FieldLLMDataHash:    fingerprint,
		},
	})

	completer := &stubCompleter{response: `{"summary":"Recovered.","score":6}`}
	e := New(store, tables, completer, testConfig(), zap.NewNop())

	app, _ := store.Get(tables.Applicants, "app1")
	result, err := e.Evaluate(context.Background(), app)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Skipped {
		t.Fatalf("expected re-evaluation, got skip")
	}
	if completer.calls != 1 {
		t.Fatalf("expected one llm call, got %d", completer.calls)
	}
}

func TestEvaluateWithoutDocument(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := newFakeStore()
	store.add(tables.Applicants, &airtable.Record{ID: "app1", Fields: airtable.Fields{}})

	e := New(store, tables, &stubCompleter{}, testConfig(), zap.NewNop())

	app, _ := store.Get(tables.Applicants, "app1")
	if _, err := e.Evaluate(context.Background(), app); err != applicant.ErrNoDocument {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestEvaluateAllPartitionsResults(t *testing.T) {
	tables := airtable.Tables{}.WithDefaults()
	store := newFakeStore()

	store.add(tables.Applicants, &airtable.Record{
		ID:     "app1",
		Fields: airtable.Fields{airtable.FieldCompressedJSON: testDocument},
	})
	store.add(tables.Applicants, &airtable.Record{ID: "app2", Fields: airtable.Fields{}})

	completer := &stubCompleter{response: `{"summary":"Fine.","score":7}`}
	e := New(store, tables, completer, testConfig(), zap.NewNop())

	results, err := e.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results.Succeeded) != 1 || results.Succeeded[0] != "app1" {
		t.Fatalf("unexpected succeeded set: %v", results.Succeeded)
	}
	if len(results.Skipped) != 1 || results.Skipped[0].ID != "app2" {
		t.Fatalf("unexpected skipped set: %v", results.Skipped)
	}
	if results.TotalTokens != 120 {
		t.Fatalf("unexpected total tokens: %d", results.TotalTokens)
	}
}

package airtable

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL = "https://api.airtable.com/v0"

	// LinkField is the back-reference field on every child table. Its value
	// is always an array of parent record ids.
	LinkField = "Applicant ID"
)

// Applicant field names.
const (
	FieldCompressedJSON  = "Compressed JSON"
	FieldShortlistStatus = "Shortlist Status"
	FieldLLMSummary      = "LLM Summary"
	FieldLLMScore        = "LLM Score"
	FieldLLMFollowUps    = "LLM Follow-Ups"
	FieldLLMDataHash     = "LLM Data Hash"
)

// Personal Details field names.
const (
	FieldFullName = "Full Name"
	FieldEmail    = "Email"
	FieldLocation = "Location"
	FieldLinkedIn = "LinkedIn"
)

// Work Experience field names.
const (
	FieldCompany      = "Company"
	FieldTitle        = "Title"
	FieldStart        = "Start"
	FieldEnd          = "End"
	FieldTechnologies = "Technologies"
)

// Salary Preferences field names.
const (
	FieldPreferredRate = "Preferred Rate"
	FieldMinimumRate   = "Minimum Rate"
	FieldCurrency      = "Currency"
	FieldAvailability  = "Availability (hrs/wk)"
)

// FieldScoreReason is set on Shortlisted Leads.
const FieldScoreReason = "Score Reason"

// Tables holds the table names of the applicant base.
type Tables struct {
	Applicants  string `mapstructure:"applicants"`
	Personal    string `mapstructure:"personal"`
	Experience  string `mapstructure:"experience"`
	Salary      string `mapstructure:"salary"`
	Shortlisted string `mapstructure:"shortlisted"`
}

// WithDefaults fills unset table names with the base's default schema.
func (t Tables) WithDefaults() Tables {
	if t.Applicants == "" {
		t.Applicants = "Applicants"
	}
	if t.Personal == "" {
		t.Personal = "Personal Details"
	}
	if t.Experience == "" {
		t.Experience = "Work Experience"
	}
	if t.Salary == "" {
		t.Salary = "Salary Preferences"
	}
	if t.Shortlisted == "" {
		t.Shortlisted = "Shortlisted Leads"
	}
	return t
}

// Store is the record-store surface the pipeline components depend on.
type Store interface {
	List(table string) ([]*Record, error)
	Get(table, id string) (*Record, error)
	Create(table string, fields map[string]any) (*Record, error)
	Update(table, id string, fields map[string]any) (*Record, error)
	Delete(table, id string) error
	LinkedRecords(table, parentID string) ([]*Record, error)
}

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	token      string
	baseID     string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
	Tables     Tables
}

func New(ctx context.Context, logger *zap.Logger, token, baseID string, tables Tables) *Client {
	return &Client{
		ctx:    ctx,
		token:  token,
		baseID: baseID,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		Tables: tables.WithDefaults(),
	}
}

// LinkedRecords returns the child records whose back-reference field contains
// parentID. It is a full-table scan; the base is small enough that no
// indexing is needed.
func (c *Client) LinkedRecords(table, parentID string) ([]*Record, error) {
	records, err := c.List(table)
	if err != nil {
		return nil, err
	}

	return FilterLinked(records, parentID), nil
}

// FilterLinked selects records linked to the given parent id.
func FilterLinked(records []*Record, parentID string) []*Record {
	linked := make([]*Record, 0)
	for _, r := range records {
		for _, id := range r.Fields.Strings(LinkField) {
			if id == parentID {
				linked = append(linked, r)
				break
			}
		}
	}
	return linked
}

// Package applicant holds the compressed-document model and the two
// operations that move applicant data between the normalized child tables and
// the denormalized JSON snapshot stored on the parent record.
package applicant

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoDocument is returned when an operation needs a compressed
	// document and the applicant has none.
	ErrNoDocument = errors.New("no compressed document")
	// ErrInvalidDocument is returned when a stored document fails to parse.
	ErrInvalidDocument = errors.New("invalid compressed document")
)

// Document is the denormalized snapshot of one applicant. Absent source
// fields are omitted rather than encoded as null so that key presence is a
// reliable signal for consumers.
type Document struct {
	Personal   Personal     `json:"personal"`
	Experience []Experience `json:"experience"`
	Salary     Salary       `json:"salary"`
}

type Personal struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

type Experience struct {
	Company      string `json:"company,omitempty"`
	Title        string `json:"title,omitempty"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	Technologies string `json:"technologies,omitempty"`
}

type Salary struct {
	PreferredRate *float64 `json:"preferred_rate,omitempty"`
	MinimumRate   *float64 `json:"minimum_rate,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Availability  *float64 `json:"availability,omitempty"`
}

func (p Personal) isEmpty() bool {
	return p == Personal{}
}

func (e Experience) isEmpty() bool {
	return e == Experience{}
}

func (s Salary) isEmpty() bool {
	return s.PreferredRate == nil && s.MinimumRate == nil && s.Currency == "" && s.Availability == nil
}

// Parse decodes a stored document.
func Parse(raw string) (*Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	return &doc, nil
}

// Encode renders the document for storage on the applicant record.
func (d *Document) Encode() (string, error) {
	if d.Experience == nil {
		d.Experience = make([]Experience, 0)
	}

	data, err := json.Marshal(d)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Fingerprint returns a stable content hash of the document. The document is
// re-marshalled through a generic map so the hash depends only on content,
// never on field insertion order.
func (d *Document) Fingerprint() (string, error) {
	encoded, err := d.Encode()
	if err != nil {
		return "", err
	}

	var generic map[string]any
	if err := json.Unmarshal([]byte(encoded), &generic); err != nil {
		return "", err
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%x", sum[:]), nil
}

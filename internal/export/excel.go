// Package export writes the current state of the applicant base to an
// Excel workbook for review outside Airtable.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/talentops/applicant-pipeline/internal/airtable"
	"github.com/talentops/applicant-pipeline/internal/applicant"
)

const (
	applicantsSheet  = "Applicants"
	shortlistSheet   = "Shortlisted Leads"
	summaryWrapWidth = 60
)

type Exporter struct {
	store  airtable.Store
	tables airtable.Tables
	logger *zap.Logger
}

func New(store airtable.Store, tables airtable.Tables, logger *zap.Logger) *Exporter {
	return &Exporter{
		store:  store,
		tables: tables,
		logger: logger,
	}
}

// Export writes an .xlsx workbook with one row per applicant and one row
// per shortlisted lead. The extension is appended when missing.
func (e *Exporter) Export(outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	applicants, err := e.store.List(e.tables.Applicants)
	if err != nil {
		return "", fmt.Errorf("list applicants: %w", err)
	}

	leads, err := e.store.List(e.tables.Shortlisted)
	if err != nil {
		return "", fmt.Errorf("list shortlisted leads: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", applicantsSheet)
	f.NewSheet(shortlistSheet)

	if err := e.writeApplicantsSheet(f, applicants); err != nil {
		return "", fmt.Errorf("write applicants sheet: %w", err)
	}

	if err := e.writeShortlistSheet(f, leads); err != nil {
		return "", fmt.Errorf("write shortlist sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info("exported workbook",
		zap.String("path", outputPath),
		zap.Int("applicants", len(applicants)),
		zap.Int("shortlisted", len(leads)),
	)

	return outputPath, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func wrapStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func freezeTopRow(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (e *Exporter) writeApplicantsSheet(f *excelize.File, applicants []*airtable.Record) error {
	f.SetColWidth(applicantsSheet, "A", "A", 20)
	f.SetColWidth(applicantsSheet, "B", "B", 25)
	f.SetColWidth(applicantsSheet, "C", "E", 18)
	f.SetColWidth(applicantsSheet, "F", "F", 10)
	f.SetColWidth(applicantsSheet, "G", "G", summaryWrapWidth)

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	wrap, err := wrapStyle(f)
	if err != nil {
		return err
	}

	writeHeaders(f, applicantsSheet, []string{
		"Record ID", "Full Name", "Email", "Location", "Shortlist Status", "LLM Score", "LLM Summary",
	}, header)

	for i, app := range applicants {
		row := i + 2

		name := app.Fields.String(airtable.FieldFullName)
		email := app.Fields.String(airtable.FieldEmail)
		location := app.Fields.String(airtable.FieldLocation)
		if doc, docErr := applicant.Parse(app.Fields.String(airtable.FieldCompressedJSON)); docErr == nil {
			if name == "" {
				name = doc.Personal.Name
			}
			if email == "" {
				email = doc.Personal.Email
			}
			if location == "" {
				location = doc.Personal.Location
			}
		}

		f.SetCellValue(applicantsSheet, fmt.Sprintf("A%d", row), app.ID)
		f.SetCellValue(applicantsSheet, fmt.Sprintf("B%d", row), name)
		f.SetCellValue(applicantsSheet, fmt.Sprintf("C%d", row), email)
		f.SetCellValue(applicantsSheet, fmt.Sprintf("D%d", row), location)
		f.SetCellValue(applicantsSheet, fmt.Sprintf("E%d", row), app.Fields.String(airtable.FieldShortlistStatus))
		if score, ok := app.Fields.Number(airtable.FieldLLMScore); ok {
			f.SetCellValue(applicantsSheet, fmt.Sprintf("F%d", row), score)
		}
		f.SetCellValue(applicantsSheet, fmt.Sprintf("G%d", row), app.Fields.String(airtable.FieldLLMSummary))
		f.SetCellStyle(applicantsSheet, fmt.Sprintf("G%d", row), fmt.Sprintf("G%d", row), wrap)
	}

	if len(applicants) > 0 {
		f.AutoFilter(applicantsSheet, fmt.Sprintf("A1:G%d", len(applicants)+1), []excelize.AutoFilterOptions{})
	}
	freezeTopRow(f, applicantsSheet)

	return nil
}

func (e *Exporter) writeShortlistSheet(f *excelize.File, leads []*airtable.Record) error {
	f.SetColWidth(shortlistSheet, "A", "B", 20)
	f.SetColWidth(shortlistSheet, "C", "C", summaryWrapWidth)

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	wrap, err := wrapStyle(f)
	if err != nil {
		return err
	}

	writeHeaders(f, shortlistSheet, []string{"Record ID", "Applicant", "Score Reason"}, header)

	for i, lead := range leads {
		row := i + 2

		parents := lead.Fields.Strings(airtable.LinkField)
		parent := ""
		if len(parents) > 0 {
			parent = parents[0]
		}

		f.SetCellValue(shortlistSheet, fmt.Sprintf("A%d", row), lead.ID)
		f.SetCellValue(shortlistSheet, fmt.Sprintf("B%d", row), parent)
		f.SetCellValue(shortlistSheet, fmt.Sprintf("C%d", row), lead.Fields.String(airtable.FieldScoreReason))
		f.SetCellStyle(shortlistSheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), wrap)
	}

	freezeTopRow(f, shortlistSheet)

	return nil
}

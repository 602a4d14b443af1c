package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"blackbook-pipeline/models"
)

// WriteOrdersCSV writes extracted order records as CSV.
func WriteOrdersCSV(w io.Writer, records []*models.OrderRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "document_id", "chunk_index", "order_title",
		"filed_date", "dated_date", "approved_date", "effective_date",
	}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.ID.String(),
			r.DocumentID.String(),
			strconv.Itoa(r.ChunkIndex),
			r.Title,
			deref(r.FiledDate),
			deref(r.DatedDate),
			deref(r.ApprovedDate),
			deref(r.EffectiveDate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRuleBodiesCSV writes the final dataset, one row per rule body.
func WriteRuleBodiesCSV(w io.Writer, records []*models.RuleBodyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"id", "order_title", "body_of_rules", "order_number", "bracket_codes",
		"filed_date", "dated_date", "approved_date", "effective_date",
		"issued_date", "issued_year",
		"local_strict", "local_expanded", "local_llm", "statewide_trial_court_rule",
	}); err != nil {
		return err
	}
	for _, r := range records {
		issuedDate := ""
		if r.IssuedDate != nil {
			issuedDate = r.IssuedDate.Format("2006-01-02")
		}
		issuedYear := ""
		if r.IssuedYear != nil {
			issuedYear = strconv.Itoa(*r.IssuedYear)
		}
		row := []string{
			r.ID.String(),
			r.Title,
			r.BodyOfRules,
			deref(r.OrderNumber),
			strings.Join(r.BracketCodes, ";"),
			deref(r.FiledDate),
			deref(r.DatedDate),
			deref(r.ApprovedDate),
			deref(r.EffectiveDate),
			issuedDate,
			issuedYear,
			strconv.FormatBool(r.LocalStrict),
			strconv.FormatBool(r.LocalExpanded),
			strconv.FormatBool(r.LocalLLM),
			strconv.FormatBool(r.StatewideTrialCourtRule),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFailuresCSV writes the failure log as CSV.
func WriteFailuresCSV(w io.Writer, failures []*models.PipelineFailure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "run_id", "stage", "document_id", "chunk_index", "subject", "reason"}); err != nil {
		return err
	}
	for _, f := range failures {
		runID := ""
		if f.RunID != nil {
			runID = f.RunID.String()
		}
		docID := ""
		if f.DocumentID != nil {
			docID = f.DocumentID.String()
		}
		chunkIndex := ""
		if f.ChunkIndex != nil {
			chunkIndex = strconv.Itoa(*f.ChunkIndex)
		}
		row := []string{f.ID.String(), runID, string(f.Stage), docID, chunkIndex, f.Subject, f.Reason}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAdminOrdersCSV writes scraped administrative order metadata as CSV.
func WriteAdminOrdersCSV(w io.Writer, orders []*models.AdminOrder) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Order_Number", "Administrative_Order_Description", "Date_Signed", "Link_Order", "Year"}); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{o.OrderNumber, o.Description, o.DateSigned, o.PDFLink, fmt.Sprintf("%d", o.Year)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

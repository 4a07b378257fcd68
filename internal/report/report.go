// Package report exports remediation run results for operator review.
// JSON carries the full structure; CSV and XLSX flatten one row per
// outcome for spreadsheet triage.
package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

var outcomeHeader = []string{
	"site_id", "site_name", "organization_id",
	"verdict", "confidence", "category",
	"action", "write_state", "substitute_address", "error",
}

// WriteJSON writes the run as indented JSON.
func WriteJSON(w io.Writer, run *model.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(run), "report: encode json")
}

// WriteCSV writes one row per outcome.
func WriteCSV(w io.Writer, run *model.Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(outcomeHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, o := range outcomes(run) {
		if err := cw.Write(outcomeRow(o)); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX writes a workbook with an Outcomes sheet and a Summary sheet.
func WriteXLSX(path string, run *model.Run) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Outcomes")
	if err != nil {
		return eris.Wrap(err, "report: add outcomes sheet")
	}
	addStringRow(sheet, outcomeHeader...)
	for _, o := range outcomes(run) {
		addStringRow(sheet, outcomeRow(o)...)
	}

	summarySheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	for _, kv := range summaryRows(run) {
		addStringRow(summarySheet, kv[0], kv[1])
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func outcomes(run *model.Run) []model.Outcome {
	if run == nil || run.Summary == nil {
		return nil
	}
	return run.Summary.Outcomes
}

func outcomeRow(o model.Outcome) []string {
	substitute := ""
	if o.Substitute != nil {
		substitute = o.Substitute.String()
	}
	return []string{
		o.SiteID,
		o.SiteName,
		o.OrganizationID,
		string(o.Classification.Verdict),
		strconv.FormatFloat(o.Classification.Confidence, 'f', 2, 64),
		o.Classification.Category,
		string(o.Action),
		string(o.WriteState),
		substitute,
		o.Error,
	}
}

func summaryRows(run *model.Run) [][2]string {
	rows := [][2]string{
		{"run_id", run.ID},
		{"mode", string(run.Mode)},
		{"limit", strconv.Itoa(run.Limit)},
		{"started_at", run.StartedAt.Format("2006-01-02 15:04:05 UTC")},
		{"finished_at", run.FinishedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if s := run.Summary; s != nil {
		rows = append(rows,
			[2]string{"processed", strconv.Itoa(s.Processed)},
			[2]string{"relocated", strconv.Itoa(s.Relocated)},
			[2]string{"skipped_not_flagged", strconv.Itoa(s.SkippedNotFlagged)},
			[2]string{"skipped_no_substitute", strconv.Itoa(s.SkippedNoSubstitute)},
			[2]string{"failed_clean", strconv.Itoa(s.FailedClean)},
			[2]string{"partial_relocations", strconv.Itoa(s.PartialRelocations)},
		)
	}
	return rows
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

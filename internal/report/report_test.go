package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

func reportRun() *model.Run {
	summary := &model.Summary{}
	summary.Add(model.Outcome{
		SiteID:         "site-1",
		SiteName:       "Springfield Pantry",
		OrganizationID: "org-1",
		Classification: model.Classification{
			Verdict:    model.VerdictNonVisitable,
			Confidence: 0.9,
			Category:   "po_box",
		},
		Action:     model.ActionRelocated,
		WriteState: model.WriteStateSiteUpdated,
		Substitute: &model.Address{Street: "100 Main St", City: "Springfield", State: "IL", Zip: "62701"},
	})
	summary.Add(model.Outcome{
		SiteID: "site-2",
		Classification: model.Classification{
			Verdict: model.VerdictUnknown,
		},
		Action:     model.ActionSkippedNotFlagged,
		WriteState: model.WriteStateNone,
	})
	return &model.Run{
		ID:         "run-1",
		Mode:       model.ModeApply,
		Limit:      50,
		Summary:    summary,
		StartedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 3, 1, 12, 2, 0, 0, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, reportRun()))

	var decoded model.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.ID)
	require.NotNil(t, decoded.Summary)
	require.Len(t, decoded.Summary.Outcomes, 2)
	assert.Equal(t, "po_box", decoded.Summary.Outcomes[0].Classification.Category)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, reportRun()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, outcomeHeader, records[0])
	assert.Equal(t, []string{
		"site-1", "Springfield Pantry", "org-1",
		"non_visitable", "0.90", "po_box",
		"relocated", "site_updated",
		"100 Main St, Springfield, IL 62701", "",
	}, records[1])
	assert.Equal(t, "skipped_not_flagged", records[2][6])
	assert.Equal(t, "", records[2][8])
}

func TestWriteCSVEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &model.Run{ID: "run-2"}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, outcomeHeader, records[0])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, WriteXLSX(path, reportRun()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	outcomesSheet, ok := f.Sheet["Outcomes"]
	require.True(t, ok)
	require.Len(t, outcomesSheet.Rows, 3)
	assert.Equal(t, "site_id", outcomesSheet.Rows[0].Cells[0].String())
	assert.Equal(t, "site-1", outcomesSheet.Rows[1].Cells[0].String())
	assert.Equal(t, "po_box", outcomesSheet.Rows[1].Cells[5].String())

	summarySheet, ok := f.Sheet["Summary"]
	require.True(t, ok)
	rows := map[string]string{}
	for _, row := range summarySheet.Rows {
		require.Len(t, row.Cells, 2)
		rows[row.Cells[0].String()] = row.Cells[1].String()
	}
	assert.Equal(t, "run-1", rows["run_id"])
	assert.Equal(t, "apply", rows["mode"])
	assert.Equal(t, "2", rows["processed"])
	assert.Equal(t, "1", rows["relocated"])
}

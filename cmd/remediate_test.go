//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tackle-hunger/charity-cli/internal/model"
	"github.com/tackle-hunger/charity-cli/internal/store"
)

func sampleRun() *model.Run {
	summary := &model.Summary{}
	summary.Add(model.Outcome{
		SiteID:     "site-1",
		SiteName:   "Springfield Pantry",
		Action:     model.ActionRelocated,
		WriteState: model.WriteStateSiteUpdated,
	})
	summary.Add(model.Outcome{
		SiteID:     "site-2",
		Action:     model.ActionFailed,
		WriteState: model.WriteStateOrgUpdated,
		Error:      "update site: timeout",
	})
	summary.Add(model.Outcome{
		SiteID: "site-3",
		Action: model.ActionSkippedNoSubstitute,
	})
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	return &model.Run{
		ID:         "run-1",
		Mode:       model.ModeApply,
		Limit:      50,
		Summary:    summary,
		StartedAt:  now,
		FinishedAt: now.Add(time.Minute),
	}
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, sampleRun())

	output := buf.String()
	assert.Contains(t, output, "run-1 (apply)")
	assert.Contains(t, output, "Processed:")
	assert.Contains(t, output, "Relocated:")
	assert.Contains(t, output, "Partial relocations:")
	assert.Contains(t, output, "reconcile manually")
}

func TestFormatSummaryNoPartials(t *testing.T) {
	summary := &model.Summary{}
	summary.Add(model.Outcome{SiteID: "s1", Action: model.ActionSkippedNotFlagged})
	run := &model.Run{ID: "run-2", Mode: model.ModeDryRun, Summary: summary}

	var buf bytes.Buffer
	formatSummary(&buf, run)

	assert.NotContains(t, buf.String(), "Partial relocations")
}

func TestPersistRunSurvivesCancelledContext(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	// An interrupted run arrives here with the signal context already
	// cancelled; the save must still land.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := sampleRun()
	require.NoError(t, persistRun(ctx, st, run))

	got, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 1, got.Summary.PartialRelocations)
}

func TestExportRunJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, exportRun(sampleRun(), path, "json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"site-1"`)
}

func TestExportRunCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, exportRun(sampleRun(), path, "csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "site_id")
	assert.Contains(t, string(data), "skipped_no_substitute")
}

func TestExportRunXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, exportRun(sampleRun(), path, "xlsx"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportRunUnknownFormat(t *testing.T) {
	err := exportRun(sampleRun(), filepath.Join(t.TempDir(), "run.out"), "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

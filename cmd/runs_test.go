//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	summary := &model.Summary{}
	summary.Add(model.Outcome{SiteID: "s1", Action: model.ActionRelocated, WriteState: model.WriteStateSiteUpdated})
	summary.Add(model.Outcome{SiteID: "s2", Action: model.ActionFailed, WriteState: model.WriteStateOrgUpdated, Error: "boom"})

	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Mode:       model.ModeApply,
			Limit:      50,
			Summary:    summary,
			StartedAt:  now,
			FinishedAt: now.Add(2 * time.Minute),
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			Mode:       model.ModeDryRun,
			Limit:      10,
			StartedAt:  now.Add(-1 * time.Hour),
			FinishedAt: now.Add(-59 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "MODE")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "apply")
	assert.Contains(t, output, "dry_run")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}

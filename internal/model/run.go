package model

import "time"

// Mode selects whether a remediation run issues writes.
type Mode string

const (
	// ModeDryRun classifies and selects substitutes but never writes.
	ModeDryRun Mode = "dry_run"
	// ModeApply performs the two-step relocation writes.
	ModeApply Mode = "apply"
)

// DefaultModifiedBy is the provenance tag recorded on every record this
// tool writes, so directory admins can distinguish automated edits.
const DefaultModifiedBy = "AI_Copilot_Assistant"

// Run is the audit record of one remediation invocation.
type Run struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Limit      int       `json:"limit"`
	Summary    *Summary  `json:"summary,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

package model

// Action is the final disposition of one site in a remediation run.
type Action string

const (
	ActionRelocated           Action = "relocated"
	ActionSkippedNotFlagged   Action = "skipped_not_flagged"
	ActionSkippedNoSubstitute Action = "skipped_no_substitute"
	ActionFailed              Action = "failed"
)

// WriteState tracks how far the two-step relocation got before stopping.
// The organization write always precedes the site write, so org_updated
// with Action=failed means a partial relocation: the organization already
// holds the relocated address but the site still carries the flagged one.
type WriteState string

const (
	WriteStateNone        WriteState = "none"
	WriteStateOrgUpdated  WriteState = "org_updated"
	WriteStateSiteUpdated WriteState = "site_updated"
)

// Outcome records what happened to a single site during a remediation run.
type Outcome struct {
	SiteID         string         `json:"site_id"`
	SiteName       string         `json:"site_name,omitempty"`
	OrganizationID string         `json:"organization_id,omitempty"`
	Classification Classification `json:"classification"`
	Action         Action         `json:"action"`
	WriteState     WriteState     `json:"write_state"`
	Substitute     *Address       `json:"substitute,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// PartialRelocation reports whether the organization write committed but
// the site write did not.
func (o Outcome) PartialRelocation() bool {
	return o.Action == ActionFailed && o.WriteState == WriteStateOrgUpdated
}

// Summary aggregates the outcomes of one remediation run in processing
// order, with per-action counts. Failed is split so operators can find
// partial relocations needing manual reconciliation.
type Summary struct {
	Outcomes            []Outcome `json:"outcomes"`
	Processed           int       `json:"processed"`
	Relocated           int       `json:"relocated"`
	SkippedNotFlagged   int       `json:"skipped_not_flagged"`
	SkippedNoSubstitute int       `json:"skipped_no_substitute"`
	FailedClean         int       `json:"failed_clean"`
	PartialRelocations  int       `json:"partial_relocations"`
}

// Add appends an outcome and updates the counters.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Processed++
	switch o.Action {
	case ActionRelocated:
		s.Relocated++
	case ActionSkippedNotFlagged:
		s.SkippedNotFlagged++
	case ActionSkippedNoSubstitute:
		s.SkippedNoSubstitute++
	case ActionFailed:
		if o.PartialRelocation() {
			s.PartialRelocations++
		} else {
			s.FailedClean++
		}
	}
}

// Failed returns the total number of failed sites, partial or clean.
func (s *Summary) Failed() int {
	return s.FailedClean + s.PartialRelocations
}

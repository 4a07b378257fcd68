// Package remediate moves non-visitable mailing addresses off service
// sites: the flagged address is relocated to the parent organization and
// the site is backfilled with a physical address from a sibling site.
package remediate

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tackle-hunger/charity-cli/internal/classify"
	"github.com/tackle-hunger/charity-cli/internal/model"
)

// Directory is the remote record store the workflow reads and writes.
// All five operations are remote calls and may fail with transport,
// authorization, or schema-validation errors; the workflow treats every
// failure the same way and never retries (retries belong to the client).
type Directory interface {
	// Sites fetches up to limit sites from the work queue.
	Sites(ctx context.Context, limit int) ([]model.Site, error)

	// Organization fetches a site's parent.
	Organization(ctx context.Context, id string) (*model.Organization, error)

	// SiblingSites returns all sites of an organization, including the
	// flagged one.
	SiblingSites(ctx context.Context, organizationID string) ([]model.Site, error)

	// UpdateOrganizationAddress writes addr onto the organization's
	// mailing-address fields, tagged with modifiedBy.
	UpdateOrganizationAddress(ctx context.Context, organizationID string, addr model.Address, modifiedBy string) error

	// UpdateSiteAddress overwrites the site's address fields, tagged with
	// modifiedBy.
	UpdateSiteAddress(ctx context.Context, siteID string, addr model.Address, modifiedBy string) error
}

// Workflow classifies a batch of sites and relocates flagged addresses.
type Workflow struct {
	dir        Directory
	classifier *classify.Classifier
	modifiedBy string
}

// New creates a Workflow. A nil classifier gets the default rule set; an
// empty modifiedBy gets the standard provenance tag.
func New(dir Directory, classifier *classify.Classifier, modifiedBy string) *Workflow {
	if classifier == nil {
		classifier = classify.Default()
	}
	if modifiedBy == "" {
		modifiedBy = model.DefaultModifiedBy
	}
	return &Workflow{
		dir:        dir,
		classifier: classifier,
		modifiedBy: modifiedBy,
	}
}

// Run fetches up to limit sites and processes them strictly sequentially.
// Sequential processing is load-bearing: two sites sharing a parent
// organization must never race on the organization's mailing-address
// fields, and the org-before-site write order must hold per site.
//
// Per-site failures are isolated; only a batch-fetch failure or context
// cancellation aborts the run. Cancellation is honored between sites, so
// a half-applied two-step write can only arise from a genuine remote
// failure, never from interruption.
func (w *Workflow) Run(ctx context.Context, limit int, mode model.Mode) (*model.Summary, error) {
	if limit < 1 {
		return nil, eris.New("remediate: limit must be >= 1")
	}

	sites, err := w.dir.Sites(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "remediate: fetch sites")
	}

	zap.L().Info("remediation batch fetched",
		zap.Int("sites", len(sites)),
		zap.String("mode", string(mode)),
	)

	summary := &model.Summary{}
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "remediate: interrupted")
		}
		summary.Add(w.processSite(ctx, site, mode))
	}

	zap.L().Info("remediation batch complete",
		zap.Int("processed", summary.Processed),
		zap.Int("relocated", summary.Relocated),
		zap.Int("skipped_not_flagged", summary.SkippedNotFlagged),
		zap.Int("skipped_no_substitute", summary.SkippedNoSubstitute),
		zap.Int("failed", summary.Failed()),
		zap.Int("partial_relocations", summary.PartialRelocations),
	)

	return summary, nil
}

func (w *Workflow) processSite(ctx context.Context, site model.Site, mode model.Mode) model.Outcome {
	out := model.Outcome{
		SiteID:         site.ID,
		SiteName:       site.Name,
		OrganizationID: site.OrganizationID,
		WriteState:     model.WriteStateNone,
	}

	out.Classification = w.classifier.Classify(site.Address)
	if out.Classification.Verdict != model.VerdictNonVisitable {
		out.Action = model.ActionSkippedNotFlagged
		return out
	}

	zap.L().Info("site flagged",
		zap.String("site_id", site.ID),
		zap.String("site_name", site.Name),
		zap.String("category", out.Classification.Category),
		zap.Float64("confidence", out.Classification.Confidence),
	)

	if site.OrganizationID == "" {
		out.Action = model.ActionFailed
		out.Error = "site has no parent organization"
		return out
	}

	org, err := w.dir.Organization(ctx, site.OrganizationID)
	if err != nil {
		out.Action = model.ActionFailed
		out.Error = eris.ToString(eris.Wrap(err, "fetch organization"), false)
		return out
	}

	siblings, err := w.dir.SiblingSites(ctx, site.OrganizationID)
	if err != nil {
		out.Action = model.ActionFailed
		out.Error = eris.ToString(eris.Wrap(err, "fetch sibling sites"), false)
		return out
	}

	substitute := w.selectSubstitute(siblings, site.ID)
	if substitute == nil {
		// Leaving a known-bad address pending human review beats losing
		// the site's only address.
		zap.L().Warn("no physical substitute among siblings",
			zap.String("site_id", site.ID),
			zap.String("organization_id", site.OrganizationID),
			zap.Int("siblings", len(siblings)),
		)
		out.Action = model.ActionSkippedNoSubstitute
		return out
	}
	out.Substitute = substitute

	if mode == model.ModeDryRun {
		zap.L().Info("dry run: would relocate",
			zap.String("site_id", site.ID),
			zap.String("organization", org.Name),
			zap.String("flagged_address", site.Address.String()),
			zap.String("substitute", substitute.String()),
		)
		out.Action = model.ActionRelocated
		return out
	}

	// The organization write must commit before the site is touched: if
	// anything goes wrong here, the flagged address is still on the site
	// and nothing is lost.
	if err := w.dir.UpdateOrganizationAddress(ctx, site.OrganizationID, site.Address, w.modifiedBy); err != nil {
		out.Action = model.ActionFailed
		out.Error = eris.ToString(eris.Wrap(err, "update organization address"), false)
		return out
	}
	out.WriteState = model.WriteStateOrgUpdated

	if err := w.dir.UpdateSiteAddress(ctx, site.ID, *substitute, w.modifiedBy); err != nil {
		// Partial relocation: the organization now holds the flagged
		// address but the site still carries it too. Surfaced distinctly
		// so an operator can reconcile; a re-run re-writes the same org
		// value and retries the site write.
		zap.L().Error("partial relocation: organization updated, site write failed",
			zap.String("site_id", site.ID),
			zap.String("organization_id", site.OrganizationID),
			zap.Error(err),
		)
		out.Action = model.ActionFailed
		out.Error = eris.ToString(eris.Wrap(err, "update site address"), false)
		return out
	}
	out.WriteState = model.WriteStateSiteUpdated
	out.Action = model.ActionRelocated

	zap.L().Info("relocated",
		zap.String("site_id", site.ID),
		zap.String("organization", org.Name),
		zap.String("relocated_address", site.Address.String()),
		zap.String("substitute", substitute.String()),
	)

	return out
}

// selectSubstitute scans sibling sites in ascending ID order and returns
// the address of the first whose own classification is physical. Unknown
// is not good enough here: only a positively physical address may be
// copied onto the flagged site.
func (w *Workflow) selectSubstitute(siblings []model.Site, excludeSiteID string) *model.Address {
	sorted := make([]model.Site, len(siblings))
	copy(sorted, siblings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, sib := range sorted {
		if sib.ID == excludeSiteID || sib.Address.IsZero() {
			continue
		}
		if w.classifier.Classify(sib.Address).Verdict == model.VerdictPhysical {
			addr := sib.Address
			return &addr
		}
	}
	return nil
}

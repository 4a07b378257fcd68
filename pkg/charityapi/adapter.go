package charityapi

import (
	"context"
	"sort"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

// Adapter exposes the directory API through the domain model, satisfying
// the remediation workflow's Directory interface.
type Adapter struct {
	api Client
}

// NewAdapter wraps a Client.
func NewAdapter(api Client) *Adapter {
	return &Adapter{api: api}
}

// Sites fetches up to limit sites from the AI work queue.
func (a *Adapter) Sites(ctx context.Context, limit int) ([]model.Site, error) {
	wire, err := a.api.SitesForAI(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	sites := make([]model.Site, 0, len(wire))
	for _, s := range wire {
		sites = append(sites, toModelSite(s))
	}
	return sites, nil
}

// Organization fetches one organization without its sites expanded.
func (a *Adapter) Organization(ctx context.Context, id string) (*model.Organization, error) {
	wire, err := a.api.OrganizationForAI(ctx, id)
	if err != nil {
		return nil, err
	}
	org := toModelOrganization(*wire)
	return &org, nil
}

// Organizations fetches every organization with its sites, for audit
// scoring. Pass minimal to fetch address fields only.
func (a *Adapter) Organizations(ctx context.Context, minimal bool) ([]model.Organization, error) {
	wire, err := a.api.OrganizationsForAI(ctx, minimal)
	if err != nil {
		return nil, err
	}
	orgs := make([]model.Organization, 0, len(wire))
	for _, o := range wire {
		orgs = append(orgs, toModelOrganization(o))
	}
	return orgs, nil
}

// SiblingSites returns all sites of an organization, the flagged one
// included, in ascending ID order so substitute selection is stable
// across runs.
func (a *Adapter) SiblingSites(ctx context.Context, orgID string) ([]model.Site, error) {
	wire, err := a.api.OrganizationForAI(ctx, orgID)
	if err != nil {
		return nil, err
	}
	sites := make([]model.Site, 0, len(wire.Sites))
	for _, s := range wire.Sites {
		sites = append(sites, toModelSite(s))
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites, nil
}

// UpdateOrganizationAddress writes an address onto an organization's
// mailing-address fields, tagged with the provenance marker.
func (a *Adapter) UpdateOrganizationAddress(ctx context.Context, orgID string, addr model.Address, modifiedBy string) error {
	return a.api.UpdateOrganizationFromAI(ctx, orgID, OrganizationInput{
		StreetAddress: &addr.Street,
		AddressLine2:  &addr.Line2,
		City:          &addr.City,
		State:         &addr.State,
		Zip:           &addr.Zip,
		ModifiedBy:    modifiedBy,
	})
}

// UpdateSiteAddress overwrites a site's address fields, tagged with the
// provenance marker. A zero address clears the site's street line.
func (a *Adapter) UpdateSiteAddress(ctx context.Context, siteID string, addr model.Address, modifiedBy string) error {
	if addr.IsZero() {
		empty := ""
		return a.api.UpdateSiteFromAI(ctx, siteID, SiteInput{
			StreetAddress: &empty,
			ModifiedBy:    modifiedBy,
		})
	}
	input := SiteInput{
		StreetAddress: &addr.Street,
		City:          &addr.City,
		State:         &addr.State,
		Zip:           &addr.Zip,
		ModifiedBy:    modifiedBy,
	}
	if addr.Line2 != "" {
		input.AddressLine2 = &addr.Line2
	}
	return a.api.UpdateSiteFromAI(ctx, siteID, input)
}

func toModelSite(s Site) model.Site {
	return model.Site{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		Name:           s.Name,
		Address: model.Address{
			Street: s.StreetAddress,
			Line2:  s.AddressLine2,
			City:   s.City,
			State:  s.State,
			Zip:    s.Zip,
		},
		Status:      s.Status,
		PublicPhone: s.PublicPhone,
		PublicEmail: s.PublicEmail,
		Website:     s.Website,
		Description: s.Description,
		ServiceArea: s.ServiceArea,
		EIN:         s.EIN,
	}
}

func toModelOrganization(o Organization) model.Organization {
	org := model.Organization{
		ID:   o.ID,
		Name: o.Name,
		Address: model.Address{
			Street: o.StreetAddress,
			Line2:  o.AddressLine2,
			City:   o.City,
			State:  o.State,
			Zip:    o.Zip,
		},
		PublicPhone: o.PublicPhone,
		PublicEmail: o.PublicEmail,
		Website:     o.Website,
		Description: o.Description,
		EIN:         o.EIN,
	}
	for _, s := range o.Sites {
		org.Sites = append(org.Sites, toModelSite(s))
	}
	return org
}

package charityapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tackle-hunger/charity-cli/internal/model"
)

// stubAPI is a canned-response Client for adapter tests.
type stubAPI struct {
	sites      []Site
	org        *Organization
	siteInput  *SiteInput
	orgInput   *OrganizationInput
	updatedOrg string
	updated    string
}

func (s *stubAPI) SitesForAI(_ context.Context, _, _ int) ([]Site, error) {
	return s.sites, nil
}

func (s *stubAPI) OrganizationForAI(_ context.Context, _ string) (*Organization, error) {
	return s.org, nil
}

func (s *stubAPI) OrganizationsForAI(_ context.Context, _ bool) ([]Organization, error) {
	if s.org == nil {
		return nil, nil
	}
	return []Organization{*s.org}, nil
}

func (s *stubAPI) UpdateSiteFromAI(_ context.Context, siteID string, input SiteInput) error {
	s.updated = siteID
	s.siteInput = &input
	return nil
}

func (s *stubAPI) UpdateOrganizationFromAI(_ context.Context, orgID string, input OrganizationInput) error {
	s.updatedOrg = orgID
	s.orgInput = &input
	return nil
}

func TestAdapterSitesMapping(t *testing.T) {
	stub := &stubAPI{sites: []Site{{
		ID:             "s1",
		Name:           "Pantry",
		StreetAddress:  "100 Main St",
		AddressLine2:   "Suite 4",
		City:           "Springfield",
		State:          "IL",
		Zip:            "62701",
		OrganizationID: "o1",
	}}}

	sites, err := NewAdapter(stub).Sites(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, model.Address{
		Street: "100 Main St",
		Line2:  "Suite 4",
		City:   "Springfield",
		State:  "IL",
		Zip:    "62701",
	}, sites[0].Address)
	assert.Equal(t, "o1", sites[0].OrganizationID)
}

func TestAdapterSiblingSitesSorted(t *testing.T) {
	stub := &stubAPI{org: &Organization{
		ID: "o1",
		Sites: []Site{
			{ID: "s9", OrganizationID: "o1"},
			{ID: "s1", OrganizationID: "o1"},
			{ID: "s5", OrganizationID: "o1"},
		},
	}}

	sites, err := NewAdapter(stub).SiblingSites(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, sites, 3)
	assert.Equal(t, []string{"s1", "s5", "s9"}, []string{sites[0].ID, sites[1].ID, sites[2].ID})
}

func TestAdapterOrganizationsMapping(t *testing.T) {
	stub := &stubAPI{org: &Organization{
		ID:            "o1",
		Name:          "Springfield Charities",
		StreetAddress: "PO Box 55",
		City:          "Springfield",
		Sites:         []Site{{ID: "s1", OrganizationID: "o1"}},
	}}

	orgs, err := NewAdapter(stub).Organizations(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Springfield Charities", orgs[0].Name)
	assert.Equal(t, "PO Box 55", orgs[0].Address.Street)
	require.Len(t, orgs[0].Sites, 1)
	assert.Equal(t, "s1", orgs[0].Sites[0].ID)
}

func TestAdapterUpdateOrganizationAddress(t *testing.T) {
	stub := &stubAPI{}
	addr := model.Address{Street: "PO Box 55", City: "Springfield", State: "IL", Zip: "62701"}

	err := NewAdapter(stub).UpdateOrganizationAddress(context.Background(), "o1", addr, "AI_Copilot_Assistant")
	require.NoError(t, err)
	assert.Equal(t, "o1", stub.updatedOrg)
	require.NotNil(t, stub.orgInput)
	assert.Equal(t, "PO Box 55", *stub.orgInput.StreetAddress)
	assert.Equal(t, "Springfield", *stub.orgInput.City)
	assert.Equal(t, "AI_Copilot_Assistant", stub.orgInput.ModifiedBy)
}

func TestAdapterUpdateSiteAddressClearsOnZero(t *testing.T) {
	stub := &stubAPI{}

	err := NewAdapter(stub).UpdateSiteAddress(context.Background(), "s1", model.Address{}, "tester")
	require.NoError(t, err)
	assert.Equal(t, "s1", stub.updated)
	require.NotNil(t, stub.siteInput)
	require.NotNil(t, stub.siteInput.StreetAddress)
	assert.Empty(t, *stub.siteInput.StreetAddress)
	assert.Nil(t, stub.siteInput.City)
}

func TestAdapterUpdateSiteAddressOmitsEmptyLine2(t *testing.T) {
	stub := &stubAPI{}
	addr := model.Address{Street: "100 Main St", City: "Springfield", State: "IL", Zip: "62701"}

	err := NewAdapter(stub).UpdateSiteAddress(context.Background(), "s1", addr, "tester")
	require.NoError(t, err)
	require.NotNil(t, stub.siteInput)
	assert.Equal(t, "100 Main St", *stub.siteInput.StreetAddress)
	assert.Nil(t, stub.siteInput.AddressLine2)
}

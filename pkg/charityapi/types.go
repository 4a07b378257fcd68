package charityapi

// Site is the wire representation of a charity service site as returned
// by the directory GraphQL API.
type Site struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	StreetAddress  string `json:"streetAddress"`
	AddressLine2   string `json:"addressLine2,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Zip            string `json:"zip,omitempty"`
	OrganizationID string `json:"organizationId"`
	Status         string `json:"status,omitempty"`
	PublicPhone    string `json:"publicPhone,omitempty"`
	PublicEmail    string `json:"publicEmail,omitempty"`
	Website        string `json:"website,omitempty"`
	Description    string `json:"description,omitempty"`
	ServiceArea    string `json:"serviceArea,omitempty"`
	EIN            string `json:"ein,omitempty"`
}

// Organization is the wire representation of a parent charity, including
// its sites when the query requests them.
type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StreetAddress string `json:"streetAddress,omitempty"`
	AddressLine2  string `json:"addressLine2,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"`
	Zip           string `json:"zip,omitempty"`
	PublicPhone   string `json:"publicPhone,omitempty"`
	PublicEmail   string `json:"publicEmail,omitempty"`
	Website       string `json:"website,omitempty"`
	Description   string `json:"description,omitempty"`
	EIN           string `json:"ein,omitempty"`
	Sites         []Site `json:"sites,omitempty"`
}

// SiteInput is the mutation payload for updateSiteFromAI. Pointer fields
// are omitted when nil; a pointer to an empty string clears the field on
// the remote record.
type SiteInput struct {
	StreetAddress *string `json:"streetAddress,omitempty"`
	AddressLine2  *string `json:"addressLine2,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Zip           *string `json:"zip,omitempty"`
	ModifiedBy    string  `json:"modifiedBy"`
}

// OrganizationInput is the mutation payload for updateOrganizationFromAI.
type OrganizationInput struct {
	StreetAddress *string `json:"streetAddress,omitempty"`
	AddressLine2  *string `json:"addressLine2,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Zip           *string `json:"zip,omitempty"`
	ModifiedBy    string  `json:"modifiedBy"`
}

package model

// Site is a charity's service point: the place people visit for food
// assistance. Its address must be physically visitable; mailing addresses
// belong on the parent Organization.
type Site struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	Name           string  `json:"name"`
	Address        Address `json:"address"`
	Status         string  `json:"status,omitempty"`

	// Contact fields are outside remediation scope but feed quality scoring.
	PublicPhone string `json:"public_phone,omitempty"`
	PublicEmail string `json:"public_email,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	ServiceArea string `json:"service_area,omitempty"`
	EIN         string `json:"ein,omitempty"`
}

// Organization is the parent charity entity owning one or more Sites.
// Its address is a mailing address and may legitimately be a PO box.
type Organization struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     Address `json:"address"`
	PublicPhone string  `json:"public_phone,omitempty"`
	PublicEmail string  `json:"public_email,omitempty"`
	Website     string  `json:"website,omitempty"`
	Description string  `json:"description,omitempty"`
	EIN         string  `json:"ein,omitempty"`
	Sites       []Site  `json:"sites,omitempty"`
}

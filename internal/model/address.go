package model

import "strings"

// Address holds the free-text address lines of a site or organization.
// It is a value type; it is never persisted on its own.
type Address struct {
	Street string `json:"street_address"`
	Line2  string `json:"address_line2,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// IsZero reports whether every component of the address is blank.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.Line2) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Zip) == ""
}

// String renders the address as a single comma-separated line, skipping
// blank components. State and zip are joined with a space, matching the
// common "City, ST 12345" form.
func (a Address) String() string {
	var parts []string
	for _, p := range []string{a.Street, a.Line2, a.City} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	region := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zip))
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

package model

import "strings"

// Company is one brand tracked by the wizard: the analysed company or one
// of its competitors.
type Company struct {
	Name        string            `json:"company_name"`
	Website     string            `json:"website"`
	Description string            `json:"description,omitempty"`
	IsMain      bool              `json:"is_main"`
	AndroidID   string            `json:"android_id,omitempty"`
	AppleID     string            `json:"apple_id,omitempty"`
	MapsLinks   []MapLocationLink `json:"maps_links,omitempty"`
	ReviewLink  string            `json:"trustpilot_link,omitempty"`
}

// Key is the case-folded company name used to match companies across
// backend responses.
func (c Company) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// Clone returns a deep copy.
func (c Company) Clone() Company {
	if c.MapsLinks != nil {
		c.MapsLinks = append([]MapLocationLink(nil), c.MapsLinks...)
	}
	return c
}

// CloneCompanies deep-copies a company list.
func CloneCompanies(in []Company) []Company {
	if in == nil {
		return nil
	}
	out := make([]Company, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

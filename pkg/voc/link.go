package voc

import (
	"net/url"
	"strings"
)

// BuildDashboardLink returns dashboardURL with the CSV location in its
// csv_url query parameter, every reserved character escaped.
func BuildDashboardLink(dashboardURL, csvURL string) string {
	sep := "?"
	if strings.Contains(dashboardURL, "?") {
		sep = "&"
	}
	return dashboardURL + sep + "csv_url=" + strings.ReplaceAll(url.QueryEscape(csvURL), "+", "%20")
}

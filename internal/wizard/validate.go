package wizard

import (
	"net/url"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/model"
)

// NormalizeURL trims raw, adds https:// to a bare host and checks that the
// result is an absolute http(s) URL.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "wizard: parse %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", eris.Wrapf(ErrInvalidURL, "wizard: scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", eris.Wrapf(ErrInvalidURL, "wizard: host of %q", raw)
	}
	if !strings.Contains(host, ".") && host != "localhost" {
		return "", eris.Wrapf(ErrInvalidURL, "wizard: host %q", host)
	}
	return u.String(), nil
}

// cleanCompanies trims names, drops unnamed entries and normalises
// websites and map links. At least one company must remain.
func cleanCompanies(in []model.Company) ([]model.Company, error) {
	out := make([]model.Company, 0, len(in))
	for _, c := range in {
		c = c.Clone()
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if strings.TrimSpace(c.Website) != "" {
			w, err := NormalizeURL(c.Website)
			if err != nil {
				return nil, eris.Wrapf(err, "wizard: website of %s", c.Name)
			}
			c.Website = w
		} else {
			c.Website = ""
		}
		c.AndroidID = strings.TrimSpace(c.AndroidID)
		c.AppleID = strings.TrimSpace(c.AppleID)
		c.ReviewLink = strings.TrimSpace(c.ReviewLink)
		c.MapsLinks = model.NormalizeLinks(c.MapsLinks)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoCompetitors
	}
	return out, nil
}

// mergeAppIDs copies resolved store ids onto the draft list. Entries are
// matched by position when names agree, otherwise by name.
func mergeAppIDs(draft, resolved []model.Company) []model.Company {
	byKey := make(map[string]model.Company, len(resolved))
	for _, r := range resolved {
		if k := r.Key(); k != "" {
			if _, ok := byKey[k]; !ok {
				byKey[k] = r
			}
		}
	}

	out := model.CloneCompanies(draft)
	for i := range out {
		var (
			r  model.Company
			ok bool
		)
		if i < len(resolved) && resolved[i].Key() == out[i].Key() {
			r, ok = resolved[i], true
		} else {
			r, ok = byKey[out[i].Key()]
		}
		if !ok {
			continue
		}
		if id := strings.TrimSpace(r.AndroidID); id != "" {
			out[i].AndroidID = id
		}
		if id := strings.TrimSpace(r.AppleID); id != "" {
			out[i].AppleID = id
		}
	}
	return out
}

// applyReviewLinks sets each company's review link from links, keyed by
// company name (case-insensitive). Non-empty links must be valid URLs.
func applyReviewLinks(companies []model.Company, links map[string]string) ([]model.Company, error) {
	byKey := make(map[string]string, len(links))
	for name, link := range links {
		byKey[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(link)
	}

	out := model.CloneCompanies(companies)
	for i := range out {
		link, ok := byKey[out[i].Key()]
		if !ok {
			continue
		}
		delete(byKey, out[i].Key())
		if link == "" {
			out[i].ReviewLink = ""
			continue
		}
		norm, err := NormalizeURL(link)
		if err != nil {
			return nil, eris.Wrapf(err, "wizard: review link of %s", out[i].Name)
		}
		out[i].ReviewLink = norm
	}
	var names []string
	for name, link := range byKey {
		if link != "" {
			names = append(names, name)
		}
	}
	if len(names) > 0 {
		sort.Strings(names)
		return nil, eris.Wrapf(ErrUnknownCompany, "wizard: review link for %q", names[0])
	}
	return out, nil
}

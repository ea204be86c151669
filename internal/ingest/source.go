package ingest

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Source is where a review CSV comes from. Exactly one field is set.
type Source struct {
	URL  string `json:"url,omitempty"`
	Path string `json:"path,omitempty"`
}

// String returns the URL or path.
func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// Remote reports whether the source is fetched over HTTP.
func (s Source) Remote() bool { return s.URL != "" }

// ParseSource turns a command-line argument into a Source. http and https
// URLs are remote, file:// URLs and anything else are local paths.
func ParseSource(arg string) (Source, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Source{}, eris.New("ingest: empty source")
	}

	u, err := url.Parse(arg)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			if u.Host == "" {
				return Source{}, eris.Errorf("ingest: url %q has no host", arg)
			}
			return Source{URL: arg}, nil
		case "file":
			p := u.Path
			if p == "" {
				p = u.Opaque
			}
			if p == "" {
				return Source{}, eris.Errorf("ingest: file url %q has no path", arg)
			}
			return Source{Path: filepath.FromSlash(p)}, nil
		}
	}
	return Source{Path: arg}, nil
}

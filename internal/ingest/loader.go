// Package ingest loads review CSVs from URLs or local files and parses
// them into records.
package ingest

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/voc-cli/internal/fetcher"
	"github.com/sells-group/voc-cli/internal/model"
)

// Loader fetches and parses review CSVs.
type Loader struct {
	Fetcher fetcher.Fetcher
	// ProxyURL, when set, is used for every http(s) source as
	// ProxyURL?url=<escaped source>.
	ProxyURL string
}

// NewLoader returns a Loader over f.
func NewLoader(f fetcher.Fetcher, proxyURL string) *Loader {
	return &Loader{Fetcher: f, ProxyURL: proxyURL}
}

// RemoteURL returns the URL actually requested for a remote source.
func (l *Loader) RemoteURL(src string) string {
	if l.ProxyURL == "" {
		return src
	}
	sep := "?"
	if strings.Contains(l.ProxyURL, "?") {
		sep = "&"
	}
	return l.ProxyURL + sep + "url=" + url.QueryEscape(src)
}

// Open returns the raw CSV body for src.
func (l *Loader) Open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if !src.Remote() {
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, &Error{Source: src.String(), Err: err}
		}
		return f, nil
	}

	if l.Fetcher == nil {
		return nil, &Error{Source: src.String(), Err: eris.New("no http fetcher configured")}
	}
	target := l.RemoteURL(src.URL)
	body, err := l.Fetcher.Download(ctx, target)
	if err != nil {
		return nil, &Error{Source: src.String(), Err: err}
	}
	return body, nil
}

// Load opens and parses src.
func (l *Loader) Load(ctx context.Context, src Source) ([]model.ReviewRecord, error) {
	body, err := l.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	records, err := ParseReviews(ctx, body)
	if err != nil {
		return nil, &Error{Source: src.String(), Err: err}
	}

	zap.L().Info("ingest: loaded reviews",
		zap.String("source", src.String()),
		zap.Int("records", len(records)),
	)
	return records, nil
}

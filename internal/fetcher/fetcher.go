// Package fetcher downloads review CSVs over HTTP and streams their rows.
package fetcher

import (
	"context"
	"fmt"
	"io"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download returns the body of a 200 response. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// StatusError is returned when the final response is not 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}

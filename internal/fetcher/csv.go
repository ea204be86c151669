package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Row is one CSV record keyed by normalised header name.
type Row struct {
	// Line is the 1-based line the record started on.
	Line   int
	Fields map[string]string
}

// Get returns the first non-empty value among keys.
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v := r.Fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// NormalizeHeader lower-cases and trims a header cell and drops a
// leading byte order mark.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// StreamRows parses a header-row CSV and sends each following record on
// the row channel. Blank lines are skipped; short records leave the
// missing columns out of Fields and extra cells are ignored. Both
// channels are closed when the input is exhausted or ctx is done.
func StreamRows(ctx context.Context, r io.Reader) (<-chan Row, <-chan error) {
	rowCh := make(chan Row, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if blank(record) {
				continue
			}

			if header == nil {
				header = make([]string, len(record))
				for i, h := range record {
					header[i] = NormalizeHeader(h)
				}
				continue
			}

			line, _ := reader.FieldPos(0)
			row := Row{Line: line, Fields: make(map[string]string, len(header))}
			for i, h := range header {
				if h == "" || i >= len(record) {
					continue
				}
				if _, dup := row.Fields[h]; dup {
					continue
				}
				row.Fields[h] = record[i]
			}

			select {
			case rowCh <- row:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

package ingest

import (
	"context"
	"io"

	"github.com/sells-group/voc-cli/internal/fetcher"
	"github.com/sells-group/voc-cli/internal/model"
)

// ParseReviews reads a header-row review CSV. Missing columns leave the
// corresponding fields blank; an empty body yields no records.
func ParseReviews(ctx context.Context, r io.Reader) ([]model.ReviewRecord, error) {
	rowCh, errCh := fetcher.StreamRows(ctx, r)

	var out []model.ReviewRecord
	for row := range rowCh {
		out = append(out, recordFromRow(row))
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}

func recordFromRow(row fetcher.Row) model.ReviewRecord {
	return model.ReviewRecord{
		Text:       row.Get("text", "review", "content"),
		Rating:     row.Get("rating", "score"),
		Date:       row.Get("date", "review_date"),
		Author:     row.Get("source_user", "author", "user"),
		Platform:   row.Get("platform", "source"),
		Brand:      row.Get("brand", "company_name"),
		SourceLink: row.Get("source_link", "link", "url"),
		Sentiment:  row.Get("sentiment"),
		Emotion:    row.Get("emotion"),
		Confidence: row.Get("confidence"),
		Topics:     row.Get("topics"),
	}
}

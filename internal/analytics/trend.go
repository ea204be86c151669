package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/voc-cli/internal/model"
)

const (
	// TrendWindow is how far back the trend looks.
	TrendWindow = 90 * 24 * time.Hour
	// TrendBuckets is the number of most recent weeks kept.
	TrendBuckets = 12
)

// ComputeTrend buckets reviews by ISO week within TrendWindow of now.
// When now is zero the window ends at the latest parseable review date.
// Reviews with unparseable dates or dated after now are skipped.
func ComputeTrend(records []model.ReviewRecord, now time.Time) []model.TrendPoint {
	type dated struct {
		at time.Time
		s  model.Sentiment
	}

	var rows []dated
	var latest time.Time
	for _, r := range records {
		t, ok := r.ParsedDate()
		if !ok {
			continue
		}
		if t.After(latest) {
			latest = t
		}
		rows = append(rows, dated{at: t, s: r.SentimentLabel()})
	}
	if len(rows) == 0 {
		return []model.TrendPoint{}
	}

	anchor := now
	if anchor.IsZero() {
		anchor = latest
	}
	cutoff := anchor.Add(-TrendWindow)

	type key struct{ year, week int }
	buckets := make(map[key]*counts)
	for _, row := range rows {
		if row.at.Before(cutoff) || row.at.After(anchor) {
			continue
		}
		y, w := row.at.ISOWeek()
		k := key{y, w}
		c, ok := buckets[k]
		if !ok {
			c = &counts{}
			buckets[k] = c
		}
		c.add(row.s)
	}

	out := make([]model.TrendPoint, 0, len(buckets))
	for k, c := range buckets {
		total := c.sum()
		pos, neg, _ := c.percents(total)
		out = append(out, model.TrendPoint{
			Year:         k.year,
			Week:         k.week,
			Label:        fmt.Sprintf("%d-W%02d", k.year, k.week),
			Positive:     c.positive,
			Negative:     c.negative,
			Neutral:      c.neutral,
			Total:        total,
			NetSentiment: pos - neg,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})
	if len(out) > TrendBuckets {
		out = out[len(out)-TrendBuckets:]
	}
	return out
}

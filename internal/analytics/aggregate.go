// Package analytics turns review records into dashboard statistics. All
// functions are pure and safe for concurrent use.
package analytics

import (
	"time"

	"github.com/sells-group/voc-cli/internal/model"
)

// TopN is the number of strengths and weaknesses reported.
const TopN = 3

// Options controls one aggregation pass.
type Options struct {
	// Brands restricts the pass to these brand labels. Empty means all.
	Brands []string
	// Now anchors the trend window. Zero anchors on the latest review.
	Now time.Time
}

// Aggregate computes the full dashboard snapshot for records. Reviews with
// an unrecognised sentiment label count toward TotalReviews but none of
// the three sentiment buckets, so overall percentages may sum below 100.
func Aggregate(records []model.ReviewRecord, opts Options) model.DashboardData {
	available := AvailableBrands(records)
	active := activeBrands(opts.Brands, available)
	subset := FilterByBrands(records, active)

	var c counts
	var rs ratingSum
	for _, r := range subset {
		c.add(r.SentimentLabel())
		rs.add(r)
	}
	pos, neg, neu := c.percents(len(subset))

	dims := ComputeDimensions(subset)
	return model.DashboardData{
		TotalReviews:    len(subset),
		Positive:        c.positive,
		Negative:        c.negative,
		Neutral:         c.neutral,
		PositivePercent: pos,
		NegativePercent: neg,
		NeutralPercent:  neu,
		NetSentiment:    pos - neg,
		AvgRating:       rs.avg(),
		Trend:           ComputeTrend(subset, opts.Now),
		Brands:          ComputeBrands(subset),
		Dimensions:      dims,
		Strengths:       TopStrengths(dims, TopN),
		Weaknesses:      TopWeaknesses(dims, TopN),
		ActiveBrands:    active,
		AvailableBrands: available,
	}
}

// activeBrands normalises a filter. A filter naming every available brand
// is the same as no filter.
func activeBrands(filter, available []string) []string {
	active := normalizeBrands(filter)
	if len(active) == 0 || len(available) == 0 {
		return active
	}
	for _, b := range available {
		if !containsFold(active, b) {
			return active
		}
	}
	return []string{}
}

package analytics

import (
	"sort"
	"strings"

	"github.com/sells-group/voc-cli/internal/model"
)

// ComputeBrands groups reviews by brand label. Blank brands fall under
// model.UnknownBrand and non-numeric ratings average as 0. Results are
// sorted by review count, then brand.
func ComputeBrands(records []model.ReviewRecord) []model.BrandStat {
	type acc struct {
		counts
		ratingSum
	}

	byBrand := make(map[string]*acc)
	for _, r := range records {
		b := r.BrandLabel()
		a, ok := byBrand[b]
		if !ok {
			a = &acc{}
			byBrand[b] = a
		}
		a.counts.add(r.SentimentLabel())
		a.ratingSum.add(r)
	}

	out := make([]model.BrandStat, 0, len(byBrand))
	for brand, a := range byBrand {
		pos, neg, neu := a.percents(a.n)
		out = append(out, model.BrandStat{
			Brand:           brand,
			ReviewCount:     a.n,
			AvgRating:       a.avg(),
			InvalidRatings:  a.invalid,
			PositivePercent: pos,
			NegativePercent: neg,
			NeutralPercent:  neu,
			NetSentiment:    pos - neg,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReviewCount != out[j].ReviewCount {
			return out[i].ReviewCount > out[j].ReviewCount
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

// AvailableBrands returns the distinct brand labels in records, sorted.
func AvailableBrands(records []model.ReviewRecord) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		b := r.BrandLabel()
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// normalizeBrands trims, dedupes (case-insensitively) and sorts a brand
// filter.
func normalizeBrands(brands []string) []string {
	seen := make(map[string]struct{}, len(brands))
	out := []string{}
	for _, b := range brands {
		b = strings.TrimSpace(b)
		key := strings.ToLower(b)
		if b == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// FilterByBrands keeps records whose brand label matches one of brands,
// ignoring case. An empty filter keeps everything.
func FilterByBrands(records []model.ReviewRecord, brands []string) []model.ReviewRecord {
	brands = normalizeBrands(brands)
	if len(brands) == 0 {
		return records
	}
	want := make(map[string]struct{}, len(brands))
	for _, b := range brands {
		want[strings.ToLower(b)] = struct{}{}
	}
	out := make([]model.ReviewRecord, 0, len(records))
	for _, r := range records {
		if _, ok := want[strings.ToLower(r.BrandLabel())]; ok {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

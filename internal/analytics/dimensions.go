package analytics

import (
	"sort"
	"strings"

	"github.com/sells-group/voc-cli/internal/model"
)

// ComputeDimensions aggregates topic mentions per dimension. Percentages
// are relative to each dimension's own mention total; impact weights net
// sentiment by the dimension's share of len(records). Results are sorted
// by mention total, then name.
func ComputeDimensions(records []model.ReviewRecord) []model.DimensionStat {
	type acc struct {
		name string
		counts
	}

	byKey := make(map[string]*acc)
	var order []string
	for _, r := range records {
		for _, m := range ParseTopics(r.Topics) {
			key := strings.ToLower(m.Dimension)
			a, ok := byKey[key]
			if !ok {
				a = &acc{name: m.Dimension}
				byKey[key] = a
				order = append(order, key)
			}
			a.add(m.Sentiment)
		}
	}

	out := make([]model.DimensionStat, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		total := a.sum()
		pos, neg, neu := a.percents(total)
		st := model.DimensionStat{
			Name:            a.name,
			Positive:        a.positive,
			Negative:        a.negative,
			Neutral:         a.neutral,
			Total:           total,
			PositivePercent: pos,
			NegativePercent: neg,
			NeutralPercent:  neu,
			NetSentiment:    pos - neg,
		}
		if len(records) > 0 {
			st.Impact = float64(total) / float64(len(records)) * st.NetSentiment
		}
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopStrengths returns up to n dimensions with positive impact, highest
// first.
func TopStrengths(dims []model.DimensionStat, n int) []model.DimensionStat {
	return topByImpact(dims, n, func(d model.DimensionStat) bool { return d.Impact > 0 }, func(a, b float64) bool { return a > b })
}

// TopWeaknesses returns up to n dimensions with negative impact, most
// negative first.
func TopWeaknesses(dims []model.DimensionStat, n int) []model.DimensionStat {
	return topByImpact(dims, n, func(d model.DimensionStat) bool { return d.Impact < 0 }, func(a, b float64) bool { return a < b })
}

func topByImpact(dims []model.DimensionStat, n int, keep func(model.DimensionStat) bool, before func(a, b float64) bool) []model.DimensionStat {
	out := make([]model.DimensionStat, 0, n)
	for _, d := range dims {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Impact != out[j].Impact {
			return before(out[i].Impact, out[j].Impact)
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

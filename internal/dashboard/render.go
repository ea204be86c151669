package dashboard

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/model"
	"github.com/sells-group/voc-cli/internal/output"
)

const barWidth = 30

// Render writes the active tab to w.
func (s *Shell) Render(w io.Writer) error {
	return s.RenderTab(w, s.Tab())
}

// RenderTab writes one tab to w regardless of the active tab.
func (s *Shell) RenderTab(w io.Writer, tab Tab) error {
	s.mu.RLock()
	data := s.data
	source := s.source
	records := s.records
	s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(output.StyleBold.Render("Voice of Customer") + "  " + output.StyleMuted.Render(source) + "\n")
	sb.WriteString(tabBar(tab) + "\n")
	if len(data.ActiveBrands) > 0 {
		sb.WriteString(output.StyleMuted.Render("Brands: ") + strings.Join(data.ActiveBrands, ", ") + "\n")
	}

	switch tab {
	case TabExecutive:
		renderExecutive(&sb, data)
	case TabOperational:
		renderOperational(&sb, data)
	case TabData:
		renderData(&sb, source, records)
	default:
		return eris.Errorf("dashboard: unknown tab %q", tab)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func tabBar(active Tab) string {
	parts := make([]string, 0, len(Tabs()))
	for _, t := range Tabs() {
		label := output.Label(string(t))
		if t == active {
			parts = append(parts, output.StyleTab.Render("["+label+"]"))
		} else {
			parts = append(parts, output.StyleMuted.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

func renderExecutive(sb *strings.Builder, d model.DashboardData) {
	sb.WriteString(output.Section("Overall Sentiment"))
	if d.TotalReviews == 0 {
		sb.WriteString(" No reviews loaded.\n")
		return
	}
	fmt.Fprintf(sb, " %s%d\n", output.StyleLabel.Render("Reviews"), d.TotalReviews)
	fmt.Fprintf(sb, " %s%s\n", output.StyleLabel.Render("Average rating"), output.Rating(d.AvgRating))
	fmt.Fprintf(sb, " %s%s  %s / %s / %s\n",
		output.StyleLabel.Render("Sentiment"),
		output.SentimentBar(d.PositivePercent, d.NeutralPercent, d.NegativePercent, barWidth),
		output.StylePositive.Render(output.Percent(d.PositivePercent)),
		output.StyleNeutral.Render(output.Percent(d.NeutralPercent)),
		output.StyleNegative.Render(output.Percent(d.NegativePercent)),
	)
	fmt.Fprintf(sb, " %s%s\n", output.StyleLabel.Render("Net sentiment"), output.NetBar(d.NetSentiment, barWidth))

	sb.WriteString(output.Section("Top Strengths"))
	sb.WriteString(impactTable(d.Strengths, "No positive dimensions yet."))
	sb.WriteString(output.Section("Top Weaknesses"))
	sb.WriteString(impactTable(d.Weaknesses, "No negative dimensions yet."))

	sb.WriteString(output.Section("Brand Comparison"))
	bt := output.NewTable("Brand", "Reviews", "Positive", "Negative", "Net").AlignRight(1, 2, 3, 4)
	for _, b := range d.Brands {
		bt.AddRow(b.Brand, strconv.Itoa(b.ReviewCount), output.Percent(b.PositivePercent), output.Percent(b.NegativePercent), output.Signed(b.NetSentiment))
	}
	sb.WriteString(indent(bt.Render()))

	sb.WriteString(output.Section("Sentiment Trend"))
	if len(d.Trend) == 0 {
		sb.WriteString(" No dated reviews in the last 90 days.\n")
		return
	}
	tt := output.NewTable("Week", "Reviews", "Net", "").AlignRight(1)
	for _, p := range d.Trend {
		tt.AddRow(p.Label, strconv.Itoa(p.Total), output.Signed(p.NetSentiment), output.NetBar(p.NetSentiment, 20))
	}
	sb.WriteString(indent(tt.Render()))
}

func impactTable(dims []model.DimensionStat, empty string) string {
	if len(dims) == 0 {
		return " " + empty + "\n"
	}
	t := output.NewTable("Dimension", "Mentions", "Net", "Impact").AlignRight(1, 2, 3)
	for _, d := range dims {
		t.AddRow(d.Name, strconv.Itoa(d.Total), output.Signed(d.NetSentiment), fmt.Sprintf("%.1f", d.Impact))
	}
	return indent(t.Render())
}

func renderOperational(sb *strings.Builder, d model.DashboardData) {
	sb.WriteString(output.Section("Dimensions"))
	if len(d.Dimensions) == 0 {
		sb.WriteString(" No topics found in the loaded reviews.\n")
	} else {
		t := output.NewTable("Dimension", "Mentions", "Pos", "Neg", "Neu", "Positive", "Negative", "Net", "Impact").
			AlignRight(1, 2, 3, 4, 5, 6, 7, 8)
		for _, s := range d.Dimensions {
			t.AddRow(s.Name, strconv.Itoa(s.Total),
				strconv.Itoa(s.Positive), strconv.Itoa(s.Negative), strconv.Itoa(s.Neutral),
				output.Percent(s.PositivePercent), output.Percent(s.NegativePercent),
				output.Signed(s.NetSentiment), fmt.Sprintf("%.1f", s.Impact))
		}
		sb.WriteString(indent(t.Render()))
	}

	sb.WriteString(output.Section("Brands"))
	if len(d.Brands) == 0 {
		sb.WriteString(" No reviews loaded.\n")
		return
	}
	t := output.NewTable("Brand", "Reviews", "Avg rating", "Unrated", "Positive", "Neutral", "Negative", "Net").
		AlignRight(1, 2, 3, 4, 5, 6, 7)
	for _, b := range d.Brands {
		t.AddRow(b.Brand, strconv.Itoa(b.ReviewCount), output.Rating(b.AvgRating), strconv.Itoa(b.InvalidRatings),
			output.Percent(b.PositivePercent), output.Percent(b.NeutralPercent), output.Percent(b.NegativePercent),
			output.Signed(b.NetSentiment))
	}
	sb.WriteString(indent(t.Render()))
}

// Columns lists the CSV columns reported by the data tab.
var Columns = []string{"text", "rating", "date", "source_user", "platform", "brand", "source_link", "sentiment", "emotion", "confidence", "topics"}

// Coverage counts the records with a non-blank value per column.
func Coverage(records []model.ReviewRecord) map[string]int {
	out := make(map[string]int, len(Columns))
	for _, r := range records {
		for i, v := range []string{r.Text, r.Rating, r.Date, r.Author, r.Platform, r.Brand, r.SourceLink, r.Sentiment, r.Emotion, r.Confidence, r.Topics} {
			if strings.TrimSpace(v) != "" {
				out[Columns[i]]++
			}
		}
	}
	return out
}

func renderData(sb *strings.Builder, source string, records []model.ReviewRecord) {
	sb.WriteString(output.Section("Source"))
	fmt.Fprintf(sb, " %s%s\n", output.StyleLabel.Render("Location"), source)
	fmt.Fprintf(sb, " %s%d\n", output.StyleLabel.Render("Records"), len(records))
	if len(records) == 0 {
		return
	}

	byPlatform := make(map[string]int)
	byBrand := make(map[string]int)
	for _, r := range records {
		byPlatform[r.PlatformLabel()]++
		byBrand[r.BrandLabel()]++
	}

	sb.WriteString(output.Section("Records by Platform"))
	sb.WriteString(indent(countTable("Platform", byPlatform).Render()))
	sb.WriteString(output.Section("Records by Brand"))
	sb.WriteString(indent(countTable("Brand", byBrand).Render()))

	sb.WriteString(output.Section("Column Coverage"))
	cov := Coverage(records)
	t := output.NewTable("Column", "Filled", "Coverage").AlignRight(1, 2)
	for _, c := range Columns {
		t.AddRow(c, strconv.Itoa(cov[c]), output.Percent(float64(cov[c])*100/float64(len(records))))
	}
	sb.WriteString(indent(t.Render()))
}

// countTable lists counts in descending order, ties by name.
func countTable(label string, counts map[string]int) *output.Table {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	t := output.NewTable(label, "Reviews").AlignRight(1)
	for _, k := range keys {
		t.AddRow(k, strconv.Itoa(counts[k]))
	}
	return t
}

func indent(s string) string {
	if s == "" {
		return s
	}
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(l)
	}
	return sb.String()
}

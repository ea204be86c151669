// Package export writes dashboard data to spreadsheet workbooks.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/voc-cli/internal/model"
)

// Sheet names in workbook order.
const (
	SheetSummary    = "Summary"
	SheetDimensions = "Dimensions"
	SheetBrands     = "Brands"
	SheetTrend      = "Trend"
	SheetReviews    = "Reviews"
)

const pctFormat = "0.0"

// Workbook builds a workbook with one sheet per dashboard section plus the
// raw reviews. records may be nil to skip the reviews sheet.
func Workbook(source string, data model.DashboardData, records []model.ReviewRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SheetSummary)
	if err != nil {
		return nil, eris.Wrap(err, "export: add summary sheet")
	}
	kv := func(label string, set func(*xlsx.Cell)) {
		row := summary.AddRow()
		row.AddCell().SetString(label)
		set(row.AddCell())
	}
	str := func(s string) func(*xlsx.Cell) { return func(c *xlsx.Cell) { c.SetString(s) } }
	num := func(n int) func(*xlsx.Cell) { return func(c *xlsx.Cell) { c.SetInt(n) } }
	pct := func(v float64) func(*xlsx.Cell) { return func(c *xlsx.Cell) { c.SetFloatWithFormat(v, pctFormat) } }

	kv("Source", str(source))
	kv("Brands", str(brandLabel(data.ActiveBrands)))
	kv("Total reviews", num(data.TotalReviews))
	kv("Positive", num(data.Positive))
	kv("Negative", num(data.Negative))
	kv("Neutral", num(data.Neutral))
	kv("Positive %", pct(data.PositivePercent))
	kv("Negative %", pct(data.NegativePercent))
	kv("Neutral %", pct(data.NeutralPercent))
	kv("Net sentiment", pct(data.NetSentiment))
	kv("Average rating", func(c *xlsx.Cell) { c.SetFloatWithFormat(data.AvgRating, "0.00") })
	for i, s := range data.Strengths {
		kv(ordinal("Strength", i), str(s.Name))
	}
	for i, s := range data.Weaknesses {
		kv(ordinal("Weakness", i), str(s.Name))
	}

	dims, err := addTable(f, SheetDimensions, []string{"Dimension", "Mentions", "Positive", "Negative", "Neutral", "Positive %", "Negative %", "Neutral %", "Net", "Impact"})
	if err != nil {
		return nil, err
	}
	for _, d := range data.Dimensions {
		row := dims.AddRow()
		row.AddCell().SetString(d.Name)
		for _, n := range []int{d.Total, d.Positive, d.Negative, d.Neutral} {
			row.AddCell().SetInt(n)
		}
		for _, v := range []float64{d.PositivePercent, d.NegativePercent, d.NeutralPercent, d.NetSentiment, d.Impact} {
			row.AddCell().SetFloatWithFormat(v, pctFormat)
		}
	}

	brands, err := addTable(f, SheetBrands, []string{"Brand", "Reviews", "Avg rating", "Unrated", "Positive %", "Negative %", "Neutral %", "Net"})
	if err != nil {
		return nil, err
	}
	for _, b := range data.Brands {
		row := brands.AddRow()
		row.AddCell().SetString(b.Brand)
		row.AddCell().SetInt(b.ReviewCount)
		row.AddCell().SetFloatWithFormat(b.AvgRating, "0.00")
		row.AddCell().SetInt(b.InvalidRatings)
		for _, v := range []float64{b.PositivePercent, b.NegativePercent, b.NeutralPercent, b.NetSentiment} {
			row.AddCell().SetFloatWithFormat(v, pctFormat)
		}
	}

	trend, err := addTable(f, SheetTrend, []string{"Week", "Reviews", "Positive", "Negative", "Neutral", "Net"})
	if err != nil {
		return nil, err
	}
	for _, p := range data.Trend {
		row := trend.AddRow()
		row.AddCell().SetString(p.Label)
		for _, n := range []int{p.Total, p.Positive, p.Negative, p.Neutral} {
			row.AddCell().SetInt(n)
		}
		row.AddCell().SetFloatWithFormat(p.NetSentiment, pctFormat)
	}

	if records == nil {
		return f, nil
	}
	reviews, err := addTable(f, SheetReviews, []string{"brand", "platform", "date", "rating", "sentiment", "emotion", "confidence", "topics", "source_user", "source_link", "text"})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		row := reviews.AddRow()
		for _, v := range []string{r.Brand, r.Platform, r.Date, r.Rating, r.Sentiment, r.Emotion, r.Confidence, r.Topics, r.Author, r.SourceLink, r.Text} {
			row.AddCell().SetString(v)
		}
	}
	return f, nil
}

// Write encodes the workbook to w.
func Write(w io.Writer, source string, data model.DashboardData, records []model.ReviewRecord) error {
	f, err := Workbook(source, data, records)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

// WriteFile saves the workbook to path.
func WriteFile(path, source string, data model.DashboardData, records []model.ReviewRecord) error {
	f, err := Workbook(source, data, records)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func addTable(f *xlsx.File, name string, headers []string) (*xlsx.Sheet, error) {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return nil, eris.Wrapf(err, "export: add %s sheet", name)
	}
	row := sheet.AddRow()
	for _, h := range headers {
		cell := row.AddCell()
		cell.SetString(h)
		cell.GetStyle().Font.Bold = true
	}
	return sheet, nil
}

func brandLabel(active []string) string {
	if len(active) == 0 {
		return "All brands"
	}
	return strings.Join(active, ", ")
}

func ordinal(prefix string, i int) string {
	return prefix + " " + strconv.Itoa(i+1)
}

package output

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SentimentBar renders a stacked positive/neutral/negative bar of the given
// width. Percentages are of the same total and may sum below 100.
// Example: "██████▒▒░░"
func SentimentBar(pos, neu, neg float64, width int) string {
	if width <= 0 {
		width = 30
	}
	p := cells(pos, width)
	n := cells(neg, width)
	u := cells(neu, width)
	if over := p + n + u - width; over > 0 {
		u = max(u-over, 0)
	}
	rest := width - p - n - u

	return StylePositive.Render(strings.Repeat("█", p)) +
		StyleNeutral.Render(strings.Repeat("▒", u)) +
		StyleNegative.Render(strings.Repeat("█", n)) +
		StyleMuted.Render(strings.Repeat("░", rest))
}

// NetBar renders a net sentiment score in [-100, 100] as a bar growing
// left or right of a center mark.
// Example: "     |███   +32.0"
func NetBar(net float64, width int) string {
	if width <= 0 {
		width = 20
	}
	half := width / 2
	n := cells(math.Abs(net), half)

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if net < 0 {
		left = strings.Repeat(" ", half-n) + StyleNegative.Render(strings.Repeat("█", n))
	} else if net > 0 {
		right = StylePositive.Render(strings.Repeat("█", n)) + strings.Repeat(" ", half-n)
	}
	return left + StyleMuted.Render("|") + right + " " + Signed(net)
}

// ProgressBar renders processed/total as a bar. An unknown total renders
// an empty bar.
func ProgressBar(processed, total, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if total > 0 {
		filled = cells(float64(processed)*100/float64(total), width)
	}
	return StylePositive.Render(strings.Repeat("█", filled)) +
		StyleMuted.Render(strings.Repeat("░", width-filled))
}

// Percent formats a percentage with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Signed formats a score with an explicit sign and colors it by direction.
func Signed(v float64) string {
	s := fmt.Sprintf("%+.1f", v)
	switch {
	case v > 0:
		return StylePositive.Render(s)
	case v < 0:
		return StyleNegative.Render(s)
	default:
		return StyleMuted.Render(fmt.Sprintf("%.1f", v))
	}
}

// Rating formats an average star rating.
func Rating(v float64) string {
	if v == 0 {
		return StyleMuted.Render("–")
	}
	return fmt.Sprintf("%.2f ★", v)
}

// Section renders a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s\n", header, rule)
}

var titleCaser = cases.Title(language.English)

// Label turns an identifier such as "map_locations" into "Map Locations".
func Label(id string) string {
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(id))
}

// StatusLine formats one job progress line:
// "[RUNNING] Scraping reviews (40/100)".
func StatusLine(status, message string, processed, total int) string {
	line := "[" + strings.ToUpper(status) + "]"
	if message != "" {
		line += " " + message
	}
	if total > 0 {
		line += fmt.Sprintf(" (%d/%d)", processed, total)
	}
	return line
}

func cells(percent float64, width int) int {
	n := int(math.Round(percent / 100 * float64(width)))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

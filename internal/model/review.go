package model

import (
	"strconv"
	"strings"
	"time"
)

// Sentiment is a review or topic sentiment label.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	// SentimentUnknown marks a label outside the three recognised values.
	SentimentUnknown Sentiment = ""
)

// ParseSentiment matches a label case-insensitively after trimming.
// Anything other than positive, negative or neutral is SentimentUnknown.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	case "neutral":
		return SentimentNeutral
	default:
		return SentimentUnknown
	}
}

// UnknownBrand groups reviews without a brand.
const UnknownBrand = "Unknown"

// ReviewRecord is one row of an analysed review CSV. Values are kept as
// the raw cell text; the helper methods apply the lenient defaults.
type ReviewRecord struct {
	Text       string `json:"text"`
	Rating     string `json:"rating"`
	Date       string `json:"date"`
	Author     string `json:"source_user"`
	Platform   string `json:"platform"`
	Brand      string `json:"brand"`
	SourceLink string `json:"source_link"`
	Sentiment  string `json:"sentiment"`
	Emotion    string `json:"emotion"`
	Confidence string `json:"confidence"`
	Topics     string `json:"topics"`
}

// SentimentLabel returns the parsed sentiment of the review.
func (r ReviewRecord) SentimentLabel() Sentiment {
	return ParseSentiment(r.Sentiment)
}

// RatingValue parses the rating. ok is false for blank or non-numeric
// cells, in which case the value is 0.
func (r ReviewRecord) RatingValue() (float64, bool) {
	s := strings.TrimSpace(r.Rating)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// BrandLabel returns the trimmed brand or UnknownBrand when blank.
func (r ReviewRecord) BrandLabel() string {
	b := strings.TrimSpace(r.Brand)
	if b == "" {
		return UnknownBrand
	}
	return b
}

// PlatformLabel returns the trimmed platform or "unknown".
func (r ReviewRecord) PlatformLabel() string {
	p := strings.TrimSpace(r.Platform)
	if p == "" {
		return "unknown"
	}
	return p
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05-07:00",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParsedDate parses the review date. ok is false when the cell is blank
// or in no known layout.
func (r ReviewRecord) ParsedDate() (time.Time, bool) {
	s := strings.TrimSpace(r.Date)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TopicMention is one "Dimension (Sentiment)" entry of a topics cell.
type TopicMention struct {
	Dimension string    `json:"dimension"`
	Sentiment Sentiment `json:"sentiment"`
}

package analytics

import "github.com/sells-group/voc-cli/internal/model"

// counts tallies the three recognised sentiment labels.
type counts struct {
	positive int
	negative int
	neutral  int
}

func (c *counts) add(s model.Sentiment) {
	switch s {
	case model.SentimentPositive:
		c.positive++
	case model.SentimentNegative:
		c.negative++
	case model.SentimentNeutral:
		c.neutral++
	}
}

func (c counts) sum() int {
	return c.positive + c.negative + c.neutral
}

// percents returns the three shares of denom as percentages. A zero
// denominator yields zeros.
func (c counts) percents(denom int) (pos, neg, neu float64) {
	if denom <= 0 {
		return 0, 0, 0
	}
	d := float64(denom)
	return float64(c.positive) / d * 100, float64(c.negative) / d * 100, float64(c.neutral) / d * 100
}

// ratingSum accumulates ratings with non-numeric values counted as 0.
type ratingSum struct {
	sum     float64
	n       int
	invalid int
}

func (r *ratingSum) add(rec model.ReviewRecord) {
	v, ok := rec.RatingValue()
	if !ok {
		r.invalid++
	}
	r.sum += v
	r.n++
}

func (r ratingSum) avg() float64 {
	if r.n == 0 {
		return 0
	}
	return r.sum / float64(r.n)
}

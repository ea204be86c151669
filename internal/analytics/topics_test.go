package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/voc-cli/internal/model"
)

func TestParseTopics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []model.TopicMention
	}{
		{
			name: "three mentions",
			in:   "Speed (Positive); Price (Negative); Support (Neutral)",
			want: []model.TopicMention{
				{Dimension: "Speed", Sentiment: model.SentimentPositive},
				{Dimension: "Price", Sentiment: model.SentimentNegative},
				{Dimension: "Support", Sentiment: model.SentimentNeutral},
			},
		},
		{
			name: "parentheses inside name",
			in:   "Delivery (Home) Speed (negative)",
			want: []model.TopicMention{{Dimension: "Delivery (Home) Speed", Sentiment: model.SentimentNegative}},
		},
		{
			name: "malformed segments skipped",
			in:   "Speed; (Positive); Price (Great); Value ( positive ) ;",
			want: []model.TopicMention{{Dimension: "Value", Sentiment: model.SentimentPositive}},
		},
		{
			name: "empty",
			in:   "  ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseTopics(tt.in))
		})
	}
}

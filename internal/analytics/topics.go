package analytics

import (
	"regexp"
	"strings"

	"github.com/sells-group/voc-cli/internal/model"
)

// topicPattern matches one "Name (Sentiment)" segment.
var topicPattern = regexp.MustCompile(`^(.+?)\s*\(\s*([^()]+?)\s*\)$`)

// ParseTopics splits a topics cell into mentions. Segments that do not
// look like "Name (Sentiment)" or carry an unrecognised sentiment are
// skipped.
func ParseTopics(s string) []model.TopicMention {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var out []model.TopicMention
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		m := topicPattern.FindStringSubmatch(seg)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		sent := model.ParseSentiment(m[2])
		if name == "" || sent == model.SentimentUnknown {
			continue
		}
		out = append(out, model.TopicMention{Dimension: name, Sentiment: sent})
	}
	return out
}

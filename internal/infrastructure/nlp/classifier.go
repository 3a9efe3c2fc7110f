package nlp

import (
	"context"
	"math"
	"regexp"
	"strings"

	"GlobalPulse/internal/domain"
)

// maxClassifyRunes bounds the text sent to the model, which enforces its
// own token limit server-side.
const maxClassifyRunes = 2000

var urlExpr = regexp.MustCompile(`https?://\S+|www\.\S+`)

// Classify scores sentiment for one text. The underlying model is binary
// positive/negative; scores inside the open interval (0.45, 0.55) are
// remapped to neutral to widen the label space. Model failures are
// absorbed into the error label and never reach the caller.
func (c *Client) Classify(ctx context.Context, text string) domain.Sentiment {
	cleaned := CleanText(text)
	if cleaned == "" {
		return domain.Sentiment{Label: domain.SentimentNeutral, Score: 0.0}
	}

	var resp struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}

	if err := c.post(ctx, c.sentimentURL, map[string]string{"text": truncate(cleaned, maxClassifyRunes)}, &resp); err != nil {
		c.warn("sentiment inference failed", "error", err)
		return domain.Sentiment{Label: domain.SentimentError, Score: 0.0}
	}

	label, ok := mapLabel(resp.Label, resp.Score)
	if !ok {
		c.warn("sentiment inference returned unknown label", "label", resp.Label)
		return domain.Sentiment{Label: domain.SentimentError, Score: 0.0}
	}

	return domain.Sentiment{Label: label, Score: round4(resp.Score)}
}

func mapLabel(raw string, score float64) (domain.SentimentLabel, bool) {
	if score > 0.45 && score < 0.55 {
		return domain.SentimentNeutral, true
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return domain.SentimentPositive, true
	case "negative":
		return domain.SentimentNegative, true
	}
	return "", false
}

// CleanText strips URLs and normalizes whitespace before classification.
func CleanText(text string) string {
	text = urlExpr.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func truncate(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

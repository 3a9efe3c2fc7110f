package nlp

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"GlobalPulse/internal/domain"
)

var (
	edgePunctExpr = regexp.MustCompile(`^[^A-Za-z0-9]+|[^A-Za-z0-9]+$`)

	// genericTerms filters MISC mentions that are feed boilerplate rather
	// than products.
	genericTerms = map[string]struct{}{
		"news":   {},
		"report": {},
	}
)

// Extract pulls typed named entities out of text. Raw model mentions are
// cleaned of sub-word artifacts and punctuation, normalized to title case,
// deduplicated per type, and sorted for determinism. Model failures are
// absorbed into an empty result and never reach the caller.
func (c *Client) Extract(ctx context.Context, text string) domain.EntityMap {
	if strings.TrimSpace(text) == "" {
		return domain.EntityMap{}
	}

	var resp struct {
		Entities []struct {
			Word  string `json:"word"`
			Group string `json:"entity_group"`
		} `json:"entities"`
	}

	if err := c.post(ctx, c.nerURL, map[string]string{"text": text}, &resp); err != nil {
		c.warn("ner inference failed", "error", err)
		return domain.EntityMap{}
	}

	buckets := map[domain.EntityType]map[string]struct{}{}
	add := func(entityType domain.EntityType, value string) {
		if buckets[entityType] == nil {
			buckets[entityType] = map[string]struct{}{}
		}
		buckets[entityType][value] = struct{}{}
	}

	for _, mention := range resp.Entities {
		clean := CleanEntity(mention.Word)
		if clean == "" {
			continue
		}

		switch mention.Group {
		case "PER":
			add(domain.EntityPerson, clean)
		case "ORG":
			// short ORG hits are mostly tokenizer noise ("El", "Mc")
			if len([]rune(clean)) > 2 {
				add(domain.EntityOrganization, clean)
			}
		case "LOC":
			add(domain.EntityLocation, clean)
		case "MISC":
			if _, generic := genericTerms[strings.ToLower(clean)]; !generic {
				add(domain.EntityProduct, clean)
			}
		}
	}

	result := domain.EntityMap{}
	for entityType, values := range buckets {
		sorted := make([]string, 0, len(values))
		for value := range values {
			sorted = append(sorted, value)
		}
		sort.Strings(sorted)
		result[entityType] = sorted
	}

	return result
}

// CleanEntity strips sub-word merge artifacts and stray punctuation, then
// normalizes casing. Single-character leftovers are discarded as noise.
func CleanEntity(raw string) string {
	text := strings.ReplaceAll(raw, "##", "")
	text = strings.TrimSpace(text)
	text = edgePunctExpr.ReplaceAllString(text, "")

	if len([]rune(text)) <= 1 {
		return ""
	}

	// a cases.Caser is stateful, so build one per call instead of sharing
	// across concurrent extractions
	return cases.Title(language.Und).String(text)
}

package catalog

import (
	"log/slog"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog resolves the full category to feed-URL mapping for a scrape pass.
// Load has no side effects and is cheap, so the coordinator calls it once
// per pass and picks up feeds-file edits without a restart.
type Catalog struct {
	feedsFile string
	logger    *slog.Logger
}

// New wires an optional external feeds file on top of the built-in lists.
func New(feedsFile string, logger *slog.Logger) *Catalog {
	return &Catalog{feedsFile: feedsFile, logger: logger}
}

// Load merges the built-in feed lists with the external feeds file and
// normalizes the result. Every surviving URL is trimmed, non-empty, starts
// with an HTTP(S) scheme, and is unique within its category; categories
// left without a single valid URL are dropped.
func (c *Catalog) Load() map[string][]string {
	merged := make(map[string][]any, len(builtinFeeds))
	for category, urls := range builtinFeeds {
		for _, url := range urls {
			merged[category] = append(merged[category], url)
		}
	}

	for category, urls := range c.loadExternal() {
		merged[category] = append(merged[category], urls...)
	}

	cleaned := make(map[string][]string, len(merged))
	for category, urls := range merged {
		valid := normalizeURLs(urls)
		if len(valid) == 0 {
			continue
		}
		cleaned[category] = valid
	}

	return cleaned
}

// loadExternal reads the category-keyed YAML feeds file. Values are kept
// loosely typed so that non-string entries can be rejected one by one
// instead of failing the whole document.
func (c *Catalog) loadExternal() map[string][]any {
	if c.feedsFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.feedsFile)
	if err != nil {
		c.warn("cannot read feeds file", "path", c.feedsFile, "error", err)
		return nil
	}

	var external map[string][]any
	if err := yaml.Unmarshal(raw, &external); err != nil {
		c.warn("cannot parse feeds file", "path", c.feedsFile, "error", err)
		return nil
	}

	return external
}

func normalizeURLs(raw []any) []string {
	seen := make(map[string]struct{}, len(raw))
	valid := make([]string, 0, len(raw))

	for _, value := range raw {
		url, ok := value.(string)
		if !ok {
			continue
		}

		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}

		lowered := strings.ToLower(url)
		if !strings.HasPrefix(lowered, "http://") && !strings.HasPrefix(lowered, "https://") {
			continue
		}

		if _, ok := seen[lowered]; ok {
			continue
		}
		seen[lowered] = struct{}{}
		valid = append(valid, url)
	}

	sort.Strings(valid)
	return valid
}

func (c *Catalog) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

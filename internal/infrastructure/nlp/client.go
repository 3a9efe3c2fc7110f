package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"GlobalPulse/internal/config"
	"GlobalPulse/internal/ports"
)

// Client talks to the external inference service that hosts the sentiment
// and NER models. It is constructed once at process start and passed
// explicitly into the drain loop, so tests can substitute a stub instead.
type Client struct {
	sentimentURL string
	nerURL       string
	apiKey       string
	http         *http.Client
	logger       *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)
var _ ports.Extractor = (*Client)(nil)

// NewClient creates a reusable HTTP client for both model capabilities.
func NewClient(cfg config.InferenceConfig, logger *slog.Logger) *Client {
	return &Client{
		sentimentURL: cfg.SentimentURL,
		nerURL:       cfg.NERURL,
		apiKey:       cfg.APIKey,
		http:         &http.Client{Timeout: 15 * time.Second},
		logger:       logger,
	}
}

func (c *Client) post(ctx context.Context, url string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

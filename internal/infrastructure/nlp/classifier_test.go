package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"GlobalPulse/internal/config"
	"GlobalPulse/internal/domain"
)

func newSentimentClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(config.InferenceConfig{SentimentURL: server.URL, NERURL: server.URL}, nil)
	c.http = server.Client()
	return c
}

func sentimentHandler(label string, score float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"label": %q, "score": %v}`, label, score)
	}
}

func TestClassifyEmptyTextSkipsModel(t *testing.T) {
	t.Parallel()

	c := newSentimentClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("model must not be called for empty input")
	})

	for _, text := range []string{"", "   ", "\n\t", "https://only.a/url"} {
		got := c.Classify(context.Background(), text)
		if got.Label != domain.SentimentNeutral || got.Score != 0.0 {
			t.Fatalf("Classify(%q) = %+v, want neutral/0.0", text, got)
		}
	}
}

func TestClassifyNeutralBand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		raw   string
		want  domain.SentimentLabel
	}{
		{score: 0.50, raw: "positive", want: domain.SentimentNeutral},
		{score: 0.4501, raw: "negative", want: domain.SentimentNeutral},
		{score: 0.5499, raw: "positive", want: domain.SentimentNeutral},
		{score: 0.45, raw: "negative", want: domain.SentimentNegative},
		{score: 0.55, raw: "positive", want: domain.SentimentPositive},
		{score: 0.98, raw: "positive", want: domain.SentimentPositive},
		{score: 0.97, raw: "negative", want: domain.SentimentNegative},
	}

	for _, tc := range cases {
		c := newSentimentClient(t, sentimentHandler(tc.raw, tc.score))
		got := c.Classify(context.Background(), "markets rallied today")
		if got.Label != tc.want {
			t.Fatalf("score %v raw %s: got label %s, want %s", tc.score, tc.raw, got.Label, tc.want)
		}
		if got.Score != tc.score {
			t.Fatalf("score %v: got %v back", tc.score, got.Score)
		}
	}
}

func TestClassifyCleansTextBeforeModel(t *testing.T) {
	t.Parallel()

	var gotText string
	c := newSentimentClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotText = payload.Text
		sentimentHandler("positive", 0.9)(w, r)
	})

	c.Classify(context.Background(), "good   day https://spam.example/x  indeed")
	if gotText != "good day indeed" {
		t.Fatalf("model received %q, want cleaned text", gotText)
	}
}

func TestClassifyModelFailureYieldsErrorLabel(t *testing.T) {
	t.Parallel()

	c := newSentimentClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	})

	got := c.Classify(context.Background(), "some text")
	if got.Label != domain.SentimentError || got.Score != 0.0 {
		t.Fatalf("got %+v, want error/0.0", got)
	}
}

func TestClassifyUnknownLabelYieldsErrorLabel(t *testing.T) {
	t.Parallel()

	c := newSentimentClient(t, sentimentHandler("sarcastic", 0.99))

	got := c.Classify(context.Background(), "some text")
	if got.Label != domain.SentimentError {
		t.Fatalf("got %+v, want error label", got)
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	got := CleanText("see https://a.example/path and  www.b.example/x \n now")
	if got != "see and now" {
		t.Fatalf("CleanText = %q", got)
	}
}

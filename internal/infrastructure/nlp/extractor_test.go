package nlp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"GlobalPulse/internal/config"
	"GlobalPulse/internal/domain"
)

func newNERClient(t *testing.T, body string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := NewClient(config.InferenceConfig{SentimentURL: server.URL, NERURL: server.URL}, nil)
	c.http = server.Client()
	return c
}

func TestExtractEmptyTextSkipsModel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("model must not be called for empty input")
	}))
	t.Cleanup(server.Close)

	c := NewClient(config.InferenceConfig{NERURL: server.URL}, nil)
	c.http = server.Client()

	if got := c.Extract(context.Background(), "  "); !got.Empty() {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestExtractCleansAndGroupsMentions(t *testing.T) {
	t.Parallel()

	c := newNERClient(t, `{"entities": [
		{"word": "elon ##musk", "entity_group": "PER"},
		{"word": "Elon Musk,", "entity_group": "PER"},
		{"word": "El", "entity_group": "ORG"},
		{"word": "apple", "entity_group": "ORG"},
		{"word": "california", "entity_group": "LOC"},
		{"word": "iphone", "entity_group": "MISC"},
		{"word": "News", "entity_group": "MISC"},
		{"word": "Report!", "entity_group": "MISC"},
		{"word": "x", "entity_group": "PER"},
		{"word": "weird", "entity_group": "DATE"}
	]}`)

	got := c.Extract(context.Background(), "headline text")

	want := domain.EntityMap{
		domain.EntityPerson:       {"Elon Musk"},
		domain.EntityOrganization: {"Apple"},
		domain.EntityLocation:     {"California"},
		domain.EntityProduct:      {"Iphone"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractModelFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	c := NewClient(config.InferenceConfig{NERURL: server.URL}, nil)
	c.http = server.Client()

	if got := c.Extract(context.Background(), "headline"); !got.Empty() {
		t.Fatalf("expected empty map on failure, got %v", got)
	}
}

func TestCleanEntity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "elon ##musk", want: "Elon Musk"},
		{in: "  Apple, ", want: "Apple"},
		{in: "!!x!!", want: ""},
		{in: "E", want: ""},
		{in: "", want: ""},
		{in: "NEW YORK", want: "New York"},
	}

	for _, tc := range cases {
		if got := CleanEntity(tc.in); got != tc.want {
			t.Fatalf("CleanEntity(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

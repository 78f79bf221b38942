package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/domain"
)

func TestDecodeStructuredSummary(t *testing.T) {
	t.Parallel()

	raw := `{"summary":"Busy day.","categories":[{"categoryId":"economy","title":"Economy","content":"Markets up."}]}`

	summary, err := DecodeStructuredSummary(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if summary.Summary != "Busy day." {
		t.Fatalf("unexpected summary: %q", summary.Summary)
	}
	if len(summary.Categories) != 1 || summary.Categories[0].CategoryID != "economy" {
		t.Fatalf("unexpected categories: %+v", summary.Categories)
	}
}

func TestDecodeStructuredSummaryStripsCodeFence(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"summary\":\"Fenced.\",\"categories\":[]}\n```"

	summary, err := DecodeStructuredSummary(raw)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if summary.Summary != "Fenced." {
		t.Fatalf("unexpected summary: %q", summary.Summary)
	}
	if summary.Categories == nil || len(summary.Categories) != 0 {
		t.Fatalf("expected empty category list, got %+v", summary.Categories)
	}
}

func TestDecodeStructuredSummaryFailsClosed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":           "here is your summary: things happened",
		"empty summary":      `{"summary":"  ","categories":[]}`,
		"missing categories": `{"summary":"ok"}`,
		"unknown field":      `{"summary":"ok","categories":[],"extra":1}`,
		"missing categoryId": `{"summary":"ok","categories":[{"title":"T","content":"C"}]}`,
	}

	for name, raw := range cases {
		if _, err := DecodeStructuredSummary(raw); !errors.Is(err, domain.ErrMalformedSummary) {
			t.Fatalf("%s: expected ErrMalformedSummary, got %v", name, err)
		}
	}
}

func TestClaudeClientSummarize(t *testing.T) {
	t.Parallel()

	var captured struct {
		Model    string `json:"model"`
		System   string `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("x-api-key") != "key-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"summary\":\"Done.\",\"categories\":[]}"}]}`))
	}))
	defer server.Close()

	client := NewClaudeClient(config.ClaudeConfig{
		Endpoint: server.URL,
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "key-1",
	})

	posts := []domain.Post{
		{SourceName: "Alpha News", Content: "Something happened."},
	}
	categories := []domain.Category{{ID: "economy", Title: "Economy"}}
	prompts := domain.PromptSet{
		SystemPrompt: "You are an editor.",
		UserPrompt:   "Posts:\n{{newsContent}}\nTaxonomy:\n{{categories}}\nContext:\n{{previousSummaries}}",
	}

	summary, err := client.Summarize(context.Background(), posts, categories, prompts, nil)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	if summary.Summary != "Done." {
		t.Fatalf("unexpected summary: %q", summary.Summary)
	}
	if captured.Model != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected model: %s", captured.Model)
	}
	if captured.System != "You are an editor." {
		t.Fatalf("system prompt not forwarded: %q", captured.System)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("expected a single message, got %d", len(captured.Messages))
	}

	prompt := captured.Messages[0].Content
	if !strings.Contains(prompt, "[Alpha News] Something happened.") {
		t.Fatalf("posts must be tagged by source name, got %q", prompt)
	}
	if !strings.Contains(prompt, "- economy: Economy") {
		t.Fatalf("taxonomy must be substituted, got %q", prompt)
	}
	if !strings.Contains(prompt, "(none)") {
		t.Fatalf("empty prior context must render as (none), got %q", prompt)
	}
}

func TestClaudeClientMalformedResponseIsFatal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"no json here"}]}`))
	}))
	defer server.Close()

	client := NewClaudeClient(config.ClaudeConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})

	_, err := client.Summarize(context.Background(), nil, nil, domain.PromptSet{UserPrompt: "{{newsContent}}"}, nil)
	if !errors.Is(err, domain.ErrMalformedSummary) {
		t.Fatalf("expected ErrMalformedSummary, got %v", err)
	}
}

func TestClaudeClientAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClaudeClient(config.ClaudeConfig{Endpoint: server.URL, Model: "m", APIKey: "k"})

	start := time.Now()
	_, err := client.Summarize(context.Background(), nil, nil, domain.PromptSet{UserPrompt: "x"}, nil)
	if err == nil {
		t.Fatal("expected API error to propagate")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("error path must not hang")
	}
}

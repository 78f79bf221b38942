package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

const (
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 4000
)

// ClaudeClient implements ports.SummaryGenerator against the Anthropic
// messages API.
type ClaudeClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.SummaryGenerator = (*ClaudeClient)(nil)

// NewClaudeClient builds a client from configuration.
func NewClaudeClient(cfg config.ClaudeConfig) *ClaudeClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ClaudeClient{
		endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Summarize performs a single generation call and validates the returned
// structure. Any shape deviation is fatal.
func (c *ClaudeClient) Summarize(ctx context.Context, posts []domain.Post, categories []domain.Category, prompts domain.PromptSet, prior []domain.StructuredSummary) (domain.StructuredSummary, error) {
	if c.apiKey == "" || c.model == "" {
		return domain.StructuredSummary{}, fmt.Errorf("claude client misconfigured")
	}

	prompt := buildPrompt(prompts.UserPrompt, posts, categories, prior)

	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     prompts.SystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return domain.StructuredSummary{}, fmt.Errorf("marshal claude payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+messagesPath, bytes.NewReader(body))
	if err != nil {
		return domain.StructuredSummary{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.StructuredSummary{}, fmt.Errorf("generate summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.StructuredSummary{}, fmt.Errorf("claude error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.StructuredSummary{}, fmt.Errorf("decode claude response: %w", err)
	}

	text := ""
	for _, block := range envelope.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return domain.StructuredSummary{}, fmt.Errorf("%w: response carries no text block", domain.ErrMalformedSummary)
	}

	return DecodeStructuredSummary(text)
}

// DecodeStructuredSummary parses the model's text output into a structured
// summary. Validation fails closed: an unexpected shape is an error, never a
// best-effort result.
func DecodeStructuredSummary(text string) (domain.StructuredSummary, error) {
	raw := stripCodeFence(text)

	var payload struct {
		Summary    string `json:"summary"`
		Categories []struct {
			CategoryID string `json:"categoryId"`
			Title      string `json:"title"`
			Content    string `json:"content"`
		} `json:"categories"`
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return domain.StructuredSummary{}, fmt.Errorf("%w: %v", domain.ErrMalformedSummary, err)
	}

	if strings.TrimSpace(payload.Summary) == "" {
		return domain.StructuredSummary{}, fmt.Errorf("%w: summary text is empty", domain.ErrMalformedSummary)
	}
	if payload.Categories == nil {
		return domain.StructuredSummary{}, fmt.Errorf("%w: categories list is missing", domain.ErrMalformedSummary)
	}

	summary := domain.StructuredSummary{
		Summary:    strings.TrimSpace(payload.Summary),
		Categories: make([]domain.CategorySection, 0, len(payload.Categories)),
	}
	for _, cat := range payload.Categories {
		if cat.CategoryID == "" {
			return domain.StructuredSummary{}, fmt.Errorf("%w: category entry misses categoryId", domain.ErrMalformedSummary)
		}
		summary.Categories = append(summary.Categories, domain.CategorySection{
			CategoryID: cat.CategoryID,
			Title:      cat.Title,
			Content:    cat.Content,
		})
	}

	return summary, nil
}

func buildPrompt(template string, posts []domain.Post, categories []domain.Category, prior []domain.StructuredSummary) string {
	tagged := make([]string, 0, len(posts))
	for _, post := range posts {
		tagged = append(tagged, fmt.Sprintf("[%s] %s", post.SourceName, post.Content))
	}

	taxonomy := make([]string, 0, len(categories))
	for _, cat := range categories {
		taxonomy = append(taxonomy, fmt.Sprintf("- %s: %s", cat.ID, cat.Title))
	}

	previous := make([]string, 0, len(prior))
	for _, s := range prior {
		previous = append(previous, s.Summary)
	}
	if len(previous) == 0 {
		previous = append(previous, "(none)")
	}

	replacer := strings.NewReplacer(
		"{{newsContent}}", strings.Join(tagged, "\n\n---\n\n"),
		"{{categories}}", strings.Join(taxonomy, "\n"),
		"{{previousSummaries}}", strings.Join(previous, "\n\n---\n\n"),
	)
	return replacer.Replace(template)
}

// stripCodeFence removes an optional markdown fence around the JSON payload.
// Anything beyond that single, well-defined allowance is left to the strict
// decoder to reject.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

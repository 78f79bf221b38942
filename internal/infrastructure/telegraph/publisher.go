package telegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

const defaultEndpoint = "https://api.telegra.ph"

// Publisher uploads long-form articles through the createPage API.
type Publisher struct {
	endpoint    string
	accessToken string
	authorURL   string
	client      *http.Client
}

var _ ports.ArticlePublisher = (*Publisher)(nil)

// NewPublisher builds a publisher from configuration.
func NewPublisher(cfg config.TelegraphConfig) *Publisher {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Publisher{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		accessToken: cfg.AccessToken,
		authorURL:   cfg.AuthorURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish creates the article page and returns its public URL. Every failure
// mode raises; there is no partial result.
func (p *Publisher) Publish(ctx context.Context, article domain.Article) (string, error) {
	if p.accessToken == "" {
		return "", fmt.Errorf("telegraph publisher misconfigured")
	}

	content, err := json.Marshal(article.Content)
	if err != nil {
		return "", fmt.Errorf("marshal article content: %w", err)
	}

	form := url.Values{}
	form.Set("access_token", p.accessToken)
	form.Set("title", article.Title)
	form.Set("author_name", article.AuthorName)
	form.Set("content", string(content))
	form.Set("return_content", "false")
	if p.authorURL != "" {
		form.Set("author_url", p.authorURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/createPage", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegraph returned %s", resp.Status)
	}

	var envelope struct {
		OK     bool `json:"ok"`
		Result struct {
			Path string `json:"path"`
			URL  string `json:"url"`
		} `json:"result"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if !envelope.OK {
		msg := envelope.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", fmt.Errorf("telegraph rejected article: %s", msg)
	}
	if envelope.Result.URL == "" {
		return "", fmt.Errorf("telegraph response misses article url")
	}

	return envelope.Result.URL, nil
}

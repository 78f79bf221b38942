package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/ports"
)

const defaultEndpoint = "https://api.telegram.org"

// Publisher sends digest posts to a channel via the bot API.
type Publisher struct {
	endpoint string
	botToken string
	client   *http.Client
}

var _ ports.ShortPostPublisher = (*Publisher)(nil)

// NewPublisher registers the bot token and API endpoint.
func NewPublisher(cfg config.TelegramConfig) *Publisher {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Publisher{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		botToken: cfg.BotToken,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish posts a Markdown message to the channel. A transport failure is an
// error; an API-level rejection is reported as ok=false.
func (p *Publisher) Publish(ctx context.Context, text, channelID string) (bool, error) {
	if p.botToken == "" || p.client == nil {
		return false, fmt.Errorf("telegram publisher misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", p.endpoint, p.botToken)
	form := url.Values{}
	form.Set("chat_id", channelID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	if !envelope.OK {
		return false, nil
	}

	return true, nil
}

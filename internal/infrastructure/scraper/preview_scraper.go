package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/source"
)

const defaultPreviewBaseURL = "https://t.me"

// PreviewScraper collects channel posts from the public web preview pages
// (the /s/<channel> HTML view). It needs no API credentials, which keeps the
// collector independent of messaging-API session state.
type PreviewScraper struct {
	client  *http.Client
	baseURL string
}

var _ source.Strategy = (*PreviewScraper)(nil)

// NewPreviewScraper wires an HTTP client; baseURL defaults to the public host.
func NewPreviewScraper(client *http.Client, baseURL string) *PreviewScraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultPreviewBaseURL
	}
	return &PreviewScraper{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name identifies the strategy inside the registry.
func (p *PreviewScraper) Name() string {
	return "preview"
}

// Collect fetches the channel preview page and extracts posts newer than the
// hours-back cutoff.
func (p *PreviewScraper) Collect(ctx context.Context, req source.Request) ([]domain.Post, error) {
	if req.Channel.ID == "" {
		return nil, fmt.Errorf("channel id is empty")
	}

	pageURL := fmt.Sprintf("%s/s/%s", p.baseURL, req.Channel.ID)
	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", req.Channel.ID, err)
	}

	cutoff := time.Now().UTC().Add(-time.Duration(req.HoursBack) * time.Hour)
	posts := extractPosts(doc, req.Channel, cutoff)

	// Preview pages list oldest first; newest-first suits the pipeline.
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}

	if req.Limit > 0 && len(posts) > req.Limit {
		posts = posts[:req.Limit]
	}

	return posts, nil
}

func (p *PreviewScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ChannelDigest/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("preview host returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractPosts(doc *goquery.Document, channel domain.Channel, cutoff time.Time) []domain.Post {
	var posts []domain.Post

	doc.Find(".tgme_widget_message").Each(func(i int, msg *goquery.Selection) {
		post, ok := parseMessage(msg, channel)
		if !ok {
			return
		}
		if post.Timestamp.Before(cutoff) {
			return
		}
		posts = append(posts, post)
	})

	return posts
}

func parseMessage(msg *goquery.Selection, channel domain.Channel) (domain.Post, bool) {
	ref, exists := msg.Attr("data-post")
	if !exists {
		return domain.Post{}, false
	}

	seq, err := sequenceFromRef(ref)
	if err != nil {
		return domain.Post{}, false
	}

	content := strings.TrimSpace(msg.Find(".tgme_widget_message_text").First().Text())
	if content == "" {
		return domain.Post{}, false
	}

	stamp, exists := msg.Find("time[datetime]").First().Attr("datetime")
	if !exists {
		return domain.Post{}, false
	}
	timestamp, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return domain.Post{}, false
	}

	return domain.Post{
		ID:             domain.PostID(channel.ID, seq),
		SourceID:       channel.ID,
		SourceName:     channel.Name,
		Content:        content,
		Timestamp:      timestamp.UTC(),
		SequenceNumber: seq,
		Category:       channel.Category,
		Processed:      false,
		CreatedAt:      time.Now().UTC(),
	}, true
}

// sequenceFromRef parses the "<channel>/<number>" message reference.
func sequenceFromRef(ref string) (int64, error) {
	idx := strings.LastIndex(ref, "/")
	if idx < 0 || idx == len(ref)-1 {
		return 0, fmt.Errorf("malformed message reference %q", ref)
	}
	return strconv.ParseInt(ref[idx+1:], 10, 64)
}

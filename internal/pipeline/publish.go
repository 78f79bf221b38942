package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
	"ChannelDigest/internal/render"
)

// Publisher performs the two external publishes and records progress in the
// store so a retry resumes after the last completed side effect.
type Publisher struct {
	store           ports.ContentStore
	articles        ports.ArticlePublisher
	shortPosts      ports.ShortPostPublisher
	categories      []domain.Category
	authorName      string
	targetChannelID string
	logger          *slog.Logger
}

// NewPublisher constructs the publishing stage.
func NewPublisher(store ports.ContentStore, articles ports.ArticlePublisher, shortPosts ports.ShortPostPublisher, categories []domain.Category, authorName, targetChannelID string, log *slog.Logger) *Publisher {
	return &Publisher{
		store:           store,
		articles:        articles,
		shortPosts:      shortPosts,
		categories:      categories,
		authorName:      authorName,
		targetChannelID: targetChannelID,
		logger:          log,
	}
}

// Run executes the publishing stage.
//
// The article URL is persisted the moment the long-form publish succeeds.
// That checkpoint makes the stage resumable: a retry after a failed short
// post reuses the stored URL instead of publishing the article again.
func (p *Publisher) Run(ctx context.Context, in PublishInput) (PublishOutput, error) {
	summary, err := p.store.FindSummaryByID(ctx, in.SummaryID)
	if err != nil {
		return PublishOutput{}, fmt.Errorf("load summary: %w", err)
	}

	now := time.Now().UTC()

	articleURL := summary.TelegraphURL
	if articleURL == "" {
		article := render.Article(summary.Structured, p.categories, p.authorName, now)

		articleURL, err = p.articles.Publish(ctx, article)
		if err != nil {
			return PublishOutput{}, fmt.Errorf("publish article: %w", err)
		}
		p.info("article published", "summary_id", summary.ID, "url", articleURL)

		if err := p.store.PatchSummary(ctx, summary.ID, domain.SummaryPatch{TelegraphURL: &articleURL}); err != nil {
			return PublishOutput{}, fmt.Errorf("checkpoint article url: %w", err)
		}
	} else {
		p.info("article already published, resuming", "summary_id", summary.ID, "url", articleURL)
	}

	text := render.ShortPost(summary.Structured.Summary, articleURL, now)

	ok, err := p.shortPosts.Publish(ctx, text, p.targetChannelID)
	if err != nil {
		return PublishOutput{}, fmt.Errorf("publish short post: %w", err)
	}
	if !ok {
		return PublishOutput{}, fmt.Errorf("channel %s: %w", p.targetChannelID, domain.ErrPublishRejected)
	}

	p.info("short post published", "summary_id", summary.ID, "channel", p.targetChannelID)

	publishedAt := time.Now().UTC()
	published := true
	patch := domain.SummaryPatch{Published: &published, PublishedAt: &publishedAt}
	if err := p.store.PatchSummary(ctx, summary.ID, patch); err != nil {
		return PublishOutput{}, fmt.Errorf("record publication: %w", err)
	}

	if err := p.store.MarkProcessed(ctx, summary.SourcePostIDs); err != nil {
		return PublishOutput{}, fmt.Errorf("mark posts processed: %w", err)
	}

	p.info("marked source posts processed", "count", len(summary.SourcePostIDs))

	return PublishOutput{
		ExecutionID:  in.ExecutionID,
		SummaryID:    summary.ID,
		Published:    true,
		PublishedAt:  publishedAt.Format(time.RFC3339),
		TelegraphURL: articleURL,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Status:       StatusSuccess,
	}, nil
}

func (p *Publisher) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

package ports

import (
	"context"
	"time"

	"ChannelDigest/internal/domain"
)

// NewsSource pulls recent posts from a single channel. Implementations fail
// per channel; the collector decides whether to continue with other channels.
type NewsSource interface {
	Fetch(ctx context.Context, channel domain.Channel, hoursBack int) ([]domain.Post, error)
}

// SummaryGenerator produces one categorized digest from a batch of posts.
// It is invoked exactly once per pipeline run and must fail on output that
// does not match the structured summary shape.
type SummaryGenerator interface {
	Summarize(ctx context.Context, posts []domain.Post, categories []domain.Category, prompts domain.PromptSet, prior []domain.StructuredSummary) (domain.StructuredSummary, error)
}

// ShortPostPublisher delivers the condensed digest to a channel. A false
// result means the channel rejected the post; the caller treats it as fatal.
type ShortPostPublisher interface {
	Publish(ctx context.Context, text, channelID string) (bool, error)
}

// ArticlePublisher uploads a long-form article and returns its public URL.
type ArticlePublisher interface {
	Publish(ctx context.Context, article domain.Article) (string, error)
}

// ContentStore is the single owner of persisted posts and summaries.
// All methods propagate I/O failures unchanged; callers own retry policy.
type ContentStore interface {
	// UpsertPosts inserts posts that are not yet stored and leaves existing
	// records untouched, preserving processed flags set by prior runs.
	UpsertPosts(ctx context.Context, posts []domain.Post) error

	// FindUnprocessed returns unprocessed posts whose timestamp falls within
	// the age window, newest first.
	FindUnprocessed(ctx context.Context, maxAge time.Duration) ([]domain.Post, error)

	// FindByIDs returns the posts matching the given ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Post, error)

	// MarkProcessed flips processed to true for all matching posts. Unknown
	// ids are ignored.
	MarkProcessed(ctx context.Context, ids []string) error

	UpsertSummary(ctx context.Context, summary domain.ProcessedSummary) error
	PatchSummary(ctx context.Context, id string, patch domain.SummaryPatch) error

	// FindSummaryByID returns domain.ErrSummaryNotFound for unknown ids.
	FindSummaryByID(ctx context.Context, id string) (domain.ProcessedSummary, error)

	// RecentPublished returns published summaries ordered by publication
	// time descending, at most limit records.
	RecentPublished(ctx context.Context, limit int) ([]domain.ProcessedSummary, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

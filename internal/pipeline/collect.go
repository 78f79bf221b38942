package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// Collector gathers candidate posts from the configured channels, persists
// them idempotently, and unions them with unprocessed posts left behind by
// earlier failed runs.
type Collector struct {
	source   ports.NewsSource
	store    ports.ContentStore
	channels []domain.Channel
	settings config.CollectorConfig
	logger   *slog.Logger
}

// NewCollector constructs the collection stage.
func NewCollector(source ports.NewsSource, store ports.ContentStore, channels []domain.Channel, settings config.CollectorConfig, log *slog.Logger) *Collector {
	return &Collector{
		source:   source,
		store:    store,
		channels: channels,
		settings: settings,
		logger:   log,
	}
}

// Run executes the collection stage. One failing channel is logged and
// skipped; collection continues with the remaining channels.
func (c *Collector) Run(ctx context.Context, in CollectInput) (CollectOutput, error) {
	hoursBack := c.settings.HoursBack
	if in.HoursBackOverride > 0 {
		hoursBack = in.HoursBackOverride
	}

	c.info("collecting posts", "execution_id", in.ExecutionID, "channels", len(c.channels), "hours_back", hoursBack)

	var fetched []domain.Post
	for _, channel := range c.channels {
		if !channel.Enabled {
			continue
		}

		posts, err := c.source.Fetch(ctx, channel, hoursBack)
		if err != nil {
			c.warn("channel collection failed, skipping", "channel", channel.ID, "error", err)
			continue
		}
		fetched = append(fetched, posts...)
	}

	c.info("collected fresh posts", "count", len(fetched))

	if len(fetched) > 0 {
		if err := c.store.UpsertPosts(ctx, fetched); err != nil {
			return CollectOutput{}, fmt.Errorf("persist collected posts: %w", err)
		}

		ids := make([]string, len(fetched))
		for i, post := range fetched {
			ids[i] = post.ID
		}

		// Re-read the fetched ids through the store so the persisted
		// processed flag wins over the in-memory copy. A post handled by an
		// earlier run stays out of the union even while it is still inside
		// the collection window.
		stored, err := c.store.FindByIDs(ctx, ids)
		if err != nil {
			return CollectOutput{}, fmt.Errorf("reload collected posts: %w", err)
		}
		fetched = fetched[:0]
		for _, post := range stored {
			if post.Processed {
				continue
			}
			fetched = append(fetched, post)
		}
	}

	unprocessed, err := c.store.FindUnprocessed(ctx, time.Duration(hoursBack)*time.Hour)
	if err != nil {
		return CollectOutput{}, fmt.Errorf("load unprocessed posts: %w", err)
	}

	// Union of fresh and stored posts, deduplicated by id. Ids are stable,
	// so which copy wins is irrelevant.
	seen := make(map[string]struct{}, len(fetched)+len(unprocessed))
	var union []domain.Post
	for _, post := range append(fetched, unprocessed...) {
		if _, ok := seen[post.ID]; ok {
			continue
		}
		seen[post.ID] = struct{}{}
		union = append(union, post)
	}

	c.info("unique posts after union", "count", len(union), "recovered", len(unprocessed))

	output := CollectOutput{
		ExecutionID:   in.ExecutionID,
		HoursBack:     hoursBack,
		MinPostLength: c.settings.MinPostLength,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}

	if len(union) == 0 {
		c.info("no posts to process")
		output.Status = StatusNoPosts
		output.PostIDs = []string{}
		return output, nil
	}

	var postIDs []string
	for _, post := range union {
		if utf8.RuneCountInString(post.Content) < c.settings.MinPostLength {
			continue
		}
		postIDs = append(postIDs, post.ID)
	}

	output.CollectedPostsCount = len(union)
	output.FilteredPostsCount = len(postIDs)

	if len(postIDs) == 0 {
		c.info("no posts meet minimum length", "min_length", c.settings.MinPostLength)
		output.Status = StatusNoPosts
		output.PostIDs = []string{}
		return output, nil
	}

	output.Status = StatusSuccess
	output.PostIDs = postIDs
	return output, nil
}

func (c *Collector) info(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

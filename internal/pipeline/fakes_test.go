package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// fakeStore is an in-memory ports.ContentStore with the same idempotency
// semantics as the Postgres implementation.
type fakeStore struct {
	posts     map[string]domain.Post
	summaries map[string]domain.ProcessedSummary

	upsertPostCalls int
	failFindByIDs   error
}

var _ ports.ContentStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		posts:     map[string]domain.Post{},
		summaries: map[string]domain.ProcessedSummary{},
	}
}

func (f *fakeStore) UpsertPosts(_ context.Context, posts []domain.Post) error {
	f.upsertPostCalls++
	for _, post := range posts {
		if _, exists := f.posts[post.ID]; exists {
			continue
		}
		f.posts[post.ID] = post
	}
	return nil
}

func (f *fakeStore) FindUnprocessed(_ context.Context, maxAge time.Duration) ([]domain.Post, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	var posts []domain.Post
	for _, post := range f.posts {
		if post.Processed || post.Timestamp.Before(cutoff) {
			continue
		}
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})
	return posts, nil
}

func (f *fakeStore) FindByIDs(_ context.Context, ids []string) ([]domain.Post, error) {
	if f.failFindByIDs != nil {
		return nil, f.failFindByIDs
	}

	var posts []domain.Post
	for _, id := range ids {
		if post, ok := f.posts[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, ids []string) error {
	for _, id := range ids {
		if post, ok := f.posts[id]; ok {
			post.Processed = true
			f.posts[id] = post
		}
	}
	return nil
}

func (f *fakeStore) UpsertSummary(_ context.Context, summary domain.ProcessedSummary) error {
	f.summaries[summary.ID] = summary
	return nil
}

func (f *fakeStore) PatchSummary(_ context.Context, id string, patch domain.SummaryPatch) error {
	summary, ok := f.summaries[id]
	if !ok {
		return fmt.Errorf("summary %s: %w", id, domain.ErrSummaryNotFound)
	}

	if patch.TelegraphURL != nil {
		summary.TelegraphURL = *patch.TelegraphURL
	}
	if patch.Published != nil {
		summary.Published = *patch.Published
	}
	if patch.PublishedAt != nil {
		summary.PublishedAt = patch.PublishedAt
	}
	f.summaries[id] = summary
	return nil
}

func (f *fakeStore) FindSummaryByID(_ context.Context, id string) (domain.ProcessedSummary, error) {
	summary, ok := f.summaries[id]
	if !ok {
		return domain.ProcessedSummary{}, fmt.Errorf("summary %s: %w", id, domain.ErrSummaryNotFound)
	}
	return summary, nil
}

func (f *fakeStore) RecentPublished(_ context.Context, limit int) ([]domain.ProcessedSummary, error) {
	var published []domain.ProcessedSummary
	for _, summary := range f.summaries {
		if summary.Published {
			published = append(published, summary)
		}
	}
	sort.Slice(published, func(i, j int) bool {
		return published[i].PublishedAt.After(*published[j].PublishedAt)
	})
	if len(published) > limit {
		published = published[:limit]
	}
	return published, nil
}

func (f *fakeStore) singleSummary() (domain.ProcessedSummary, bool) {
	for _, summary := range f.summaries {
		return summary, true
	}
	return domain.ProcessedSummary{}, false
}

// fakeSource serves canned posts per channel and fails for channels listed
// in failing.
type fakeSource struct {
	byChannel map[string][]domain.Post
	failing   map[string]bool
}

var _ ports.NewsSource = (*fakeSource)(nil)

func (f *fakeSource) Fetch(_ context.Context, channel domain.Channel, _ int) ([]domain.Post, error) {
	if f.failing[channel.ID] {
		return nil, fmt.Errorf("channel %s unavailable", channel.ID)
	}
	return f.byChannel[channel.ID], nil
}

// fakeGenerator returns a fixed structured summary or error.
type fakeGenerator struct {
	result domain.StructuredSummary
	err    error
	calls  int
}

var _ ports.SummaryGenerator = (*fakeGenerator)(nil)

func (f *fakeGenerator) Summarize(_ context.Context, _ []domain.Post, _ []domain.Category, _ domain.PromptSet, _ []domain.StructuredSummary) (domain.StructuredSummary, error) {
	f.calls++
	if f.err != nil {
		return domain.StructuredSummary{}, f.err
	}
	return f.result, nil
}

// fakeArticlePublisher records its calls and returns a fixed URL.
type fakeArticlePublisher struct {
	url   string
	err   error
	calls int
}

var _ ports.ArticlePublisher = (*fakeArticlePublisher)(nil)

func (f *fakeArticlePublisher) Publish(_ context.Context, _ domain.Article) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// fakeShortPublisher records the delivered text and answers with ok/err.
type fakeShortPublisher struct {
	ok       bool
	err      error
	calls    int
	lastText string
}

var _ ports.ShortPostPublisher = (*fakeShortPublisher)(nil)

func (f *fakeShortPublisher) Publish(_ context.Context, text, _ string) (bool, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return false, f.err
	}
	return f.ok, nil
}

func makePost(channelID string, seq int64, content string, age time.Duration) domain.Post {
	now := time.Now().UTC()
	return domain.Post{
		ID:             domain.PostID(channelID, seq),
		SourceID:       channelID,
		SourceName:     channelID,
		Content:        content,
		Timestamp:      now.Add(-age),
		SequenceNumber: seq,
		CreatedAt:      now,
	}
}

func enabledChannel(id string) domain.Channel {
	return domain.Channel{ID: id, Name: id, Enabled: true}
}

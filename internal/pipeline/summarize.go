package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// priorSummaryContext bounds how many published summaries are handed to the
// generator as style and fact context.
const priorSummaryContext = 3

// Summarizer turns a batch of stored posts into one categorized summary and
// persists it unpublished.
type Summarizer struct {
	store      ports.ContentStore
	generator  ports.SummaryGenerator
	categories []domain.Category
	prompts    domain.PromptSet
	logger     *slog.Logger
}

// NewSummarizer constructs the summarization stage.
func NewSummarizer(store ports.ContentStore, generator ports.SummaryGenerator, categories []domain.Category, prompts domain.PromptSet, log *slog.Logger) *Summarizer {
	return &Summarizer{
		store:      store,
		generator:  generator,
		categories: categories,
		prompts:    prompts,
		logger:     log,
	}
}

// Run executes the summarization stage. Post ids that resolve to nothing are
// fatal; the anomaly must surface, not be silently tolerated.
func (s *Summarizer) Run(ctx context.Context, in SummarizeInput) (SummarizeOutput, error) {
	posts, err := s.store.FindByIDs(ctx, in.PostIDs)
	if err != nil {
		return SummarizeOutput{}, fmt.Errorf("load posts: %w", err)
	}
	if len(posts) == 0 {
		return SummarizeOutput{}, fmt.Errorf("execution %s: %w", in.ExecutionID, domain.ErrNoPostsFound)
	}

	s.info("loaded posts for summarization", "execution_id", in.ExecutionID, "count", len(posts))

	recent, err := s.store.RecentPublished(ctx, priorSummaryContext)
	if err != nil {
		return SummarizeOutput{}, fmt.Errorf("load prior summaries: %w", err)
	}

	prior := make([]domain.StructuredSummary, 0, len(recent))
	for _, summary := range recent {
		prior = append(prior, summary.Structured)
	}

	structured, err := s.generator.Summarize(ctx, posts, s.categories, s.prompts, prior)
	if err != nil {
		return SummarizeOutput{}, fmt.Errorf("generate summary: %w", err)
	}

	if err := validateStructured(structured); err != nil {
		return SummarizeOutput{}, err
	}

	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	summary := domain.ProcessedSummary{
		ID:            uuid.NewString(),
		Structured:    structured,
		SourcePostIDs: postIDs,
		CreatedAt:     time.Now().UTC(),
		Published:     false,
	}

	if err := s.store.UpsertSummary(ctx, summary); err != nil {
		return SummarizeOutput{}, fmt.Errorf("persist summary: %w", err)
	}

	s.info("persisted summary", "summary_id", summary.ID, "categories", len(structured.Categories))

	return SummarizeOutput{
		ExecutionID: in.ExecutionID,
		SummaryID:   summary.ID,
		PostCount:   len(posts),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Status:      StatusSuccess,
	}, nil
}

func validateStructured(summary domain.StructuredSummary) error {
	if strings.TrimSpace(summary.Summary) == "" {
		return fmt.Errorf("%w: summary text is empty", domain.ErrMalformedSummary)
	}
	if summary.Categories == nil {
		return fmt.Errorf("%w: categories list is missing", domain.ErrMalformedSummary)
	}
	return nil
}

func (s *Summarizer) info(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

package domain

import (
	"fmt"
	"time"
)

// Post is a single message collected from a channel.
type Post struct {
	ID             string
	SourceID       string
	SourceName     string
	Content        string
	Timestamp      time.Time
	SequenceNumber int64
	Category       string
	Processed      bool
	CreatedAt      time.Time
}

// PostID derives the stable post identity from its source and sequence number.
// Re-collecting the same message always produces the same id, which keeps
// ingestion idempotent.
func PostID(sourceID string, sequenceNumber int64) string {
	return fmt.Sprintf("%s_%d", sourceID, sequenceNumber)
}

// Channel describes one configured message source.
type Channel struct {
	ID       string
	Name     string
	Enabled  bool
	Category string
	Source   string
}

// Category is one entry of the digest taxonomy.
type Category struct {
	ID    string
	Title string
	Icon  string
}

// PromptSet carries the system and user prompt templates for one generation task.
type PromptSet struct {
	SystemPrompt string
	UserPrompt   string
}

// CategorySection is one categorized block of a structured summary.
type CategorySection struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// StructuredSummary is the categorized digest produced by the generative service.
type StructuredSummary struct {
	Summary    string            `json:"summary"`
	Categories []CategorySection `json:"categories"`
}

// ProcessedSummary is a persisted digest together with its publication state.
// SourcePostIDs is immutable once the record is created; Published moves
// false to true at most once.
type ProcessedSummary struct {
	ID            string
	Structured    StructuredSummary
	TelegraphURL  string
	SourcePostIDs []string
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// SummaryPatch describes a partial update of a stored summary. Nil fields
// are left untouched.
type SummaryPatch struct {
	TelegraphURL *string
	Published    *bool
	PublishedAt  *time.Time
}

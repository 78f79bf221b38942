package pipeline

// Stage statuses. An empty collection result is a distinct terminal state,
// not an error.
const (
	StatusSuccess = "success"
	StatusNoPosts = "no_posts"
)

// Stage inputs and outputs are consumed by an external scheduler or
// orchestrator; the JSON field names are a stable contract.

// CollectInput starts a pipeline run.
type CollectInput struct {
	ExecutionID       string `json:"executionId"`
	TriggeredAt       string `json:"triggeredAt"`
	HoursBackOverride int    `json:"hoursBackOverride,omitempty"`
}

// CollectOutput reports what the collector gathered and filtered.
type CollectOutput struct {
	ExecutionID         string   `json:"executionId"`
	CollectedPostsCount int      `json:"collectedPostsCount"`
	FilteredPostsCount  int      `json:"filteredPostsCount"`
	PostIDs             []string `json:"postIds"`
	HoursBack           int      `json:"hoursBack"`
	MinPostLength       int      `json:"minPostLength"`
	Timestamp           string   `json:"timestamp"`
	Status              string   `json:"status"`
}

// SummarizeInput names the posts to summarize, enabling a resumed run
// without re-collecting.
type SummarizeInput struct {
	ExecutionID string   `json:"executionId"`
	PostIDs     []string `json:"postIds"`
	HoursBack   int      `json:"hoursBack"`
	Timestamp   string   `json:"timestamp"`
}

// SummarizeOutput reports the persisted, not yet published summary.
type SummarizeOutput struct {
	ExecutionID string `json:"executionId"`
	SummaryID   string `json:"summaryId"`
	PostCount   int    `json:"postCount"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}

// PublishInput names the summary to publish.
type PublishInput struct {
	ExecutionID string `json:"executionId"`
	SummaryID   string `json:"summaryId"`
	Timestamp   string `json:"timestamp"`
}

// PublishOutput reports a completed publication.
type PublishOutput struct {
	ExecutionID  string `json:"executionId"`
	SummaryID    string `json:"summaryId"`
	Published    bool   `json:"published"`
	PublishedAt  string `json:"publishedAt"`
	TelegraphURL string `json:"telegraphUrl"`
	Timestamp    string `json:"timestamp"`
	Status       string `json:"status"`
}

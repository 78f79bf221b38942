package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Coordinator sequences the three stages and threads one execution identity
// through all of their inputs and outputs.
type Coordinator struct {
	collector  *Collector
	summarizer *Summarizer
	publisher  *Publisher
	logger     *slog.Logger
}

// NewCoordinator wires the stages.
func NewCoordinator(collector *Collector, summarizer *Summarizer, publisher *Publisher, log *slog.Logger) *Coordinator {
	return &Coordinator{
		collector:  collector,
		summarizer: summarizer,
		publisher:  publisher,
		logger:     log,
	}
}

// RunReport captures one pipeline run end to end. Summarize and Publish are
// nil when the run terminated at collection.
type RunReport struct {
	ExecutionID string           `json:"executionId"`
	Status      string           `json:"status"`
	Collect     CollectOutput    `json:"collect"`
	Summarize   *SummarizeOutput `json:"summarize,omitempty"`
	Publish     *PublishOutput   `json:"publish,omitempty"`
}

// Run executes one full pipeline pass. An empty collection result terminates
// the run successfully; any stage failure aborts the remaining stages with no
// cross-stage compensation.
func (c *Coordinator) Run(ctx context.Context) (RunReport, error) {
	executionID := uuid.NewString()
	c.info("pipeline run starting", "execution_id", executionID)

	collected, err := c.collector.Run(ctx, CollectInput{
		ExecutionID: executionID,
		TriggeredAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return RunReport{ExecutionID: executionID}, fmt.Errorf("collect stage: %w", err)
	}

	report := RunReport{ExecutionID: executionID, Collect: collected}

	if collected.Status == StatusNoPosts {
		c.info("pipeline run finished with no posts", "execution_id", executionID)
		report.Status = StatusNoPosts
		return report, nil
	}

	summarized, err := c.summarizer.Run(ctx, SummarizeInput{
		ExecutionID: executionID,
		PostIDs:     collected.PostIDs,
		HoursBack:   collected.HoursBack,
		Timestamp:   collected.Timestamp,
	})
	if err != nil {
		return report, fmt.Errorf("summarize stage: %w", err)
	}
	report.Summarize = &summarized

	published, err := c.publisher.Run(ctx, PublishInput{
		ExecutionID: executionID,
		SummaryID:   summarized.SummaryID,
		Timestamp:   summarized.Timestamp,
	})
	if err != nil {
		return report, fmt.Errorf("publish stage: %w", err)
	}
	report.Publish = &published

	report.Status = StatusSuccess
	c.info("pipeline run finished", "execution_id", executionID, "summary_id", published.SummaryID)
	return report, nil
}

func (c *Coordinator) info(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

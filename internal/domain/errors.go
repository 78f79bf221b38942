package domain

import "errors"

// Sentinel errors distinguishing fatal pipeline conditions from transient
// collaborator failures.
var (
	// ErrNoPostsFound is returned when a stage is given post ids that
	// resolve to nothing in the store.
	ErrNoPostsFound = errors.New("no posts found for provided ids")

	// ErrSummaryNotFound is returned when a referenced summary id does not
	// exist in the store.
	ErrSummaryNotFound = errors.New("summary not found")

	// ErrMalformedSummary is returned when the generative service produces
	// output that fails structure validation.
	ErrMalformedSummary = errors.New("malformed structured summary")

	// ErrPublishRejected is returned when the short-post publisher reports
	// an unsuccessful delivery.
	ErrPublishRejected = errors.New("publishing rejected by channel")
)

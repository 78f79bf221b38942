package source

import (
	"context"
	"fmt"
	"time"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// StoredFallback serves posts already persisted in the content store instead
// of reaching the live channel. It is registered under the name "stored" and
// keeps a run going for channels whose live source is unavailable.
type StoredFallback struct {
	store ports.ContentStore
}

var _ Strategy = (*StoredFallback)(nil)

// NewStoredFallback wires the fallback against the content store.
func NewStoredFallback(store ports.ContentStore) *StoredFallback {
	return &StoredFallback{store: store}
}

// Name identifies the strategy in channel configuration.
func (s *StoredFallback) Name() string {
	return "stored"
}

// Collect returns the channel's unprocessed posts within the age window.
func (s *StoredFallback) Collect(ctx context.Context, req Request) ([]domain.Post, error) {
	if s.store == nil {
		return nil, fmt.Errorf("content store is not configured")
	}

	maxAge := time.Duration(req.HoursBack) * time.Hour
	posts, err := s.store.FindUnprocessed(ctx, maxAge)
	if err != nil {
		return nil, fmt.Errorf("load stored posts: %w", err)
	}

	matched := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		if post.SourceID != req.Channel.ID {
			continue
		}
		matched = append(matched, post)
		if req.Limit > 0 && len(matched) >= req.Limit {
			break
		}
	}

	return matched, nil
}

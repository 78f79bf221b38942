package source

import (
	"context"
	"fmt"
	"log/slog"

	"ChannelDigest/internal/domain"
	"ChannelDigest/internal/ports"
)

// StrategySource implements ports.NewsSource via registered strategies,
// resolving the strategy per channel.
type StrategySource struct {
	registry *Registry
	limit    int
	logger   *slog.Logger
}

var _ ports.NewsSource = (*StrategySource)(nil)

// NewStrategySource wires the strategy registry with a per-channel post limit.
func NewStrategySource(reg *Registry, limit int, log *slog.Logger) *StrategySource {
	return &StrategySource{registry: reg, limit: limit, logger: log}
}

// Fetch resolves the channel's strategy and collects recent posts through it.
func (s *StrategySource) Fetch(ctx context.Context, channel domain.Channel, hoursBack int) ([]domain.Post, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("source registry is not configured")
	}

	strategy, err := s.registry.Resolve(channel.Source)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channel.ID, err)
	}

	s.debug("collect channel", "channel", channel.ID, "strategy", strategy.Name(), "hours_back", hoursBack)

	posts, err := strategy.Collect(ctx, Request{
		Channel:   channel,
		HoursBack: hoursBack,
		Limit:     s.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("collect channel %s: %w", channel.ID, err)
	}

	s.debug("channel produced posts", "channel", channel.ID, "count", len(posts))
	return posts, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

package source

import (
	"context"
	"fmt"

	"ChannelDigest/internal/domain"
)

// Request carries all parameters required to collect from one channel.
type Request struct {
	Channel   domain.Channel
	HoursBack int
	Limit     int
}

// Strategy captures a single collection implementation (web preview,
// stored fallback, etc.).
type Strategy interface {
	Name() string
	Collect(ctx context.Context, req Request) ([]domain.Post, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	strategies map[string]Strategy
	fallback   string
}

// NewRegistry builds an empty registry. The first registered strategy
// becomes the default for channels that do not name one.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	if r.fallback == "" {
		r.fallback = strategy.Name()
	}
	r.strategies[strategy.Name()] = strategy
}

// Resolve returns a strategy by name, or the default one for an empty name.
func (r *Registry) Resolve(name string) (Strategy, error) {
	if name == "" {
		name = r.fallback
	}
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("source strategy %s is not registered", name)
}

package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/domain"
)

func collectorSettings() config.CollectorConfig {
	return config.CollectorConfig{HoursBack: 24, MinPostLength: 10}
}

func TestCollectorToleratesFailingChannel(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 20)
	src := &fakeSource{
		byChannel: map[string][]domain.Post{
			"alpha": {makePost("alpha", 1, long, time.Hour), makePost("alpha", 2, long, time.Hour)},
			"gamma": {makePost("gamma", 1, long, time.Hour), makePost("gamma", 2, long, time.Hour)},
		},
		failing: map[string]bool{"beta": true},
	}
	store := newFakeStore()

	channels := []domain.Channel{enabledChannel("alpha"), enabledChannel("beta"), enabledChannel("gamma")}
	collector := NewCollector(src, store, channels, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if out.Status != StatusSuccess {
		t.Fatalf("expected status success, got %s", out.Status)
	}
	if out.CollectedPostsCount != 4 {
		t.Fatalf("expected 4 collected posts, got %d", out.CollectedPostsCount)
	}
	if out.FilteredPostsCount != 4 {
		t.Fatalf("expected 4 filtered posts, got %d", out.FilteredPostsCount)
	}
	if len(out.PostIDs) != 4 {
		t.Fatalf("expected 4 post ids, got %d", len(out.PostIDs))
	}
}

func TestCollectorAllPostsTooShort(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		byChannel: map[string][]domain.Post{
			"alpha": {makePost("alpha", 1, "short", time.Hour), makePost("alpha", 2, "tiny", time.Hour)},
		},
	}
	store := newFakeStore()

	collector := NewCollector(src, store, []domain.Channel{enabledChannel("alpha")}, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if out.Status != StatusNoPosts {
		t.Fatalf("expected status no_posts, got %s", out.Status)
	}
	if out.FilteredPostsCount != 0 {
		t.Fatalf("expected 0 filtered posts, got %d", out.FilteredPostsCount)
	}
	if out.CollectedPostsCount != 2 {
		t.Fatalf("expected 2 collected posts, got %d", out.CollectedPostsCount)
	}
	if len(out.PostIDs) != 0 {
		t.Fatalf("expected no post ids, got %v", out.PostIDs)
	}
}

func TestCollectorEmptyUnion(t *testing.T) {
	t.Parallel()

	collector := NewCollector(&fakeSource{}, newFakeStore(), []domain.Channel{enabledChannel("alpha")}, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if out.Status != StatusNoPosts {
		t.Fatalf("expected status no_posts, got %s", out.Status)
	}
	if out.CollectedPostsCount != 0 || out.FilteredPostsCount != 0 {
		t.Fatalf("expected zero counts, got %d/%d", out.CollectedPostsCount, out.FilteredPostsCount)
	}
}

func TestCollectorUnionsStoredUnprocessed(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 20)
	store := newFakeStore()

	// Leftovers of a previously failed run, one overlapping id with the
	// fresh fetch.
	stored := []domain.Post{
		makePost("alpha", 1, long, 2*time.Hour),
		makePost("alpha", 9, long, 3*time.Hour),
	}
	if err := store.UpsertPosts(context.Background(), stored); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	src := &fakeSource{
		byChannel: map[string][]domain.Post{
			"alpha": {makePost("alpha", 1, long, 2*time.Hour), makePost("alpha", 2, long, time.Hour)},
		},
	}

	collector := NewCollector(src, store, []domain.Channel{enabledChannel("alpha")}, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	// |A ∪ B| with one common id: 3 distinct posts.
	if out.CollectedPostsCount != 3 {
		t.Fatalf("expected 3 unique posts, got %d", out.CollectedPostsCount)
	}

	seen := map[string]bool{}
	for _, id := range out.PostIDs {
		if seen[id] {
			t.Fatalf("duplicate post id %s in output", id)
		}
		seen[id] = true
	}
}

func TestCollectorNeverRevivesProcessedPosts(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 20)
	store := newFakeStore()

	done := makePost("alpha", 5, long, time.Hour)
	done.Processed = true
	if err := store.UpsertPosts(context.Background(), []domain.Post{done}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	// The same message shows up again in a fresh fetch.
	src := &fakeSource{
		byChannel: map[string][]domain.Post{
			"alpha": {makePost("alpha", 5, long, time.Hour)},
		},
	}

	collector := NewCollector(src, store, []domain.Channel{enabledChannel("alpha")}, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if !store.posts[done.ID].Processed {
		t.Fatal("re-collection un-marked a processed post")
	}
	for _, id := range out.PostIDs {
		if id == done.ID {
			t.Fatalf("processed post %s re-entered the union", id)
		}
	}
	if out.Status != StatusNoPosts {
		t.Fatalf("only a processed post in the window, expected no_posts, got %s", out.Status)
	}
}

func TestCollectorDropsProcessedButKeepsFresh(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 20)
	store := newFakeStore()

	done := makePost("alpha", 5, long, time.Hour)
	done.Processed = true
	if err := store.UpsertPosts(context.Background(), []domain.Post{done}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	src := &fakeSource{
		byChannel: map[string][]domain.Post{
			"alpha": {makePost("alpha", 5, long, time.Hour), makePost("alpha", 6, long, time.Hour)},
		},
	}

	collector := NewCollector(src, store, []domain.Channel{enabledChannel("alpha")}, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if out.Status != StatusSuccess {
		t.Fatalf("expected status success, got %s", out.Status)
	}
	if len(out.PostIDs) != 1 || out.PostIDs[0] != domain.PostID("alpha", 6) {
		t.Fatalf("expected only the new post, got %v", out.PostIDs)
	}
	if out.CollectedPostsCount != 1 {
		t.Fatalf("expected 1 collected post, got %d", out.CollectedPostsCount)
	}
}

func TestCollectorHoursBackOverride(t *testing.T) {
	t.Parallel()

	collector := NewCollector(&fakeSource{}, newFakeStore(), nil, collectorSettings(), nil)

	out, err := collector.Run(context.Background(), CollectInput{ExecutionID: "run-1", HoursBackOverride: 6})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if out.HoursBack != 6 {
		t.Fatalf("expected hoursBack override 6, got %d", out.HoursBack)
	}
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
)

type mockCache struct {
	patterns []string
}

func (m *mockCache) Get(ctx context.Context, key domain.CacheKey) (*domain.FeedPage, bool) {
	return nil, false
}

func (m *mockCache) Set(ctx context.Context, key domain.CacheKey, page *domain.FeedPage, ttl time.Duration) {
}

func (m *mockCache) InvalidatePattern(ctx context.Context, pattern string) {
	m.patterns = append(m.patterns, pattern)
}

func TestHandleContentEventFlushesAllFeedKeys(t *testing.T) {
	subjects := []string{"post.created", "post.deleted", "post.liked", "video.created", "video.updated"}

	for _, subject := range subjects {
		t.Run(subject, func(t *testing.T) {
			cache := &mockCache{}
			h := NewHandler(cache)

			h.HandleContentEvent(&nats.Msg{Subject: subject})

			if len(cache.patterns) != 1 {
				t.Fatalf("expected one invalidation, got %d", len(cache.patterns))
			}
			// Toujours la purge globale : n'importe quelle mutation peut
			// changer n'importe quelle page.
			if cache.patterns[0] != FeedCachePattern {
				t.Fatalf("expected pattern %q, got %q", FeedCachePattern, cache.patterns[0])
			}
		})
	}
}

func TestHandleContentEventWithHeaders(t *testing.T) {
	cache := &mockCache{}
	h := NewHandler(cache)

	msg := &nats.Msg{
		Subject: "post.created",
		Header: nats.Header{
			"traceparent": []string{"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
		},
	}
	h.HandleContentEvent(msg)

	if len(cache.patterns) != 1 || cache.patterns[0] != FeedCachePattern {
		t.Fatalf("expected a single global invalidation, got %v", cache.patterns)
	}
}

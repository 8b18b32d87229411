package cache

import (
	"context"
	"testing"
	"time"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
)

// Sans client (Redis indisponible au boot), chaque opération doit se
// comporter en no-op silencieux : miss en lecture, rien en écriture,
// jamais de panic ni d'erreur remontée.
func TestNilClientIsANoOpCache(t *testing.T) {
	c := NewRedis(nil)
	ctx := context.Background()
	key := domain.CacheKey{Policy: domain.PolicyLatest, Limit: 20}

	if page, ok := c.Get(ctx, key); ok || page != nil {
		t.Fatal("nil client must always miss")
	}

	c.Set(ctx, key, &domain.FeedPage{Data: []domain.FeedItem{}}, time.Minute)
	c.InvalidatePattern(ctx, "feed:*")

	if c.Ready(ctx) {
		t.Fatal("nil client must not report ready")
	}
}

func TestSetNilPageIsIgnored(t *testing.T) {
	c := NewRedis(nil)
	c.Set(context.Background(), domain.CacheKey{Policy: domain.PolicyLatest, Limit: 20}, nil, time.Minute)
}

func TestPageDTORoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	page := &domain.FeedPage{
		Data: []domain.FeedItem{
			{
				ID:            "v1",
				Type:          domain.TypeVideo,
				Title:         "clip",
				Body:          "a description",
				Category:      "sport",
				VideoURL:      "https://cdn.example/v1",
				Author:        domain.Author{ID: "a", Username: "alice"},
				CreatedAt:     createdAt,
				LikesCount:    4,
				CommentsCount: 2,
				Views:         120,
				Score:         13.7,
			},
		},
		NextCursor: "token",
		HasMore:    true,
	}

	got := fromDTO(toDTO(page))

	if got.NextCursor != page.NextCursor || got.HasMore != page.HasMore {
		t.Fatalf("page metadata lost: %+v", got)
	}
	if len(got.Data) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Data))
	}
	if got.Data[0] != page.Data[0] {
		t.Fatalf("item altered through cache serialization:\nwant %+v\ngot  %+v", page.Data[0], got.Data[0])
	}
}

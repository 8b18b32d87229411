package ports

import (
	"context"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
)

// --- DRIVING (Ce que le moteur expose) ---

// FeedReader expose les quatre policies de lecture. La validation du nom
// de policy et le clamp de la limite appartiennent à l'adapter HTTP ;
// l'exigence d'identité appartient aux policies elles-mêmes.
type FeedReader interface {
	Latest(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error)
	Trending(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error)
	ForYou(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error)
	Following(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error)
}

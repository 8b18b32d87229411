package ports

import (
	"context"
	"time"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
)

// --- DRIVEN (Ce dont le moteur a besoin) ---

// ContentFilter exprime la fenêtre de lecture commune aux deux stores.
// Chaque champ à sa valeur zéro est simplement absent du filtre.
type ContentFilter struct {
	Watermark domain.Watermark // borne keyset, zéro = début du feed
	Category  string           // égalité stricte, vide = toutes
	AuthorIn  []string         // nil = tous les auteurs
	Since     time.Time        // zéro = pas de fenêtre temporelle
}

// PostStore et VideoStore sont volontairement séparés : ce sont deux
// collections indépendantes, interrogées en parallèle avec le même filtre.
// L'ordre de retour est garanti (created_at desc, id desc) et borné à limit.
type PostStore interface {
	FindPosts(ctx context.Context, filter ContentFilter, limit int) ([]domain.FeedItem, error)
}

type VideoStore interface {
	FindVideos(ctx context.Context, filter ContentFilter, limit int) ([]domain.FeedItem, error)
}

// CommentStore fournit les totaux de commentaires en une seule requête
// agrégée par type de contenu. Jamais une requête par item.
type CommentStore interface {
	CountByParent(ctx context.Context, parentType domain.ContentType, parentIDs []string) (map[string]int, error)
}

// FriendGraph lit l'ensemble d'amis d'un utilisateur. Lecture seule
// pour ce moteur.
type FriendGraph interface {
	GetFriends(ctx context.Context, userID string) ([]string, error)
}

// FeedCache est une pure optimisation : aucune méthode ne retourne
// d'erreur. Un backend indisponible devient un miss sur Get et un no-op
// sur Set/InvalidatePattern, le moteur recalcule alors à chaque requête.
type FeedCache interface {
	Get(ctx context.Context, key domain.CacheKey) (*domain.FeedPage, bool)
	Set(ctx context.Context, key domain.CacheKey, page *domain.FeedPage, ttl time.Duration)
	// InvalidatePattern supprime toutes les clés correspondant au motif
	// glob (ex: "feed:*"). Best-effort.
	InvalidatePattern(ctx context.Context, pattern string)
}

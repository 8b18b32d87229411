package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
)

// Redis est le cache de pages de feed. Le client est injecté à la
// construction (nil = mode sans cache assumé) et chaque opération absorbe
// ses propres erreurs : backend indisponible = miss ou no-op, jamais une
// erreur remontée. Les stores de contenu restent la source de vérité.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Ready sonde le backend. Sert au log de démarrage, jamais à conditionner
// les opérations : la disponibilité peut changer à tout moment.
func (c *Redis) Ready(ctx context.Context) bool {
	return c.client != nil && c.client.Ping(ctx).Err() == nil
}

// DTOs de sérialisation : le domaine reste sans tags JSON, la forme
// persistée appartient à l'adapter.
type pageDTO struct {
	Data       []itemDTO `json:"data"`
	NextCursor string    `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

type itemDTO struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Category      string    `json:"category"`
	VideoURL      string    `json:"video_url,omitempty"`
	AuthorID      string    `json:"author_id"`
	Username      string    `json:"username"`
	CreatedAt     time.Time `json:"created_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Views         int64     `json:"views,omitempty"`
	Score         float64   `json:"score,omitempty"`
}

func (c *Redis) Get(ctx context.Context, key domain.CacheKey) (*domain.FeedPage, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		// redis.Nil ou backend indisponible : dans les deux cas, un miss.
		return nil, false
	}
	var dto pageDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		// Entrée corrompue : on la laisse expirer par TTL.
		return nil, false
	}
	return fromDTO(dto), true
}

func (c *Redis) Set(ctx context.Context, key domain.CacheKey, page *domain.FeedPage, ttl time.Duration) {
	if c.client == nil || page == nil {
		return
	}
	raw, err := json.Marshal(toDTO(page))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		slog.Debug("feed cache set failed", "key", key.String(), "error", err)
	}
}

// InvalidatePattern supprime toutes les clés du motif via SCAN + DEL par
// paquets. SCAN plutôt que KEYS : on ne bloque pas Redis sur un gros
// keyspace. Best-effort, le TTL fait office de filet.
func (c *Redis) InvalidatePattern(ctx context.Context, pattern string) {
	if c.client == nil {
		return
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("feed cache invalidation aborted", "pattern", pattern, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("feed cache delete failed", "pattern", pattern, "error", err)
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

func toDTO(page *domain.FeedPage) pageDTO {
	dto := pageDTO{
		Data:       make([]itemDTO, len(page.Data)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i, item := range page.Data {
		dto.Data[i] = itemDTO{
			ID:            item.ID,
			Type:          string(item.Type),
			Title:         item.Title,
			Body:          item.Body,
			Category:      item.Category,
			VideoURL:      item.VideoURL,
			AuthorID:      item.Author.ID,
			Username:      item.Author.Username,
			CreatedAt:     item.CreatedAt,
			LikesCount:    item.LikesCount,
			CommentsCount: item.CommentsCount,
			Views:         item.Views,
			Score:         item.Score,
		}
	}
	return dto
}

func fromDTO(dto pageDTO) *domain.FeedPage {
	page := &domain.FeedPage{
		Data:       make([]domain.FeedItem, len(dto.Data)),
		NextCursor: dto.NextCursor,
		HasMore:    dto.HasMore,
	}
	for i, item := range dto.Data {
		page.Data[i] = domain.FeedItem{
			ID:            item.ID,
			Type:          domain.ContentType(item.Type),
			Title:         item.Title,
			Body:          item.Body,
			Category:      item.Category,
			VideoURL:      item.VideoURL,
			Author:        domain.Author{ID: item.AuthorID, Username: item.Username},
			CreatedAt:     item.CreatedAt,
			LikesCount:    item.LikesCount,
			CommentsCount: item.CommentsCount,
			Views:         item.Views,
			Score:         item.Score,
		}
	}
	return page
}

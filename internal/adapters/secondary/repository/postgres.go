package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
	"github.com/omkarhole/HuddleUp/internal/core/ports"
)

// PostgresContentRepo implémente PostStore, VideoStore et CommentStore
// sur le même pool. Les deux collections restent des tables distinctes,
// interrogées indépendamment ; le merge appartient au core.
type PostgresContentRepo struct {
	db *pgxpool.Pool
}

func NewPostgresContentRepo(db *pgxpool.Pool) *PostgresContentRepo {
	return &PostgresContentRepo{db: db}
}

// buildWindowClause traduit le ContentFilter en WHERE keyset.
// Le contenu flaggé par la modération est exclu de tous les feeds.
func buildWindowClause(alias string, filter ports.ContentFilter, args []any) (string, []any) {
	conds := []string{alias + ".flagged = FALSE"}

	if !filter.Watermark.IsZero() {
		// Comparaison de tuple : équivalent à
		// created_at < $w OR (created_at = $w AND id < $id),
		// l'ordre total strict qui interdit trous et doublons entre pages.
		args = append(args, filter.Watermark.CreatedAt, filter.Watermark.ID)
		conds = append(conds, fmt.Sprintf("(%s.created_at, %s.id) < ($%d, $%d)", alias, alias, len(args)-1, len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("%s.category = $%d", alias, len(args)))
	}
	if len(filter.AuthorIn) > 0 {
		args = append(args, filter.AuthorIn)
		conds = append(conds, fmt.Sprintf("%s.author_id = ANY($%d)", alias, len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("%s.created_at >= $%d", alias, len(args)))
	}

	return strings.Join(conds, " AND "), args
}

// FindPosts : une requête bornée, auteur joint, likes comptés depuis la
// relation post_likes (le domaine ne voit que le total dérivé).
func (r *PostgresContentRepo) FindPosts(ctx context.Context, filter ports.ContentFilter, limit int) ([]domain.FeedItem, error) {
	where, args := buildWindowClause("p", filter, nil)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.content, p.category, p.created_at,
		       u.id, u.username,
		       (SELECT count(*) FROM post_likes pl WHERE pl.post_id = p.id) AS likes_count
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $%d
	`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		item, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// FindVideos : même fenêtre, colonnes propres aux vidéos (description,
// url, compteur de vues).
func (r *PostgresContentRepo) FindVideos(ctx context.Context, filter ports.ContentFilter, limit int) ([]domain.FeedItem, error) {
	where, args := buildWindowClause("v", filter, nil)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT v.id, v.title, v.description, v.category, v.video_url, v.views, v.created_at,
		       u.id, u.username,
		       (SELECT count(*) FROM video_likes vl WHERE vl.video_id = v.id) AS likes_count
		FROM videos v
		JOIN users u ON u.id = v.author_id
		WHERE %s
		ORDER BY v.created_at DESC, v.id DESC
		LIMIT $%d
	`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		item, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountByParent : l'agrégat groupé qui évite le N+1. Une seule requête
// pour tous les ids d'un type donné, WHERE ... = ANY($1).
func (r *PostgresContentRepo) CountByParent(ctx context.Context, parentType domain.ContentType, parentIDs []string) (map[string]int, error) {
	if len(parentIDs) == 0 {
		return map[string]int{}, nil
	}

	var column string
	switch parentType {
	case domain.TypePost:
		column = "post_id"
	case domain.TypeVideo:
		column = "video_id"
	default:
		return nil, fmt.Errorf("unknown parent type %q", parentType)
	}

	query := fmt.Sprintf(`
		SELECT c.%s, count(*)
		FROM comments c
		WHERE c.%s = ANY($1)
		GROUP BY c.%s
	`, column, column, column)

	rows, err := r.db.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(parentIDs))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanPost(rows pgx.Rows) (domain.FeedItem, error) {
	var item domain.FeedItem
	item.Type = domain.TypePost
	if err := rows.Scan(
		&item.ID, &item.Title, &item.Body, &item.Category, &item.CreatedAt,
		&item.Author.ID, &item.Author.Username, &item.LikesCount,
	); err != nil {
		return domain.FeedItem{}, fmt.Errorf("scan post: %w", err)
	}
	return item, nil
}

func scanVideo(rows pgx.Rows) (domain.FeedItem, error) {
	var item domain.FeedItem
	item.Type = domain.TypeVideo
	if err := rows.Scan(
		&item.ID, &item.Title, &item.Body, &item.Category, &item.VideoURL, &item.Views, &item.CreatedAt,
		&item.Author.ID, &item.Author.Username, &item.LikesCount,
	); err != nil {
		return domain.FeedItem{}, fmt.Errorf("scan video: %w", err)
	}
	return item, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
	"github.com/omkarhole/HuddleUp/internal/core/ports"
)

const (
	// FeedCacheTTL : fenêtre de staleness acceptée. Courte parce que
	// l'invalidation est best-effort et que les scores bougent vite.
	FeedCacheTTL = 60 * time.Second

	// Les feeds classés par score doivent voir plus de candidats que la
	// page finale : le tri ne peut pas se calculer incrémentalement depuis
	// une requête d'une seule page. Compromis précision/latence réglable,
	// voir DESIGN.md.
	overfetchFactor = 3
	overfetchFloor  = 100

	// friendBoost : multiplicateur appliqué au contenu des amis dans le
	// feed for-you. Remonte sans rendre exclusif.
	friendBoost = 1.5

	defaultLimit = 20
)

type FeedService struct {
	posts    ports.PostStore
	videos   ports.VideoStore
	comments ports.CommentStore
	graph    ports.FriendGraph
	cache    ports.FeedCache
	now      func() time.Time // injectable pour les tests
}

func NewFeedService(
	posts ports.PostStore,
	videos ports.VideoStore,
	comments ports.CommentStore,
	graph ports.FriendGraph,
	cache ports.FeedCache,
) *FeedService {
	return &FeedService{
		posts:    posts,
		videos:   videos,
		comments: comments,
		graph:    graph,
		cache:    cache,
		now:      time.Now,
	}
}

// Latest : tout le contenu, ordre purement chronologique.
func (s *FeedService) Latest(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	req = normalize(req)
	key := domain.CacheKey{Policy: domain.PolicyLatest, Cursor: req.Cursor, Limit: req.Limit, Category: req.Category}
	if page, ok := s.cache.Get(ctx, key); ok {
		return page, nil
	}

	filter := ports.ContentFilter{
		Watermark: domain.DecodeCursor(req.Cursor),
		Category:  req.Category,
	}
	// limit+1 par store : le surplus sert uniquement à détecter hasMore.
	items, err := s.fetchWindow(ctx, req, filter, req.Limit+1)
	if err != nil {
		return nil, err
	}
	sortByRecency(items)

	page, err := s.paginate(ctx, items, req.Limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, page, FeedCacheTTL)
	return page, nil
}

// Trending : contenu de moins de 48h classé par score décroissant.
func (s *FeedService) Trending(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	req = normalize(req)
	key := domain.CacheKey{Policy: domain.PolicyTrending, Cursor: req.Cursor, Limit: req.Limit, Category: req.Category}
	if page, ok := s.cache.Get(ctx, key); ok {
		return page, nil
	}

	now := s.now()
	filter := ports.ContentFilter{
		Watermark: domain.DecodeCursor(req.Cursor),
		Category:  req.Category,
		Since:     now.Add(-domain.TrendingWindow),
	}
	items, err := s.fetchWindow(ctx, req, filter, overfetch(req.Limit))
	if err != nil {
		return nil, err
	}

	// L'enrichissement précède le scoring : commentsCount pèse dans la formule.
	items, err = s.attachCommentCounts(ctx, items)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Score = domain.Score(items[i], now)
	}
	sortByScore(items)

	page := slicePage(items, req.Limit)
	s.cache.Set(ctx, key, page, FeedCacheTTL)
	return page, nil
}

// ForYou : tout le contenu classé par score, avec un multiplicateur pour
// les items écrits par un ami de l'appelant. Identité obligatoire.
func (s *FeedService) ForYou(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	if req.UserID == "" {
		return nil, domain.ErrAuthRequired
	}
	req = normalize(req)
	key := domain.CacheKey{Policy: domain.PolicyForYou, UserID: req.UserID, Cursor: req.Cursor, Limit: req.Limit, Category: req.Category}
	if page, ok := s.cache.Get(ctx, key); ok {
		return page, nil
	}

	friends, err := s.graph.GetFriends(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("friend graph: %w", err)
	}
	friendSet := make(map[string]struct{}, len(friends))
	for _, f := range friends {
		friendSet[f] = struct{}{}
	}

	filter := ports.ContentFilter{
		Watermark: domain.DecodeCursor(req.Cursor),
		Category:  req.Category,
	}
	items, err := s.fetchWindow(ctx, req, filter, overfetch(req.Limit))
	if err != nil {
		return nil, err
	}
	items, err = s.attachCommentCounts(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range items {
		score := domain.Score(items[i], now)
		if _, ok := friendSet[items[i].Author.ID]; ok {
			score *= friendBoost
		}
		items[i].Score = score
	}
	sortByScore(items)

	page := slicePage(items, req.Limit)
	s.cache.Set(ctx, key, page, FeedCacheTTL)
	return page, nil
}

// Following : uniquement le contenu des amis, ordre chronologique.
// Identité obligatoire.
func (s *FeedService) Following(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	if req.UserID == "" {
		return nil, domain.ErrAuthRequired
	}
	req = normalize(req)
	key := domain.CacheKey{Policy: domain.PolicyFollowing, UserID: req.UserID, Cursor: req.Cursor, Limit: req.Limit, Category: req.Category}
	if page, ok := s.cache.Get(ctx, key); ok {
		return page, nil
	}

	friends, err := s.graph.GetFriends(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("friend graph: %w", err)
	}
	if len(friends) == 0 {
		// Aucun ami : page vide immédiate, on ne dérange pas les stores.
		return &domain.FeedPage{Data: []domain.FeedItem{}, HasMore: false}, nil
	}

	filter := ports.ContentFilter{
		Watermark: domain.DecodeCursor(req.Cursor),
		Category:  req.Category,
		AuthorIn:  friends,
	}
	items, err := s.fetchWindow(ctx, req, filter, req.Limit+1)
	if err != nil {
		return nil, err
	}
	sortByRecency(items)

	page, err := s.paginate(ctx, items, req.Limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, page, FeedCacheTTL)
	return page, nil
}

// fetchWindow interroge les deux stores en parallèle avec le même filtre,
// chaque sous-requête étant bornée indépendamment. Un échec d'un seul
// store fait échouer l'ensemble : un merge partiel fausserait
// silencieusement le classement.
func (s *FeedService) fetchWindow(ctx context.Context, req domain.FeedRequest, filter ports.ContentFilter, limit int) ([]domain.FeedItem, error) {
	// Hint facultatif du client : évite la requête du type opposé quand
	// l'appelant ne veut qu'un seul type. Jamais requis pour la justesse.
	wantPosts := req.TypeHint == "" || req.TypeHint == domain.TypePost
	wantVideos := req.TypeHint == "" || req.TypeHint == domain.TypeVideo

	type result struct {
		items []domain.FeedItem
		err   error
	}

	videoCh := make(chan result, 1)
	if wantVideos {
		go func() {
			items, err := s.videos.FindVideos(ctx, filter, limit)
			videoCh <- result{items, err}
		}()
	}

	var items []domain.FeedItem
	if wantPosts {
		posts, err := s.posts.FindPosts(ctx, filter, limit)
		if err != nil {
			return nil, fmt.Errorf("post window: %w", err)
		}
		items = append(items, posts...)
	}
	if wantVideos {
		res := <-videoCh
		if res.err != nil {
			return nil, fmt.Errorf("video window: %w", res.err)
		}
		items = append(items, res.items...)
	}
	return items, nil
}

// attachCommentCounts attache les totaux de commentaires : une requête
// groupée par type de contenu, restreinte aux ids présents, zéro par
// défaut. Les deux agrégats partent en parallèle.
func (s *FeedService) attachCommentCounts(ctx context.Context, items []domain.FeedItem) ([]domain.FeedItem, error) {
	if len(items) == 0 {
		return items, nil
	}

	var postIDs, videoIDs []string
	for _, it := range items {
		switch it.Type {
		case domain.TypePost:
			postIDs = append(postIDs, it.ID)
		case domain.TypeVideo:
			videoIDs = append(videoIDs, it.ID)
		}
	}

	type result struct {
		counts map[string]int
		err    error
	}
	videoCh := make(chan result, 1)
	go func() {
		if len(videoIDs) == 0 {
			videoCh <- result{}
			return
		}
		counts, err := s.comments.CountByParent(ctx, domain.TypeVideo, videoIDs)
		videoCh <- result{counts, err}
	}()

	var postCounts map[string]int
	if len(postIDs) > 0 {
		var err error
		postCounts, err = s.comments.CountByParent(ctx, domain.TypePost, postIDs)
		if err != nil {
			return nil, fmt.Errorf("post comment counts: %w", err)
		}
	}
	videoRes := <-videoCh
	if videoRes.err != nil {
		return nil, fmt.Errorf("video comment counts: %w", videoRes.err)
	}

	for i := range items {
		switch items[i].Type {
		case domain.TypePost:
			items[i].CommentsCount = postCounts[items[i].ID]
		case domain.TypeVideo:
			items[i].CommentsCount = videoRes.counts[items[i].ID]
		}
	}
	return items, nil
}

// paginate tronque à limit, enrichit uniquement la page servie, puis
// construit le curseur depuis son dernier item. Pour les policies
// chronologiques : inutile d'enrichir le surplus du window.
func (s *FeedService) paginate(ctx context.Context, items []domain.FeedItem, limit int) (*domain.FeedPage, error) {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	items, err := s.attachCommentCounts(ctx, items)
	if err != nil {
		return nil, err
	}
	var next string
	if hasMore && len(items) > 0 {
		next = domain.EncodeCursor(items[len(items)-1])
	}
	if items == nil {
		items = []domain.FeedItem{}
	}
	return &domain.FeedPage{Data: items, NextCursor: next, HasMore: hasMore}, nil
}

// slicePage : même découpe pour les policies classées par score, dont les
// items sont déjà enrichis (le score en dépend).
func slicePage(items []domain.FeedItem, limit int) *domain.FeedPage {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	var next string
	if hasMore && len(items) > 0 {
		next = domain.EncodeCursor(items[len(items)-1])
	}
	if items == nil {
		items = []domain.FeedItem{}
	}
	return &domain.FeedPage{Data: items, NextCursor: next, HasMore: hasMore}
}

// sortByRecency : created_at desc puis id desc, l'ordre total qui garantit
// une pagination sans trou ni doublon.
func sortByRecency(items []domain.FeedItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

// sortByScore : score desc, départagé par récence puis id pour rester
// déterministe quand les scores sont exactement égaux (typiquement des
// items sans aucun engagement).
func sortByScore(items []domain.FeedItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
}

func overfetch(limit int) int {
	if n := limit * overfetchFactor; n > overfetchFloor {
		return n
	}
	return overfetchFloor
}

// normalize pose les défauts une seule fois. L'adapter HTTP clampe déjà,
// mais le service reste sûr pour un appelant direct.
func normalize(req domain.FeedRequest) domain.FeedRequest {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
		slog.Debug("feed request without limit, using default", "policy", req.Policy)
	}
	return req
}

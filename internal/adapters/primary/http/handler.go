package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omkarhole/HuddleUp/internal/core/domain"
	"github.com/omkarhole/HuddleUp/internal/core/ports"
)

const (
	defaultLimit = 20
	maxLimit     = 50
)

type Handler struct {
	feeds ports.FeedReader
}

func NewHandler(feeds ports.FeedReader) *Handler {
	return &Handler{feeds: feeds}
}

// Router assemble le routeur du moteur. L'auth est optionnelle ici :
// chaque policy décide elle-même si une identité est requise.
func (h *Handler) Router(jwtSecret []byte) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(OptionalAuth(jwtSecret))

	r.Get("/api/feed/{policy}", h.getFeed)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	policy := domain.Policy(chi.URLParam(r, "policy"))
	if !policy.Valid() {
		writeError(w, http.StatusBadRequest, "invalid feed type, use: latest, trending, for-you, following")
		return
	}

	q := r.URL.Query()

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
		// Une limite non numérique retombe sur le défaut : entrée
		// invalide bénigne, pas de quoi refuser la requête.
	}
	// Clamp défensif dans [1, 50], quoi que le client envoie.
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	req := domain.FeedRequest{
		Policy:   policy,
		UserID:   UserFromContext(r.Context()),
		Cursor:   q.Get("cursor"),
		Limit:    limit,
		Category: q.Get("category"),
		TypeHint: parseTypeHint(q.Get("contentType")),
	}

	// Rejet avant toute I/O : on sait déjà que la policy exigera une
	// identité qu'on n'a pas.
	if policy.Personalized() && req.UserID == "" {
		writeError(w, http.StatusUnauthorized, "login required for personalized feed")
		return
	}

	var page *domain.FeedPage
	var err error
	switch policy {
	case domain.PolicyLatest:
		page, err = h.feeds.Latest(r.Context(), req)
	case domain.PolicyTrending:
		page, err = h.feeds.Trending(r.Context(), req)
	case domain.PolicyForYou:
		page, err = h.feeds.ForYou(r.Context(), req)
	case domain.PolicyFollowing:
		page, err = h.feeds.Following(r.Context(), req)
	}

	if err != nil {
		if errors.Is(err, domain.ErrAuthRequired) {
			writeError(w, http.StatusUnauthorized, "login required for personalized feed")
			return
		}
		slog.Error("❌ Feed request failed", "policy", policy, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading feed")
		return
	}

	dto, err := toPageDTO(page)
	if err != nil {
		slog.Error("❌ Feed serialization failed", "policy", policy, "error", err)
		writeError(w, http.StatusInternalServerError, "error loading feed")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func parseTypeHint(raw string) domain.ContentType {
	switch domain.ContentType(raw) {
	case domain.TypePost:
		return domain.TypePost
	case domain.TypeVideo:
		return domain.TypeVideo
	}
	// Hint inconnu : ignoré, la justesse n'en dépend jamais.
	return ""
}

// --- Mapping Domain -> JSON ---

type authorDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type feedItemDTO struct {
	ID            string    `json:"id"`
	ContentType   string    `json:"contentType"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	Description   string    `json:"description,omitempty"`
	VideoURL      string    `json:"videoUrl,omitempty"`
	Category      string    `json:"category"`
	Author        authorDTO `json:"author"`
	CreatedAt     time.Time `json:"createdAt"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	Views         *int64    `json:"views,omitempty"`
	// Le score interne n'est pas exposé.
}

type feedPageDTO struct {
	Data       []feedItemDTO `json:"data"`
	NextCursor *string       `json:"nextCursor"`
	HasMore    bool          `json:"hasMore"`
}

// toItemDTO fait le pattern matching exhaustif sur la variante : la forme
// sérialisée diffère entre post et vidéo.
func toItemDTO(item domain.FeedItem) (feedItemDTO, error) {
	dto := feedItemDTO{
		ID:            item.ID,
		ContentType:   string(item.Type),
		Title:         item.Title,
		Category:      item.Category,
		Author:        authorDTO{ID: item.Author.ID, Username: item.Author.Username},
		CreatedAt:     item.CreatedAt,
		LikesCount:    item.LikesCount,
		CommentsCount: item.CommentsCount,
	}

	switch item.Type {
	case domain.TypePost:
		dto.Content = item.Body
	case domain.TypeVideo:
		dto.Description = item.Body
		dto.VideoURL = item.VideoURL
		views := item.Views
		dto.Views = &views
	default:
		return feedItemDTO{}, fmt.Errorf("unknown content type %q", item.Type)
	}
	return dto, nil
}

func toPageDTO(page *domain.FeedPage) (feedPageDTO, error) {
	dto := feedPageDTO{
		Data:    make([]feedItemDTO, len(page.Data)),
		HasMore: page.HasMore,
	}
	if page.NextCursor != "" {
		cursor := page.NextCursor
		dto.NextCursor = &cursor
	}
	for i, item := range page.Data {
		itemDTO, err := toItemDTO(item)
		if err != nil {
			return feedPageDTO{}, err
		}
		dto.Data[i] = itemDTO
	}
	return dto, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

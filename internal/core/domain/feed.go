package domain

import (
	"errors"
	"fmt"
	"time"
)

// ContentType discrimine les deux variantes de FeedItem.
type ContentType string

const (
	TypePost  ContentType = "post"
	TypeVideo ContentType = "video"
)

var (
	// ErrAuthRequired : les feeds personnalisés exigent une identité.
	// Distinct d'une erreur serveur pour que l'adapter HTTP réponde 401.
	ErrAuthRequired = errors.New("authentication required")
)

// Policy désigne l'un des quatre algorithmes de sélection du feed.
type Policy string

const (
	PolicyLatest    Policy = "latest"
	PolicyTrending  Policy = "trending"
	PolicyForYou    Policy = "for-you"
	PolicyFollowing Policy = "following"
)

// Valid vérifie que le nom demandé fait partie de l'ensemble fermé.
func (p Policy) Valid() bool {
	switch p {
	case PolicyLatest, PolicyTrending, PolicyForYou, PolicyFollowing:
		return true
	}
	return false
}

// Personalized indique si la policy exige l'identité de l'appelant.
func (p Policy) Personalized() bool {
	return p == PolicyForYou || p == PolicyFollowing
}

type Author struct {
	ID       string
	Username string
}

// FeedItem est l'union taguée Post|Video, construite à la volée par requête
// depuis les enregistrements persistants. Jamais stockée sous cette forme.
type FeedItem struct {
	ID        string
	Type      ContentType
	Title     string
	Body      string // contenu du post, ou description de la vidéo
	Category  string
	VideoURL  string // vidéo uniquement
	Author    Author
	CreatedAt time.Time

	LikesCount    int
	CommentsCount int   // calculé par requête via l'enrichisseur, jamais stocké
	Views         int64 // vidéo uniquement, zéro pour les posts

	// Score est éphémère : rempli par les policies qui classent
	// (trending, for-you), zéro pour l'ordre purement chronologique.
	Score float64
}

// FeedRequest encapsule les critères d'une lecture de feed,
// normalisés une seule fois à la frontière HTTP.
type FeedRequest struct {
	Policy   Policy
	UserID   string // vide si anonyme
	Cursor   string
	Limit    int
	Category string
	TypeHint ContentType // optionnel : ne lire qu'un seul store
}

// FeedPage est la page retournée à l'appelant.
type FeedPage struct {
	Data       []FeedItem
	NextCursor string // vide sur la dernière page
	HasMore    bool
}

// CacheKey identifie une page de feed dans le cache. Clé structurée plutôt
// que concaténation ad hoc : les sentinelles ne sont posées qu'au rendu.
type CacheKey struct {
	Policy   Policy
	UserID   string // vide pour les feeds publics
	Cursor   string
	Limit    int
	Category string
}

// String rend la clé Redis. Toutes les clés partagent le préfixe "feed:"
// pour que l'invalidation wildcard les couvre d'un seul motif.
func (k CacheKey) String() string {
	user := k.UserID
	if user == "" {
		user = "-"
	}
	cursor := k.Cursor
	if cursor == "" {
		cursor = "start"
	}
	category := k.Category
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("feed:%s:%s:%s:%d:%s", k.Policy, user, cursor, k.Limit, category)
}

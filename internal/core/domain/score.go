package domain

import (
	"math"
	"time"
)

// Pondérations du signal d'engagement : les commentaires pèsent le plus
// (discussion active), les vues le moins (signal passif).
const (
	likeWeight    = 3.0
	commentWeight = 5.0
	viewWeight    = 0.5

	// gravity contrôle la décroissance du terme d'engagement avec l'âge.
	// Plus élevé que l'exposant de récence : un vieux contenu très aimé
	// retombe plus vite qu'un contenu frais sans engagement.
	gravity         = 1.8
	recencyExponent = 0.5
)

// TrendingWindow : fenêtre glissante pendant laquelle le boost trending
// s'applique, et hors de laquelle le feed trending ne regarde plus.
const TrendingWindow = 48 * time.Hour

// Score calcule le rang d'un item à l'instant donné. Fonction pure et
// déterministe : jamais NaN, jamais négative, y compris pour un item
// daté de l'epoch sans aucun engagement.
func Score(item FeedItem, now time.Time) float64 {
	ageHours := now.Sub(item.CreatedAt).Hours()
	if ageHours < 0 {
		// Horloge en avance ou createdAt dans le futur : on plafonne à zéro,
		// le +2 ci-dessous évite toute division par zéro.
		ageHours = 0
	}

	engagement := float64(item.LikesCount)*likeWeight +
		float64(item.CommentsCount)*commentWeight +
		float64(item.Views)*viewWeight

	engagementScore := engagement / math.Pow(ageHours+2, gravity)
	recencyScore := 1 / math.Pow(ageHours+2, recencyExponent)

	// Boost réservé au contenu jeune qui accumule vite des réactions.
	trendingBoost := 0.0
	if ageHours < TrendingWindow.Hours() {
		recentEngagement := float64(item.LikesCount + item.CommentsCount)
		trendingBoost = recentEngagement / math.Pow(ageHours+1, 0.5)
	}

	return engagementScore + recencyScore + trendingBoost
}

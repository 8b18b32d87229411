package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Watermark borne la pagination : seuls les items strictement avant
// (CreatedAt, ID) appartiennent à la page suivante. La valeur zéro
// signifie "pas de curseur", c'est-à-dire le début du feed.
type Watermark struct {
	CreatedAt time.Time
	ID        string
}

func (w Watermark) IsZero() bool {
	return w.CreatedAt.IsZero() && w.ID == ""
}

// Admits rapporte si l'item passe le filtre, selon l'ordre total
// (created_at desc, id desc). L'égalité de timestamp est départagée par
// l'id : c'est ce qui empêche trous et doublons quand plusieurs items
// partagent la même date de création.
func (w Watermark) Admits(item FeedItem) bool {
	if w.IsZero() {
		return true
	}
	if item.CreatedAt.Before(w.CreatedAt) {
		return true
	}
	return item.CreatedAt.Equal(w.CreatedAt) && item.ID < w.ID
}

// Le token est le JSON {created_at, id} encodé en base64url sans padding.
// RFC3339Nano garantit un aller-retour sans perte de précision.
type cursorPayload struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// EncodeCursor sérialise le watermark du dernier item de la page courante
// en token opaque.
func EncodeCursor(item FeedItem) string {
	payload, _ := json.Marshal(cursorPayload{CreatedAt: item.CreatedAt, ID: item.ID})
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeCursor reconstruit le watermark. Un token malformé ou trafiqué
// dégrade en watermark zéro, jamais en erreur : la pagination repart du
// début au lieu de faire échouer la requête.
func DecodeCursor(token string) Watermark {
	if token == "" {
		return Watermark{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Watermark{}
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Watermark{}
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		return Watermark{}
	}
	return Watermark{CreatedAt: p.CreatedAt, ID: p.ID}
}

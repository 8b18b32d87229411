package domain

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	item := FeedItem{
		ID:        "post-42",
		Type:      TypePost,
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC),
	}

	w := DecodeCursor(EncodeCursor(item))

	// L'item lui-même est exclu de la page suivante (pas de doublon).
	if w.Admits(item) {
		t.Fatal("watermark admits the item it was built from")
	}

	// Tout ce qui est plus récent est exclu aussi (pas de trou).
	newer := FeedItem{ID: "post-43", CreatedAt: item.CreatedAt.Add(time.Second)}
	if w.Admits(newer) {
		t.Fatal("watermark admits a newer item")
	}

	// Tout ce qui est strictement plus ancien passe.
	older := FeedItem{ID: "post-41", CreatedAt: item.CreatedAt.Add(-time.Second)}
	if !w.Admits(older) {
		t.Fatal("watermark rejects an older item")
	}
}

func TestCursorTieBreakOnID(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := FeedItem{ID: "post-bbb", CreatedAt: createdAt}

	w := DecodeCursor(EncodeCursor(last))

	// Timestamp identique : seul un id strictement inférieur passe.
	if w.Admits(FeedItem{ID: "post-ccc", CreatedAt: createdAt}) {
		t.Fatal("watermark admits a same-timestamp item with greater id")
	}
	if !w.Admits(FeedItem{ID: "post-aaa", CreatedAt: createdAt}) {
		t.Fatal("watermark rejects a same-timestamp item with lesser id")
	}
}

func TestDecodeCursorGarbageNeverFails(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not base64", token: "%%%not-base64%%%"},
		{name: "base64 of garbage", token: "bm90LWpzb24"},
		{name: "json without fields", token: "e30"},
		{name: "truncated token", token: EncodeCursor(FeedItem{ID: "x", CreatedAt: time.Now()})[:10]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DecodeCursor(tt.token)
			if !w.IsZero() {
				t.Fatalf("expected zero watermark for %q, got %+v", tt.token, w)
			}
			// Watermark zéro = pas de filtre : tout passe.
			if !w.Admits(FeedItem{ID: "any", CreatedAt: time.Now()}) {
				t.Fatal("zero watermark should admit everything")
			}
		})
	}
}

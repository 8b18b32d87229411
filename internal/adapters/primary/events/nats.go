package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/omkarhole/HuddleUp/internal/core/ports"
)

// FeedCachePattern couvre toutes les pages de feed en cache : n'importe
// quelle mutation de contenu peut changer un score ou l'éligibilité d'un
// item, donc on purge tout plutôt que de cibler.
const FeedCachePattern = "feed:*"

// contentSubjects : tous les événements d'écriture publiés par les
// collaborateurs (création, mise à jour, suppression, like) sur les deux
// types de contenu.
var contentSubjects = []string{"post.>", "video.>"}

type Handler struct {
	cache ports.FeedCache
}

func NewHandler(cache ports.FeedCache) *Handler {
	return &Handler{cache: cache}
}

// Subscribe abonne le handler aux sujets de mutation de contenu.
func (h *Handler) Subscribe(nc *nats.Conn) error {
	for _, subject := range contentSubjects {
		if _, err := nc.Subscribe(subject, h.HandleContentEvent); err != nil {
			return err
		}
	}
	return nil
}

// HandleContentEvent purge le cache de feed. Best-effort et découplé de
// l'écriture qui l'a déclenché : un échec ici n'échoue rien en amont, le
// TTL court fait office de filet.
func (h *Handler) HandleContentEvent(msg *nats.Msg) {
	// Extraction du contexte de trace depuis les headers NATS : le span
	// d'invalidation se rattache à l'écriture d'origine dans Jaeger.
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(msg.Header))

	tracer := otel.Tracer("feed-engine")
	ctx, span := tracer.Start(ctx, "invalidate_feed_cache", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	slog.Debug("📨 Content event received, flushing feed cache", "subject", msg.Subject)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	h.cache.InvalidatePattern(ctx, FeedCachePattern)
}

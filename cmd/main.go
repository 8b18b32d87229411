package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	// Instrumentation
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Interne
	"github.com/omkarhole/HuddleUp/config"
	"github.com/omkarhole/HuddleUp/internal/adapters/primary/events"
	http_adapter "github.com/omkarhole/HuddleUp/internal/adapters/primary/http"
	"github.com/omkarhole/HuddleUp/internal/adapters/secondary/cache"
	"github.com/omkarhole/HuddleUp/internal/adapters/secondary/clients"
	"github.com/omkarhole/HuddleUp/internal/adapters/secondary/repository"
	"github.com/omkarhole/HuddleUp/internal/core/services"
)

func main() {
	// 1. Config & Logger
	cfg := config.Load()
	initLogger(cfg)
	slog.Info("🚀 Starting Feed Engine", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Télémétrie (Tracing)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// 3. Infrastructure: Postgres (source de vérité — obligatoire)
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		slog.Error("Invalid Postgres DSN", "error", err)
		os.Exit(1)
	}
	poolCfg.ConnConfig.Tracer = otelpgx.NewTracer()
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		slog.Error("Unable to create Postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("Unable to connect to Postgres", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Postgres")

	contentRepo := repository.NewPostgresContentRepo(pool)

	// 4. Infrastructure: Neo4j (graphe d'amis — obligatoire)
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jUri, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		slog.Error("Unable to create Neo4j driver", "error", err)
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		slog.Error("Unable to connect to Neo4j", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Connected to Neo4j")

	friendGraph := clients.NewNeo4jFriendGraph(driver)

	// 5. Infrastructure: Redis (cache — optionnel)
	// Le cache est une pure optimisation : s'il est indisponible, on
	// démarre quand même et chaque requête recalcule à frais.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Warn("Redis instrumentation failed", "error", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("⚠️ Redis unavailable, running without cache", "error", err)
		rdb = nil
	} else {
		slog.Info("✅ Connected to Redis")
	}
	feedCache := cache.NewRedis(rdb)

	// 6. Initialisation du Core
	feedService := services.NewFeedService(contentRepo, contentRepo, contentRepo, friendGraph, feedCache)

	// 7. Consumer NATS (Driving Adapter - Async)
	// C'est par ici que les write-paths déclenchent l'invalidation.
	nc, err := nats.Connect(cfg.NatsUrl)
	if err != nil {
		// Sans NATS le cache n'est plus invalidé par les écritures ;
		// le TTL court reste le filet. On démarre quand même.
		slog.Warn("⚠️ NATS unavailable, cache invalidation disabled", "error", err)
	} else {
		defer nc.Close()
		handler := events.NewHandler(feedCache)
		if err := handler.Subscribe(nc); err != nil {
			slog.Error("Failed to subscribe to NATS", "error", err)
			os.Exit(1)
		}
		slog.Info("👂 Listening for content events (NATS)")
	}

	// 8. Serveur HTTP (Driving Adapter - Sync)
	httpHandler := http_adapter.NewHandler(feedService)

	var h http.Handler = httpHandler.Router([]byte(cfg.JwtSecret))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:19006"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "baggage", "sentry-trace"},
		AllowCredentials: true,
	})
	h = c.Handler(h)

	h = otelhttp.NewHandler(h, "Feed-Engine", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: h,
	}

	go func() {
		slog.Info("📡 Feed Engine listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Server exited")
}

// --- Helpers ---

func initLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String("feed-engine"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

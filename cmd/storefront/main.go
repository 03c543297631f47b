package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/events"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

type publisher interface {
	catalog.Publisher
	Close() error
}

func main() {
	cfg := config.Load()
	slogger := logger.New(os.Stdout, cfg.LogLevel)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Local session storage
	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open session storage: %v", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Session storage ready at %s", cfg.DBPath)

	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// the catalog falls back to the backend on every cache error
		log.Printf("Redis ping failed, catalog cache degraded: %v", err)
	}

	client, err := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}
	log.Printf("Using backend at %s", cfg.BackendURL)

	source := uuid.NewString()
	var pub publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewPublisher(source, cfg.KafkaBrokers...)
		log.Printf("Publishing catalog events to %v", cfg.KafkaBrokers)
	}
	defer pub.Close()

	catalogStore := catalog.NewStore(client, cache.NewRedisCache(redisClient), pub, slogger)

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if len(cfg.KafkaBrokers) > 0 {
		poller := events.NewPoller(source, cfg.KafkaGroupID, catalogStore, slogger, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(pollCtx)
	}

	registry := storefront.NewRegistry(client, repo, catalogStore, slogger,
		storefront.WithIdleTimeout(cfg.SessionIdleTimeout))
	go registry.Run(pollCtx, cfg.SweepInterval)

	router := h.NewRouter(h.Deps{
		Registry:     registry,
		Catalog:      catalogStore,
		Checkout:     checkout.NewService(client, slogger),
		Accounts:     client,
		SecureCookie: cfg.CookieSecure,
		Options: h.Options{
			Timeout:     cfg.RequestTimeout,
			MaxBodySize: cfg.MaxRequestBodySize,
			Log:         slogger,
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

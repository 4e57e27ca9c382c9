//	@title			Image Gallery API
//	@version		1.0
//	@description	Upload images to object storage, browse them with time-limited signed URLs, and like them.
//
//	@host		localhost:8080
//	@BasePath	/

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/sakkuru/image-gallery/internal/config"
	"github.com/sakkuru/image-gallery/internal/db"
	"github.com/sakkuru/image-gallery/internal/gallery"
	"github.com/sakkuru/image-gallery/internal/likes"
	appMiddleware "github.com/sakkuru/image-gallery/internal/middleware"
	"github.com/sakkuru/image-gallery/internal/storage"

	_ "github.com/sakkuru/image-gallery/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.IsProduction())

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(cfg.DatabaseURL); err != nil {
		slog.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinioStorage(context.Background(), storage.MinioOptions{
		Endpoint:    cfg.StorageEndpoint,
		AccessKey:   cfg.StorageAccessKey,
		SecretKey:   cfg.StorageSecretKey,
		UseSSL:      cfg.StorageUseSSL,
		STSEndpoint: cfg.StorageSTSEndpoint,
		Bucket:      cfg.StorageBucket,
	})
	if err != nil {
		slog.Error("object storage init failed", "error", err)
		os.Exit(1)
	}

	// Wire dependencies: repository → service → handler. The gateways are
	// constructed once here and injected; the underlying protocol clients are
	// stateless, so there is no teardown beyond process exit.
	likesRepo := likes.NewRepository(pool, cfg.CounterTable)
	gallerySvc := gallery.NewService(store, likesRepo, cfg.SignedURLTTL)
	galleryHandler := gallery.NewHandler(gallerySvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	galleryHandler.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

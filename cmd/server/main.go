package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-coview/internal/api"
	"pdf-coview/internal/blob"
	"pdf-coview/internal/config"
	"pdf-coview/internal/db"
	"pdf-coview/internal/repository"
	"pdf-coview/internal/services"
	"pdf-coview/internal/services/collaboration"
	"pdf-coview/internal/telemetry"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    string
	)

	cmd := &cobra.Command{
		Use:           "pdf-coview",
		Short:         "Real-time PDF co-viewing coordinator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if host != "" {
				cfg.ServerHost = host
			}
			if port != "" {
				cfg.ServerPort = port
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides SERVER_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides SERVER_PORT)")

	return cmd
}

func run(cfg *config.Config) error {
	log.Println("🚀 Starting PDF co-viewing coordinator...")

	jaegerShutdown, err := telemetry.InitJaeger("pdf-coview", version, cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = telemetry.Noop
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), time.Minute)
	database, err := db.NewGorm(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		return err
	}
	defer database.Close()

	blobs, routeOpts, err := newBlobStore(cfg)
	if err != nil {
		return err
	}

	docRepo := repository.NewDocumentRepository(database.DB)
	uploadService := services.NewUploadService(blobs, docRepo, cfg.UploadMaxBytes)

	// Documents of terminated sessions are deleted off the session loop.
	cleanupService := services.NewCleanupService(uploadService, cfg.CleanupWorkers, cfg.CleanupQueueSize)
	cleanupService.Start()

	sessionManager := collaboration.NewSessionManager(cleanupService, collaboration.Options{
		SessionTTL:    cfg.SessionTTL,
		SweepInterval: cfg.SweepInterval,
	})
	sessionManager.Start()

	wsHandler := collaboration.NewWebSocketHandler(sessionManager)
	handler := api.NewHandler(uploadService, wsHandler)
	router := api.SetupRoutes(handler, routeOpts)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("🌐 Server listening on http://%s", cfg.Addr())
		log.Printf("   POST   /api/upload  - Upload a PDF (field \"pdf\", max %d bytes)", cfg.UploadMaxBytes)
		log.Printf("   GET    /ws          - Co-viewing real-time channel")
		log.Printf("   GET    /metrics     - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("🛑 Shutting down server...")
	case err := <-serverErr:
		log.Printf("❌ Server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Stop the loop before the pool so no new cleanup jobs arrive late.
	sessionManager.Shutdown()
	cleanupService.Shutdown()

	log.Println("✓ Server shutdown complete")
	return nil
}

func newBlobStore(cfg *config.Config) (blob.Store, api.RouteOptions, error) {
	opts := api.RouteOptions{StaticDir: cfg.StaticDir}

	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		s3cfg := blob.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
			PublicURL:       cfg.S3PublicURL,
		}
		log.Printf("✓ Blob store: s3://%s/%s", cfg.S3Bucket, cfg.S3Prefix)
		return blob.NewS3Store(blob.NewS3Client(s3cfg), s3cfg), opts, nil

	default:
		store, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadURLPrefix)
		if err != nil {
			return nil, opts, err
		}
		opts.UploadDir = store.Dir()
		opts.UploadURLPrefix = cfg.UploadURLPrefix
		log.Printf("✓ Blob store: %s served at %s", cfg.UploadDir, cfg.UploadURLPrefix)
		return store, opts, nil
	}
}

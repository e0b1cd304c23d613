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

	"github.com/ErikTechForce/TechForcePortal-sub000/config"
	"github.com/ErikTechForce/TechForcePortal-sub000/handler"
	"github.com/ErikTechForce/TechForcePortal-sub000/middleware"
	"github.com/ErikTechForce/TechForcePortal-sub000/pkg/database"
	"github.com/ErikTechForce/TechForcePortal-sub000/pkg/logger"
	"github.com/ErikTechForce/TechForcePortal-sub000/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Pick the store: MySQL when a DSN is configured, in-memory otherwise
	var store service.Store
	if cfg.Database.DSN != "" {
		db, err := database.Connect(&cfg.Database)
		if err != nil {
			slog.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		store = database.NewStore(db)
	} else {
		slog.Warn("no database DSN configured, using in-memory store")
		store = service.NewMemStore()
	}

	// Object storage: template assets and signed-PDF archive copies live in
	// the bucket when MINIO is configured; otherwise templates come from
	// disk and no archive copies are written.
	var (
		templates service.TemplateSource
		archiver  service.Archiver
	)
	if cfg.Minio.Endpoint != "" {
		minioSvc, err := service.NewMinioService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO service", "error", err)
			os.Exit(1)
		}
		if err := minioSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MINIO bucket", "error", err)
			os.Exit(1)
		}
		templates = &service.MinioTemplates{Service: minioSvc, Files: cfg.Contracts.TemplateFiles}
		archiver = minioSvc
	} else {
		templates = &service.DiskTemplates{Dir: cfg.Contracts.TemplateDir, Files: cfg.Contracts.TemplateFiles}
	}

	// Company counter-signature stamp, embedded next to the client signature
	var counterSigPNG []byte
	if cfg.Contracts.CounterSignaturePath != "" {
		counterSigPNG, err = os.ReadFile(cfg.Contracts.CounterSignaturePath)
		if err != nil {
			slog.Warn("counter-signature image not readable, contracts will omit it", "error", err)
			counterSigPNG = nil
		}
	}

	// Initialize services
	lifecycle := service.NewLifecycle(store)
	chat := service.NewChat(store, lifecycle)
	generator := service.NewGenerator(templates)
	contracts := service.NewContracts(store, lifecycle, generator, archiver, cfg.Contracts.PublicBaseURL, counterSigPNG)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	orderHandler := handler.NewOrderHandler(lifecycle, chat, store)
	contractHandler := handler.NewContractHandler(contracts)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())     // Request ID for tracing
	router.Use(middleware.Recovery())      // Panic recovery
	router.Use(middleware.RequestLogger()) // Access logging
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes: login plus the contract-signing surface. The signing
	// endpoints are reachable by link only; rate limiting slows down token
	// enumeration.
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		public := api.Group("/contracts")
		public.Use(middleware.RateLimit(60, time.Minute))
		{
			public.GET("/status/:contract_id", contractHandler.Status)
			public.POST("/:contract_id/render", contractHandler.Render)
			public.PATCH("/:contract_id/signed", contractHandler.Submit)
		}
	}

	// Protected staff routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders", orderHandler.List)
		protected.GET("/orders/:number", orderHandler.Get)
		protected.PATCH("/orders/:number", orderHandler.Patch)
		protected.GET("/orders/:number/activity-log", orderHandler.ActivityLog)
		protected.POST("/orders/:number/activity-log", orderHandler.AppendLog)
		protected.GET("/orders/:number/chat", orderHandler.ListMessages)
		protected.POST("/orders/:number/chat", orderHandler.SendMessage)
		protected.POST("/orders/:number/contract", contractHandler.Generate)

		protected.GET("/contracts/:contract_id/pdf", contractHandler.SignedPDF)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/lernwerk/backend/internal/config"
	"github.com/lernwerk/backend/internal/handlers"
	"github.com/lernwerk/backend/internal/middleware"
	"github.com/lernwerk/backend/internal/models"
	"github.com/lernwerk/backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize services
	storeService, err := services.NewStoreService(db, cfg)
	if err != nil {
		log.Fatalf("Failed to init store service: %v", err)
	}
	productService := services.NewProductService(db)
	syncService := services.NewSyncService(productService)
	existenceService := services.NewExistenceService(storeService)
	decisionHub := services.NewDecisionHub()
	uploadService := services.NewUploadService(storeService, syncService, existenceService, decisionHub, cfg)

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService)
	uploadHandler := handlers.NewUploadHandler(uploadService, productService, existenceService, storeService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Products
		api.POST("/products", productHandler.CreateProduct)
		api.GET("/products/:id", productHandler.GetProduct)

		// Asset existence, download URL and deletion
		api.GET("/products/:id/assets/:kind", uploadHandler.CheckAsset)
		api.GET("/products/:id/assets/:kind/url", uploadHandler.AssetURL)
		api.DELETE("/products/:id/assets/:kind", uploadHandler.DeleteAsset)

		// Upload sessions (with upload rate limiting)
		uploadGroup := api.Group("")
		uploadGroup.Use(middleware.UploadRateLimit(redisClient, cfg))
		{
			uploadGroup.POST("/products/:id/assets/:kind/uploads", uploadHandler.StartUpload)
		}

		api.GET("/uploads/:id", uploadHandler.GetSession)
		api.POST("/uploads/:id/cancel", uploadHandler.CancelSession)
		api.POST("/uploads/:id/cancel/decision", uploadHandler.SubmitCleanupDecision)
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // 2 min for large uploads
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

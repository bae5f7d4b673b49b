// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/api/handlers"
	"github.com/toolbridge/crm-adapter/internal/api/middleware"
	"github.com/toolbridge/crm-adapter/internal/config"
	"github.com/toolbridge/crm-adapter/internal/crm"
	appcron "github.com/toolbridge/crm-adapter/internal/cron"
	"github.com/toolbridge/crm-adapter/internal/dispatcher"
	"github.com/toolbridge/crm-adapter/internal/resolver"
	"github.com/toolbridge/crm-adapter/internal/schema"
	"github.com/toolbridge/crm-adapter/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	_ = godotenv.Load()

	// ============================================
	// Load configuration
	// ============================================
	cfg := config.Load()

	// ============================================
	// Initialize logger
	// ============================================
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.CRMAPIKey == "" {
		logger.Warn("CRM_API_KEY is empty; upstream calls will fail auth")
	}

	// ============================================
	// Initialize Redis (optional attribute cache backend)
	// ============================================
	var rdb *redis.Client
	if opt, err := redis.ParseURL(cfg.RedisURL); err == nil {
		client := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err == nil {
			rdb = client
			logger.Info("connected to redis")
		} else {
			logger.Warn("redis unavailable, using in-process attribute cache", zap.Error(err))
		}
		cancel()
	} else {
		logger.Warn("invalid REDIS_URL, using in-process attribute cache", zap.Error(err))
	}

	// ============================================
	// Initialize CRM client and dispatch core
	// ============================================
	client := crm.NewClient(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg.HTTPTimeout, logger)
	attrCache := schema.NewAttributeCache(rdb, client, cfg.AttributeCacheTTL, logger)
	memberResolver := resolver.New(client, logger)
	sanitizer := dispatcher.NewSanitizer(cfg.IsProduction())
	d := dispatcher.New(client, memberResolver, attrCache, sanitizer, logger, cfg.BatchConcurrency)
	logger.Info("dispatcher initialized")

	// ============================================
	// Initialize Handlers
	// ============================================
	h := handlers.NewHandlers(d, logger)
	wsHandler := socket.NewHandler(d, logger)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := appcron.NewScheduler(attrCache, logger)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.Default()

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check
	r.GET("/health", handlers.Health)

	// Tool dispatch routes
	v1 := r.Group("/v1")
	{
		tools := v1.Group("/tools")
		tools.Use(middleware.AuthMiddleware(cfg.JWTSecret, logger))
		{
			tools.POST("/execute", h.Tool.Execute)
			tools.GET("/ws", wsHandler.ServeWS)
		}
	}

	// ============================================
	// Start Server with Graceful Shutdown
	// ============================================
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if rdb != nil {
		rdb.Close()
	}
	logger.Info("server stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/api"
	"github.com/davidmey/commune/internal/chat"
	"github.com/davidmey/commune/internal/config"
	"github.com/davidmey/commune/internal/db"
	"github.com/davidmey/commune/internal/hub"
	"github.com/davidmey/commune/internal/middleware"
	"github.com/davidmey/commune/internal/observ"
	"github.com/davidmey/commune/internal/repository/postgres"
	"github.com/davidmey/commune/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no deadline: take as long as the stores need.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	pool := database.Pool()
	roomRepo := postgres.NewRoomStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	userRepo := postgres.NewUserStore(pool)
	notificationRepo := postgres.NewNotificationStore(pool)

	// Kick ledger backing: process-local by default, Redis when kick
	// state must be shared across instances or survive restarts.
	var kickLedger chat.KickLedger
	switch cfg.KickLedgerBackend {
	case "redis":
		redisClient, err := db.NewRedis(context.Background(), cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		kickLedger = chat.NewRedisKickLedger(redisClient, cfg.KickBlockTTL)
	case "memory":
		kickLedger = chat.NewMemoryKickLedger(cfg.KickBlockTTL)
	default:
		return fmt.Errorf("unknown kick ledger backend %q", cfg.KickLedgerBackend)
	}

	rateTracker := chat.NewMemoryRateTracker(cfg.RateLimit, cfg.RateWindow)

	// Periodic sweep keeps rate windows for long-quiet users from
	// accumulating. Only fully idle keys are removed, so throttling
	// behavior is untouched.
	go func() {
		ticker := time.NewTicker(cfg.RateSweepIdle)
		defer ticker.Stop()
		for range ticker.C {
			rateTracker.Sweep(cfg.RateSweepIdle)
		}
	}()

	fanout := hub.NewHub(logger)

	gatekeeper := chat.NewGatekeeper(
		roomRepo,
		membershipRepo,
		messageRepo,
		userRepo,
		notificationRepo,
		kickLedger,
		rateTracker,
		chat.NewSanitizer(),
		chat.NewOpenGraphResolver(),
		fanout,
		logger,
	)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	roomHandler := api.NewRoomHandler(roomRepo, logger)
	membershipHandler := api.NewMembershipHandler(gatekeeper, membershipRepo, logger)
	messageHandler := api.NewMessageHandler(gatekeeper, messageRepo, logger)
	notificationHandler := api.NewNotificationHandler(notificationRepo, logger)
	wsHandler := ws.NewHandler(fanout, gatekeeper, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	logger.Info("starting commune",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("kick_ledger", cfg.KickLedgerBackend),
	)

	// Public: health for load balancers, register/login to get a token.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/register", authHandler.Register)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/auth/me", authHandler.Me)

	v1.GET("/rooms", roomHandler.List)
	v1.GET("/rooms/:id", roomHandler.GetByID)
	v1.POST("/rooms/:id/join", membershipHandler.Join)
	v1.POST("/rooms/:id/leave", membershipHandler.Leave)
	v1.GET("/rooms/:id/members", membershipHandler.ListMembers)
	v1.POST("/rooms/:id/messages", messageHandler.Send)
	v1.GET("/rooms/:id/messages", messageHandler.List)
	v1.DELETE("/messages/:id", messageHandler.Delete)

	v1.GET("/notifications", notificationHandler.List)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)

	v1.GET("/ws", wsHandler.Serve)

	admin := v1.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/rooms", roomHandler.Create)
	admin.DELETE("/rooms/:id", roomHandler.Deactivate)
	admin.POST("/rooms/:id/members", membershipHandler.Add)
	admin.POST("/rooms/:id/kick", membershipHandler.Kick)
	admin.POST("/rooms/:id/mute", membershipHandler.Mute)
	admin.POST("/rooms/:id/unmute", membershipHandler.Unmute)

	if err := srv.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("run server: %w", err)
	}

	return nil
}

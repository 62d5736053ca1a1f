package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/chatrizz/backend/internal/auth"
	"github.com/chatrizz/backend/internal/cache"
	"github.com/chatrizz/backend/internal/config"
	"github.com/chatrizz/backend/internal/database"
	"github.com/chatrizz/backend/internal/delivery"
	"github.com/chatrizz/backend/internal/handlers"
	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/metrics"
	"github.com/chatrizz/backend/internal/middleware"
	"github.com/chatrizz/backend/internal/realtime"
	"github.com/chatrizz/backend/internal/store"
	"github.com/chatrizz/backend/internal/telemetry"
	"github.com/chatrizz/backend/internal/translate"
)

func main() {
	// .env is optional; system environment still applies
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("ChatRizz backend starting",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "chatrizz-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TraceSampleRate,
	})
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	}

	if err := database.Initialize(cfg); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("redis unavailable, unread counters disabled", zap.Error(err))
			redisClient = nil
		}
	}

	st := store.New(database.DB)
	authService := auth.NewService(database.DB, []byte(cfg.JWTSecret), cfg.TokenExpiry)

	var provider translate.Provider
	if cfg.TranslateURL != "" {
		provider = translate.NewHTTPProvider(cfg.TranslateURL, cfg.TranslateAPIKey, cfg.TranslateTimeout)
	} else {
		logger.Log.Warn("no translation provider configured, messages pass through untranslated")
	}
	gateway := translate.NewGateway(provider, cfg.TranslateTimeout)

	hub := realtime.NewHub()
	tracker := delivery.New(st, hub)

	wsHandler := realtime.NewHandler(hub, authService, st)
	presence := realtime.NewPresenceManager(hub, st, realtime.DefaultPresenceConfig())
	wsHandler.SetPresenceManager(presence)
	presence.Start()
	defer presence.Stop()

	h := handlers.New(st, hub, tracker, gateway, redisClient, authService)
	h.RegisterRealtimeHandlers(presence)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("chatrizz-backend"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "chatrizz-backend",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.AuthMiddleware(), h.Me)
		}

		chats := api.Group("/chats")
		{
			chats.Use(h.AuthMiddleware())
			chats.POST("", h.CreateRoom)
			chats.GET("", h.ListRooms)
			chats.GET("/:id", h.GetRoom)
			chats.POST("/:id/messages", h.SendMessage)
			chats.GET("/:id/messages", h.ListMessages)
		}

		messages := api.Group("/messages")
		{
			messages.Use(h.AuthMiddleware())
			messages.POST("/:id/delivered", h.MarkDelivered)
			messages.POST("/:id/read", h.MarkRead)
		}

		api.POST("/translate", h.AuthMiddleware(), h.Translate)

		// WebSocket endpoint, auth via ?token=... or Authorization header
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx); err != nil {
		logger.Log.Warn("websocket shutdown", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("forced shutdown", zap.Error(err))
	}
	if tp != nil {
		_ = tp.Shutdown(ctx)
	}

	logger.Log.Info("server exited")
}

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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"prico-realtime/internal/auth"
	"prico-realtime/internal/config"
	"prico-realtime/internal/db"
	"prico-realtime/internal/handlers"
	"prico-realtime/internal/middleware"
	"prico-realtime/internal/observability"
	"prico-realtime/internal/presence"
	"prico-realtime/internal/relay"
	"prico-realtime/internal/repositories"
	"prico-realtime/internal/telemetry"
)

const serviceName = "prico-realtime"

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	var presenceStore presence.Store
	if cfg.RedisURL != "" {
		presenceStore, err = presence.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
	} else {
		logger.Printf("REDIS_URL not set, using in-memory presence store")
		presenceStore = presence.NewMemoryStore()
	}
	defer presenceStore.Close()

	publisher := observability.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	observability.SetPublisher(publisher)
	defer publisher.Close()

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.realtime", serviceName, cfg.Env)

	communityRepo := repositories.NewCommunityRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	r := relay.NewRelay(logger, presenceStore, cfg.TypingWindow)
	go r.Run()

	verifier := auth.NewJWTVerifier(cfg.SigningKey)
	gateway := relay.NewGatewayHandler(r, verifier, logger)

	communityHandler := handlers.NewCommunityHandler(communityRepo, auditEmitter)
	messageHandler := handlers.NewMessageHandler(communityRepo, messageRepo, r, auditEmitter)
	presenceHandler := handlers.NewPresenceHandler(presenceStore)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", gateway.Handle)

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/communities", authMiddleware, communityHandler.CreateCommunity)
	router.GET("/communities", authMiddleware, communityHandler.ListCommunities)
	router.POST("/communities/:community_id/join", authMiddleware, communityHandler.JoinCommunity)
	router.POST("/communities/:community_id/leave", authMiddleware, communityHandler.LeaveCommunity)
	router.GET("/communities/:community_id/members", authMiddleware, communityHandler.ListMembers)
	router.POST("/communities/:community_id/channels", authMiddleware, communityHandler.CreateChannel)
	router.GET("/communities/:community_id/channels", authMiddleware, communityHandler.ListChannels)

	router.GET("/channels/:channel_id/messages", authMiddleware, messageHandler.GetChannelMessages)
	router.POST("/channels/:channel_id/messages", authMiddleware, messageHandler.PostChannelMessage)
	router.PATCH("/channels/:channel_id/messages/:message_id", authMiddleware, messageHandler.EditChannelMessage)
	router.DELETE("/channels/:channel_id/messages/:message_id", authMiddleware, messageHandler.DeleteChannelMessage)
	router.POST("/channels/:channel_id/messages/:message_id/reactions", authMiddleware, messageHandler.AddMessageReaction)

	router.GET("/presence", authMiddleware, presenceHandler.GetPresence)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.IsDevelopment())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Printf("listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	if err := r.Shutdown(shutdownCtx); err != nil {
		logger.Printf("relay shutdown error: %v", err)
	}
}

// Package main runs the video transcription and rewrite HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipscribe/backend/config"
	"github.com/clipscribe/backend/internal/middleware"
	"github.com/clipscribe/backend/internal/progress"
	"github.com/clipscribe/backend/internal/rewrite"
	"github.com/clipscribe/backend/internal/session"
	"github.com/clipscribe/backend/internal/transcribe"
	"github.com/clipscribe/backend/internal/workflow"
	redisclient "github.com/clipscribe/backend/pkg/redis"
	"github.com/clipscribe/backend/pkg/response"
	"github.com/clipscribe/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour

	// Session state: Redis when available, in-memory for single-node runs.
	var sessions session.Store
	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory sessions", zap.Error(err))
		sessions = session.NewMemoryStore(sessionTTL)
	} else {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb.Client, sessionTTL, logger)
	}

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:            cfg.AWS.Region,
		AccessKeyID:       cfg.AWS.AccessKeyID,
		SecretAccessKey:   cfg.AWS.SecretAccessKey,
		VideoBucket:       cfg.AWS.VideoBucket,
		PresignExpireSecs: cfg.AWS.PresignExpireSecs,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	if err := s3Client.Ping(ctx); err != nil {
		if storage.IsAuthError(err) {
			logger.Fatal("storage credentials rejected", zap.Error(err))
		}
		logger.Warn("bucket check failed", zap.Error(err))
	}

	transcribeClient, err := transcribe.NewClient(ctx, cfg.AWS.Region, cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey)
	if err != nil {
		logger.Fatal("transcribe", zap.Error(err))
	}
	tracker := transcribe.NewTracker(transcribeClient, transcribe.Config{
		LanguageCode:     cfg.Transcribe.LanguageCode,
		MaxSpeakerLabels: cfg.Transcribe.MaxSpeakerLabels,
	}, logger)
	fetcher := transcribe.NewFetcher(time.Duration(cfg.Transcribe.FetchTimeoutSecs)*time.Second, logger)

	chunkRewriter, err := rewrite.NewAnthropicRewriter(rewrite.AnthropicConfig{
		APIKey:      cfg.Rewrite.APIKey,
		Model:       cfg.Rewrite.Model,
		MaxTokens:   cfg.Rewrite.MaxTokens,
		Temperature: cfg.Rewrite.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("anthropic", zap.Error(err))
	}
	engine := rewrite.NewEngine(chunkRewriter, cfg.Rewrite.MaxChunkChars, nil, logger)

	hub := progress.NewHub(logger)
	svc := workflow.NewService(s3Client, tracker, fetcher, engine, sessions, hub, logger)
	handler := workflow.NewHandler(svc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Session(cfg.Session.CookieName, sessionTTL))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.POST("/videos/upload", handler.Upload)
	router.POST("/transcriptions/start", handler.Start)
	router.POST("/transcriptions/retry", handler.Retry)
	router.GET("/transcriptions/status", handler.Status)
	router.GET("/transcriptions/transcript/download", handler.DownloadTranscript)

	rewriteLimiter := middleware.NewKeyRateLimiter(cfg.Rewrite.RatePerMinute, time.Minute, 1, 10*time.Minute)
	router.POST("/rewrite", middleware.RateLimit(rewriteLimiter), handler.Rewrite)
	router.POST("/rewrite/retry", middleware.RateLimit(rewriteLimiter), handler.Rewrite)
	router.GET("/rewrite/download", handler.DownloadRewritten)

	router.GET("/session", handler.Session)
	router.POST("/session/reset", handler.ResetSession)
	router.GET("/ws/progress", progress.ServeWS(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

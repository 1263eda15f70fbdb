package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "resto-chat/cmd/api/router/v1"
	cacheAdapter "resto-chat/internal/infrastructure/cache/adapter"
	"resto-chat/internal/infrastructure/config"
	"resto-chat/internal/infrastructure/database"
	pushAdapter "resto-chat/internal/infrastructure/push/adapter"
	pushport "resto-chat/internal/infrastructure/push/port"
	queueAdapter "resto-chat/internal/infrastructure/queue/adapter"
	qport "resto-chat/internal/infrastructure/queue/port"
	"resto-chat/internal/infrastructure/realtime"
	"resto-chat/internal/pkg/chat/application/task"
	"resto-chat/internal/pkg/chat/application/usecase"
	chatAdapter "resto-chat/internal/pkg/chat/persistence/repository/adapter"
	httpHandler "resto-chat/internal/pkg/chat/presentation/http"
	identityAdapter "resto-chat/internal/repository/adapter"
	directory "resto-chat/internal/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrations failed")
	}

	var dir directory.IdentityDirectory = identityAdapter.NewPgIdentityRepository(pool)
	if cache, err := cacheAdapter.NewRedisAdapter(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, identity cache disabled")
	} else {
		defer cache.Close()
		dir = identityAdapter.NewCachedIdentityRepository(dir, cache)
	}

	chatRepo := chatAdapter.NewPgChatRepository(pool)

	registry := realtime.NewRegistry(logger)
	rooms := realtime.NewRooms(logger)

	var queueClient qport.Client
	if qc, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		logger.Warn().Err(err).Msg("queue unavailable, push notifications disabled")
	} else {
		defer qc.Close()
		queueClient = qc
	}

	admitUC := usecase.NewAdmitConnectionUseCase(registry, rooms, dir, chatRepo, usecase.SystemClock, cfg.MaxClaimAge, logger)

	var sender pushport.Sender = pushAdapter.Discard{}
	if fcm, err := pushAdapter.NewFCMSenderFromEnv(); err != nil {
		logger.Warn().Err(err).Msg("push sender disabled")
	} else {
		sender = fcm
	}

	if queueServer, err := queueAdapter.NewAsynqServer(logger); err != nil {
		logger.Warn().Err(err).Msg("queue workers disabled")
	} else {
		task.RegisterNotifyMessageTask(queueServer, dir, sender, logger)
		go func() {
			if err := queueServer.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("queue server stopped")
			}
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	v1.RegisterRoutes(r, httpHandler.Deps{
		Registry:  registry,
		Rooms:     rooms,
		Directory: dir,
		Repo:      chatRepo,
		Queue:     queueClient,
		Admit:     admitUC,
		JWTSecret: cfg.JWTSecret,
		Log:       logger,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	admitUC.Wait()
	rooms.Close()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger
}

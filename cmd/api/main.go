package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendbot/internal/app"
	"attendbot/internal/bot"
	"attendbot/internal/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer stack.Close()
	logger := stack.Log
	defer func() { _ = logger.Sync() }()

	if err := runHTTP(ctx, stack); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(ctx context.Context, stack *app.Stack) error {
	cfg, logger := stack.Config, stack.Log
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := httpapi.Deps{
		DB:              stack.DB,
		Records:         stack.Repo,
		JWTSigningKey:   cfg.JWTSigningKey,
		JWTIssuer:       cfg.JWTIssuer,
		RateLimitPerMin: cfg.RateLimitPerMin,
		ExportLimit:     cfg.ExportLimit,
		Log:             logger.Named("http"),
	}
	if stack.Redis != nil {
		deps.Redis = stack.Redis
	}

	svc := stack.Service()
	deps.Service = svc
	deps.Dispatcher = stack.Dispatcher(svc)

	if cfg.DiscordPublicKey != "" {
		key, err := httpapi.ParsePublicKey(cfg.DiscordPublicKey)
		if err != nil {
			return err
		}
		deps.PublicKey = key
	} else {
		logger.Warn("DISCORD_PUBLIC_KEY not set, /interactions is disabled")
	}

	// REST-only session for follow-ups when the HTTP reply cannot be written.
	if cfg.DiscordToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return err
		}
		deps.FollowUp = bot.SessionResponder{Session: session}
	}

	archiverDone, err := stack.StartInProcessArchiver(ctx)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpapi.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	err = httpapi.ListenAndServe(ctx, srv, logger)
	if archiverDone != nil {
		<-archiverDone
	}
	logger.Info("server exited")
	return err
}

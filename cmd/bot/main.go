package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"attendbot/internal/app"
	"attendbot/internal/bot"
)

// Bot connects to the platform gateway and answers slash commands until interrupted.
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

	if err := run(ctx, stack); err != nil {
		logger.Fatal("bot stopped", zap.Error(err))
	}
}

func run(ctx context.Context, stack *app.Stack) error {
	cfg, logger := stack.Config, stack.Log
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	archiverDone, err := stack.StartInProcessArchiver(ctx)
	if err != nil {
		return err
	}

	dispatcher := stack.Dispatcher(stack.Service())
	detach := bot.Attach(ctx, session, dispatcher)
	defer detach()

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("gateway ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})

	if err := session.Open(); err != nil {
		return err
	}
	defer session.Close()

	created, err := bot.Register(session, cfg.DiscordAppID, cfg.DiscordGuildID)
	if err != nil {
		return err
	}
	scope := "global"
	if cfg.DiscordGuildID != "" {
		scope = "guild " + cfg.DiscordGuildID
	}
	logger.Info("slash commands registered", zap.Int("count", len(created)), zap.String("scope", scope))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	if archiverDone != nil {
		<-archiverDone
	}
	return nil
}

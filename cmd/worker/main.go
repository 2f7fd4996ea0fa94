package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"attendbot/internal/app"
)

// Worker consumes record events from redis and archives proofs to Cloudinary.
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
		logger.Fatal("worker failed", zap.Error(err))
	}
}

func run(ctx context.Context, stack *app.Stack) error {
	logger := stack.Log
	if stack.Config.QueueBackend != app.QueueRedis {
		return errors.New("worker needs QUEUE_BACKEND=redis")
	}
	archiver := stack.Archiver()
	if archiver == nil {
		return errors.New("worker needs a valid CLOUDINARY_URL")
	}

	messages, err := stack.Queue.Consume(ctx)
	if err != nil {
		return err
	}

	logger.Info("worker started, waiting for messages",
		zap.String("queue", stack.Config.QueueKey),
		zap.String("redis", stack.Config.RedisAddr))
	archiver.Run(ctx, messages)
	logger.Info("worker stopped")
	return nil
}

// Package app opens the resources shared by the binaries from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"attendbot/internal/archive"
	"attendbot/internal/attendance"
	"attendbot/internal/bot"
	"attendbot/internal/cloudinary"
	"attendbot/internal/config"
	"attendbot/internal/httpmiddleware"
	"attendbot/internal/logging"
	"attendbot/internal/queue"
	"attendbot/internal/store"
)

// Queue backends.
const (
	QueueNone   = "none"
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Stack holds the opened resources. Redis and Queue are nil when the backend does not need them.
type Stack struct {
	Config config.App
	Log    *zap.Logger
	DB     *store.DB
	Redis  *store.Redis
	Queue  queue.Queue
	Repo   *attendance.Repository

	uploader *cloudinary.Client
}

// Bootstrap loads config, builds the logger, opens and migrates the database and
// connects the configured queue backend.
func Bootstrap(ctx context.Context) (*Stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	s, err := Open(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return s, nil
}

// Open builds a Stack from an already loaded config.
func Open(ctx context.Context, cfg config.App, log *zap.Logger) (*Stack, error) {
	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Stack{Config: cfg, Log: log, DB: db, Repo: attendance.NewRepository(db.Client)}

	switch cfg.QueueBackend {
	case "", QueueNone:
	case QueueMemory:
		s.Queue = queue.NewInMemory(64)
	case QueueRedis:
		s.Redis = store.NewRedis(cfg.RedisAddr)
		if !s.Redis.Healthy(ctx) {
			log.Warn("redis not reachable yet", zap.String("addr", cfg.RedisAddr))
		}
		rq := queue.NewRedisQueue(s.Redis.Client, cfg.QueueKey)
		rq.OnError(func(err error) { log.Warn("queue receive failed", zap.Error(err)) })
		s.Queue = rq
	default:
		s.Close()
		return nil, fmt.Errorf("unsupported queue backend %q", cfg.QueueBackend)
	}

	if cfg.CloudinaryURL != "" {
		s.uploader, err = cloudinary.FromURL(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			log.Warn("proof archiving disabled", zap.Error(err))
		}
	}
	return s, nil
}

// Service builds the attendance service. Record events are published only when something
// will consume them: always for redis, for memory only while an in-process archiver runs.
func (s *Stack) Service() *attendance.Service {
	opts := []attendance.Option{attendance.WithLogger(s.Log.Named("attendance"))}
	switch {
	case s.Config.QueueBackend == QueueRedis:
		opts = append(opts, attendance.WithPublisher(s.Queue))
	case s.Config.QueueBackend == QueueMemory && s.uploader != nil:
		opts = append(opts, attendance.WithPublisher(s.Queue))
	}
	return attendance.NewService(s.Repo, opts...)
}

// Dispatcher builds the command dispatcher with the per-owner throttle.
func (s *Stack) Dispatcher(h bot.Handlers) *bot.Dispatcher {
	var limiter bot.Limiter
	if n := s.Config.CommandRatePerMin; n > 0 {
		limiter = httpmiddleware.NewTokenBucket(n, n)
	}
	return bot.NewDispatcher(h, limiter, s.Log.Named("bot"))
}

// Archiver returns the proof archiver, or nil when Cloudinary is not configured.
func (s *Stack) Archiver() *archive.Archiver {
	if s.uploader == nil {
		return nil
	}
	return archive.New(s.Repo, s.uploader, s.Log.Named("archive"))
}

// StartInProcessArchiver runs the archiver on the memory queue until ctx ends.
// It returns a channel closed once the archiver stops, or nil when nothing was started.
func (s *Stack) StartInProcessArchiver(ctx context.Context) (<-chan struct{}, error) {
	if s.Config.QueueBackend != QueueMemory {
		return nil, nil
	}
	a := s.Archiver()
	if a == nil {
		s.Log.Info("memory queue selected without CLOUDINARY_URL, proofs will not be archived")
		return nil, nil
	}
	msgs, err := s.Queue.Consume(ctx)
	if err != nil {
		return nil, fmt.Errorf("consume queue: %w", err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run(ctx, msgs)
	}()
	return done, nil
}

// Close releases the database and redis connections.
func (s *Stack) Close() {
	if err := s.DB.Close(); err != nil {
		s.Log.Warn("close database", zap.Error(err))
	}
	if err := s.Redis.Close(); err != nil {
		s.Log.Warn("close redis", zap.Error(err))
	}
}

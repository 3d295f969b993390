package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/telehealth-scheduling/internal/config"
	"github.com/carebridge/telehealth-scheduling/internal/db"
	"github.com/carebridge/telehealth-scheduling/internal/events"
	"github.com/carebridge/telehealth-scheduling/internal/logger"
	redisclient "github.com/carebridge/telehealth-scheduling/internal/redis"
	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

// The expiry worker rejects pending slot requests that nobody decided in
// time, through the exact same transition a doctor's rejection takes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("expiry-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("pending_ttl", cfg.PendingTTL),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		zlog.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	zlog.Info("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		zlog.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			zlog.Warn("error closing redis", zap.Error(err))
		}
	}()
	zlog.Info("connected to Redis")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, zlog)
		if err != nil {
			zlog.Fatal("rabbitmq connection error", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	repo := schedule.NewPgRepository(pgPool)
	locker := redisclient.NewSlotLocker(rdb, cfg.LockTTL)
	booking := schedule.NewBooking(repo, locker, publisher, cfg.PendingTTL, zlog)

	// Run once at startup
	runOnce(rootCtx, booking, zlog)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			zlog.Info("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, booking, zlog)
		}
	}
}

func runOnce(ctx context.Context, booking *schedule.Booking, zlog *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := booking.ExpireStalePending(runCtx); err != nil {
		zlog.Error("expiry run error", zap.Error(err))
		return
	}
	zlog.Info("expiry run complete", zap.Duration("took", time.Since(start)))
}

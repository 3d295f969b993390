package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/telehealth-scheduling/internal/api"
	"github.com/carebridge/telehealth-scheduling/internal/config"
	"github.com/carebridge/telehealth-scheduling/internal/db"
	"github.com/carebridge/telehealth-scheduling/internal/events"
	"github.com/carebridge/telehealth-scheduling/internal/logger"
	redisclient "github.com/carebridge/telehealth-scheduling/internal/redis"
	"github.com/carebridge/telehealth-scheduling/internal/schedule"
)

const version = "1.0.0"

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

	zlog.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
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
		zlog.Info("connected to RabbitMQ")
	}

	repo := schedule.NewPgRepository(pgPool)
	locker := redisclient.NewSlotLocker(rdb, cfg.LockTTL)

	defaults := schedule.Defaults{
		ConsultationDuration:  config.DefaultConsultationDuration,
		BufferTime:            config.DefaultBufferTime,
		MaxAppointmentsPerDay: config.DefaultMaxAppointmentsPerDay,
		HolidayRecurrence:     schedule.HolidayRecurrence(cfg.HolidayRecurrence),
	}

	scheduleSvc := schedule.NewService(repo, defaults, zlog)
	booking := schedule.NewBooking(repo, locker, publisher, cfg.PendingTTL, zlog)
	resolver := schedule.NewResolver(repo, defaults.HolidayRecurrence)

	handlers := api.NewHandlers(scheduleSvc, booking, resolver, zlog)
	router := api.NewRouter(api.RouterConfig{
		Handlers: handlers,
		PgPool:   pgPool,
		Redis:    rdb,
		Logger:   zlog,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	zlog.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

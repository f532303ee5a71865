package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-api/internal/api/handlers/notification"
	"github.com/aliskhannn/notification-api/internal/api/router"
	"github.com/aliskhannn/notification-api/internal/api/server"
	"github.com/aliskhannn/notification-api/internal/config"
	"github.com/aliskhannn/notification-api/internal/model"
	"github.com/aliskhannn/notification-api/internal/rabbitmq/queue"
	"github.com/aliskhannn/notification-api/internal/repository/document"
	"github.com/aliskhannn/notification-api/internal/schedule"
	notifsvc "github.com/aliskhannn/notification-api/internal/service/notification"
	"github.com/aliskhannn/notification-api/internal/store/docstore/postgres"
	"github.com/aliskhannn/notification-api/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	if err := postgres.Migrate(cfg.Database.Master.DSN()); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	err = postgres.Provision(ctx, db, cfg.Store.Collection, cfg.Store.PartitionKeyPath, cfg.Store.DefaultTTL)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to provision document collection")
	}

	container := postgres.NewContainer(db, cfg.Store.Collection)
	repo := document.NewRepository[model.Notification](container, model.DefaultCodec, "notification",
		document.WithImmutablePaths(cfg.Store.PartitionKeyPath, "/"+model.DiscriminatorField))

	dbNum, err := strconv.Atoi(cfg.Redis.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse redis database")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, dbNum)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	scheduleQueue := schedule.NewQueue[model.Notification](schedule.NewRedisSortedSet(rdb.Client), model.DefaultCodec)

	// Staging events are optional; the service skips them when publisher is nil.
	var publisher interface {
		Publish(queue.StagedMessage, retry.Strategy) error
	}
	closeStaging := func() {}
	if cfg.RabbitMQ.Enabled {
		staging, closeFn, err := connectStaging(cfg.RabbitMQ)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to set up staging queue")
		}
		publisher, closeStaging = staging, closeFn
	}

	service := notifsvc.NewService(repo, scheduleQueue, publisher, notifsvc.Options{
		QueueName:  cfg.Schedule.Queue,
		Resolution: cfg.Schedule.Resolution,
		Workers:    cfg.Workers.Count,
	})
	notifHandler := notification.NewHandler(service, val, model.DefaultCodec, cfg)

	sweeper := worker.NewSweeper(container, cfg.Store.SweepInterval)
	go sweeper.Run(ctx, cfg.Retry)

	r := router.New(notifHandler)
	s := server.New(cfg.Server, r)

	go func() {
		zlog.Logger.Info().Str("addr", s.Addr).Msg("http server started")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := rdb.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close redis client")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}

	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
		}
	}

	closeStaging()
}

// connectStaging opens a RabbitMQ channel and declares the staging topology.
// The returned func closes the channel and the connection.
func connectStaging(cfg config.RabbitMQ) (*queue.StagingQueue, func(), error) {
	conn, err := rabbitmq.Connect(cfg.URL(), cfg.Retries, cfg.Pause)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := queue.NewStagingQueue(ch, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("declare staging queue: %w", err)
	}

	closeFn := func() {
		if err := ch.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ channel")
		}
		if err := conn.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
		}
	}

	return q, closeFn, nil
}

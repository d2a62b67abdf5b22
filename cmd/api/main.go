package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/api"
	v1 "github.com/coding-shalabh/nexora-api-sub000/internal/api/v1"
	"github.com/coding-shalabh/nexora-api-sub000/internal/config"
	"github.com/coding-shalabh/nexora-api-sub000/internal/database"
	middleware "github.com/coding-shalabh/nexora-api-sub000/internal/error"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/metrics"
	"github.com/coding-shalabh/nexora-api-sub000/internal/ratelimit"
	"github.com/coding-shalabh/nexora-api-sub000/internal/registry"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/sequence"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
	redisclient "github.com/coding-shalabh/nexora-api-sub000/pkg/redis"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			database.NewConnection,
			NewMQConnection,
			NewEventPublisher,
			NewRedisClient,
			NewCheckpointStore,
			NewLimiter,
			NewFlusher,
			NewHTTPClient,
			NewRegistry,
			metrics.NewMetrics,

			repository.NewTransactionManager,
			repository.NewChannelAccountRepository,
			repository.NewMessageEventRepository,
			repository.NewThreadRepository,
			repository.NewContactRepository,
			repository.NewWalletRepository,
			repository.NewWalletTransactionRepository,
			repository.NewUsageEventRepository,
			repository.NewConsentRepository,
			repository.NewOptOutRepository,
			repository.NewSequenceRepository,
			repository.NewEnrollmentRepository,
			repository.NewStepRunRepository,
			repository.NewFollowUpTaskRepository,

			NewMeter,
			service.NewConsentService,
			NewChannelService,
			NewEnrollmentService,

			NewFiberApp,
			v1.NewHandler,
		),
		fx.Invoke(registerReplyListener, startFlusher, startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(":" + cfg.API.Port); err != nil {
					logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// registerReplyListener wires pause-on-reply after both services exist.
func registerReplyListener(channels service.ChannelService, enrollments sequence.EnrollmentService) {
	channels.RegisterReplyListener(enrollments)
}

func startFlusher(flusher *ratelimit.Flusher, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			flusher.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			flusher.Stop()
			return nil
		},
	})
}

func NewFiberApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewEventPublisher(rabbit *mq.RabbitMQ, logger *zap.Logger) (events.Publisher, error) {
	if err := rabbit.DeclareExchange(events.Exchange); err != nil {
		return nil, err
	}

	pub, err := rabbit.CreatePublisher()
	if err != nil {
		return nil, err
	}

	return events.NewPublisher(pub, logger), nil
}

func NewRedisClient(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	return redisclient.NewClient(context.Background(), cfg.Redis, logger)
}

func NewCheckpointStore(rdb *redis.Client, cfg *config.Config) ratelimit.CheckpointStore {
	return ratelimit.NewRedisCheckpointStore(rdb, cfg.RateLimit.CheckpointTTL)
}

func NewLimiter(store ratelimit.CheckpointStore, logger *zap.Logger) *ratelimit.MemoryLimiter {
	return ratelimit.NewLimiter(store, logger)
}

func NewFlusher(limiter *ratelimit.MemoryLimiter, store ratelimit.CheckpointStore,
	cfg *config.Config, logger *zap.Logger) *ratelimit.Flusher {
	return ratelimit.NewFlusher(limiter, store, cfg.RateLimit, logger)
}

func NewHTTPClient(cfg *config.Config) httpclient.HTTPClient {
	return httpclient.NewHTTPClient(cfg.Adapter.Timeout)
}

func NewRegistry(accounts repository.ChannelAccountRepository, cfg *config.Config,
	client httpclient.HTTPClient, logger *zap.Logger) registry.Registry {
	return registry.NewRegistry(accounts, cfg.Adapter, client, logger)
}

func NewMeter(cfg *config.Config, txManager repository.TxManager, wallets repository.WalletRepository,
	ledger repository.WalletTransactionRepository, usageEvents repository.UsageEventRepository,
	messages repository.MessageEventRepository, publisher events.Publisher,
	m *metrics.Metrics, logger *zap.Logger) usage.Meter {
	return usage.NewMeter(cfg.Usage, txManager, wallets, ledger, usageEvents, messages, publisher, m, logger)
}

func NewChannelService(cfg *config.Config, reg registry.Registry, limiter *ratelimit.MemoryLimiter,
	meter usage.Meter, consent service.ConsentService, accounts repository.ChannelAccountRepository,
	messages repository.MessageEventRepository, threads repository.ThreadRepository,
	contacts repository.ContactRepository, publisher events.Publisher,
	m *metrics.Metrics, logger *zap.Logger) service.ChannelService {
	return service.NewChannelService(cfg.Service, reg, limiter, meter, consent, accounts,
		messages, threads, contacts, publisher, m, logger)
}

func NewEnrollmentService(sequences repository.SequenceRepository, enrollments repository.EnrollmentRepository,
	stepRuns repository.StepRunRepository, txManager repository.TxManager,
	logger *zap.Logger) sequence.EnrollmentService {
	return sequence.NewEnrollmentService(sequences, enrollments, stepRuns, txManager, logger)
}

package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/config"
	"github.com/coding-shalabh/nexora-api-sub000/internal/database"
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

	"github.com/redis/go-redis/v9"
)

// The sequence worker runs the step executor: it owns the polling loop and
// sends through the same channel service the API uses.
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
			NewExecutor,
		),
		fx.Invoke(registerReplyListener, runExecutor),
	).Run()
}

func runExecutor(executor *sequence.Executor, logger *zap.Logger, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			executor.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			executor.Stop()
			logger.Info("sequence worker stopped")
			return nil
		},
	})
}

func registerReplyListener(channels service.ChannelService, enrollments sequence.EnrollmentService) {
	channels.RegisterReplyListener(enrollments)
}

func NewExecutor(cfg *config.Config, sequences repository.SequenceRepository,
	enrollments repository.EnrollmentRepository, stepRuns repository.StepRunRepository,
	tasks repository.FollowUpTaskRepository, contacts repository.ContactRepository,
	txManager repository.TxManager, channels service.ChannelService,
	m *metrics.Metrics, logger *zap.Logger) *sequence.Executor {
	return sequence.NewExecutor(cfg.Sequence, sequences, enrollments, stepRuns, tasks,
		contacts, txManager, channels, m, logger)
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

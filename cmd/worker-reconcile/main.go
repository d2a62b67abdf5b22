package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/config"
	"github.com/coding-shalabh/nexora-api-sub000/internal/consumers"
	"github.com/coding-shalabh/nexora-api-sub000/internal/database"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/metrics"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
)

// The reconcile worker consumes vendor cost reports and posts corrective
// wallet transactions.
func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			database.NewConnection,
			NewMQConnection,
			NewMQConsumer,
			NewEventPublisher,
			metrics.NewMetrics,

			repository.NewTransactionManager,
			repository.NewMessageEventRepository,
			repository.NewWalletRepository,
			repository.NewWalletTransactionRepository,
			repository.NewUsageEventRepository,

			NewMeter,
			consumers.NewReconcileConsumer,
		),
		fx.Invoke(runReconcileConsumer),
	).Run()
}

func runReconcileConsumer(consumer consumers.ReconcileConsumer, rabbit *mq.RabbitMQ,
	logger *zap.Logger, lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rabbit.DeclareTopology([]string{"billing.reconcile"}); err != nil {
				logger.Error("declare topology failed", zap.Error(err))
				return err
			}

			go func() {
				if err := consumer.Consume(appCtx); err != nil {
					logger.Error("consumer exited", zap.Error(err))
				}
			}()

			logger.Info("reconcile consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping reconcile consumer")
			cancel()
			return rabbit.Close()
		},
	})
}

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.RabbitMQ, error) {
	return mq.NewConnection(cfg.RabbitMQ, logger)
}

func NewMQConsumer(rabbit *mq.RabbitMQ) (mq.Consumer, error) {
	return rabbit.CreateConsumer()
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

func NewMeter(cfg *config.Config, txManager repository.TxManager, wallets repository.WalletRepository,
	ledger repository.WalletTransactionRepository, usageEvents repository.UsageEventRepository,
	messages repository.MessageEventRepository, publisher events.Publisher,
	m *metrics.Metrics, logger *zap.Logger) usage.Meter {
	return usage.NewMeter(cfg.Usage, txManager, wallets, ledger, usageEvents, messages, publisher, m, logger)
}

package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/metrics"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
)

// Meter is the billing entry point. RecordUsage debits the wallet atomically
// with the usage event; Reconcile later trues the ledger up against
// vendor-reported costs.
type Meter interface {
	RecordUsage(ctx context.Context, cmd RecordUsageCommand) (*model.UsageEvent, error)
	CheckBalance(ctx context.Context, tenantID, workspaceID string, estimatedCost int64) (BalanceCheck, error)
	Reconcile(ctx context.Context, cmd ReconcileCommand) (*Reconciliation, error)
}

type Config struct {
	LowBalanceThreshold  int64 `mapstructure:"low_balance_threshold"`
	MaterialityThreshold int64 `mapstructure:"materiality_threshold"`
}

type meter struct {
	cfg       Config
	txManager repository.TxManager
	wallets   repository.WalletRepository
	ledger    repository.WalletTransactionRepository
	usage     repository.UsageEventRepository
	messages  repository.MessageEventRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

var _ Meter = (*meter)(nil)

func NewMeter(cfg Config, txManager repository.TxManager, wallets repository.WalletRepository,
	ledger repository.WalletTransactionRepository, usage repository.UsageEventRepository,
	messages repository.MessageEventRepository, publisher events.Publisher,
	m *metrics.Metrics, logger *zap.Logger) Meter {
	return &meter{
		cfg:       cfg,
		txManager: txManager,
		wallets:   wallets,
		ledger:    ledger,
		usage:     usage,
		messages:  messages,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// RecordUsage creates the usage event, appends a DEBIT ledger entry and
// decrements the wallet balance as one transaction. A balance going negative
// does not block the debit; it only triggers a low-balance event.
func (m *meter) RecordUsage(ctx context.Context, cmd RecordUsageCommand) (*model.UsageEvent, error) {
	cost := EstimateCost(cmd.ChannelType, cmd.EventType, cmd.Units, cmd.DurationSeconds)

	event := &model.UsageEvent{
		TenantID:         cmd.TenantID,
		WorkspaceID:      cmd.WorkspaceID,
		ChannelAccountID: cmd.ChannelAccountID,
		ChannelType:      cmd.ChannelType,
		EventType:        cmd.EventType,
		Units:            cmd.Units,
		DurationSeconds:  cmd.DurationSeconds,
		EstimatedCost:    cost,
		MessageEventID:   cmd.MessageEventID,
		CreatedAt:        time.Now().UTC(),
	}

	var balanceAfter int64
	err := m.txManager.WithTx(ctx, func(txCtx context.Context) error {
		wallet, err := m.wallets.GetForUpdate(txCtx, cmd.TenantID, cmd.WorkspaceID)
		if err != nil {
			return err
		}

		if err := m.usage.Create(txCtx, event); err != nil {
			return err
		}

		tx := &model.WalletTransaction{
			WalletID:       wallet.ID,
			TxType:         model.TxTypeDebit,
			Amount:         cost,
			Reference:      fmt.Sprintf("usage:%s", cmd.EventType),
			IdempotencyKey: uuid.NewString(),
			CreatedAt:      time.Now().UTC(),
		}
		if err := m.ledger.Create(txCtx, tx); err != nil {
			return err
		}

		balanceAfter = wallet.Balance - cost
		return m.wallets.UpdateBalance(txCtx, wallet.ID, balanceAfter)
	})
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.UsageRecorded.WithLabelValues(string(cmd.ChannelType), cmd.EventType).Inc()
		m.metrics.WalletBalance.WithLabelValues(cmd.TenantID, cmd.WorkspaceID).Set(float64(balanceAfter))
	}

	if balanceAfter < m.cfg.LowBalanceThreshold {
		m.publisher.Publish(ctx, events.EventWalletLowBalance, cmd.TenantID, map[string]interface{}{
			"workspaceId": cmd.WorkspaceID,
			"balance":     balanceAfter,
			"threshold":   m.cfg.LowBalanceThreshold,
		})
		m.logger.Warn("wallet balance below threshold",
			zap.String("tenantID", cmd.TenantID),
			zap.String("workspaceID", cmd.WorkspaceID),
			zap.Int64("balance", balanceAfter))
	}

	m.logger.Info("usage recorded",
		zap.String("tenantID", cmd.TenantID),
		zap.String("eventType", cmd.EventType),
		zap.Int64("estimatedCost", cost))

	return event, nil
}

// CheckBalance is a pre-flight advisory only; it takes no lock and the answer
// may be stale by the time the send happens.
func (m *meter) CheckBalance(ctx context.Context, tenantID, workspaceID string, estimatedCost int64) (BalanceCheck, error) {
	wallet, err := m.wallets.GetByTenantAndWorkspace(ctx, tenantID, workspaceID)
	if err != nil {
		return BalanceCheck{}, err
	}

	return BalanceCheck{Balance: wallet.Balance, Sufficient: wallet.Balance >= estimatedCost}, nil
}

// Reconcile matches vendor-reported costs to usage events through the owning
// message event and writes actual cost exactly once per event. The per-event
// marks and the corrective ledger entry commit as one transaction, so a batch
// that dies halfway leaves no event marked without its drift accounted for.
// Rerunning the same batch is a no-op because the correction's idempotency
// key is derived from the period.
func (m *meter) Reconcile(ctx context.Context, cmd ReconcileCommand) (*Reconciliation, error) {
	result := &Reconciliation{}
	now := time.Now().UTC()

	idempotencyKey := fmt.Sprintf("reconcile:%s:%s:%s:%d:%d",
		cmd.TenantID, cmd.WorkspaceID, cmd.ChannelType, cmd.PeriodStart.Unix(), cmd.PeriodEnd.Unix())

	err := m.txManager.WithTx(ctx, func(txCtx context.Context) error {
		for _, pc := range cmd.ProviderCosts {
			msg, err := m.messages.GetByExternalID(pc.ExternalID)
			if err != nil {
				if errors.Is(err, repository.ErrMessageNotFound) {
					result.Skipped++
					continue
				}
				return err
			}

			event, err := m.usage.GetByMessageEventID(msg.ID)
			if err != nil {
				if errors.Is(err, repository.ErrUsageEventNotFound) {
					result.Skipped++
					continue
				}
				return err
			}

			if event.ReconciledAt != nil {
				result.Skipped++
				continue
			}

			if err := m.usage.MarkReconciled(txCtx, event.ID, pc.ActualCost, now); err != nil {
				return err
			}

			result.Matched++
			result.EstimatedTotal += event.EstimatedCost
			result.ActualTotal += pc.ActualCost
		}

		result.Adjustment = result.ActualTotal - result.EstimatedTotal
		if abs(result.Adjustment) <= m.cfg.MaterialityThreshold || result.Matched == 0 {
			return nil
		}

		wallet, err := m.wallets.GetForUpdate(txCtx, cmd.TenantID, cmd.WorkspaceID)
		if err != nil {
			return err
		}

		txType := model.TxTypeDebit
		if result.Adjustment < 0 {
			txType = model.TxTypeCredit
		}

		tx := &model.WalletTransaction{
			WalletID:       wallet.ID,
			TxType:         txType,
			Amount:         abs(result.Adjustment),
			Reference:      fmt.Sprintf("reconcile:%s", cmd.ChannelType),
			IdempotencyKey: idempotencyKey,
			CreatedAt:      now,
		}
		if err := m.ledger.Create(txCtx, tx); err != nil {
			// A duplicate key means this period's correction is already
			// posted. MySQL leaves the transaction usable after a failed
			// insert, so the marks above still commit.
			if errors.Is(err, repository.ErrTransactionExists) {
				m.logger.Info("reconciliation adjustment already posted",
					zap.String("idempotencyKey", idempotencyKey))
				return nil
			}
			return err
		}

		if err := m.wallets.UpdateBalance(txCtx, wallet.ID, wallet.Balance-result.Adjustment); err != nil {
			return err
		}

		result.AdjustmentPosted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.metrics != nil {
		m.metrics.ReconciledEvents.Add(float64(result.Matched))
		if result.AdjustmentPosted {
			m.metrics.ReconcileAdjusts.Inc()
		}
	}

	if result.AdjustmentPosted {
		m.logger.Info("reconciliation adjustment posted",
			zap.String("tenantID", cmd.TenantID),
			zap.Int64("adjustment", result.Adjustment),
			zap.Int("matched", result.Matched))
	}

	return result, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
)

const reconcileQueue = "billing.reconcile"

// ReconcileConsumer processes vendor cost reports. Each message is one
// reconciliation period for one tenant/workspace/channel; reprocessing a
// delivered message is safe because the corrective transaction key is derived
// from the period.
type ReconcileConsumer interface {
	Consume(ctx context.Context) error
}

type reconcileConsumer struct {
	meter    usage.Meter
	consumer mq.Consumer
	logger   *zap.Logger
}

func NewReconcileConsumer(meter usage.Meter, consumer mq.Consumer, logger *zap.Logger) ReconcileConsumer {
	return &reconcileConsumer{meter: meter, consumer: consumer, logger: logger}
}

type providerCostReport struct {
	TenantID    string    `json:"tenant_id"`
	WorkspaceID string    `json:"workspace_id"`
	ChannelType string    `json:"channel_type"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Costs       []struct {
		ExternalID string `json:"external_id"`
		ActualCost int64  `json:"actual_cost"`
	} `json:"costs"`
}

func (r *reconcileConsumer) Consume(ctx context.Context) error {
	return r.consumer.Consume(ctx, 1, reconcileQueue, r.handleMessage)
}

func (r *reconcileConsumer) handleMessage(ctx context.Context, body []byte) error {
	var report providerCostReport
	if err := json.Unmarshal(body, &report); err != nil {
		r.logger.Warn("invalid cost report", zap.Error(err))
		return err
	}

	cmd := usage.ReconcileCommand{
		TenantID:    report.TenantID,
		WorkspaceID: report.WorkspaceID,
		ChannelType: model.ChannelType(report.ChannelType),
		PeriodStart: report.PeriodStart,
		PeriodEnd:   report.PeriodEnd,
	}
	for _, cost := range report.Costs {
		cmd.ProviderCosts = append(cmd.ProviderCosts, usage.ProviderCost{
			ExternalID: cost.ExternalID,
			ActualCost: cost.ActualCost,
		})
	}

	result, err := r.meter.Reconcile(ctx, cmd)
	if err != nil {
		// An unknown wallet means a misrouted report; do not requeue it.
		if errors.Is(err, repository.ErrWalletNotFound) {
			r.logger.Warn("cost report for unknown wallet dropped",
				zap.String("tenantID", report.TenantID),
				zap.String("workspaceID", report.WorkspaceID))
			return nil
		}

		r.logger.Error("reconciliation failed",
			zap.String("tenantID", report.TenantID),
			zap.Error(err))
		return mq.Temporary(err)
	}

	r.logger.Info("cost report reconciled",
		zap.String("tenantID", report.TenantID),
		zap.String("channelType", report.ChannelType),
		zap.Int("matched", result.Matched),
		zap.Int("skipped", result.Skipped),
		zap.Int64("adjustment", result.Adjustment),
		zap.Bool("adjustmentPosted", result.AdjustmentPosted))

	return nil
}

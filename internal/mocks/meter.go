package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
)

type Meter struct {
	mock.Mock
}

func (m *Meter) RecordUsage(ctx context.Context, cmd usage.RecordUsageCommand) (*model.UsageEvent, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageEvent), args.Error(1)
}

func (m *Meter) CheckBalance(ctx context.Context, tenantID, workspaceID string, estimatedCost int64) (usage.BalanceCheck, error) {
	args := m.Called(ctx, tenantID, workspaceID, estimatedCost)
	return args.Get(0).(usage.BalanceCheck), args.Error(1)
}

func (m *Meter) Reconcile(ctx context.Context, cmd usage.ReconcileCommand) (*usage.Reconciliation, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usage.Reconciliation), args.Error(1)
}

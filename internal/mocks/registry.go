package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

type Registry struct {
	mock.Mock
}

func (r *Registry) GetAdapter(ctx context.Context, accountID int64) (adapter.Adapter, error) {
	args := r.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(adapter.Adapter), args.Error(1)
}

func (r *Registry) InvalidateAdapter(accountID int64) {
	r.Called(accountID)
}

func (r *Registry) FindBestAdapter(ctx context.Context, tenantID string, contact *model.Contact, preferred []model.ChannelType) (adapter.Adapter, *model.ChannelAccount, error) {
	args := r.Called(ctx, tenantID, contact, preferred)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(adapter.Adapter), args.Get(1).(*model.ChannelAccount), args.Error(2)
}

func (r *Registry) RefreshHealth(ctx context.Context, accountID int64) (model.HealthStatus, error) {
	args := r.Called(ctx, accountID)
	return args.Get(0).(model.HealthStatus), args.Error(1)
}

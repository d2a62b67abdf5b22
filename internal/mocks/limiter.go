package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/ratelimit"
)

type Limiter struct {
	mock.Mock
}

func (l *Limiter) CheckLimit(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ratelimit.ActionType) ratelimit.Result {
	args := l.Called(ctx, channelAccountID, channelType, actionType)
	return args.Get(0).(ratelimit.Result)
}

func (l *Limiter) RecordAction(ctx context.Context, channelAccountID int64, channelType model.ChannelType, actionType ratelimit.ActionType) {
	l.Called(ctx, channelAccountID, channelType, actionType)
}

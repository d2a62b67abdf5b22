package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

type Adapter struct {
	mock.Mock
}

func (a *Adapter) ChannelType() model.ChannelType {
	args := a.Called()
	return args.Get(0).(model.ChannelType)
}

func (a *Adapter) SendMessage(ctx context.Context, msg adapter.OutboundMessage) (adapter.SendResult, error) {
	args := a.Called(ctx, msg)
	return args.Get(0).(adapter.SendResult), args.Error(1)
}

func (a *Adapter) SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (adapter.SendResult, error) {
	args := a.Called(ctx, templateID, variables, to)
	return args.Get(0).(adapter.SendResult), args.Error(1)
}

func (a *Adapter) ParseInboundWebhook(payload []byte) (adapter.InboundMessage, error) {
	args := a.Called(payload)
	return args.Get(0).(adapter.InboundMessage), args.Error(1)
}

func (a *Adapter) ParseStatusWebhook(payload []byte) (adapter.StatusUpdate, error) {
	args := a.Called(payload)
	return args.Get(0).(adapter.StatusUpdate), args.Error(1)
}

func (a *Adapter) ValidateCredentials(ctx context.Context) (adapter.CredentialCheck, error) {
	args := a.Called(ctx)
	return args.Get(0).(adapter.CredentialCheck), args.Error(1)
}

func (a *Adapter) HealthStatus(ctx context.Context) adapter.Health {
	args := a.Called(ctx)
	return args.Get(0).(adapter.Health)
}

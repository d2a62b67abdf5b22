package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
)

type ConsentService struct {
	mock.Mock
}

func (c *ConsentService) Grant(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	args := c.Called(ctx, tenantID, channelType, identifier)
	return args.Error(0)
}

func (c *ConsentService) Revoke(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	args := c.Called(ctx, tenantID, channelType, identifier)
	return args.Error(0)
}

func (c *ConsentService) RecordOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	args := c.Called(ctx, tenantID, channelType, identifier)
	return args.Error(0)
}

func (c *ConsentService) ClearOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	args := c.Called(ctx, tenantID, channelType, identifier)
	return args.Error(0)
}

func (c *ConsentService) CanMessage(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) (service.Verdict, error) {
	args := c.Called(ctx, tenantID, channelType, identifier)
	return args.Get(0).(service.Verdict), args.Error(1)
}

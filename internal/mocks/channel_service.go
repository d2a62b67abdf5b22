package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
)

type ChannelService struct {
	mock.Mock
}

func (c *ChannelService) SendMessage(ctx context.Context, cmd service.SendMessageCommand) (*service.SendMessageResult, error) {
	args := c.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendMessageResult), args.Error(1)
}

func (c *ChannelService) SendTemplate(ctx context.Context, cmd service.SendTemplateCommand) (*service.SendMessageResult, error) {
	args := c.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SendMessageResult), args.Error(1)
}

func (c *ChannelService) ProcessInboundWebhook(ctx context.Context, cmd service.WebhookCommand) (*service.InboundResult, error) {
	args := c.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InboundResult), args.Error(1)
}

func (c *ChannelService) ProcessStatusWebhook(ctx context.Context, cmd service.WebhookCommand) (*service.StatusResult, error) {
	args := c.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusResult), args.Error(1)
}

func (c *ChannelService) GetThreadMessages(ctx context.Context, query service.GetThreadMessagesQuery) (*service.ThreadMessagesResponse, error) {
	args := c.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ThreadMessagesResponse), args.Error(1)
}

func (c *ChannelService) RegisterReplyListener(l service.ReplyListener) {
	c.Called(l)
}

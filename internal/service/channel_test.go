package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/mocks"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/ratelimit"
	"github.com/coding-shalabh/nexora-api-sub000/internal/registry"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
)

type channelFixture struct {
	registry  *mocks.Registry
	adapter   *mocks.Adapter
	limiter   *mocks.Limiter
	meter     *mocks.Meter
	consent   *mocks.ConsentService
	accounts  *mocks.ChannelAccountRepository
	messages  *mocks.MessageEventRepository
	threads   *mocks.ThreadRepository
	contacts  *mocks.ContactRepository
	publisher *mocks.Publisher
	svc       service.ChannelService
}

func newChannelFixture() *channelFixture {
	f := &channelFixture{
		registry:  &mocks.Registry{},
		adapter:   &mocks.Adapter{},
		limiter:   &mocks.Limiter{},
		meter:     &mocks.Meter{},
		consent:   &mocks.ConsentService{},
		accounts:  &mocks.ChannelAccountRepository{},
		messages:  &mocks.MessageEventRepository{},
		threads:   &mocks.ThreadRepository{},
		contacts:  &mocks.ContactRepository{},
		publisher: &mocks.Publisher{},
	}
	f.svc = service.NewChannelService(service.Config{AdapterTimeout: time.Second},
		f.registry, f.limiter, f.meter, f.consent, f.accounts, f.messages, f.threads,
		f.contacts, f.publisher, nil, zap.NewNop())
	return f
}

func sendCommand() service.SendMessageCommand {
	return service.SendMessageCommand{
		TenantID:         "tenant-1",
		WorkspaceID:      "ws-1",
		ChannelAccountID: 5,
		To:               "+15550001",
		ContentType:      "text",
		Content:          "spring sale is on",
		EventType:        "WHATSAPP_MARKETING",
	}
}

func TestSendMessage_SuccessfulMarketingSend(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ChannelType").Return(model.ChannelTypeWhatsApp)
	f.consent.On("CanMessage", mock.Anything, "tenant-1", model.ChannelTypeWhatsApp, "+15550001").
		Return(service.Verdict{Allowed: true}, nil)
	f.limiter.On("CheckLimit", mock.Anything, int64(5), model.ChannelTypeWhatsApp, ratelimit.ActionMessage).
		Return(ratelimit.Result{Allowed: true})
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(&model.Thread{ID: 9, TenantID: "tenant-1", ContactID: 3}, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.MessageEvent).ID = 42
	}).Return(nil)
	f.limiter.On("RecordAction", mock.Anything, int64(5), model.ChannelTypeWhatsApp, ratelimit.ActionMessage).Return()
	f.adapter.On("SendMessage", mock.Anything, mock.Anything).
		Return(adapter.SendResult{ExternalID: "wamid.OK"}, nil)
	f.messages.On("Update", mock.Anything, mock.MatchedBy(func(e *model.MessageEvent) bool {
		return e.Status == model.MessageStatusSent && e.ExternalID != nil && *e.ExternalID == "wamid.OK"
	})).Return(nil)
	f.meter.On("RecordUsage", mock.Anything, mock.MatchedBy(func(cmd usage.RecordUsageCommand) bool {
		return cmd.EventType == "WHATSAPP_MARKETING" && cmd.Units == 1 && *cmd.MessageEventID == 42
	})).Return(&model.UsageEvent{EstimatedCost: 100}, nil)
	f.threads.On("Update", mock.Anything, mock.MatchedBy(func(th *model.Thread) bool {
		return th.LastMessagePreview == "spring sale is on"
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageSent, "tenant-1", mock.Anything).Return()

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(42), result.MessageEventID)
	assert.Equal(t, model.MessageStatusSent, result.Status)
	f.meter.AssertExpectations(t)
	f.threads.AssertExpectations(t)
}

func TestSendMessage_RateLimitedCreatesNoEvent(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ChannelType").Return(model.ChannelTypeWhatsApp)
	f.consent.On("CanMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(service.Verdict{Allowed: true}, nil)
	f.limiter.On("CheckLimit", mock.Anything, int64(5), model.ChannelTypeWhatsApp, ratelimit.ActionMessage).
		Return(ratelimit.Result{Allowed: false, RetryAfter: 30 * time.Second})

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, constants.ErrCodeRateLimited, result.ErrorCode)
	assert.Equal(t, 30*time.Second, result.RetryAfter)
	assert.Zero(t, result.MessageEventID)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendMessage_OptedOutBlocksBeforeRateCheck(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ChannelType").Return(model.ChannelTypeWhatsApp)
	f.consent.On("CanMessage", mock.Anything, "tenant-1", model.ChannelTypeWhatsApp, "+15550001").
		Return(service.Verdict{Allowed: false, Reason: constants.ErrCodeOptedOut}, nil)

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.Equal(t, constants.ErrCodeOptedOut, result.ErrorCode)
	f.limiter.AssertNotCalled(t, "CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessage_AdapterFailureRecordsNoUsage(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ChannelType").Return(model.ChannelTypeWhatsApp)
	f.consent.On("CanMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(service.Verdict{Allowed: true}, nil)
	f.limiter.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ratelimit.Result{Allowed: true})
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(&model.Thread{ID: 9, ContactID: 3}, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*model.MessageEvent).ID = 43
	}).Return(nil)
	f.limiter.On("RecordAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.adapter.On("SendMessage", mock.Anything, mock.Anything).
		Return(adapter.SendResult{}, errors.New(adapter.ErrorCodeServerError))
	f.messages.On("Update", mock.Anything, mock.MatchedBy(func(e *model.MessageEvent) bool {
		return e.Status == model.MessageStatusFailed && e.ErrorCode != nil && *e.ErrorCode == adapter.ErrorCodeServerError
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageFailed, mock.Anything, mock.Anything).Return()

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int64(43), result.MessageEventID, "failed sends still return the durable record")
	assert.Equal(t, constants.ErrCodeVendorError, result.ErrorCode)
	f.meter.AssertNotCalled(t, "RecordUsage", mock.Anything, mock.Anything)
}

func TestSendMessage_ChannelNotFound(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(nil, registry.ErrChannelNotFound)

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.Equal(t, constants.ErrCodeChannelNotFound, result.ErrorCode)
}

func TestSendMessage_CreatesThreadAndContactLazily(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ChannelType").Return(model.ChannelTypeSMS)
	f.consent.On("CanMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(service.Verdict{Allowed: true}, nil)
	f.limiter.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ratelimit.Result{Allowed: true})
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(nil, repository.ErrThreadNotFound)
	f.contacts.On("FindByIdentifier", "tenant-1", model.ChannelTypeSMS, "+15550001").
		Return(nil, repository.ErrContactNotFound)
	f.contacts.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Contact) bool {
		return c.Phone != nil && *c.Phone == "+15550001"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Contact).ID = 77
	}).Return(nil)
	f.threads.On("Create", mock.Anything, mock.MatchedBy(func(th *model.Thread) bool {
		return th.ContactID == 77 && th.Identifier == "+15550001"
	})).Return(nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.limiter.On("RecordAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	f.adapter.On("SendMessage", mock.Anything, mock.Anything).
		Return(adapter.SendResult{ExternalID: "SM1"}, nil)
	f.messages.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.meter.On("RecordUsage", mock.Anything, mock.Anything).Return(&model.UsageEvent{}, nil)
	f.threads.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageSent, mock.Anything, mock.Anything).Return()

	result, err := f.svc.SendMessage(context.Background(), sendCommand())

	require.NoError(t, err)
	assert.True(t, result.Success)
	f.contacts.AssertExpectations(t)
	f.threads.AssertExpectations(t)
}

type stubListener struct {
	tenantID  string
	contactID int64
	calls     int
}

func (s *stubListener) HandleInboundReply(ctx context.Context, tenantID string, contactID int64) error {
	s.tenantID = tenantID
	s.contactID = contactID
	s.calls++
	return nil
}

func TestProcessInboundWebhook_PersistsAndNotifiesListener(t *testing.T) {
	f := newChannelFixture()
	listener := &stubListener{}
	f.svc.RegisterReplyListener(listener)

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ParseInboundWebhook", mock.Anything).Return(adapter.InboundMessage{
		ExternalID:  "wamid.IN9",
		From:        "+15550001",
		Content:     "sounds good, tell me more",
		ContentType: "text",
		SentAt:      time.Now(),
	}, nil)
	f.accounts.On("GetByID", int64(5)).Return(&model.ChannelAccount{
		ID: 5, TenantID: "tenant-1", ChannelType: model.ChannelTypeWhatsApp, Enabled: true,
	}, nil)
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(&model.Thread{ID: 9, TenantID: "tenant-1", ContactID: 3, UnreadCount: 1}, nil)
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(e *model.MessageEvent) bool {
		return e.Direction == model.DirectionInbound && e.Status == model.MessageStatusDelivered
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.MessageEvent).ID = 55
	}).Return(nil)
	f.threads.On("Update", mock.Anything, mock.MatchedBy(func(th *model.Thread) bool {
		return th.UnreadCount == 2
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageReceived, "tenant-1", mock.Anything).Return()

	result, err := f.svc.ProcessInboundWebhook(context.Background(), service.WebhookCommand{
		ChannelAccountID: 5,
		Payload:          []byte(`{}`),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(55), result.MessageEventID)
	assert.Equal(t, 1, listener.calls)
	assert.Equal(t, int64(3), listener.contactID)
	f.consent.AssertNotCalled(t, "RecordOptOut", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessInboundWebhook_StopKeywordRecordsOptOut(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ParseInboundWebhook", mock.Anything).Return(adapter.InboundMessage{
		ExternalID: "SM77", From: "+15550001", Content: "STOP", ContentType: "text",
	}, nil)
	f.accounts.On("GetByID", int64(5)).Return(&model.ChannelAccount{
		ID: 5, TenantID: "tenant-1", ChannelType: model.ChannelTypeSMS, Enabled: true,
	}, nil)
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(&model.Thread{ID: 9, ContactID: 3}, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.threads.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.consent.On("RecordOptOut", mock.Anything, "tenant-1", model.ChannelTypeSMS, "+15550001").Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageReceived, mock.Anything, mock.Anything).Return()

	_, err := f.svc.ProcessInboundWebhook(context.Background(), service.WebhookCommand{
		ChannelAccountID: 5,
		Payload:          []byte(`{}`),
	})

	require.NoError(t, err)
	f.consent.AssertExpectations(t)
}

func TestProcessInboundWebhook_DuplicateExternalIDIsAbsorbed(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ParseInboundWebhook", mock.Anything).Return(adapter.InboundMessage{
		ExternalID: "wamid.DUP", From: "+15550001", Content: "hi",
	}, nil)
	f.accounts.On("GetByID", int64(5)).Return(&model.ChannelAccount{
		ID: 5, TenantID: "tenant-1", ChannelType: model.ChannelTypeWhatsApp, Enabled: true,
	}, nil)
	f.threads.On("GetByAccountAndIdentifier", int64(5), "+15550001").
		Return(&model.Thread{ID: 9, ContactID: 3}, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(repository.ErrMessageDuplicate)

	result, err := f.svc.ProcessInboundWebhook(context.Background(), service.WebhookCommand{
		ChannelAccountID: 5,
		Payload:          []byte(`{}`),
	})

	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	f.threads.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProcessStatusWebhook_AppliesStatusAsDelivered(t *testing.T) {
	f := newChannelFixture()

	ts := time.Now().UTC()
	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ParseStatusWebhook", mock.Anything).Return(adapter.StatusUpdate{
		MessageID: "wamid.OUT2", Status: model.MessageStatusDelivered, Timestamp: ts,
	}, nil)
	f.messages.On("GetByExternalID", "wamid.OUT2").Return(&model.MessageEvent{
		ID: 42, TenantID: "tenant-1", ChannelType: model.ChannelTypeWhatsApp,
		Direction: model.DirectionOutbound, Status: model.MessageStatusRead,
	}, nil)
	f.messages.On("Update", mock.Anything, mock.MatchedBy(func(e *model.MessageEvent) bool {
		return e.Status == model.MessageStatusDelivered && e.DeliveredAt != nil && e.DeliveredAt.Equal(ts)
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageDelivered, "tenant-1", mock.Anything).Return()

	result, err := f.svc.ProcessStatusWebhook(context.Background(), service.WebhookCommand{
		ChannelAccountID: 5,
		Payload:          []byte(`{}`),
	})

	require.NoError(t, err)
	assert.Equal(t, model.MessageStatusDelivered, result.Status, "late webhooks are written as received, not reordered")
}

func TestProcessStatusWebhook_VoiceCompletionBillsMinutes(t *testing.T) {
	f := newChannelFixture()

	f.registry.On("GetAdapter", mock.Anything, int64(5)).Return(f.adapter, nil)
	f.adapter.On("ParseStatusWebhook", mock.Anything).Return(adapter.StatusUpdate{
		MessageID: "CA9", Status: model.MessageStatusDelivered, DurationSeconds: 61,
	}, nil)
	f.messages.On("GetByExternalID", "CA9").Return(&model.MessageEvent{
		ID: 42, TenantID: "tenant-1", WorkspaceID: "ws-1",
		ChannelType: model.ChannelTypeVoice, Direction: model.DirectionOutbound,
	}, nil)
	f.messages.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.meter.On("RecordUsage", mock.Anything, mock.MatchedBy(func(cmd usage.RecordUsageCommand) bool {
		return cmd.ChannelType == model.ChannelTypeVoice && cmd.DurationSeconds != nil && *cmd.DurationSeconds == 61
	})).Return(&model.UsageEvent{EstimatedCost: 240}, nil)
	f.publisher.On("Publish", mock.Anything, events.EventMessageDelivered, mock.Anything, mock.Anything).Return()

	_, err := f.svc.ProcessStatusWebhook(context.Background(), service.WebhookCommand{
		ChannelAccountID: 5,
		Payload:          []byte(`{}`),
	})

	require.NoError(t, err)
	f.meter.AssertExpectations(t)
}

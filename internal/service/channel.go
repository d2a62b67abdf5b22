package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/metrics"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/ratelimit"
	"github.com/coding-shalabh/nexora-api-sub000/internal/registry"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
)

// ChannelService is the send/receive pipeline: consent gate, rate gate, thread
// resolution, adapter dispatch, status tracking and event emission. Expected
// outcomes (rate limited, opted out, vendor rejection) come back inside the
// result; an error return means infrastructure failed.
type ChannelService interface {
	SendMessage(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error)
	SendTemplate(ctx context.Context, cmd SendTemplateCommand) (*SendMessageResult, error)
	ProcessInboundWebhook(ctx context.Context, cmd WebhookCommand) (*InboundResult, error)
	ProcessStatusWebhook(ctx context.Context, cmd WebhookCommand) (*StatusResult, error)
	GetThreadMessages(ctx context.Context, query GetThreadMessagesQuery) (*ThreadMessagesResponse, error)
	RegisterReplyListener(l ReplyListener)
}

// ReplyListener is notified after an inbound message is attributed to a
// contact. The sequence layer registers itself here to pause enrollments on
// reply without the service depending on it.
type ReplyListener interface {
	HandleInboundReply(ctx context.Context, tenantID string, contactID int64) error
}

type Config struct {
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
}

type channel struct {
	cfg       Config
	registry  registry.Registry
	limiter   ratelimit.Limiter
	meter     usage.Meter
	consent   ConsentService
	accounts  repository.ChannelAccountRepository
	messages  repository.MessageEventRepository
	threads   repository.ThreadRepository
	contacts  repository.ContactRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger

	listener ReplyListener
}

var _ ChannelService = (*channel)(nil)

func NewChannelService(cfg Config, reg registry.Registry, limiter ratelimit.Limiter, meter usage.Meter,
	consent ConsentService, accounts repository.ChannelAccountRepository,
	messages repository.MessageEventRepository, threads repository.ThreadRepository,
	contacts repository.ContactRepository, publisher events.Publisher,
	m *metrics.Metrics, logger *zap.Logger) ChannelService {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 15 * time.Second
	}

	return &channel{
		cfg:       cfg,
		registry:  reg,
		limiter:   limiter,
		meter:     meter,
		consent:   consent,
		accounts:  accounts,
		messages:  messages,
		threads:   threads,
		contacts:  contacts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// RegisterReplyListener wires the pause-on-reply hook after construction to
// break the dependency cycle with the sequence layer.
func (c *channel) RegisterReplyListener(l ReplyListener) {
	c.listener = l
}

func (c *channel) SendMessage(ctx context.Context, cmd SendMessageCommand) (*SendMessageResult, error) {
	return c.send(ctx, sendRequest{
		TenantID:         cmd.TenantID,
		WorkspaceID:      cmd.WorkspaceID,
		ChannelAccountID: cmd.ChannelAccountID,
		To:               cmd.To,
		ContentType:      cmd.ContentType,
		Content:          cmd.Content,
		EventType:        cmd.EventType,
		Action:           ratelimit.ActionMessage,
		dispatch: func(ctx context.Context, a adapter.Adapter) (adapter.SendResult, error) {
			return a.SendMessage(ctx, adapter.OutboundMessage{
				To:          cmd.To,
				Subject:     cmd.Subject,
				ContentType: cmd.ContentType,
				Content:     cmd.Content,
			})
		},
	})
}

func (c *channel) SendTemplate(ctx context.Context, cmd SendTemplateCommand) (*SendMessageResult, error) {
	return c.send(ctx, sendRequest{
		TenantID:         cmd.TenantID,
		WorkspaceID:      cmd.WorkspaceID,
		ChannelAccountID: cmd.ChannelAccountID,
		To:               cmd.To,
		ContentType:      "template",
		Content:          cmd.TemplateID,
		EventType:        cmd.EventType,
		Action:           ratelimit.ActionTemplate,
		dispatch: func(ctx context.Context, a adapter.Adapter) (adapter.SendResult, error) {
			return a.SendTemplate(ctx, cmd.TemplateID, cmd.Variables, cmd.To)
		},
	})
}

type sendRequest struct {
	TenantID         string
	WorkspaceID      string
	ChannelAccountID int64
	To               string
	ContentType      string
	Content          string
	EventType        string
	Action           ratelimit.ActionType
	dispatch         func(ctx context.Context, a adapter.Adapter) (adapter.SendResult, error)
}

func (c *channel) send(ctx context.Context, req sendRequest) (*SendMessageResult, error) {
	a, err := c.registry.GetAdapter(ctx, req.ChannelAccountID)
	if err != nil {
		if errors.Is(err, registry.ErrChannelNotFound) {
			return &SendMessageResult{ErrorCode: constants.ErrCodeChannelNotFound}, nil
		}
		if errors.Is(err, registry.ErrChannelDisabled) {
			return &SendMessageResult{ErrorCode: constants.ErrCodeChannelDisabled}, nil
		}
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	channelType := a.ChannelType()

	verdict, err := c.consent.CanMessage(ctx, req.TenantID, channelType, req.To)
	if err != nil {
		return nil, err
	}
	if !verdict.Allowed {
		c.logger.Info("send blocked by consent state",
			zap.String("tenantID", req.TenantID),
			zap.String("to", req.To),
			zap.String("reason", verdict.Reason))
		return &SendMessageResult{ErrorCode: verdict.Reason}, nil
	}

	// A rate-limited send records no MessageEvent; the caller retries later.
	limit := c.limiter.CheckLimit(ctx, req.ChannelAccountID, channelType, req.Action)
	if !limit.Allowed {
		if c.metrics != nil {
			c.metrics.RateLimitRejections.WithLabelValues(string(channelType), string(req.Action)).Inc()
		}
		return &SendMessageResult{
			ErrorCode:  constants.ErrCodeRateLimited,
			RetryAfter: limit.RetryAfter,
		}, nil
	}

	thread, err := c.resolveThread(ctx, req.TenantID, req.ChannelAccountID, channelType, req.To)
	if err != nil {
		return nil, err
	}

	event := &model.MessageEvent{
		TenantID:         req.TenantID,
		WorkspaceID:      req.WorkspaceID,
		ThreadID:         thread.ID,
		ChannelAccountID: req.ChannelAccountID,
		ChannelType:      channelType,
		Direction:        model.DirectionOutbound,
		ContentType:      req.ContentType,
		Content:          req.Content,
		Status:           model.MessageStatusPending,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := c.messages.Create(ctx, event); err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	c.limiter.RecordAction(ctx, req.ChannelAccountID, channelType, req.Action)

	dispatchCtx, cancel := context.WithTimeout(ctx, c.cfg.AdapterTimeout)
	defer cancel()

	sendResult, sendErr := req.dispatch(dispatchCtx, a)
	if sendErr != nil {
		return c.finishFailed(ctx, event, sendErr)
	}

	return c.finishSent(ctx, req, event, thread, sendResult)
}

func (c *channel) finishSent(ctx context.Context, req sendRequest, event *model.MessageEvent,
	thread *model.Thread, sendResult adapter.SendResult) (*SendMessageResult, error) {
	now := time.Now().UTC()
	event.Status = model.MessageStatusSent
	event.SentAt = &now
	event.UpdatedAt = now
	if sendResult.ExternalID != "" {
		event.ExternalID = &sendResult.ExternalID
	}

	if err := c.messages.Update(ctx, event); err != nil {
		c.logger.Error("failed to persist SENT status",
			zap.Int64("messageEventID", event.ID), zap.Error(err))
	}

	c.recordSendUsage(ctx, req, event)

	thread.LastMessagePreview = preview(event.Content)
	thread.LastMessageAt = &now
	thread.UpdatedAt = now
	if err := c.threads.Update(ctx, thread); err != nil {
		c.logger.Error("failed to update thread preview",
			zap.Int64("threadID", thread.ID), zap.Error(err))
	}

	if c.metrics != nil {
		c.metrics.MessagesSent.WithLabelValues(string(event.ChannelType), string(model.MessageStatusSent)).Inc()
	}
	c.publisher.Publish(ctx, events.EventMessageSent, req.TenantID, map[string]interface{}{
		"messageEventId": event.ID,
		"threadId":       thread.ID,
		"externalId":     sendResult.ExternalID,
	})

	c.logger.Info("message sent",
		zap.Int64("messageEventID", event.ID),
		zap.String("channelType", string(event.ChannelType)),
		zap.String("externalID", sendResult.ExternalID))

	return &SendMessageResult{
		Success:        true,
		MessageEventID: event.ID,
		Status:         model.MessageStatusSent,
	}, nil
}

// finishFailed converts an adapter fault into a FAILED MessageEvent. The
// failure is still a durable record; usage is never billed for it.
func (c *channel) finishFailed(ctx context.Context, event *model.MessageEvent, sendErr error) (*SendMessageResult, error) {
	now := time.Now().UTC()
	code := sendErr.Error()

	event.Status = model.MessageStatusFailed
	event.FailedAt = &now
	event.ErrorCode = &code
	msg := "adapter dispatch failed"
	event.ErrorMessage = &msg
	event.UpdatedAt = now

	if err := c.messages.Update(ctx, event); err != nil {
		c.logger.Error("failed to persist FAILED status",
			zap.Int64("messageEventID", event.ID), zap.Error(err))
	}

	if c.metrics != nil {
		c.metrics.MessagesSent.WithLabelValues(string(event.ChannelType), string(model.MessageStatusFailed)).Inc()
	}
	c.publisher.Publish(ctx, events.EventMessageFailed, event.TenantID, map[string]interface{}{
		"messageEventId": event.ID,
		"errorCode":      code,
	})

	c.logger.Warn("message send failed",
		zap.Int64("messageEventID", event.ID),
		zap.String("errorCode", code))

	return &SendMessageResult{
		MessageEventID: event.ID,
		Status:         model.MessageStatusFailed,
		ErrorCode:      constants.ErrCodeVendorError,
	}, nil
}

// recordSendUsage bills the send. Voice is billed from the completion webhook
// instead, because the call duration is unknown at dispatch time.
func (c *channel) recordSendUsage(ctx context.Context, req sendRequest, event *model.MessageEvent) {
	if event.ChannelType == model.ChannelTypeVoice {
		return
	}

	eventType := req.EventType
	if eventType == "" {
		eventType = defaultEventType(event.ChannelType)
	}

	_, err := c.meter.RecordUsage(ctx, usage.RecordUsageCommand{
		TenantID:         req.TenantID,
		WorkspaceID:      req.WorkspaceID,
		ChannelAccountID: req.ChannelAccountID,
		ChannelType:      event.ChannelType,
		EventType:        eventType,
		Units:            1,
		MessageEventID:   &event.ID,
	})
	if err != nil {
		c.logger.Error("failed to record usage for sent message",
			zap.Int64("messageEventID", event.ID), zap.Error(err))
	}
}

// resolveThread finds or lazily creates the conversation for this identifier,
// creating a minimal contact when none matches.
func (c *channel) resolveThread(ctx context.Context, tenantID string, accountID int64,
	channelType model.ChannelType, identifier string) (*model.Thread, error) {
	thread, err := c.threads.GetByAccountAndIdentifier(accountID, identifier)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, repository.ErrThreadNotFound) {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	contact, err := c.contacts.FindByIdentifier(tenantID, channelType, identifier)
	if err != nil {
		if !errors.Is(err, repository.ErrContactNotFound) {
			return nil, NewServiceError(ErrCodeDatabase, err)
		}

		contact = &model.Contact{
			TenantID:  tenantID,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if channelType == model.ChannelTypeEmail {
			contact.Email = &identifier
		} else {
			contact.Phone = &identifier
		}
		if err := c.contacts.Create(ctx, contact); err != nil {
			return nil, NewServiceError(ErrCodeDatabase, err)
		}
	}

	thread = &model.Thread{
		TenantID:         tenantID,
		ChannelAccountID: accountID,
		Identifier:       identifier,
		ContactID:        contact.ID,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := c.threads.Create(ctx, thread); err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	return thread, nil
}

func defaultEventType(channelType model.ChannelType) string {
	switch channelType {
	case model.ChannelTypeWhatsApp:
		return "WHATSAPP_SERVICE"
	case model.ChannelTypeSMS:
		return "SMS_STANDARD"
	case model.ChannelTypeEmail:
		return "EMAIL_STANDARD"
	case model.ChannelTypeVoice:
		return "VOICE_CALL"
	default:
		return string(channelType)
	}
}

// preview truncates to at most 120 bytes without splitting a rune.
func preview(content string) string {
	const max = 120
	if len(content) <= max {
		return content
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

// GetThreadMessages pages through a thread newest-first.
func (c *channel) GetThreadMessages(ctx context.Context, query GetThreadMessagesQuery) (*ThreadMessagesResponse, error) {
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 50
	}

	if _, err := c.threads.GetByID(query.ThreadID); err != nil {
		if errors.Is(err, repository.ErrThreadNotFound) {
			return nil, NewServiceError(ErrCodeThreadNotFound, err)
		}
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	messages, err := c.messages.ListByThread(query.ThreadID, query.Limit, query.Offset)
	if err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	resp := &ThreadMessagesResponse{Messages: make([]ThreadMessage, 0, len(messages)), Total: len(messages)}
	for i := range messages {
		m := messages[i]
		resp.Messages = append(resp.Messages, ThreadMessage{
			MessageID:   m.ID,
			Direction:   string(m.Direction),
			ContentType: m.ContentType,
			Content:     m.Content,
			Status:      string(m.Status),
			CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return resp, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
)

var optOutKeywords = map[string]bool{
	"STOP":        true,
	"UNSUBSCRIBE": true,
}

// ProcessInboundWebhook normalizes a vendor payload through the adapter,
// attributes it to a thread and contact, and persists an inbound DELIVERED
// event. Duplicate vendor message ids are absorbed, not errored.
func (c *channel) ProcessInboundWebhook(ctx context.Context, cmd WebhookCommand) (*InboundResult, error) {
	a, err := c.registry.GetAdapter(ctx, cmd.ChannelAccountID)
	if err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	inbound, err := a.ParseInboundWebhook(cmd.Payload)
	if err != nil {
		return nil, NewServiceError(ErrCodeBadPayload, err)
	}

	account, err := c.accounts.GetByID(cmd.ChannelAccountID)
	if err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	thread, err := c.resolveThread(ctx, account.TenantID, account.ID, account.ChannelType, inbound.From)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event := &model.MessageEvent{
		TenantID:         account.TenantID,
		ThreadID:         thread.ID,
		ChannelAccountID: account.ID,
		ChannelType:      account.ChannelType,
		Direction:        model.DirectionInbound,
		ContentType:      inbound.ContentType,
		Content:          inbound.Content,
		Status:           model.MessageStatusDelivered,
		DeliveredAt:      &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if inbound.ExternalID != "" {
		event.ExternalID = &inbound.ExternalID
	}

	if err := c.messages.Create(ctx, event); err != nil {
		if errors.Is(err, repository.ErrMessageDuplicate) {
			c.logger.Info("inbound webhook replay ignored",
				zap.String("externalID", inbound.ExternalID))
			return &InboundResult{ThreadID: thread.ID, ContactID: thread.ContactID, Duplicate: true}, nil
		}
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	thread.LastMessagePreview = preview(inbound.Content)
	thread.LastMessageAt = &now
	thread.UnreadCount++
	thread.UpdatedAt = now
	if err := c.threads.Update(ctx, thread); err != nil {
		c.logger.Error("failed to update thread for inbound message",
			zap.Int64("threadID", thread.ID), zap.Error(err))
	}

	if optOutKeywords[strings.ToUpper(strings.TrimSpace(inbound.Content))] {
		if err := c.consent.RecordOptOut(ctx, account.TenantID, account.ChannelType, inbound.From); err != nil {
			c.logger.Error("failed to record keyword opt-out",
				zap.String("identifier", inbound.From), zap.Error(err))
		}
	}

	if c.metrics != nil {
		c.metrics.MessagesReceived.WithLabelValues(string(account.ChannelType)).Inc()
	}
	c.publisher.Publish(ctx, events.EventMessageReceived, account.TenantID, map[string]interface{}{
		"messageEventId": event.ID,
		"threadId":       thread.ID,
		"from":           inbound.From,
	})

	if c.listener != nil {
		if err := c.listener.HandleInboundReply(ctx, account.TenantID, thread.ContactID); err != nil {
			c.logger.Error("reply listener failed",
				zap.Int64("contactID", thread.ContactID), zap.Error(err))
		}
	}

	return &InboundResult{
		MessageEventID: event.ID,
		ThreadID:       thread.ID,
		ContactID:      thread.ContactID,
	}, nil
}

// ProcessStatusWebhook applies a vendor status update to the matching message
// event. Updates are written as delivered: the vendor is the source of truth
// and no reordering happens here.
func (c *channel) ProcessStatusWebhook(ctx context.Context, cmd WebhookCommand) (*StatusResult, error) {
	a, err := c.registry.GetAdapter(ctx, cmd.ChannelAccountID)
	if err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	update, err := a.ParseStatusWebhook(cmd.Payload)
	if err != nil {
		return nil, NewServiceError(ErrCodeBadPayload, err)
	}

	event, err := c.messages.GetByExternalID(update.MessageID)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	ts := update.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	event.Status = update.Status
	event.UpdatedAt = time.Now().UTC()
	switch update.Status {
	case model.MessageStatusDelivered:
		event.DeliveredAt = &ts
	case model.MessageStatusRead:
		event.ReadAt = &ts
	case model.MessageStatusFailed:
		event.FailedAt = &ts
		if update.ErrorCode != "" {
			event.ErrorCode = &update.ErrorCode
		}
		if update.ErrorMessage != "" {
			event.ErrorMessage = &update.ErrorMessage
		}
	}

	if err := c.messages.Update(ctx, event); err != nil {
		return nil, NewServiceError(ErrCodeDatabase, err)
	}

	// Voice calls bill on completion, when the duration is finally known.
	if event.ChannelType == model.ChannelTypeVoice &&
		event.Direction == model.DirectionOutbound &&
		update.Status == model.MessageStatusDelivered &&
		update.DurationSeconds > 0 {
		c.recordVoiceUsage(ctx, event, update.DurationSeconds)
	}

	c.publisher.Publish(ctx, statusEvent(update.Status), event.TenantID, map[string]interface{}{
		"messageEventId": event.ID,
		"status":         update.Status,
	})

	return &StatusResult{MessageEventID: event.ID, Status: update.Status}, nil
}

func (c *channel) recordVoiceUsage(ctx context.Context, event *model.MessageEvent, durationSeconds int) {
	_, err := c.meter.RecordUsage(ctx, usage.RecordUsageCommand{
		TenantID:         event.TenantID,
		WorkspaceID:      event.WorkspaceID,
		ChannelAccountID: event.ChannelAccountID,
		ChannelType:      model.ChannelTypeVoice,
		EventType:        "VOICE_CALL",
		Units:            1,
		DurationSeconds:  &durationSeconds,
		MessageEventID:   &event.ID,
	})
	if err != nil {
		c.logger.Error("failed to record voice usage",
			zap.Int64("messageEventID", event.ID), zap.Error(err))
	}
}

func statusEvent(status model.MessageStatus) string {
	switch status {
	case model.MessageStatusDelivered:
		return events.EventMessageDelivered
	case model.MessageStatusRead:
		return events.EventMessageRead
	case model.MessageStatusFailed:
		return events.EventMessageFailed
	default:
		return events.EventMessageSent
	}
}

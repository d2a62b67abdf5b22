package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
	"go.uber.org/zap"
)

const Exchange = "crm.events"

const (
	EventMessageReceived  = "message.received"
	EventMessageSent      = "message.sent"
	EventMessageDelivered = "message.delivered"
	EventMessageRead      = "message.read"
	EventMessageFailed    = "message.failed"
	EventWalletLowBalance = "wallet.low_balance"
	EventConsentGranted   = "consent.granted"
	EventOptOutReceived   = "opt_out.received"
)

// Publisher emits domain events. Delivery is at-most-once and never blocks the
// caller: publish failures are logged and swallowed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, tenantID string, payload interface{})
}

type envelope struct {
	Event      string      `json:"event"`
	TenantID   string      `json:"tenant_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type publisher struct {
	pub    mq.Publisher
	logger *zap.Logger
}

func NewPublisher(pub mq.Publisher, logger *zap.Logger) Publisher {
	return &publisher{pub: pub, logger: logger}
}

func (p *publisher) Publish(ctx context.Context, eventType string, tenantID string, payload interface{}) {
	body, err := json.Marshal(envelope{
		Event:      eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		p.logger.Warn("Failed to marshal event", zap.String("event", eventType), zap.Error(err))
		return
	}

	if err := p.pub.Publish(ctx, Exchange, eventType, body); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("event", eventType),
			zap.String("tenantID", tenantID),
			zap.Error(err))
	}
}

// NopPublisher discards events; used by tests and tooling that does not care
// about notifications.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, eventType string, tenantID string, payload interface{}) {
}

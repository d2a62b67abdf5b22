package adapter

import (
	"context"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

const (
	ErrorCodeServerError      = "SERVER_ERROR"      // 5xx from the vendor
	ErrorCodeTimeout          = "TIMEOUT"           // context deadline hit
	ErrorCodeInvalidRecipient = "INVALID_RECIPIENT" // 400/validation errors
	ErrorCodeUnauthorized     = "UNAUTHORIZED"      // 401/403, bad credentials
	ErrorCodeNetworkError     = "NETWORK_ERROR"     // connection failures
	ErrorCodeBadPayload       = "BAD_PAYLOAD"       // unparseable webhook body
)

// OutboundMessage is the channel-neutral shape handed to an adapter.
type OutboundMessage struct {
	To          string
	Subject     string
	ContentType string
	Content     string
}

type SendResult struct {
	ExternalID string
}

// InboundMessage is a vendor webhook normalized by the adapter. Metadata
// carries true pass-through vendor fields only.
type InboundMessage struct {
	ExternalID  string
	From        string
	Content     string
	ContentType string
	SentAt      time.Time
	Metadata    map[string]string
}

type StatusUpdate struct {
	MessageID    string
	Status       model.MessageStatus
	Timestamp    time.Time
	ErrorCode    string
	ErrorMessage string

	// DurationSeconds is set on voice call completion updates only.
	DurationSeconds int
}

type CredentialCheck struct {
	Valid  bool
	Detail string
}

type Health struct {
	Healthy   bool
	Detail    string
	CheckedAt time.Time
}

// Adapter is the capability contract one vendor integration implements for one
// channel type. Send errors carry the adapter error code as their message.
type Adapter interface {
	ChannelType() model.ChannelType
	SendMessage(ctx context.Context, msg OutboundMessage) (SendResult, error)
	SendTemplate(ctx context.Context, templateID string, variables map[string]string, to string) (SendResult, error)
	ParseInboundWebhook(payload []byte) (InboundMessage, error)
	ParseStatusWebhook(payload []byte) (StatusUpdate, error)
	ValidateCredentials(ctx context.Context) (CredentialCheck, error)
	HealthStatus(ctx context.Context) Health
}

type Config struct {
	WhatsAppBaseURL string        `mapstructure:"whatsapp_base_url"`
	SMSBaseURL      string        `mapstructure:"sms_base_url"`
	EmailBaseURL    string        `mapstructure:"email_base_url"`
	VoiceBaseURL    string        `mapstructure:"voice_base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

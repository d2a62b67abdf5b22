package model

import "time"

type ChannelType string

const (
	ChannelTypeWhatsApp ChannelType = "WHATSAPP"
	ChannelTypeSMS      ChannelType = "SMS"
	ChannelTypeEmail    ChannelType = "EMAIL"
	ChannelTypeVoice    ChannelType = "VOICE"
)

type HealthStatus string

const (
	HealthStatusUnknown HealthStatus = "UNKNOWN"
	HealthStatusHealthy HealthStatus = "HEALTHY"
	HealthStatusError   HealthStatus = "ERROR"
)

// ChannelAccount is one configured endpoint (phone number, sender id, mailbox)
// on one channel type. Accounts are soft-disabled, never deleted.
type ChannelAccount struct {
	ID              int64        `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID        string       `gorm:"column:tenant_id;index"`
	ChannelType     ChannelType  `gorm:"column:channel_type"`
	Identifier      string       `gorm:"column:identifier"`
	Credentials     string       `gorm:"column:credentials"`
	Enabled         bool         `gorm:"column:enabled"`
	HealthStatus    HealthStatus `gorm:"column:health_status"`
	LastHealthCheck *time.Time   `gorm:"column:last_health_check"`
	CreatedAt       time.Time    `gorm:"column:created_at"`
	UpdatedAt       time.Time    `gorm:"column:updated_at"`
}

package model

import "time"

type ConsentStatus string

const (
	ConsentStatusGranted ConsentStatus = "GRANTED"
	ConsentStatusRevoked ConsentStatus = "REVOKED"
)

type Consent struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID    string        `gorm:"column:tenant_id;index:idx_consent_key,unique"`
	ChannelType ChannelType   `gorm:"column:channel_type;index:idx_consent_key,unique"`
	Identifier  string        `gorm:"column:identifier;index:idx_consent_key,unique"`
	Status      ConsentStatus `gorm:"column:status"`
	CreatedAt   time.Time     `gorm:"column:created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at"`
}

// OptOut blocks sends to an identifier on a channel. Once active it stays
// active until explicitly cleared, and it always takes precedence over any
// granted consent.
type OptOut struct {
	ID          int64       `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID    string      `gorm:"column:tenant_id;index:idx_optout_key,unique"`
	ChannelType ChannelType `gorm:"column:channel_type;index:idx_optout_key,unique"`
	Identifier  string      `gorm:"column:identifier;index:idx_optout_key,unique"`
	Active      bool        `gorm:"column:active"`
	CreatedAt   time.Time   `gorm:"column:created_at"`
	UpdatedAt   time.Time   `gorm:"column:updated_at"`
}

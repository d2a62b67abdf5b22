package model

import "time"

type MessageStatus string

const (
	MessageStatusPending   MessageStatus = "PENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
	MessageStatusFailed    MessageStatus = "FAILED"
)

type MessageDirection string

const (
	DirectionInbound  MessageDirection = "INBOUND"
	DirectionOutbound MessageDirection = "OUTBOUND"
)

// MessageEvent is one inbound or outbound message attempt. Webhooks mutate
// status and timestamps only, never content.
type MessageEvent struct {
	ID               int64            `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID         string           `gorm:"column:tenant_id;index"`
	WorkspaceID      string           `gorm:"column:workspace_id"`
	ThreadID         int64            `gorm:"column:thread_id;index"`
	ChannelAccountID int64            `gorm:"column:channel_account_id"`
	ChannelType      ChannelType      `gorm:"column:channel_type"`
	Direction        MessageDirection `gorm:"column:direction"`
	ContentType      string           `gorm:"column:content_type"`
	Content          string           `gorm:"column:content"`
	Status           MessageStatus    `gorm:"column:status"`
	ExternalID       *string          `gorm:"column:external_id;uniqueIndex:idx_message_external_id"`
	SentAt           *time.Time       `gorm:"column:sent_at"`
	DeliveredAt      *time.Time       `gorm:"column:delivered_at"`
	ReadAt           *time.Time       `gorm:"column:read_at"`
	FailedAt         *time.Time       `gorm:"column:failed_at"`
	ErrorCode        *string          `gorm:"column:error_code"`
	ErrorMessage     *string          `gorm:"column:error_message"`
	CreatedAt        time.Time        `gorm:"column:created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at"`
}

// Thread groups messages exchanged with one external identifier through one
// channel account. Created lazily on first send or receive.
type Thread struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID           string     `gorm:"column:tenant_id;index"`
	ChannelAccountID   int64      `gorm:"column:channel_account_id;index:idx_thread_account_identifier,unique"`
	Identifier         string     `gorm:"column:identifier;index:idx_thread_account_identifier,unique"`
	ContactID          int64      `gorm:"column:contact_id"`
	LastMessagePreview string     `gorm:"column:last_message_preview"`
	LastMessageAt      *time.Time `gorm:"column:last_message_at"`
	UnreadCount        int        `gorm:"column:unread_count"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

type Contact struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID  string    `gorm:"column:tenant_id;index"`
	Name      string    `gorm:"column:name"`
	Phone     *string   `gorm:"column:phone"`
	Email     *string   `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// IdentifierFor returns the contact identifier usable on the given channel,
// or "" when the contact has none.
func (c *Contact) IdentifierFor(channelType ChannelType) string {
	switch channelType {
	case ChannelTypeEmail:
		if c.Email != nil {
			return *c.Email
		}
	case ChannelTypeWhatsApp, ChannelTypeSMS, ChannelTypeVoice:
		if c.Phone != nil {
			return *c.Phone
		}
	}
	return ""
}

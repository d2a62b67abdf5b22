package model

import "time"

// Wallet holds the prepaid balance for one (tenant, workspace) in minor
// currency units. The balance is mutated only together with an appended
// WalletTransaction inside one database transaction.
type Wallet struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID    string    `gorm:"column:tenant_id;index:idx_wallet_tenant_workspace,unique"`
	WorkspaceID string    `gorm:"column:workspace_id;index:idx_wallet_tenant_workspace,unique"`
	Balance     int64     `gorm:"column:balance"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

type TxType string

const (
	TxTypeDebit  TxType = "DEBIT"
	TxTypeCredit TxType = "CREDIT"
)

// WalletTransaction is an append-only ledger entry.
type WalletTransaction struct {
	ID             int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	WalletID       int64     `gorm:"column:wallet_id;index"`
	TxType         TxType    `gorm:"column:tx_type"`
	Amount         int64     `gorm:"column:amount"`
	Reference      string    `gorm:"column:reference"`
	IdempotencyKey string    `gorm:"column:idempotency_key;uniqueIndex"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// UsageEvent is one billable unit of channel activity. EstimatedCost is set at
// creation; ActualCost and ReconciledAt are written exactly once by
// reconciliation against provider-reported costs.
type UsageEvent struct {
	ID               int64       `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	TenantID         string      `gorm:"column:tenant_id;index"`
	WorkspaceID      string      `gorm:"column:workspace_id"`
	ChannelAccountID int64       `gorm:"column:channel_account_id"`
	ChannelType      ChannelType `gorm:"column:channel_type"`
	EventType        string      `gorm:"column:event_type"`
	Units            int         `gorm:"column:units"`
	DurationSeconds  *int        `gorm:"column:duration_seconds"`
	EstimatedCost    int64       `gorm:"column:estimated_cost"`
	ActualCost       *int64      `gorm:"column:actual_cost"`
	ReconciledAt     *time.Time  `gorm:"column:reconciled_at"`
	MessageEventID   *int64      `gorm:"column:message_event_id;index"`
	CreatedAt        time.Time   `gorm:"column:created_at"`
}

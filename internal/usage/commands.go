package usage

import (
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

type RecordUsageCommand struct {
	TenantID         string
	WorkspaceID      string
	ChannelAccountID int64
	ChannelType      model.ChannelType
	EventType        string
	Units            int
	DurationSeconds  *int
	MessageEventID   *int64
}

// ProviderCost is one vendor-reported actual cost keyed by the vendor message id.
type ProviderCost struct {
	ExternalID string
	ActualCost int64
}

type ReconcileCommand struct {
	TenantID      string
	WorkspaceID   string
	ChannelType   model.ChannelType
	PeriodStart   time.Time
	PeriodEnd     time.Time
	ProviderCosts []ProviderCost
}

type BalanceCheck struct {
	Balance    int64
	Sufficient bool
}

type Reconciliation struct {
	Matched          int
	Skipped          int
	EstimatedTotal   int64
	ActualTotal      int64
	Adjustment       int64
	AdjustmentPosted bool
}

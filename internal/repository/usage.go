package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"gorm.io/gorm"
)

var ErrUsageEventNotFound = errors.New("USAGE_EVENT_NOT_FOUND")

type UsageEventRepository interface {
	Create(ctx context.Context, event *model.UsageEvent) error
	GetByMessageEventID(messageEventID int64) (*model.UsageEvent, error)
	MarkReconciled(ctx context.Context, usageEventID int64, actualCost int64, reconciledAt time.Time) error
}

type UsageEvent struct {
	db *gorm.DB
}

func NewUsageEventRepository(db *gorm.DB) UsageEventRepository {
	return &UsageEvent{db: db}
}

func (u *UsageEvent) Create(ctx context.Context, event *model.UsageEvent) error {
	db := GetTx(ctx, u.db)
	return db.Create(event).Error
}

func (u *UsageEvent) GetByMessageEventID(messageEventID int64) (*model.UsageEvent, error) {
	var event model.UsageEvent

	err := u.db.Where("message_event_id = ?", messageEventID).First(&event).Error
	if err == nil {
		return &event, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUsageEventNotFound
	}

	return nil, err
}

// MarkReconciled writes actual cost exactly once; an already reconciled event
// is left untouched by the reconciled_at guard in the WHERE clause.
func (u *UsageEvent) MarkReconciled(ctx context.Context, usageEventID int64, actualCost int64, reconciledAt time.Time) error {
	db := GetTx(ctx, u.db)
	return db.Model(&model.UsageEvent{}).
		Where("id = ? AND reconciled_at IS NULL", usageEventID).
		Updates(map[string]interface{}{"actual_cost": actualCost, "reconciled_at": reconciledAt}).Error
}

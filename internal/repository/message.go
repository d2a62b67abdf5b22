package repository

import (
	"context"
	"errors"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("MESSAGE_NOT_FOUND")
var ErrMessageDuplicate = errors.New("MESSAGE_DUPLICATE")

type MessageEventRepository interface {
	Create(ctx context.Context, message *model.MessageEvent) error
	Update(ctx context.Context, message *model.MessageEvent) error
	GetByID(id int64) (*model.MessageEvent, error)
	GetByExternalID(externalID string) (*model.MessageEvent, error)
	ListByThread(threadID int64, limit, offset int) ([]model.MessageEvent, error)
}

type MessageEvent struct {
	db *gorm.DB
}

func NewMessageEventRepository(db *gorm.DB) MessageEventRepository {
	return &MessageEvent{db: db}
}

func (m *MessageEvent) Create(ctx context.Context, message *model.MessageEvent) error {
	db := GetTx(ctx, m.db)
	err := db.Create(message).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrMessageDuplicate
	}

	return err
}

func (m *MessageEvent) Update(ctx context.Context, message *model.MessageEvent) error {
	db := GetTx(ctx, m.db)
	return db.Model(message).Where("id = ?", message.ID).Updates(message).Error
}

func (m *MessageEvent) GetByID(id int64) (*model.MessageEvent, error) {
	var message model.MessageEvent

	err := m.db.Where("id = ?", id).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

func (m *MessageEvent) GetByExternalID(externalID string) (*model.MessageEvent, error) {
	var message model.MessageEvent

	err := m.db.Where("external_id = ?", externalID).First(&message).Error
	if err == nil {
		return &message, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}

	return nil, err
}

func (m *MessageEvent) ListByThread(threadID int64, limit, offset int) ([]model.MessageEvent, error) {
	var messages []model.MessageEvent

	err := m.db.Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

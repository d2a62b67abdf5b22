package repository

import (
	"context"
	"errors"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"gorm.io/gorm"
)

var ErrChannelAccountNotFound = errors.New("CHANNEL_ACCOUNT_NOT_FOUND")

type ChannelAccountRepository interface {
	GetByID(id int64) (*model.ChannelAccount, error)
	FindEnabledByTenantAndType(tenantID string, channelType model.ChannelType) ([]model.ChannelAccount, error)
	Update(ctx context.Context, account *model.ChannelAccount) error
}

type ChannelAccount struct {
	db *gorm.DB
}

func NewChannelAccountRepository(db *gorm.DB) ChannelAccountRepository {
	return &ChannelAccount{db: db}
}

func (r *ChannelAccount) GetByID(id int64) (*model.ChannelAccount, error) {
	var account model.ChannelAccount

	err := r.db.Where("id = ?", id).First(&account).Error
	if err == nil {
		return &account, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChannelAccountNotFound
	}

	return nil, err
}

func (r *ChannelAccount) FindEnabledByTenantAndType(tenantID string, channelType model.ChannelType) ([]model.ChannelAccount, error) {
	var accounts []model.ChannelAccount

	err := r.db.Where("tenant_id = ? AND channel_type = ? AND enabled = ?", tenantID, channelType, true).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *ChannelAccount) Update(ctx context.Context, account *model.ChannelAccount) error {
	db := GetTx(ctx, r.db)
	return db.Model(account).Where("id = ?", account.ID).Updates(account).Error
}

package repository

import (
	"context"
	"errors"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"gorm.io/gorm"
)

var ErrThreadNotFound = errors.New("THREAD_NOT_FOUND")
var ErrContactNotFound = errors.New("CONTACT_NOT_FOUND")

type ThreadRepository interface {
	Create(ctx context.Context, thread *model.Thread) error
	Update(ctx context.Context, thread *model.Thread) error
	GetByID(id int64) (*model.Thread, error)
	GetByAccountAndIdentifier(channelAccountID int64, identifier string) (*model.Thread, error)
}

type Thread struct {
	db *gorm.DB
}

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &Thread{db: db}
}

func (t *Thread) Create(ctx context.Context, thread *model.Thread) error {
	db := GetTx(ctx, t.db)
	return db.Create(thread).Error
}

func (t *Thread) Update(ctx context.Context, thread *model.Thread) error {
	db := GetTx(ctx, t.db)
	return db.Model(thread).Where("id = ?", thread.ID).Updates(thread).Error
}

func (t *Thread) GetByID(id int64) (*model.Thread, error) {
	var thread model.Thread

	err := t.db.Where("id = ?", id).First(&thread).Error
	if err == nil {
		return &thread, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}

	return nil, err
}

func (t *Thread) GetByAccountAndIdentifier(channelAccountID int64, identifier string) (*model.Thread, error) {
	var thread model.Thread

	err := t.db.Where("channel_account_id = ? AND identifier = ?", channelAccountID, identifier).
		First(&thread).Error
	if err == nil {
		return &thread, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}

	return nil, err
}

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(id int64) (*model.Contact, error)
	FindByIdentifier(tenantID string, channelType model.ChannelType, identifier string) (*model.Contact, error)
}

type Contact struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &Contact{db: db}
}

func (c *Contact) Create(ctx context.Context, contact *model.Contact) error {
	db := GetTx(ctx, c.db)
	return db.Create(contact).Error
}

func (c *Contact) GetByID(id int64) (*model.Contact, error) {
	var contact model.Contact

	err := c.db.Where("id = ?", id).First(&contact).Error
	if err == nil {
		return &contact, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}

	return nil, err
}

func (c *Contact) FindByIdentifier(tenantID string, channelType model.ChannelType, identifier string) (*model.Contact, error) {
	var contact model.Contact

	column := "phone"
	if channelType == model.ChannelTypeEmail {
		column = "email"
	}

	err := c.db.Where("tenant_id = ? AND "+column+" = ?", tenantID, identifier).
		First(&contact).Error
	if err == nil {
		return &contact, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContactNotFound
	}

	return nil, err
}

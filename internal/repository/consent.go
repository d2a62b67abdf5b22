package repository

import (
	"context"
	"errors"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"gorm.io/gorm"
)

var ErrConsentNotFound = errors.New("CONSENT_NOT_FOUND")

type ConsentRepository interface {
	Upsert(ctx context.Context, consent *model.Consent) error
	Get(tenantID string, channelType model.ChannelType, identifier string) (*model.Consent, error)
}

type Consent struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) ConsentRepository {
	return &Consent{db: db}
}

func (c *Consent) Upsert(ctx context.Context, consent *model.Consent) error {
	db := GetTx(ctx, c.db)

	existing, err := c.Get(consent.TenantID, consent.ChannelType, consent.Identifier)
	if err != nil {
		if errors.Is(err, ErrConsentNotFound) {
			return db.Create(consent).Error
		}
		return err
	}

	consent.ID = existing.ID
	return db.Model(consent).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"status": consent.Status, "updated_at": consent.UpdatedAt}).Error
}

func (c *Consent) Get(tenantID string, channelType model.ChannelType, identifier string) (*model.Consent, error) {
	var consent model.Consent

	err := c.db.Where("tenant_id = ? AND channel_type = ? AND identifier = ?",
		tenantID, channelType, identifier).First(&consent).Error
	if err == nil {
		return &consent, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConsentNotFound
	}

	return nil, err
}

type OptOutRepository interface {
	Upsert(ctx context.Context, optOut *model.OptOut) error
	FindActive(tenantID string, channelType model.ChannelType, identifier string) (*model.OptOut, error)
}

type OptOut struct {
	db *gorm.DB
}

func NewOptOutRepository(db *gorm.DB) OptOutRepository {
	return &OptOut{db: db}
}

func (o *OptOut) Upsert(ctx context.Context, optOut *model.OptOut) error {
	db := GetTx(ctx, o.db)

	var existing model.OptOut
	err := db.Where("tenant_id = ? AND channel_type = ? AND identifier = ?",
		optOut.TenantID, optOut.ChannelType, optOut.Identifier).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(optOut).Error
	}
	if err != nil {
		return err
	}

	optOut.ID = existing.ID
	return db.Model(optOut).Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"active": optOut.Active, "updated_at": optOut.UpdatedAt}).Error
}

// FindActive returns ErrConsentNotFound when no active opt-out exists for the
// identifier, which callers treat as "send permitted".
func (o *OptOut) FindActive(tenantID string, channelType model.ChannelType, identifier string) (*model.OptOut, error) {
	var optOut model.OptOut

	err := o.db.Where("tenant_id = ? AND channel_type = ? AND identifier = ? AND active = ?",
		tenantID, channelType, identifier, true).First(&optOut).Error
	if err == nil {
		return &optOut, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConsentNotFound
	}

	return nil, err
}

package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
)

// ConsentService gates sends per (tenant, channel, identifier). An active
// opt-out beats any granted consent; email additionally requires explicit
// GRANTED consent while the other channels assume implicit consent.
type ConsentService interface {
	Grant(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error
	Revoke(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error
	RecordOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error
	ClearOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error
	CanMessage(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) (Verdict, error)
}

type Verdict struct {
	Allowed bool
	Reason  string
}

type consent struct {
	consents  repository.ConsentRepository
	optOuts   repository.OptOutRepository
	publisher events.Publisher
	logger    *zap.Logger
}

var _ ConsentService = (*consent)(nil)

func NewConsentService(consents repository.ConsentRepository, optOuts repository.OptOutRepository,
	publisher events.Publisher, logger *zap.Logger) ConsentService {
	return &consent{consents: consents, optOuts: optOuts, publisher: publisher, logger: logger}
}

func (c *consent) Grant(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	record := &model.Consent{
		TenantID:    tenantID,
		ChannelType: channelType,
		Identifier:  identifier,
		Status:      model.ConsentStatusGranted,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := c.consents.Upsert(ctx, record); err != nil {
		return NewServiceError(ErrCodeDatabase, err)
	}

	c.publisher.Publish(ctx, events.EventConsentGranted, tenantID, map[string]interface{}{
		"channelType": channelType,
		"identifier":  identifier,
	})

	return nil
}

func (c *consent) Revoke(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	record := &model.Consent{
		TenantID:    tenantID,
		ChannelType: channelType,
		Identifier:  identifier,
		Status:      model.ConsentStatusRevoked,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := c.consents.Upsert(ctx, record); err != nil {
		return NewServiceError(ErrCodeDatabase, err)
	}

	return nil
}

func (c *consent) RecordOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	record := &model.OptOut{
		TenantID:    tenantID,
		ChannelType: channelType,
		Identifier:  identifier,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := c.optOuts.Upsert(ctx, record); err != nil {
		return NewServiceError(ErrCodeDatabase, err)
	}

	c.logger.Info("opt-out recorded",
		zap.String("tenantID", tenantID),
		zap.String("channelType", string(channelType)),
		zap.String("identifier", identifier))

	c.publisher.Publish(ctx, events.EventOptOutReceived, tenantID, map[string]interface{}{
		"channelType": channelType,
		"identifier":  identifier,
	})

	return nil
}

func (c *consent) ClearOptOut(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) error {
	record := &model.OptOut{
		TenantID:    tenantID,
		ChannelType: channelType,
		Identifier:  identifier,
		Active:      false,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := c.optOuts.Upsert(ctx, record); err != nil {
		return NewServiceError(ErrCodeDatabase, err)
	}

	return nil
}

func (c *consent) CanMessage(ctx context.Context, tenantID string, channelType model.ChannelType, identifier string) (Verdict, error) {
	_, err := c.optOuts.FindActive(tenantID, channelType, identifier)
	if err == nil {
		return Verdict{Allowed: false, Reason: constants.ErrCodeOptedOut}, nil
	}
	if !errors.Is(err, repository.ErrConsentNotFound) {
		return Verdict{}, NewServiceError(ErrCodeDatabase, err)
	}

	if channelType != model.ChannelTypeEmail {
		return Verdict{Allowed: true}, nil
	}

	record, err := c.consents.Get(tenantID, channelType, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrConsentNotFound) {
			return Verdict{Allowed: false, Reason: constants.ErrCodeNoConsent}, nil
		}
		return Verdict{}, NewServiceError(ErrCodeDatabase, err)
	}

	if record.Status != model.ConsentStatusGranted {
		return Verdict{Allowed: false, Reason: constants.ErrCodeNoConsent}, nil
	}

	return Verdict{Allowed: true}, nil
}

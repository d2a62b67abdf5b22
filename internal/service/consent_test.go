package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/constants"
	"github.com/coding-shalabh/nexora-api-sub000/internal/events"
	"github.com/coding-shalabh/nexora-api-sub000/internal/mocks"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
)

func TestCanMessage_OptOutBeatsGrantedConsent(t *testing.T) {
	consents := &mocks.ConsentRepository{}
	optOuts := &mocks.OptOutRepository{}
	svc := service.NewConsentService(consents, optOuts, events.NopPublisher{}, zap.NewNop())

	optOuts.On("FindActive", "tenant-1", model.ChannelTypeSMS, "+15550001").
		Return(&model.OptOut{Active: true}, nil)

	verdict, err := svc.CanMessage(context.Background(), "tenant-1", model.ChannelTypeSMS, "+15550001")

	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, constants.ErrCodeOptedOut, verdict.Reason)
	consents.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestCanMessage_EmailRequiresExplicitConsent(t *testing.T) {
	consents := &mocks.ConsentRepository{}
	optOuts := &mocks.OptOutRepository{}
	svc := service.NewConsentService(consents, optOuts, events.NopPublisher{}, zap.NewNop())

	optOuts.On("FindActive", "tenant-1", model.ChannelTypeEmail, "lead@corp.io").
		Return(nil, repository.ErrConsentNotFound)
	consents.On("Get", "tenant-1", model.ChannelTypeEmail, "lead@corp.io").
		Return(nil, repository.ErrConsentNotFound)

	verdict, err := svc.CanMessage(context.Background(), "tenant-1", model.ChannelTypeEmail, "lead@corp.io")

	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, constants.ErrCodeNoConsent, verdict.Reason)
}

func TestCanMessage_ImplicitConsentForChat(t *testing.T) {
	consents := &mocks.ConsentRepository{}
	optOuts := &mocks.OptOutRepository{}
	svc := service.NewConsentService(consents, optOuts, events.NopPublisher{}, zap.NewNop())

	optOuts.On("FindActive", "tenant-1", model.ChannelTypeWhatsApp, "+15550001").
		Return(nil, repository.ErrConsentNotFound)

	verdict, err := svc.CanMessage(context.Background(), "tenant-1", model.ChannelTypeWhatsApp, "+15550001")

	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestCanMessage_RevokedEmailConsentBlocks(t *testing.T) {
	consents := &mocks.ConsentRepository{}
	optOuts := &mocks.OptOutRepository{}
	svc := service.NewConsentService(consents, optOuts, events.NopPublisher{}, zap.NewNop())

	optOuts.On("FindActive", "tenant-1", model.ChannelTypeEmail, "lead@corp.io").
		Return(nil, repository.ErrConsentNotFound)
	consents.On("Get", "tenant-1", model.ChannelTypeEmail, "lead@corp.io").
		Return(&model.Consent{Status: model.ConsentStatusRevoked}, nil)

	verdict, err := svc.CanMessage(context.Background(), "tenant-1", model.ChannelTypeEmail, "lead@corp.io")

	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, constants.ErrCodeNoConsent, verdict.Reason)
}

func TestRecordOptOut_PublishesEvent(t *testing.T) {
	consents := &mocks.ConsentRepository{}
	optOuts := &mocks.OptOutRepository{}
	publisher := &mocks.Publisher{}
	svc := service.NewConsentService(consents, optOuts, publisher, zap.NewNop())

	optOuts.On("Upsert", mock.Anything, mock.MatchedBy(func(o *model.OptOut) bool {
		return o.Active && o.Identifier == "+15550001"
	})).Return(nil)
	publisher.On("Publish", mock.Anything, events.EventOptOutReceived, "tenant-1", mock.Anything).Return()

	err := svc.RecordOptOut(context.Background(), "tenant-1", model.ChannelTypeSMS, "+15550001")

	require.NoError(t, err)
	optOuts.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

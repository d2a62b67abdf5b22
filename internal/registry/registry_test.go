package registry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/mocks"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/registry"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

const smsCredentials = `{"accountSid":"AC123","authToken":"secret","senderId":"+15550100"}`

func smsAccount(id int64, enabled bool) *model.ChannelAccount {
	return &model.ChannelAccount{
		ID:          id,
		TenantID:    "tenant-1",
		ChannelType: model.ChannelTypeSMS,
		Enabled:     enabled,
		Credentials: smsCredentials,
	}
}

func newTestRegistry(accounts *mocks.ChannelAccountRepository, smsBaseURL string) registry.Registry {
	cfg := adapter.Config{SMSBaseURL: smsBaseURL, Timeout: time.Second}
	client := httpclient.NewHTTPClient(time.Second)
	return registry.NewRegistry(accounts, cfg, client, zap.NewNop())
}

func TestGetAdapter_CachesBuiltAdapter(t *testing.T) {
	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(1)).Return(smsAccount(1, true), nil).Once()

	reg := newTestRegistry(accounts, "http://sms.local")

	first, err := reg.GetAdapter(context.Background(), 1)
	require.NoError(t, err)

	second, err := reg.GetAdapter(context.Background(), 1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	accounts.AssertExpectations(t)
}

func TestGetAdapter_InvalidateForcesRebuild(t *testing.T) {
	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(1)).Return(smsAccount(1, true), nil).Twice()

	reg := newTestRegistry(accounts, "http://sms.local")

	_, err := reg.GetAdapter(context.Background(), 1)
	require.NoError(t, err)

	reg.InvalidateAdapter(1)

	_, err = reg.GetAdapter(context.Background(), 1)
	require.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestGetAdapter_UnknownAccount(t *testing.T) {
	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(9)).Return(nil, repository.ErrChannelAccountNotFound)

	reg := newTestRegistry(accounts, "http://sms.local")

	_, err := reg.GetAdapter(context.Background(), 9)

	assert.ErrorIs(t, err, registry.ErrChannelNotFound)
}

func TestGetAdapter_DisabledAccount(t *testing.T) {
	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(1)).Return(smsAccount(1, false), nil)

	reg := newTestRegistry(accounts, "http://sms.local")

	_, err := reg.GetAdapter(context.Background(), 1)

	assert.ErrorIs(t, err, registry.ErrChannelDisabled)
}

func TestGetAdapter_MalformedCredentials(t *testing.T) {
	account := smsAccount(1, true)
	account.Credentials = "{not json"

	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(1)).Return(account, nil)

	reg := newTestRegistry(accounts, "http://sms.local")

	_, err := reg.GetAdapter(context.Background(), 1)

	assert.Error(t, err)
}

func TestFindBestAdapter_SkipsChannelsWithoutIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	phone := "+15550001"
	contact := &model.Contact{ID: 7, Phone: &phone}

	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("FindEnabledByTenantAndType", "tenant-1", model.ChannelTypeSMS).
		Return([]model.ChannelAccount{*smsAccount(1, true)}, nil)
	accounts.On("GetByID", int64(1)).Return(smsAccount(1, true), nil)

	reg := newTestRegistry(accounts, server.URL)

	a, account, err := reg.FindBestAdapter(context.Background(), "tenant-1", contact,
		[]model.ChannelType{model.ChannelTypeEmail, model.ChannelTypeSMS})

	require.NoError(t, err)
	assert.Equal(t, model.ChannelTypeSMS, a.ChannelType())
	assert.Equal(t, int64(1), account.ID)
	accounts.AssertNotCalled(t, "FindEnabledByTenantAndType", "tenant-1", model.ChannelTypeEmail)
}

func TestFindBestAdapter_UnhealthyAccountsYieldNoUsableChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	phone := "+15550001"
	contact := &model.Contact{ID: 7, Phone: &phone}

	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("FindEnabledByTenantAndType", "tenant-1", model.ChannelTypeSMS).
		Return([]model.ChannelAccount{*smsAccount(1, true)}, nil)
	accounts.On("GetByID", int64(1)).Return(smsAccount(1, true), nil)

	reg := newTestRegistry(accounts, server.URL)

	_, _, err := reg.FindBestAdapter(context.Background(), "tenant-1", contact,
		[]model.ChannelType{model.ChannelTypeSMS})

	assert.ErrorIs(t, err, registry.ErrNoUsableChannel)
}

func TestRefreshHealth_PersistsOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	account := smsAccount(1, true)
	accounts := &mocks.ChannelAccountRepository{}
	accounts.On("GetByID", int64(1)).Return(account, nil)
	accounts.On("Update", mock.Anything, mock.MatchedBy(func(a *model.ChannelAccount) bool {
		return a.HealthStatus == model.HealthStatusHealthy && a.LastHealthCheck != nil
	})).Return(nil)

	reg := newTestRegistry(accounts, server.URL)

	status, err := reg.RefreshHealth(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, model.HealthStatusHealthy, status)
	accounts.AssertExpectations(t)
}

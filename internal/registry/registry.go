package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/httpclient"
)

var (
	ErrChannelNotFound = errors.New("CHANNEL_NOT_FOUND")
	ErrChannelDisabled = errors.New("CHANNEL_DISABLED")
	ErrNoUsableChannel = errors.New("NO_USABLE_CHANNEL")
)

// Registry hands out one live adapter per channel account, built lazily from
// the account's stored credentials and cached until invalidated.
type Registry interface {
	GetAdapter(ctx context.Context, accountID int64) (adapter.Adapter, error)
	InvalidateAdapter(accountID int64)
	FindBestAdapter(ctx context.Context, tenantID string, contact *model.Contact, preferred []model.ChannelType) (adapter.Adapter, *model.ChannelAccount, error)
	RefreshHealth(ctx context.Context, accountID int64) (model.HealthStatus, error)
}

var _ Registry = (*registry)(nil)

type registry struct {
	accounts repository.ChannelAccountRepository
	cfg      adapter.Config
	client   httpclient.HTTPClient
	logger   *zap.Logger

	mu    sync.RWMutex
	cache map[int64]adapter.Adapter
}

func NewRegistry(accounts repository.ChannelAccountRepository, cfg adapter.Config, client httpclient.HTTPClient, logger *zap.Logger) Registry {
	return &registry{
		accounts: accounts,
		cfg:      cfg,
		client:   client,
		logger:   logger,
		cache:    make(map[int64]adapter.Adapter),
	}
}

func (r *registry) GetAdapter(ctx context.Context, accountID int64) (adapter.Adapter, error) {
	r.mu.RLock()
	cached, ok := r.cache[accountID]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	account, err := r.accounts.GetByID(accountID)
	if err != nil {
		if errors.Is(err, repository.ErrChannelAccountNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	if !account.Enabled {
		return nil, ErrChannelDisabled
	}

	built, err := r.build(*account)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	// Another goroutine may have built it while we were reading the account.
	if existing, ok := r.cache[accountID]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.cache[accountID] = built
	r.mu.Unlock()

	r.logger.Info("adapter created",
		zap.Int64("accountID", accountID),
		zap.String("channelType", string(account.ChannelType)))

	return built, nil
}

func (r *registry) InvalidateAdapter(accountID int64) {
	r.mu.Lock()
	delete(r.cache, accountID)
	r.mu.Unlock()
}

// FindBestAdapter walks the caller's channel preference order, skips channels
// the contact has no identifier for, and returns the first adapter that
// currently reports healthy. No healthy adapter is a legitimate outcome, not
// an infrastructure fault.
func (r *registry) FindBestAdapter(ctx context.Context, tenantID string, contact *model.Contact, preferred []model.ChannelType) (adapter.Adapter, *model.ChannelAccount, error) {
	for _, channelType := range preferred {
		if contact.IdentifierFor(channelType) == "" {
			continue
		}

		accounts, err := r.accounts.FindEnabledByTenantAndType(tenantID, channelType)
		if err != nil {
			return nil, nil, err
		}

		for i := range accounts {
			account := accounts[i]

			a, err := r.GetAdapter(ctx, account.ID)
			if err != nil {
				r.logger.Warn("skipping account with unusable credentials",
					zap.Int64("accountID", account.ID), zap.Error(err))
				continue
			}

			if health := a.HealthStatus(ctx); !health.Healthy {
				continue
			}

			return a, &account, nil
		}
	}

	return nil, nil, ErrNoUsableChannel
}

// RefreshHealth probes the vendor and persists the outcome on the account.
func (r *registry) RefreshHealth(ctx context.Context, accountID int64) (model.HealthStatus, error) {
	a, err := r.GetAdapter(ctx, accountID)
	if err != nil {
		return model.HealthStatusUnknown, err
	}

	health := a.HealthStatus(ctx)
	status := model.HealthStatusHealthy
	if !health.Healthy {
		status = model.HealthStatusError
	}

	now := time.Now().UTC()
	account, err := r.accounts.GetByID(accountID)
	if err != nil {
		return status, err
	}

	account.HealthStatus = status
	account.LastHealthCheck = &now
	if err := r.accounts.Update(ctx, account); err != nil {
		return status, err
	}

	if status == model.HealthStatusError {
		r.logger.Warn("channel account unhealthy",
			zap.Int64("accountID", accountID), zap.String("detail", health.Detail))
	}

	return status, nil
}

func (r *registry) build(account model.ChannelAccount) (adapter.Adapter, error) {
	switch account.ChannelType {
	case model.ChannelTypeWhatsApp:
		return adapter.NewWhatsAppAdapter(account, r.cfg, r.client)
	case model.ChannelTypeSMS:
		return adapter.NewSMSAdapter(account, r.cfg, r.client)
	case model.ChannelTypeEmail:
		return adapter.NewEmailAdapter(account, r.cfg, r.client)
	case model.ChannelTypeVoice:
		return adapter.NewVoiceAdapter(account, r.cfg, r.client)
	default:
		return nil, fmt.Errorf("unsupported channel type %q", account.ChannelType)
	}
}

package consumers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coding-shalabh/nexora-api-sub000/internal/mocks"
	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/coding-shalabh/nexora-api-sub000/internal/repository"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
)

const costReport = `{
	"tenant_id": "tenant-1",
	"workspace_id": "ws-1",
	"channel_type": "SMS",
	"period_start": "2026-08-01T00:00:00Z",
	"period_end": "2026-09-01T00:00:00Z",
	"costs": [
		{"external_id": "SM123", "actual_cost": 45},
		{"external_id": "SM124", "actual_cost": 45}
	]
}`

func TestHandleMessage_ReconcilesReport(t *testing.T) {
	meter := &mocks.Meter{}
	c := &reconcileConsumer{meter: meter, logger: zap.NewNop()}

	meter.On("Reconcile", mock.Anything, mock.MatchedBy(func(cmd usage.ReconcileCommand) bool {
		return cmd.TenantID == "tenant-1" &&
			cmd.ChannelType == model.ChannelTypeSMS &&
			cmd.PeriodStart.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) &&
			len(cmd.ProviderCosts) == 2 &&
			cmd.ProviderCosts[0].ExternalID == "SM123"
	})).Return(&usage.Reconciliation{Matched: 2}, nil)

	err := c.handleMessage(context.Background(), []byte(costReport))

	require.NoError(t, err)
	meter.AssertExpectations(t)
}

func TestHandleMessage_InvalidPayloadNotRequeued(t *testing.T) {
	meter := &mocks.Meter{}
	c := &reconcileConsumer{meter: meter, logger: zap.NewNop()}

	err := c.handleMessage(context.Background(), []byte("{broken"))

	require.Error(t, err)
	var temp mq.TempError
	assert.NotErrorAs(t, err, &temp)
	meter.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything)
}

func TestHandleMessage_UnknownWalletDropped(t *testing.T) {
	meter := &mocks.Meter{}
	c := &reconcileConsumer{meter: meter, logger: zap.NewNop()}

	meter.On("Reconcile", mock.Anything, mock.Anything).Return(nil, repository.ErrWalletNotFound)

	err := c.handleMessage(context.Background(), []byte(costReport))

	assert.NoError(t, err)
}

func TestHandleMessage_InfrastructureFailureRequeued(t *testing.T) {
	meter := &mocks.Meter{}
	c := &reconcileConsumer{meter: meter, logger: zap.NewNop()}

	meter.On("Reconcile", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	err := c.handleMessage(context.Background(), []byte(costReport))

	require.Error(t, err)
	var temp mq.TempError
	assert.ErrorAs(t, err, &temp)
}

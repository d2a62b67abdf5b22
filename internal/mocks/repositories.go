package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
)

type ChannelAccountRepository struct {
	mock.Mock
}

func (m *ChannelAccountRepository) GetByID(id int64) (*model.ChannelAccount, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelAccount), args.Error(1)
}

func (m *ChannelAccountRepository) FindEnabledByTenantAndType(tenantID string, channelType model.ChannelType) ([]model.ChannelAccount, error) {
	args := m.Called(tenantID, channelType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ChannelAccount), args.Error(1)
}

func (m *ChannelAccountRepository) Update(ctx context.Context, account *model.ChannelAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MessageEventRepository struct {
	mock.Mock
}

func (m *MessageEventRepository) Create(ctx context.Context, message *model.MessageEvent) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageEventRepository) Update(ctx context.Context, message *model.MessageEvent) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageEventRepository) GetByID(id int64) (*model.MessageEvent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageEvent), args.Error(1)
}

func (m *MessageEventRepository) GetByExternalID(externalID string) (*model.MessageEvent, error) {
	args := m.Called(externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MessageEvent), args.Error(1)
}

func (m *MessageEventRepository) ListByThread(threadID int64, limit, offset int) ([]model.MessageEvent, error) {
	args := m.Called(threadID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MessageEvent), args.Error(1)
}

type ThreadRepository struct {
	mock.Mock
}

func (m *ThreadRepository) Create(ctx context.Context, thread *model.Thread) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *ThreadRepository) Update(ctx context.Context, thread *model.Thread) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *ThreadRepository) GetByID(id int64) (*model.Thread, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Thread), args.Error(1)
}

func (m *ThreadRepository) GetByAccountAndIdentifier(channelAccountID int64, identifier string) (*model.Thread, error) {
	args := m.Called(channelAccountID, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Thread), args.Error(1)
}

type ContactRepository struct {
	mock.Mock
}

func (m *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *ContactRepository) GetByID(id int64) (*model.Contact, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *ContactRepository) FindByIdentifier(tenantID string, channelType model.ChannelType, identifier string) (*model.Contact, error) {
	args := m.Called(tenantID, channelType, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

type WalletRepository struct {
	mock.Mock
}

func (m *WalletRepository) Create(ctx context.Context, wallet *model.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *WalletRepository) GetByTenantAndWorkspace(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error) {
	args := m.Called(ctx, tenantID, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *WalletRepository) GetForUpdate(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error) {
	args := m.Called(ctx, tenantID, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wallet), args.Error(1)
}

func (m *WalletRepository) UpdateBalance(ctx context.Context, walletID int64, balance int64) error {
	args := m.Called(ctx, walletID, balance)
	return args.Error(0)
}

type WalletTransactionRepository struct {
	mock.Mock
}

func (m *WalletTransactionRepository) Create(ctx context.Context, transaction *model.WalletTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *WalletTransactionRepository) ListByWallet(walletID int64, limit, offset int) ([]model.WalletTransaction, error) {
	args := m.Called(walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WalletTransaction), args.Error(1)
}

type UsageEventRepository struct {
	mock.Mock
}

func (m *UsageEventRepository) Create(ctx context.Context, event *model.UsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *UsageEventRepository) GetByMessageEventID(messageEventID int64) (*model.UsageEvent, error) {
	args := m.Called(messageEventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageEvent), args.Error(1)
}

func (m *UsageEventRepository) MarkReconciled(ctx context.Context, usageEventID int64, actualCost int64, reconciledAt time.Time) error {
	args := m.Called(ctx, usageEventID, actualCost, reconciledAt)
	return args.Error(0)
}

type ConsentRepository struct {
	mock.Mock
}

func (m *ConsentRepository) Upsert(ctx context.Context, consent *model.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *ConsentRepository) Get(tenantID string, channelType model.ChannelType, identifier string) (*model.Consent, error) {
	args := m.Called(tenantID, channelType, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Consent), args.Error(1)
}

type OptOutRepository struct {
	mock.Mock
}

func (m *OptOutRepository) Upsert(ctx context.Context, optOut *model.OptOut) error {
	args := m.Called(ctx, optOut)
	return args.Error(0)
}

func (m *OptOutRepository) FindActive(tenantID string, channelType model.ChannelType, identifier string) (*model.OptOut, error) {
	args := m.Called(tenantID, channelType, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OptOut), args.Error(1)
}

type SequenceRepository struct {
	mock.Mock
}

func (m *SequenceRepository) GetByID(id int64) (*model.Sequence, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sequence), args.Error(1)
}

func (m *SequenceRepository) GetStep(sequenceID int64, stepNumber int) (*model.SequenceStep, error) {
	args := m.Called(sequenceID, stepNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SequenceStep), args.Error(1)
}

func (m *SequenceRepository) CountSteps(sequenceID int64) (int, error) {
	args := m.Called(sequenceID)
	return args.Int(0), args.Error(1)
}

type EnrollmentRepository struct {
	mock.Mock
}

func (m *EnrollmentRepository) Create(ctx context.Context, enrollment *model.SequenceEnrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *EnrollmentRepository) Update(ctx context.Context, enrollment *model.SequenceEnrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *EnrollmentRepository) GetByID(id int64) (*model.SequenceEnrollment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SequenceEnrollment), args.Error(1)
}

func (m *EnrollmentRepository) FindActiveByContact(tenantID string, contactID int64) ([]model.SequenceEnrollment, error) {
	args := m.Called(tenantID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SequenceEnrollment), args.Error(1)
}

type StepRunRepository struct {
	mock.Mock
}

func (m *StepRunRepository) Create(ctx context.Context, run *model.SequenceStepRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *StepRunRepository) Update(ctx context.Context, run *model.SequenceStepRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *StepRunRepository) FindDue(now time.Time, limit int) ([]model.SequenceStepRun, error) {
	args := m.Called(now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SequenceStepRun), args.Error(1)
}

func (m *StepRunRepository) CancelScheduledByEnrollment(ctx context.Context, enrollmentID int64) error {
	args := m.Called(ctx, enrollmentID)
	return args.Error(0)
}

func (m *StepRunRepository) CountCompletedSince(sequenceID int64, since time.Time) (int, error) {
	args := m.Called(sequenceID, since)
	return args.Int(0), args.Error(1)
}

type FollowUpTaskRepository struct {
	mock.Mock
}

func (m *FollowUpTaskRepository) Create(ctx context.Context, task *model.FollowUpTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

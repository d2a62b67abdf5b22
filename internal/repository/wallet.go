package repository

import (
	"context"
	"errors"

	"github.com/coding-shalabh/nexora-api-sub000/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrWalletNotFound = errors.New("WALLET_NOT_FOUND")
var ErrTransactionExists = errors.New("TRANSACTION_EXISTS")

type WalletRepository interface {
	Create(ctx context.Context, wallet *model.Wallet) error
	GetByTenantAndWorkspace(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error)
	GetForUpdate(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error)
	UpdateBalance(ctx context.Context, walletID int64, balance int64) error
}

type Wallet struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &Wallet{db: db}
}

func (w *Wallet) Create(ctx context.Context, wallet *model.Wallet) error {
	db := GetTx(ctx, w.db)
	return db.Create(wallet).Error
}

// GetByTenantAndWorkspace is a plain snapshot read for advisory balance
// checks. Any read that precedes a balance write must use GetForUpdate.
func (w *Wallet) GetByTenantAndWorkspace(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error) {
	var wallet model.Wallet

	db := GetTx(ctx, w.db)
	err := db.Where("tenant_id = ? AND workspace_id = ?", tenantID, workspaceID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}

	return nil, err
}

// GetForUpdate reads the wallet with a row lock held until the surrounding
// transaction commits. Concurrent debits against the same wallet serialize on
// this read instead of overwriting each other's balance.
func (w *Wallet) GetForUpdate(ctx context.Context, tenantID, workspaceID string) (*model.Wallet, error) {
	var wallet model.Wallet

	db := GetTx(ctx, w.db)
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND workspace_id = ?", tenantID, workspaceID).
		First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}

	return nil, err
}

func (w *Wallet) UpdateBalance(ctx context.Context, walletID int64, balance int64) error {
	db := GetTx(ctx, w.db)
	return db.Model(&model.Wallet{}).Where("id = ?", walletID).
		Update("balance", balance).Error
}

type WalletTransactionRepository interface {
	Create(ctx context.Context, transaction *model.WalletTransaction) error
	ListByWallet(walletID int64, limit, offset int) ([]model.WalletTransaction, error)
}

type WalletTransaction struct {
	db *gorm.DB
}

func NewWalletTransactionRepository(db *gorm.DB) WalletTransactionRepository {
	return &WalletTransaction{db: db}
}

func (t *WalletTransaction) Create(ctx context.Context, transaction *model.WalletTransaction) error {
	db := GetTx(ctx, t.db)
	err := db.Create(transaction).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrTransactionExists
	}

	return err
}

func (t *WalletTransaction) ListByWallet(walletID int64, limit, offset int) ([]model.WalletTransaction, error) {
	var transactions []model.WalletTransaction

	err := t.db.Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

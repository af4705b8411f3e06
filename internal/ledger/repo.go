package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
)

// ErrStaleTransaction is returned when an optimistic update loses the race to
// a concurrent writer.
var ErrStaleTransaction = errors.New("transaction was modified concurrently")

// ErrTransactionNotFound is returned when no row matches the lookup.
var ErrTransactionNotFound = errors.New("transaction not found")

// activeStatuses block a new initiation for the same order: in-flight
// attempts and settled-accepted payments. A rejected attempt frees the order
// for a retry; an accepted one must never be charged again.
var activeStatuses = []enums.TransactionStatus{
	enums.TransactionStatusPending,
	enums.TransactionStatusProcessing,
	enums.TransactionStatusAccepted,
}

// Repository manages persistence for payment transactions and their audit
// events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByPID(ctx context.Context, pid string) (*models.Transaction, error)
	FindByProviderRef(ctx context.Context, providerRef string) (*models.Transaction, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error)
	FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error)
	Update(ctx context.Context, txn *models.Transaction) error
	AppendEvent(ctx context.Context, event *models.TransactionEvent) error
	ListEventsByTransaction(ctx context.Context, txnID uuid.UUID) ([]models.TransactionEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByPID(ctx context.Context, pid string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("pid = ?", pid).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByProviderRef(ctx context.Context, providerRef string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("provider_ref = ?", providerRef).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, activeStatuses).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Update persists the transaction guarded by its lock_version. Losing the
// compare-and-swap returns ErrStaleTransaction so callers can re-read.
func (r *repository) Update(ctx context.Context, txn *models.Transaction) error {
	currentVersion := txn.LockVersion
	txn.LockVersion = currentVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND lock_version = ?", txn.ID, currentVersion).
		Select("status", "provider_ref", "receipt_code", "details", "feedback", "lock_version", "updated_at").
		Updates(txn)
	if result.Error != nil {
		txn.LockVersion = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		txn.LockVersion = currentVersion
		return ErrStaleTransaction
	}
	return nil
}

func (r *repository) AppendEvent(ctx context.Context, event *models.TransactionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListEventsByTransaction(ctx context.Context, txnID uuid.UUID) ([]models.TransactionEvent, error) {
	var events []models.TransactionEvent
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txnID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

package repositories

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
)

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionByID retrieves a user's transaction by its identifier.
	FindTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)

	// FindTransactionByFingerprint returns the stored record carrying the
	// fingerprint, or apperrors.ErrNotFound. When cashFlowID is non-nil the
	// match is scoped to that cash flow, but rows with no cash flow at all
	// (legacy unscoped data) still match.
	FindTransactionByFingerprint(ctx context.Context, userID, fingerprint string, cashFlowID *string) (*domain.Transaction, error)

	// FindExistingFingerprints returns, in a single round trip, the subset of
	// fingerprints already present for the user under the same scope rule as
	// FindTransactionByFingerprint. An empty result is not an error.
	FindExistingFingerprints(ctx context.Context, userID string, fingerprints []string, cashFlowID *string) (map[string]struct{}, error)

	// FindLatestDuplicate returns the most recently created transaction that
	// names parentID as its duplicate parent, or apperrors.ErrNotFound.
	FindLatestDuplicate(ctx context.Context, userID, parentID string) (*domain.Transaction, error)

	// ListTransactionsByFlowMonth retrieves a user's transactions for one
	// "YYYY-MM" bucket, optionally scoped to a cash flow.
	ListTransactionsByFlowMonth(ctx context.Context, userID, flowMonth string, cashFlowID *string) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for transaction data.
type TransactionWriter interface {
	// SaveTransaction inserts a new transaction. A fingerprint uniqueness
	// violation is reported as apperrors.ErrDuplicate.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransaction overwrites the mutable fields of an existing record.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) error

	// DeleteTransaction removes a user's transaction.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}

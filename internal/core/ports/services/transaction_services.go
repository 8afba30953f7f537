package services

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
	"github.com/talkal/home_finance_app/internal/dto"
)

// TransactionSvcFacade exposes read/edit operations on stored transactions.
type TransactionSvcFacade interface {
	// GetTransaction retrieves one of the user's transactions.
	GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves the user's transactions for one "YYYY-MM"
	// bucket, optionally scoped to a cash flow.
	ListTransactions(ctx context.Context, userID, flowMonth string, cashFlowID *string) ([]domain.Transaction, error)

	// UpdateTransaction applies a user edit. Recipient extraction reruns on
	// the merged business name and notes; stored fingerprints of other
	// records are not rehashed.
	UpdateTransaction(ctx context.Context, userID, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error)

	// DeleteTransaction removes one of the user's transactions.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

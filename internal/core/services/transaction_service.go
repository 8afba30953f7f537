package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/talkal/home_finance_app/internal/core/domain"
	portsrepo "github.com/talkal/home_finance_app/internal/core/ports/repositories"
	portssvc "github.com/talkal/home_finance_app/internal/core/ports/services"
	"github.com/talkal/home_finance_app/internal/dto"
	"github.com/talkal/home_finance_app/internal/middleware"
	"github.com/talkal/home_finance_app/internal/utils/recipient"
)

// transactionService implements read and edit operations on stored
// transactions.
type transactionService struct {
	txnRepo portsrepo.TransactionRepositoryFacade
}

// NewTransactionService creates the transaction service.
func NewTransactionService(txnRepo portsrepo.TransactionRepositoryFacade) portssvc.TransactionSvcFacade {
	return &transactionService{txnRepo: txnRepo}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// GetTransaction implements portssvc.TransactionSvcFacade.
func (s *transactionService) GetTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.txnRepo.FindTransactionByID(ctx, userID, transactionID)
}

// ListTransactions implements portssvc.TransactionSvcFacade.
func (s *transactionService) ListTransactions(ctx context.Context, userID, flowMonth string, cashFlowID *string) ([]domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.txnRepo.ListTransactionsByFlowMonth(ctx, userID, flowMonth, cashFlowID)
}

// UpdateTransaction implements portssvc.TransactionSvcFacade. Only fields
// present in the request change. When the business name or notes change and
// the user did not pin a recipient explicitly, extraction reruns on the merged
// values; the stored fingerprint is left alone so existing duplicate links
// stay valid.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, req dto.UpdateTransactionRequest) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("user_id", userID),
		slog.String("transaction_id", transactionID),
	)

	txn, err := s.txnRepo.FindTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *txn
	identityChanged := false
	if req.BusinessName != nil {
		updated.BusinessName = *req.BusinessName
		identityChanged = true
	}
	if req.PaymentDate != nil {
		updated.PaymentDate = *req.PaymentDate
		applyPeriodFields(&updated)
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			return nil, err
		}
		updated.Amount = amount
	}
	if req.Currency != nil {
		updated.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.Notes != nil {
		updated.Notes = *req.Notes
		identityChanged = true
	}
	if req.PaymentMethod != nil {
		updated.PaymentMethod = *req.PaymentMethod
	}
	if req.CategoryName != nil {
		updated.CategoryName = *req.CategoryName
	}

	switch {
	case req.RecipientName != nil:
		updated.RecipientName = *req.RecipientName
	case identityChanged:
		name, cleaned := recipient.Extract(updated.BusinessName, updated.Notes)
		updated.RecipientName = name
		updated.Notes = cleaned
	}

	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = userID

	if err := s.txnRepo.UpdateTransaction(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	logger.Info("Transaction updated")
	return &updated, nil
}

// DeleteTransaction implements portssvc.TransactionSvcFacade.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	return s.txnRepo.DeleteTransaction(ctx, userID, transactionID)
}

package services

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
	"github.com/talkal/home_finance_app/internal/dto"
)

// CashFlowSvcFacade manages a user's ledger containers.
type CashFlowSvcFacade interface {
	// CreateCashFlow creates a new cash flow for the user.
	CreateCashFlow(ctx context.Context, userID string, req dto.CreateCashFlowRequest) (*domain.CashFlow, error)

	// GetCashFlow retrieves one of the user's cash flows.
	GetCashFlow(ctx context.Context, userID, cashFlowID string) (*domain.CashFlow, error)

	// ListCashFlows retrieves all of the user's cash flows.
	ListCashFlows(ctx context.Context, userID string) ([]domain.CashFlow, error)
}

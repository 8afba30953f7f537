package repositories

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
)

// CashFlowReader defines read operations for cash flow data.
type CashFlowReader interface {
	// FindCashFlowByID retrieves a user's cash flow by its identifier.
	FindCashFlowByID(ctx context.Context, userID, cashFlowID string) (*domain.CashFlow, error)

	// ListCashFlowsByUser retrieves all cash flows belonging to a user.
	ListCashFlowsByUser(ctx context.Context, userID string) ([]domain.CashFlow, error)
}

// CashFlowWriter defines write operations for cash flow data.
type CashFlowWriter interface {
	// SaveCashFlow inserts a new cash flow.
	SaveCashFlow(ctx context.Context, flow domain.CashFlow) error
}

// CashFlowRepositoryFacade combines all cash flow repository interfaces.
type CashFlowRepositoryFacade interface {
	CashFlowReader
	CashFlowWriter
}

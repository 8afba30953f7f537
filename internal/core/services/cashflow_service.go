package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talkal/home_finance_app/internal/core/domain"
	portsrepo "github.com/talkal/home_finance_app/internal/core/ports/repositories"
	portssvc "github.com/talkal/home_finance_app/internal/core/ports/services"
	"github.com/talkal/home_finance_app/internal/dto"
)

type cashFlowService struct {
	flowRepo portsrepo.CashFlowRepositoryFacade
}

// NewCashFlowService creates the cash flow service.
func NewCashFlowService(flowRepo portsrepo.CashFlowRepositoryFacade) portssvc.CashFlowSvcFacade {
	return &cashFlowService{flowRepo: flowRepo}
}

var _ portssvc.CashFlowSvcFacade = (*cashFlowService)(nil)

// CreateCashFlow implements portssvc.CashFlowSvcFacade.
func (s *cashFlowService) CreateCashFlow(ctx context.Context, userID string, req dto.CreateCashFlowRequest) (*domain.CashFlow, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	now := time.Now().UTC()
	flow := domain.CashFlow{
		CashFlowID: uuid.NewString(),
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsDefault:  req.IsDefault,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.flowRepo.SaveCashFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to create cash flow: %w", err)
	}
	return &flow, nil
}

// GetCashFlow implements portssvc.CashFlowSvcFacade.
func (s *cashFlowService) GetCashFlow(ctx context.Context, userID, cashFlowID string) (*domain.CashFlow, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.flowRepo.FindCashFlowByID(ctx, userID, cashFlowID)
}

// ListCashFlows implements portssvc.CashFlowSvcFacade.
func (s *cashFlowService) ListCashFlows(ctx context.Context, userID string) ([]domain.CashFlow, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.flowRepo.ListCashFlowsByUser(ctx, userID)
}

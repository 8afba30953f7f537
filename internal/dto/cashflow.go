package dto

import "github.com/talkal/home_finance_app/internal/core/domain"

// CreateCashFlowRequest creates a new ledger container for the user.
type CreateCashFlowRequest struct {
	Name      string `json:"name" binding:"required"`
	Currency  string `json:"currency" binding:"required,len=3"`
	IsDefault bool   `json:"isDefault"`
}

// CashFlowResponse is the API shape of a cash flow.
type CashFlowResponse struct {
	CashFlowID string `json:"cashFlowID"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	IsDefault  bool   `json:"isDefault"`
}

// ToCashFlowResponse maps a domain cash flow to its API shape.
func ToCashFlowResponse(flow *domain.CashFlow) CashFlowResponse {
	return CashFlowResponse{
		CashFlowID: flow.CashFlowID,
		Name:       flow.Name,
		Currency:   flow.Currency,
		IsDefault:  flow.IsDefault,
	}
}

// ToCashFlowResponses maps a list of domain cash flows.
func ToCashFlowResponses(flows []domain.CashFlow) []CashFlowResponse {
	responses := make([]CashFlowResponse, len(flows))
	for i := range flows {
		responses[i] = ToCashFlowResponse(&flows[i])
	}
	return responses
}

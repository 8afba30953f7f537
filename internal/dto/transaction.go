package dto

import (
	"github.com/shopspring/decimal"

	"github.com/talkal/home_finance_app/internal/core/domain"
)

// CreateTransactionRequest is one incoming transaction candidate from any
// ingestion adapter. Amount and PaymentDate are accepted raw; normalization
// happens inside the import engine so a malformed row still fingerprints
// deterministically instead of failing binding.
type CreateTransactionRequest struct {
	BusinessName      string         `json:"businessName" binding:"required"`
	PaymentDate       string         `json:"paymentDate"`
	Amount            string         `json:"amount" binding:"required"`
	Currency          string         `json:"currency" binding:"omitempty,len=3"`
	Notes             string         `json:"notes"`
	PaymentMethod     string         `json:"paymentMethod"`
	PaymentIdentifier string         `json:"paymentIdentifier"`
	RecipientName     string         `json:"recipientName"`
	CategoryName      string         `json:"categoryName"`
	CashFlowID        *string        `json:"cashFlowID"`
	SourceType        string         `json:"sourceType"`
	Fingerprint       string         `json:"fingerprint"`
	Force             bool           `json:"force"`
	Metadata          map[string]any `json:"metadata"`
}

// ToCandidate maps the request onto a domain candidate for the given
// authenticated user.
func (r CreateTransactionRequest) ToCandidate(userID string) domain.TransactionCandidate {
	sourceType := domain.SourceType(r.SourceType)
	if sourceType == "" {
		sourceType = domain.SourceManual
	}
	return domain.TransactionCandidate{
		UserID:            userID,
		CashFlowID:        r.CashFlowID,
		BusinessName:      r.BusinessName,
		PaymentDate:       r.PaymentDate,
		Amount:            r.Amount,
		Currency:          r.Currency,
		Notes:             r.Notes,
		PaymentMethod:     r.PaymentMethod,
		PaymentIdentifier: r.PaymentIdentifier,
		RecipientName:     r.RecipientName,
		CategoryName:      r.CategoryName,
		SourceType:        sourceType,
		Fingerprint:       r.Fingerprint,
		Force:             r.Force,
		Metadata:          r.Metadata,
	}
}

// UpdateTransactionRequest is a user edit. Nil fields are left untouched.
type UpdateTransactionRequest struct {
	BusinessName  *string `json:"businessName"`
	PaymentDate   *string `json:"paymentDate"`
	Amount        *string `json:"amount"`
	Currency      *string `json:"currency" binding:"omitempty,len=3"`
	Notes         *string `json:"notes"`
	PaymentMethod *string `json:"paymentMethod"`
	RecipientName *string `json:"recipientName"`
	CategoryName  *string `json:"categoryName"`
}

// TransactionResponse is the API shape of a stored transaction.
type TransactionResponse struct {
	TransactionID     string          `json:"transactionID"`
	CashFlowID        *string         `json:"cashFlowID,omitempty"`
	BusinessName      string          `json:"businessName"`
	PaymentDate       string          `json:"paymentDate"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Notes             string          `json:"notes"`
	PaymentMethod     string          `json:"paymentMethod,omitempty"`
	RecipientName     string          `json:"recipientName,omitempty"`
	CategoryName      string          `json:"categoryName,omitempty"`
	Fingerprint       string          `json:"fingerprint"`
	FlowMonth         string          `json:"flowMonth,omitempty"`
	SourceType        string          `json:"sourceType"`
	DuplicateParentID *string         `json:"duplicateParentID,omitempty"`
}

// ToTransactionResponse maps a domain transaction to its API shape.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:     txn.TransactionID,
		CashFlowID:        txn.CashFlowID,
		BusinessName:      txn.BusinessName,
		PaymentDate:       txn.PaymentDate,
		Amount:            txn.Amount,
		Currency:          txn.Currency,
		Notes:             txn.Notes,
		PaymentMethod:     txn.PaymentMethod,
		RecipientName:     txn.RecipientName,
		CategoryName:      txn.CategoryName,
		Fingerprint:       txn.Fingerprint,
		FlowMonth:         txn.FlowMonth,
		SourceType:        string(txn.SourceType),
		DuplicateParentID: txn.DuplicateParentID,
	}
}

// ToTransactionResponses maps a list of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

package dto

import (
	"github.com/talkal/home_finance_app/internal/core/domain"
)

// ReconcileOptions controls a single-record reconciliation.
type ReconcileOptions struct {
	// Force records the transaction even when its fingerprint already exists,
	// disambiguated so the stored copy remains distinguishable.
	Force bool
}

// ImportOptions controls a batch import.
type ImportOptions struct {
	// Force applies to every record in the batch.
	Force bool

	// DuplicateDecisions maps a conflicting fingerprint to the user's choice
	// for it: import (force through), skip, or replace the stored record.
	DuplicateDecisions map[string]domain.DuplicateDecision
}

// ImportBatchRequest is a parsed spreadsheet or scrape result ready for
// reconciliation. Per-record Force flags are honored in addition to the
// batch-level flag.
type ImportBatchRequest struct {
	Records            []CreateTransactionRequest          `json:"records" binding:"required,min=1,dive"`
	CashFlowID         *string                             `json:"cashFlowID"`
	Force              bool                                `json:"force"`
	DuplicateDecisions map[string]domain.DuplicateDecision `json:"duplicateDecisions" binding:"omitempty,dive,duplicatedecision"`
}

// ReconcileResponse is the API shape of a single reconciliation outcome.
type ReconcileResponse struct {
	Status      domain.ImportStatus  `json:"status"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Existing    *TransactionResponse `json:"existing,omitempty"`
}

// ToReconcileResponse maps a domain reconcile result to its API shape.
func ToReconcileResponse(result *domain.ReconcileResult) ReconcileResponse {
	resp := ReconcileResponse{Status: result.Status}
	if result.Transaction != nil {
		txn := ToTransactionResponse(result.Transaction)
		resp.Transaction = &txn
	}
	if result.Existing != nil {
		existing := ToTransactionResponse(result.Existing)
		resp.Existing = &existing
	}
	return resp
}

// ImportBatchResponse summarizes a batch import, per-record results in input
// order.
type ImportBatchResponse struct {
	AcceptedCount  int                   `json:"acceptedCount"`
	DuplicateCount int                   `json:"duplicateCount"`
	SkippedCount   int                   `json:"skippedCount"`
	ReplacedCount  int                   `json:"replacedCount"`
	ErrorCount     int                   `json:"errorCount"`
	Results        []domain.RecordResult `json:"results"`
}

// ToImportBatchResponse maps a domain batch summary to its API shape.
func ToImportBatchResponse(summary *domain.BatchSummary) ImportBatchResponse {
	return ImportBatchResponse{
		AcceptedCount:  summary.AcceptedCount,
		DuplicateCount: summary.DuplicateCount,
		SkippedCount:   summary.SkippedCount,
		ReplacedCount:  summary.ReplacedCount,
		ErrorCount:     summary.ErrorCount,
		Results:        summary.Results,
	}
}

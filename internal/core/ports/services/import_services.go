package services

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
	"github.com/talkal/home_finance_app/internal/dto"
)

// ImportSvcFacade is the surface ingestion adapters (manual form, spreadsheet
// parser, scraping adapter) use to get candidate records reconciled against
// the store.
type ImportSvcFacade interface {
	// ReconcileTransaction decides whether the candidate is new, a duplicate
	// of a stored record, or a user-forced intentional re-entry, and persists
	// accordingly. A duplicate outcome is control flow, not an error.
	ReconcileTransaction(ctx context.Context, candidate domain.TransactionCandidate, opts dto.ReconcileOptions) (*domain.ReconcileResult, error)

	// ImportBatch reconciles a list of candidates with a single up-front
	// batch existence check. Records are processed and reported in input
	// order; one record's failure does not abort the batch.
	ImportBatch(ctx context.Context, candidates []domain.TransactionCandidate, opts dto.ImportOptions) (*domain.BatchSummary, error)

	// ReplaceTransaction overwrites a stored record in place with the
	// candidate's data, in response to the user choosing "overwrite" for a
	// duplicate conflict. The stored record keeps its fingerprint slot.
	ReplaceTransaction(ctx context.Context, userID, existingID string, candidate domain.TransactionCandidate) (*domain.Transaction, error)
}

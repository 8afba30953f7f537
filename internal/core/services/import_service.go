package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/talkal/home_finance_app/internal/apperrors"
	"github.com/talkal/home_finance_app/internal/core/domain"
	portsrepo "github.com/talkal/home_finance_app/internal/core/ports/repositories"
	portssvc "github.com/talkal/home_finance_app/internal/core/ports/services"
	"github.com/talkal/home_finance_app/internal/dto"
	"github.com/talkal/home_finance_app/internal/middleware"
	"github.com/talkal/home_finance_app/internal/utils/fingerprint"
	"github.com/talkal/home_finance_app/internal/utils/recipient"
)

var (
	ErrUserIDRequired = fmt.Errorf("%w: user ID is required", apperrors.ErrValidation)
	ErrInvalidAmount  = fmt.Errorf("%w: amount must be a valid number", apperrors.ErrValidation)
)

// duplicateNoteMarker prefixes the human-readable note that links a forced
// duplicate back to the record it duplicates.
const duplicateNoteMarker = "כפילות של עסקה"

// maxCollisionAttempts bounds the forced-duplicate rehash loop so a
// pathological input can never hang an import.
const maxCollisionAttempts = 10

// attemptSuffixPattern strips a previous attempt counter before appending the
// next one, keeping retries idempotent.
var attemptSuffixPattern = regexp.MustCompile(` \((?:seq )?\d+\)$`)

// duplicateSeq disambiguates forced duplicates once the bounded rehash loop
// is exhausted. A monotonic counter, not wall-clock time: a timestamp could
// repeat under high-frequency automated import, and the counter keeps the
// exhausted branch deterministic enough to test.
var duplicateSeq atomic.Int64

// importService implements transaction import reconciliation: fingerprinting,
// duplicate detection, forced-duplicate disambiguation, batch imports and
// in-place replacement.
type importService struct {
	txnRepo portsrepo.TransactionRepositoryFacade
	gen     *fingerprint.Generator
}

// NewImportService creates the import reconciliation service.
func NewImportService(txnRepo portsrepo.TransactionRepositoryFacade, gen *fingerprint.Generator) portssvc.ImportSvcFacade {
	return &importService{txnRepo: txnRepo, gen: gen}
}

var _ portssvc.ImportSvcFacade = (*importService)(nil)

// preparedCandidate is a candidate after recipient extraction and
// fingerprinting, ready for an existence decision.
type preparedCandidate struct {
	candidate     domain.TransactionCandidate
	recipientName string
	cleanedNotes  string
	fp            string
}

// prepare runs the recipient extractor and the fingerprint generator. A
// caller-supplied fingerprint is trusted as-is. Extraction is skipped when
// the user provided the recipient manually.
func (s *importService) prepare(candidate domain.TransactionCandidate) preparedCandidate {
	recipientName := candidate.RecipientName
	cleanedNotes := candidate.Notes
	if recipientName == "" {
		recipientName, cleanedNotes = recipient.Extract(candidate.BusinessName, candidate.Notes)
	}

	fp := candidate.Fingerprint
	if fp == "" {
		fp = s.gen.Generate(fingerprint.Input{
			BusinessName: candidate.BusinessName,
			PaymentDate:  candidate.PaymentDate,
			Amount:       candidate.Amount,
			Currency:     candidate.Currency,
			Notes:        cleanedNotes,
		})
	}

	return preparedCandidate{
		candidate:     candidate,
		recipientName: recipientName,
		cleanedNotes:  cleanedNotes,
		fp:            fp,
	}
}

// ReconcileTransaction implements portssvc.ImportSvcFacade.
func (s *importService) ReconcileTransaction(ctx context.Context, candidate domain.TransactionCandidate, opts dto.ReconcileOptions) (*domain.ReconcileResult, error) {
	if candidate.UserID == "" {
		return nil, ErrUserIDRequired
	}
	prepared := s.prepare(candidate)
	return s.reconcilePrepared(ctx, prepared, opts.Force || candidate.Force)
}

// reconcilePrepared runs the RECEIVED -> HASHED -> terminal decision for one
// prepared candidate.
func (s *importService) reconcilePrepared(ctx context.Context, p preparedCandidate, force bool) (*domain.ReconcileResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("user_id", p.candidate.UserID),
		slog.String("fingerprint", p.fp),
	)

	existing, err := s.txnRepo.FindTransactionByFingerprint(ctx, p.candidate.UserID, p.fp, p.candidate.CashFlowID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("existence check failed: %w", err)
	}

	if existing == nil {
		txn, err := s.buildTransaction(p.candidate, p.fp, p.recipientName, p.cleanedNotes, nil)
		if err != nil {
			return nil, err
		}
		return s.persist(ctx, logger, txn)
	}

	if !force {
		logger.Info("Duplicate transaction rejected", slog.String("existing_id", existing.TransactionID))
		return &domain.ReconcileResult{Status: domain.ImportDuplicate, Existing: existing}, nil
	}

	// A re-forced record duplicates the newest member of the chain, not the
	// root, so each forced copy references the prior one.
	parent := s.chainTail(ctx, p.candidate.UserID, existing)
	notes, fp := s.resolveForcedCollision(ctx, p, parent)
	parentID := parent.TransactionID
	txn, err := s.buildTransaction(p.candidate, fp, p.recipientName, notes, &parentID)
	if err != nil {
		return nil, err
	}
	result, err := s.persist(ctx, logger, txn)
	if err != nil {
		return nil, err
	}
	if result.Status == domain.ImportAccepted {
		result.Status = domain.ImportForcedDuplicate
		logger.Info("Forced duplicate recorded",
			slog.String("parent_id", parentID),
			slog.String("new_fingerprint", fp))
	}
	return result, nil
}

// maxChainWalk bounds the duplicate-chain descent in case stored parent links
// ever form a cycle.
const maxChainWalk = 50

// chainTail follows duplicate-parent links downward from root and returns the
// most recent member of the chain.
func (s *importService) chainTail(ctx context.Context, userID string, root *domain.Transaction) *domain.Transaction {
	tail := root
	for i := 0; i < maxChainWalk; i++ {
		child, err := s.txnRepo.FindLatestDuplicate(ctx, userID, tail.TransactionID)
		if err != nil {
			return tail
		}
		tail = child
	}
	return tail
}

// resolveForcedCollision perturbs the notes until the fingerprint is free. A
// bounded number of attempts appends an increasing counter; exhaustion falls
// back to a token from the monotonic sequence and stops retrying.
func (s *importService) resolveForcedCollision(ctx context.Context, p preparedCandidate, existing *domain.Transaction) (notes, fp string) {
	notes = p.cleanedNotes
	if !strings.Contains(notes, duplicateNoteMarker) {
		reference := duplicateNoteMarker + " " + existing.TransactionID
		if notes == "" {
			notes = reference
		} else {
			notes = notes + "\n" + reference
		}
	}
	fp = s.fingerprintWithNotes(p.candidate, notes)

	for attempt := 1; ; attempt++ {
		_, err := s.txnRepo.FindTransactionByFingerprint(ctx, p.candidate.UserID, fp, p.candidate.CashFlowID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return notes, fp
		}
		// A lookup failure is treated like a collision: the uniqueness
		// constraint at the store remains the final arbiter.

		base := attemptSuffixPattern.ReplaceAllString(notes, "")
		if attempt >= maxCollisionAttempts {
			notes = fmt.Sprintf("%s (seq %d)", base, duplicateSeq.Add(1))
			return notes, s.fingerprintWithNotes(p.candidate, notes)
		}
		notes = fmt.Sprintf("%s (%d)", base, attempt+1)
		fp = s.fingerprintWithNotes(p.candidate, notes)
	}
}

func (s *importService) fingerprintWithNotes(candidate domain.TransactionCandidate, notes string) string {
	return s.gen.Generate(fingerprint.Input{
		BusinessName: candidate.BusinessName,
		PaymentDate:  candidate.PaymentDate,
		Amount:       candidate.Amount,
		Currency:     candidate.Currency,
		Notes:        notes,
	})
}

// persist saves the transaction, downgrading a store-level uniqueness
// violation to a duplicate outcome: a race with a concurrent insert of the
// identical fingerprint is evidence of a true duplicate.
func (s *importService) persist(ctx context.Context, logger *slog.Logger, txn *domain.Transaction) (*domain.ReconcileResult, error) {
	if err := s.txnRepo.SaveTransaction(ctx, *txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Concurrent insert raced this import; treating as duplicate")
			existing, findErr := s.txnRepo.FindTransactionByFingerprint(ctx, txn.UserID, txn.Fingerprint, txn.CashFlowID)
			if findErr != nil {
				existing = nil
			}
			return &domain.ReconcileResult{Status: domain.ImportDuplicate, Existing: existing}, nil
		}
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	return &domain.ReconcileResult{Status: domain.ImportAccepted, Transaction: txn}, nil
}

// buildTransaction materializes the stored record. The amount is validated
// strictly here: a malformed amount fingerprints as zero so dedup still sees
// it, but it cannot be persisted.
func (s *importService) buildTransaction(candidate domain.TransactionCandidate, fp, recipientName, notes string, duplicateParentID *string) (*domain.Transaction, error) {
	amount, err := parseAmount(candidate.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(candidate.Currency))
	if currency == "" {
		currency = s.gen.BaseCurrency()
	}

	sourceType := candidate.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		TransactionID:     uuid.NewString(),
		UserID:            candidate.UserID,
		CashFlowID:        candidate.CashFlowID,
		BusinessName:      candidate.BusinessName,
		PaymentDate:       candidate.PaymentDate,
		Amount:            amount,
		Currency:          currency,
		Notes:             notes,
		PaymentMethod:     candidate.PaymentMethod,
		PaymentIdentifier: candidate.PaymentIdentifier,
		RecipientName:     recipientName,
		CategoryName:      candidate.CategoryName,
		Fingerprint:       fp,
		SourceType:        sourceType,
		DuplicateParentID: duplicateParentID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     candidate.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: candidate.UserID,
		},
	}
	applyPeriodFields(txn)
	return txn, nil
}

// ImportBatch implements portssvc.ImportSvcFacade.
//
// Two phases: fingerprint everything up front and screen the whole set
// against the store in one query, then persist known-new rows directly and
// reconcile individually only where ambiguity remains. Sequential within a
// batch; ordering across concurrent batches is not guaranteed.
func (s *importService) ImportBatch(ctx context.Context, candidates []domain.TransactionCandidate, opts dto.ImportOptions) (*domain.BatchSummary, error) {
	summary := &domain.BatchSummary{Results: make([]domain.RecordResult, 0, len(candidates))}
	if len(candidates) == 0 {
		return summary, nil
	}

	userID := candidates[0].UserID
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("user_id", userID),
		slog.Int("batch_size", len(candidates)),
	)

	prepared := make([]preparedCandidate, len(candidates))
	for i, candidate := range candidates {
		prepared[i] = s.prepare(candidate)
	}

	// One screen query per distinct cash-flow scope in the batch; the common
	// single-flow batch screens in one round trip.
	type screenGroup struct {
		cashFlowID *string
		fps        []string
	}
	groupIdx := make(map[string]int)
	var groups []screenGroup
	for i := range prepared {
		key := scopeKey(prepared[i].candidate.CashFlowID)
		idx, ok := groupIdx[key]
		if !ok {
			idx = len(groups)
			groupIdx[key] = idx
			groups = append(groups, screenGroup{cashFlowID: prepared[i].candidate.CashFlowID})
		}
		groups[idx].fps = append(groups[idx].fps, prepared[i].fp)
	}

	existingByScope := make(map[string]map[string]struct{}, len(groups))
	totalExisting := 0
	for _, g := range groups {
		set, err := s.txnRepo.FindExistingFingerprints(ctx, userID, g.fps, g.cashFlowID)
		if err != nil {
			return nil, fmt.Errorf("batch existence check failed: %w", err)
		}
		existingByScope[scopeKey(g.cashFlowID)] = set
		totalExisting += len(set)
	}
	logger.Info("Batch duplicate screen completed", slog.Int("existing", totalExisting))

	// Scoped fingerprints accepted earlier in this batch: a repeated row must
	// see its predecessor exactly as it would when imported one-by-one.
	acceptedInBatch := make(map[string]struct{})

	for i := range prepared {
		p := prepared[i]
		row := domain.RecordResult{
			Index:        i,
			BusinessName: p.candidate.BusinessName,
			Fingerprint:  p.fp,
		}

		scope := scopeKey(p.candidate.CashFlowID)
		_, inStore := existingByScope[scope][p.fp]
		if !inStore {
			_, inStore = acceptedInBatch[scope+"|"+p.fp]
		}
		decision := opts.DuplicateDecisions[p.fp]

		switch {
		case !inStore:
			txn, err := s.buildTransaction(p.candidate, p.fp, p.recipientName, p.cleanedNotes, nil)
			if err != nil {
				row.Status = domain.ImportError
				row.Error = err.Error()
				summary.ErrorCount++
				break
			}
			result, err := s.persist(ctx, logger, txn)
			switch {
			case err != nil:
				row.Status = domain.ImportError
				row.Error = err.Error()
				summary.ErrorCount++
			case result.Status == domain.ImportDuplicate:
				row.Status = domain.ImportDuplicate
				row.Existing = result.Existing
				summary.DuplicateCount++
			default:
				row.Status = domain.ImportAccepted
				row.TransactionID = result.Transaction.TransactionID
				summary.AcceptedCount++
				acceptedInBatch[scope+"|"+p.fp] = struct{}{}
			}

		case decision == domain.DecisionSkip:
			row.Status = domain.ImportSkipped
			summary.SkippedCount++

		case decision == domain.DecisionReplace:
			replaced, err := s.replaceByFingerprint(ctx, p)
			if err != nil {
				row.Status = domain.ImportError
				row.Error = err.Error()
				summary.ErrorCount++
				break
			}
			row.Status = domain.ImportReplaced
			row.TransactionID = replaced.TransactionID
			summary.ReplacedCount++

		default:
			force := opts.Force || p.candidate.Force || decision == domain.DecisionImport
			result, err := s.reconcilePrepared(ctx, p, force)
			switch {
			case err != nil:
				row.Status = domain.ImportError
				row.Error = err.Error()
				summary.ErrorCount++
			case result.Status == domain.ImportDuplicate:
				row.Status = domain.ImportDuplicate
				row.Existing = result.Existing
				summary.DuplicateCount++
			default:
				row.Status = result.Status
				row.TransactionID = result.Transaction.TransactionID
				summary.AcceptedCount++
				acceptedInBatch[scope+"|"+result.Transaction.Fingerprint] = struct{}{}
			}
		}

		summary.Results = append(summary.Results, row)
	}

	logger.Info("Batch import completed",
		slog.Int("accepted", summary.AcceptedCount),
		slog.Int("duplicates", summary.DuplicateCount),
		slog.Int("skipped", summary.SkippedCount),
		slog.Int("replaced", summary.ReplacedCount),
		slog.Int("errors", summary.ErrorCount),
	)
	return summary, nil
}

// scopeKey names a duplicate-detection scope: a cash flow, or the user-wide
// scope when no flow is given. The prefix keeps a flow ID from ever colliding
// with the user-wide key.
func scopeKey(cashFlowID *string) string {
	if cashFlowID == nil {
		return "user"
	}
	return "flow:" + *cashFlowID
}

// replaceByFingerprint resolves the stored record behind a batch "replace"
// decision and overwrites it with the candidate.
func (s *importService) replaceByFingerprint(ctx context.Context, p preparedCandidate) (*domain.Transaction, error) {
	existing, err := s.txnRepo.FindTransactionByFingerprint(ctx, p.candidate.UserID, p.fp, p.candidate.CashFlowID)
	if err != nil {
		return nil, err
	}
	return s.ReplaceTransaction(ctx, p.candidate.UserID, existing.TransactionID, p.candidate)
}

// ReplaceTransaction implements portssvc.ImportSvcFacade.
func (s *importService) ReplaceTransaction(ctx context.Context, userID, existingID string, candidate domain.TransactionCandidate) (*domain.Transaction, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	logger := middleware.GetLoggerFromCtx(ctx).With(
		slog.String("user_id", userID),
		slog.String("transaction_id", existingID),
	)

	existing, err := s.txnRepo.FindTransactionByID(ctx, userID, existingID)
	if err != nil {
		return nil, err
	}

	amount, err := parseAmount(candidate.Amount)
	if err != nil {
		return nil, err
	}

	// Transient caller-side fields (supplied fingerprint, force flag, source
	// metadata) are dropped here: the replaced record keeps its identity slot
	// and its fingerprint is not re-validated against other records.
	recipientName := candidate.RecipientName
	notes := candidate.Notes
	if recipientName == "" {
		recipientName, notes = recipient.Extract(candidate.BusinessName, candidate.Notes)
	}

	updated := *existing
	updated.BusinessName = candidate.BusinessName
	updated.PaymentDate = candidate.PaymentDate
	updated.Amount = amount
	if currency := strings.ToUpper(strings.TrimSpace(candidate.Currency)); currency != "" {
		updated.Currency = currency
	}
	updated.Notes = notes
	updated.RecipientName = recipientName
	if candidate.PaymentMethod != "" {
		updated.PaymentMethod = candidate.PaymentMethod
	}
	if candidate.PaymentIdentifier != "" {
		updated.PaymentIdentifier = candidate.PaymentIdentifier
	}
	if candidate.CategoryName != "" {
		updated.CategoryName = candidate.CategoryName
	}
	if candidate.SourceType != "" {
		updated.SourceType = candidate.SourceType
	}
	applyPeriodFields(&updated)
	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = userID

	if err := s.txnRepo.UpdateTransaction(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to replace transaction: %w", err)
	}
	logger.Info("Transaction replaced in place")
	return &updated, nil
}

// applyPeriodFields derives the year/month bucket from the payment date.
// Downstream monthly aggregation keys on FlowMonth, so it must be populated
// whenever a valid date exists.
func applyPeriodFields(txn *domain.Transaction) {
	t, ok := fingerprint.ParseDate(txn.PaymentDate)
	if !ok {
		txn.PaymentYear = 0
		txn.PaymentMonth = 0
		txn.FlowMonth = ""
		return
	}
	txn.PaymentYear = t.Year()
	txn.PaymentMonth = int(t.Month())
	txn.FlowMonth = fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// parseAmount strictly parses a raw amount for persistence. Thousands
// separators are tolerated; anything non-numeric is a validation error.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/talkal/home_finance_app/internal/apperrors"
	"github.com/talkal/home_finance_app/internal/core/domain"
	portssvc "github.com/talkal/home_finance_app/internal/core/ports/services"
	"github.com/talkal/home_finance_app/internal/core/services"
	"github.com/talkal/home_finance_app/internal/dto"
	"github.com/talkal/home_finance_app/internal/utils/fingerprint"
)

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByFingerprint(ctx context.Context, userID, fp string, cashFlowID *string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, fp, cashFlowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindLatestDuplicate(ctx context.Context, userID, parentID string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindExistingFingerprints(ctx context.Context, userID string, fingerprints []string, cashFlowID *string) (map[string]struct{}, error) {
	args := m.Called(ctx, userID, fingerprints, cashFlowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByFlowMonth(ctx context.Context, userID, flowMonth string, cashFlowID *string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID, flowMonth, cashFlowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	args := m.Called(ctx, userID, transactionID)
	return args.Error(0)
}

// --- Test Suite ---
type ImportServiceTestSuite struct {
	suite.Suite
	mockRepo *MockTransactionRepository
	gen      *fingerprint.Generator
	service  portssvc.ImportSvcFacade
}

func (suite *ImportServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockTransactionRepository)
	suite.gen = fingerprint.NewGenerator("ILS")
	suite.service = services.NewImportService(suite.mockRepo, suite.gen)
}

func (suite *ImportServiceTestSuite) fingerprintOf(c domain.TransactionCandidate, notes string) string {
	return suite.gen.Generate(fingerprint.Input{
		BusinessName: c.BusinessName,
		PaymentDate:  c.PaymentDate,
		Amount:       c.Amount,
		Currency:     c.Currency,
		Notes:        notes,
	})
}

// --- ReconcileTransaction ---

func (suite *ImportServiceTestSuite) TestReconcile_NewTransaction_Accepted() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Shufersal",
		PaymentDate:  "2024-01-15",
		Amount:       "-150.50",
		Notes:        "weekly groceries",
	}
	fp := suite.fingerprintOf(candidate, candidate.Notes)

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Fingerprint == fp &&
			txn.UserID == userID &&
			txn.FlowMonth == "2024-01" &&
			txn.PaymentYear == 2024 &&
			txn.SourceType == domain.SourceManual &&
			txn.CreatedBy == userID
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportAccepted, result.Status)
	suite.Require().NotNil(result.Transaction)
	suite.Equal(fp, result.Transaction.Fingerprint)
	suite.True(result.Transaction.Amount.Equal(decimalFromString("-150.50")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_Duplicate_NothingPersisted() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Shufersal",
		PaymentDate:  "2024-01-15",
		Amount:       "-150.50",
	}
	fp := suite.fingerprintOf(candidate, "")
	existing := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID, Fingerprint: fp}

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(existing, nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportDuplicate, result.Status)
	suite.Equal(existing, result.Existing)
	suite.Nil(result.Transaction)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_Forced_PerturbsNotesAndLinksParent() {
	ctx := context.Background()
	userID := uuid.NewString()
	existingID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Coffee Corner",
		PaymentDate:  "2024-02-10",
		Amount:       "-18",
	}
	fp := suite.fingerprintOf(candidate, "")
	existing := &domain.Transaction{TransactionID: existingID, UserID: userID, Fingerprint: fp}

	perturbedNotes := "כפילות של עסקה " + existingID
	perturbedFp := suite.fingerprintOf(candidate, perturbedNotes)
	suite.NotEqual(fp, perturbedFp)

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(existing, nil).Once()
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, existingID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, perturbedFp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Fingerprint == perturbedFp &&
			txn.Notes == perturbedNotes &&
			txn.DuplicateParentID != nil && *txn.DuplicateParentID == existingID
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{Force: true})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportForcedDuplicate, result.Status)
	suite.Require().NotNil(result.Transaction)
	suite.Contains(result.Transaction.Notes, existingID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_Forced_CollisionRetriesWithCounter() {
	ctx := context.Background()
	userID := uuid.NewString()
	existingID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Coffee Corner",
		PaymentDate:  "2024-02-10",
		Amount:       "-18",
	}
	fp := suite.fingerprintOf(candidate, "")
	existing := &domain.Transaction{TransactionID: existingID, UserID: userID, Fingerprint: fp}

	notes1 := "כפילות של עסקה " + existingID
	fp1 := suite.fingerprintOf(candidate, notes1)
	notes2 := notes1 + " (2)"
	fp2 := suite.fingerprintOf(candidate, notes2)

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(existing, nil).Once()
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, existingID).Return(nil, apperrors.ErrNotFound).Once()
	// First perturbation collides with an earlier forced duplicate.
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp1, (*string)(nil)).Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp2, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Fingerprint == fp2 && strings.HasSuffix(txn.Notes, " (2)")
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{Force: true})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportForcedDuplicate, result.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_Forced_ExhaustedRetriesFallBackToSequence() {
	ctx := context.Background()
	userID := uuid.NewString()
	existingID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Coffee Corner",
		PaymentDate:  "2024-02-10",
		Amount:       "-18",
	}
	fp := suite.fingerprintOf(candidate, "")
	existing := &domain.Transaction{TransactionID: existingID, UserID: userID, Fingerprint: fp}

	// Every perturbed hash collides, so the bounded retry loop runs dry and
	// the sequence token resolves the record without a further lookup.
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, mock.AnythingOfType("string"), (*string)(nil)).Return(existing, nil)
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, existingID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return strings.Contains(txn.Notes, "כפילות של עסקה "+existingID) &&
			strings.Contains(txn.Notes, " (seq ") &&
			txn.Fingerprint != fp &&
			txn.DuplicateParentID != nil && *txn.DuplicateParentID == existingID
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{Force: true})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportForcedDuplicate, result.Status)
	suite.Contains(result.Transaction.Notes, " (seq ")
	// One initial duplicate lookup plus one per bounded retry.
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindTransactionByFingerprint", 11)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_Forced_LinksToNewestChainMember() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Coffee Corner",
		PaymentDate:  "2024-02-10",
		Amount:       "-18",
	}
	fp := suite.fingerprintOf(candidate, "")
	root := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID, Fingerprint: fp}
	child := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID}

	childNotes := "כפילות של עסקה " + child.TransactionID
	childFp := suite.fingerprintOf(candidate, childNotes)

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(root, nil).Once()
	// The root already has a forced duplicate; the new record must chain off
	// that newer member, not the root.
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, root.TransactionID).Return(child, nil).Once()
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, child.TransactionID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, childFp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.DuplicateParentID != nil && *txn.DuplicateParentID == child.TransactionID &&
			txn.Notes == childNotes
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{Force: true})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportForcedDuplicate, result.Status)
	suite.Equal(child.TransactionID, *result.Transaction.DuplicateParentID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_PersistenceRace_DowngradedToDuplicate() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "Shufersal",
		PaymentDate:  "2024-01-15",
		Amount:       "-150.50",
	}
	fp := suite.fingerprintOf(candidate, "")
	racedExisting := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID, Fingerprint: fp}

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(apperrors.ErrDuplicate).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(racedExisting, nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportDuplicate, result.Status)
	suite.Equal(racedExisting, result.Existing)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_MissingUserID() {
	ctx := context.Background()
	candidate := domain.TransactionCandidate{BusinessName: "store", Amount: "10"}

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(result)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindTransactionByFingerprint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImportServiceTestSuite) TestReconcile_MalformedAmount() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "store",
		PaymentDate:  "2024-01-15",
		Amount:       "abc",
	}
	fp := suite.fingerprintOf(candidate, "")

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(result)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *ImportServiceTestSuite) TestReconcile_PayboxRecipientExtracted() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "PAYBOX העברת כספים",
		PaymentDate:  "2024-03-05",
		Amount:       "-200",
		Notes:        "למי: דנה כהן",
	}
	// Extraction happens before hashing: the fingerprint covers the cleaned
	// notes, not the raw ones.
	fp := suite.fingerprintOf(candidate, "")

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.RecipientName == "דנה כהן" && txn.Notes == "" && txn.Fingerprint == fp
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportAccepted, result.Status)
	suite.Equal("דנה כהן", result.Transaction.RecipientName)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReconcile_UserProvidedRecipientSkipsExtraction() {
	ctx := context.Background()
	userID := uuid.NewString()
	candidate := domain.TransactionCandidate{
		UserID:        userID,
		BusinessName:  "PAYBOX העברת כספים",
		PaymentDate:   "2024-03-05",
		Amount:        "-200",
		Notes:         "למי: דנה כהן",
		RecipientName: "יוסי לוי",
	}
	fp := suite.fingerprintOf(candidate, candidate.Notes)

	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.RecipientName == "יוסי לוי" && txn.Notes == candidate.Notes
	})).Return(nil).Once()

	result, err := suite.service.ReconcileTransaction(ctx, candidate, dto.ReconcileOptions{})

	suite.Require().NoError(err)
	suite.Equal(domain.ImportAccepted, result.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- ImportBatch ---

func (suite *ImportServiceTestSuite) TestImportBatch_SingleScreenQuery() {
	ctx := context.Background()
	userID := uuid.NewString()

	const total = 500
	const dupes = 50
	candidates := make([]domain.TransactionCandidate, total)
	existingSet := make(map[string]struct{})
	for i := 0; i < total; i++ {
		candidates[i] = domain.TransactionCandidate{
			UserID:       userID,
			BusinessName: fmt.Sprintf("store-%03d", i),
			PaymentDate:  "2024-01-02",
			Amount:       "10",
		}
		if i < dupes {
			existingSet[suite.fingerprintOf(candidates[i], "")] = struct{}{}
		}
	}

	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, mock.AnythingOfType("[]string"), (*string)(nil)).Return(existingSet, nil).Once()
	// Known-duplicate rows fall back to individual reconciliation and see the
	// stored record again.
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, mock.AnythingOfType("string"), (*string)(nil)).Return(&domain.Transaction{TransactionID: uuid.NewString()}, nil)
	suite.mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil)

	summary, err := suite.service.ImportBatch(ctx, candidates, dto.ImportOptions{})

	suite.Require().NoError(err)
	suite.Equal(total-dupes, summary.AcceptedCount)
	suite.Equal(dupes, summary.DuplicateCount)
	suite.Zero(summary.SkippedCount)
	suite.Zero(summary.ErrorCount)
	suite.Len(summary.Results, total)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindExistingFingerprints", 1)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "SaveTransaction", total-dupes)
}

func (suite *ImportServiceTestSuite) TestImportBatch_ScreensPerCashFlow() {
	ctx := context.Background()
	userID := uuid.NewString()
	flowA := uuid.NewString()
	flowB := uuid.NewString()
	row := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "store",
		PaymentDate:  "2024-01-02",
		Amount:       "10",
	}
	rowA, rowB := row, row
	rowA.CashFlowID = &flowA
	rowB.CashFlowID = &flowB
	fp := suite.fingerprintOf(row, "")

	// The same record in two different cash flows is not a duplicate: each
	// flow is screened against its own scope.
	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, []string{fp}, &flowA).Return(map[string]struct{}{}, nil).Once()
	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, []string{fp}, &flowB).Return(map[string]struct{}{}, nil).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Twice()

	summary, err := suite.service.ImportBatch(ctx, []domain.TransactionCandidate{rowA, rowB}, dto.ImportOptions{})

	suite.Require().NoError(err)
	suite.Equal(2, summary.AcceptedCount)
	suite.Zero(summary.DuplicateCount)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "FindExistingFingerprints", 2)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestImportBatch_IntraBatchRepeatSeenAsDuplicate() {
	ctx := context.Background()
	userID := uuid.NewString()
	row := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "store",
		PaymentDate:  "2024-01-02",
		Amount:       "10",
	}
	candidates := []domain.TransactionCandidate{row, row}
	fp := suite.fingerprintOf(row, "")

	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, mock.AnythingOfType("[]string"), (*string)(nil)).Return(map[string]struct{}{}, nil).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, fp, (*string)(nil)).Return(&domain.Transaction{TransactionID: uuid.NewString(), Fingerprint: fp}, nil).Once()

	summary, err := suite.service.ImportBatch(ctx, candidates, dto.ImportOptions{})

	suite.Require().NoError(err)
	suite.Equal(1, summary.AcceptedCount)
	suite.Equal(1, summary.DuplicateCount)
	suite.Equal(domain.ImportAccepted, summary.Results[0].Status)
	suite.Equal(domain.ImportDuplicate, summary.Results[1].Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestImportBatch_DuplicateDecisions() {
	ctx := context.Background()
	userID := uuid.NewString()

	mkCandidate := func(name string) domain.TransactionCandidate {
		return domain.TransactionCandidate{
			UserID:       userID,
			BusinessName: name,
			PaymentDate:  "2024-01-02",
			Amount:       "10",
		}
	}
	skipC := mkCandidate("skip-me")
	replaceC := mkCandidate("replace-me")
	importC := mkCandidate("import-me")
	candidates := []domain.TransactionCandidate{skipC, replaceC, importC}

	skipFp := suite.fingerprintOf(skipC, "")
	replaceFp := suite.fingerprintOf(replaceC, "")
	importFp := suite.fingerprintOf(importC, "")
	existingSet := map[string]struct{}{skipFp: {}, replaceFp: {}, importFp: {}}

	replaceExisting := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID, Fingerprint: replaceFp}
	importExisting := &domain.Transaction{TransactionID: uuid.NewString(), UserID: userID, Fingerprint: importFp}
	forcedNotes := "כפילות של עסקה " + importExisting.TransactionID
	forcedFp := suite.fingerprintOf(importC, forcedNotes)

	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, mock.AnythingOfType("[]string"), (*string)(nil)).Return(existingSet, nil).Once()

	// replace path
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, replaceFp, (*string)(nil)).Return(replaceExisting, nil).Once()
	suite.mockRepo.On("FindTransactionByID", ctx, userID, replaceExisting.TransactionID).Return(replaceExisting, nil).Once()
	suite.mockRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.TransactionID == replaceExisting.TransactionID &&
			txn.BusinessName == "replace-me" &&
			txn.Fingerprint == replaceFp
	})).Return(nil).Once()

	// forced-import path
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, importFp, (*string)(nil)).Return(importExisting, nil).Once()
	suite.mockRepo.On("FindLatestDuplicate", ctx, userID, importExisting.TransactionID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("FindTransactionByFingerprint", ctx, userID, forcedFp, (*string)(nil)).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Fingerprint == forcedFp
	})).Return(nil).Once()

	summary, err := suite.service.ImportBatch(ctx, candidates, dto.ImportOptions{
		DuplicateDecisions: map[string]domain.DuplicateDecision{
			skipFp:    domain.DecisionSkip,
			replaceFp: domain.DecisionReplace,
			importFp:  domain.DecisionImport,
		},
	})

	suite.Require().NoError(err)
	suite.Equal(1, summary.SkippedCount)
	suite.Equal(1, summary.ReplacedCount)
	suite.Equal(1, summary.AcceptedCount)
	suite.Zero(summary.DuplicateCount)
	suite.Equal(domain.ImportSkipped, summary.Results[0].Status)
	suite.Equal(domain.ImportReplaced, summary.Results[1].Status)
	suite.Equal(domain.ImportForcedDuplicate, summary.Results[2].Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestImportBatch_RowErrorDoesNotAbort() {
	ctx := context.Background()
	userID := uuid.NewString()
	good1 := domain.TransactionCandidate{UserID: userID, BusinessName: "good-1", PaymentDate: "2024-01-02", Amount: "10"}
	bad := domain.TransactionCandidate{UserID: userID, BusinessName: "bad", PaymentDate: "2024-01-02", Amount: "not-a-number"}
	good2 := domain.TransactionCandidate{UserID: userID, BusinessName: "good-2", PaymentDate: "2024-01-02", Amount: "20"}

	suite.mockRepo.On("FindExistingFingerprints", ctx, userID, mock.AnythingOfType("[]string"), (*string)(nil)).Return(map[string]struct{}{}, nil).Once()
	suite.mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Twice()

	summary, err := suite.service.ImportBatch(ctx, []domain.TransactionCandidate{good1, bad, good2}, dto.ImportOptions{})

	suite.Require().NoError(err)
	suite.Equal(2, summary.AcceptedCount)
	suite.Equal(1, summary.ErrorCount)
	suite.Equal(domain.ImportError, summary.Results[1].Status)
	suite.NotEmpty(summary.Results[1].Error)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestImportBatch_Empty() {
	summary, err := suite.service.ImportBatch(context.Background(), nil, dto.ImportOptions{})

	suite.Require().NoError(err)
	suite.Zero(summary.AcceptedCount)
	suite.Empty(summary.Results)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindExistingFingerprints", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImportServiceTestSuite) TestImportBatch_MissingUserID() {
	candidates := []domain.TransactionCandidate{{BusinessName: "store", Amount: "10"}}

	summary, err := suite.service.ImportBatch(context.Background(), candidates, dto.ImportOptions{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(summary)
}

// --- ReplaceTransaction ---

func (suite *ImportServiceTestSuite) TestReplaceTransaction_OverwritesAndReextracts() {
	ctx := context.Background()
	userID := uuid.NewString()
	existing := &domain.Transaction{
		TransactionID: uuid.NewString(),
		UserID:        userID,
		BusinessName:  "old store",
		Amount:        decimalFromString("-10"),
		Currency:      "ILS",
		Fingerprint:   "original-hash",
	}
	candidate := domain.TransactionCandidate{
		UserID:       userID,
		BusinessName: "PAYBOX העברת כספים",
		PaymentDate:  "2024-04-01",
		Amount:       "-25",
		Notes:        "למי: דנה כהן",
	}

	suite.mockRepo.On("FindTransactionByID", ctx, userID, existing.TransactionID).Return(existing, nil).Once()
	suite.mockRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.TransactionID == existing.TransactionID &&
			txn.BusinessName == candidate.BusinessName &&
			txn.RecipientName == "דנה כהן" &&
			txn.Notes == "" &&
			txn.Fingerprint == "original-hash" &&
			txn.FlowMonth == "2024-04"
	})).Return(nil).Once()

	replaced, err := suite.service.ReplaceTransaction(ctx, userID, existing.TransactionID, candidate)

	suite.Require().NoError(err)
	suite.Equal(existing.TransactionID, replaced.TransactionID)
	suite.Equal("original-hash", replaced.Fingerprint)
	suite.True(replaced.Amount.Equal(decimalFromString("-25")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ImportServiceTestSuite) TestReplaceTransaction_NotFound() {
	ctx := context.Background()
	userID := uuid.NewString()
	missingID := uuid.NewString()

	suite.mockRepo.On("FindTransactionByID", ctx, userID, missingID).Return(nil, apperrors.ErrNotFound).Once()

	replaced, err := suite.service.ReplaceTransaction(ctx, userID, missingID, domain.TransactionCandidate{UserID: userID, BusinessName: "x", Amount: "1"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(replaced)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateTransaction", mock.Anything, mock.Anything)
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}

func decimalFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

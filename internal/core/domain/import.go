package domain

// ImportStatus is the terminal state of a single record's reconciliation.
type ImportStatus string

const (
	ImportAccepted        ImportStatus = "ACCEPTED"
	ImportDuplicate       ImportStatus = "REJECTED_DUPLICATE"
	ImportForcedDuplicate ImportStatus = "FORCED_DUPLICATE"
	ImportSkipped         ImportStatus = "SKIPPED"
	ImportReplaced        ImportStatus = "REPLACED"
	ImportError           ImportStatus = "ERROR"
)

// DuplicateDecision is the user's answer for one conflicting fingerprint
// within a batch import.
type DuplicateDecision string

const (
	DecisionImport  DuplicateDecision = "import" // Force the duplicate through
	DecisionSkip    DuplicateDecision = "skip"
	DecisionReplace DuplicateDecision = "replace" // Overwrite the stored record
)

// ReconcileResult is the outcome of reconciling one candidate.
// On ImportDuplicate, Existing carries the stored record that matched so the
// caller can offer the user a choice; nothing was persisted.
type ReconcileResult struct {
	Status      ImportStatus `json:"status"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Existing    *Transaction `json:"existing,omitempty"`
}

// RecordResult reports one batch row's outcome, in input order.
type RecordResult struct {
	Index         int          `json:"index"`
	BusinessName  string       `json:"businessName"`
	Fingerprint   string       `json:"fingerprint"`
	Status        ImportStatus `json:"status"`
	TransactionID string       `json:"transactionID,omitempty"`
	Existing      *Transaction `json:"existing,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// BatchSummary aggregates a batch import. One record's failure never aborts
// the batch; its row simply carries ImportError.
type BatchSummary struct {
	AcceptedCount  int            `json:"acceptedCount"`
	DuplicateCount int            `json:"duplicateCount"`
	SkippedCount   int            `json:"skippedCount"`
	ReplacedCount  int            `json:"replacedCount"`
	ErrorCount     int            `json:"errorCount"`
	Results        []RecordResult `json:"results"`
}

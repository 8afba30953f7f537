package domain

// TransactionCandidate is an incoming record from any ingestion path (manual
// form, spreadsheet row, scrape result) after the source adapter has mapped it
// to canonical fields. Source-specific leftovers travel in Metadata and are
// never persisted.
//
// Amount and PaymentDate are kept raw: malformed values must still produce a
// deterministic fingerprint instead of failing the whole batch.
type TransactionCandidate struct {
	UserID     string
	CashFlowID *string

	BusinessName string
	PaymentDate  string
	Amount       string
	Currency     string
	Notes        string

	PaymentMethod     string
	PaymentIdentifier string
	RecipientName     string // When set by the user, auto-extraction is skipped
	CategoryName      string
	SourceType        SourceType

	// Fingerprint is trusted when the caller already computed it.
	Fingerprint string

	// Force marks a user-confirmed intentional re-entry. Transient; stripped
	// before persistence.
	Force bool

	Metadata map[string]any
}

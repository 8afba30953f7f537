package domain

import (
	"github.com/shopspring/decimal"
)

// SourceType identifies the ingestion path that produced a transaction.
type SourceType string

const (
	SourceManual  SourceType = "manual"
	SourceFile    SourceType = "file_import"
	SourceScraper SourceType = "scraper"
)

// Transaction is a single stored ledger entry. Fingerprint is its semantic
// identity for deduplication; PaymentMethod and the duplicate-chain metadata
// deliberately do not participate in it.
type Transaction struct {
	TransactionID string  `json:"transactionID" db:"transaction_id"`
	UserID        string  `json:"userID" db:"user_id"`
	CashFlowID    *string `json:"cashFlowID" db:"cash_flow_id"` // Nullable; legacy rows predate cash flows

	BusinessName string          `json:"businessName" db:"business_name"`
	PaymentDate  string          `json:"paymentDate" db:"payment_date"` // Raw as ingested; may be unparsable
	Amount       decimal.Decimal `json:"amount" db:"amount"`            // Negative = expense, positive = income
	Currency     string          `json:"currency" db:"currency"`
	Notes        string          `json:"notes" db:"notes"` // Cleaned/annotated value, not the raw input

	PaymentMethod     string `json:"paymentMethod" db:"payment_method"`
	PaymentIdentifier string `json:"paymentIdentifier" db:"payment_identifier"`
	RecipientName     string `json:"recipientName" db:"recipient_name"`
	CategoryName      string `json:"categoryName" db:"category_name"`

	Fingerprint string `json:"fingerprint" db:"transaction_hash"`

	// Period bucket derived from PaymentDate when it parses; consumed by the
	// monthly aggregation views.
	PaymentYear  int    `json:"paymentYear" db:"payment_year"`
	PaymentMonth int    `json:"paymentMonth" db:"payment_month"`
	FlowMonth    string `json:"flowMonth" db:"flow_month"` // "YYYY-MM"

	SourceType        SourceType `json:"sourceType" db:"source_type"`
	DuplicateParentID *string    `json:"duplicateParentID" db:"duplicate_parent_id"`

	AuditFields
}

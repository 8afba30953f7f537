package domain

// CashFlow is a named container scoping a user's transactions, typically one
// bank account or card. Duplicate detection is scoped per cash flow.
type CashFlow struct {
	CashFlowID string `json:"cashFlowID" db:"cash_flow_id"`
	UserID     string `json:"userID" db:"user_id"`
	Name       string `json:"name" db:"name"`
	Currency   string `json:"currency" db:"currency"`
	IsDefault  bool   `json:"isDefault" db:"is_default"`
	AuditFields
}

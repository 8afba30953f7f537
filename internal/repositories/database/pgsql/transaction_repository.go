package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talkal/home_finance_app/internal/apperrors"
	"github.com/talkal/home_finance_app/internal/core/domain"
	portsrepo "github.com/talkal/home_finance_app/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transaction data.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `
	transaction_id, user_id, cash_flow_id, business_name, payment_date, amount,
	currency, notes, payment_method, payment_identifier, recipient_name,
	category_name, transaction_hash, payment_year, payment_month, flow_month,
	source_type, duplicate_parent_id, created_at, created_by, last_updated_at,
	last_updated_by`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.UserID,
		&txn.CashFlowID,
		&txn.BusinessName,
		&txn.PaymentDate,
		&txn.Amount,
		&txn.Currency,
		&txn.Notes,
		&txn.PaymentMethod,
		&txn.PaymentIdentifier,
		&txn.RecipientName,
		&txn.CategoryName,
		&txn.Fingerprint,
		&txn.PaymentYear,
		&txn.PaymentMonth,
		&txn.FlowMonth,
		&txn.SourceType,
		&txn.DuplicateParentID,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// SaveTransaction inserts a new transaction record.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);
	`
	_, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.UserID,
		txn.CashFlowID,
		txn.BusinessName,
		txn.PaymentDate,
		txn.Amount,
		txn.Currency,
		txn.Notes,
		txn.PaymentMethod,
		txn.PaymentIdentifier,
		txn.RecipientName,
		txn.CategoryName,
		txn.Fingerprint,
		txn.PaymentYear,
		txn.PaymentMonth,
		txn.FlowMonth,
		txn.SourceType,
		txn.DuplicateParentID,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("transaction with hash %s already exists: %w", txn.Fingerprint, apperrors.ErrDuplicate)
			}
		}
		return fmt.Errorf("failed to save transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// FindTransactionByID retrieves a user's transaction by its identifier.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE transaction_id = $1 AND user_id = $2;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	return txn, nil
}

// FindTransactionByFingerprint retrieves the stored record behind a content
// hash. When the caller names a cash flow, rows from that flow and rows with
// no flow assignment both count: unscoped legacy rows must still block a
// re-import into any flow.
func (r *PgxTransactionRepository) FindTransactionByFingerprint(ctx context.Context, userID, fingerprint string, cashFlowID *string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND transaction_hash = $2`
	args := []interface{}{userID, fingerprint}
	if cashFlowID != nil {
		query += ` AND (cash_flow_id = $3 OR cash_flow_id IS NULL)`
		args = append(args, *cashFlowID)
	}
	query += `
		ORDER BY created_at
		LIMIT 1;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by hash: %w", err)
	}
	return txn, nil
}

// FindLatestDuplicate retrieves the newest member of a duplicate chain one
// level below parentID.
func (r *PgxTransactionRepository) FindLatestDuplicate(ctx context.Context, userID, parentID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND duplicate_parent_id = $2
		ORDER BY created_at DESC
		LIMIT 1;
	`
	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, userID, parentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find duplicate of %s: %w", parentID, err)
	}
	return txn, nil
}

// FindExistingFingerprints screens a whole batch of hashes in one query.
func (r *PgxTransactionRepository) FindExistingFingerprints(ctx context.Context, userID string, fingerprints []string, cashFlowID *string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(fingerprints))
	if len(fingerprints) == 0 {
		return existing, nil
	}

	query := `
		SELECT DISTINCT transaction_hash
		FROM transactions
		WHERE user_id = $1 AND transaction_hash = ANY($2)`
	args := []interface{}{userID, fingerprints}
	if cashFlowID != nil {
		query += ` AND (cash_flow_id = $3 OR cash_flow_id IS NULL)`
		args = append(args, *cashFlowID)
	}
	query += `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan existing hash: %w", err)
		}
		existing[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read existing hashes: %w", err)
	}
	return existing, nil
}

// ListTransactionsByFlowMonth retrieves a user's transactions for one
// "YYYY-MM" bucket.
func (r *PgxTransactionRepository) ListTransactionsByFlowMonth(ctx context.Context, userID, flowMonth string, cashFlowID *string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND flow_month = $2`
	args := []interface{}{userID, flowMonth}
	if cashFlowID != nil {
		query += ` AND cash_flow_id = $3`
		args = append(args, *cashFlowID)
	}
	query += `
		ORDER BY payment_date, created_at;
	`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		txn, err := scanTransaction(row)
		if err != nil {
			return domain.Transaction{}, err
		}
		return *txn, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Transaction{}, nil
		}
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return transactions, nil
}

// UpdateTransaction overwrites the mutable fields of an existing record.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		UPDATE transactions SET
			cash_flow_id = $3,
			business_name = $4,
			payment_date = $5,
			amount = $6,
			currency = $7,
			notes = $8,
			payment_method = $9,
			payment_identifier = $10,
			recipient_name = $11,
			category_name = $12,
			payment_year = $13,
			payment_month = $14,
			flow_month = $15,
			source_type = $16,
			last_updated_at = $17,
			last_updated_by = $18
		WHERE transaction_id = $1 AND user_id = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		txn.TransactionID,
		txn.UserID,
		txn.CashFlowID,
		txn.BusinessName,
		txn.PaymentDate,
		txn.Amount,
		txn.Currency,
		txn.Notes,
		txn.PaymentMethod,
		txn.PaymentIdentifier,
		txn.RecipientName,
		txn.CategoryName,
		txn.PaymentYear,
		txn.PaymentMonth,
		txn.FlowMonth,
		txn.SourceType,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a user's transaction.
func (r *PgxTransactionRepository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	query := `DELETE FROM transactions WHERE transaction_id = $1 AND user_id = $2;`
	tag, err := r.Pool.Exec(ctx, query, transactionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

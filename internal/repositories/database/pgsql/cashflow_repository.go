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

type PgxCashFlowRepository struct {
	BaseRepository
}

// newPgxCashFlowRepository creates a new repository for cash flow data.
func newPgxCashFlowRepository(pool *pgxpool.Pool) portsrepo.CashFlowRepositoryFacade {
	return &PgxCashFlowRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.CashFlowRepositoryFacade = (*PgxCashFlowRepository)(nil)

const cashFlowColumns = `
	cash_flow_id, user_id, name, currency, is_default, created_at, created_by,
	last_updated_at, last_updated_by`

func scanCashFlow(row pgx.Row) (*domain.CashFlow, error) {
	var flow domain.CashFlow
	err := row.Scan(
		&flow.CashFlowID,
		&flow.UserID,
		&flow.Name,
		&flow.Currency,
		&flow.IsDefault,
		&flow.CreatedAt,
		&flow.CreatedBy,
		&flow.LastUpdatedAt,
		&flow.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// SaveCashFlow inserts a new cash flow.
func (r *PgxCashFlowRepository) SaveCashFlow(ctx context.Context, flow domain.CashFlow) error {
	query := `
		INSERT INTO cash_flows (` + cashFlowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		flow.CashFlowID,
		flow.UserID,
		flow.Name,
		flow.Currency,
		flow.IsDefault,
		flow.CreatedAt,
		flow.CreatedBy,
		flow.LastUpdatedAt,
		flow.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // Unique violation
				return fmt.Errorf("cash flow %s already exists: %w", flow.Name, apperrors.ErrDuplicate)
			}
		}
		return fmt.Errorf("failed to save cash flow %s: %w", flow.CashFlowID, err)
	}
	return nil
}

// FindCashFlowByID retrieves a user's cash flow by its identifier.
func (r *PgxCashFlowRepository) FindCashFlowByID(ctx context.Context, userID, cashFlowID string) (*domain.CashFlow, error) {
	query := `
		SELECT ` + cashFlowColumns + `
		FROM cash_flows
		WHERE cash_flow_id = $1 AND user_id = $2;
	`
	flow, err := scanCashFlow(r.Pool.QueryRow(ctx, query, cashFlowID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cash flow %s: %w", cashFlowID, err)
	}
	return flow, nil
}

// ListCashFlowsByUser retrieves all cash flows belonging to a user.
func (r *PgxCashFlowRepository) ListCashFlowsByUser(ctx context.Context, userID string) ([]domain.CashFlow, error) {
	query := `
		SELECT ` + cashFlowColumns + `
		FROM cash_flows
		WHERE user_id = $1
		ORDER BY created_at;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash flows: %w", err)
	}
	defer rows.Close()

	flows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CashFlow, error) {
		flow, err := scanCashFlow(row)
		if err != nil {
			return domain.CashFlow{}, err
		}
		return *flow, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.CashFlow{}, nil
		}
		return nil, fmt.Errorf("failed to scan cash flows: %w", err)
	}
	return flows, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/charge"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type chargeRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewChargeRepository creates a postgres-backed ledger entry repository
func NewChargeRepository(db postgres.IClient, logger *logger.Logger) charge.Repository {
	return &chargeRepository{db: db, logger: logger}
}

func (r *chargeRepository) Create(ctx context.Context, c *charge.Charge) error {
	if err := c.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO charges (
			id, account_id, source_type, source_id, invoice_id, amount, reference,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :account_id, :source_type, :source_id, :invoice_id, :amount, :reference,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create charge").
			WithReportableDetails(map[string]any{"charge_id": c.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *chargeRepository) Get(ctx context.Context, id string) (*charge.Charge, error) {
	var c charge.Charge
	query := `SELECT * FROM charges WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &c, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("charge not found").
				WithHintf("Charge with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get charge").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *chargeRepository) ListByInvoice(ctx context.Context, invoiceID string) ([]*charge.Charge, error) {
	charges := make([]*charge.Charge, 0)
	query := `
		SELECT * FROM charges
		WHERE invoice_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &charges, query, invoiceID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list charges").
			Mark(ierr.ErrDatabase)
	}
	return charges, nil
}

func (r *chargeRepository) ListByAccount(ctx context.Context, accountID string) ([]*charge.Charge, error) {
	charges := make([]*charge.Charge, 0)
	query := `
		SELECT * FROM charges
		WHERE account_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &charges, query, accountID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list charges").
			Mark(ierr.ErrDatabase)
	}
	return charges, nil
}

func (r *chargeRepository) SumForInvoice(ctx context.Context, invoiceID string) (types.Millicents, error) {
	var sum types.Millicents
	query := `SELECT COALESCE(SUM(amount), 0) FROM charges WHERE invoice_id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &sum, query, invoiceID, types.GetTenantID(ctx))
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to sum charges").
			Mark(ierr.ErrDatabase)
	}
	return sum, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/invoice"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type invoiceRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewInvoiceRepository creates a postgres-backed invoice repository
func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{db: db, logger: logger}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO invoices (
			id, account_id, invoice_number, total_cost, tax_cost, net_cost,
			remaining_cost, state, tenant_id, status, created_at, updated_at,
			created_by, updated_by
		) VALUES (
			:id, :account_id, :invoice_number, :total_cost, :tax_cost, :net_cost,
			:remaining_cost, :state, :tenant_id, :status, :created_at, :updated_at,
			:created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	query := `SELECT * FROM invoices WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &inv, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("invoice not found").
				WithHintf("Invoice with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE invoices SET
			remaining_cost = :remaining_cost,
			state = :state,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			WithReportableDetails(map[string]any{"invoice_id": inv.ID}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) ListDue(ctx context.Context, accountID string) ([]*invoice.Invoice, error) {
	invoices := make([]*invoice.Invoice, 0)
	query := `
		SELECT * FROM invoices
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3
		  AND remaining_cost > 0
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &invoices, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) ListAccountIDsDue(ctx context.Context) ([]string, error) {
	accountIDs := make([]string, 0)
	query := `
		SELECT DISTINCT account_id FROM invoices
		WHERE tenant_id = $1 AND status != $2 AND remaining_cost > 0`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &accountIDs, query, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list accounts with due invoices").
			Mark(ierr.ErrDatabase)
	}
	return accountIDs, nil
}

func (r *invoiceRepository) ListByAccount(ctx context.Context, accountID string) ([]*invoice.Invoice, error) {
	invoices := make([]*invoice.Invoice, 0)
	query := `
		SELECT * FROM invoices
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &invoices, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cloudnet/billing/internal/domain/receipt"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type receiptRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewReceiptRepository creates a postgres-backed payment receipt repository
func NewReceiptRepository(db postgres.IClient, logger *logger.Logger) receipt.Repository {
	return &receiptRepository{db: db, logger: logger}
}

func (r *receiptRepository) Create(ctx context.Context, rec *receipt.PaymentReceipt) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	// payment_receipts has a unique index on (tenant_id, reference), so
	// a replayed callback racing past GetByReference still cannot
	// create a duplicate.
	query := `
		INSERT INTO payment_receipts (
			id, account_id, receipt_number, value, funding_method, reference,
			metadata, tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :account_id, :receipt_number, :value, :funding_method, :reference,
			:metadata, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, rec); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ierr.WithError(err).
				WithHint("A payment receipt already exists for this reference").
				WithReportableDetails(map[string]any{"reference": rec.Reference}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create payment receipt").
			WithReportableDetails(map[string]any{
				"receipt_id": rec.ID,
				"reference":  rec.Reference,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *receiptRepository) Get(ctx context.Context, id string) (*receipt.PaymentReceipt, error) {
	var rec receipt.PaymentReceipt
	query := `SELECT * FROM payment_receipts WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &rec, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment receipt not found").
				WithHintf("Payment receipt with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment receipt").
			Mark(ierr.ErrDatabase)
	}
	return &rec, nil
}

func (r *receiptRepository) GetByReference(ctx context.Context, reference string) (*receipt.PaymentReceipt, error) {
	var rec receipt.PaymentReceipt
	query := `SELECT * FROM payment_receipts WHERE reference = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &rec, query, reference, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment receipt not found").
				WithHintf("No payment receipt with reference %s", reference).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment receipt by reference").
			Mark(ierr.ErrDatabase)
	}
	return &rec, nil
}

func (r *receiptRepository) ListByAccount(ctx context.Context, accountID string) ([]*receipt.PaymentReceipt, error) {
	receipts := make([]*receipt.PaymentReceipt, 0)
	query := `
		SELECT * FROM payment_receipts
		WHERE account_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &receipts, query, accountID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payment receipts").
			Mark(ierr.ErrDatabase)
	}
	return receipts, nil
}

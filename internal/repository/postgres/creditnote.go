package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/creditnote"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type creditNoteRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewCreditNoteRepository creates a postgres-backed credit note repository
func NewCreditNoteRepository(db postgres.IClient, logger *logger.Logger) creditnote.Repository {
	return &creditNoteRepository{db: db, logger: logger}
}

func (r *creditNoteRepository) Create(ctx context.Context, note *creditnote.CreditNote) error {
	query := `
		INSERT INTO credit_notes (
			id, account_id, credit_number, remaining_cost,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :account_id, :credit_number, :remaining_cost,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, note); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create credit note").
			WithReportableDetails(map[string]any{"credit_note_id": note.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *creditNoteRepository) Get(ctx context.Context, id string) (*creditnote.CreditNote, error) {
	var note creditnote.CreditNote
	query := `SELECT * FROM credit_notes WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &note, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("credit note not found").
				WithHintf("Credit note with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get credit note").
			Mark(ierr.ErrDatabase)
	}
	return &note, nil
}

func (r *creditNoteRepository) Update(ctx context.Context, note *creditnote.CreditNote) error {
	// The guard on remaining_cost keeps a concurrent consumer from
	// driving the balance negative even if the in-memory check raced.
	query := `
		UPDATE credit_notes SET
			remaining_cost = :remaining_cost,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND :remaining_cost >= 0`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, note)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update credit note").
			WithReportableDetails(map[string]any{"credit_note_id": note.ID}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("credit note not found or balance out of range").
			WithReportableDetails(map[string]any{"credit_note_id": note.ID}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (r *creditNoteRepository) ListWithRemainingCost(ctx context.Context, accountID string) ([]*creditnote.CreditNote, error) {
	notes := make([]*creditnote.CreditNote, 0)
	query := `
		SELECT * FROM credit_notes
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3
		  AND remaining_cost > 0
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &notes, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list credit notes with remaining cost").
			Mark(ierr.ErrDatabase)
	}
	return notes, nil
}

func (r *creditNoteRepository) ListByAccount(ctx context.Context, accountID string) ([]*creditnote.CreditNote, error) {
	notes := make([]*creditnote.CreditNote, 0)
	query := `
		SELECT * FROM credit_notes
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &notes, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list credit notes").
			Mark(ierr.ErrDatabase)
	}
	return notes, nil
}

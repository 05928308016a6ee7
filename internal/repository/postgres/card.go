package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type cardRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewCardRepository creates a postgres-backed billing card repository
func NewCardRepository(db postgres.IClient, logger *logger.Logger) card.Repository {
	return &cardRepository{db: db, logger: logger}
}

func (r *cardRepository) Create(ctx context.Context, c *card.BillingCard) error {
	if err := c.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO billing_cards (
			id, account_id, bin, last4, expiry_month, expiry_year, cardholder,
			address1, address2, city, region, country, postal, ip_address,
			user_agent, processor_token, fraud_verified, fraud_score, is_primary,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :account_id, :bin, :last4, :expiry_month, :expiry_year, :cardholder,
			:address1, :address2, :city, :region, :country, :postal, :ip_address,
			:user_agent, :processor_token, :fraud_verified, :fraud_score, :is_primary,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create billing card").
			WithReportableDetails(map[string]any{"card_id": c.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *cardRepository) Get(ctx context.Context, id string) (*card.BillingCard, error) {
	var c card.BillingCard
	query := `SELECT * FROM billing_cards WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &c, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("billing card not found").
				WithHintf("Billing card with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get billing card").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *cardRepository) Update(ctx context.Context, c *card.BillingCard) error {
	// Only the mutable flags are written; card data itself is
	// immutable after creation.
	query := `
		UPDATE billing_cards SET
			processor_token = :processor_token,
			fraud_verified = :fraud_verified,
			fraud_score = :fraud_score,
			is_primary = :is_primary,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing card").
			WithReportableDetails(map[string]any{"card_id": c.ID}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("billing card not found").
			WithHintf("Billing card with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE billing_cards SET status = $1, is_primary = FALSE, updated_at = $2
		WHERE id = $3 AND tenant_id = $4`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		types.StatusDeleted, time.Now().UTC(), id, types.GetTenantID(ctx))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete billing card").
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("billing card not found").
			WithHintf("Billing card with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *cardRepository) ListByAccount(ctx context.Context, accountID string) ([]*card.BillingCard, error) {
	cards := make([]*card.BillingCard, 0)
	query := `
		SELECT * FROM billing_cards
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &cards, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list billing cards").
			Mark(ierr.ErrDatabase)
	}
	return cards, nil
}

func (r *cardRepository) GetPrimary(ctx context.Context, accountID string) (*card.BillingCard, error) {
	var c card.BillingCard
	query := `
		SELECT * FROM billing_cards
		WHERE account_id = $1 AND tenant_id = $2 AND status != $3 AND is_primary`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &c, query, accountID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("no primary billing card").
				WithHint("Account has no primary billing card").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get primary billing card").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *cardRepository) ClearPrimary(ctx context.Context, accountID string) error {
	query := `
		UPDATE billing_cards SET is_primary = FALSE, updated_at = $1
		WHERE account_id = $2 AND tenant_id = $3 AND is_primary`

	if _, err := r.db.Querier(ctx).ExecContext(ctx, query,
		time.Now().UTC(), accountID, types.GetTenantID(ctx)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to clear primary billing card").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/account"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type accountRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewAccountRepository creates a postgres-backed account repository
func NewAccountRepository(db postgres.IClient, logger *logger.Logger) account.Repository {
	return &accountRepository{db: db, logger: logger}
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	var a account.Account
	query := `SELECT * FROM accounts WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &a, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("account not found").
				WithHintf("Account with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get account").
			Mark(ierr.ErrDatabase)
	}
	return &a, nil
}

func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	query := `
		UPDATE accounts SET
			gateway_id = :gateway_id,
			maxmind_exempt = :maxmind_exempt,
			company_name = :company_name,
			vat_number = :vat_number,
			address1 = :address1,
			address2 = :address2,
			city = :city,
			country = :country,
			postal = :postal,
			coupon_percentage = :coupon_percentage,
			payg_balance = :payg_balance,
			used_payg_balance = :used_payg_balance,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	result, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, a)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update account").
			WithReportableDetails(map[string]any{"account_id": a.ID}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("account not found").
			WithHintf("Account with ID %s was not found", a.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *accountRepository) CreditPaygBalance(ctx context.Context, id string, value types.Millicents) error {
	if value <= 0 {
		return ierr.NewError("invalid credit value").
			WithHint("Balance credit must be greater than 0").
			WithReportableDetails(map[string]any{"value": value}).
			Mark(ierr.ErrValidation)
	}

	// The increment runs in SQL so concurrent top-ups do not lose
	// updates to a stale read.
	query := `
		UPDATE accounts SET payg_balance = payg_balance + $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4 AND status != $5`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		value, time.Now().UTC(), id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to credit account balance").
			WithReportableDetails(map[string]any{"account_id": id, "value": value}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("account not found").
			WithHintf("Account with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

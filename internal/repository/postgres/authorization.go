package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cloudnet/billing/internal/domain/charge"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type authorizationRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewAuthorizationRepository creates a postgres-backed card
// authorization repository
func NewAuthorizationRepository(db postgres.IClient, logger *logger.Logger) charge.AuthorizationRepository {
	return &authorizationRepository{db: db, logger: logger}
}

// authorizationRow mirrors charge.Authorization with a pq array type
// for the invoice id batch, which sqlx cannot scan into []string.
type authorizationRow struct {
	ID              string                     `db:"id"`
	AccountID       string                     `db:"account_id"`
	CardID          string                     `db:"card_id"`
	AmountCents     types.Cents                `db:"amount_cents"`
	GatewayChargeID string                     `db:"gateway_charge_id"`
	Description     string                     `db:"description"`
	AuthStatus      types.AuthorizationStatus  `db:"auth_status"`
	Purpose         types.AuthorizationPurpose `db:"purpose"`
	InvoiceIDs      pq.StringArray             `db:"invoice_ids"`
	CapturedAt      *time.Time                 `db:"captured_at"`
	ErrorMessage    *string                    `db:"error_message"`

	types.BaseModel
}

func (row *authorizationRow) toDomain() *charge.Authorization {
	return &charge.Authorization{
		ID:              row.ID,
		AccountID:       row.AccountID,
		CardID:          row.CardID,
		AmountCents:     row.AmountCents,
		GatewayChargeID: row.GatewayChargeID,
		Description:     row.Description,
		AuthStatus:      row.AuthStatus,
		Purpose:         row.Purpose,
		InvoiceIDs:      []string(row.InvoiceIDs),
		CapturedAt:      row.CapturedAt,
		ErrorMessage:    row.ErrorMessage,
		BaseModel:       row.BaseModel,
	}
}

func (r *authorizationRepository) Create(ctx context.Context, auth *charge.Authorization) error {
	query := `
		INSERT INTO card_authorizations (
			id, account_id, card_id, amount_cents, gateway_charge_id, description,
			auth_status, purpose, invoice_ids, captured_at, error_message,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		)`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		auth.ID, auth.AccountID, auth.CardID, auth.AmountCents, auth.GatewayChargeID, auth.Description,
		auth.AuthStatus, auth.Purpose, pq.Array(auth.InvoiceIDs), auth.CapturedAt, auth.ErrorMessage,
		auth.TenantID, auth.Status, auth.CreatedAt, auth.UpdatedAt, auth.CreatedBy, auth.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create card authorization").
			WithReportableDetails(map[string]any{"authorization_id": auth.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *authorizationRepository) Get(ctx context.Context, id string) (*charge.Authorization, error) {
	var row authorizationRow
	query := `SELECT * FROM card_authorizations WHERE id = $1 AND tenant_id = $2`

	err := sqlx.GetContext(ctx, r.db.Querier(ctx), &row, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("card authorization not found").
				WithHintf("Card authorization with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get card authorization").
			Mark(ierr.ErrDatabase)
	}
	return row.toDomain(), nil
}

func (r *authorizationRepository) Update(ctx context.Context, auth *charge.Authorization) error {
	query := `
		UPDATE card_authorizations SET
			auth_status = $1,
			captured_at = $2,
			error_message = $3,
			updated_at = $4,
			updated_by = $5
		WHERE id = $6 AND tenant_id = $7`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		auth.AuthStatus, auth.CapturedAt, auth.ErrorMessage,
		auth.UpdatedAt, auth.UpdatedBy, auth.ID, auth.TenantID,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update card authorization").
			WithReportableDetails(map[string]any{"authorization_id": auth.ID}).
			Mark(ierr.ErrDatabase)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ierr.NewError("card authorization not found").
			WithHintf("Card authorization with ID %s was not found", auth.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *authorizationRepository) ListOpen(ctx context.Context) ([]*charge.Authorization, error) {
	rows := make([]*authorizationRow, 0)
	query := `
		SELECT * FROM card_authorizations
		WHERE tenant_id = $1 AND auth_status = $2
		ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &rows, query,
		types.GetTenantID(ctx), types.AuthorizationStatusAuthorized)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list open card authorizations").
			Mark(ierr.ErrDatabase)
	}

	auths := make([]*charge.Authorization, 0, len(rows))
	for _, row := range rows {
		auths = append(auths, row.toDomain())
	}
	return auths, nil
}

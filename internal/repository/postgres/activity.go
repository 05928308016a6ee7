package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/cloudnet/billing/internal/domain/activity"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/types"
)

type activityRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

// NewActivityRepository creates a postgres-backed activity log repository
func NewActivityRepository(db postgres.IClient, logger *logger.Logger) activity.Repository {
	return &activityRepository{db: db, logger: logger}
}

func (r *activityRepository) Create(ctx context.Context, a *activity.Activity) error {
	query := `
		INSERT INTO activities (
			id, account_id, kind, actor, params,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :account_id, :kind, :actor, :params,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := sqlx.NamedExecContext(ctx, r.db.Querier(ctx), query, a); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record activity").
			WithReportableDetails(map[string]any{
				"account_id": a.AccountID,
				"kind":       a.Kind,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *activityRepository) ListByAccount(ctx context.Context, accountID string) ([]*activity.Activity, error) {
	activities := make([]*activity.Activity, 0)
	query := `
		SELECT * FROM activities
		WHERE account_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.db.Querier(ctx), &activities, query, accountID, types.GetTenantID(ctx))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list activities").
			Mark(ierr.ErrDatabase)
	}
	return activities, nil
}

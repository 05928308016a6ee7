package service

import (
	"context"

	"github.com/cloudnet/billing/internal/domain/activity"
	"github.com/cloudnet/billing/internal/types"
)

// newActivity builds an audit entry attributed to the context's user,
// or to the system when none is set.
func newActivity(ctx context.Context, accountID string, kind types.ActivityKind, params types.Metadata) *activity.Activity {
	return &activity.Activity{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACTIVITY),
		AccountID: accountID,
		Kind:      kind,
		Actor:     actorFromContext(ctx),
		Params:    params,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
}

func actorFromContext(ctx context.Context) string {
	if userID := types.GetUserID(ctx); userID != "" {
		return userID
	}
	return "system"
}

// recordActivity appends an audit entry; audit failures are logged but
// never fail the business operation they describe.
func (s ServiceParams) recordActivity(ctx context.Context, accountID string, kind types.ActivityKind, params types.Metadata) {
	act := newActivity(ctx, accountID, kind, params)
	if err := s.ActivityRepo.Create(ctx, act); err != nil {
		s.Logger.Errorw("failed to record activity",
			"account_id", accountID,
			"kind", kind,
			"error", err,
		)
	}
}

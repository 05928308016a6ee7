package activity

import (
	"github.com/cloudnet/billing/internal/types"
)

// Activity is an append-only audit record of a billing action taken
// against an account.
type Activity struct {
	ID        string             `db:"id" json:"id"`
	AccountID string             `db:"account_id" json:"account_id"`
	Kind      types.ActivityKind `db:"kind" json:"kind"`
	// Actor is the user or system identity the action is attributed to.
	Actor  string         `db:"actor" json:"actor"`
	Params types.Metadata `db:"params" json:"params,omitempty"`

	types.BaseModel
}

// TableName returns the table name for the activity
func (a *Activity) TableName() string {
	return "activities"
}

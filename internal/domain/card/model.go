package card

import (
	"github.com/go-playground/validator/v10"

	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// BillingCard is a tokenized payment instrument. Card data is captured
// once at submission and never mutated afterwards except for the
// primary and soft-delete flags. The processor token is assigned by
// the gateway during tokenization; a card without one cannot be
// charged.
type BillingCard struct {
	ID          string `db:"id" json:"id"`
	AccountID   string `db:"account_id" json:"account_id" validate:"required"`
	BIN         string `db:"bin" json:"bin" validate:"required,len=6,numeric"`
	Last4       string `db:"last4" json:"last4" validate:"required,len=4,numeric"`
	ExpiryMonth string `db:"expiry_month" json:"expiry_month" validate:"required,len=2,numeric"`
	ExpiryYear  string `db:"expiry_year" json:"expiry_year" validate:"required,len=2,numeric"`
	Cardholder  string `db:"cardholder" json:"cardholder" validate:"required"`
	Address1    string `db:"address1" json:"address1" validate:"required"`
	Address2    string `db:"address2" json:"address2"`
	City        string `db:"city" json:"city" validate:"required"`
	Region      string `db:"region" json:"region" validate:"required"`
	Country     string `db:"country" json:"country" validate:"required,iso3166_1_alpha2"`
	Postal      string `db:"postal" json:"postal" validate:"required"`
	IPAddress   string `db:"ip_address" json:"ip_address" validate:"required,ip"`
	UserAgent   string `db:"user_agent" json:"user_agent" validate:"required"`

	// ProcessorToken is nil until the gateway has tokenized the card.
	ProcessorToken *string  `db:"processor_token" json:"processor_token,omitempty"`
	FraudVerified  bool     `db:"fraud_verified" json:"fraud_verified"`
	FraudScore     *float64 `db:"fraud_score" json:"fraud_score,omitempty"`
	Primary        bool     `db:"is_primary" json:"primary"`

	types.BaseModel
}

var validate = validator.New()

// Validate checks the card's field formats before it is persisted.
func (c *BillingCard) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Card details are incomplete or malformed").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Processable reports whether the card can be charged: it must be
// tokenized by the gateway and must have cleared fraud verification.
// Soft-deleted cards are filtered out at the repository layer.
func (c *BillingCard) Processable() bool {
	return c.ProcessorToken != nil && *c.ProcessorToken != "" && c.FraudVerified
}

// FraudAssessment classifies the card's risk. Exempt accounts are
// always safe; unverified cards are unassessed; everything else goes
// through the score tier table.
func (c *BillingCard) FraudAssessment(accountExempt bool) types.FraudAssessment {
	if accountExempt {
		return types.FraudAssessmentSafe
	}
	if !c.FraudVerified || c.FraudScore == nil {
		return types.FraudAssessmentUnassessed
	}
	return types.AssessFraudScore(*c.FraudScore)
}

// TableName returns the table name for the billing card
func (c *BillingCard) TableName() string {
	return "billing_cards"
}

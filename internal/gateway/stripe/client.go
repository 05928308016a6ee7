package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"golang.org/x/time/rate"

	"github.com/cloudnet/billing/internal/config"
	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/types"
)

// Client implements the gateway.Client two-phase protocol on Stripe
// manual-capture PaymentIntents. Sandbox vs live is decided once, by
// the key injected from configuration; call sites never consult the
// environment.
type Client struct {
	sc      *stripe.Client
	limiter *rate.Limiter
	sandbox bool
	logger  *logger.Logger
}

var _ gateway.Client = (*Client)(nil)

// NewClient creates a Stripe gateway client from configuration.
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Stripe.MaxRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Stripe.MaxRequestsPerSecond), cfg.Stripe.MaxRequestsPerSecond)
	}

	return &Client{
		sc:      stripe.NewClient(cfg.Stripe.SecretKey, nil),
		limiter: limiter,
		sandbox: cfg.Stripe.Sandbox,
		logger:  logger,
	}
}

// Authorize reserves funds on the card without capturing them. The
// returned PaymentIntent id is the charge id handed to Capture.
func (c *Client) Authorize(ctx context.Context, merchantID, cardToken string, amount types.Cents) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", gateway.NewError("rate_limit", "gateway request aborted", err)
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(int64(amount)),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(merchantID),
		PaymentMethod: stripe.String(cardToken),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}

	intent, err := c.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", c.wrapErr(err, "card authorization failed")
	}

	c.logger.Debugw("authorized gateway charge",
		"charge_id", intent.ID,
		"amount_cents", amount,
		"sandbox", c.sandbox,
	)
	return intent.ID, nil
}

// Capture finalizes a previously authorized charge.
func (c *Client) Capture(ctx context.Context, chargeID, description string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return gateway.NewError("rate_limit", "gateway request aborted", err)
	}

	params := &stripe.PaymentIntentCaptureParams{}
	if description != "" {
		params.StatementDescriptor = stripe.String(statementDescriptor(description))
	}

	if _, err := c.sc.V1PaymentIntents.Capture(ctx, chargeID, params); err != nil {
		return c.wrapErr(err, "charge capture failed")
	}

	c.logger.Debugw("captured gateway charge", "charge_id", chargeID)
	return nil
}

// wrapErr converts a stripe-go error into the typed gateway error,
// preserving the processor's human-readable decline reason.
func (c *Client) wrapErr(err error, fallback string) error {
	if stripeErr, ok := err.(*stripe.Error); ok {
		reason := stripeErr.Msg
		if reason == "" {
			reason = fallback
		}
		return gateway.NewError(string(stripeErr.Code), reason, err)
	}
	return gateway.NewError("network_error", fallback, err)
}

// statementDescriptor trims a charge description to the 22 character
// limit card networks impose on statement text.
func statementDescriptor(description string) string {
	if len(description) > 22 {
		return description[:22]
	}
	return description
}

package service

import (
	"context"
	"strconv"

	"github.com/samber/lo"

	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/receipt"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// TopUpService adds money to an account's pay-as-you-go balance,
// either by charging the primary billing card or by reconciling a
// wallet payment the payer approved on the provider's site.
type TopUpService interface {
	// TopUpWithCard charges the account's primary card for one of the
	// allowed whole-dollar denominations and credits the balance.
	TopUpWithCard(ctx context.Context, accountID string, dollars int64) (*receipt.PaymentReceipt, error)

	// HandleWalletReturn finalizes a wallet payment identified by the
	// provider's redirect token. Replayed callbacks return the receipt
	// already recorded for the transaction instead of crediting twice.
	HandleWalletReturn(ctx context.Context, accountID, token string) (*receipt.PaymentReceipt, error)
}

type topUpService struct {
	ServiceParams
}

// NewTopUpService creates the top-up reconciler
func NewTopUpService(params ServiceParams) TopUpService {
	return &topUpService{ServiceParams: params}
}

func (s *topUpService) TopUpWithCard(ctx context.Context, accountID string, dollars int64) (*receipt.PaymentReceipt, error) {
	if !lo.Contains(s.Config.Billing.ValidTopUpAmounts, dollars) {
		return nil, ierr.NewError("invalid top-up amount").
			WithHint("Top-up amount is not an allowed denomination").
			WithReportableDetails(map[string]any{
				"dollars": dollars,
				"allowed": s.Config.Billing.ValidTopUpAmounts,
			}).
			Mark(ierr.ErrValidation)
	}

	acct, err := s.AccountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	primary, err := s.CardRepo.GetPrimary(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !primary.Processable() {
		return nil, ierr.NewError("primary billing card not processable").
			WithHint("The primary card has no processor token or failed verification").
			WithReportableDetails(map[string]any{"card_id": primary.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	amountCents := types.CentsFromDollarUnits(dollars)
	description := "CloudNet balance top-up"

	chargeID, err := s.Gateway.Authorize(ctx, acct.GatewayID, *primary.ProcessorToken, amountCents)
	if err != nil {
		s.Logger.Warnw("gateway refused top-up authorization",
			"account_id", accountID,
			"amount_cents", amountCents,
			"error", err,
		)
		s.recordActivity(ctx, accountID, types.ActivityAuthChargeFailed, types.Metadata{
			"amount_cents": strconv.FormatInt(int64(amountCents), 10),
			"error":        err.Error(),
		})
		return nil, err
	}

	// Same two-phase discipline as invoice settlement: the
	// authorization is durable before capture is attempted.
	auth := &charge.Authorization{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUTHORIZATION),
		AccountID:       accountID,
		CardID:          primary.ID,
		AmountCents:     amountCents,
		GatewayChargeID: chargeID,
		Description:     description,
		AuthStatus:      types.AuthorizationStatusAuthorized,
		Purpose:         types.AuthorizationPurposeTopUp,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
	if err := s.AuthorizationRepo.Create(ctx, auth); err != nil {
		return nil, err
	}

	// A decline here is terminal; an unknown outcome leaves the
	// authorization open for the reconciliation sweep to complete.
	if err := s.Gateway.Capture(ctx, chargeID, description); err != nil {
		return nil, s.recordCaptureFailure(ctx, auth, err)
	}

	return s.creditBalance(ctx, accountID, creditBalanceInput{
		Value:         types.MillicentsFromDollarUnits(dollars),
		FundingMethod: types.FundingMethodBillingCard,
		Reference:     chargeID,
		Authorization: auth,
	})
}

func (s *topUpService) HandleWalletReturn(ctx context.Context, accountID, token string) (*receipt.PaymentReceipt, error) {
	details, err := s.Wallet.FetchDetails(ctx, token)
	if err != nil {
		return nil, err
	}

	value := types.MillicentsFromDollars(details.Amount)
	if value <= 0 {
		return nil, ierr.NewError("invalid wallet payment amount").
			WithHint("Wallet payment amount must be greater than 0").
			WithReportableDetails(map[string]any{"amount": details.Amount.String()}).
			Mark(ierr.ErrValidation)
	}

	fin, err := s.Wallet.Finalize(ctx, token, details.PayerID, details.Amount)
	if err != nil {
		return nil, err
	}

	// Replayed return callbacks finalize to the same transaction token;
	// the receipt lookup is the dedup point.
	existing, err := s.ReceiptRepo.GetByReference(ctx, fin.TransactionToken)
	if err == nil {
		if existing.AccountID != accountID {
			return nil, ierr.NewError("wallet payment recorded for another account").
				WithHint("This wallet transaction was already applied to a different account").
				WithReportableDetails(map[string]any{
					"reference":  fin.TransactionToken,
					"account_id": accountID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		s.Logger.Infow("wallet payment already recorded",
			"account_id", accountID,
			"reference", fin.TransactionToken,
		)
		return existing, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	return s.creditBalance(ctx, accountID, creditBalanceInput{
		Value:         value,
		FundingMethod: types.FundingMethodPayPal,
		Reference:     fin.TransactionToken,
		Metadata:      fin.Raw,
	})
}

type creditBalanceInput struct {
	Value         types.Millicents
	FundingMethod types.FundingMethod
	Reference     string
	Metadata      types.Metadata
	Authorization *charge.Authorization
}

// creditBalance records the receipt and credits the PAYG balance in one
// transaction, marking the card authorization captured when there is
// one. The reconciliation sweep completes recovered top-up captures
// through the same path.
func (s ServiceParams) creditBalance(ctx context.Context, accountID string, in creditBalanceInput) (*receipt.PaymentReceipt, error) {
	rec := &receipt.PaymentReceipt{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_RECEIPT),
		AccountID:     accountID,
		ReceiptNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT_RECEIPT),
		Value:         in.Value,
		FundingMethod: in.FundingMethod,
		Reference:     in.Reference,
		Metadata:      in.Metadata,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ReceiptRepo.Create(txCtx, rec); err != nil {
			return err
		}
		if err := s.AccountRepo.CreditPaygBalance(txCtx, accountID, in.Value); err != nil {
			return err
		}
		if in.Authorization != nil {
			now := rec.CreatedAt
			in.Authorization.AuthStatus = types.AuthorizationStatusCaptured
			in.Authorization.CapturedAt = &now
			in.Authorization.UpdatedAt = now
			in.Authorization.UpdatedBy = types.GetUserID(txCtx)
			if err := s.AuthorizationRepo.Update(txCtx, in.Authorization); err != nil {
				return err
			}
		}
		s.recordActivity(txCtx, accountID, types.ActivityChargeCreditAccount, types.Metadata{
			"receipt_id":     rec.ID,
			"reference":      in.Reference,
			"funding_method": string(in.FundingMethod),
			"value":          strconv.FormatInt(int64(in.Value), 10),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("credited account balance",
		"account_id", accountID,
		"receipt_id", rec.ID,
		"value", rec.Value,
		"funding_method", rec.FundingMethod,
	)
	return rec, nil
}

// finalizeTopUpCapture completes a top-up whose capture was recovered
// by the reconciliation sweep. The receipt is keyed by the gateway
// charge id, so a replayed sweep credits the balance exactly once.
func (s ServiceParams) finalizeTopUpCapture(ctx context.Context, auth *charge.Authorization) error {
	existing, err := s.ReceiptRepo.GetByReference(ctx, auth.GatewayChargeID)
	if err == nil {
		s.Logger.Infow("top-up already credited, closing authorization",
			"authorization_id", auth.ID,
			"receipt_id", existing.ID,
		)
		return s.markAuthorizationCaptured(ctx, auth)
	}
	if !ierr.IsNotFound(err) {
		return err
	}

	_, err = s.creditBalance(ctx, auth.AccountID, creditBalanceInput{
		Value:         auth.AmountCents.ToMillicents(),
		FundingMethod: types.FundingMethodBillingCard,
		Reference:     auth.GatewayChargeID,
		Authorization: auth,
	})
	if ierr.IsAlreadyExists(err) {
		// A concurrent credit for the same charge won the unique index
		// race; the money is accounted for either way.
		return nil
	}
	return err
}

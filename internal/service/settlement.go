package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/creditnote"
	"github.com/cloudnet/billing/internal/domain/invoice"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/types"
)

const (
	// maxConcurrentSettlements bounds the settlement worker pool. Each
	// account still settles strictly serially.
	maxConcurrentSettlements = 8

	// maxCaptureRetries bounds the reconciliation sweep's capture
	// attempts per open authorization per run.
	maxCaptureRetries = 3
)

// SettlementService settles an account's outstanding invoices: credit
// notes first, then a single batched card charge for whatever remains.
type SettlementService interface {
	// SettleInvoices runs one settlement cycle for a single account.
	// A declined card is an expected outcome and does not return an
	// error; the invoices simply stay outstanding.
	SettleInvoices(ctx context.Context, accountID string) error

	// SettleDueAccounts settles many accounts concurrently. Failures
	// are collected per account; one account's failure never blocks
	// the others.
	SettleDueAccounts(ctx context.Context, accountIDs []string) error

	// ReconcileOpenAuthorizations retries capture for authorizations
	// left open by a crash or timeout between authorize and capture.
	ReconcileOpenAuthorizations(ctx context.Context) error
}

type settlementService struct {
	ServiceParams
	locks accountLocks
}

// NewSettlementService creates the settlement orchestrator
func NewSettlementService(params ServiceParams) SettlementService {
	return &settlementService{ServiceParams: params}
}

// accountLocks serializes settlement per account while letting
// distinct accounts proceed concurrently.
type accountLocks struct {
	mu sync.Map // accountID -> *sync.Mutex
}

func (l *accountLocks) lock(accountID string) func() {
	v, _ := l.mu.LoadOrStore(accountID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *settlementService) SettleInvoices(ctx context.Context, accountID string) error {
	unlock := s.locks.lock(accountID)
	defer unlock()

	acct, err := s.AccountRepo.Get(ctx, accountID)
	if err != nil {
		return err
	}

	invoices, err := s.InvoiceRepo.ListDue(ctx, accountID)
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		return nil
	}

	if err := s.applyCreditNotes(ctx, accountID, invoices); err != nil {
		return err
	}

	// Whatever the credit notes did not cover goes to the card in one
	// batched charge.
	residual := invoices
	residual = lo.Filter(residual, func(inv *invoice.Invoice, _ int) bool {
		return inv.RemainingCost > 0
	})
	if len(residual) == 0 {
		return nil
	}

	var total types.Millicents
	for _, inv := range residual {
		total += inv.RemainingCost
	}

	amountCents := total.ToCents()
	if int64(amountCents) < s.Config.Billing.MinChargeAmountCents {
		s.Logger.Debugw("batch below minimum charge amount, leaving outstanding",
			"account_id", accountID,
			"amount_cents", amountCents,
			"min_cents", s.Config.Billing.MinChargeAmountCents,
		)
		return nil
	}

	primary, err := s.CardRepo.GetPrimary(ctx, accountID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Infow("no primary billing card, leaving invoices outstanding",
				"account_id", accountID,
			)
			return nil
		}
		return err
	}
	if !primary.Processable() {
		s.Logger.Infow("primary billing card not processable, leaving invoices outstanding",
			"account_id", accountID,
			"card_id", primary.ID,
		)
		return nil
	}

	description := batchDescription(residual)

	chargeID, err := s.Gateway.Authorize(ctx, acct.GatewayID, *primary.ProcessorToken, amountCents)
	if err != nil {
		return s.recordAuthorizeFailure(ctx, accountID, amountCents, err)
	}

	// The authorization is persisted before capture is attempted, so a
	// crash or timeout here leaves a record the reconciliation sweep
	// can pick up instead of a silently reserved charge.
	auth := &charge.Authorization{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_AUTHORIZATION),
		AccountID:       accountID,
		CardID:          primary.ID,
		AmountCents:     amountCents,
		GatewayChargeID: chargeID,
		Description:     description,
		AuthStatus:      types.AuthorizationStatusAuthorized,
		Purpose:         types.AuthorizationPurposeSettlement,
		InvoiceIDs: lo.Map(residual, func(inv *invoice.Invoice, _ int) string {
			return inv.ID
		}),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if err := s.AuthorizationRepo.Create(ctx, auth); err != nil {
		return err
	}

	s.recordActivity(ctx, accountID, types.ActivityAuthCharge, types.Metadata{
		"authorization_id": auth.ID,
		"amount_cents":     strconv.FormatInt(int64(amountCents), 10),
	})

	if err := s.Gateway.Capture(ctx, chargeID, description); err != nil {
		return s.recordCaptureFailure(ctx, auth, err)
	}

	return s.finalizeCapture(ctx, auth)
}

// applyCreditNotes is settlement phase one: each invoice's remaining
// cost is funded from the account's usable credit notes, oldest first,
// with each invoice's allocation committed in its own transaction.
func (s *settlementService) applyCreditNotes(ctx context.Context, accountID string, invoices []*invoice.Invoice) error {
	notes, err := s.CreditNoteRepo.ListWithRemainingCost(ctx, accountID)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}

	for _, inv := range invoices {
		if inv.RemainingCost <= 0 {
			continue
		}

		allocations := creditnote.Allocate(inv.RemainingCost, notes)
		if len(allocations) == 0 {
			break
		}

		err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
			for _, alloc := range allocations {
				note, found := lo.Find(notes, func(n *creditnote.CreditNote) bool {
					return n.ID == alloc.NoteID
				})
				if !found {
					return ierr.NewError("allocated credit note missing").
						WithReportableDetails(map[string]any{"credit_note_id": alloc.NoteID}).
						Mark(ierr.ErrInvalidOperation)
				}
				if err := note.Consume(alloc.Amount); err != nil {
					return err
				}
				note.UpdatedAt = time.Now().UTC()
				note.UpdatedBy = types.GetUserID(txCtx)
				if err := s.CreditNoteRepo.Update(txCtx, note); err != nil {
					return err
				}

				entry := &charge.Charge{
					ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
					AccountID:  accountID,
					SourceType: types.ChargeSourceCreditNote,
					SourceID:   note.ID,
					InvoiceID:  inv.ID,
					Amount:     alloc.Amount,
					BaseModel:  types.GetDefaultBaseModel(txCtx),
				}
				if err := s.ChargeRepo.Create(txCtx, entry); err != nil {
					return err
				}

				if err := inv.ApplyCharge(alloc.Amount); err != nil {
					return err
				}
			}

			state := types.InvoiceStatePartiallyPaid
			if inv.RemainingCost == 0 {
				state = types.InvoiceStatePaid
			}
			if err := inv.TransitionTo(state); err != nil {
				return err
			}
			inv.UpdatedAt = time.Now().UTC()
			inv.UpdatedBy = types.GetUserID(txCtx)
			if err := s.InvoiceRepo.Update(txCtx, inv); err != nil {
				return err
			}

			s.recordActivity(txCtx, accountID, types.ActivityCreditCharge, types.Metadata{
				"invoice_id": inv.ID,
				"amount":     strconv.FormatInt(int64(creditnote.Total(allocations)), 10),
			})
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// finalizeCapture marks the authorization captured and fans the batch
// total out to per-invoice card ledger entries in one transaction.
func (s *settlementService) finalizeCapture(ctx context.Context, auth *charge.Authorization) error {
	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.markAuthorizationCaptured(txCtx, auth); err != nil {
			return err
		}

		for _, invoiceID := range auth.InvoiceIDs {
			inv, err := s.InvoiceRepo.Get(txCtx, invoiceID)
			if err != nil {
				return err
			}
			if inv.RemainingCost <= 0 {
				continue
			}

			amount := inv.RemainingCost
			entry := &charge.Charge{
				ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CHARGE),
				AccountID:  auth.AccountID,
				SourceType: types.ChargeSourceBillingCard,
				SourceID:   auth.CardID,
				InvoiceID:  inv.ID,
				Amount:     amount,
				Reference:  &auth.GatewayChargeID,
				BaseModel:  types.GetDefaultBaseModel(txCtx),
			}
			if err := s.ChargeRepo.Create(txCtx, entry); err != nil {
				return err
			}

			if err := inv.ApplyCharge(amount); err != nil {
				return err
			}
			if err := inv.TransitionTo(types.InvoiceStatePaid); err != nil {
				return err
			}
			inv.UpdatedAt = time.Now().UTC()
			inv.UpdatedBy = types.GetUserID(txCtx)
			if err := s.InvoiceRepo.Update(txCtx, inv); err != nil {
				return err
			}

			s.recordActivity(txCtx, auth.AccountID, types.ActivityCardCharge, types.Metadata{
				"invoice_id":        inv.ID,
				"authorization_id":  auth.ID,
				"gateway_charge_id": auth.GatewayChargeID,
				"amount":            strconv.FormatInt(int64(amount), 10),
			})
		}

		s.recordActivity(txCtx, auth.AccountID, types.ActivityCaptureCharge, types.Metadata{
			"authorization_id":  auth.ID,
			"gateway_charge_id": auth.GatewayChargeID,
			"amount_cents":      strconv.FormatInt(int64(auth.AmountCents), 10),
		})
		return nil
	})
}

// recordAuthorizeFailure logs a failed authorize call as an audit
// activity and reports it, then swallows the error: a decline leaves
// the invoices outstanding for the next cycle rather than failing the
// settlement run.
func (s *settlementService) recordAuthorizeFailure(ctx context.Context, accountID string, amount types.Cents, cause error) error {
	s.Logger.Warnw("gateway refused authorization",
		"account_id", accountID,
		"amount_cents", amount,
		"error", cause,
	)
	s.recordActivity(ctx, accountID, types.ActivityAuthChargeFailed, types.Metadata{
		"amount_cents": strconv.FormatInt(int64(amount), 10),
		"error":        cause.Error(),
	})
	s.Sentry.CaptureExceptionWithContext(cause, map[string]interface{}{
		"account_id":   accountID,
		"amount_cents": int64(amount),
	})
	return nil
}

// markAuthorizationCaptured closes an authorization after a confirmed
// capture.
func (s ServiceParams) markAuthorizationCaptured(ctx context.Context, auth *charge.Authorization) error {
	now := time.Now().UTC()
	auth.AuthStatus = types.AuthorizationStatusCaptured
	auth.CapturedAt = &now
	auth.UpdatedAt = now
	auth.UpdatedBy = types.GetUserID(ctx)
	return s.AuthorizationRepo.Update(ctx, auth)
}

// recordCaptureFailure handles a failed capture. A definite gateway
// decline marks the authorization capture_failed; anything else (a
// timeout, a network fault) leaves it open for the reconciliation
// sweep, since the capture may well have gone through.
func (s ServiceParams) recordCaptureFailure(ctx context.Context, auth *charge.Authorization, cause error) error {
	s.Sentry.CaptureExceptionWithContext(cause, map[string]interface{}{
		"account_id":        auth.AccountID,
		"authorization_id":  auth.ID,
		"gateway_charge_id": auth.GatewayChargeID,
	})

	if _, ok := gateway.AsError(cause); !ok {
		s.Logger.Errorw("capture outcome unknown, leaving authorization open",
			"authorization_id", auth.ID,
			"error", cause,
		)
		return cause
	}

	s.Logger.Errorw("gateway refused capture",
		"authorization_id", auth.ID,
		"error", cause,
	)
	msg := cause.Error()
	auth.AuthStatus = types.AuthorizationStatusCaptureFailed
	auth.ErrorMessage = &msg
	auth.UpdatedAt = time.Now().UTC()
	auth.UpdatedBy = types.GetUserID(ctx)
	if err := s.AuthorizationRepo.Update(ctx, auth); err != nil {
		return err
	}
	return cause
}

func (s *settlementService) SettleDueAccounts(ctx context.Context, accountIDs []string) error {
	p := pool.New().
		WithErrors().
		WithMaxGoroutines(maxConcurrentSettlements)

	for _, accountID := range accountIDs {
		p.Go(func() error {
			if err := s.SettleInvoices(ctx, accountID); err != nil {
				s.Logger.Errorw("account settlement failed",
					"account_id", accountID,
					"error", err,
				)
				return fmt.Errorf("account %s: %w", accountID, err)
			}
			return nil
		})
	}
	return p.Wait()
}

func (s *settlementService) ReconcileOpenAuthorizations(ctx context.Context) error {
	open, err := s.AuthorizationRepo.ListOpen(ctx)
	if err != nil {
		return err
	}

	for _, auth := range open {
		operation := func() error {
			err := s.Gateway.Capture(ctx, auth.GatewayChargeID, auth.Description)
			if err != nil {
				// Declines are permanent; only transport faults retry.
				if _, ok := gateway.AsError(err); ok {
					return backoff.Permanent(err)
				}
			}
			return err
		}

		err := backoff.Retry(operation, backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxCaptureRetries), ctx))
		if err != nil {
			if rerr := s.recordCaptureFailure(ctx, auth, err); rerr != nil && !ierr.IsGateway(rerr) {
				return rerr
			}
			continue
		}

		// A recovered capture completes the way its originating flow
		// would have: top-ups credit the balance, settlements fan out
		// to their invoice batch.
		if auth.Purpose == types.AuthorizationPurposeTopUp {
			if err := s.finalizeTopUpCapture(ctx, auth); err != nil {
				return err
			}
		} else {
			if err := s.finalizeCapture(ctx, auth); err != nil {
				return err
			}
		}
		s.Logger.Infow("reconciled open authorization",
			"authorization_id", auth.ID,
			"account_id", auth.AccountID,
		)
	}
	return nil
}

// batchDescription builds the gateway statement line from the batch's
// invoice numbers.
func batchDescription(invoices []*invoice.Invoice) string {
	numbers := lo.Map(invoices, func(inv *invoice.Invoice, _ int) string {
		return inv.InvoiceNumber
	})
	return fmt.Sprintf("CloudNet %s", strings.Join(numbers, " "))
}


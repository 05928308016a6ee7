package service

import (
	"context"
	"time"

	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/types"
)

// CardService manages an account's billing cards: submission with
// fraud screening, gateway token association, and primary selection.
type CardService interface {
	// AddCard validates and fraud-screens a submitted card, persists
	// it, and makes it primary when the account has no primary card
	// yet. Cards assessed rejected are refused outright.
	AddCard(ctx context.Context, billingCard *card.BillingCard) (*card.BillingCard, error)

	// AssociateToken attaches the processor token assigned by the
	// gateway during tokenization. A card without a token cannot be
	// charged.
	AssociateToken(ctx context.Context, cardID, processorToken string) error

	// SetPrimary makes the given card the account's single primary
	// card. The previous primary is demoted in the same transaction.
	SetPrimary(ctx context.Context, accountID, cardID string) error

	// RemoveCard soft-deletes a card. A deleted primary leaves the
	// account without a primary card until another is chosen.
	RemoveCard(ctx context.Context, cardID string) error

	GetCard(ctx context.Context, cardID string) (*card.BillingCard, error)
	ListCards(ctx context.Context, accountID string) ([]*card.BillingCard, error)
}

type cardService struct {
	ServiceParams
}

// NewCardService creates the billing card service
func NewCardService(params ServiceParams) CardService {
	return &cardService{ServiceParams: params}
}

func (s *cardService) AddCard(ctx context.Context, billingCard *card.BillingCard) (*card.BillingCard, error) {
	if err := billingCard.Validate(); err != nil {
		return nil, err
	}

	acct, err := s.AccountRepo.Get(ctx, billingCard.AccountID)
	if err != nil {
		return nil, err
	}

	billingCard.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CARD)
	billingCard.BaseModel = types.GetDefaultBaseModel(ctx)

	if acct.MaxmindExempt {
		// Exempt accounts skip scoring and are always safe.
		billingCard.FraudVerified = true
		billingCard.FraudScore = nil
	} else {
		score, err := s.Risk.ScoreCard(ctx, billingCard)
		if err != nil {
			// Scoring trouble leaves the card unassessed rather than
			// blocking submission; it just cannot be charged yet.
			s.Logger.Errorw("fraud scoring failed, card left unassessed",
				"account_id", billingCard.AccountID,
				"error", err,
			)
			s.Sentry.CaptureException(err)
		} else {
			billingCard.FraudVerified = score.Verified
			if score.Verified {
				billingCard.FraudScore = &score.Score
			}
		}
	}

	if billingCard.FraudAssessment(acct.MaxmindExempt) == types.FraudAssessmentRejected {
		return nil, ierr.NewError("card rejected by risk screening").
			WithHint("This card cannot be accepted").
			WithReportableDetails(map[string]any{
				"account_id":  billingCard.AccountID,
				"fraud_score": billingCard.FraudScore,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	// The first surviving card becomes primary automatically.
	if _, err := s.CardRepo.GetPrimary(ctx, billingCard.AccountID); err != nil {
		if !ierr.IsNotFound(err) {
			return nil, err
		}
		billingCard.Primary = true
	}

	if err := s.CardRepo.Create(ctx, billingCard); err != nil {
		return nil, err
	}

	s.Logger.Infow("added billing card",
		"account_id", billingCard.AccountID,
		"card_id", billingCard.ID,
		"primary", billingCard.Primary,
	)
	return billingCard, nil
}

func (s *cardService) AssociateToken(ctx context.Context, cardID, processorToken string) error {
	if processorToken == "" {
		return ierr.NewError("empty processor token").
			WithHint("Processor token must not be empty").
			Mark(ierr.ErrValidation)
	}

	c, err := s.CardRepo.Get(ctx, cardID)
	if err != nil {
		return err
	}
	if c.ProcessorToken != nil && *c.ProcessorToken != processorToken {
		return ierr.NewError("card already tokenized").
			WithHint("A card's processor token cannot be replaced").
			WithReportableDetails(map[string]any{"card_id": cardID}).
			Mark(ierr.ErrInvalidOperation)
	}

	c.ProcessorToken = &processorToken
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)
	return s.CardRepo.Update(ctx, c)
}

func (s *cardService) SetPrimary(ctx context.Context, accountID, cardID string) error {
	c, err := s.CardRepo.Get(ctx, cardID)
	if err != nil {
		return err
	}
	if c.AccountID != accountID {
		return ierr.NewError("card belongs to another account").
			WithReportableDetails(map[string]any{
				"card_id":    cardID,
				"account_id": accountID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if c.Primary {
		return nil
	}

	return s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.CardRepo.ClearPrimary(txCtx, accountID); err != nil {
			return err
		}
		c.Primary = true
		c.UpdatedAt = time.Now().UTC()
		c.UpdatedBy = types.GetUserID(txCtx)
		return s.CardRepo.Update(txCtx, c)
	})
}

func (s *cardService) RemoveCard(ctx context.Context, cardID string) error {
	return s.CardRepo.Delete(ctx, cardID)
}

func (s *cardService) GetCard(ctx context.Context, cardID string) (*card.BillingCard, error) {
	return s.CardRepo.Get(ctx, cardID)
}

func (s *cardService) ListCards(ctx context.Context, accountID string) ([]*card.BillingCard, error) {
	return s.CardRepo.ListByAccount(ctx, accountID)
}

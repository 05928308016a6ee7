package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/types"
)

const (
	summaryCacheTTL     = 5 * time.Minute
	summaryCacheCleanup = 10 * time.Minute
)

// AccountSummary is the aggregate billing position of an account:
// what is outstanding, what credit remains, and what the PAYG balance
// can still cover.
type AccountSummary struct {
	AccountID string `json:"account_id"`

	OutstandingCost    types.Millicents `json:"outstanding_cost"`
	OutstandingCount   int              `json:"outstanding_count"`
	CreditRemaining    types.Millicents `json:"credit_remaining"`
	PaygBalance        types.Millicents `json:"payg_balance"`
	UsedPaygBalance    types.Millicents `json:"used_payg_balance"`
	AvailablePayg      types.Millicents `json:"available_payg"`
	CouponPercentage   decimal.Decimal  `json:"coupon_percentage"`
	HasProcessableCard bool             `json:"has_processable_card"`

	GeneratedAt time.Time `json:"generated_at"`
}

// BillingService produces account billing summaries. Summaries are
// read-heavy and tolerate short staleness, so they are served from a
// TTL cache; mutating services invalidate on write.
type BillingService interface {
	GetAccountSummary(ctx context.Context, accountID string) (*AccountSummary, error)
	// InvalidateSummary drops the cached summary after a settlement,
	// top-up or card change touches the account.
	InvalidateSummary(accountID string)
}

type billingService struct {
	ServiceParams
	cache *gocache.Cache
}

// NewBillingService creates the billing summary service
func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
		cache:         gocache.New(summaryCacheTTL, summaryCacheCleanup),
	}
}

func (s *billingService) GetAccountSummary(ctx context.Context, accountID string) (*AccountSummary, error) {
	if cached, found := s.cache.Get(accountID); found {
		return cached.(*AccountSummary), nil
	}

	acct, err := s.AccountRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	due, err := s.InvoiceRepo.ListDue(ctx, accountID)
	if err != nil {
		return nil, err
	}

	notes, err := s.CreditNoteRepo.ListWithRemainingCost(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cards, err := s.CardRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		AccountID:        accountID,
		OutstandingCount: len(due),
		OutstandingCost: lo.SumBy(due, func(inv *invoice.Invoice) types.Millicents {
			return inv.RemainingCost
		}),
		PaygBalance:      acct.PaygBalance,
		UsedPaygBalance:  acct.UsedPaygBalance,
		AvailablePayg:    acct.AvailablePaygBalance(),
		CouponPercentage: acct.CouponPercentage,
		GeneratedAt:      time.Now().UTC(),
	}
	for _, note := range notes {
		summary.CreditRemaining += note.RemainingCost
	}
	for _, c := range cards {
		if c.Processable() {
			summary.HasProcessableCard = true
			break
		}
	}

	s.cache.Set(accountID, summary, gocache.DefaultExpiration)
	return summary, nil
}

func (s *billingService) InvalidateSummary(accountID string) {
	s.cache.Delete(accountID)
}

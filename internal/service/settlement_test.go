package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/card"
	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/creditnote"
	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/testutil"
	"github.com/cloudnet/billing/internal/types"
)

type SettlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SettlementService
}

func TestSettlementService(t *testing.T) {
	suite.Run(t, new(SettlementServiceSuite))
}

func (s *SettlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSettlementService(s.params())
}

func (s *SettlementServiceSuite) params() ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		Sentry:            s.GetSentry(),
		AccountRepo:       stores.AccountRepo,
		InvoiceRepo:       stores.InvoiceRepo,
		CreditNoteRepo:    stores.CreditNoteRepo,
		CardRepo:          stores.CardRepo,
		ChargeRepo:        stores.ChargeRepo,
		AuthorizationRepo: stores.AuthorizationRepo,
		ReceiptRepo:       stores.ReceiptRepo,
		ActivityRepo:      stores.ActivityRepo,
		Gateway:           s.GetGateway(),
		Wallet:            s.GetWallet(),
		Risk:              s.GetRisk(),
	}
}

func (s *SettlementServiceSuite) seedAccount(id string) *account.Account {
	acct := &account.Account{
		ID:          id,
		GatewayID:   "cus_" + id,
		CompanyName: "Test Hosting Ltd",
		Address1:    "1 Test Street",
		City:        "Testville",
		Country:     "US",
		Postal:      "12345",
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().AccountRepo.CreateAccount(s.GetContext(), acct))
	return acct
}

func (s *SettlementServiceSuite) seedCard(accountID string, primary bool) *card.BillingCard {
	token := "tok_" + accountID
	c := &card.BillingCard{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_CARD),
		AccountID:      accountID,
		BIN:            "411111",
		Last4:          "1111",
		ExpiryMonth:    "12",
		ExpiryYear:     "29",
		Cardholder:     "T Tester",
		Address1:       "1 Test Street",
		City:           "Testville",
		Region:         "TS",
		Country:        "US",
		Postal:         "12345",
		IPAddress:      "203.0.113.10",
		UserAgent:      "test-agent",
		ProcessorToken: &token,
		FraudVerified:  true,
		Primary:        primary,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CardRepo.Create(s.GetContext(), c))
	return c
}

func (s *SettlementServiceSuite) seedInvoice(accountID string, total types.Millicents) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		AccountID:     accountID,
		InvoiceNumber: types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE),
		TotalCost:     total,
		NetCost:       total,
		RemainingCost: total,
		State:         types.InvoiceStatePending,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), inv))
	return inv
}

func (s *SettlementServiceSuite) seedCreditNote(accountID string, balance types.Millicents) *creditnote.CreditNote {
	note := &creditnote.CreditNote{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_NOTE),
		AccountID:     accountID,
		CreditNumber:  types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_CREDIT_NOTE),
		RemainingCost: balance,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CreditNoteRepo.Create(s.GetContext(), note))
	return note
}

func (s *SettlementServiceSuite) TestCreditNotesCoverEverything() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 100_000)
	note := s.seedCreditNote(acct.ID, 150_000)

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	got, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatePaid, got.State)
	s.Equal(types.Millicents(0), got.RemainingCost)

	gotNote, err := s.GetStores().CreditNoteRepo.Get(s.GetContext(), note.ID)
	s.NoError(err)
	s.Equal(types.Millicents(50_000), gotNote.RemainingCost)

	// No card involvement at all
	s.Empty(s.GetGateway().Calls())

	sum, err := s.GetStores().ChargeRepo.SumForInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.Millicents(100_000), sum)
}

func (s *SettlementServiceSuite) TestCreditNotesConsumedOldestFirstAcrossInvoices() {
	acct := s.seedAccount("acct_1")
	inv1 := s.seedInvoice(acct.ID, 5_000)
	inv2 := s.seedInvoice(acct.ID, 8_000)
	s.seedCreditNote(acct.ID, 5_000)
	s.seedCreditNote(acct.ID, 3_000)
	s.seedCreditNote(acct.ID, 8_000)

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	got1, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv1.ID)
	got2, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv2.ID)
	s.Equal(types.InvoiceStatePaid, got1.State)
	s.Equal(types.InvoiceStatePaid, got2.State)

	notes, err := s.GetStores().CreditNoteRepo.ListByAccount(s.GetContext(), acct.ID)
	s.NoError(err)
	var remaining types.Millicents
	for _, n := range notes {
		remaining += n.RemainingCost
	}
	s.Equal(types.Millicents(3_000), remaining)
}

func (s *SettlementServiceSuite) TestPartialCreditLeavesInvoicePartiallyPaid() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 100_000) // $1.00
	note := s.seedCreditNote(acct.ID, 70_000)

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	// The credit covered $0.70; the 30 cent residual is below the
	// 50 cent threshold, so no card charge follows
	got, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatePartiallyPaid, got.State)
	s.Equal(types.Millicents(30_000), got.RemainingCost)

	gotNote, err := s.GetStores().CreditNoteRepo.Get(s.GetContext(), note.ID)
	s.NoError(err)
	s.Equal(types.Millicents(0), gotNote.RemainingCost)

	s.Empty(s.GetGateway().Calls())

	sum, err := s.GetStores().ChargeRepo.SumForInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.Millicents(70_000), sum)
}

func (s *SettlementServiceSuite) TestResidualBelowThresholdStaysOutstanding() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 40_000) // 40 cents, threshold is 50

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePending, got.State)
	s.Equal(types.Millicents(40_000), got.RemainingCost)
	s.Empty(s.GetGateway().Calls())
}

func (s *SettlementServiceSuite) TestThresholdAppliesToBatchTotal() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv1 := s.seedInvoice(acct.ID, 30_000)
	inv2 := s.seedInvoice(acct.ID, 30_000) // 60 cents together

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	auths := s.GetGateway().CallsOf("authorize")
	s.Require().Len(auths, 1)
	s.Equal(types.Cents(60), auths[0].Amount)

	got1, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv1.ID)
	got2, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv2.ID)
	s.Equal(types.InvoiceStatePaid, got1.State)
	s.Equal(types.InvoiceStatePaid, got2.State)
}

func (s *SettlementServiceSuite) TestSuccessfulCardSettlement() {
	acct := s.seedAccount("acct_1")
	c := s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 250_000) // $2.50
	s.seedCreditNote(acct.ID, 50_000)      // $0.50 credit

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	auths := s.GetGateway().CallsOf("authorize")
	s.Require().Len(auths, 1)
	s.Equal(types.Cents(200), auths[0].Amount)
	s.Equal(acct.GatewayID, auths[0].MerchantID)
	s.Equal(*c.ProcessorToken, auths[0].CardToken)
	s.Len(s.GetGateway().CallsOf("capture"), 1)

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePaid, got.State)
	s.Equal(types.Millicents(0), got.RemainingCost)

	// Ledger sum equals invoice total, split across both sources
	sum, err := s.GetStores().ChargeRepo.SumForInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(inv.TotalCost, sum)

	charges, err := s.GetStores().ChargeRepo.ListByInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Require().Len(charges, 2)
	bySource := map[types.ChargeSourceType]types.Millicents{}
	for _, entry := range charges {
		bySource[entry.SourceType] = entry.Amount
		if entry.SourceType == types.ChargeSourceBillingCard {
			s.Require().NotNil(entry.Reference)
			s.Equal(auths[0].ChargeID, *entry.Reference)
		}
	}
	s.Equal(types.Millicents(50_000), bySource[types.ChargeSourceCreditNote])
	s.Equal(types.Millicents(200_000), bySource[types.ChargeSourceBillingCard])

	open, err := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.NoError(err)
	s.Empty(open)
}

func (s *SettlementServiceSuite) TestAuthorizeFailureLeavesInvoicesOutstanding() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 100_000)
	s.GetGateway().AuthorizeErr = gateway.NewError("card_declined", "Your card was declined.", nil)

	// A decline is an expected outcome, not a settlement failure
	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePending, got.State)
	s.Equal(types.Millicents(100_000), got.RemainingCost)

	// Nothing was authorized, so nothing must be recorded as such
	open, err := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.NoError(err)
	s.Empty(open)

	activities, err := s.GetStores().ActivityRepo.ListByAccount(s.GetContext(), acct.ID)
	s.NoError(err)
	s.Require().Len(activities, 1)
	s.Equal(types.ActivityAuthChargeFailed, activities[0].Kind)
}

func (s *SettlementServiceSuite) TestCaptureDeclineMarksAuthorizationFailed() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 100_000)
	s.GetGateway().CaptureErr = gateway.NewError("processing_error", "Capture failed.", nil)

	err := s.service.SettleInvoices(s.GetContext(), acct.ID)
	s.Error(err)

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePending, got.State)

	charges, _ := s.GetStores().ChargeRepo.ListByInvoice(s.GetContext(), inv.ID)
	s.Empty(charges)

	// The authorization is recorded with the failure, not left open
	open, _ := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.Empty(open)

	auth := s.getOnlyAuthorization(acct.ID)
	s.Equal(types.AuthorizationStatusCaptureFailed, auth.AuthStatus)
	s.Require().NotNil(auth.ErrorMessage)
}

func (s *SettlementServiceSuite) TestCaptureTimeoutLeavesAuthorizationOpen() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	s.seedInvoice(acct.ID, 100_000)
	s.GetGateway().FailCaptureOnce = errors.New("dial tcp: i/o timeout")

	err := s.service.SettleInvoices(s.GetContext(), acct.ID)
	s.Error(err)

	open, err := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.NoError(err)
	s.Require().Len(open, 1)
	s.Equal(types.AuthorizationStatusAuthorized, open[0].AuthStatus)
}

func (s *SettlementServiceSuite) TestReconcileCapturesOpenAuthorization() {
	acct := s.seedAccount("acct_1")
	s.seedCard(acct.ID, true)
	inv := s.seedInvoice(acct.ID, 100_000)
	s.GetGateway().FailCaptureOnce = errors.New("dial tcp: i/o timeout")

	s.Error(s.service.SettleInvoices(s.GetContext(), acct.ID))

	// The sweep retries capture and completes the settlement
	s.NoError(s.service.ReconcileOpenAuthorizations(s.GetContext()))

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePaid, got.State)
	s.Equal(types.Millicents(0), got.RemainingCost)

	open, _ := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.Empty(open)

	auth := s.getOnlyAuthorization(acct.ID)
	s.Equal(types.AuthorizationStatusCaptured, auth.AuthStatus)
	s.NotNil(auth.CapturedAt)
}

func (s *SettlementServiceSuite) TestNoPrimaryCardLeavesInvoicesOutstanding() {
	acct := s.seedAccount("acct_1")
	inv := s.seedInvoice(acct.ID, 100_000)

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))

	got, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv.ID)
	s.Equal(types.InvoiceStatePending, got.State)
	s.Empty(s.GetGateway().Calls())
}

func (s *SettlementServiceSuite) TestUnprocessableCardLeavesInvoicesOutstanding() {
	acct := s.seedAccount("acct_1")
	c := s.seedCard(acct.ID, true)
	c.ProcessorToken = nil
	s.Require().NoError(s.GetStores().CardRepo.Update(s.GetContext(), c))
	s.seedInvoice(acct.ID, 100_000)

	s.NoError(s.service.SettleInvoices(s.GetContext(), acct.ID))
	s.Empty(s.GetGateway().Calls())
}

func (s *SettlementServiceSuite) TestSettleDueAccountsSettlesEachAccount() {
	acct1 := s.seedAccount("acct_1")
	acct2 := s.seedAccount("acct_2")
	s.seedCard(acct1.ID, true)
	s.seedCard(acct2.ID, true)
	inv1 := s.seedInvoice(acct1.ID, 100_000)
	inv2 := s.seedInvoice(acct2.ID, 200_000)

	s.NoError(s.service.SettleDueAccounts(s.GetContext(), []string{acct1.ID, acct2.ID}))

	got1, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv1.ID)
	got2, _ := s.GetStores().InvoiceRepo.Get(s.GetContext(), inv2.ID)
	s.Equal(types.InvoiceStatePaid, got1.State)
	s.Equal(types.InvoiceStatePaid, got2.State)
	s.Len(s.GetGateway().CallsOf("authorize"), 2)
}

func (s *SettlementServiceSuite) getOnlyAuthorization(accountID string) *charge.Authorization {
	s.T().Helper()
	all, err := s.GetStores().AuthorizationRepo.List(s.GetContext(), nil, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(accountID, all[0].AccountID)
	return all[0]
}

package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/testutil"
	"github.com/cloudnet/billing/internal/types"
)

type TopUpServiceSuite struct {
	testutil.BaseServiceTestSuite
	service    TopUpService
	settlement SettlementService
}

func TestTopUpService(t *testing.T) {
	suite.Run(t, new(TopUpServiceSuite))
}

func (s *TopUpServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	params := ServiceParams{
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
	s.service = NewTopUpService(params)
	s.settlement = NewSettlementService(params)
}

func (s *TopUpServiceSuite) seedAccount(id string) *account.Account {
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

func (s *TopUpServiceSuite) seedPrimaryCard(accountID string) *card.BillingCard {
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
		Primary:        true,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().CardRepo.Create(s.GetContext(), c))
	return c
}

func (s *TopUpServiceSuite) TestCardTopUpSuccess() {
	acct := s.seedAccount("acct_1")
	s.seedPrimaryCard(acct.ID)

	rec, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 20)
	s.NoError(err)
	s.Require().NotNil(rec)
	s.Equal(types.Millicents(2_000_000), rec.Value)
	s.Equal(types.FundingMethodBillingCard, rec.FundingMethod)
	s.NotEmpty(rec.Reference)

	got, err := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.NoError(err)
	s.Equal(types.Millicents(2_000_000), got.PaygBalance)

	auths := s.GetGateway().CallsOf("authorize")
	s.Require().Len(auths, 1)
	s.Equal(types.Cents(2_000), auths[0].Amount)

	// The card authorization ends captured, not open
	open, err := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.NoError(err)
	s.Empty(open)
}

func (s *TopUpServiceSuite) TestCardTopUpRejectsUnknownDenomination() {
	acct := s.seedAccount("acct_1")
	s.seedPrimaryCard(acct.ID)

	_, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 37)
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetGateway().Calls())
}

func (s *TopUpServiceSuite) TestCardTopUpWithoutPrimaryCard() {
	acct := s.seedAccount("acct_1")

	_, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 10)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *TopUpServiceSuite) TestCardTopUpGatewayDecline() {
	acct := s.seedAccount("acct_1")
	s.seedPrimaryCard(acct.ID)
	s.GetGateway().AuthorizeErr = gateway.NewError("card_declined", "Your card was declined.", nil)

	_, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 10)
	s.Error(err)
	s.True(ierr.IsGateway(err))

	got, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(0), got.PaygBalance)

	activities, _ := s.GetStores().ActivityRepo.ListByAccount(s.GetContext(), acct.ID)
	s.Require().Len(activities, 1)
	s.Equal(types.ActivityAuthChargeFailed, activities[0].Kind)
}

func (s *TopUpServiceSuite) TestCardTopUpCaptureDeclineMarksAuthorizationFailed() {
	acct := s.seedAccount("acct_1")
	s.seedPrimaryCard(acct.ID)
	s.GetGateway().CaptureErr = gateway.NewError("processing_error", "Capture failed.", nil)

	_, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 10)
	s.Error(err)
	s.True(ierr.IsGateway(err))

	got, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(0), got.PaygBalance)

	// The decline is terminal: the authorization is recorded with the
	// failure, not left for the reconciliation sweep
	open, _ := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.Empty(open)

	all, err := s.GetStores().AuthorizationRepo.List(s.GetContext(), nil, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(types.AuthorizationStatusCaptureFailed, all[0].AuthStatus)
	s.Require().NotNil(all[0].ErrorMessage)
}

func (s *TopUpServiceSuite) TestReconcileCompletesInterruptedTopUp() {
	acct := s.seedAccount("acct_1")
	s.seedPrimaryCard(acct.ID)
	s.GetGateway().FailCaptureOnce = errors.New("dial tcp: i/o timeout")

	_, err := s.service.TopUpWithCard(s.GetContext(), acct.ID, 20)
	s.Error(err)

	// Nothing credited yet; the authorization stays open
	got, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(0), got.PaygBalance)
	receipts, _ := s.GetStores().ReceiptRepo.ListByAccount(s.GetContext(), acct.ID)
	s.Empty(receipts)

	open, err := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.NoError(err)
	s.Require().Len(open, 1)
	s.Equal(types.AuthorizationPurposeTopUp, open[0].Purpose)

	// The sweep retries the capture and credits the balance through the
	// same receipt transaction a live top-up uses
	s.NoError(s.settlement.ReconcileOpenAuthorizations(s.GetContext()))

	got, _ = s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(2_000_000), got.PaygBalance)

	receipts, err = s.GetStores().ReceiptRepo.ListByAccount(s.GetContext(), acct.ID)
	s.NoError(err)
	s.Require().Len(receipts, 1)
	s.Equal(open[0].GatewayChargeID, receipts[0].Reference)
	s.Equal(types.FundingMethodBillingCard, receipts[0].FundingMethod)
	s.Equal(types.Millicents(2_000_000), receipts[0].Value)

	stillOpen, _ := s.GetStores().AuthorizationRepo.ListOpen(s.GetContext())
	s.Empty(stillOpen)

	// A second sweep finds nothing open and credits nothing more
	s.NoError(s.settlement.ReconcileOpenAuthorizations(s.GetContext()))
	got, _ = s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(2_000_000), got.PaygBalance)
	receipts, _ = s.GetStores().ReceiptRepo.ListByAccount(s.GetContext(), acct.ID)
	s.Len(receipts, 1)
}

func (s *TopUpServiceSuite) TestWalletReturnCreditsBalance() {
	acct := s.seedAccount("acct_1")
	s.GetWallet().RegisterPayment("EC-123", decimal.RequireFromString("25.00"), "payer_9")

	rec, err := s.service.HandleWalletReturn(s.GetContext(), acct.ID, "EC-123")
	s.NoError(err)
	s.Require().NotNil(rec)
	s.Equal(types.Millicents(2_500_000), rec.Value)
	s.Equal(types.FundingMethodPayPal, rec.FundingMethod)

	got, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(2_500_000), got.PaygBalance)
}

func (s *TopUpServiceSuite) TestWalletReturnReplayedCallbackCreditsOnce() {
	acct := s.seedAccount("acct_1")
	s.GetWallet().RegisterPayment("EC-123", decimal.RequireFromString("25.00"), "payer_9")

	first, err := s.service.HandleWalletReturn(s.GetContext(), acct.ID, "EC-123")
	s.NoError(err)
	second, err := s.service.HandleWalletReturn(s.GetContext(), acct.ID, "EC-123")
	s.NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(first.Reference, second.Reference)

	got, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct.ID)
	s.Equal(types.Millicents(2_500_000), got.PaygBalance)

	receipts, err := s.GetStores().ReceiptRepo.ListByAccount(s.GetContext(), acct.ID)
	s.NoError(err)
	s.Len(receipts, 1)
}

func (s *TopUpServiceSuite) TestWalletReturnReplayedForDifferentAccountRefused() {
	acct1 := s.seedAccount("acct_1")
	acct2 := s.seedAccount("acct_2")
	s.GetWallet().RegisterPayment("EC-123", decimal.RequireFromString("25.00"), "payer_9")

	_, err := s.service.HandleWalletReturn(s.GetContext(), acct1.ID, "EC-123")
	s.NoError(err)

	// The same transaction replayed against another account must not
	// hand back the first account's receipt
	_, err = s.service.HandleWalletReturn(s.GetContext(), acct2.ID, "EC-123")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	got2, _ := s.GetStores().AccountRepo.Get(s.GetContext(), acct2.ID)
	s.Equal(types.Millicents(0), got2.PaygBalance)

	receipts, _ := s.GetStores().ReceiptRepo.ListByAccount(s.GetContext(), acct1.ID)
	s.Len(receipts, 1)
}

func (s *TopUpServiceSuite) TestWalletReturnZeroAmountRejected() {
	acct := s.seedAccount("acct_1")
	s.GetWallet().RegisterPayment("EC-123", decimal.Zero, "payer_9")

	_, err := s.service.HandleWalletReturn(s.GetContext(), acct.ID, "EC-123")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

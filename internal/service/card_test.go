package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/card"
	ierr "github.com/cloudnet/billing/internal/errors"
	"github.com/cloudnet/billing/internal/testutil"
	"github.com/cloudnet/billing/internal/types"
)

type CardServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CardService
}

func TestCardService(t *testing.T) {
	suite.Run(t, new(CardServiceSuite))
}

func (s *CardServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewCardService(ServiceParams{
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
	})
}

func (s *CardServiceSuite) seedAccount(id string, exempt bool) *account.Account {
	acct := &account.Account{
		ID:            id,
		GatewayID:     "cus_" + id,
		MaxmindExempt: exempt,
		CompanyName:   "Test Hosting Ltd",
		Address1:      "1 Test Street",
		City:          "Testville",
		Country:       "US",
		Postal:        "12345",
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().AccountRepo.CreateAccount(s.GetContext(), acct))
	return acct
}

func (s *CardServiceSuite) newCard(accountID string) *card.BillingCard {
	return &card.BillingCard{
		AccountID:   accountID,
		BIN:         "411111",
		Last4:       "1111",
		ExpiryMonth: "12",
		ExpiryYear:  "29",
		Cardholder:  "T Tester",
		Address1:    "1 Test Street",
		City:        "Testville",
		Region:      "TS",
		Country:     "US",
		Postal:      "12345",
		IPAddress:   "203.0.113.10",
		UserAgent:   "test-agent",
	}
}

func (s *CardServiceSuite) TestAddCardScoresAndBecomesPrimary() {
	acct := s.seedAccount("acct_1", false)
	s.GetRisk().Score = 5
	s.GetRisk().Verified = true

	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	s.Require().NotNil(added)
	s.True(added.Primary)
	s.True(added.FraudVerified)
	s.Require().NotNil(added.FraudScore)
	s.Equal(5.0, *added.FraudScore)
	s.Equal(types.FraudAssessmentSafe, added.FraudAssessment(false))
}

func (s *CardServiceSuite) TestAddCardRejectedByRiskScreening() {
	acct := s.seedAccount("acct_1", false)
	s.GetRisk().Score = 85

	_, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))

	cards, _ := s.GetStores().CardRepo.ListByAccount(s.GetContext(), acct.ID)
	s.Empty(cards)
}

func (s *CardServiceSuite) TestAddCardExemptAccountSkipsScoring() {
	acct := s.seedAccount("acct_1", true)
	s.GetRisk().Err = errors.New("scoring must not be called")
	s.GetRisk().Score = 99

	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	s.True(added.FraudVerified)
	s.Nil(added.FraudScore)
	s.Equal(types.FraudAssessmentSafe, added.FraudAssessment(true))
}

func (s *CardServiceSuite) TestAddCardScoringFailureLeavesUnassessed() {
	acct := s.seedAccount("acct_1", false)
	s.GetRisk().Err = errors.New("minfraud unavailable")

	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	s.False(added.FraudVerified)
	s.Equal(types.FraudAssessmentUnassessed, added.FraudAssessment(false))
	s.False(added.Processable())
}

func (s *CardServiceSuite) TestAddCardValidation() {
	acct := s.seedAccount("acct_1", false)
	c := s.newCard(acct.ID)
	c.BIN = "41"

	_, err := s.service.AddCard(s.GetContext(), c)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CardServiceSuite) TestSecondCardIsNotPrimary() {
	acct := s.seedAccount("acct_1", false)

	first, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	second, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)

	s.True(first.Primary)
	s.False(second.Primary)
}

func (s *CardServiceSuite) TestAssociateToken() {
	acct := s.seedAccount("acct_1", false)
	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	s.False(added.Processable())

	s.NoError(s.service.AssociateToken(s.GetContext(), added.ID, "tok_123"))

	got, err := s.GetStores().CardRepo.Get(s.GetContext(), added.ID)
	s.NoError(err)
	s.Require().NotNil(got.ProcessorToken)
	s.Equal("tok_123", *got.ProcessorToken)
	s.True(got.Processable())

	// Re-associating the same token is idempotent, a different one is not
	s.NoError(s.service.AssociateToken(s.GetContext(), added.ID, "tok_123"))
	err = s.service.AssociateToken(s.GetContext(), added.ID, "tok_456")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CardServiceSuite) TestSetPrimarySwapsAtomically() {
	acct := s.seedAccount("acct_1", false)
	first, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)
	second, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)

	s.NoError(s.service.SetPrimary(s.GetContext(), acct.ID, second.ID))

	primary, err := s.GetStores().CardRepo.GetPrimary(s.GetContext(), acct.ID)
	s.NoError(err)
	s.Equal(second.ID, primary.ID)

	gotFirst, _ := s.GetStores().CardRepo.Get(s.GetContext(), first.ID)
	s.False(gotFirst.Primary)
}

func (s *CardServiceSuite) TestSetPrimaryWrongAccount() {
	acct1 := s.seedAccount("acct_1", false)
	acct2 := s.seedAccount("acct_2", false)
	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct1.ID))
	s.NoError(err)

	err = s.service.SetPrimary(s.GetContext(), acct2.ID, added.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *CardServiceSuite) TestRemoveCard() {
	acct := s.seedAccount("acct_1", false)
	added, err := s.service.AddCard(s.GetContext(), s.newCard(acct.ID))
	s.NoError(err)

	s.NoError(s.service.RemoveCard(s.GetContext(), added.ID))

	_, err = s.GetStores().CardRepo.Get(s.GetContext(), added.ID)
	s.True(ierr.IsNotFound(err))
	_, err = s.GetStores().CardRepo.GetPrimary(s.GetContext(), acct.ID)
	s.True(ierr.IsNotFound(err))
}

package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/cloudnet/billing/internal/config"
	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/activity"
	"github.com/cloudnet/billing/internal/domain/card"
	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/creditnote"
	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/domain/receipt"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/sentry"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	AccountRepo       *InMemoryAccountStore
	InvoiceRepo       *InMemoryInvoiceStore
	CreditNoteRepo    *InMemoryCreditNoteStore
	CardRepo          *InMemoryCardStore
	ChargeRepo        *InMemoryChargeStore
	AuthorizationRepo *InMemoryAuthorizationStore
	ReceiptRepo       *InMemoryReceiptStore
	ActivityRepo      *InMemoryActivityStore
}

// Interface conformance for the store set
var (
	_ account.Repository             = (*InMemoryAccountStore)(nil)
	_ invoice.Repository             = (*InMemoryInvoiceStore)(nil)
	_ creditnote.Repository          = (*InMemoryCreditNoteStore)(nil)
	_ card.Repository                = (*InMemoryCardStore)(nil)
	_ charge.Repository              = (*InMemoryChargeStore)(nil)
	_ charge.AuthorizationRepository = (*InMemoryAuthorizationStore)(nil)
	_ receipt.Repository             = (*InMemoryReceiptStore)(nil)
	_ activity.Repository            = (*InMemoryActivityStore)(nil)
)

// BaseServiceTestSuite provides common functionality for all service
// test suites: fresh stores and fakes per test, a mock transaction
// manager and a tenant-scoped context.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	gateway *FakeGateway
	wallet  *FakeWallet
	risk    *FakeRisk
	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	sentry  *sentry.Service
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.sentry = sentry.NewSentryService(cfg, s.logger)
	s.db = NewMockPostgresClient(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		AccountRepo:       NewInMemoryAccountStore(),
		InvoiceRepo:       NewInMemoryInvoiceStore(),
		CreditNoteRepo:    NewInMemoryCreditNoteStore(),
		CardRepo:          NewInMemoryCardStore(),
		ChargeRepo:        NewInMemoryChargeStore(),
		AuthorizationRepo: NewInMemoryAuthorizationStore(),
		ReceiptRepo:       NewInMemoryReceiptStore(),
		ActivityRepo:      NewInMemoryActivityStore(),
	}
	s.gateway = NewFakeGateway()
	s.wallet = NewFakeWallet()
	s.risk = NewFakeRisk()
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetWallet() *FakeWallet {
	return s.wallet
}

func (s *BaseServiceTestSuite) GetRisk() *FakeRisk {
	return s.risk
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

package service

import (
	"github.com/cloudnet/billing/internal/config"
	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/activity"
	"github.com/cloudnet/billing/internal/domain/card"
	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/creditnote"
	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/domain/receipt"
	"github.com/cloudnet/billing/internal/gateway"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/risk"
	"github.com/cloudnet/billing/internal/sentry"
	"github.com/cloudnet/billing/internal/wallet"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Sentry *sentry.Service

	// Repositories
	AccountRepo       account.Repository
	InvoiceRepo       invoice.Repository
	CreditNoteRepo    creditnote.Repository
	CardRepo          card.Repository
	ChargeRepo        charge.Repository
	AuthorizationRepo charge.AuthorizationRepository
	ReceiptRepo       receipt.Repository
	ActivityRepo      activity.Repository

	// External integrations
	Gateway gateway.Client
	Wallet  wallet.Provider
	Risk    risk.Service
}

// NewServiceParams bundles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	sentryService *sentry.Service,
	accountRepo account.Repository,
	invoiceRepo invoice.Repository,
	creditNoteRepo creditnote.Repository,
	cardRepo card.Repository,
	chargeRepo charge.Repository,
	authorizationRepo charge.AuthorizationRepository,
	receiptRepo receipt.Repository,
	activityRepo activity.Repository,
	gatewayClient gateway.Client,
	walletProvider wallet.Provider,
	riskService risk.Service,
) ServiceParams {
	return ServiceParams{
		Logger:            logger,
		Config:            config,
		DB:                db,
		Sentry:            sentryService,
		AccountRepo:       accountRepo,
		InvoiceRepo:       invoiceRepo,
		CreditNoteRepo:    creditNoteRepo,
		CardRepo:          cardRepo,
		ChargeRepo:        chargeRepo,
		AuthorizationRepo: authorizationRepo,
		ReceiptRepo:       receiptRepo,
		ActivityRepo:      activityRepo,
		Gateway:           gatewayClient,
		Wallet:            walletProvider,
		Risk:              riskService,
	}
}

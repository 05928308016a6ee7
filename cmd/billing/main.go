package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/cloudnet/billing/internal/config"
	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/gateway"
	stripeGateway "github.com/cloudnet/billing/internal/gateway/stripe"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	"github.com/cloudnet/billing/internal/repository"
	"github.com/cloudnet/billing/internal/risk"
	"github.com/cloudnet/billing/internal/risk/maxmind"
	"github.com/cloudnet/billing/internal/sentry"
	"github.com/cloudnet/billing/internal/service"
	"github.com/cloudnet/billing/internal/types"
	"github.com/cloudnet/billing/internal/wallet"
	"github.com/cloudnet/billing/internal/wallet/paypal"
)

// settlementInterval is how often the billing job sweeps open
// authorizations and settles accounts with due invoices.
const settlementInterval = time.Hour

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Local development reads credentials from .env; missing files are
	// fine in deployed environments.
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
		),
		sentry.Module(),
		postgres.Module(),
		fx.Provide(
			// Repositories
			repository.NewAccountRepository,
			repository.NewInvoiceRepository,
			repository.NewCreditNoteRepository,
			repository.NewCardRepository,
			repository.NewChargeRepository,
			repository.NewAuthorizationRepository,
			repository.NewReceiptRepository,
			repository.NewActivityRepository,

			// External integrations
			provideGateway,
			provideWallet,
			provideRisk,

			// Services
			service.NewServiceParams,
			service.NewSettlementService,
			service.NewTopUpService,
			service.NewCardService,
			service.NewBillingService,
		),
		fx.Invoke(startSettlementJob),
	)

	app.Run()
}

func provideGateway(cfg *config.Configuration, log *logger.Logger) gateway.Client {
	return stripeGateway.NewClient(cfg, log)
}

func provideWallet(cfg *config.Configuration, log *logger.Logger) wallet.Provider {
	return paypal.NewClient(cfg, log)
}

func provideRisk(cfg *config.Configuration, log *logger.Logger) risk.Service {
	return maxmind.NewClient(cfg, log)
}

// startSettlementJob runs the periodic settlement loop for the
// lifetime of the application.
func startSettlementJob(
	lc fx.Lifecycle,
	settlement service.SettlementService,
	invoiceRepo invoice.Repository,
	log *logger.Logger,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go runSettlementLoop(ctx, settlement, invoiceRepo, log, done)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func runSettlementLoop(
	ctx context.Context,
	settlement service.SettlementService,
	invoiceRepo invoice.Repository,
	log *logger.Logger,
	done chan<- struct{},
) {
	defer close(done)

	jobCtx := types.SetTenantID(ctx, types.DefaultTenantID)

	ticker := time.NewTicker(settlementInterval)
	defer ticker.Stop()

	// One pass at startup so a restart does not wait a full interval,
	// with the reconciliation sweep first so interrupted captures are
	// resolved before new charges go out.
	runSettlementPass(jobCtx, settlement, invoiceRepo, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runSettlementPass(jobCtx, settlement, invoiceRepo, log)
		}
	}
}

func runSettlementPass(
	ctx context.Context,
	settlement service.SettlementService,
	invoiceRepo invoice.Repository,
	log *logger.Logger,
) {
	if err := settlement.ReconcileOpenAuthorizations(ctx); err != nil {
		log.Errorw("reconciliation sweep failed", "error", err)
	}

	accountIDs, err := invoiceRepo.ListAccountIDsDue(ctx)
	if err != nil {
		log.Errorw("failed to list accounts with due invoices", "error", err)
		return
	}
	if len(accountIDs) == 0 {
		return
	}

	log.Infow("starting settlement pass", "accounts", len(accountIDs))
	if err := settlement.SettleDueAccounts(ctx, accountIDs); err != nil {
		log.Errorw("settlement pass finished with errors", "error", err)
		return
	}
	log.Infow("settlement pass complete", "accounts", len(accountIDs))
}

package repository

import (
	"github.com/cloudnet/billing/internal/domain/account"
	"github.com/cloudnet/billing/internal/domain/activity"
	"github.com/cloudnet/billing/internal/domain/card"
	"github.com/cloudnet/billing/internal/domain/charge"
	"github.com/cloudnet/billing/internal/domain/creditnote"
	"github.com/cloudnet/billing/internal/domain/invoice"
	"github.com/cloudnet/billing/internal/domain/receipt"
	"github.com/cloudnet/billing/internal/logger"
	"github.com/cloudnet/billing/internal/postgres"
	postgresRepo "github.com/cloudnet/billing/internal/repository/postgres"
)

func NewAccountRepository(db postgres.IClient, logger *logger.Logger) account.Repository {
	return postgresRepo.NewAccountRepository(db, logger)
}

func NewInvoiceRepository(db postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(db, logger)
}

func NewCreditNoteRepository(db postgres.IClient, logger *logger.Logger) creditnote.Repository {
	return postgresRepo.NewCreditNoteRepository(db, logger)
}

func NewCardRepository(db postgres.IClient, logger *logger.Logger) card.Repository {
	return postgresRepo.NewCardRepository(db, logger)
}

func NewChargeRepository(db postgres.IClient, logger *logger.Logger) charge.Repository {
	return postgresRepo.NewChargeRepository(db, logger)
}

func NewAuthorizationRepository(db postgres.IClient, logger *logger.Logger) charge.AuthorizationRepository {
	return postgresRepo.NewAuthorizationRepository(db, logger)
}

func NewReceiptRepository(db postgres.IClient, logger *logger.Logger) receipt.Repository {
	return postgresRepo.NewReceiptRepository(db, logger)
}

func NewActivityRepository(db postgres.IClient, logger *logger.Logger) activity.Repository {
	return postgresRepo.NewActivityRepository(db, logger)
}

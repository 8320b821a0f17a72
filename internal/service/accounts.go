package service

import (
	"context"

	"github.com/financeiro-leve/ledger-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts
// ============================================================

func validateAccount(acc domain.Account) error {
	if acc.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	switch acc.Type {
	case domain.AccountBank, domain.AccountWallet, domain.AccountCash:
	default:
		return &domain.ErrValidation{Field: "type", Message: "must be BANK, WALLET or CASH"}
	}
	return nil
}

// ListAccounts returns every account with derived balances.
func (s *FinanceService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	_, span := finTracer.Start(ctx, "FinanceService.ListAccounts")
	defer span.End()

	return s.store.Snapshot().Accounts, nil
}

// CreateAccount validates and creates an account, then persists.
func (s *FinanceService) CreateAccount(ctx context.Context, acc domain.Account) (*domain.Account, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateAccount")
	defer span.End()

	if err := validateAccount(acc); err != nil {
		return nil, err
	}

	created, snap := s.store.AddAccount(acc)
	if err := s.persist(ctx, snap); err != nil {
		return nil, err
	}

	s.metrics.IncrMutation("account", "create")
	s.logger.Info("account created",
		zap.String("account_id", created.ID),
		zap.String("type", string(created.Type)),
	)
	return &created, nil
}

// UpdateAccount replaces an account and persists. The balance is
// re-derived, so any client-supplied CurrentBalance is ignored.
func (s *FinanceService) UpdateAccount(ctx context.Context, acc domain.Account) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", acc.ID))

	if err := validateAccount(acc); err != nil {
		return err
	}

	snap, err := s.store.UpdateAccount(acc)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("account", "update")
	return nil
}

// DeleteAccount removes an account and every transaction funded by it.
func (s *FinanceService) DeleteAccount(ctx context.Context, id string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	snap, err := s.store.DeleteAccount(id)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("account", "delete")
	s.logger.Info("account deleted", zap.String("account_id", id))
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/ledger"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

func validateTransaction(tx domain.Transaction) error {
	if tx.Description == "" {
		return &domain.ErrValidation{Field: "description", Message: "required"}
	}
	if !tx.Amount.IsPositive() {
		return &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	switch tx.Type {
	case domain.Income, domain.Expense:
	default:
		return &domain.ErrValidation{Field: "type", Message: "must be INCOME or EXPENSE"}
	}
	switch tx.Funding.Kind {
	case domain.FundedByAccount, domain.FundedByCard:
	default:
		return &domain.ErrValidation{Field: "accountId|cardId", Message: "transaction must reference an account or a card"}
	}
	if tx.Funding.ID == "" {
		return &domain.ErrValidation{Field: "accountId|cardId", Message: "funding reference is empty"}
	}
	if tx.Date.IsZero() {
		return &domain.ErrValidation{Field: "date", Message: "required"}
	}
	return nil
}

// ListTransactions returns every transaction in the ledger.
func (s *FinanceService) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	_, span := finTracer.Start(ctx, "FinanceService.ListTransactions")
	defer span.End()

	return s.store.Snapshot().Transactions, nil
}

// CreateTransaction validates the template, expands it into installment
// records when requested, absorbs the whole batch atomically and
// persists. Returns the created records.
func (s *FinanceService) CreateTransaction(ctx context.Context, template domain.Transaction, installments int) ([]domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.Int("transaction.installments", installments))

	if err := validateTransaction(template); err != nil {
		return nil, err
	}
	if template.Status == "" {
		template.Status = domain.StatusOpen
	}

	batch, err := ledger.ExpandInstallments(template, installments)
	if err != nil {
		return nil, err
	}

	snap := s.store.AddTransactions(batch)
	if err := s.persist(ctx, snap); err != nil {
		return nil, err
	}

	s.metrics.IncrMutation("transaction", "create")
	s.logger.Info("transactions created",
		zap.Int("records", len(batch)),
		zap.String("type", string(template.Type)),
	)
	return batch, nil
}

// UpdateTransaction replaces one record and persists. Editing one
// installment record never touches its siblings.
func (s *FinanceService) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", tx.ID))

	if err := validateTransaction(tx); err != nil {
		return err
	}

	snap, err := s.store.UpdateTransaction(tx)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("transaction", "update")
	return nil
}

// DeleteTransaction removes one record and persists.
func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	snap, err := s.store.DeleteTransaction(id)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("transaction", "delete")
	return nil
}

// ToggleTransactionStatus flips a record between PAID and OPEN and
// persists. Returns the record in its new state.
func (s *FinanceService) ToggleTransactionStatus(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ToggleTransactionStatus")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	toggled, snap, err := s.store.ToggleTransactionStatus(id)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, snap); err != nil {
		return nil, err
	}

	s.metrics.IncrMutation("transaction", "toggle")
	s.logger.Info("transaction status toggled",
		zap.String("transaction_id", id),
		zap.String("status", string(toggled.Status)),
	)
	return &toggled, nil
}

// MonthView is the gated month-scoped read: accounts with derived
// balances plus the transactions dated inside the target month.
type MonthView struct {
	Month        string               `json:"month"`
	Accounts     []domain.Account     `json:"accounts"`
	Transactions []domain.Transaction `json:"transactions"`
}

// GetMonthView returns the ledger filtered to the calendar month
// containing target. Free users are held to the entitlement window.
func (s *FinanceService) GetMonthView(ctx context.Context, target time.Time) (*MonthView, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.GetMonthView")
	defer span.End()
	span.SetAttributes(attribute.String("month", target.Format("2006-01")))

	isPro, err := s.isPro(ctx)
	if err != nil {
		return nil, err
	}

	if d := s.gate.CanAccessMonth(isPro, target); !d.Allowed {
		s.metrics.IncrGateDenial(string(d.Reason))
		return nil, &domain.ErrHistoryLocked{Month: target.Format("2006-01")}
	}

	snap := s.store.Snapshot()
	filtered := make([]domain.Transaction, 0)
	for _, tx := range snap.Transactions {
		if tx.Date.Year() == target.Year() && tx.Date.Month() == target.Month() {
			filtered = append(filtered, tx)
		}
	}

	return &MonthView{
		Month:        target.Format("2006-01"),
		Accounts:     snap.Accounts,
		Transactions: filtered,
	}, nil
}

package service

import (
	"context"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/entitlement"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Cards
// ============================================================

func validateCard(card domain.Card) error {
	if card.Name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if card.ClosingDay < 1 || card.ClosingDay > 31 {
		return &domain.ErrValidation{Field: "closingDay", Message: "must be between 1 and 31"}
	}
	if card.DueDay < 1 || card.DueDay > 31 {
		return &domain.ErrValidation{Field: "dueDay", Message: "must be between 1 and 31"}
	}
	return nil
}

// ListCards returns every card.
func (s *FinanceService) ListCards(ctx context.Context) ([]domain.Card, error) {
	_, span := finTracer.Start(ctx, "FinanceService.ListCards")
	defer span.End()

	return s.store.Snapshot().Cards, nil
}

// CreateCard validates, checks the card cap for free users, creates the
// card and persists. The count is taken at the moment of the check;
// the cap is a product rule, not a concurrency guarantee.
func (s *FinanceService) CreateCard(ctx context.Context, card domain.Card) (*domain.Card, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.CreateCard")
	defer span.End()

	if err := validateCard(card); err != nil {
		return nil, err
	}

	isPro, err := s.isPro(ctx)
	if err != nil {
		return nil, err
	}

	if d := s.gate.CanAddCard(isPro, s.store.CardCount()); !d.Allowed {
		s.metrics.IncrGateDenial(string(d.Reason))
		s.logger.Info("card creation denied by entitlement",
			zap.Int("current_count", s.store.CardCount()),
		)
		return nil, &domain.ErrCardLimitReached{Limit: entitlement.FreeCardLimit}
	}

	created, snap := s.store.AddCard(card)
	if err := s.persist(ctx, snap); err != nil {
		return nil, err
	}

	s.metrics.IncrMutation("card", "create")
	s.logger.Info("card created", zap.String("card_id", created.ID))
	return &created, nil
}

// UpdateCard replaces a card and persists. Updates are never gated: the
// cap applies to creating cards, not to editing ones the user already has.
func (s *FinanceService) UpdateCard(ctx context.Context, card domain.Card) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", card.ID))

	if err := validateCard(card); err != nil {
		return err
	}

	snap, err := s.store.UpdateCard(card)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("card", "update")
	return nil
}

// DeleteCard removes a card and every transaction funded by it.
func (s *FinanceService) DeleteCard(ctx context.Context, id string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.DeleteCard")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", id))

	snap, err := s.store.DeleteCard(id)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, snap); err != nil {
		return err
	}

	s.metrics.IncrMutation("card", "delete")
	s.logger.Info("card deleted", zap.String("card_id", id))
	return nil
}

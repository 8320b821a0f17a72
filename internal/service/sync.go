package service

import (
	"context"

	"go.uber.org/zap"
)

// ============================================================
// Remote sync
// ============================================================

// PullRemote fetches the user's remote snapshot and replaces the local
// ledger with it, then persists. Used right after login on a new device.
func (s *FinanceService) PullRemote(ctx context.Context, userID string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.PullRemote")
	defer span.End()

	snap, err := s.syncer.FetchData(ctx, userID)
	if err != nil {
		s.metrics.IncrExternalError("sync")
		return err
	}

	replaced := s.store.Replace(snap)
	if err := s.persist(ctx, replaced); err != nil {
		return err
	}

	s.logger.Info("remote snapshot pulled",
		zap.String("user_id", userID),
		zap.Int("accounts", len(replaced.Accounts)),
		zap.Int("cards", len(replaced.Cards)),
		zap.Int("transactions", len(replaced.Transactions)),
	)
	return nil
}

package service

import (
	"context"

	"go.uber.org/zap"
)

// ============================================================
// Backup export / import
// ============================================================

// ExportBackup encodes the full ledger into a portable text artifact.
func (s *FinanceService) ExportBackup(ctx context.Context) (string, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.ExportBackup")
	defer span.End()

	artifact, err := s.codec.Export(s.store.Snapshot())
	if err != nil {
		s.metrics.IncrBackup("export", "error")
		s.logger.Error("backup export failed", zap.Error(err))
		return "", err
	}

	s.metrics.IncrBackup("export", "ok")
	s.logger.Info("backup exported", zap.Int("artifact_bytes", len(artifact)))
	return artifact, nil
}

// ImportBackup decodes the artifact and replaces the ledger wholesale.
// Decode failures leave the current ledger untouched; balances are
// re-derived from the imported records rather than trusted.
func (s *FinanceService) ImportBackup(ctx context.Context, artifact string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.ImportBackup")
	defer span.End()

	snap, err := s.codec.Import(artifact)
	if err != nil {
		s.metrics.IncrBackup("import", "error")
		s.logger.Warn("backup import rejected", zap.Error(err))
		return err
	}

	replaced := s.store.Replace(snap)
	if err := s.persist(ctx, replaced); err != nil {
		return err
	}

	s.metrics.IncrBackup("import", "ok")
	s.metrics.IncrMutation("transaction", "import")
	s.logger.Info("backup imported",
		zap.Int("accounts", len(replaced.Accounts)),
		zap.Int("cards", len(replaced.Cards)),
		zap.Int("transactions", len(replaced.Transactions)),
	)
	return nil
}

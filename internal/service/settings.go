package service

import (
	"context"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// User config & PRO activation
// ============================================================

// GetConfig returns the user config, creating defaults on first read.
func (s *FinanceService) GetConfig(ctx context.Context) (*domain.UserConfig, error) {
	ctx, span := finTracer.Start(ctx, "FinanceService.GetConfig")
	defer span.End()

	return s.loadConfig(ctx)
}

// UpdateTheme persists the theme preference.
func (s *FinanceService) UpdateTheme(ctx context.Context, theme string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.UpdateTheme")
	defer span.End()

	if theme != "light" && theme != "dark" {
		return &domain.ErrValidation{Field: "theme", Message: "must be light or dark"}
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.Theme = theme
	return s.saveConfig(ctx, cfg)
}

// SnoozeFreeModal silences the upsell prompt until the given instant.
func (s *FinanceService) SnoozeFreeModal(ctx context.Context, until time.Time) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.SnoozeFreeModal")
	defer span.End()

	if !until.After(time.Now()) {
		return &domain.ErrValidation{Field: "until", Message: "must be in the future"}
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.HideFreeModalUntil = &until
	return s.saveConfig(ctx, cfg)
}

// RequestActivation hands a PRO activation request to the operator.
// Activation is a manual process on the operator side, so the request
// only has to be delivered, not fulfilled.
func (s *FinanceService) RequestActivation(ctx context.Context, licenseKey string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.RequestActivation")
	defer span.End()

	user, err := s.storage.GetAuth(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return &domain.ErrUnauthorized{Message: "no authenticated user"}
	}

	notice := domain.ActivationNotice{
		UserID:      user.ID,
		Email:       user.Email,
		LicenseKey:  licenseKey,
		RequestedAt: time.Now(),
	}
	if err := s.notifier.NotifyActivation(ctx, notice); err != nil {
		s.metrics.IncrExternalError("notify")
		return err
	}

	s.logger.Info("activation requested", zap.String("user_id", user.ID))
	return nil
}

// ActivatePro marks the local config as PRO. The license key is stored
// as a bcrypt hash, never in the clear. The remote entitlement flag is
// updated best-effort; a sync failure does not block the activation.
func (s *FinanceService) ActivatePro(ctx context.Context, licenseKey string) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.ActivatePro")
	defer span.End()

	if licenseKey == "" {
		return &domain.ErrValidation{Field: "licenseKey", Message: "required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(licenseKey), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.IsPro = true
	cfg.LicenseKey = string(hash)
	if err := s.saveConfig(ctx, cfg); err != nil {
		return err
	}

	if user, authErr := s.storage.GetAuth(ctx); authErr == nil && user != nil {
		if syncErr := s.syncer.UpdateProStatus(ctx, user.ID, true); syncErr != nil {
			s.metrics.IncrExternalError("sync")
			s.logger.Warn("failed to update remote pro status",
				zap.String("user_id", user.ID),
				zap.Error(syncErr),
			)
		}
	}

	s.logger.Info("pro activated")
	return nil
}

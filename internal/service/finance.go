// Package service contains the business logic orchestrating the ledger
// store, the entitlement gate, the backup codec and the external
// collaborators.
package service

import (
	"context"

	"github.com/financeiro-leve/ledger-go/internal/backup"
	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/entitlement"
	"github.com/financeiro-leve/ledger-go/internal/infra/observability"
	"github.com/financeiro-leve/ledger-go/internal/ledger"
	"github.com/financeiro-leve/ledger-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var finTracer = otel.Tracer("service")

const configCacheKey = "config"

// FinanceService orchestrates every ledger operation: validate, gate,
// mutate the in-memory store, persist the resulting snapshot.
type FinanceService struct {
	store    *ledger.Store
	gate     *entitlement.Gate
	codec    *backup.Codec
	storage  port.Storage
	syncer   port.Syncer
	notifier port.OperatorNotifier

	configCache port.Cache[*domain.UserConfig]
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewFinanceService wires the service with its collaborators.
func NewFinanceService(
	store *ledger.Store,
	gate *entitlement.Gate,
	codec *backup.Codec,
	storage port.Storage,
	syncer port.Syncer,
	notifier port.OperatorNotifier,
	configCache port.Cache[*domain.UserConfig],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *FinanceService {
	return &FinanceService{
		store:       store,
		gate:        gate,
		codec:       codec,
		storage:     storage,
		syncer:      syncer,
		notifier:    notifier,
		configCache: configCache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Hydrate loads the persisted collections into the in-memory store.
// Balances are re-derived during the load, so stale persisted balances
// are corrected on startup.
func (s *FinanceService) Hydrate(ctx context.Context) error {
	ctx, span := finTracer.Start(ctx, "FinanceService.Hydrate")
	defer span.End()

	accounts, err := s.storage.GetAccounts(ctx)
	if err != nil {
		return err
	}
	cards, err := s.storage.GetCards(ctx)
	if err != nil {
		return err
	}
	transactions, err := s.storage.GetTransactions(ctx)
	if err != nil {
		return err
	}

	s.store.Load(domain.Snapshot{
		Accounts:     accounts,
		Cards:        cards,
		Transactions: transactions,
	})

	s.logger.Info("ledger hydrated",
		zap.Int("accounts", len(accounts)),
		zap.Int("cards", len(cards)),
		zap.Int("transactions", len(transactions)),
	)
	return nil
}

// Snapshot returns the current ledger collections.
func (s *FinanceService) Snapshot(ctx context.Context) domain.Snapshot {
	_, span := finTracer.Start(ctx, "FinanceService.Snapshot")
	defer span.End()

	return s.store.Snapshot()
}

// persist writes the snapshot to the storage collaborator. The in-memory
// store is the source of truth during the process lifetime; persistence
// failures are logged and reported but do not roll the mutation back.
func (s *FinanceService) persist(ctx context.Context, snap domain.Snapshot) error {
	if err := s.storage.SaveAccounts(ctx, snap.Accounts); err != nil {
		return s.persistFailed(ctx, "accounts", err)
	}
	if err := s.storage.SaveCards(ctx, snap.Cards); err != nil {
		return s.persistFailed(ctx, "cards", err)
	}
	if err := s.storage.SaveTransactions(ctx, snap.Transactions); err != nil {
		return s.persistFailed(ctx, "transactions", err)
	}
	return nil
}

func (s *FinanceService) persistFailed(_ context.Context, collection string, err error) error {
	s.metrics.IncrExternalError("storage")
	s.logger.Error("failed to persist collection",
		zap.String("collection", collection),
		zap.Error(err),
	)
	return err
}

// loadConfig returns the user config, from cache when fresh.
func (s *FinanceService) loadConfig(ctx context.Context) (*domain.UserConfig, error) {
	if cfg, ok := s.configCache.Get(configCacheKey); ok {
		s.metrics.IncrCacheHit("config")
		return cfg, nil
	}
	s.metrics.IncrCacheMiss("config")

	cfg, err := s.storage.GetConfig(ctx)
	if err != nil {
		s.metrics.IncrExternalError("storage")
		return nil, err
	}
	s.configCache.Set(configCacheKey, cfg)
	return cfg, nil
}

// saveConfig persists the config and refreshes the cache.
func (s *FinanceService) saveConfig(ctx context.Context, cfg *domain.UserConfig) error {
	if err := s.storage.SaveConfig(ctx, cfg); err != nil {
		s.metrics.IncrExternalError("storage")
		return err
	}
	s.configCache.Set(configCacheKey, cfg)
	return nil
}

// isPro resolves the effective entitlement from the persisted config.
func (s *FinanceService) isPro(ctx context.Context) (bool, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return false, err
	}
	return cfg.IsPro, nil
}

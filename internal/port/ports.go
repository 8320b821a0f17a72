// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/financeiro-leve/ledger-go/internal/domain"
)

// Storage is the persistence collaborator: a namespaced key-value store
// where each save is a full-collection overwrite. An absent key reads as
// an empty collection (or the default config). No transactional
// guarantees are assumed.
type Storage interface {
	GetAccounts(ctx context.Context) ([]domain.Account, error)
	SaveAccounts(ctx context.Context, accounts []domain.Account) error

	GetCards(ctx context.Context) ([]domain.Card, error)
	SaveCards(ctx context.Context, cards []domain.Card) error

	GetTransactions(ctx context.Context) ([]domain.Transaction, error)
	SaveTransactions(ctx context.Context, transactions []domain.Transaction) error

	GetConfig(ctx context.Context) (*domain.UserConfig, error)
	SaveConfig(ctx context.Context, cfg *domain.UserConfig) error

	// GetAuth returns (nil, nil) when no user is persisted. SaveAuth with
	// a nil user clears the stored identity.
	GetAuth(ctx context.Context) (*domain.User, error)
	SaveAuth(ctx context.Context, user *domain.User) error
}

// Syncer is the remote sync collaborator. SyncUser is an idempotent
// upsert returning the canonical user record; FetchData pulls the initial
// snapshot; UpdateProStatus flips the remote entitlement flag and is
// fire-and-forget from the core's perspective.
type Syncer interface {
	SyncUser(ctx context.Context, partial domain.User) (*domain.User, error)
	FetchData(ctx context.Context, userID string) (domain.Snapshot, error)
	UpdateProStatus(ctx context.Context, userID string, isPro bool) error
}

// OperatorNotifier tells a human operator that a user requested PRO
// activation. The concrete transport (email, webhook, queue) is a
// collaborator concern.
type OperatorNotifier interface {
	NotifyActivation(ctx context.Context, notice domain.ActivationNotice) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Package supabase implements the Storage port on top of the Supabase
// PostgREST API. Each collection is persisted as a single JSON blob in
// the fl_store table, keyed by namespace, mirroring the overwrite
// semantics of the local file store.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

const storeTable = "fl_store"

// Namespaces used as primary keys in the fl_store table.
const (
	nsAccounts     = "fl_accounts"
	nsCards        = "fl_cards"
	nsTransactions = "fl_transactions"
	nsConfig       = "fl_config"
	nsAuth         = "fl_auth"
)

// Store wraps HTTP calls to the Supabase PostgREST API.
type Store struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewStore creates a Supabase-backed Storage implementation.
func NewStore(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Store {
	return &Store{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// storeRow maps the fl_store table.
type storeRow struct {
	Namespace string          `json:"namespace"`
	Payload   json.RawMessage `json:"payload"`
}

// getBlob fetches the payload for a namespace. Returns nil when the row
// does not exist.
func (s *Store) getBlob(ctx context.Context, namespace string) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBlob")
	defer span.End()
	span.SetAttributes(attribute.String("store.namespace", namespace))

	var payload json.RawMessage

	err := resilience.Do(ctx, s.cb, s.cfg, func() error {
		path := fmt.Sprintf("%s?namespace=eq.%s&select=namespace,payload&limit=1", storeTable, namespace)
		body, err := s.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			payload = nil
			return nil
		}

		var rows []storeRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode store row: %w", err)
		}
		if len(rows) == 0 {
			payload = nil
			return nil
		}

		payload = rows[0].Payload
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/store", Err: err}
	}

	return payload, nil
}

// putBlob upserts the payload for a namespace.
func (s *Store) putBlob(ctx context.Context, namespace string, payload any) error {
	ctx, span := tracer.Start(ctx, "Supabase.PutBlob")
	defer span.End()
	span.SetAttributes(attribute.String("store.namespace", namespace))

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", namespace, err)
	}

	err = resilience.Do(ctx, s.cb, s.cfg, func() error {
		return s.doUpsert(ctx, storeTable, storeRow{Namespace: namespace, Payload: raw})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/store", Err: err}
	}
	return nil
}

// deleteBlob removes the row for a namespace. Missing rows are not an error.
func (s *Store) deleteBlob(ctx context.Context, namespace string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBlob")
	defer span.End()
	span.SetAttributes(attribute.String("store.namespace", namespace))

	err := resilience.Do(ctx, s.cb, s.cfg, func() error {
		path := fmt.Sprintf("%s?namespace=eq.%s", storeTable, namespace)
		return s.doDelete(ctx, path)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/store", Err: err}
	}
	return nil
}

// --- Storage port ---

// GetAccounts returns the persisted accounts, empty when absent.
func (s *Store) GetAccounts(ctx context.Context) ([]domain.Account, error) {
	blob, err := s.getBlob(ctx, nsAccounts)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return []domain.Account{}, nil
	}
	var accounts []domain.Account
	if err := json.Unmarshal(blob, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

// SaveAccounts overwrites the persisted accounts.
func (s *Store) SaveAccounts(ctx context.Context, accounts []domain.Account) error {
	return s.putBlob(ctx, nsAccounts, accounts)
}

// GetCards returns the persisted cards, empty when absent.
func (s *Store) GetCards(ctx context.Context) ([]domain.Card, error) {
	blob, err := s.getBlob(ctx, nsCards)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return []domain.Card{}, nil
	}
	var cards []domain.Card
	if err := json.Unmarshal(blob, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	return cards, nil
}

// SaveCards overwrites the persisted cards.
func (s *Store) SaveCards(ctx context.Context, cards []domain.Card) error {
	return s.putBlob(ctx, nsCards, cards)
}

// GetTransactions returns the persisted transactions, empty when absent.
func (s *Store) GetTransactions(ctx context.Context) ([]domain.Transaction, error) {
	blob, err := s.getBlob(ctx, nsTransactions)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return []domain.Transaction{}, nil
	}
	var transactions []domain.Transaction
	if err := json.Unmarshal(blob, &transactions); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return transactions, nil
}

// SaveTransactions overwrites the persisted transactions.
func (s *Store) SaveTransactions(ctx context.Context, transactions []domain.Transaction) error {
	return s.putBlob(ctx, nsTransactions, transactions)
}

// GetConfig returns the persisted user config, defaults when absent.
func (s *Store) GetConfig(ctx context.Context) (*domain.UserConfig, error) {
	blob, err := s.getBlob(ctx, nsConfig)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return domain.DefaultConfig(), nil
	}
	var cfg domain.UserConfig
	if err := json.Unmarshal(blob, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig overwrites the persisted user config.
func (s *Store) SaveConfig(ctx context.Context, cfg *domain.UserConfig) error {
	return s.putBlob(ctx, nsConfig, cfg)
}

// GetAuth returns the persisted user, or (nil, nil) when absent.
func (s *Store) GetAuth(ctx context.Context) (*domain.User, error) {
	blob, err := s.getBlob(ctx, nsAuth)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	var user domain.User
	if err := json.Unmarshal(blob, &user); err != nil {
		return nil, fmt.Errorf("failed to decode auth: %w", err)
	}
	return &user, nil
}

// SaveAuth persists the user identity. A nil user clears it.
func (s *Store) SaveAuth(ctx context.Context, user *domain.User) error {
	if user == nil {
		return s.deleteBlob(ctx, nsAuth)
	}
	return s.putBlob(ctx, nsAuth, user)
}

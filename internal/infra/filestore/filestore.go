// Package filestore implements the Storage port with plain JSON files
// on local disk. It is the default backend for single-user deployments
// where a remote database is overkill.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/financeiro-leve/ledger-go/internal/domain"

	"go.uber.org/zap"
)

// File names under the data directory, one per namespace.
const (
	fileAccounts     = "fl_accounts.json"
	fileCards        = "fl_cards.json"
	fileTransactions = "fl_transactions.json"
	fileConfig       = "fl_config.json"
	fileAuth         = "fl_auth.json"
)

// Store persists each collection as a JSON file. Writes go through a
// temp file + rename so a crash mid-write never leaves a torn file.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

// NewStore creates the data directory if needed and returns the store.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// read unmarshals the named file into out. Returns false when the file
// does not exist.
func (s *Store) read(name string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

// write marshals v and atomically replaces the named file.
func (s *Store) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	target := filepath.Join(s.dir, name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	s.logger.Debug("filestore: wrote", zap.String("file", name), zap.Int("bytes", len(raw)))
	return nil
}

// remove deletes the named file. Missing files are not an error.
func (s *Store) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// --- Storage port ---

// GetAccounts returns the persisted accounts, empty when the file is absent.
func (s *Store) GetAccounts(_ context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	ok, err := s.read(fileAccounts, &accounts)
	if err != nil {
		return nil, err
	}
	if !ok || accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// SaveAccounts overwrites the persisted accounts.
func (s *Store) SaveAccounts(_ context.Context, accounts []domain.Account) error {
	return s.write(fileAccounts, accounts)
}

// GetCards returns the persisted cards, empty when the file is absent.
func (s *Store) GetCards(_ context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	ok, err := s.read(fileCards, &cards)
	if err != nil {
		return nil, err
	}
	if !ok || cards == nil {
		return []domain.Card{}, nil
	}
	return cards, nil
}

// SaveCards overwrites the persisted cards.
func (s *Store) SaveCards(_ context.Context, cards []domain.Card) error {
	return s.write(fileCards, cards)
}

// GetTransactions returns the persisted transactions, empty when the file is absent.
func (s *Store) GetTransactions(_ context.Context) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	ok, err := s.read(fileTransactions, &transactions)
	if err != nil {
		return nil, err
	}
	if !ok || transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

// SaveTransactions overwrites the persisted transactions.
func (s *Store) SaveTransactions(_ context.Context, transactions []domain.Transaction) error {
	return s.write(fileTransactions, transactions)
}

// GetConfig returns the persisted user config, defaults when absent.
func (s *Store) GetConfig(_ context.Context) (*domain.UserConfig, error) {
	var cfg domain.UserConfig
	ok, err := s.read(fileConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.DefaultConfig(), nil
	}
	return &cfg, nil
}

// SaveConfig overwrites the persisted user config.
func (s *Store) SaveConfig(_ context.Context, cfg *domain.UserConfig) error {
	return s.write(fileConfig, cfg)
}

// GetAuth returns the persisted user, or (nil, nil) when absent.
func (s *Store) GetAuth(_ context.Context) (*domain.User, error) {
	var user domain.User
	ok, err := s.read(fileAuth, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// SaveAuth persists the user identity. A nil user clears it.
func (s *Store) SaveAuth(_ context.Context, user *domain.User) error {
	if user == nil {
		return s.remove(fileAuth)
	}
	return s.write(fileAuth, user)
}

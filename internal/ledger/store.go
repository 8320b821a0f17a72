// Package ledger owns the in-memory collections of accounts, cards and
// transactions and keeps the balance invariant intact across mutations.
//
// The store is the single mutable resource of the service: every mutation
// reads the full current collections, computes replacement collections and
// swaps them in wholesale (copy-on-write at collection granularity), then
// re-derives account balances. Mutations return the resulting snapshot so
// the caller can hand it to the persistence collaborator.
package ledger

import (
	"sync"

	"github.com/financeiro-leve/ledger-go/internal/domain"

	"github.com/google/uuid"
)

// Store holds the ledger collections. The zero value is empty and ready
// to use.
type Store struct {
	mu           sync.Mutex
	accounts     []domain.Account
	cards        []domain.Card
	transactions []domain.Transaction
}

// NewStore returns an empty ledger store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the store contents with the given snapshot, used to
// hydrate from persistence or an initial sync pull. Balances are
// recomputed rather than trusted from the snapshot.
func (s *Store) Load(snap domain.Snapshot) domain.Snapshot {
	return s.Replace(snap)
}

// Replace swaps in the snapshot's collections wholesale and re-derives
// balances. Used by Load and by backup import.
func (s *Store) Replace(snap domain.Snapshot) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = Recalculate(cloneAccounts(snap.Accounts), cloneTransactions(snap.Transactions))
	s.cards = cloneCards(snap.Cards)
	s.transactions = cloneTransactions(snap.Transactions)
	return s.snapshotLocked()
}

// Snapshot returns a copy of the current collections.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CardCount returns the number of cards currently held.
func (s *Store) CardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// ============================================================
// Accounts
// ============================================================

// AddAccount creates an account with a fresh identity. The current
// balance starts at the initial balance and is immediately re-derived.
func (s *Store) AddAccount(acc domain.Account) (domain.Account, domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc.ID = uuid.New().String()
	acc.CurrentBalance = acc.InitialBalance

	next := make([]domain.Account, 0, len(s.accounts)+1)
	next = append(next, s.accounts...)
	next = append(next, acc)

	s.accounts = Recalculate(next, s.transactions)
	for _, a := range s.accounts {
		if a.ID == acc.ID {
			acc = a
		}
	}
	return acc, s.snapshotLocked()
}

// UpdateAccount replaces an existing account and re-derives balances.
func (s *Store) UpdateAccount(acc domain.Account) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Account, len(s.accounts))
	found := false
	for i, a := range s.accounts {
		if a.ID == acc.ID {
			next[i] = acc
			found = true
		} else {
			next[i] = a
		}
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "account", ID: acc.ID}
	}

	s.accounts = Recalculate(next, s.transactions)
	return s.snapshotLocked(), nil
}

// DeleteAccount removes an account and cascades to every transaction
// funded by it.
func (s *Store) DeleteAccount(id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextAccounts := make([]domain.Account, 0, len(s.accounts))
	found := false
	for _, a := range s.accounts {
		if a.ID == id {
			found = true
			continue
		}
		nextAccounts = append(nextAccounts, a)
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "account", ID: id}
	}

	nextTransactions := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if tx.Funding.IsAccount(id) {
			continue
		}
		nextTransactions = append(nextTransactions, tx)
	}

	s.transactions = nextTransactions
	s.accounts = Recalculate(nextAccounts, nextTransactions)
	return s.snapshotLocked(), nil
}

// ============================================================
// Cards
// ============================================================

// AddCard creates a card with a fresh identity. The entitlement cap is
// the caller's responsibility; the store itself never refuses a card.
func (s *Store) AddCard(card domain.Card) (domain.Card, domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card.ID = uuid.New().String()

	next := make([]domain.Card, 0, len(s.cards)+1)
	next = append(next, s.cards...)
	next = append(next, card)
	s.cards = next
	return card, s.snapshotLocked()
}

// UpdateCard replaces an existing card.
func (s *Store) UpdateCard(card domain.Card) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Card, len(s.cards))
	found := false
	for i, c := range s.cards {
		if c.ID == card.ID {
			next[i] = card
			found = true
		} else {
			next[i] = c
		}
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "card", ID: card.ID}
	}
	s.cards = next
	return s.snapshotLocked(), nil
}

// DeleteCard removes a card and cascades to every transaction funded by
// it. Card transactions never feed balances, but the recalculation runs
// anyway so the invariant holds after every mutation.
func (s *Store) DeleteCard(id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nextCards := make([]domain.Card, 0, len(s.cards))
	found := false
	for _, c := range s.cards {
		if c.ID == id {
			found = true
			continue
		}
		nextCards = append(nextCards, c)
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "card", ID: id}
	}

	nextTransactions := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if tx.Funding.IsCard(id) {
			continue
		}
		nextTransactions = append(nextTransactions, tx)
	}

	s.cards = nextCards
	s.transactions = nextTransactions
	s.accounts = Recalculate(s.accounts, nextTransactions)
	return s.snapshotLocked(), nil
}

// ============================================================
// Transactions
// ============================================================

// AddTransactions absorbs a batch of records (one expansion or a single
// record) atomically, then recalculates balances once over the full set.
func (s *Store) AddTransactions(batch []domain.Transaction) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Transaction, 0, len(s.transactions)+len(batch))
	next = append(next, s.transactions...)
	next = append(next, batch...)

	s.transactions = next
	s.accounts = Recalculate(s.accounts, next)
	return s.snapshotLocked()
}

// UpdateTransaction replaces a single record. Editing one installment
// record does not resynchronize its siblings.
func (s *Store) UpdateTransaction(tx domain.Transaction) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Transaction, len(s.transactions))
	found := false
	for i, t := range s.transactions {
		if t.ID == tx.ID {
			next[i] = tx
			found = true
		} else {
			next[i] = t
		}
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "transaction", ID: tx.ID}
	}

	s.transactions = next
	s.accounts = Recalculate(s.accounts, next)
	return s.snapshotLocked(), nil
}

// DeleteTransaction removes a single record. Deleting one installment
// record leaves its siblings in place.
func (s *Store) DeleteTransaction(id string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Transaction, 0, len(s.transactions))
	found := false
	for _, t := range s.transactions {
		if t.ID == id {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		return domain.Snapshot{}, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}

	s.transactions = next
	s.accounts = Recalculate(s.accounts, next)
	return s.snapshotLocked(), nil
}

// ToggleTransactionStatus flips a record between settled and open: PAID
// becomes OPEN, anything else (OPEN or OVERDUE) becomes PAID.
func (s *Store) ToggleTransactionStatus(id string) (domain.Transaction, domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Transaction, len(s.transactions))
	var toggled domain.Transaction
	found := false
	for i, t := range s.transactions {
		if t.ID == id {
			if t.Status == domain.StatusPaid {
				t.Status = domain.StatusOpen
			} else {
				t.Status = domain.StatusPaid
			}
			toggled = t
			found = true
		}
		next[i] = t
	}
	if !found {
		return domain.Transaction{}, domain.Snapshot{}, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}

	s.transactions = next
	s.accounts = Recalculate(s.accounts, next)
	return toggled, s.snapshotLocked(), nil
}

// ============================================================
// internals
// ============================================================

func (s *Store) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Accounts:     cloneAccounts(s.accounts),
		Cards:        cloneCards(s.cards),
		Transactions: cloneTransactions(s.transactions),
	}
}

func cloneAccounts(in []domain.Account) []domain.Account {
	out := make([]domain.Account, len(in))
	copy(out, in)
	return out
}

func cloneCards(in []domain.Card) []domain.Card {
	out := make([]domain.Card, len(in))
	copy(out, in)
	return out
}

func cloneTransactions(in []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(in))
	copy(out, in)
	return out
}

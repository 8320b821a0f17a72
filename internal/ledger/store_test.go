package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/ledger"
)

func seededStore(t *testing.T) (*ledger.Store, domain.Account, domain.Card) {
	t.Helper()
	s := ledger.NewStore()

	acc, _ := s.AddAccount(domain.Account{
		Name:           "Checking",
		Type:           domain.AccountBank,
		InitialBalance: dec("500.00"),
	})
	card, _ := s.AddCard(domain.Card{
		Name:       "Platinum",
		Limit:      dec("2000.00"),
		ClosingDay: 10,
		DueDay:     20,
	})
	return s, acc, card
}

func paidExpense(amount string, funding domain.Funding) domain.Transaction {
	return domain.Transaction{
		Description: "expense",
		Amount:      dec(amount),
		Date:        time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
		Type:        domain.Expense,
		Status:      domain.StatusPaid,
		Funding:     funding,
	}
}

func TestStore_AddAccountDerivesBalance(t *testing.T) {
	s, acc, _ := seededStore(t)

	if acc.ID == "" {
		t.Fatal("expected generated account id")
	}
	if !acc.CurrentBalance.Equal(dec("500.00")) {
		t.Errorf("expected balance 500.00, got %s", acc.CurrentBalance)
	}

	s.AddTransactions([]domain.Transaction{paidExpense("120.00", domain.AccountFunding(acc.ID))})

	snap := s.Snapshot()
	if !snap.Accounts[0].CurrentBalance.Equal(dec("380.00")) {
		t.Errorf("expected 380.00 after expense, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestStore_DeleteAccountCascades(t *testing.T) {
	s, acc, card := seededStore(t)

	s.AddTransactions([]domain.Transaction{
		paidExpense("10.00", domain.AccountFunding(acc.ID)),
		paidExpense("20.00", domain.CardFunding(card.ID)),
	})

	snap, err := s.DeleteAccount(acc.ID)
	if err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}

	if len(snap.Accounts) != 0 {
		t.Errorf("expected no accounts, got %d", len(snap.Accounts))
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("expected only the card transaction to survive, got %d", len(snap.Transactions))
	}
	if !snap.Transactions[0].Funding.IsCard(card.ID) {
		t.Error("surviving transaction should be the card-funded one")
	}
}

func TestStore_DeleteCardCascades(t *testing.T) {
	s, acc, card := seededStore(t)

	s.AddTransactions([]domain.Transaction{
		paidExpense("10.00", domain.AccountFunding(acc.ID)),
		paidExpense("20.00", domain.CardFunding(card.ID)),
	})

	snap, err := s.DeleteCard(card.ID)
	if err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}

	if len(snap.Cards) != 0 {
		t.Errorf("expected no cards, got %d", len(snap.Cards))
	}
	if len(snap.Transactions) != 1 {
		t.Fatalf("expected only the account transaction to survive, got %d", len(snap.Transactions))
	}
	// Account balance unaffected by removing card spend.
	if !snap.Accounts[0].CurrentBalance.Equal(dec("490.00")) {
		t.Errorf("expected 490.00, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestStore_DeleteMissingEntities(t *testing.T) {
	s, _, _ := seededStore(t)

	var notFound *domain.ErrNotFound
	if _, err := s.DeleteAccount("nope"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.DeleteCard("nope"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.DeleteTransaction("nope"); !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ToggleTransactionStatus(t *testing.T) {
	s, acc, _ := seededStore(t)

	tx := paidExpense("100.00", domain.AccountFunding(acc.ID))
	tx.ID = "tx-toggle"
	tx.Status = domain.StatusOpen
	s.AddTransactions([]domain.Transaction{tx})

	// OPEN transactions do not affect the balance.
	if !s.Snapshot().Accounts[0].CurrentBalance.Equal(dec("500.00")) {
		t.Fatal("open transaction should not affect balance")
	}

	toggled, snap, err := s.ToggleTransactionStatus("tx-toggle")
	if err != nil {
		t.Fatalf("expected toggle to succeed, got %v", err)
	}
	if toggled.Status != domain.StatusPaid {
		t.Errorf("expected PAID, got %s", toggled.Status)
	}
	if !snap.Accounts[0].CurrentBalance.Equal(dec("400.00")) {
		t.Errorf("expected 400.00 after settling, got %s", snap.Accounts[0].CurrentBalance)
	}

	toggled, snap, err = s.ToggleTransactionStatus("tx-toggle")
	if err != nil {
		t.Fatalf("expected toggle to succeed, got %v", err)
	}
	if toggled.Status != domain.StatusOpen {
		t.Errorf("expected OPEN, got %s", toggled.Status)
	}
	if !snap.Accounts[0].CurrentBalance.Equal(dec("500.00")) {
		t.Errorf("expected 500.00 after reopening, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestStore_ToggleOverdueBecomesPaid(t *testing.T) {
	s, acc, _ := seededStore(t)

	tx := paidExpense("50.00", domain.AccountFunding(acc.ID))
	tx.ID = "tx-overdue"
	tx.Status = domain.StatusOverdue
	s.AddTransactions([]domain.Transaction{tx})

	toggled, _, err := s.ToggleTransactionStatus("tx-overdue")
	if err != nil {
		t.Fatalf("expected toggle to succeed, got %v", err)
	}
	if toggled.Status != domain.StatusPaid {
		t.Errorf("expected OVERDUE to become PAID, got %s", toggled.Status)
	}
}

func TestStore_ReplaceRederivesBalances(t *testing.T) {
	s := ledger.NewStore()

	snap := s.Replace(domain.Snapshot{
		Accounts: []domain.Account{
			// Stale persisted balance deliberately wrong.
			{ID: "acc-1", Name: "Imported", Type: domain.AccountBank, InitialBalance: dec("100.00"), CurrentBalance: dec("9999.00")},
		},
		Transactions: []domain.Transaction{
			{ID: "tx-1", Amount: dec("25.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1"), Date: time.Now()},
		},
	})

	if !snap.Accounts[0].CurrentBalance.Equal(dec("75.00")) {
		t.Errorf("expected re-derived balance 75.00, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s, _, _ := seededStore(t)

	snap := s.Snapshot()
	snap.Accounts[0].Name = "mutated"

	if s.Snapshot().Accounts[0].Name == "mutated" {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestStore_UpdateTransactionLeavesSiblingsAlone(t *testing.T) {
	s, _, card := seededStore(t)

	template := paidExpense("300.00", domain.CardFunding(card.ID))
	records, err := ledger.ExpandInstallments(template, 3)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	s.AddTransactions(records)

	edited := records[1]
	edited.Amount = dec("999.00")
	snap, err := s.UpdateTransaction(edited)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	for _, tx := range snap.Transactions {
		switch tx.ID {
		case records[0].ID, records[2].ID:
			if !tx.Amount.Equal(dec("100.00")) {
				t.Errorf("sibling %s was resynchronized: %s", tx.ID, tx.Amount)
			}
		case records[1].ID:
			if !tx.Amount.Equal(dec("999.00")) {
				t.Errorf("edited record kept old amount: %s", tx.Amount)
			}
		}
	}
}

package ledger_test

import (
	"testing"

	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/ledger"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecalculate_OnlyPaidTransactionsCount(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("100.00")},
	}
	transactions := []domain.Transaction{
		{ID: "tx-1", Amount: dec("50.00"), Type: domain.Income, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
		{ID: "tx-2", Amount: dec("30.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
		{ID: "tx-3", Amount: dec("999.00"), Type: domain.Income, Status: domain.StatusOpen, Funding: domain.AccountFunding("acc-1")},
		{ID: "tx-4", Amount: dec("999.00"), Type: domain.Expense, Status: domain.StatusOverdue, Funding: domain.AccountFunding("acc-1")},
	}

	result := ledger.Recalculate(accounts, transactions)

	want := dec("120.00")
	if !result[0].CurrentBalance.Equal(want) {
		t.Errorf("expected balance %s, got %s", want, result[0].CurrentBalance)
	}
}

func TestRecalculate_CardTransactionsNeverTouchBalances(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("100.00")},
	}
	transactions := []domain.Transaction{
		{ID: "tx-1", Amount: dec("40.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.CardFunding("card-1")},
	}

	result := ledger.Recalculate(accounts, transactions)

	if !result[0].CurrentBalance.Equal(dec("100.00")) {
		t.Errorf("expected balance 100.00, got %s", result[0].CurrentBalance)
	}
}

func TestRecalculate_MultipleAccountsIndependent(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("0")},
		{ID: "acc-2", InitialBalance: dec("10.50")},
	}
	transactions := []domain.Transaction{
		{ID: "tx-1", Amount: dec("5.25"), Type: domain.Income, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-2")},
		{ID: "tx-2", Amount: dec("1.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
	}

	result := ledger.Recalculate(accounts, transactions)

	if !result[0].CurrentBalance.Equal(dec("-1.00")) {
		t.Errorf("acc-1: expected -1.00, got %s", result[0].CurrentBalance)
	}
	if !result[1].CurrentBalance.Equal(dec("15.75")) {
		t.Errorf("acc-2: expected 15.75, got %s", result[1].CurrentBalance)
	}
}

func TestRecalculate_DanglingReferencesIgnored(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("100.00")},
	}
	transactions := []domain.Transaction{
		{ID: "tx-1", Amount: dec("30.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
		{ID: "tx-2", Amount: dec("999.00"), Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-gone")},
	}

	result := ledger.Recalculate(accounts, transactions)

	if !result[0].CurrentBalance.Equal(dec("70.00")) {
		t.Errorf("expected 70.00, got %s", result[0].CurrentBalance)
	}
}

func TestRecalculate_EmptyTransactions(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("42.00"), CurrentBalance: dec("7.00")},
	}

	result := ledger.Recalculate(accounts, nil)

	// Stale current balance is discarded in favor of the initial balance.
	if !result[0].CurrentBalance.Equal(dec("42.00")) {
		t.Errorf("expected 42.00, got %s", result[0].CurrentBalance)
	}
}

func TestRecalculate_DoesNotMutateInput(t *testing.T) {
	accounts := []domain.Account{
		{ID: "acc-1", InitialBalance: dec("10.00"), CurrentBalance: dec("10.00")},
	}
	transactions := []domain.Transaction{
		{ID: "tx-1", Amount: dec("5.00"), Type: domain.Income, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
	}

	_ = ledger.Recalculate(accounts, transactions)

	if !accounts[0].CurrentBalance.Equal(dec("10.00")) {
		t.Errorf("input slice was mutated: got %s", accounts[0].CurrentBalance)
	}
}

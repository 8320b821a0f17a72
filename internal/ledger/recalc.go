package ledger

import (
	"github.com/financeiro-leve/ledger-go/internal/domain"
)

// Recalculate derives every account's current balance from scratch:
// initial balance plus the signed amounts of all PAID transactions funded
// by that account. OPEN and OVERDUE transactions never contribute, and a
// transaction pointing at an unknown account simply matches no account.
// Balances are never trusted incrementally. The input slices are not
// modified; a new account slice is returned.
func Recalculate(accounts []domain.Account, transactions []domain.Transaction) []domain.Account {
	out := make([]domain.Account, len(accounts))
	for i, acc := range accounts {
		balance := acc.InitialBalance
		for _, tx := range transactions {
			if tx.Status != domain.StatusPaid {
				continue
			}
			if !tx.Funding.IsAccount(acc.ID) {
				continue
			}
			balance = balance.Add(tx.SignedAmount())
		}
		acc.CurrentBalance = balance
		out[i] = acc
	}
	return out
}

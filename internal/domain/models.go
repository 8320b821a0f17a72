// Package domain defines the core business entities for the Financeiro
// Leve ledger. These models are independent of transport and storage and
// represent the canonical data structures used throughout the service.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// AccountType categorizes where the money lives.
type AccountType string

const (
	AccountBank   AccountType = "BANK"
	AccountWallet AccountType = "WALLET"
	AccountCash   AccountType = "CASH"
)

// Account represents a money holding (bank account, wallet or cash).
// CurrentBalance is always derived from InitialBalance plus the settled
// transactions funded by this account; it is never set directly.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Color          string          `json:"color"`
}

// ============================================================
// Credit Cards
// ============================================================

// Card represents a credit card. ClosingDay and DueDay anchor the
// statement cycle (1-31). Statement aggregation itself is out of scope;
// the service only enforces the card-count cap for free users.
type Card struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Limit      decimal.Decimal `json:"limit"`
	ClosingDay int             `json:"closingDay"`
	DueDay     int             `json:"dueDay"`
	Color      string          `json:"color"`
}

// ============================================================
// Transactions
// ============================================================

// TransactionType determines the sign a transaction contributes to the
// funding account's balance.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// TransactionStatus is the settlement state of a transaction. Only PAID
// transactions affect balances. OVERDUE is a display state owned by the
// presentation layer; the ledger never produces it.
type TransactionStatus string

const (
	StatusOpen    TransactionStatus = "OPEN"
	StatusPaid    TransactionStatus = "PAID"
	StatusOverdue TransactionStatus = "OVERDUE"
)

// FundingKind discriminates the funding reference of a transaction.
type FundingKind string

const (
	FundedByAccount FundingKind = "ACCOUNT"
	FundedByCard    FundingKind = "CARD"
)

// Funding is the single funding reference of a transaction: exactly one
// of an account or a card, identified by Kind. Modeling it as a tagged
// variant makes the "both set" and "neither set" states unrepresentable.
type Funding struct {
	Kind FundingKind
	ID   string
}

// AccountFunding returns a funding reference to an account.
func AccountFunding(id string) Funding { return Funding{Kind: FundedByAccount, ID: id} }

// CardFunding returns a funding reference to a card.
func CardFunding(id string) Funding { return Funding{Kind: FundedByCard, ID: id} }

// IsAccount reports whether the transaction is funded by the given account.
func (f Funding) IsAccount(accountID string) bool {
	return f.Kind == FundedByAccount && f.ID == accountID
}

// IsCard reports whether the transaction is funded by the given card.
func (f Funding) IsCard(cardID string) bool {
	return f.Kind == FundedByCard && f.ID == cardID
}

// Transaction is a single ledger entry. Amount is stored as a positive
// magnitude; the sign is implied by Type. Installment metadata is set
// only for records produced by an installment expansion.
type Transaction struct {
	ID          string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	DueDate     time.Time
	Type        TransactionType
	Status      TransactionStatus
	Funding     Funding
	Category    string

	IsInstallment     bool
	InstallmentNumber int
	TotalInstallments int
	GroupID           string
}

// transactionJSON is the wire/storage shape of a Transaction. The funding
// variant is flattened into the optional accountId/cardId pair used by the
// original backup format.
type transactionJSON struct {
	ID                string            `json:"id"`
	Description       string            `json:"description"`
	Amount            decimal.Decimal   `json:"amount"`
	Date              time.Time         `json:"date"`
	DueDate           time.Time         `json:"dueDate"`
	Type              TransactionType   `json:"type"`
	Status            TransactionStatus `json:"status"`
	AccountID         string            `json:"accountId,omitempty"`
	CardID            string            `json:"cardId,omitempty"`
	Category          string            `json:"category"`
	IsInstallment     bool              `json:"isInstallment"`
	InstallmentNumber int               `json:"installmentNumber,omitempty"`
	TotalInstallments int               `json:"totalInstallments,omitempty"`
	GroupID           string            `json:"groupId,omitempty"`
}

// MarshalJSON flattens the funding variant into accountId/cardId.
func (t Transaction) MarshalJSON() ([]byte, error) {
	j := transactionJSON{
		ID:                t.ID,
		Description:       t.Description,
		Amount:            t.Amount,
		Date:              t.Date,
		DueDate:           t.DueDate,
		Type:              t.Type,
		Status:            t.Status,
		Category:          t.Category,
		IsInstallment:     t.IsInstallment,
		InstallmentNumber: t.InstallmentNumber,
		TotalInstallments: t.TotalInstallments,
		GroupID:           t.GroupID,
	}
	switch t.Funding.Kind {
	case FundedByAccount:
		j.AccountID = t.Funding.ID
	case FundedByCard:
		j.CardID = t.Funding.ID
	}
	return json.Marshal(j)
}

// UnmarshalJSON rebuilds the funding variant and rejects records that
// reference both an account and a card, or neither.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j transactionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.AccountID != "" && j.CardID != "" {
		return &ErrValidation{Field: "accountId|cardId", Message: "transaction cannot reference both an account and a card"}
	}
	if j.AccountID == "" && j.CardID == "" {
		return &ErrValidation{Field: "accountId|cardId", Message: "transaction must reference an account or a card"}
	}
	*t = Transaction{
		ID:                j.ID,
		Description:       j.Description,
		Amount:            j.Amount,
		Date:              j.Date,
		DueDate:           j.DueDate,
		Type:              j.Type,
		Status:            j.Status,
		Category:          j.Category,
		IsInstallment:     j.IsInstallment,
		InstallmentNumber: j.InstallmentNumber,
		TotalInstallments: j.TotalInstallments,
		GroupID:           j.GroupID,
	}
	if j.AccountID != "" {
		t.Funding = AccountFunding(j.AccountID)
	} else {
		t.Funding = CardFunding(j.CardID)
	}
	return nil
}

// SignedAmount returns the amount with the sign implied by Type:
// positive for INCOME, negative for EXPENSE.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// ============================================================
// Users & Entitlement
// ============================================================

// User is the locally cached identity resolved by the sync collaborator.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Avatar             string     `json:"avatar,omitempty"`
	IsPro              bool       `json:"isPro"`
	SubscriptionActive bool       `json:"subscriptionActive"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// UserConfig holds user preferences and the local entitlement state.
// HideFreeModalUntil silences the upsell prompt until the given instant.
type UserConfig struct {
	Theme              string     `json:"theme"`
	IsPro              bool       `json:"isPro"`
	LicenseKey         string     `json:"licenseKey,omitempty"`
	HideFreeModalUntil *time.Time `json:"hideFreeModalUntil,omitempty"`
}

// DefaultConfig is the config assumed when none has been persisted yet.
func DefaultConfig() *UserConfig {
	return &UserConfig{Theme: "light", IsPro: false}
}

// ActivationNotice is the message handed to the operator notifier when a
// user requests PRO activation.
type ActivationNotice struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	LicenseKey  string    `json:"licenseKey,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// ============================================================
// Snapshots
// ============================================================

// Snapshot is a full copy of the ledger collections, used for
// persistence, initial sync pulls and backup export/import.
type Snapshot struct {
	Accounts     []Account     `json:"accounts"`
	Cards        []Card        `json:"cards"`
	Transactions []Transaction `json:"transactions"`
}

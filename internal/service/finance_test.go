package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/backup"
	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/entitlement"
	"github.com/financeiro-leve/ledger-go/internal/infra/cache"
	"github.com/financeiro-leve/ledger-go/internal/infra/observability"
	"github.com/financeiro-leve/ledger-go/internal/ledger"
	"github.com/financeiro-leve/ledger-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// --- Mocks ---

type mockStorage struct {
	accounts     []domain.Account
	cards        []domain.Card
	transactions []domain.Transaction
	config       *domain.UserConfig
	user         *domain.User

	getErr  error
	saveErr error
}

func (m *mockStorage) GetAccounts(_ context.Context) ([]domain.Account, error) {
	return m.accounts, m.getErr
}

func (m *mockStorage) SaveAccounts(_ context.Context, accounts []domain.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.accounts = accounts
	return nil
}

func (m *mockStorage) GetCards(_ context.Context) ([]domain.Card, error) {
	return m.cards, m.getErr
}

func (m *mockStorage) SaveCards(_ context.Context, cards []domain.Card) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cards = cards
	return nil
}

func (m *mockStorage) GetTransactions(_ context.Context) ([]domain.Transaction, error) {
	return m.transactions, m.getErr
}

func (m *mockStorage) SaveTransactions(_ context.Context, transactions []domain.Transaction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.transactions = transactions
	return nil
}

func (m *mockStorage) GetConfig(_ context.Context) (*domain.UserConfig, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.config == nil {
		return domain.DefaultConfig(), nil
	}
	return m.config, nil
}

func (m *mockStorage) SaveConfig(_ context.Context, cfg *domain.UserConfig) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.config = cfg
	return nil
}

func (m *mockStorage) GetAuth(_ context.Context) (*domain.User, error) {
	return m.user, m.getErr
}

func (m *mockStorage) SaveAuth(_ context.Context, user *domain.User) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.user = user
	return nil
}

type mockSyncer struct {
	user      *domain.User
	snapshot  domain.Snapshot
	err       error
	proCalled bool
	proValue  bool
}

func (m *mockSyncer) SyncUser(_ context.Context, partial domain.User) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.user != nil {
		return m.user, nil
	}
	return &partial, nil
}

func (m *mockSyncer) FetchData(_ context.Context, _ string) (domain.Snapshot, error) {
	return m.snapshot, m.err
}

func (m *mockSyncer) UpdateProStatus(_ context.Context, _ string, isPro bool) error {
	m.proCalled = true
	m.proValue = isPro
	return m.err
}

type mockNotifier struct {
	notices []domain.ActivationNotice
	err     error
}

func (m *mockNotifier) NotifyActivation(_ context.Context, notice domain.ActivationNotice) error {
	if m.err != nil {
		return m.err
	}
	m.notices = append(m.notices, notice)
	return nil
}

// --- Helpers ---

func newTestService(t *testing.T, storage *mockStorage, syncer *mockSyncer, notifier *mockNotifier, now time.Time) (*service.FinanceService, *ledger.Store) {
	t.Helper()

	store := ledger.NewStore()
	gate := entitlement.NewGateWithClock(func() time.Time { return now })

	svc := service.NewFinanceService(
		store,
		gate,
		backup.NewCodec(""),
		storage,
		syncer,
		notifier,
		cache.New[*domain.UserConfig](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
	return svc, store
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

// --- Tests ---

func TestCreateCard_FreeUserHitsCap(t *testing.T) {
	storage := &mockStorage{config: &domain.UserConfig{Theme: "light", IsPro: false}}
	svc, _ := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)

	ctx := context.Background()
	card := domain.Card{Name: "Card", Limit: money("1000"), ClosingDay: 10, DueDay: 20}

	for i := 0; i < entitlement.FreeCardLimit; i++ {
		if _, err := svc.CreateCard(ctx, card); err != nil {
			t.Fatalf("card %d should be allowed: %v", i+1, err)
		}
	}

	_, err := svc.CreateCard(ctx, card)
	var limitErr *domain.ErrCardLimitReached
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected ErrCardLimitReached, got %v", err)
	}
	if limitErr.Limit != entitlement.FreeCardLimit {
		t.Errorf("expected limit %d, got %d", entitlement.FreeCardLimit, limitErr.Limit)
	}
}

func TestCreateCard_ProUserHasNoCap(t *testing.T) {
	storage := &mockStorage{config: &domain.UserConfig{Theme: "light", IsPro: true}}
	svc, _ := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)

	ctx := context.Background()
	card := domain.Card{Name: "Card", Limit: money("1000"), ClosingDay: 10, DueDay: 20}

	for i := 0; i < entitlement.FreeCardLimit+2; i++ {
		if _, err := svc.CreateCard(ctx, card); err != nil {
			t.Fatalf("pro card %d should be allowed: %v", i+1, err)
		}
	}
}

func TestCreateTransaction_InstallmentsPersistAsBatch(t *testing.T) {
	storage := &mockStorage{}
	svc, store := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, domain.Account{Name: "Checking", Type: domain.AccountBank, InitialBalance: money("1000")})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	template := domain.Transaction{
		Description: "Sofa",
		Amount:      money("1200.00"),
		Date:        testNow,
		DueDate:     testNow,
		Type:        domain.Expense,
		Status:      domain.StatusPaid,
		Funding:     domain.AccountFunding(acc.ID),
	}

	records, err := svc.CreateTransaction(ctx, template, 12)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if len(records) != 12 {
		t.Fatalf("expected 12 records, got %d", len(records))
	}
	if len(storage.transactions) != 12 {
		t.Errorf("expected 12 persisted records, got %d", len(storage.transactions))
	}

	// All 12 settled installments of 100 each drain the balance to -200.
	snap := store.Snapshot()
	if !snap.Accounts[0].CurrentBalance.Equal(money("-200.00")) {
		t.Errorf("expected balance -200.00, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestCreateTransaction_ValidationRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, &mockStorage{}, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	base := domain.Transaction{
		Description: "x",
		Amount:      money("10"),
		Date:        testNow,
		Type:        domain.Expense,
		Funding:     domain.AccountFunding("acc-1"),
	}

	var validation *domain.ErrValidation

	tx := base
	tx.Description = ""
	if _, err := svc.CreateTransaction(ctx, tx, 1); !errors.As(err, &validation) {
		t.Error("expected validation error for empty description")
	}

	tx = base
	tx.Amount = money("-5")
	if _, err := svc.CreateTransaction(ctx, tx, 1); !errors.As(err, &validation) {
		t.Error("expected validation error for negative amount")
	}

	tx = base
	tx.Funding = domain.Funding{}
	if _, err := svc.CreateTransaction(ctx, tx, 1); !errors.As(err, &validation) {
		t.Error("expected validation error for missing funding")
	}
}

func TestGetMonthView_GatesHistoryForFreeUsers(t *testing.T) {
	storage := &mockStorage{config: &domain.UserConfig{Theme: "light", IsPro: false}}
	svc, _ := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	// Current month is fine.
	if _, err := svc.GetMonthView(ctx, testNow); err != nil {
		t.Fatalf("current month should be visible: %v", err)
	}

	// May is the previous month but it is June 15th, past the window.
	_, err := svc.GetMonthView(ctx, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	var locked *domain.ErrHistoryLocked
	if !errors.As(err, &locked) {
		t.Fatalf("expected ErrHistoryLocked, got %v", err)
	}
	if locked.Month != "2025-05" {
		t.Errorf("expected locked month 2025-05, got %s", locked.Month)
	}
}

func TestGetMonthView_FiltersByMonth(t *testing.T) {
	storage := &mockStorage{config: &domain.UserConfig{Theme: "light", IsPro: true}}
	svc, _ := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, domain.Account{Name: "Checking", Type: domain.AccountBank, InitialBalance: money("0")})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	mk := func(desc string, date time.Time) domain.Transaction {
		return domain.Transaction{
			Description: desc,
			Amount:      money("10"),
			Date:        date,
			Type:        domain.Expense,
			Status:      domain.StatusOpen,
			Funding:     domain.AccountFunding(acc.ID),
		}
	}
	if _, err := svc.CreateTransaction(ctx, mk("june", testNow), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTransaction(ctx, mk("march", time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)), 1); err != nil {
		t.Fatal(err)
	}

	view, err := svc.GetMonthView(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("month view: %v", err)
	}
	if len(view.Transactions) != 1 || view.Transactions[0].Description != "march" {
		t.Errorf("expected only the march record, got %+v", view.Transactions)
	}
}

func TestImportBackup_FailureLeavesStoreUntouched(t *testing.T) {
	storage := &mockStorage{}
	svc, store := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, domain.Account{Name: "Checking", Type: domain.AccountBank, InitialBalance: money("50")}); err != nil {
		t.Fatal(err)
	}

	err := svc.ImportBackup(ctx, "definitely not an artifact")
	var codecErr *domain.ErrCodec
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Accounts) != 1 || snap.Accounts[0].Name != "Checking" {
		t.Error("failed import must not modify the ledger")
	}
}

func TestExportImportBackup_RoundTrip(t *testing.T) {
	storage := &mockStorage{}
	svc, store := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, domain.Account{Name: "Checking", Type: domain.AccountBank, InitialBalance: money("100")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTransaction(ctx, domain.Transaction{
		Description: "Coffee",
		Amount:      money("5.50"),
		Date:        testNow,
		Type:        domain.Expense,
		Status:      domain.StatusPaid,
		Funding:     domain.AccountFunding(acc.ID),
	}, 1); err != nil {
		t.Fatal(err)
	}

	artifact, err := svc.ExportBackup(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	// Wipe and restore.
	store.Replace(domain.Snapshot{})
	if err := svc.ImportBackup(ctx, artifact); err != nil {
		t.Fatalf("import: %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Accounts) != 1 || len(snap.Transactions) != 1 {
		t.Fatalf("round trip lost data: %d accounts, %d transactions", len(snap.Accounts), len(snap.Transactions))
	}
	if !snap.Accounts[0].CurrentBalance.Equal(money("94.50")) {
		t.Errorf("expected re-derived balance 94.50, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestActivatePro_HashesKeyAndSyncsRemote(t *testing.T) {
	storage := &mockStorage{user: &domain.User{ID: "user-1", Email: "a@b.c"}}
	syncer := &mockSyncer{}
	svc, _ := newTestService(t, storage, syncer, &mockNotifier{}, testNow)
	ctx := context.Background()

	if err := svc.ActivatePro(ctx, "LICENSE-123"); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if storage.config == nil || !storage.config.IsPro {
		t.Fatal("expected config to be marked PRO")
	}
	if storage.config.LicenseKey == "LICENSE-123" {
		t.Error("license key must not be stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storage.config.LicenseKey), []byte("LICENSE-123")); err != nil {
		t.Errorf("stored key is not a valid hash of the license: %v", err)
	}
	if !syncer.proCalled || !syncer.proValue {
		t.Error("expected remote pro status update")
	}
}

func TestRequestActivation_DeliversNotice(t *testing.T) {
	storage := &mockStorage{user: &domain.User{ID: "user-1", Email: "a@b.c"}}
	notifier := &mockNotifier{}
	svc, _ := newTestService(t, storage, &mockSyncer{}, notifier, testNow)

	if err := svc.RequestActivation(context.Background(), "LICENSE-123"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("expected 1 notice, got %d", len(notifier.notices))
	}
	if notifier.notices[0].UserID != "user-1" || notifier.notices[0].Email != "a@b.c" {
		t.Errorf("notice carries wrong identity: %+v", notifier.notices[0])
	}
}

func TestRequestActivation_RequiresUser(t *testing.T) {
	svc, _ := newTestService(t, &mockStorage{}, &mockSyncer{}, &mockNotifier{}, testNow)

	err := svc.RequestActivation(context.Background(), "LICENSE-123")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteAccount_CascadePersisted(t *testing.T) {
	storage := &mockStorage{}
	svc, _ := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, domain.Account{Name: "Checking", Type: domain.AccountBank, InitialBalance: money("0")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTransaction(ctx, domain.Transaction{
		Description: "Rent",
		Amount:      money("900"),
		Date:        testNow,
		Type:        domain.Expense,
		Status:      domain.StatusPaid,
		Funding:     domain.AccountFunding(acc.ID),
	}, 1); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(storage.accounts) != 0 {
		t.Errorf("expected no persisted accounts, got %d", len(storage.accounts))
	}
	if len(storage.transactions) != 0 {
		t.Errorf("expected cascade to persist, got %d transactions", len(storage.transactions))
	}
}

func TestHydrate_RederivesBalances(t *testing.T) {
	storage := &mockStorage{
		accounts: []domain.Account{
			{ID: "acc-1", Name: "Checking", Type: domain.AccountBank, InitialBalance: money("100"), CurrentBalance: money("12345")},
		},
		transactions: []domain.Transaction{
			{ID: "tx-1", Description: "x", Amount: money("40"), Date: testNow, Type: domain.Expense, Status: domain.StatusPaid, Funding: domain.AccountFunding("acc-1")},
		},
	}
	svc, store := newTestService(t, storage, &mockSyncer{}, &mockNotifier{}, testNow)

	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	snap := store.Snapshot()
	if !snap.Accounts[0].CurrentBalance.Equal(money("60")) {
		t.Errorf("expected 60, got %s", snap.Accounts[0].CurrentBalance)
	}
}

func TestPullRemote_ReplacesLedger(t *testing.T) {
	storage := &mockStorage{}
	syncer := &mockSyncer{
		snapshot: domain.Snapshot{
			Accounts: []domain.Account{
				{ID: "acc-r", Name: "Remote", Type: domain.AccountWallet, InitialBalance: money("77")},
			},
			Cards:        []domain.Card{},
			Transactions: []domain.Transaction{},
		},
	}
	svc, store := newTestService(t, storage, syncer, &mockNotifier{}, testNow)

	if err := svc.PullRemote(context.Background(), "user-1"); err != nil {
		t.Fatalf("pull: %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Accounts) != 1 || snap.Accounts[0].ID != "acc-r" {
		t.Errorf("expected remote account, got %+v", snap.Accounts)
	}
	if len(storage.accounts) != 1 {
		t.Error("expected pulled snapshot to be persisted")
	}
}

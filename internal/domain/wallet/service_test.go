package wallet

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// memoryRepository stages every WithinTx call on a copy and keeps it only on success.
type memoryRepository struct {
	mu           sync.Mutex
	wallets      map[uuid.UUID]*Wallet
	transactions []Transaction
	failSave     bool
	getErr       error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{wallets: map[uuid.UUID]*Wallet{}}
}

func (m *memoryRepository) GetByUserID(_ context.Context, userID uuid.UUID) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	w, ok := m.wallets[userID]
	if !ok {
		return nil, nil
	}
	out := *w
	out.Transactions = []Transaction{}
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].WalletID == w.ID {
			out.Transactions = append(out.Transactions, m.transactions[i])
		}
	}
	return &out, nil
}

func (m *memoryRepository) Create(_ context.Context, userID uuid.UUID, balance int64, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[userID]; ok {
		return false, nil
	}
	w := &Wallet{ID: uuid.New(), UserID: userID, Coins: balance, FlashCoins: FlashCoins{}}
	m.wallets[userID] = w
	m.transactions = append(m.transactions, Transaction{ID: uuid.New(), WalletID: w.ID, Description: description, Amount: balance, Type: TransactionTypeCredit})
	return true, nil
}

func (m *memoryRepository) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &memoryTx{repo: m, wallets: map[uuid.UUID]*Wallet{}}
	for id, w := range m.wallets {
		cp := *w
		staged.wallets[id] = &cp
	}
	if err := fn(staged); err != nil {
		return err
	}
	m.wallets = staged.wallets
	m.transactions = append(m.transactions, staged.transactions...)
	return nil
}

type memoryTx struct {
	repo         *memoryRepository
	wallets      map[uuid.UUID]*Wallet
	transactions []Transaction
}

func (t *memoryTx) LockByUserID(_ context.Context, userID uuid.UUID) (*Wallet, error) {
	w, ok := t.wallets[userID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (t *memoryTx) Save(_ context.Context, w *Wallet) error {
	if t.repo.failSave {
		return errors.New("connection reset")
	}
	cp := *w
	t.wallets[w.UserID] = &cp
	return nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, tr *Transaction) error {
	tr.ID = uuid.New()
	tr.CreatedAt = time.Now()
	t.transactions = append(t.transactions, *tr)
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestGetWalletCapsHistoryNewestFirst(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.GetWallet(ctx, userID); err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	for i := 1; i <= 55; i++ {
		if _, err := svc.UpdateWallet(ctx, userID, Update{Coins: int64Ptr(100 + int64(i))}, "Daily check-in"); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	w, err := svc.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if len(repo.transactions) != 56 {
		t.Fatalf("expected 56 stored transactions, got %d", len(repo.transactions))
	}
	if len(w.Transactions) != RecentTransactionsLimit {
		t.Fatalf("expected %d transactions, got %d", RecentTransactionsLimit, len(w.Transactions))
	}
	if w.Coins != 155 || w.Transactions[0].Amount != 1 || w.Transactions[0].Description != "Daily check-in" {
		t.Fatalf("expected newest credit first, got coins=%d %+v", w.Coins, w.Transactions[0])
	}
	for _, tr := range w.Transactions {
		if tr.Description == welcomeBonusDescription {
			t.Fatalf("oldest entry must be cut from the history")
		}
	}
}

func TestGetWalletCreatesWithWelcomeBonus(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()

	w, err := svc.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Coins != 100 {
		t.Fatalf("expected 100 coins, got %d", w.Coins)
	}
	if len(w.Transactions) != 1 || w.Transactions[0].Amount != 100 || w.Transactions[0].Type != TransactionTypeCredit {
		t.Fatalf("expected one welcome credit, got %+v", w.Transactions)
	}

	again, err := svc.GetWallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != w.ID || len(again.Transactions) != 1 {
		t.Fatalf("second access must not create another wallet or bonus")
	}
}

func TestUpdateWalletKeepsLedgerConsistent(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.GetWallet(ctx, userID); err != nil {
		t.Fatalf("get wallet: %v", err)
	}

	for _, coins := range []int64{150, 150, 40, 0, 75} {
		if _, err := svc.UpdateWallet(ctx, userID, Update{Coins: int64Ptr(coins)}, "adjustment"); err != nil {
			t.Fatalf("update to %d: %v", coins, err)
		}
	}

	w, err := svc.GetWallet(ctx, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}

	var sum int64
	for _, tr := range w.Transactions {
		sum += tr.Amount
		if (tr.Amount > 0) != (tr.Type == TransactionTypeCredit) {
			t.Fatalf("transaction %+v has wrong type for its sign", tr)
		}
	}
	if sum != w.Coins {
		t.Fatalf("balance %d does not match ledger sum %d", w.Coins, sum)
	}
	// welcome + 4 non-zero deltas; the repeated 150 writes nothing
	if len(w.Transactions) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(w.Transactions))
	}
}

func TestUpdateWalletFlashCoinsOnlyWritesNoTransaction(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()
	ctx := context.Background()
	svc.GetWallet(ctx, userID)

	grants := FlashCoins{{ID: "fc-1", Amount: 25, ExpiresAt: time.Now().Add(time.Hour), Source: "EVENT"}}
	w, err := svc.UpdateWallet(ctx, userID, Update{FlashCoins: &grants}, "flash grant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.FlashCoins) != 1 || w.Coins != 100 {
		t.Fatalf("unexpected wallet: %+v", w)
	}
	if len(w.Transactions) != 1 {
		t.Fatalf("flash-coin update must not add a transaction, got %d", len(w.Transactions))
	}
}

func TestUpdateWalletWithoutWalletFallsBackToCreation(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)

	w, err := svc.UpdateWallet(context.Background(), uuid.New(), Update{Coins: int64Ptr(500)}, "adjustment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Coins != 100 {
		t.Fatalf("expected freshly created wallet with 100 coins, got %d", w.Coins)
	}
}

func TestUpdateWalletStorageFailureRollsBack(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()
	ctx := context.Background()
	svc.GetWallet(ctx, userID)

	repo.failSave = true
	if _, err := svc.UpdateWallet(ctx, userID, Update{Coins: int64Ptr(10)}, "adjustment"); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("expected ErrWalletUnavailable, got %v", err)
	}
	repo.failSave = false

	w, _ := svc.GetWallet(ctx, userID)
	if w.Coins != 100 || len(w.Transactions) != 1 {
		t.Fatalf("failed update leaked state: %+v", w)
	}
}

func TestUpdateWalletRejectsNegativeBalance(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, 100)
	userID := uuid.New()
	svc.GetWallet(context.Background(), userID)

	if _, err := svc.UpdateWallet(context.Background(), userID, Update{Coins: int64Ptr(-1)}, "adjustment"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGetWalletStorageFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.getErr = errors.New("db down")
	svc := NewService(repo, 100)

	if _, err := svc.GetWallet(context.Background(), uuid.New()); !errors.Is(err, ErrWalletUnavailable) {
		t.Fatalf("expected ErrWalletUnavailable, got %v", err)
	}
}

func TestFlashCoinsActive(t *testing.T) {
	now := time.Now()
	coins := FlashCoins{
		{ID: "old", Amount: 5, ExpiresAt: now.Add(-time.Minute)},
		{ID: "new", Amount: 7, ExpiresAt: now.Add(time.Minute)},
	}
	active := coins.Active(now)
	ids := []string{}
	for _, c := range active {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	if len(ids) != 1 || ids[0] != "new" {
		t.Fatalf("unexpected active coins: %v", ids)
	}
}

package promocode_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brainqy/alumni-api/internal/domain/activity"
	"github.com/brainqy/alumni-api/internal/domain/promocode"
	"github.com/brainqy/alumni-api/internal/domain/user"
	"github.com/brainqy/alumni-api/internal/domain/wallet"
	"github.com/brainqy/alumni-api/internal/pkg/database/dbtest"
)

type fixture struct {
	db      *sqlx.DB
	codes   promocode.Repository
	wallets wallet.Repository
	users   user.Repository
	svc     *promocode.Service
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	users := user.NewRepository(db)
	activities := activity.NewRepository(db)
	codes := promocode.NewRepository(db, users, activities)
	return &fixture{
		db:      db,
		codes:   codes,
		wallets: wallet.NewRepository(db),
		users:   users,
		svc:     promocode.NewService(codes, users, nil, nil, 30*24*time.Hour),
	}
}

func (f *fixture) createCode(t *testing.T, p *promocode.PromoCode) {
	t.Helper()
	p.Code = "T" + strings.ToUpper(strings.ReplaceAll(uuid.NewString()[:13], "-", ""))
	if p.TenantID == "" {
		p.TenantID = user.PlatformTenant
	}
	if err := f.codes.Create(context.Background(), p); err != nil {
		t.Fatalf("create code: %v", err)
	}
	t.Cleanup(func() { f.codes.Delete(context.Background(), p.ID) })
}

func TestRedeemCoinsPersistsAtomically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code := &promocode.PromoCode{IsActive: true, UsageLimit: 50, RewardType: promocode.RewardCoins, RewardValue: 100}
	f.createCode(t, code)
	userID := dbtest.CreateUser(t, f.db, "brainqy", 0)
	if _, err := f.wallets.Create(ctx, userID, 100, "Welcome bonus"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	result := f.svc.Redeem(ctx, code.Code, userID)
	if !result.Success || result.RewardValue != 100 {
		t.Fatalf("unexpected result %+v", result)
	}

	w, err := f.wallets.GetByUserID(ctx, userID)
	if err != nil || w == nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Coins != 200 {
		t.Fatalf("expected 200 coins, got %d", w.Coins)
	}
	var sum int64
	for _, tx := range w.Transactions {
		sum += tx.Amount
	}
	if sum != w.Coins {
		t.Fatalf("ledger sum %d does not match balance %d", sum, w.Coins)
	}

	stored, _ := f.codes.GetByID(ctx, code.ID)
	if stored.TimesUsed != 1 {
		t.Fatalf("expected times used 1, got %d", stored.TimesUsed)
	}
}

func TestRedeemWithoutWalletRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code := &promocode.PromoCode{IsActive: true, UsageLimit: 5, RewardType: promocode.RewardCoins, RewardValue: 10}
	f.createCode(t, code)
	userID := dbtest.CreateUser(t, f.db, "brainqy", 0)

	if result := f.svc.Redeem(ctx, code.Code, userID); !result.Unexpected() {
		t.Fatalf("expected unexpected failure, got %+v", result)
	}
	stored, _ := f.codes.GetByID(ctx, code.ID)
	if stored.TimesUsed != 0 {
		t.Fatalf("times used must roll back, got %d", stored.TimesUsed)
	}
}

func TestConcurrentRedemptionsRespectLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code := &promocode.PromoCode{IsActive: true, UsageLimit: 2, RewardType: promocode.RewardXP, RewardValue: 5}
	f.createCode(t, code)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 6; i++ {
		userID := dbtest.CreateUser(t, f.db, "brainqy", 0)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.svc.Redeem(ctx, code.Code, userID).Success {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stored, _ := f.codes.GetByID(ctx, code.ID)
	if succeeded != 2 || stored.TimesUsed != 2 {
		t.Fatalf("expected 2 redemptions, got %d (times used %d)", succeeded, stored.TimesUsed)
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	f := newFixture(t)
	code := &promocode.PromoCode{IsActive: true, RewardType: promocode.RewardXP, RewardValue: 1}
	f.createCode(t, code)

	dup := &promocode.PromoCode{Code: code.Code, TenantID: user.PlatformTenant, IsActive: true, RewardType: promocode.RewardXP, RewardValue: 1}
	if err := f.codes.Create(context.Background(), dup); err != promocode.ErrCodeExists {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}
}

func TestIncrementUsageSkipsUnredeemableCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		code *promocode.PromoCode
		want bool
	}{
		{name: "active", code: &promocode.PromoCode{IsActive: true, RewardType: promocode.RewardXP, RewardValue: 5}, want: true},
		{name: "inactive", code: &promocode.PromoCode{IsActive: false, RewardType: promocode.RewardXP, RewardValue: 5}},
		{name: "expired", code: &promocode.PromoCode{IsActive: true, ExpiresAt: &yesterday, RewardType: promocode.RewardXP, RewardValue: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.createCode(t, tt.code)
			var got bool
			err := f.codes.WithinRedemption(ctx, func(tx promocode.RedemptionTx) error {
				var err error
				got, err = tx.IncrementUsage(ctx, tt.code.ID, now)
				return err
			})
			if err != nil {
				t.Fatalf("increment usage: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

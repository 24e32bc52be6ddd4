package exports

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/entitlements"
)

// fakeRepository keeps exports and token packs in memory. WithUserLock takes
// a mutex so the locked section behaves like the row lock in production.
type fakeRepository struct {
	mu        sync.Mutex
	exports   []models.PdfExport
	purchases []models.TokenPurchase
	nextID    uint
	failReads bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1}
}

func (f *fakeRepository) CountExportsForMonth(userID uint, monthYear string) (int64, error) {
	if f.failReads {
		return 0, errors.New("store down")
	}
	var count int64
	for _, e := range f.exports {
		if e.UserID == userID && e.MonthYear == monthYear {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) CreateExport(export *models.PdfExport) error {
	export.ID = f.nextID
	f.nextID++
	f.exports = append(f.exports, *export)
	return nil
}

func (f *fakeRepository) SumRemainingTokens(userID uint, now time.Time) (int, error) {
	if f.failReads {
		return 0, errors.New("store down")
	}
	total := 0
	for _, p := range f.purchases {
		if p.UserID != userID || !p.IsActive || p.TokensRemaining < 1 {
			continue
		}
		if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			continue
		}
		total += p.TokensRemaining
	}
	return total, nil
}

func (f *fakeRepository) ConsumeOldestToken(userID uint, now time.Time) (bool, error) {
	idxs := make([]int, 0, len(f.purchases))
	for i, p := range f.purchases {
		if p.UserID != userID || !p.IsActive || p.TokensRemaining < 1 {
			continue
		}
		if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			continue
		}
		idxs = append(idxs, i)
	}
	if len(idxs) == 0 {
		return false, nil
	}
	sort.Slice(idxs, func(a, b int) bool {
		return f.purchases[idxs[a]].PurchasedAt.Before(f.purchases[idxs[b]].PurchasedAt)
	})
	f.purchases[idxs[0]].TokensRemaining--
	return true, nil
}

func (f *fakeRepository) CreateTokenPurchase(purchase *models.TokenPurchase) error {
	purchase.ID = f.nextID
	f.nextID++
	f.purchases = append(f.purchases, *purchase)
	return nil
}

func (f *fakeRepository) ListExportHistory(userID uint, limit int) ([]models.PdfExport, error) {
	var out []models.PdfExport
	for i := len(f.exports) - 1; i >= 0 && len(out) < limit; i-- {
		if f.exports[i].UserID == userID {
			out = append(out, f.exports[i])
		}
	}
	return out, nil
}

func (f *fakeRepository) ListTokenPurchases(userID uint) ([]models.TokenPurchase, error) {
	var out []models.TokenPurchase
	for _, p := range f.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) WithUserLock(userID uint, fn func(Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f)
}

func (f *fakeRepository) addPack(userID uint, tokens int, purchasedAt time.Time) {
	expires := purchasedAt.Add(models.TokenPurchaseTTL)
	f.purchases = append(f.purchases, models.TokenPurchase{
		ID:              f.nextID,
		UserID:          userID,
		TokensPurchased: tokens,
		TokensRemaining: tokens,
		PurchasedAt:     purchasedAt,
		ExpiresAt:       &expires,
		IsActive:        true,
	})
	f.nextID++
}

func TestConsumeMonthlyBeforeTokens(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 5, time.Now().Add(-time.Hour))
	svc := NewService(repo)
	ctx := context.Background()

	// Standard has 3 monthly units. With 5 tokens on top, the first three
	// exports must spend the allotment and leave the packs untouched.
	for i := 0; i < 3; i++ {
		d := svc.Consume(ctx, 1, entitlements.PlanStandard, true, false)
		if !d.Allowed {
			t.Fatalf("export %d refused: %s", i+1, d.Reason)
		}
		if d.TokenFunded {
			t.Fatalf("export %d consumed a token while monthly units remained", i+1)
		}
	}
	if tokens, _ := repo.SumRemainingTokens(1, time.Now()); tokens != 5 {
		t.Fatalf("token balance = %d, want untouched 5", tokens)
	}

	// The fourth export must fall back to the oldest pack and stay clean.
	d := svc.Consume(ctx, 1, entitlements.PlanStandard, true, false)
	if !d.Allowed || !d.TokenFunded {
		t.Fatalf("expected token-funded export, got %+v", d)
	}
	if d.HasWatermark {
		t.Fatal("token-funded export must not carry a watermark")
	}
	if tokens, _ := repo.SumRemainingTokens(1, time.Now()); tokens != 4 {
		t.Fatalf("token balance = %d, want 4", tokens)
	}
}

func TestConsumeUnlimitedNeverDecrements(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 2, time.Now().Add(-time.Hour))
	svc := NewService(repo)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		d := svc.Consume(ctx, 1, entitlements.PlanPremium, true, false)
		if !d.Allowed {
			t.Fatalf("unlimited export %d refused", i+1)
		}
		if d.HasWatermark || d.TokenFunded {
			t.Fatalf("unlimited export %d should be clean and not token funded", i+1)
		}
	}
	if tokens, _ := repo.SumRemainingTokens(1, time.Now()); tokens != 2 {
		t.Fatalf("token balance = %d, want untouched 2", tokens)
	}
}

func TestConsumeRefusedWhenExhausted(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	// Lite allows one export per month.
	if d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false); !d.Allowed {
		t.Fatalf("first export refused: %s", d.Reason)
	}
	d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	if d.Allowed {
		t.Fatal("second export should be refused with no tokens")
	}
	if d.Reason == "" {
		t.Fatal("refusal must carry a reason")
	}
	if d.Quota.Limit != 1 || d.Quota.PurchasedTokens != 0 {
		t.Fatalf("refusal quota = %+v, want limit 1 and zero tokens", d.Quota)
	}
}

func TestConsumeTokenAfterAllotmentExhausted(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 2, time.Now().Add(-time.Hour))
	svc := NewService(repo)
	ctx := context.Background()

	if d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false); !d.Allowed || d.TokenFunded {
		t.Fatalf("first export should spend the monthly unit, got %+v", d)
	}

	d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	if !d.Allowed || !d.TokenFunded {
		t.Fatalf("expected token-funded export, got %+v", d)
	}
	if d.HasWatermark {
		t.Fatal("token-funded export must be clean even on a watermarked plan")
	}
	if tokens, _ := repo.SumRemainingTokens(1, time.Now()); tokens != 1 {
		t.Fatalf("token balance = %d, want 1", tokens)
	}
}

func TestQuotaNeverNegative(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 1, time.Now().Add(-time.Hour))
	svc := NewService(repo)
	ctx := context.Background()

	// Hammer past all capacity. Counters must bottom out at zero.
	for i := 0; i < 10; i++ {
		svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
		q := svc.Quota(ctx, 1, entitlements.PlanLite, true, false)
		if q.Remaining < 0 || q.PurchasedTokens < 0 || q.TotalAvailable < 0 {
			t.Fatalf("negative counter after attempt %d: %+v", i+1, q)
		}
	}

	q := svc.Quota(ctx, 1, entitlements.PlanLite, true, false)
	if q.Remaining != 0 || q.PurchasedTokens != 0 {
		t.Fatalf("expected drained quota, got %+v", q)
	}
}

func TestConsumeFIFOAcrossPacks(t *testing.T) {
	repo := newFakeRepository()
	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	repo.addPack(1, 1, recent)
	repo.addPack(1, 1, old)
	svc := NewService(repo)
	ctx := context.Background()

	// Burn the monthly unit, then one token. The older pack must drain first.
	svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	if !d.Allowed || !d.TokenFunded {
		t.Fatalf("expected token-funded export, got %+v", d)
	}

	packs, _ := repo.ListTokenPurchases(1)
	for _, p := range packs {
		if p.PurchasedAt.Equal(old) && p.TokensRemaining != 0 {
			t.Fatalf("oldest pack should be drained, has %d", p.TokensRemaining)
		}
		if p.PurchasedAt.Equal(recent) && p.TokensRemaining != 1 {
			t.Fatalf("newest pack should be untouched, has %d", p.TokensRemaining)
		}
	}
}

func TestConsumeExpiredTokensIgnored(t *testing.T) {
	repo := newFakeRepository()
	expired := time.Now().Add(-2 * models.TokenPurchaseTTL)
	repo.addPack(1, 5, expired)
	svc := NewService(repo)
	ctx := context.Background()

	svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
	if d.Allowed {
		t.Fatal("expired tokens must not fund exports")
	}
}

func TestConsumeFailsClosedOnStoreErrors(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 5, time.Now().Add(-time.Hour))
	repo.failReads = true
	svc := NewService(repo)
	ctx := context.Background()

	d := svc.Consume(ctx, 1, entitlements.PlanStandard, true, false)
	if d.Allowed {
		t.Fatal("export must be refused when availability cannot be read")
	}
	if d.Quota.TotalAvailable != 0 {
		t.Fatalf("unreadable store must report zero availability, got %+v", d.Quota)
	}

	q := svc.Quota(ctx, 1, entitlements.PlanStandard, true, false)
	if q.Remaining != 0 || q.TotalAvailable != 0 {
		t.Fatalf("unreadable store must report zero quota, got %+v", q)
	}
}

func TestConcurrentAttemptsCannotOverdraw(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	// One monthly unit, many racers. Exactly one may win.
	var wg sync.WaitGroup
	allowed := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := svc.Consume(ctx, 1, entitlements.PlanLite, true, false)
			allowed <- d.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	wins := 0
	for ok := range allowed {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("%d concurrent attempts succeeded, want exactly 1", wins)
	}
}

func TestRecordTokenPurchase(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	purchase, err := svc.RecordTokenPurchase(ctx, 1, 5, 1499, "pi_123")
	if err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	if purchase.TokensRemaining != 5 {
		t.Fatalf("tokens remaining = %d, want 5", purchase.TokensRemaining)
	}
	if purchase.ExpiresAt == nil {
		t.Fatal("purchase must carry an expiry")
	}

	if _, err := svc.RecordTokenPurchase(ctx, 1, 0, 1499, "pi_456"); err == nil {
		t.Fatal("zero-token purchase must be rejected")
	}
}

func TestQuotaSnapshot(t *testing.T) {
	repo := newFakeRepository()
	repo.addPack(1, 3, time.Now().Add(-time.Hour))
	svc := NewService(repo)
	ctx := context.Background()

	svc.Consume(ctx, 1, entitlements.PlanStandard, true, false)

	q := svc.Quota(ctx, 1, entitlements.PlanStandard, true, false)
	if q.Limit != 3 || q.Used != 1 || q.Remaining != 2 {
		t.Fatalf("monthly quota = %+v, want limit 3 used 1 remaining 2", q)
	}
	if q.PurchasedTokens != 3 || q.TotalAvailable != 5 {
		t.Fatalf("token quota = %+v, want 3 tokens and 5 total", q)
	}
	if q.HasWatermark {
		t.Fatal("standard exports are clean")
	}
}

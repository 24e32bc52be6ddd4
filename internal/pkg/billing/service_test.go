package billing

import (
	"context"
	"testing"
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/exports"
	"gorm.io/gorm"
)

type fakeBillingRepository struct {
	prices   map[string]*models.BillingPrice
	subs     map[string]*models.BillingSubscription
	settings map[uint]*models.UserSettings
	events   map[string]*models.BillingWebhookEvent
	nextID   uint
}

func newFakeBillingRepository() *fakeBillingRepository {
	return &fakeBillingRepository{
		prices:   make(map[string]*models.BillingPrice),
		subs:     make(map[string]*models.BillingSubscription),
		settings: make(map[uint]*models.UserSettings),
		events:   make(map[string]*models.BillingWebhookEvent),
		nextID:   1,
	}
}

func (f *fakeBillingRepository) FindActivePrice(stripePriceID string) (*models.BillingPrice, error) {
	price, ok := f.prices[stripePriceID]
	if !ok || !price.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return price, nil
}

func (f *fakeBillingRepository) UpsertSubscription(sub *models.BillingSubscription) error {
	if existing, ok := f.subs[sub.StripeSubscriptionID]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = f.nextID
		f.nextID++
	}
	copied := *sub
	f.subs[sub.StripeSubscriptionID] = &copied
	return nil
}

func (f *fakeBillingRepository) ListSubscriptionsByUser(userID uint) ([]models.BillingSubscription, error) {
	var out []models.BillingSubscription
	for _, sub := range f.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeBillingRepository) GetOrCreateUserSettings(userID uint) (*models.UserSettings, error) {
	if us, ok := f.settings[userID]; ok {
		return us, nil
	}
	us := &models.UserSettings{ID: f.nextID, UserID: userID, SubscriptionStatus: models.SubscriptionStatusInactive}
	f.nextID++
	f.settings[userID] = us
	return us, nil
}

func (f *fakeBillingRepository) SaveUserSettings(us *models.UserSettings) error {
	f.settings[us.UserID] = us
	return nil
}

func (f *fakeBillingRepository) MarkTrialUpgraded(us *models.UserSettings) error {
	if us.TrialUpgradedAt == nil {
		now := time.Now()
		us.TrialUpgradedAt = &now
	}
	return nil
}

func (f *fakeBillingRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	if stored, ok := f.events[event.StripeEventID]; ok {
		return false, stored, nil
	}
	event.ID = f.nextID
	f.nextID++
	f.events[event.StripeEventID] = event
	return true, event, nil
}

func (f *fakeBillingRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	for _, event := range f.events {
		if event.ID == id {
			event.ProcessedAt = &now
			event.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeBillingRepository) addPrice(priceID, plan, interval string) {
	f.prices[priceID] = &models.BillingPrice{
		StripePriceID:   priceID,
		InternalPlan:    plan,
		BillingInterval: interval,
		IsActive:        true,
	}
}

func TestSyncSubscriptionResolvesPlan(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.addPrice("price_standard_month", "standard", "month")
	svc := NewService(repo, nil)
	ctx := context.Background()

	sub, plan, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID:               1,
		StripeSubscriptionID: "sub_1",
		StripePriceID:        "price_standard_month",
		Status:               "active",
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if sub.InternalPlan != "standard" || sub.BillingInterval != "month" {
		t.Fatalf("unexpected sub: %+v", sub)
	}
	if plan != "standard" {
		t.Fatalf("effective plan = %q, want standard", plan)
	}

	us, _ := repo.GetOrCreateUserSettings(1)
	if us.Plan != "standard" || us.SubscriptionStatus != models.SubscriptionStatusActive {
		t.Fatalf("settings not reconciled: %+v", us)
	}
}

func TestReconcilePicksHighestRankedPlan(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.addPrice("price_standard_month", "standard", "month")
	repo.addPrice("price_premium_month", "premium", "month")
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, _, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_std", StripePriceID: "price_standard_month", Status: "active",
	}); err != nil {
		t.Fatalf("sync standard: %v", err)
	}
	if _, _, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_prem", StripePriceID: "price_premium_month", Status: "active",
	}); err != nil {
		t.Fatalf("sync premium: %v", err)
	}

	plan, err := svc.ReconcileUserPlan(ctx, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if plan != "premium" {
		t.Fatalf("effective plan = %q, want premium", plan)
	}
}

func TestReconcileOpensAndClosesGrace(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.addPrice("price_standard_month", "standard", "month")
	svc := NewService(repo, nil)
	ctx := context.Background()

	// Payment failure moves the account to past_due with a grace window.
	if _, _, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_1", StripePriceID: "price_standard_month", Status: "past_due",
	}); err != nil {
		t.Fatalf("sync past_due: %v", err)
	}
	us, _ := repo.GetOrCreateUserSettings(1)
	if us.SubscriptionStatus != models.SubscriptionStatusPastDue {
		t.Fatalf("status = %q, want past_due", us.SubscriptionStatus)
	}
	if us.GraceExpiresAt == nil || !us.GraceExpiresAt.After(time.Now()) {
		t.Fatalf("grace window not opened: %v", us.GraceExpiresAt)
	}
	if us.Plan != "standard" {
		t.Fatalf("past_due must keep the plan during grace, got %q", us.Plan)
	}
	firstGrace := *us.GraceExpiresAt

	// A repeat failure webhook must not extend the window.
	if _, err := svc.ReconcileUserPlan(ctx, 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	us, _ = repo.GetOrCreateUserSettings(1)
	if !us.GraceExpiresAt.Equal(firstGrace) {
		t.Fatal("grace window was extended by a repeat reconcile")
	}

	// Recovery clears it.
	if _, _, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_1", StripePriceID: "price_standard_month", Status: "active",
	}); err != nil {
		t.Fatalf("sync recovery: %v", err)
	}
	us, _ = repo.GetOrCreateUserSettings(1)
	if us.GraceExpiresAt != nil {
		t.Fatalf("grace window not cleared on recovery: %v", us.GraceExpiresAt)
	}
	if us.SubscriptionStatus != models.SubscriptionStatusActive {
		t.Fatalf("status = %q, want active", us.SubscriptionStatus)
	}
}

func TestReconcileMarksTrialUpgradedOnce(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.addPrice("price_premium_month", "premium", "month")
	svc := NewService(repo, nil)
	ctx := context.Background()

	started := time.Now().Add(-24 * time.Hour)
	us, _ := repo.GetOrCreateUserSettings(1)
	us.TrialStartedAt = &started

	if _, _, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_1", StripePriceID: "price_premium_month", Status: "active",
	}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	us, _ = repo.GetOrCreateUserSettings(1)
	if us.TrialUpgradedAt == nil {
		t.Fatal("paid activation must mark the trial upgraded")
	}
	upgraded := *us.TrialUpgradedAt

	if _, err := svc.ReconcileUserPlan(ctx, 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	us, _ = repo.GetOrCreateUserSettings(1)
	if !us.TrialUpgradedAt.Equal(upgraded) {
		t.Fatal("trial upgrade timestamp must be terminal")
	}
}

func TestSyncSubscriptionUnknownPriceGrantsNothing(t *testing.T) {
	repo := newFakeBillingRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	sub, plan, err := svc.SyncSubscription(ctx, NormalizedSubscription{
		UserID: 1, StripeSubscriptionID: "sub_1", StripePriceID: "price_unmapped", Status: "active",
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if sub.InternalPlan != "" || plan != "" {
		t.Fatalf("unmapped price must not entitle a plan, got sub=%q effective=%q", sub.InternalPlan, plan)
	}
}

func TestRecordWebhookEventIdempotent(t *testing.T) {
	repo := newFakeBillingRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, event, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		StripeEventID: "evt_1", EventType: "invoice.paid", PayloadJSON: "{}", SignatureValid: true,
	})
	if err != nil || !created {
		t.Fatalf("first record: created=%v err=%v", created, err)
	}

	createdAgain, again, err := svc.RecordWebhookEvent(ctx, WebhookEventInput{
		StripeEventID: "evt_1", EventType: "invoice.paid", PayloadJSON: "{}", SignatureValid: true,
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if createdAgain {
		t.Fatal("redelivered event must not create a second row")
	}
	if again.ID != event.ID {
		t.Fatal("redelivery must return the stored event")
	}

	if err := svc.MarkWebhookProcessed(ctx, event.ID, nil); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if repo.events["evt_1"].ProcessedAt == nil {
		t.Fatal("processed timestamp not stored")
	}
}

// minimal exports repository for checkout fulfilment tests
type fakeExportsRepo struct {
	purchases []*models.TokenPurchase
}

func (f *fakeExportsRepo) CountExportsForMonth(userID uint, monthYear string) (int64, error) {
	return 0, nil
}
func (f *fakeExportsRepo) CreateExport(export *models.PdfExport) error { return nil }
func (f *fakeExportsRepo) SumRemainingTokens(userID uint, now time.Time) (int, error) {
	total := 0
	for _, p := range f.purchases {
		total += p.TokensRemaining
	}
	return total, nil
}
func (f *fakeExportsRepo) ConsumeOldestToken(userID uint, now time.Time) (bool, error) {
	return false, nil
}
func (f *fakeExportsRepo) CreateTokenPurchase(purchase *models.TokenPurchase) error {
	f.purchases = append(f.purchases, purchase)
	return nil
}
func (f *fakeExportsRepo) ListExportHistory(userID uint, limit int) ([]models.PdfExport, error) {
	return nil, nil
}
func (f *fakeExportsRepo) ListTokenPurchases(userID uint) ([]models.TokenPurchase, error) {
	return nil, nil
}
func (f *fakeExportsRepo) WithUserLock(userID uint, fn func(exports.Repository) error) error {
	return fn(f)
}

func TestHandleCheckoutCompletedTokenPack(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.prices["price_tokens_5"] = &models.BillingPrice{
		StripePriceID: "price_tokens_5",
		IsTokenPack:   true,
		TokensGranted: 5,
		AmountCents:   1499,
		IsActive:      true,
	}
	exportsRepo := &fakeExportsRepo{}
	svc := NewService(repo, exports.NewService(exportsRepo))
	ctx := context.Background()

	err := svc.HandleCheckoutCompleted(ctx, 1, &StripeCheckoutSession{
		ID:              "cs_1",
		Mode:            "payment",
		CustomerID:      "cus_1",
		PaymentIntentID: "pi_1",
		Metadata:        map[string]string{"price_id": "price_tokens_5"},
	})
	if err != nil {
		t.Fatalf("handle checkout: %v", err)
	}

	if len(exportsRepo.purchases) != 1 || exportsRepo.purchases[0].TokensRemaining != 5 {
		t.Fatalf("token pack not fulfilled: %+v", exportsRepo.purchases)
	}
	us, _ := repo.GetOrCreateUserSettings(1)
	if us.StripeCustomerID != "cus_1" {
		t.Fatalf("customer id not linked: %q", us.StripeCustomerID)
	}
}

func TestHandleCheckoutCompletedLifetime(t *testing.T) {
	repo := newFakeBillingRepository()
	repo.prices["price_lifetime"] = &models.BillingPrice{
		StripePriceID:   "price_lifetime",
		InternalPlan:    "lifetime",
		BillingInterval: "once",
		IsActive:        true,
	}
	svc := NewService(repo, nil)
	ctx := context.Background()

	err := svc.HandleCheckoutCompleted(ctx, 1, &StripeCheckoutSession{
		ID:              "cs_1",
		Mode:            "payment",
		PaymentIntentID: "pi_1",
		Metadata:        map[string]string{"price_id": "price_lifetime"},
	})
	if err != nil {
		t.Fatalf("handle checkout: %v", err)
	}

	us, _ := repo.GetOrCreateUserSettings(1)
	if us.Plan != "lifetime" {
		t.Fatalf("plan = %q, want lifetime", us.Plan)
	}

	// The payment intent keys the synthetic row, so a webhook redelivery
	// must not create a second subscription.
	if err := svc.HandleCheckoutCompleted(ctx, 1, &StripeCheckoutSession{
		ID:              "cs_1",
		Mode:            "payment",
		PaymentIntentID: "pi_1",
		Metadata:        map[string]string{"price_id": "price_lifetime"},
	}); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("redelivery created %d subscriptions, want 1", len(repo.subs))
	}
}

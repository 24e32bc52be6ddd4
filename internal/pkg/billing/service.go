package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/internal/pkg/exports"
	"gorm.io/gorm"
)

// Service syncs Stripe state into local tables and reconciles each user's
// effective plan, subscription status and payment-failure grace window.
type Service struct {
	repo    Repository
	exports *exports.Service
}

// NewService creates a billing service from injected dependencies.
func NewService(repo Repository, exportsSvc *exports.Service) *Service {
	return &Service{repo: repo, exports: exportsSvc}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), exports.NewServiceFromDB(db))
}

// ResolvePrice maps a Stripe price ID to its internal plan definition.
func (s *Service) ResolvePrice(ctx context.Context, stripePriceID string) (*models.BillingPrice, error) {
	_ = ctx
	id := strings.TrimSpace(stripePriceID)
	if id == "" {
		return nil, errors.New("stripe price id is required")
	}
	return s.repo.FindActivePrice(id)
}

// SyncSubscription upserts Stripe subscription data and reconciles the
// user's plan. Unmapped prices sync with an empty internal plan so the row
// is visible but never entitles anything.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, string, error) {
	if in.UserID == 0 || strings.TrimSpace(in.StripeSubscriptionID) == "" {
		return nil, "", errors.New("user_id and stripe_subscription_id are required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}

	internalPlan := ""
	isCouples := false
	interval := normalizeInterval(in.BillingInterval)
	if priceID := strings.TrimSpace(in.StripePriceID); priceID != "" {
		price, err := s.repo.FindActivePrice(priceID)
		if err == nil {
			internalPlan = normalizePlan(price.InternalPlan)
			isCouples = price.IsCouplesBundle
			if interval == models.BillingIntervalUnknown {
				interval = normalizeInterval(price.BillingInterval)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
	}

	sub := &models.BillingSubscription{
		UserID:               in.UserID,
		StripeSubscriptionID: strings.TrimSpace(in.StripeSubscriptionID),
		StripePriceID:        strings.TrimSpace(in.StripePriceID),
		InternalPlan:         internalPlan,
		BillingInterval:      interval,
		Status:               status,
		IsCouplesBundle:      isCouples,
		CurrentPeriodStart:   in.CurrentPeriodStart,
		CurrentPeriodEnd:     in.CurrentPeriodEnd,
		CancelAtPeriodEnd:    in.CancelAtPeriodEnd,
		RawPayloadJSON:       in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, "", err
	}

	effectivePlan, err := s.ReconcileUserPlan(ctx, in.UserID)
	if err != nil {
		return sub, "", err
	}
	return sub, effectivePlan, nil
}

// ReconcileUserPlan computes and writes the best effective plan plus the
// derived subscription status for a user. Payment failure opens a grace
// window; recovery closes it. The first paid activation is also the terminal
// trial-to-paid transition.
func (s *Service) ReconcileUserPlan(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return "", err
	}

	bestPlan := ""
	hasActive := false
	hasPastDue := false
	for _, sub := range subs {
		status := strings.ToLower(strings.TrimSpace(sub.Status))
		switch status {
		case models.BillingStatusActive, models.BillingStatusTrialing:
			hasActive = true
		case models.BillingStatusPastDue:
			hasPastDue = true
		}
		if !isEntitlingStatus(status) {
			continue
		}
		candidate := normalizePlan(sub.InternalPlan)
		if candidate == "" {
			continue
		}
		if bestPlan == "" || planRank(candidate) > planRank(bestPlan) {
			bestPlan = candidate
		}
	}

	us, err := s.repo.GetOrCreateUserSettings(userID)
	if err != nil {
		return "", err
	}

	status := models.SubscriptionStatusInactive
	switch {
	case hasActive:
		status = models.SubscriptionStatusActive
	case hasPastDue:
		status = models.SubscriptionStatusPastDue
	}

	changed := false
	if normalizePlan(us.Plan) != bestPlan {
		us.Plan = bestPlan
		changed = true
	}
	if us.SubscriptionStatus != status {
		us.SubscriptionStatus = status
		changed = true
	}

	// Grace opens when every paying subscription is past due and closes as
	// soon as one is healthy again.
	switch status {
	case models.SubscriptionStatusPastDue:
		if us.GraceExpiresAt == nil {
			grace := time.Now().Add(time.Duration(models.GetAppSettings().GraceDays) * 24 * time.Hour)
			us.GraceExpiresAt = &grace
			changed = true
		}
	default:
		if us.GraceExpiresAt != nil {
			us.GraceExpiresAt = nil
			changed = true
		}
	}

	if changed {
		if err := s.repo.SaveUserSettings(us); err != nil {
			return "", err
		}
	}

	if bestPlan != "" && status == models.SubscriptionStatusActive {
		if err := s.repo.MarkTrialUpgraded(us); err != nil {
			return "", err
		}
	}

	return bestPlan, nil
}

// HandleCheckoutCompleted fulfils a finished checkout session. Token packs
// credit export tokens; one-time plan purchases (lifetime, couples) sync as
// non-renewing subscriptions. Recurring plans are handled by the follow-up
// subscription webhook instead.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, userID uint, sess *StripeCheckoutSession) error {
	if userID == 0 || sess == nil {
		return errors.New("user_id and checkout session are required")
	}

	if sess.CustomerID != "" {
		us, err := s.repo.GetOrCreateUserSettings(userID)
		if err != nil {
			return err
		}
		if us.StripeCustomerID != sess.CustomerID {
			us.StripeCustomerID = sess.CustomerID
			if err := s.repo.SaveUserSettings(us); err != nil {
				return err
			}
		}
	}

	if sess.Mode != "payment" {
		return nil
	}

	priceID := strings.TrimSpace(sess.Metadata["price_id"])
	if priceID == "" {
		return errors.New("checkout session metadata missing price_id")
	}
	price, err := s.repo.FindActivePrice(priceID)
	if err != nil {
		return fmt.Errorf("unknown checkout price %s: %w", priceID, err)
	}

	if price.IsTokenPack {
		_, err := s.exports.RecordTokenPurchase(ctx, userID, price.TokensGranted, price.AmountCents, sess.PaymentIntentID)
		return err
	}

	// Lifetime and couples purchases have no Stripe subscription; the
	// payment intent ID keys the synthetic row so retries stay idempotent.
	_, _, err = s.SyncSubscription(ctx, NormalizedSubscription{
		UserID:               userID,
		StripeSubscriptionID: "pi:" + sess.PaymentIntentID,
		StripePriceID:        priceID,
		Status:               models.BillingStatusActive,
		BillingInterval:      models.BillingIntervalOnce,
		RawPayloadJSON:       "",
	})
	return err
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.StripeEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		StripeEventID:  eventID,
		EventType:      strings.TrimSpace(in.EventType),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

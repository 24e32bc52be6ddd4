package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/billing"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// webhookTolerance bounds how stale a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// HandleCreateCheckout opens a hosted Stripe checkout for a known price.
func HandleCreateCheckout(c *fiber.Ctx) error {
	priceID := strings.TrimSpace(c.FormValue("price_id"))
	if priceID == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_price", "A price_id is required")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	price, err := svc.ResolvePrice(c.Context(), priceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "unknown_price", "This price is not offered")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resolve price")
	}

	userID := usercontext.GetUserID(c)
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	mode := "subscription"
	if price.BillingInterval == models.BillingIntervalOnce || price.IsTokenPack {
		mode = "payment"
	}

	domain := publicDomain()
	sess, err := billing.NewStripeClientFromEnv().CreateCheckoutSession(c.Context(), billing.CheckoutSessionParams{
		PriceID:           price.StripePriceID,
		Quantity:          1,
		Mode:              mode,
		CustomerID:        settings.StripeCustomerID,
		CustomerEmail:     user.Email,
		ClientReferenceID: strconv.FormatUint(uint64(userID), 10),
		SuccessURL:        domain + "/binder?checkout=success",
		CancelURL:         domain + "/pricing?checkout=cancelled",
		Metadata:          map[string]string{"price_id": price.StripePriceID},
	})
	if err != nil {
		log.Errorf("checkout session create failed for user %d: %v", userID, err)
		return jsonError(c, fiber.StatusBadGateway, "checkout_failed", "Could not start checkout")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checkout_url": sess.URL, "session_id": sess.ID})
}

// HandleCreatePortal opens the Stripe billing portal for the caller.
func HandleCreatePortal(c *fiber.Ctx) error {
	settings, err := models.GetOrCreateUserSettings(database.GetDB(), usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if settings.StripeCustomerID == "" {
		return jsonError(c, fiber.StatusNotFound, "no_billing_profile", "No billing profile exists for this account")
	}

	sess, err := billing.NewStripeClientFromEnv().
		CreatePortalSession(c.Context(), settings.StripeCustomerID, publicDomain()+"/account")
	if err != nil {
		return jsonError(c, fiber.StatusBadGateway, "portal_failed", "Could not open the billing portal")
	}

	return c.JSON(fiber.Map{"portal_url": sess.URL})
}

// HandleStripeWebhook ingests Stripe events. Every delivery is persisted
// first so replays short-circuit, then the interesting types dispatch into
// the billing service.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	client := billing.NewStripeClientFromEnv()
	signatureValid := billing.VerifyStripeWebhookSignature(
		payload, c.Get("Stripe-Signature"), client.WebhookSecret, webhookTolerance)
	if !signatureValid {
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	}

	event, err := billing.ParseStripeEvent(payload)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Webhook payload could not be parsed")
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	created, record, err := svc.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		StripeEventID:  event.ID,
		EventType:      event.Type,
		PayloadJSON:    string(payload),
		SignatureValid: signatureValid,
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to persist webhook")
	}
	if !created {
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := dispatchStripeEvent(c, svc, event)
	if err := svc.MarkWebhookProcessed(c.Context(), record.ID, processErr); err != nil {
		log.Errorf("failed to mark webhook %s processed: %v", event.ID, err)
	}
	if processErr != nil {
		log.Errorf("webhook %s (%s) processing failed: %v", event.ID, event.Type, processErr)
		return jsonError(c, fiber.StatusInternalServerError, "processing_failed", "Webhook processing failed")
	}
	return c.JSON(fiber.Map{"received": true})
}

func dispatchStripeEvent(c *fiber.Ctx, svc *billing.Service, event *billing.StripeEvent) error {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		sub, err := billing.ParseSubscriptionObject(event.Data.Object)
		if err != nil {
			return err
		}
		userID, err := userIDForStripeCustomer(sub.CustomerID)
		if err != nil {
			return err
		}
		status := sub.Status
		if event.Type == "customer.subscription.deleted" {
			status = models.BillingStatusCanceled
		}
		_, _, err = svc.SyncSubscription(c.Context(), billing.NormalizedSubscription{
			UserID:               userID,
			StripeSubscriptionID: sub.ID,
			StripePriceID:        sub.PriceID,
			Status:               status,
			BillingInterval:      sub.Interval,
			CurrentPeriodStart:   sub.CurrentPeriodStart,
			CurrentPeriodEnd:     sub.CurrentPeriodEnd,
			CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
			RawPayloadJSON:       string(event.Data.Object),
		})
		return err

	case "checkout.session.completed":
		sess, err := billing.ParseCheckoutSessionObject(event.Data.Object)
		if err != nil {
			return err
		}
		ref, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64)
		if err != nil {
			return fmt.Errorf("checkout session %s has no usable client reference: %w", sess.ID, err)
		}
		return svc.HandleCheckoutCompleted(c.Context(), uint(ref), sess)

	case "invoice.payment_failed", "invoice.paid":
		// Plan state follows the subsequent customer.subscription.updated
		// delivery; nothing to do here beyond the audit row.
		return nil

	default:
		log.Debugf("ignoring webhook type %s", event.Type)
		return nil
	}
}

// userIDForStripeCustomer maps a Stripe customer back to the local account.
func userIDForStripeCustomer(customerID string) (uint, error) {
	if strings.TrimSpace(customerID) == "" {
		return 0, errors.New("subscription event without customer id")
	}
	var settings models.UserSettings
	if err := database.GetDB().
		Where("stripe_customer_id = ?", customerID).First(&settings).Error; err != nil {
		return 0, fmt.Errorf("no account for stripe customer %s: %w", customerID, err)
	}
	return settings.UserID, nil
}

func publicDomain() string {
	return strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/")
}

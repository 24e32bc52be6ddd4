package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/billing"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/jobqueue"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleCreateCouplesInvite issues the partner seat of a couples bundle.
// One pending invite at a time; a revoked or expired invite frees the seat.
func HandleCreateCouplesInvite(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	partnerEmail := strings.ToLower(strings.TrimSpace(c.FormValue("partner_email")))
	if partnerEmail == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_email", "A partner email is required")
	}

	seatPlan, ok := couplesSeatPlan(userID)
	if !ok {
		return jsonError(c, fiber.StatusForbidden, "no_couples_bundle", "Your plan does not include a partner seat")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}
	if strings.EqualFold(user.Email, partnerEmail) {
		return jsonError(c, fiber.StatusBadRequest, "self_invite", "You cannot invite yourself")
	}

	db := database.GetDB()
	var existing models.CouplesInvite
	err = db.Where("inviter_user_id = ? AND status = ?", userID, models.CouplesInvitePending).
		First(&existing).Error
	if err == nil {
		return jsonError(c, fiber.StatusConflict, "invite_pending", "An invite is already pending")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check invites")
	}

	invite, err := models.NewCouplesInvite(userID, partnerEmail, seatPlan)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create invite")
	}
	if err := db.Create(invite).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create invite")
	}

	enqueueMail(jobqueue.MailJobPayload{
		Kind:      jobqueue.MailKindCouplesInvite,
		Recipient: partnerEmail,
		Name:      user.FullName(),
		Token:     invite.Token,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":            invite.ID,
		"partner_email": invite.PartnerEmail,
		"status":        invite.Status,
		"expires_at":    invite.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleListCouplesInvites lists the caller's invites newest first.
func HandleListCouplesInvites(c *fiber.Ctx) error {
	var invites []models.CouplesInvite
	err := database.GetDB().
		Where("inviter_user_id = ?", usercontext.GetUserID(c)).
		Order("created_at DESC").Find(&invites).Error
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load invites")
	}

	items := make([]fiber.Map, 0, len(invites))
	for _, inv := range invites {
		items = append(items, fiber.Map{
			"id":            inv.ID,
			"partner_email": inv.PartnerEmail,
			"status":        inv.Status,
			"expires_at":    inv.ExpiresAt.UTC().Format(time.RFC3339),
			"accepted_at":   formatTimePtr(inv.AcceptedAt),
		})
	}
	return c.JSON(fiber.Map{"invites": items})
}

// HandleRevokeCouplesInvite withdraws a pending invite.
func HandleRevokeCouplesInvite(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid invite id")
	}

	db := database.GetDB()
	var invite models.CouplesInvite
	if err := db.First(&invite, id).Error; err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Invite not found")
	}
	if invite.InviterUserID != usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "You may not revoke this invite")
	}
	if invite.Status != models.CouplesInvitePending {
		return jsonError(c, fiber.StatusConflict, "not_pending", "Only pending invites can be revoked")
	}

	invite.Status = models.CouplesInviteRevoked
	if err := db.Save(&invite).Error; err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke invite")
	}
	return c.JSON(fiber.Map{"id": invite.ID, "status": invite.Status})
}

// HandleShowCouplesInvite resolves an invite token for the accept page.
// Public: the partner is usually not logged in yet.
func HandleShowCouplesInvite(c *fiber.Ctx) error {
	invite, err := models.FindCouplesInviteByToken(database.GetDB(), c.Params("token"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Invite not found")
	}

	inviterName := ""
	if inviter, err := repository.GetGlobalFactory().GetUserRepository().GetByID(invite.InviterUserID); err == nil {
		inviterName = inviter.FullName()
	}

	return c.JSON(fiber.Map{
		"inviter":       inviterName,
		"partner_email": invite.PartnerEmail,
		"plan":          invite.Plan,
		"acceptable":    invite.IsAcceptable(time.Now()),
		"expires_at":    invite.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleAcceptCouplesInvite redeems an invite for the logged-in partner and
// copies the bundled plan onto their account.
func HandleAcceptCouplesInvite(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	db := database.GetDB()

	invite, err := models.FindCouplesInviteByToken(db, c.Params("token"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Invite not found")
	}
	if !invite.IsAcceptable(time.Now()) {
		return jsonError(c, fiber.StatusGone, "invite_unusable", "This invite has expired or was withdrawn")
	}
	if invite.InviterUserID == userID {
		return jsonError(c, fiber.StatusBadRequest, "self_accept", "You cannot accept your own invite")
	}

	settings, err := models.GetOrCreateUserSettings(db, userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CouplesInvite{}).
			Where("id = ? AND status = ?", invite.ID, models.CouplesInvitePending).
			Updates(map[string]interface{}{
				"status":          models.CouplesInviteAccepted,
				"partner_user_id": userID,
				"accepted_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("invite already redeemed")
		}

		applyPlanGrant(settings, invite.Plan, now)
		settings.CouplesInviteID = &invite.ID
		return tx.Save(settings).Error
	})
	if err != nil {
		log.Errorf("couples invite %d accept failed for user %d: %v", invite.ID, userID, err)
		return jsonError(c, fiber.StatusConflict, "accept_failed", "This invite could not be redeemed")
	}

	return c.JSON(fiber.Map{"accepted": true, "plan": invite.Plan})
}

// couplesSeatPlan reports whether the user owns an entitling couples bundle
// and which plan the partner seat carries.
func couplesSeatPlan(userID uint) (string, bool) {
	subs, err := billing.NewRepository(database.GetDB()).ListSubscriptionsByUser(userID)
	if err != nil {
		return "", false
	}
	for _, sub := range subs {
		if !sub.IsCouplesBundle || sub.InternalPlan == "" {
			continue
		}
		switch sub.Status {
		case models.BillingStatusActive, models.BillingStatusTrialing, models.BillingStatusPastDue:
			return sub.InternalPlan, true
		}
	}
	return "", false
}

package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/hcaptcha"
	"github.com/SkillBinder/GrandFinale/internal/pkg/jobqueue"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleCreateSupportRequest files a support ticket. Guests may use it from
// the contact page, which is why it sits behind a captcha for them.
func HandleCreateSupportRequest(c *fiber.Ctx) error {
	request := &models.SupportRequest{
		Email:    strings.TrimSpace(c.FormValue("email")),
		Subject:  strings.TrimSpace(c.FormValue("subject")),
		Message:  strings.TrimSpace(c.FormValue("message")),
		Category: c.FormValue("category", "general"),
		Status:   models.SupportStatusOpen,
	}

	if usercontext.IsLoggedIn(c) {
		userID := usercontext.GetUserID(c)
		request.UserID = &userID
		if request.Email == "" {
			if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userID); err == nil {
				request.Email = user.Email
			}
		}
	} else {
		ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
		if err != nil || !ok {
			return jsonError(c, fiber.StatusBadRequest, "captcha_failed", "Captcha verification failed")
		}
	}

	if err := request.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Please fill out all fields")
	}

	if err := repository.GetGlobalFactory().GetRequestRepository().CreateSupport(request); err != nil {
		clientIPv4, _ := GetClientIP(c)
		log.Errorf("support request create failed (%s): %v", clientIPv4, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to submit request")
	}

	enqueueMail(jobqueue.MailJobPayload{
		Kind:      jobqueue.MailKindSupportAck,
		Recipient: request.Email,
		Subject:   request.Subject,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": request.ID, "status": request.Status})
}

// HandleCreateNameChangeRequest files a reviewed name change. The printed
// binder carries the legal name, so edits need an admin decision.
func HandleCreateNameChangeRequest(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory()

	if pending, err := repo.GetRequestRepository().GetPendingNameChangeForUser(userID); err == nil && pending != nil {
		return jsonError(c, fiber.StatusConflict, "request_pending", "A name change request is already pending")
	}

	user, err := repo.GetUserRepository().GetByID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load account")
	}

	request := &models.NameChangeRequest{
		UserID:           userID,
		CurrentFirstName: user.FirstName,
		CurrentLastName:  user.LastName,
		NewFirstName:     strings.TrimSpace(c.FormValue("first_name")),
		NewLastName:      strings.TrimSpace(c.FormValue("last_name")),
		Reason:           strings.TrimSpace(c.FormValue("reason")),
		Status:           models.RequestStatusPending,
	}
	if err := request.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_request", "Both name fields are required")
	}
	if request.NewFirstName == user.FirstName && request.NewLastName == user.LastName {
		return jsonError(c, fiber.StatusBadRequest, "no_change", "The requested name matches the current one")
	}

	if err := repo.GetRequestRepository().CreateNameChange(request); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to submit request")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         request.ID,
		"status":     request.Status,
		"first_name": request.NewFirstName,
		"last_name":  request.NewLastName,
	})
}

// HandleNameChangeStatus reports the caller's pending request, if any.
func HandleNameChangeStatus(c *fiber.Ctx) error {
	pending, err := repository.GetGlobalFactory().GetRequestRepository().
		GetPendingNameChangeForUser(usercontext.GetUserID(c))
	if err != nil || pending == nil {
		return c.JSON(fiber.Map{"pending": false})
	}
	return c.JSON(fiber.Map{
		"pending":    true,
		"id":         pending.ID,
		"first_name": pending.NewFirstName,
		"last_name":  pending.NewLastName,
		"created_at": pending.CreatedAt.UTC().Format(time.RFC3339),
	})
}

package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/jobqueue"
	"github.com/SkillBinder/GrandFinale/internal/pkg/usercontext"
)

// HandleAdminListNameChanges pages through name change requests, pending
// first by default.
func HandleAdminListNameChanges(c *fiber.Ctx) error {
	status := c.Query("status", models.RequestStatusPending)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	repo := repository.GetGlobalFactory().GetRequestRepository()
	requests, err := repo.ListNameChanges(status, (page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load requests")
	}
	total, _ := repo.CountNameChanges(status)

	items := make([]fiber.Map, 0, len(requests))
	for _, r := range requests {
		items = append(items, fiber.Map{
			"id":           r.ID,
			"user_id":      r.UserID,
			"current_name": r.CurrentFirstName + " " + r.CurrentLastName,
			"new_name":     r.NewFirstName + " " + r.NewLastName,
			"reason":       r.Reason,
			"status":       r.Status,
			"created_at":   r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"requests": items, "page": page, "total": total})
}

// HandleAdminDecideNameChange approves or denies a pending request. Approval
// rewrites the account name; either way the user gets a decision mail.
func HandleAdminDecideNameChange(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid request id")
	}
	decision := c.FormValue("decision")
	if decision != "approve" && decision != "deny" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_decision", "Decision must be approve or deny")
	}

	repo := repository.GetGlobalFactory()
	request, err := repo.GetRequestRepository().GetNameChangeByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Request not found")
	}
	if request.Status != models.RequestStatusPending {
		return jsonError(c, fiber.StatusConflict, "already_decided", "This request was already decided")
	}

	user, err := repo.GetUserRepository().GetByID(request.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	approved := decision == "approve"
	if approved {
		user.FirstName = request.NewFirstName
		user.LastName = request.NewLastName
		if err := repo.GetUserRepository().Update(user); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to apply name change")
		}
		request.Status = models.RequestStatusApproved
	} else {
		request.Status = models.RequestStatusDenied
	}

	adminID := usercontext.GetUserID(c)
	now := time.Now()
	request.AdminNote = strings.TrimSpace(c.FormValue("note"))
	request.ReviewedBy = &adminID
	request.ReviewedAt = &now
	if err := repo.GetRequestRepository().UpdateNameChange(request); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save decision")
	}

	enqueueMail(jobqueue.MailJobPayload{
		Kind:      jobqueue.MailKindRequestDecided,
		Recipient: user.Email,
		Name:      user.FirstName,
		Subject:   request.Status,
		Body:      request.AdminNote,
	})

	log.Infof("admin %d %sd name change %d for user %d", adminID, decision, request.ID, user.ID)
	return c.JSON(fiber.Map{"id": request.ID, "status": request.Status})
}

// HandleAdminListSupport pages through support requests, open first by
// default.
func HandleAdminListSupport(c *fiber.Ctx) error {
	status := c.Query("status", models.SupportStatusOpen)
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	repo := repository.GetGlobalFactory().GetRequestRepository()
	requests, err := repo.ListSupport(status, (page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load requests")
	}
	total, _ := repo.CountSupport(status)

	items := make([]fiber.Map, 0, len(requests))
	for _, r := range requests {
		items = append(items, fiber.Map{
			"id":         r.ID,
			"user_id":    r.UserID,
			"email":      r.Email,
			"subject":    r.Subject,
			"message":    r.Message,
			"category":   r.Category,
			"status":     r.Status,
			"admin_note": r.AdminNote,
			"created_at": r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"requests": items, "page": page, "total": total})
}

// HandleAdminResolveSupport moves a ticket to resolved or closed.
func HandleAdminResolveSupport(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid request id")
	}
	status := c.FormValue("status")
	if status != models.SupportStatusResolved && status != models.SupportStatusClosed {
		return jsonError(c, fiber.StatusBadRequest, "invalid_status", "Status must be resolved or closed")
	}

	repo := repository.GetGlobalFactory().GetRequestRepository()
	request, err := repo.GetSupportByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Request not found")
	}

	adminID := usercontext.GetUserID(c)
	now := time.Now()
	request.Status = status
	request.AdminNote = strings.TrimSpace(c.FormValue("note"))
	request.ResolvedBy = &adminID
	request.ResolvedAt = &now
	if err := repo.UpdateSupport(request); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save decision")
	}

	return c.JSON(fiber.Map{"id": request.ID, "status": request.Status})
}

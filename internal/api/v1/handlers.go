package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/SkillBinder/GrandFinale/app/controllers"
	"github.com/SkillBinder/GrandFinale/internal/pkg/middleware"
)

// APIServer bundles the programmatic surface of the application. Handlers
// delegate to the shared controllers so session and API-key callers see the
// same behavior.
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// GetUserProfile returns account information for the authenticated caller.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleUserAccount(c)
}

// RegisterHandlers attaches all v1 routes. The main surface requires a web
// session; the /key subtree authenticates with a user API key instead, for
// scripted access.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)

	auth := router.Group("", middleware.RequireAPISessionAuth)

	// Binder sections
	auth.Get("/sections", controllers.HandleListSections)
	auth.Get("/sections/:id/answer", controllers.HandleGetSectionAnswer)
	auth.Put("/sections/:id/answer", controllers.HandleSaveSectionAnswer)
	auth.Delete("/sections/:id/answer", controllers.HandleDeleteSectionAnswer)

	// Attachments
	auth.Get("/sections/:id/attachments", controllers.HandleListAttachments)
	auth.Post("/sections/:id/attachments", controllers.HandleUploadAttachment)
	auth.Get("/attachments/:uuid/thumbnail", controllers.HandleAttachmentThumbnail)
	auth.Post("/attachments/:uuid/token", controllers.HandleCreateDownloadToken)
	auth.Delete("/attachments/:uuid", controllers.HandleDeleteAttachment)

	// Exports
	auth.Get("/exports/quota", controllers.HandleExportQuota)
	auth.Post("/exports", controllers.HandleExportBinder)
	auth.Get("/exports/history", controllers.HandleExportHistory)

	// Trial lifecycle
	auth.Get("/trial", controllers.HandleTrialStatus)
	auth.Post("/trial", controllers.HandleStartTrial)

	// Billing
	auth.Post("/billing/checkout", controllers.HandleCreateCheckout)
	auth.Post("/billing/portal", controllers.HandleCreatePortal)

	// Couples bundle
	auth.Get("/couples/invites", controllers.HandleListCouplesInvites)
	auth.Post("/couples/invites", controllers.HandleCreateCouplesInvite)
	auth.Post("/couples/invites/:id/revoke", controllers.HandleRevokeCouplesInvite)
	auth.Post("/couples/accept/:token", controllers.HandleAcceptCouplesInvite)

	// Account
	auth.Get("/account", controllers.HandleUserAccount)
	auth.Post("/account/password", controllers.HandleChangePassword)
	auth.Post("/account/api-key", controllers.HandleIssueAPIKey)
	auth.Delete("/account/api-key", controllers.HandleRevokeAPIKey)
	auth.Delete("/account", controllers.HandleDeleteAccount)

	// Requests
	auth.Get("/requests/name-change", controllers.HandleNameChangeStatus)
	auth.Post("/requests/name-change", controllers.HandleCreateNameChangeRequest)
	auth.Post("/support", controllers.HandleCreateSupportRequest)

	// API key surface for scripted access
	key := router.Group("/key", middleware.APIKeyAuthMiddleware())
	key.Get("/profile", s.GetUserProfile)
	key.Get("/sections", controllers.HandleListSections)
	key.Get("/exports/quota", controllers.HandleExportQuota)
	key.Post("/exports", controllers.HandleExportBinder)
}

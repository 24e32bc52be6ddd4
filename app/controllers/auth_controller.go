package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/SkillBinder/GrandFinale/app/models"
	"github.com/SkillBinder/GrandFinale/app/repository"
	"github.com/SkillBinder/GrandFinale/internal/pkg/database"
	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
	"github.com/SkillBinder/GrandFinale/internal/pkg/hcaptcha"
	"github.com/SkillBinder/GrandFinale/internal/pkg/jobqueue"
	"github.com/SkillBinder/GrandFinale/internal/pkg/session"
	"github.com/SkillBinder/GrandFinale/internal/pkg/statistics"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var user models.User

		fm := fiber.Map{
			"type": "error",
		}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		result := database.GetDB().Where("email = ?", c.FormValue("email")).First(&user)
		if result.Error != nil {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
			fm["message"] = "There is a problem with the login process"

			return flash.WithError(c, fm).Redirect("/login")
		}

		if !user.IsActive() {
			fm["message"] = "Please activate your account first. Check your inbox for the activation link."

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess, err := session.GetSessionStore().Get(c)
		if err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		sess.Set(AUTH_KEY, true)
		sess.Set(USER_ID, user.ID)
		sess.Set(USER_NAME, user.FullName())
		sess.Set(USER_IS_ADMIN, user.Role == models.ROLE_ADMIN)

		if err := sess.Save(); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)

			return flash.WithError(c, fm).Redirect("/login")
		}

		database.GetDB().Model(&user).Update("last_login_at", time.Now())

		fm = fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}

		return flash.WithSuccess(c, fm).Redirect("/binder")
	}

	return c.Render("login", fiber.Map{
		"Title":     "Sign in",
		"CSRFToken": c.Locals("csrf"),
		"Flash":     flash.Get(c),
	})
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type": "error",
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"

		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)

		return flash.WithError(c, fm).Redirect("/login")
	}

	fm = fiber.Map{
		"type":    "success",
		"message": "Bye! See you soon.",
	}

	c.Locals(FROM_PROTECTED, false)

	return flash.WithSuccess(c, fm).Redirect("/login")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		if !models.GetAppSettings().RegistrationEnabled {
			fm := fiber.Map{
				"type":    "error",
				"message": "Registration is currently closed.",
			}
			return flash.WithError(c, fm).Redirect("/register")
		}

		// Verify hCaptcha token
		hcaptchaToken := c.FormValue("h-captcha-response")
		valid, err := hcaptcha.Verify(hcaptchaToken)
		if err != nil || !valid {
			errorMsg := "Captcha validation failed. Please try again."
			if err != nil && env.IsDev() {
				errorMsg = fmt.Sprintf("Captcha validation failed: %v", err)
			}

			fm := fiber.Map{
				"type":    "error",
				"message": errorMsg,
			}
			return flash.WithError(c, fm).Redirect("/register")
		}

		user, err := models.CreateUser(
			c.FormValue("first_name"),
			c.FormValue("last_name"),
			c.FormValue("email"),
			c.FormValue("password"),
		)
		if err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := user.GenerateActivationToken(); err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": "Could not prepare your account. Please try again.",
			}
			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := database.GetDB().Create(user).Error; err != nil {
			fm := fiber.Map{
				"type":    "error",
				"message": fmt.Sprintf("something went wrong: %s", err),
			}

			return flash.WithError(c, fm).Redirect("/register")
		}

		enqueueMail(jobqueue.MailJobPayload{
			Kind:      jobqueue.MailKindActivation,
			Recipient: user.Email,
			Name:      user.FirstName,
			Token:     user.ActivationToken,
		})

		// Update statistics after registration
		go statistics.UpdateStatisticsCache()

		fm := fiber.Map{
			"type":    "success",
			"message": "Almost there! Check your inbox for the activation link.",
		}

		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	return c.Render("register", fiber.Map{
		"Title":           "Create your account",
		"CSRFToken":       c.Locals("csrf"),
		"HCaptchaSitekey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
		"Flash":           flash.Get(c),
	})
}

// HandleAuthActivate consumes the emailed activation token.
func HandleAuthActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		fm := fiber.Map{"type": "error", "message": "Missing activation token."}
		return flash.WithError(c, fm).Redirect("/login")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "This activation link is invalid or already used."}
		return flash.WithError(c, fm).Redirect("/login")
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Activation failed. Please try again."}
		return flash.WithError(c, fm).Redirect("/login")
	}

	fm := fiber.Map{"type": "success", "message": "Account activated. You can sign in now."}
	return flash.WithSuccess(c, fm).Redirect("/login")
}

// HandleForgotPassword sends a password reset link. The response never
// reveals whether the address exists.
func HandleForgotPassword(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		email := c.FormValue("email")
		neutral := fiber.Map{
			"type":    "success",
			"message": "If that address is registered, a reset link is on its way.",
		}

		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByEmail(email)
		if err != nil {
			return flash.WithSuccess(c, neutral).Redirect("/login")
		}

		if err := user.GeneratePasswordResetToken(); err != nil {
			return flash.WithSuccess(c, neutral).Redirect("/login")
		}
		if err := repo.Update(user); err != nil {
			return flash.WithSuccess(c, neutral).Redirect("/login")
		}

		enqueueMail(jobqueue.MailJobPayload{
			Kind:      jobqueue.MailKindPasswordReset,
			Recipient: user.Email,
			Name:      user.FirstName,
			Token:     user.PasswordResetToken,
		})

		return flash.WithSuccess(c, neutral).Redirect("/login")
	}

	return c.Render("forgot_password", fiber.Map{
		"Title":     "Reset your password",
		"CSRFToken": c.Locals("csrf"),
		"Flash":     flash.Get(c),
	})
}

// HandleResetPassword consumes the emailed reset token and sets a new password.
func HandleResetPassword(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		token = c.FormValue("token")
	}

	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{"type": "error"}

		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByPasswordResetToken(token)
		if err != nil || !user.IsPasswordResetTokenValid(token) {
			fm["message"] = "This reset link is invalid or expired."
			return flash.WithError(c, fm).Redirect("/forgot-password")
		}

		password := c.FormValue("password")
		if len(password) < 8 {
			fm["message"] = "Password must be at least 8 characters."
			return flash.WithError(c, fm).Redirect("/reset-password?token=" + token)
		}

		if err := user.SetPassword(password); err != nil {
			fm["message"] = "Could not update your password. Please try again."
			return flash.WithError(c, fm).Redirect("/forgot-password")
		}
		user.ClearPasswordResetRequest()
		if err := repo.Update(user); err != nil {
			fm["message"] = "Could not update your password. Please try again."
			return flash.WithError(c, fm).Redirect("/forgot-password")
		}

		fm = fiber.Map{"type": "success", "message": "Password updated. You can sign in now."}
		return flash.WithSuccess(c, fm).Redirect("/login")
	}

	return c.Render("reset_password", fiber.Map{
		"Title":     "Choose a new password",
		"CSRFToken": c.Locals("csrf"),
		"Token":     token,
		"Flash":     flash.Get(c),
	})
}

// enqueueMail hands a mail off to the background queue; delivery failures are
// retried there and must not fail the request.
func enqueueMail(payload jobqueue.MailJobPayload) {
	// The queue logs enqueue failures itself.
	_, _ = jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeSendMail, payload.ToMap())
}

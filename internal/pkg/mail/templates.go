package mail

import (
	"fmt"
	"strings"

	"github.com/SkillBinder/GrandFinale/internal/pkg/env"
)

func publicBase() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// SendActivationMail delivers the account activation link.
func SendActivationMail(to, firstName, token string) error {
	link := fmt.Sprintf("%s/activate?token=%s", publicBase(), token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to The Grand Finale. Please confirm your email address to activate your account:</p>
<p><a href="%s">Activate my account</a></p>
<p>If you did not sign up, you can ignore this email.</p>`, firstName, link)
	return SendMail(to, "Activate your account", body)
}

// SendPasswordResetMail delivers the password reset link.
func SendPasswordResetMail(to, firstName, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", publicBase(), token)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. The link below is valid for two hours:</p>
<p><a href="%s">Reset my password</a></p>
<p>If you did not request this, no action is needed.</p>`, firstName, link)
	return SendMail(to, "Reset your password", body)
}

// SendCouplesInviteMail invites a partner to join a couples bundle.
func SendCouplesInviteMail(to, inviterName, token string) error {
	link := fmt.Sprintf("%s/couples/accept?token=%s", publicBase(), token)
	body := fmt.Sprintf(`<p>Hello,</p>
<p>%s has invited you to share their Grand Finale couples plan. Accept the invitation to set up your own legacy binder:</p>
<p><a href="%s">Accept invitation</a></p>
<p>This invitation expires in 30 days.</p>`, inviterName, link)
	return SendMail(to, inviterName+" invited you to The Grand Finale", body)
}

// SendSupportAcknowledgement confirms receipt of a support request.
func SendSupportAcknowledgement(to, subject string) error {
	body := fmt.Sprintf(`<p>Hello,</p>
<p>We received your message "%s" and will get back to you as soon as we can.</p>
<p>The Grand Finale support team</p>`, subject)
	return SendMail(to, "We received your request", body)
}

// SendNameChangeDecisionMail notifies the user of a reviewed name change.
func SendNameChangeDecisionMail(to, firstName string, approved bool, note string) error {
	outcome := "approved"
	if !approved {
		outcome = "declined"
	}
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Your name change request has been %s.</p>`, firstName, outcome)
	if note != "" {
		body += fmt.Sprintf("<p>Reviewer note: %s</p>", note)
	}
	return SendMail(to, "Your name change request was "+outcome, body)
}

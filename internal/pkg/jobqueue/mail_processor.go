package jobqueue

import (
	"fmt"

	"github.com/SkillBinder/GrandFinale/internal/pkg/mail"
)

// processSendMailJob delivers one outbound email. SMTP timeouts surface as
// errors so the queue's retry mechanism covers transient provider outages.
func (q *Queue) processSendMailJob(job *Job) error {
	payload, err := MailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid mail payload: %w", err)
	}
	if payload.Recipient == "" {
		return fmt.Errorf("mail job %s has no recipient", job.ID)
	}

	switch payload.Kind {
	case MailKindActivation:
		return mail.SendActivationMail(payload.Recipient, payload.Name, payload.Token)
	case MailKindPasswordReset:
		return mail.SendPasswordResetMail(payload.Recipient, payload.Name, payload.Token)
	case MailKindCouplesInvite:
		return mail.SendCouplesInviteMail(payload.Recipient, payload.Name, payload.Token)
	case MailKindSupportAck:
		return mail.SendSupportAcknowledgement(payload.Recipient, payload.Subject)
	case MailKindRequestDecided:
		// Subject carries the decision state, Body the reviewer's note.
		return mail.SendNameChangeDecisionMail(payload.Recipient, payload.Name, payload.Subject == "approved", payload.Body)
	default:
		// Free-form mails carry their own subject and body.
		if payload.Subject == "" {
			return fmt.Errorf("mail job %s has no subject", job.ID)
		}
		return mail.SendMail(payload.Recipient, payload.Subject, payload.Body)
	}
}

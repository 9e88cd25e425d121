// internal/email/mailer/invitation.go
package mailer

import (
	"context"

	"github.com/dangerclosesec/qualitrack/internal/email"
	"github.com/dangerclosesec/qualitrack/internal/model"
)

const invitationTemplate = "invitation"

// InvitationTemplateData contains data for the invitation email template
type InvitationTemplateData struct {
	Name           string
	AcceptURL      string
	ExpiresAt      string
	IndicatorCount int
}

// InvitationMailer delivers invitation mail through the email service.
type InvitationMailer struct {
	service *email.Service
	subject string
}

func NewInvitationMailer(service *email.Service) *InvitationMailer {
	return &InvitationMailer{
		service: service,
		subject: "Invitation à consulter le dossier Qualiopi",
	}
}

func (m *InvitationMailer) SendInvitation(ctx context.Context, inv *model.Invitation, acceptURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.service.SendEmail(email.EmailData{
		To:           inv.Email,
		ToName:       inv.Name,
		Subject:      m.subject,
		TemplateName: invitationTemplate,
		TemplateData: InvitationTemplateData{
			Name:           inv.Name,
			AcceptURL:      acceptURL,
			ExpiresAt:      inv.ExpiresAt.UTC().Format("02/01/2006 15:04 MST"),
			IndicatorCount: len(inv.IndicatorAccess),
		},
	})
}

package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"mentorlink-backend/internal/domain"
)

type sendgridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &sendgridEmailService{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendgridEmailService) SendInvitation(ctx context.Context, toEmail, inviterName string, inv *domain.Invitation) error {
	if inviterName == "" {
		inviterName = "A MentorLink user"
	}

	var subject, body string
	switch inv.RelationshipType {
	case domain.RelTypeStudentInvitesSupervisor:
		subject = fmt.Sprintf("%s asked you to be their supervisor", inviterName)
		body = fmt.Sprintf("Hello,\n\n%s invited you to supervise their learning on MentorLink.", inviterName)
	default:
		subject = fmt.Sprintf("%s invited you to MentorLink", inviterName)
		body = fmt.Sprintf("Hello,\n\n%s invited you to join them as a student on MentorLink.", inviterName)
	}
	if msg := inv.CustomMessage(); msg != "" {
		body += fmt.Sprintf("\n\nTheir message:\n%s", msg)
	}
	body += "\n\nOpen the app to respond to this invitation.\n\nThe MentorLink Team"

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected invitation email: status %d", response.StatusCode)
	}
	return nil
}

// NoopEmailService drops mail; used in dev and tests.
type NoopEmailService struct{}

func (NoopEmailService) SendInvitation(ctx context.Context, toEmail, inviterName string, inv *domain.Invitation) error {
	return nil
}

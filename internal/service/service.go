package service

import (
	"context"

	"mentorlink-backend/internal/domain"
)

// CreateInvitationRequest carries everything needed to open an invitation.
// InviteeUserID is set when the invitee already has an account; it enables
// the notification projection row and push delivery. Relationship invites
// created pre-signup carry only the email in SubjectEmailOrID.
type CreateInvitationRequest struct {
	InviterID        string
	InviterName      string
	SubjectEmailOrID string
	InviteeUserID    string
	RelationshipType domain.RelationshipType
	CollectionID     string
	Metadata         map[string]string
}

// AcceptResult reports whether the resulting relationship/membership record
// was written. False with a nil error is a partial success: the acceptance
// stands and the retry job will write the record later.
type AcceptResult struct {
	RelationshipCreated bool
}

// InvitationService is the lifecycle state machine for one invitation kind.
// Both kinds (relationship, collection) expose this same contract.
type InvitationService interface {
	Create(ctx context.Context, req CreateInvitationRequest) (*domain.Invitation, error)
	Accept(ctx context.Context, invitationID, actingUserID string) (AcceptResult, error)
	Reject(ctx context.Context, invitationID, actingUserID string) error
	Cancel(ctx context.Context, invitationID, byInviterID string) error
	Resend(ctx context.Context, invitationID string) error
	ListPending(ctx context.Context, subjectEmailOrID string) ([]domain.Invitation, error)
	// RetryPendingRecords re-attempts the relationship/membership writes
	// that failed after an acceptance. Returns how many records were
	// written. Driven by the scheduler.
	RetryPendingRecords(ctx context.Context) (int, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID string, page, pageSize int) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
}

// PushService delivers a push message to one device token. Fire and forget:
// failures are logged by callers and never fail a state transition.
type PushService interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// EmailService delivers invitation email. Same fire-and-forget posture as
// push for resend; create surfaces delivery errors to the caller only when
// no other channel reached the invitee.
type EmailService interface {
	SendInvitation(ctx context.Context, toEmail, inviterName string, inv *domain.Invitation) error
}

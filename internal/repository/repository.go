package repository

import (
	"context"

	"mentorlink-backend/internal/domain"
)

// InviteRepository is the backing-table port shared by both invitation
// kinds. The relationship and collection kinds run the same state machine
// over two separately-backed implementations of this interface.
type InviteRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	GetByID(ctx context.Context, id string) (*domain.Invitation, error)
	// HasActive reports whether a pending invitation already exists for the
	// (inviter, subject, relationship type) triple. Best effort; callers
	// accept the create/create race.
	HasActive(ctx context.Context, inviterID, subject string, relType domain.RelationshipType) (bool, error)
	ListPendingFor(ctx context.Context, subjectEmailOrID string) ([]domain.Invitation, error)
	CountPendingFor(ctx context.Context, subjectEmailOrID string) (int, error)
	// UpdateStatus performs the pending→terminal transition. Returns
	// domain.ErrAuthorizationDenied when the row policy rejects the write.
	UpdateStatus(ctx context.Context, inv *domain.Invitation) error
	// Delete hard-removes the row; the fallback "resolved" signal when
	// UpdateStatus is not permitted.
	Delete(ctx context.Context, id string) error
	// ListAcceptedWithoutRecord returns accepted invitations whose
	// relationship/membership record write failed and needs a retry.
	ListAcceptedWithoutRecord(ctx context.Context) ([]domain.Invitation, error)
	// MarkRecordCreated flags an accepted invitation once its resulting
	// relationship/membership record has been written.
	MarkRecordCreated(ctx context.Context, id string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error)
	// CountUnreadInviteTypes counts unread rows whose type is in the
	// invitation-relevant set, optionally restricted to one type group.
	CountUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) (int, error)
	// ListUnreadInviteTypes returns the unread invite-typed rows themselves,
	// used when the aggregator dedupes by invitation id.
	ListUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	// DeleteByInvitationID removes every row referencing the invitation,
	// across all recipients.
	DeleteByInvitationID(ctx context.Context, invitationID string) error
	// DeleteResolved removes rows whose referenced invitation is terminal or
	// gone. Returns the number of rows swept.
	DeleteResolved(ctx context.Context) (int64, error)
}

type RelationshipRepository interface {
	// Create is idempotent on the (student, supervisor) pair.
	Create(ctx context.Context, rel *domain.Relationship) error
	ExistsForPair(ctx context.Context, studentID, supervisorID string) (bool, error)
}

type MembershipRepository interface {
	// Create is idempotent on the (collection, user) pair.
	Create(ctx context.Context, m *domain.CollectionMembership) error
	Exists(ctx context.Context, collectionID, userID string) (bool, error)
}

// DeviceTokenRepository resolves push tokens for a recipient. Token
// registration itself belongs to the device-registration collaborator.
type DeviceTokenRepository interface {
	ListForUser(ctx context.Context, userID string) ([]string, error)
}

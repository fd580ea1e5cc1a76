package service

import (
	"mentorlink-backend/internal/domain"
)

// InvitationRef points from a notification row back to the invitation it
// projects.
type InvitationRef struct {
	Kind         domain.InvitationKind
	InvitationID string
}

// NotificationRouter classifies notification rows by their type tag and
// extracts the invitation reference from the type's payload variant.
// Types outside the invitation set belong to other parts of the app and are
// reported as not-invitation-relevant.
type NotificationRouter struct{}

func NewNotificationRouter() *NotificationRouter {
	return &NotificationRouter{}
}

// Classify returns the invitation reference carried by n, if any.
func (r *NotificationRouter) Classify(n domain.Notification) (InvitationRef, bool) {
	switch n.Type {
	case domain.NotificationTypeSupervisorInvitation, domain.NotificationTypeStudentInvitation:
		p, ok := n.Payload.(domain.RelationshipInvitePayload)
		if !ok || p.InvitationID == "" {
			return InvitationRef{}, false
		}
		return InvitationRef{Kind: domain.InvitationKindRelationship, InvitationID: p.InvitationID}, true
	case domain.NotificationTypeCollectionInvitation:
		p, ok := n.Payload.(domain.CollectionInvitePayload)
		if !ok || p.Ref() == "" {
			return InvitationRef{}, false
		}
		return InvitationRef{Kind: domain.InvitationKindCollection, InvitationID: p.Ref()}, true
	default:
		return InvitationRef{}, false
	}
}

// IsInvitationType reports whether the type tag belongs to the invitation
// set, without inspecting the payload.
func (r *NotificationRouter) IsInvitationType(t domain.NotificationType) bool {
	return domain.InvitationNotificationTypes[t]
}

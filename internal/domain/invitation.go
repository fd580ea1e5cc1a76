package domain

import "time"

type InvitationKind string

const (
	InvitationKindRelationship InvitationKind = "relationship"
	InvitationKindCollection   InvitationKind = "collection"
)

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusRejected  InvitationStatus = "rejected"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is permitted.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusRejected || s == InvitationStatusCancelled
}

type RelationshipType string

const (
	RelTypeStudentInvitesSupervisor RelationshipType = "student_invites_supervisor"
	RelTypeSupervisorInvitesStudent RelationshipType = "supervisor_invites_student"
)

// Invitation is a proposed student/supervisor relationship or collection
// access grant awaiting the invitee's decision. SubjectEmailOrID holds an
// email for relationship invites created before the invitee signs up, and a
// user id for collection invites.
type Invitation struct {
	ID               string            `json:"id"`
	Kind             InvitationKind    `json:"kind"`
	SubjectEmailOrID string            `json:"subject"`
	InviterID        string            `json:"inviter_id"`
	RelationshipType RelationshipType  `json:"relationship_type,omitempty"`
	CollectionID     string            `json:"collection_id,omitempty"`
	Status           InvitationStatus  `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	RespondedAt      *time.Time        `json:"responded_at,omitempty"`
	AcceptedBy       string            `json:"accepted_by,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// CustomMessage returns the inviter's free-form message, if any.
func (inv *Invitation) CustomMessage() string {
	if inv.Metadata == nil {
		return ""
	}
	return inv.Metadata["custom_message"]
}

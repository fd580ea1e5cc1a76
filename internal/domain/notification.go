package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationTypeSupervisorInvitation NotificationType = "supervisor_invitation"
	NotificationTypeStudentInvitation    NotificationType = "student_invitation"
	NotificationTypeCollectionInvitation NotificationType = "collection_invitation"
)

// InvitationNotificationTypes is the closed set of notification types that
// reference a pending invitation. Every other type is routed elsewhere and
// ignored by the aggregation core.
var InvitationNotificationTypes = map[NotificationType]bool{
	NotificationTypeSupervisorInvitation: true,
	NotificationTypeStudentInvitation:    true,
	NotificationTypeCollectionInvitation: true,
}

type Notification struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	ActorID   string              `json:"actor_id,omitempty"`
	Type      NotificationType    `json:"type"`
	IsRead    bool                `json:"is_read"`
	Payload   NotificationPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
}

// NotificationPayload is the tagged union carried by a notification row.
// Each variant statically carries exactly the fields its type needs.
type NotificationPayload interface {
	payloadType() NotificationType
}

// RelationshipInvitePayload backs the supervisor_invitation and
// student_invitation types.
type RelationshipInvitePayload struct {
	InvitationID  string `json:"invitationId"`
	CustomMessage string `json:"customMessage,omitempty"`
}

func (RelationshipInvitePayload) payloadType() NotificationType {
	return NotificationTypeSupervisorInvitation
}

// CollectionInvitePayload backs the collection_invitation type. Older rows
// wrote the id under collectionInvitationId, newer ones under invitationId;
// both are accepted on decode.
type CollectionInvitePayload struct {
	InvitationID           string `json:"invitationId,omitempty"`
	CollectionInvitationID string `json:"collectionInvitationId,omitempty"`
}

func (CollectionInvitePayload) payloadType() NotificationType {
	return NotificationTypeCollectionInvitation
}

// Ref returns whichever invitation id field the row carried.
func (p CollectionInvitePayload) Ref() string {
	if p.InvitationID != "" {
		return p.InvitationID
	}
	return p.CollectionInvitationID
}

// OpaquePayload preserves payloads of types this core does not consume.
type OpaquePayload struct {
	Type NotificationType
	Raw  json.RawMessage
}

func (p OpaquePayload) payloadType() NotificationType { return p.Type }

// DecodePayload parses raw payload bytes according to the notification type.
func DecodePayload(t NotificationType, raw []byte) (NotificationPayload, error) {
	switch t {
	case NotificationTypeSupervisorInvitation, NotificationTypeStudentInvitation:
		var p RelationshipInvitePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return p, nil
	case NotificationTypeCollectionInvitation:
		var p CollectionInvitePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
		return p, nil
	default:
		return OpaquePayload{Type: t, Raw: append([]byte(nil), raw...)}, nil
	}
}

// EncodePayload renders a payload union back to row bytes.
func EncodePayload(p NotificationPayload) ([]byte, error) {
	if op, ok := p.(OpaquePayload); ok {
		return op.Raw, nil
	}
	return json.Marshal(p)
}

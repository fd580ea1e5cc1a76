package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mentorlink-backend/internal/domain"
)

func TestNotificationRouter_Classify(t *testing.T) {
	router := NewNotificationRouter()

	t.Run("SupervisorInvitation", func(t *testing.T) {
		ref, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationTypeSupervisorInvitation,
			Payload: domain.RelationshipInvitePayload{InvitationID: "inv-1"},
		})
		assert.True(t, ok)
		assert.Equal(t, InvitationRef{Kind: domain.InvitationKindRelationship, InvitationID: "inv-1"}, ref)
	})

	t.Run("StudentInvitation", func(t *testing.T) {
		ref, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationTypeStudentInvitation,
			Payload: domain.RelationshipInvitePayload{InvitationID: "inv-2", CustomMessage: "join me"},
		})
		assert.True(t, ok)
		assert.Equal(t, "inv-2", ref.InvitationID)
	})

	t.Run("CollectionInvitationNewField", func(t *testing.T) {
		ref, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationTypeCollectionInvitation,
			Payload: domain.CollectionInvitePayload{InvitationID: "cinv-1"},
		})
		assert.True(t, ok)
		assert.Equal(t, InvitationRef{Kind: domain.InvitationKindCollection, InvitationID: "cinv-1"}, ref)
	})

	t.Run("CollectionInvitationLegacyField", func(t *testing.T) {
		ref, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationTypeCollectionInvitation,
			Payload: domain.CollectionInvitePayload{CollectionInvitationID: "cinv-2"},
		})
		assert.True(t, ok)
		assert.Equal(t, "cinv-2", ref.InvitationID)
	})

	t.Run("UnknownTypeIgnored", func(t *testing.T) {
		_, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationType("comment_reply"),
			Payload: domain.OpaquePayload{Type: "comment_reply", Raw: []byte(`{"commentId":"c1"}`)},
		})
		assert.False(t, ok)
	})

	t.Run("MissingReference", func(t *testing.T) {
		_, ok := router.Classify(domain.Notification{
			Type:    domain.NotificationTypeSupervisorInvitation,
			Payload: domain.RelationshipInvitePayload{},
		})
		assert.False(t, ok)
	})
}

func TestNotificationRouter_IsInvitationType(t *testing.T) {
	router := NewNotificationRouter()

	assert.True(t, router.IsInvitationType(domain.NotificationTypeSupervisorInvitation))
	assert.True(t, router.IsInvitationType(domain.NotificationTypeStudentInvitation))
	assert.True(t, router.IsInvitationType(domain.NotificationTypeCollectionInvitation))
	assert.False(t, router.IsInvitationType(domain.NotificationType("comment_reply")))
}

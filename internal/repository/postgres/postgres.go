package postgres

import (
	"database/sql"

	"mentorlink-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB

	RelationshipInvites repository.InviteRepository
	CollectionInvites   repository.InviteRepository
	Notifications       repository.NotificationRepository
	Relationships       repository.RelationshipRepository
	Memberships         repository.MembershipRepository
	DeviceTokens        repository.DeviceTokenRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                  db,
		RelationshipInvites: NewRelationshipInviteRepository(db),
		CollectionInvites:   NewCollectionInviteRepository(db),
		Notifications:       NewNotificationRepository(db),
		Relationships:       NewRelationshipRepository(db),
		Memberships:         NewMembershipRepository(db),
		DeviceTokens:        NewDeviceTokenRepository(db),
	}
}

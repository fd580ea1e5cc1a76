package aggregator

import (
	"context"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/repository"
	"mentorlink-backend/internal/service"
)

// Identity is the invitee as the four sources know them: relationship
// invitations created pre-signup are keyed by email, collection invitations
// and notifications by user id.
type Identity struct {
	UserID string
	Email  string
}

var relationshipNoteTypes = []domain.NotificationType{
	domain.NotificationTypeSupervisorInvitation,
	domain.NotificationTypeStudentInvitation,
}

var collectionNoteTypes = []domain.NotificationType{
	domain.NotificationTypeCollectionInvitation,
}

// Reconciler computes the authoritative aggregate by querying all four
// sources directly. It is the correctness baseline: event handlers never
// mutate counts, they only ask for a fresh reconciliation.
type Reconciler struct {
	relInvites repository.InviteRepository
	colInvites repository.InviteRepository
	notes      repository.NotificationRepository
	router     *service.NotificationRouter
}

func NewReconciler(
	relInvites, colInvites repository.InviteRepository,
	notes repository.NotificationRepository,
	router *service.NotificationRouter,
) *Reconciler {
	return &Reconciler{
		relInvites: relInvites,
		colInvites: colInvites,
		notes:      notes,
		router:     router,
	}
}

// Reconcile recomputes the aggregate whole. With strictDedup false the four
// counts are summed raw, preserving the legacy behavior where an invitation
// that also produced a notification row counts twice. With strictDedup true
// notification rows whose invitation id was already counted from its
// backing table are subtracted.
func (r *Reconciler) Reconcile(ctx context.Context, id Identity, strictDedup bool) (domain.AggregateInvitationState, error) {
	var state domain.AggregateInvitationState

	relPending, err := r.relInvites.ListPendingFor(ctx, id.Email)
	if err != nil {
		return state, err
	}
	colPending, err := r.colInvites.ListPendingFor(ctx, id.UserID)
	if err != nil {
		return state, err
	}

	state.Sources.RelationshipTable = len(relPending)
	state.Sources.CollectionTable = len(colPending)

	if state.Sources.RelationshipNotifications, err = r.notes.CountUnreadInviteTypes(ctx, id.UserID, relationshipNoteTypes); err != nil {
		return state, err
	}
	if state.Sources.CollectionNotifications, err = r.notes.CountUnreadInviteTypes(ctx, id.UserID, collectionNoteTypes); err != nil {
		return state, err
	}

	if !strictDedup {
		state.PendingCount = state.Sources.RawSum()
		return state, nil
	}

	counted := make(map[string]bool, len(relPending)+len(colPending))
	for _, inv := range relPending {
		counted[inv.ID] = true
	}
	for _, inv := range colPending {
		counted[inv.ID] = true
	}

	allTypes := append(append([]domain.NotificationType{}, relationshipNoteTypes...), collectionNoteTypes...)
	rows, err := r.notes.ListUnreadInviteTypes(ctx, id.UserID, allTypes)
	if err != nil {
		return state, err
	}

	state.PendingCount = state.Sources.RelationshipTable + state.Sources.CollectionTable
	for _, n := range rows {
		ref, ok := r.router.Classify(n)
		if ok && counted[ref.InvitationID] {
			continue
		}
		state.PendingCount++
	}
	return state, nil
}

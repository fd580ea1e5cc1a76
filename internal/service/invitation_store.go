package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/repository"

	"github.com/google/uuid"
)

// recordCreator writes the durable record an accepted invitation produces:
// a relationship row for the relationship kind, a collection membership for
// the collection kind. Implementations must be idempotent.
type recordCreator interface {
	createRecord(ctx context.Context, inv *domain.Invitation, actingUserID string) error
}

// invitationStore is the generic pending→terminal state machine. The two
// invitation kinds are two instances of this one type over their own
// backing table and record creator; the behavioral contract (states,
// transitions, delete fallback) is identical.
type invitationStore struct {
	kind       domain.InvitationKind
	inviteRepo repository.InviteRepository
	noteRepo   repository.NotificationRepository
	tokenRepo  repository.DeviceTokenRepository
	records    recordCreator
	pushSvc    PushService
	emailSvc   EmailService
}

func NewRelationshipInvitationService(
	inviteRepo repository.InviteRepository,
	noteRepo repository.NotificationRepository,
	relRepo repository.RelationshipRepository,
	tokenRepo repository.DeviceTokenRepository,
	pushSvc PushService,
	emailSvc EmailService,
) InvitationService {
	return &invitationStore{
		kind:       domain.InvitationKindRelationship,
		inviteRepo: inviteRepo,
		noteRepo:   noteRepo,
		tokenRepo:  tokenRepo,
		records:    &relationshipRecordCreator{relRepo: relRepo},
		pushSvc:    pushSvc,
		emailSvc:   emailSvc,
	}
}

func NewCollectionInvitationService(
	inviteRepo repository.InviteRepository,
	noteRepo repository.NotificationRepository,
	memRepo repository.MembershipRepository,
	tokenRepo repository.DeviceTokenRepository,
	pushSvc PushService,
	emailSvc EmailService,
) InvitationService {
	return &invitationStore{
		kind:       domain.InvitationKindCollection,
		inviteRepo: inviteRepo,
		noteRepo:   noteRepo,
		tokenRepo:  tokenRepo,
		records:    &membershipRecordCreator{memRepo: memRepo},
		pushSvc:    pushSvc,
		emailSvc:   emailSvc,
	}
}

func (s *invitationStore) Create(ctx context.Context, req CreateInvitationRequest) (*domain.Invitation, error) {
	logger.EnterMethod("invitationStore.Create", "kind", s.kind, "inviterID", req.InviterID)

	// Best-effort duplicate check. Two racing creates can both pass it;
	// first accept wins and the loser resolves as AlreadyResolved.
	active, err := s.inviteRepo.HasActive(ctx, req.InviterID, req.SubjectEmailOrID, req.RelationshipType)
	if err != nil {
		logger.ExitMethodWithError("invitationStore.Create", err)
		return nil, err
	}
	if active {
		return nil, domain.ErrDuplicateActive
	}

	inv := &domain.Invitation{
		ID:               uuid.NewString(),
		Kind:             s.kind,
		SubjectEmailOrID: req.SubjectEmailOrID,
		InviterID:        req.InviterID,
		RelationshipType: req.RelationshipType,
		CollectionID:     req.CollectionID,
		Status:           domain.InvitationStatusPending,
		CreatedAt:        time.Now().UTC(),
		Metadata:         req.Metadata,
	}
	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		logger.ExitMethodWithError("invitationStore.Create", err, "invitationID", inv.ID)
		return nil, err
	}

	// The notification row is a projection of the invitation, keyed back to
	// it by id; it only exists when the invitee already has an account.
	if req.InviteeUserID != "" {
		if err := s.noteRepo.Create(ctx, s.projectionRow(inv, req.InviteeUserID)); err != nil {
			logger.Error("failed to create notification projection", "invitationID", inv.ID, "error", err)
		}
	}

	s.deliver(ctx, inv, req.InviterName, req.InviteeUserID)

	logger.ExitMethod("invitationStore.Create", "invitationID", inv.ID)
	return inv, nil
}

func (s *invitationStore) Accept(ctx context.Context, invitationID, actingUserID string) (AcceptResult, error) {
	logger.EnterMethod("invitationStore.Accept", "kind", s.kind, "invitationID", invitationID, "actingUserID", actingUserID)

	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return AcceptResult{}, err
	}

	now := time.Now().UTC()
	inv.Status = domain.InvitationStatusAccepted
	inv.RespondedAt = &now
	inv.AcceptedBy = actingUserID

	if err := s.resolve(ctx, inv); err != nil {
		logger.ExitMethodWithError("invitationStore.Accept", err, "invitationID", invitationID)
		return AcceptResult{}, err
	}

	var result AcceptResult
	if inv.InviterID != "" {
		// A failed record write must not roll back the acceptance. The
		// retry job picks these up; synchronous rollback is not the
		// recovery path.
		if err := s.records.createRecord(ctx, inv, actingUserID); err != nil {
			logger.Error("accepted but record creation failed, leaving for retry job",
				"invitationID", invitationID, "error", err)
		} else {
			result.RelationshipCreated = true
			if err := s.inviteRepo.MarkRecordCreated(ctx, invitationID); err != nil && !errors.Is(err, domain.ErrNotFound) {
				// NotFound here just means the fallback delete already removed
				// the row.
				logger.Error("failed to flag record creation", "invitationID", invitationID, "error", err)
			}
		}
	}

	s.cleanupNotifications(ctx, invitationID)

	logger.ExitMethod("invitationStore.Accept", "invitationID", invitationID, "relationshipCreated", result.RelationshipCreated)
	return result, nil
}

func (s *invitationStore) Reject(ctx context.Context, invitationID, actingUserID string) error {
	logger.EnterMethod("invitationStore.Reject", "kind", s.kind, "invitationID", invitationID)

	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	inv.Status = domain.InvitationStatusRejected
	inv.RespondedAt = &now

	if err := s.resolve(ctx, inv); err != nil {
		logger.ExitMethodWithError("invitationStore.Reject", err, "invitationID", invitationID)
		return err
	}

	s.cleanupNotifications(ctx, invitationID)
	logger.ExitMethod("invitationStore.Reject", "invitationID", invitationID)
	return nil
}

func (s *invitationStore) Cancel(ctx context.Context, invitationID, byInviterID string) error {
	logger.EnterMethod("invitationStore.Cancel", "kind", s.kind, "invitationID", invitationID)

	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.InviterID != byInviterID {
		return fmt.Errorf("%w: only the inviter may cancel", domain.ErrAuthorizationDenied)
	}

	now := time.Now().UTC()
	inv.Status = domain.InvitationStatusCancelled
	inv.RespondedAt = &now

	// Cancellation stays a soft status update; the inviter owns the row, so
	// the permission fallback does not apply here.
	if err := s.inviteRepo.UpdateStatus(ctx, inv); err != nil {
		logger.ExitMethodWithError("invitationStore.Cancel", err, "invitationID", invitationID)
		return err
	}

	s.cleanupNotifications(ctx, invitationID)
	logger.ExitMethod("invitationStore.Cancel", "invitationID", invitationID)
	return nil
}

func (s *invitationStore) Resend(ctx context.Context, invitationID string) error {
	logger.EnterMethod("invitationStore.Resend", "kind", s.kind, "invitationID", invitationID)

	inv, err := s.loadPending(ctx, invitationID)
	if err != nil {
		return err
	}

	// Idempotent retry of the delivery channel only; the invitation record
	// and its id are untouched.
	s.deliver(ctx, inv, "", "")
	logger.ExitMethod("invitationStore.Resend", "invitationID", invitationID)
	return nil
}

func (s *invitationStore) ListPending(ctx context.Context, subjectEmailOrID string) ([]domain.Invitation, error) {
	return s.inviteRepo.ListPendingFor(ctx, subjectEmailOrID)
}

func (s *invitationStore) RetryPendingRecords(ctx context.Context) (int, error) {
	pending, err := s.inviteRepo.ListAcceptedWithoutRecord(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for i := range pending {
		inv := &pending[i]
		if inv.AcceptedBy == "" || inv.InviterID == "" {
			continue
		}
		if err := s.records.createRecord(ctx, inv, inv.AcceptedBy); err != nil {
			logger.Error("record retry failed", "invitationID", inv.ID, "error", err)
			continue
		}
		if err := s.inviteRepo.MarkRecordCreated(ctx, inv.ID); err != nil {
			logger.Error("failed to flag record creation on retry", "invitationID", inv.ID, "error", err)
			continue
		}
		written++
	}
	return written, nil
}

func (s *invitationStore) loadPending(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	inv, err := s.inviteRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.Status.IsTerminal() {
		return nil, domain.ErrAlreadyResolved
	}
	return inv, nil
}

// resolve performs the two-tier terminal transition: prefer the status
// update, fall back to deleting the row when the store's row policy rejects
// the write. Either way the invitation stops being pending, which is the
// only observable outcome the invitee sees.
func (s *invitationStore) resolve(ctx context.Context, inv *domain.Invitation) error {
	err := s.inviteRepo.UpdateStatus(ctx, inv)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrAuthorizationDenied) {
		return err
	}
	logger.Warn("status update denied by row policy, falling back to delete",
		"invitationID", inv.ID, "kind", s.kind, "status", inv.Status)
	return s.inviteRepo.Delete(ctx, inv.ID)
}

// cleanupNotifications removes every projection row referencing the
// invitation, across all recipients. Best effort: a terminal invitation is
// never re-counted even if a row lingers, and the sweep job catches stragglers.
func (s *invitationStore) cleanupNotifications(ctx context.Context, invitationID string) {
	if err := s.noteRepo.DeleteByInvitationID(ctx, invitationID); err != nil {
		logger.Error("failed to delete notification projections", "invitationID", invitationID, "error", err)
	}
}

func (s *invitationStore) projectionRow(inv *domain.Invitation, inviteeUserID string) *domain.Notification {
	n := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    inviteeUserID,
		ActorID:   inv.InviterID,
		Type:      s.notificationType(inv),
		CreatedAt: inv.CreatedAt,
	}
	switch inv.Kind {
	case domain.InvitationKindCollection:
		n.Payload = domain.CollectionInvitePayload{InvitationID: inv.ID}
	default:
		n.Payload = domain.RelationshipInvitePayload{InvitationID: inv.ID, CustomMessage: inv.CustomMessage()}
	}
	return n
}

func (s *invitationStore) notificationType(inv *domain.Invitation) domain.NotificationType {
	if inv.Kind == domain.InvitationKindCollection {
		return domain.NotificationTypeCollectionInvitation
	}
	// student_invites_supervisor lands in the prospective supervisor's inbox
	if inv.RelationshipType == domain.RelTypeStudentInvitesSupervisor {
		return domain.NotificationTypeSupervisorInvitation
	}
	return domain.NotificationTypeStudentInvitation
}

// deliver pushes the invitation out over email and push. Both channels are
// fire and forget; a delivery failure never fails the invitation itself.
func (s *invitationStore) deliver(ctx context.Context, inv *domain.Invitation, inviterName, inviteeUserID string) {
	if s.emailSvc != nil && inv.Kind == domain.InvitationKindRelationship {
		if err := s.emailSvc.SendInvitation(ctx, inv.SubjectEmailOrID, inviterName, inv); err != nil {
			logger.Error("invitation email delivery failed", "invitationID", inv.ID, "error", err)
		}
	}
	if s.pushSvc == nil || s.tokenRepo == nil || inviteeUserID == "" {
		return
	}
	tokens, err := s.tokenRepo.ListForUser(ctx, inviteeUserID)
	if err != nil {
		logger.Error("failed to resolve push tokens", "userID", inviteeUserID, "error", err)
		return
	}
	title, body := s.pushText(inv, inviterName)
	for _, token := range tokens {
		if err := s.pushSvc.Send(ctx, token, title, body, map[string]string{
			"invitationId": inv.ID,
			"kind":         string(inv.Kind),
		}); err != nil {
			logger.Error("push delivery failed", "invitationID", inv.ID, "error", err)
		}
	}
}

func (s *invitationStore) pushText(inv *domain.Invitation, inviterName string) (title, body string) {
	if inviterName == "" {
		inviterName = "Someone"
	}
	switch s.notificationType(inv) {
	case domain.NotificationTypeCollectionInvitation:
		return "Collection invitation", fmt.Sprintf("%s shared a collection with you", inviterName)
	case domain.NotificationTypeSupervisorInvitation:
		return "Supervision request", fmt.Sprintf("%s asked you to be their supervisor", inviterName)
	default:
		return "Invitation", fmt.Sprintf("%s invited you to be their student", inviterName)
	}
}

// relationshipRecordCreator writes the student/supervisor link. Who is the
// student depends on the invite direction: for student_invites_supervisor
// the inviter is the student and the acceptor the supervisor, and the other
// way around for supervisor_invites_student.
type relationshipRecordCreator struct {
	relRepo repository.RelationshipRepository
}

func (c *relationshipRecordCreator) createRecord(ctx context.Context, inv *domain.Invitation, actingUserID string) error {
	rel := &domain.Relationship{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if inv.RelationshipType == domain.RelTypeStudentInvitesSupervisor {
		rel.StudentID = inv.InviterID
		rel.SupervisorID = actingUserID
	} else {
		rel.StudentID = actingUserID
		rel.SupervisorID = inv.InviterID
	}
	return c.relRepo.Create(ctx, rel)
}

type membershipRecordCreator struct {
	memRepo repository.MembershipRepository
}

func (c *membershipRecordCreator) createRecord(ctx context.Context, inv *domain.Invitation, actingUserID string) error {
	return c.memRepo.Create(ctx, &domain.CollectionMembership{
		ID:           uuid.NewString(),
		CollectionID: inv.CollectionID,
		UserID:       actingUserID,
		Role:         "member",
		CreatedAt:    time.Now().UTC(),
	})
}

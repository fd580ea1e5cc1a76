package postgres

import (
	"context"
	"database/sql"
	"strings"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/repository"

	"github.com/lib/pq"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "userID", n.UserID, "type", n.Type)

	payload, err := domain.EncodePayload(n.Payload)
	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "reason", "failed to encode payload")
		return err
	}

	query := `INSERT INTO notifications (id, user_id, actor_id, type, is_read, payload, created_at)
	          VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)

	_, err = r.db.ExecContext(ctx, query, n.ID, n.UserID, n.ActorID, n.Type, n.IsRead, payload, n.CreatedAt)
	if err != nil {
		err = translateError(err)
		logger.ExitMethodWithError("notificationRepository.Create", err, "notificationID", n.ID)
		return err
	}
	logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error) {
	query := `SELECT id, user_id, actor_id, type, is_read, payload, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	notes, err := scanNotifications(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int
	countQuery := `SELECT count(*) FROM notifications WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&count); err != nil {
		return nil, 0, translateError(err)
	}
	return notes, count, nil
}

func (r *notificationRepository) CountUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) (int, error) {
	query := `SELECT count(*) FROM notifications
	          WHERE user_id = $1 AND is_read = FALSE AND type = ANY($2)`
	logger.DatabaseCall("SELECT", "notifications", "userID", userID)
	var count int
	err := r.db.QueryRowContext(ctx, query, userID, pq.Array(typeStrings(types))).Scan(&count)
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *notificationRepository) ListUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) ([]domain.Notification, error) {
	query := `SELECT id, user_id, actor_id, type, is_read, payload, created_at
	          FROM notifications WHERE user_id = $1 AND is_read = FALSE AND type = ANY($2)`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(typeStrings(types)))
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanNotifications(rows)
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return translateError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteByInvitationID(ctx context.Context, invitationID string) error {
	// Rows are deleted, not marked read, so a resolved invitation can never
	// re-enter a future aggregate recomputation. Both payload spellings of
	// the id are matched.
	query := `DELETE FROM notifications
	          WHERE payload->>'invitationId' = $1 OR payload->>'collectionInvitationId' = $1`
	logger.DatabaseCall("DELETE", "notifications", "invitationID", invitationID)
	_, err := r.db.ExecContext(ctx, query, invitationID)
	return translateError(err)
}

func (r *notificationRepository) DeleteResolved(ctx context.Context) (int64, error) {
	// Sweep projection rows whose backing invitation is terminal or deleted.
	query := `DELETE FROM notifications n
	          WHERE n.type = ANY($1)
	            AND NOT EXISTS (
	              SELECT 1 FROM relationship_invitations ri
	               WHERE ri.id = n.payload->>'invitationId' AND ri.status = 'pending')
	            AND NOT EXISTS (
	              SELECT 1 FROM collection_invitations ci
	               WHERE ci.id IN (n.payload->>'invitationId', n.payload->>'collectionInvitationId')
	                 AND ci.status = 'pending')`
	types := make([]domain.NotificationType, 0, len(domain.InvitationNotificationTypes))
	for t := range domain.InvitationNotificationTypes {
		types = append(types, t)
	}
	result, err := r.db.ExecContext(ctx, query, pq.Array(typeStrings(types)))
	if err != nil {
		return 0, translateError(err)
	}
	return result.RowsAffected()
}

func typeStrings(types []domain.NotificationType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func scanNotifications(rows *sql.Rows) ([]domain.Notification, error) {
	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var actorID sql.NullString
		var payload []byte
		var typ string
		if err := rows.Scan(&n.ID, &n.UserID, &actorID, &typ, &n.IsRead, &payload, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ActorID = actorID.String
		n.Type = domain.NotificationType(strings.TrimSpace(typ))
		if len(payload) > 0 {
			p, err := domain.DecodePayload(n.Type, payload)
			if err != nil {
				return nil, err
			}
			n.Payload = p
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

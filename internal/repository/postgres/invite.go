package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/repository"
)

// inviteRepository backs one invitation kind. The relationship and
// collection kinds use structurally identical tables with different row
// policies, so both are instances of this type pointed at their own table.
type inviteRepository struct {
	db    *sql.DB
	table string
	kind  domain.InvitationKind
}

func NewRelationshipInviteRepository(db *sql.DB) repository.InviteRepository {
	return &inviteRepository{db: db, table: "relationship_invitations", kind: domain.InvitationKindRelationship}
}

func NewCollectionInviteRepository(db *sql.DB) repository.InviteRepository {
	return &inviteRepository{db: db, table: "collection_invitations", kind: domain.InvitationKindCollection}
}

const inviteColumns = `id, subject, inviter_id, relationship_type, collection_id, status, metadata, created_at, responded_at, accepted_by`

func (r *inviteRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	logger.EnterMethod("inviteRepository.Create", "table", r.table, "inviterID", inv.InviterID)

	meta, err := json.Marshal(inv.Metadata)
	if err != nil {
		logger.ExitMethodWithError("inviteRepository.Create", err, "reason", "failed to marshal metadata")
		return err
	}

	query := `INSERT INTO ` + r.table + ` (id, subject, inviter_id, relationship_type, collection_id, status, metadata, created_at)
	          VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)`
	logger.DatabaseCall("INSERT", r.table, "invitationID", inv.ID)

	_, err = r.db.ExecContext(ctx, query,
		inv.ID, inv.SubjectEmailOrID, inv.InviterID, string(inv.RelationshipType), inv.CollectionID,
		inv.Status, meta, inv.CreatedAt)
	if err != nil {
		err = translateError(err)
		logger.ExitMethodWithError("inviteRepository.Create", err, "invitationID", inv.ID)
		return err
	}
	logger.ExitMethod("inviteRepository.Create", "invitationID", inv.ID)
	return nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `SELECT ` + inviteColumns + ` FROM ` + r.table + ` WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *inviteRepository) HasActive(ctx context.Context, inviterID, subject string, relType domain.RelationshipType) (bool, error) {
	query := `SELECT count(*) FROM ` + r.table + `
	          WHERE inviter_id = $1 AND subject = $2
	            AND coalesce(relationship_type, '') = $3 AND status = $4`
	var count int
	err := r.db.QueryRowContext(ctx, query, inviterID, subject, string(relType), domain.InvitationStatusPending).Scan(&count)
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *inviteRepository) ListPendingFor(ctx context.Context, subject string) ([]domain.Invitation, error) {
	query := `SELECT ` + inviteColumns + ` FROM ` + r.table + `
	          WHERE subject = $1 AND status = $2 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, subject, domain.InvitationStatusPending)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *inviteRepository) CountPendingFor(ctx context.Context, subject string) (int, error) {
	query := `SELECT count(*) FROM ` + r.table + ` WHERE subject = $1 AND status = $2`
	logger.DatabaseCall("SELECT", r.table, "subject", subject)
	var count int
	err := r.db.QueryRowContext(ctx, query, subject, domain.InvitationStatusPending).Scan(&count)
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *inviteRepository) UpdateStatus(ctx context.Context, inv *domain.Invitation) error {
	query := `UPDATE ` + r.table + ` SET status = $1, responded_at = $2, accepted_by = NULLIF($3, '')
	          WHERE id = $4`
	logger.DatabaseCall("UPDATE", r.table, "invitationID", inv.ID, "status", inv.Status)

	result, err := r.db.ExecContext(ctx, query, inv.Status, inv.RespondedAt, inv.AcceptedBy, inv.ID)
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

func (r *inviteRepository) Delete(ctx context.Context, id string) error {
	logger.DatabaseCall("DELETE", r.table, "invitationID", id)
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
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

func (r *inviteRepository) ListAcceptedWithoutRecord(ctx context.Context) ([]domain.Invitation, error) {
	query := `SELECT ` + inviteColumns + ` FROM ` + r.table + `
	          WHERE status = $1 AND record_created = FALSE ORDER BY responded_at`
	rows, err := r.db.QueryContext(ctx, query, domain.InvitationStatusAccepted)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *inviteRepository) MarkRecordCreated(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE `+r.table+` SET record_created = TRUE WHERE id = $1`, id)
	return translateError(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *inviteRepository) scanOne(row rowScanner) (*domain.Invitation, error) {
	inv := &domain.Invitation{Kind: r.kind}
	var relType, collectionID, acceptedBy sql.NullString
	var meta []byte
	var respondedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.SubjectEmailOrID, &inv.InviterID, &relType, &collectionID,
		&inv.Status, &meta, &inv.CreatedAt, &respondedAt, &acceptedBy)
	if err != nil {
		return nil, translateError(err)
	}
	inv.RelationshipType = domain.RelationshipType(relType.String)
	inv.CollectionID = collectionID.String
	inv.AcceptedBy = acceptedBy.String
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &inv.Metadata); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (r *inviteRepository) scanAll(rows *sql.Rows) ([]domain.Invitation, error) {
	var invs []domain.Invitation
	for rows.Next() {
		inv, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"

	"mentorlink-backend/internal/domain"
	"mentorlink-backend/internal/logger"
	"mentorlink-backend/internal/repository"
)

type relationshipRepository struct {
	db *sql.DB
}

func NewRelationshipRepository(db *sql.DB) repository.RelationshipRepository {
	return &relationshipRepository{db: db}
}

func (r *relationshipRepository) Create(ctx context.Context, rel *domain.Relationship) error {
	// ON CONFLICT keeps the write idempotent on the pair: a double accept or
	// a job retry never produces a second row.
	query := `INSERT INTO relationships (id, student_id, supervisor_id, created_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (student_id, supervisor_id) DO NOTHING`
	logger.DatabaseCall("INSERT", "relationships", "studentID", rel.StudentID, "supervisorID", rel.SupervisorID)
	_, err := r.db.ExecContext(ctx, query, rel.ID, rel.StudentID, rel.SupervisorID, rel.CreatedAt)
	return translateError(err)
}

func (r *relationshipRepository) ExistsForPair(ctx context.Context, studentID, supervisorID string) (bool, error) {
	query := `SELECT count(*) FROM relationships WHERE student_id = $1 AND supervisor_id = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, studentID, supervisorID).Scan(&count); err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.CollectionMembership) error {
	query := `INSERT INTO collection_memberships (id, collection_id, user_id, role, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (collection_id, user_id) DO NOTHING`
	logger.DatabaseCall("INSERT", "collection_memberships", "collectionID", m.CollectionID, "userID", m.UserID)
	_, err := r.db.ExecContext(ctx, query, m.ID, m.CollectionID, m.UserID, m.Role, m.CreatedAt)
	return translateError(err)
}

func (r *membershipRepository) Exists(ctx context.Context, collectionID, userID string) (bool, error) {
	query := `SELECT count(*) FROM collection_memberships WHERE collection_id = $1 AND user_id = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, collectionID, userID).Scan(&count); err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

type deviceTokenRepository struct {
	db *sql.DB
}

func NewDeviceTokenRepository(db *sql.DB) repository.DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

func (r *deviceTokenRepository) ListForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

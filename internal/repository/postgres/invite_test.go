package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorlink-backend/internal/domain"
)

func newInviteMock(t *testing.T) (*inviteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := NewRelationshipInviteRepository(db).(*inviteRepository)
	return repo, mock
}

func inviteRows(inv *domain.Invitation) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "subject", "inviter_id", "relationship_type", "collection_id",
		"status", "metadata", "created_at", "responded_at", "accepted_by",
	}).AddRow(
		inv.ID, inv.SubjectEmailOrID, inv.InviterID, string(inv.RelationshipType), nil,
		string(inv.Status), []byte(`{"custom_message":"please"}`), inv.CreatedAt, nil, nil,
	)
}

func TestInviteRepository_GetByID(t *testing.T) {
	repo, mock := newInviteMock(t)

	inv := &domain.Invitation{
		ID:               "inv-1",
		SubjectEmailOrID: "alice@example.com",
		InviterID:        "bob",
		RelationshipType: domain.RelTypeStudentInvitesSupervisor,
		Status:           domain.InvitationStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	mock.ExpectQuery(`SELECT .+ FROM relationship_invitations WHERE id = \$1`).
		WithArgs("inv-1").
		WillReturnRows(inviteRows(inv))

	got, err := repo.GetByID(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", got.ID)
	assert.Equal(t, domain.InvitationKindRelationship, got.Kind)
	assert.Equal(t, domain.RelTypeStudentInvitesSupervisor, got.RelationshipType)
	assert.Equal(t, "please", got.CustomMessage())
	assert.Nil(t, got.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newInviteMock(t)

	mock.ExpectQuery(`SELECT .+ FROM relationship_invitations WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInviteRepository_UpdateStatus(t *testing.T) {
	inv := &domain.Invitation{ID: "inv-1", Status: domain.InvitationStatusAccepted, AcceptedBy: "alice"}

	t.Run("Success", func(t *testing.T) {
		repo, mock := newInviteMock(t)
		mock.ExpectExec(`UPDATE relationship_invitations SET status = \$1`).
			WithArgs(string(inv.Status), inv.RespondedAt, "alice", "inv-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateStatus(context.Background(), inv))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RowPolicyRejectionMapsToAuthorizationDenied", func(t *testing.T) {
		repo, mock := newInviteMock(t)
		mock.ExpectExec(`UPDATE relationship_invitations SET status = \$1`).
			WillReturnError(&pq.Error{Code: "42501", Message: "permission denied for table relationship_invitations"})

		err := repo.UpdateStatus(context.Background(), inv)
		assert.ErrorIs(t, err, domain.ErrAuthorizationDenied)
	})

	t.Run("ZeroRowsMapsToNotFound", func(t *testing.T) {
		repo, mock := newInviteMock(t)
		mock.ExpectExec(`UPDATE relationship_invitations SET status = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), inv)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInviteRepository_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newInviteMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM relationship_invitations WHERE id = $1`)).
			WithArgs("inv-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "inv-1"))
	})

	t.Run("AlreadyGone", func(t *testing.T) {
		repo, mock := newInviteMock(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM relationship_invitations WHERE id = $1`)).
			WithArgs("inv-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), "inv-1"), domain.ErrNotFound)
	})
}

func TestInviteRepository_CountPendingFor(t *testing.T) {
	repo, mock := newInviteMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM relationship_invitations WHERE subject = \$1 AND status = \$2`).
		WithArgs("alice@example.com", string(domain.InvitationStatusPending)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPendingFor(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInviteRepository_HasActive(t *testing.T) {
	repo, mock := newInviteMock(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM relationship_invitations`).
		WithArgs("bob", "alice@example.com", string(domain.RelTypeStudentInvitesSupervisor), string(domain.InvitationStatusPending)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active, err := repo.HasActive(context.Background(), "bob", "alice@example.com", domain.RelTypeStudentInvitesSupervisor)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestInviteRepository_ListPendingFor(t *testing.T) {
	repo, mock := newInviteMock(t)

	inv := &domain.Invitation{
		ID:               "inv-1",
		SubjectEmailOrID: "alice@example.com",
		InviterID:        "bob",
		RelationshipType: domain.RelTypeStudentInvitesSupervisor,
		Status:           domain.InvitationStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	mock.ExpectQuery(`SELECT .+ FROM relationship_invitations\s+WHERE subject = \$1 AND status = \$2 ORDER BY created_at`).
		WithArgs("alice@example.com", string(domain.InvitationStatusPending)).
		WillReturnRows(inviteRows(inv))

	pending, err := repo.ListPendingFor(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "inv-1", pending[0].ID)
}

func TestInviteRepository_MarkRecordCreated(t *testing.T) {
	repo, mock := newInviteMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE relationship_invitations SET record_created = TRUE WHERE id = $1`)).
		WithArgs("inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkRecordCreated(context.Background(), "inv-1"))
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(sql.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, translateError(&pq.Error{Code: "42501"}), domain.ErrAuthorizationDenied)
	assert.ErrorIs(t, translateError(&pq.Error{Code: "08006"}), domain.ErrTransient)

	other := &pq.Error{Code: "23505"}
	assert.Equal(t, error(other), translateError(other))
}

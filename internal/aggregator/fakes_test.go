package aggregator

import (
	"context"
	"sync"

	"mentorlink-backend/internal/domain"
)

// fakeInviteRepo is an in-memory backing table. It records how often the
// pending list is queried, which is how the tests count reconciliations, and
// implements the full repository contract so the invitation services can run
// against it.
type fakeInviteRepo struct {
	mu         sync.Mutex
	rows       []domain.Invitation
	recordDone map[string]bool
	listErr    error
	calls      int
	block      chan struct{}
	entered    chan struct{}
}

func (f *fakeInviteRepo) setPending(rows []domain.Invitation) {
	f.mu.Lock()
	f.rows = rows
	f.mu.Unlock()
}

func (f *fakeInviteRepo) setListErr(err error) {
	f.mu.Lock()
	f.listErr = err
	f.mu.Unlock()
}

func (f *fakeInviteRepo) setBlocking(entered, block chan struct{}) {
	f.mu.Lock()
	f.entered = entered
	f.block = block
	f.mu.Unlock()
}

func (f *fakeInviteRepo) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeInviteRepo) ListPendingFor(_ context.Context, subject string) ([]domain.Invitation, error) {
	f.mu.Lock()
	f.calls++
	var pending []domain.Invitation
	for _, inv := range f.rows {
		if inv.SubjectEmailOrID == subject && inv.Status == domain.InvitationStatusPending {
			pending = append(pending, inv)
		}
	}
	err := f.listErr
	entered := f.entered
	block := f.block
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
	return pending, err
}

func (f *fakeInviteRepo) Create(_ context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	f.rows = append(f.rows, *inv)
	f.mu.Unlock()
	return nil
}

func (f *fakeInviteRepo) GetByID(_ context.Context, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.rows {
		if inv.ID == id {
			copied := inv
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInviteRepo) HasActive(_ context.Context, inviterID, subject string, relType domain.RelationshipType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.rows {
		if inv.InviterID == inviterID && inv.SubjectEmailOrID == subject &&
			inv.RelationshipType == relType && inv.Status == domain.InvitationStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInviteRepo) CountPendingFor(ctx context.Context, subject string) (int, error) {
	pending, err := f.ListPendingFor(ctx, subject)
	return len(pending), err
}

func (f *fakeInviteRepo) UpdateStatus(_ context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == inv.ID {
			f.rows[i] = *inv
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeInviteRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeInviteRepo) ListAcceptedWithoutRecord(context.Context) ([]domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invitation
	for _, inv := range f.rows {
		if inv.Status == domain.InvitationStatusAccepted && !f.recordDone[inv.ID] {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) MarkRecordCreated(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordDone == nil {
		f.recordDone = map[string]bool{}
	}
	f.recordDone[id] = true
	return nil
}

// fakeNoteRepo is an in-memory notification table.
type fakeNoteRepo struct {
	mu   sync.Mutex
	rows []domain.Notification
}

func (f *fakeNoteRepo) setRows(rows []domain.Notification) {
	f.mu.Lock()
	f.rows = rows
	f.mu.Unlock()
}

func (f *fakeNoteRepo) matching(userID string, types []domain.NotificationType) []domain.Notification {
	set := make(map[domain.NotificationType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.rows {
		if n.UserID == userID && !n.IsRead && set[n.Type] {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNoteRepo) CountUnreadInviteTypes(_ context.Context, userID string, types []domain.NotificationType) (int, error) {
	return len(f.matching(userID, types)), nil
}

func (f *fakeNoteRepo) ListUnreadInviteTypes(_ context.Context, userID string, types []domain.NotificationType) ([]domain.Notification, error) {
	return f.matching(userID, types), nil
}

func (f *fakeNoteRepo) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	f.rows = append(f.rows, *n)
	f.mu.Unlock()
	return nil
}

func (f *fakeNoteRepo) ListForUser(context.Context, string, int, int) ([]domain.Notification, int, error) {
	return nil, 0, nil
}

func (f *fakeNoteRepo) MarkAsRead(context.Context, string, string) error { return nil }

func (f *fakeNoteRepo) DeleteByInvitationID(_ context.Context, invitationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	for _, n := range f.rows {
		if noteRef(n) != invitationID {
			kept = append(kept, n)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeNoteRepo) DeleteResolved(context.Context) (int64, error) { return 0, nil }

func noteRef(n domain.Notification) string {
	switch p := n.Payload.(type) {
	case domain.RelationshipInvitePayload:
		return p.InvitationID
	case domain.CollectionInvitePayload:
		return p.Ref()
	default:
		return ""
	}
}

// fakeRelationshipRepo collects the relationship rows accepted invitations
// produce.
type fakeRelationshipRepo struct {
	mu   sync.Mutex
	rels []domain.Relationship
}

func (f *fakeRelationshipRepo) Create(_ context.Context, rel *domain.Relationship) error {
	f.mu.Lock()
	f.rels = append(f.rels, *rel)
	f.mu.Unlock()
	return nil
}

func (f *fakeRelationshipRepo) ExistsForPair(_ context.Context, studentID, supervisorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rel := range f.rels {
		if rel.StudentID == studentID && rel.SupervisorID == supervisorID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRelationshipRepo) all() []domain.Relationship {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Relationship(nil), f.rels...)
}

// stateRecorder captures every aggregate published through OnChange.
type stateRecorder struct {
	mu     sync.Mutex
	states []domain.AggregateInvitationState
}

func (r *stateRecorder) record(s domain.AggregateInvitationState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *stateRecorder) last() domain.AggregateInvitationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return domain.AggregateInvitationState{}
	}
	return r.states[len(r.states)-1]
}

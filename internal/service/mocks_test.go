package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mentorlink-backend/internal/domain"
)

// MockInviteRepo
type MockInviteRepo struct {
	mock.Mock
}

func (m *MockInviteRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInviteRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}
func (m *MockInviteRepo) HasActive(ctx context.Context, inviterID, subject string, relType domain.RelationshipType) (bool, error) {
	args := m.Called(ctx, inviterID, subject, relType)
	return args.Bool(0), args.Error(1)
}
func (m *MockInviteRepo) ListPendingFor(ctx context.Context, subject string) ([]domain.Invitation, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invitation), args.Error(1)
}
func (m *MockInviteRepo) CountPendingFor(ctx context.Context, subject string) (int, error) {
	args := m.Called(ctx, subject)
	return args.Int(0), args.Error(1)
}
func (m *MockInviteRepo) UpdateStatus(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInviteRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInviteRepo) ListAcceptedWithoutRecord(ctx context.Context) ([]domain.Invitation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invitation), args.Error(1)
}
func (m *MockInviteRepo) MarkRecordCreated(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}
func (m *MockNotificationRepo) CountUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) (int, error) {
	args := m.Called(ctx, userID, types)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationRepo) ListUnreadInviteTypes(ctx context.Context, userID string, types []domain.NotificationType) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, types)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationRepo) DeleteByInvitationID(ctx context.Context, invitationID string) error {
	args := m.Called(ctx, invitationID)
	return args.Error(0)
}
func (m *MockNotificationRepo) DeleteResolved(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRelationshipRepo
type MockRelationshipRepo struct {
	mock.Mock
}

func (m *MockRelationshipRepo) Create(ctx context.Context, rel *domain.Relationship) error {
	args := m.Called(ctx, rel)
	return args.Error(0)
}
func (m *MockRelationshipRepo) ExistsForPair(ctx context.Context, studentID, supervisorID string) (bool, error) {
	args := m.Called(ctx, studentID, supervisorID)
	return args.Bool(0), args.Error(1)
}

// MockMembershipRepo
type MockMembershipRepo struct {
	mock.Mock
}

func (m *MockMembershipRepo) Create(ctx context.Context, mem *domain.CollectionMembership) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}
func (m *MockMembershipRepo) Exists(ctx context.Context, collectionID, userID string) (bool, error) {
	args := m.Called(ctx, collectionID, userID)
	return args.Bool(0), args.Error(1)
}

// MockDeviceTokenRepo
type MockDeviceTokenRepo struct {
	mock.Mock
}

func (m *MockDeviceTokenRepo) ListForUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockPushService
type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	args := m.Called(ctx, token, title, body, data)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendInvitation(ctx context.Context, toEmail, inviterName string, inv *domain.Invitation) error {
	args := m.Called(ctx, toEmail, inviterName, inv)
	return args.Error(0)
}

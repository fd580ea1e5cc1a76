package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"mentorlink-backend/internal/logger"
)

// fcmPushService delivers pushes through Firebase Cloud Messaging.
type fcmPushService struct {
	client *messaging.Client
}

func NewFCMPushService(ctx context.Context, credentialsFile string) (PushService, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fcm client: %w", err)
	}
	return &fcmPushService{client: client}, nil
}

func (s *fcmPushService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm send failed: %w", err)
	}
	logger.Debug("push delivered", "messageID", id)
	return nil
}

// NoopPushService is used when push delivery is disabled (dev, tests).
type NoopPushService struct{}

func (NoopPushService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	logger.Debug("push delivery disabled, dropping message", "title", title)
	return nil
}

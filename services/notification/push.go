package notification

import (
	"context"
	"errors"
	"fmt"

	directoryRepo "barberly/database/repository/directory"
	"barberly/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// ErrNoDeviceToken means the recipient has no registered push target.
// Retrying such a delivery cannot succeed.
var ErrNoDeviceToken = errors.New("recipient has no FCM token")

// Sender is satisfied by *messaging.Client.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService delivers queued dispatches to devices.
type NotificationService interface {
	Deliver(ctx context.Context, p models.NotificationPayload) error
}

// DefaultNotificationService renders templates and pushes them through FCM.
type DefaultNotificationService struct {
	Directory directoryRepo.DirectoryRepository
	Sender    Sender
	Logger    *zap.Logger
}

func NewDefaultNotificationService(
	dir directoryRepo.DirectoryRepository,
	sender Sender,
	logger *zap.Logger,
) (*DefaultNotificationService, error) {
	if dir == nil || sender == nil {
		return nil, fmt.Errorf("notification service initialization error: directory or sender is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Directory: dir, Sender: sender, Logger: logger}, nil
}

func (s *DefaultNotificationService) Deliver(ctx context.Context, p models.NotificationPayload) error {
	title, body, err := Render(p.TemplateKey, p.Fields)
	if err != nil {
		return fmt.Errorf("Deliver: %w", err)
	}
	token, err := s.deviceToken(ctx, p.RecipientID, p.RecipientRole)
	if err != nil {
		return fmt.Errorf("Deliver: %w", err)
	}

	data := map[string]string{
		"type":      p.TemplateKey,
		"role":      string(p.RecipientRole),
		"bookingId": p.BookingID,
	}
	for k, v := range p.Fields {
		data[k] = v
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	id, err := s.Sender.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("Deliver: failed to send FCM message: %w", err)
	}
	s.Logger.Debug("Push sent",
		zap.String("messageID", id),
		zap.String("template", p.TemplateKey),
		zap.String("recipient", p.RecipientID))
	return nil
}

// deviceToken finds the FCM token for a recipient. Shop owners who also take
// bookings have a provider record; otherwise their account is a customer one.
func (s *DefaultNotificationService) deviceToken(ctx context.Context, id string, role models.RecipientRole) (string, error) {
	switch role {
	case models.RecipientCustomer:
		c, err := s.Directory.GetCustomer(ctx, id)
		if err != nil {
			return "", fmt.Errorf("could not find customer %s: %w", id, err)
		}
		return tokenOrErr(c.FCMToken, id)
	case models.RecipientProvider:
		p, err := s.Directory.GetProvider(ctx, id)
		if err != nil {
			return "", fmt.Errorf("could not find provider %s: %w", id, err)
		}
		return tokenOrErr(p.FCMToken, id)
	case models.RecipientShopOwner:
		p, err := s.Directory.GetProvider(ctx, id)
		if err == nil && p.FCMToken != "" {
			return p.FCMToken, nil
		}
		if err != nil && !errors.Is(err, directoryRepo.ErrNotFound) {
			return "", fmt.Errorf("could not load shop owner %s: %w", id, err)
		}
		c, err := s.Directory.GetCustomer(ctx, id)
		if err != nil {
			if errors.Is(err, directoryRepo.ErrNotFound) {
				return "", fmt.Errorf("shop owner %s: %w", id, ErrNoDeviceToken)
			}
			return "", fmt.Errorf("could not load shop owner %s: %w", id, err)
		}
		return tokenOrErr(c.FCMToken, id)
	}
	return "", fmt.Errorf("unknown recipient role %q", role)
}

func tokenOrErr(token, id string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%s: %w", id, ErrNoDeviceToken)
	}
	return token, nil
}

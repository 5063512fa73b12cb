package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/apihub-auth/internal/events"
	"github.com/spec-kit/apihub-auth/internal/mail"
)

// NotificationService turns session lifecycle events into outbound email.
// Delivery is best-effort: failures are logged and never surfaced to the
// request that produced the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     *mail.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer *mail.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEmailVerificationRequested, n.handleVerificationRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handleResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handlePasswordChanged)
}

func (n *NotificationService) handleVerificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OneTimeTokenPayload)
	if !ok {
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome! Please verify your email by opening the link below:\n\n%s\n\nThe link expires at %s.\n",
		event.Username, n.mailer.VerificationURL(payload.Token), payload.ExpiresAt.UTC().Format("15:04 MST, Jan 2 2006"))

	if err := n.mailer.Send(ctx, event.Email, "Verify your email", body); err != nil {
		n.logger.Error("verification mail failed", zap.String("user_id", event.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.OneTimeTokenPayload)
	if !ok {
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s,\n\nWe got a request to reset the password of your account. Open the link below to continue:\n\n%s\n\nThe link expires at %s. If you did not request this, ignore this mail.\n",
		event.Username, n.mailer.PasswordResetURL(payload.Token), payload.ExpiresAt.UTC().Format("15:04 MST, Jan 2 2006"))

	if err := n.mailer.Send(ctx, event.Email, "Reset your password", body); err != nil {
		n.logger.Error("password reset mail failed", zap.String("user_id", event.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("password changed", zap.String("user_id", event.UserID))
	return nil
}

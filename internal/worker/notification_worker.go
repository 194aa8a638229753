package worker

// notification_worker.go
// Persists queued notifications and, when SMTP is configured and the user
// has an e-mail address, mails a copy.

import (
	"context"
	"encoding/json"
	"fmt"

	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type NotificationJobPayload struct {
	UserID   string `json:"user_id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

// NotificationMailer is satisfied by *infra.Mailer.
type NotificationMailer interface {
	Enabled() bool
	SendNotification(to, title, message string) error
}

type NotificationWorker struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        NotificationMailer
}

func NewNotificationWorker(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	mailer NotificationMailer,
) *NotificationWorker {
	return &NotificationWorker{notifications: notifications, users: users, mailer: mailer}
}

// Process stores the notification. Once the row exists the job counts as
// done: a mail failure is logged, not retried, so the row is never duplicated.
func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotificationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return nil
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		log.Error().Str("user_id", payload.UserID).Msg("notification_worker: invalid user_id")
		return nil
	}

	n := &model.Notification{
		UserID:   userID,
		Title:    payload.Title,
		Message:  payload.Message,
		Category: payload.Category,
	}
	if err := w.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if w.mailer == nil || !w.mailer.Enabled() {
		return nil
	}
	user, err := w.users.FindByID(ctx, userID)
	if err != nil || user.Email == nil || *user.Email == "" {
		return nil
	}
	if err := w.mailer.SendNotification(*user.Email, payload.Title, payload.Message); err != nil {
		log.Warn().Err(err).Str("user_id", payload.UserID).Msg("notification_worker: e-mail not sent")
	}
	return nil
}

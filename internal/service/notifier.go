package service

import (
	"context"
	"strings"

	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier is the notification sink: it receives (user, title, message,
// category) tuples and owns delivery. worker.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, category string) error
}

var (
	staffRoles = []string{model.RoleChef, model.RoleAdmin}
	adminRoles = []string{model.RoleAdmin}
)

type notice struct {
	userID   uuid.UUID
	roles    []string // fan out to every active user holding one of these roles
	title    string
	message  string
	category string
}

// outbox collects notices while a transaction runs. It is flushed only after
// the transaction commits; a rolled-back operation simply drops it.
type outbox struct{ notices []notice }

func (o *outbox) toUser(userID uuid.UUID, title, message, category string) {
	o.notices = append(o.notices, notice{userID: userID, title: title, message: message, category: category})
}

func (o *outbox) toRoles(roles []string, title, message, category string) {
	o.notices = append(o.notices, notice{roles: roles, title: title, message: message, category: category})
}

// alerter delivers outboxes. Delivery is fire-and-forget: failures are logged
// and never reach the caller of the business operation.
type alerter struct {
	notifier Notifier
	users    repository.UserRepository
}

func (a alerter) flush(ctx context.Context, o *outbox) {
	if a.notifier == nil || o == nil || len(o.notices) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	recipients := make(map[string][]model.User)
	for _, n := range o.notices {
		if len(n.roles) == 0 {
			a.send(ctx, n.userID, n)
			continue
		}
		key := strings.Join(n.roles, ",")
		users, ok := recipients[key]
		if !ok {
			var err error
			users, err = a.users.ListByRole(ctx, n.roles...)
			if err != nil {
				log.Warn().Err(err).Str("roles", key).Msg("notification: no recipients resolved")
				continue
			}
			recipients[key] = users
		}
		for _, u := range users {
			a.send(ctx, u.ID, n)
		}
	}
}

func (a alerter) send(ctx context.Context, userID uuid.UUID, n notice) {
	if err := a.notifier.Notify(ctx, userID, n.title, n.message, n.category); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID.String()).
			Str("title", n.title).
			Msg("notification dropped")
	}
}

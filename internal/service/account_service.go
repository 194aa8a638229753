package service

import (
	"context"
	"fmt"

	"schoolfood/internal/dto"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountService interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*dto.BalanceResponse, error)
	Balance(ctx context.Context, userID uuid.UUID) (*dto.BalanceResponse, error)
	Notifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]dto.NotificationResponse, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type accountService struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	alerts        alerter
	maxTopUp      decimal.Decimal
}

func NewAccountService(
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	maxTopUp decimal.Decimal,
) AccountService {
	return &accountService{
		users:         users,
		notifications: notifications,
		alerts:        alerter{notifier: notifier, users: users},
		maxTopUp:      maxTopUp,
	}
}

// TopUp credits the user's balance. amount must be in (0, maxTopUp].
func (s *accountService) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*dto.BalanceResponse, error) {
	if !amount.IsPositive() || (s.maxTopUp.IsPositive() && amount.GreaterThan(s.maxTopUp)) {
		return nil, ErrInvalidQuantity
	}

	var balance decimal.Decimal
	box := &outbox{}
	err := runTx(ctx, s.users.DB(), func(tx *gorm.DB) error {
		user, err := s.users.FindByIDForUpdateTx(tx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		balance = user.Balance.Add(amount)
		if err := s.users.UpdateBalanceTx(tx, userID, balance); err != nil {
			return err
		}
		box.toUser(userID, "Balance topped up",
			fmt.Sprintf("Added %s. Balance: %s.", amount.StringFixed(2), balance.StringFixed(2)),
			model.NotifyPayment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.alerts.flush(ctx, box)
	return &dto.BalanceResponse{UserID: userID.String(), Balance: balance}, nil
}

func (s *accountService) Balance(ctx context.Context, userID uuid.UUID) (*dto.BalanceResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &dto.BalanceResponse{UserID: user.ID.String(), Balance: user.Balance}, nil
}

func (s *accountService) Notifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]dto.NotificationResponse, error) {
	items, err := s.notifications.ListByUser(ctx, userID, unreadOnly)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, dto.NotificationResponse{
			ID:        n.ID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Category:  n.Category,
			IsRead:    n.IsRead,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	return out, nil
}

func (s *accountService) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return notFound(s.notifications.MarkRead(ctx, userID, notificationID), "notification")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schoolfood/internal/dto"
	"schoolfood/internal/model"
	"schoolfood/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MealsPerWeek         = 5
	MaxSubscriptionWeeks = 12
)

// SubscriptionService gates subscription-funded orders and sells
// subscriptions. A subscription covers at most one order per meal type per
// day and deactivates itself when used up.
type SubscriptionService interface {
	CanUse(ctx context.Context, userID uuid.UUID, mealType string, onDate time.Time) (bool, error)
	// UsableTx locks and returns the subscription that may fund an order on
	// onDate, or ErrSubscriptionUnavailable.
	UsableTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, mealType string, onDate time.Time) (*model.Subscription, error)
	// Consume must run in the same transaction that creates the order.
	Consume(ctx context.Context, tx *gorm.DB, sub *model.Subscription) error
	Purchase(ctx context.Context, userID uuid.UUID, mealType string, weeks int) (*dto.SubscriptionResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionResponse, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	repo   repository.SubscriptionRepository
	orders repository.OrderRepository
	users  repository.UserRepository
	alerts alerter
	clock  Clock
	prices map[string]decimal.Decimal
}

// NewSubscriptionService takes the weekly base price per meal type. Meal
// types missing from prices cannot be subscribed to.
func NewSubscriptionService(
	repo repository.SubscriptionRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	notifier Notifier,
	clock Clock,
	prices map[string]decimal.Decimal,
) SubscriptionService {
	return &subscriptionService{
		repo:   repo,
		orders: orders,
		users:  users,
		alerts: alerter{notifier: notifier, users: users},
		clock:  clock,
		prices: prices,
	}
}

func usableOn(sub *model.Subscription, day time.Time) bool {
	return sub.IsActive && sub.Covers(day) && sub.UsedMeals < sub.MealsPerWeek
}

func (s *subscriptionService) CanUse(ctx context.Context, userID uuid.UUID, mealType string, onDate time.Time) (bool, error) {
	day := DateOf(onDate)
	sub, err := s.repo.FindActive(ctx, userID, mealType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !usableOn(sub, day) {
		return false, nil
	}
	n, err := s.orders.CountSubscriptionOrders(ctx, nil, userID, mealType, day)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *subscriptionService) UsableTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, mealType string, onDate time.Time) (*model.Subscription, error) {
	day := DateOf(onDate)
	sub, err := s.repo.FindActiveForUpdateTx(tx, userID, mealType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no active %s subscription", ErrSubscriptionUnavailable, mealType)
	}
	if err != nil {
		return nil, err
	}
	if !usableOn(sub, day) {
		return nil, fmt.Errorf("%w: subscription does not cover %s", ErrSubscriptionUnavailable, formatDate(day))
	}
	n, err := s.orders.CountSubscriptionOrders(ctx, tx, userID, mealType, day)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: already used for %s on %s", ErrSubscriptionUnavailable, mealType, formatDate(day))
	}
	return sub, nil
}

func (s *subscriptionService) Consume(ctx context.Context, tx *gorm.DB, sub *model.Subscription) error {
	if !sub.IsActive || sub.UsedMeals >= sub.MealsPerWeek {
		return ErrSubscriptionUnavailable
	}
	sub.UsedMeals++
	if sub.UsedMeals == sub.MealsPerWeek {
		sub.IsActive = false
	}
	return s.repo.UpdateTx(tx, sub)
}

// ── Purchase ──────────────────────────────────────────────────────────────────
// The user row lock serialises concurrent purchases by the same user; the
// partial unique index on (user_id, meal_type) WHERE is_active backs it.

func (s *subscriptionService) Purchase(ctx context.Context, userID uuid.UUID, mealType string, weeks int) (*dto.SubscriptionResponse, error) {
	base, ok := s.prices[mealType]
	if !ok {
		return nil, ErrInvalidMealType
	}
	if weeks < 1 || weeks > MaxSubscriptionWeeks {
		return nil, ErrInvalidQuantity
	}
	price := base.Mul(decimal.NewFromInt(int64(weeks)))

	var sub *model.Subscription
	box := &outbox{}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		user, err := s.users.FindByIDForUpdateTx(tx, userID)
		if err != nil {
			return notFound(err, "user")
		}

		today := s.clock.today()
		if _, err := s.repo.DeactivateExpiredTx(tx, userID, mealType, today); err != nil {
			return err
		}
		_, err = s.repo.FindActiveForUpdateTx(tx, userID, mealType)
		if err == nil {
			return ErrDuplicateActiveSubscription
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if user.Balance.LessThan(price) {
			return fmt.Errorf("%w: subscription costs %s, balance is %s", ErrInsufficientBalance, price.StringFixed(2), user.Balance.StringFixed(2))
		}
		balance := user.Balance.Sub(price)
		if err := s.users.UpdateBalanceTx(tx, userID, balance); err != nil {
			return err
		}

		sub = &model.Subscription{
			UserID:       userID,
			MealType:     mealType,
			StartDate:    today,
			EndDate:      today.AddDate(0, 0, 7*weeks),
			MealsPerWeek: MealsPerWeek,
			IsActive:     true,
		}
		if err := s.repo.CreateTx(tx, sub); err != nil {
			return err
		}

		box.toUser(userID, "Subscription purchased",
			fmt.Sprintf("%s subscription for %d week(s) until %s. Charged %s, balance %s.",
				mealType, weeks, formatDate(sub.EndDate), price.StringFixed(2), balance.StringFixed(2)),
			model.NotifyPayment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.alerts.flush(ctx, box)
	log.Info().Str("user_id", userID.String()).Str("meal_type", mealType).Int("weeks", weeks).Msg("subscription: purchased")
	resp := subscriptionToResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) List(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionResponse, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, subscriptionToResponse(&subs[i]))
	}
	return out, nil
}

// ExpireStale deactivates every subscription whose end date has passed.
func (s *subscriptionService) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.DeactivateAllExpired(ctx, s.clock.today())
}

func subscriptionToResponse(s *model.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:             s.ID.String(),
		MealType:       s.MealType,
		StartDate:      formatDate(s.StartDate),
		EndDate:        formatDate(s.EndDate),
		MealsPerWeek:   s.MealsPerWeek,
		UsedMeals:      s.UsedMeals,
		MealsRemaining: s.MealsRemaining(),
		IsActive:       s.IsActive,
	}
}

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

type PlaceOrderInput struct {
	UserID        uuid.UUID
	MealID        uuid.UUID
	MealDate      time.Time
	PaymentMethod string
	// DrinkID adds a drink as a second order for the same day. It is free
	// when the meal is paid by subscription.
	DrinkID *uuid.UUID
}

// FulfillmentService hands out prepared portions to orders.
//
// Allocation is FEFO: among the meal's batches with quantity > 0 and an
// expiry date on or after the meal date, the one expiring first is used.
// Equal expiry dates resolve to the lowest batch id. AvailableQuantity sums
// exactly the batches Allocate may pick, so AvailableQuantity > 0 iff
// Allocate succeeds.
type FulfillmentService interface {
	AvailableQuantity(ctx context.Context, mealID uuid.UUID, onDate time.Time) (int, error)
	Allocate(ctx context.Context, tx *gorm.DB, mealID uuid.UUID, onDate time.Time) (*model.PreparedBatch, error)

	// PlaceOrder allocates the meal and the optional drink in one
	// transaction. Either both orders exist afterwards or neither does.
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*dto.OrderResponse, error)
	PayOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error)
	ServeOrder(ctx context.Context, staffID, orderID uuid.UUID) (*dto.OrderResponse, error)
	ReceiveOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error)

	// Menu uses today when onDate is zero.
	Menu(ctx context.Context, mealType string, onDate time.Time) ([]dto.MenuItemResponse, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]dto.OrderResponse, error)
}

type fulfillmentService struct {
	orders  repository.OrderRepository
	batches repository.BatchRepository
	meals   repository.MealRepository
	users   repository.UserRepository
	subs    SubscriptionService
	alerts  alerter
	clock   Clock
}

func NewFulfillmentService(
	orders repository.OrderRepository,
	batches repository.BatchRepository,
	meals repository.MealRepository,
	users repository.UserRepository,
	subs SubscriptionService,
	notifier Notifier,
	clock Clock,
) FulfillmentService {
	return &fulfillmentService{
		orders:  orders,
		batches: batches,
		meals:   meals,
		users:   users,
		subs:    subs,
		alerts:  alerter{notifier: notifier, users: users},
		clock:   clock,
	}
}

// ── Prepared-stock pool ───────────────────────────────────────────────────────

func (s *fulfillmentService) AvailableQuantity(ctx context.Context, mealID uuid.UUID, onDate time.Time) (int, error) {
	return s.batches.SumAvailable(ctx, mealID, DateOf(onDate))
}

func (s *fulfillmentService) Allocate(ctx context.Context, tx *gorm.DB, mealID uuid.UUID, onDate time.Time) (*model.PreparedBatch, error) {
	b, err := s.batches.FindFirstEligibleForUpdateTx(tx, mealID, DateOf(onDate))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoStock
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.batches.DecrementTx(tx, b.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoStock
	}
	b.Quantity--
	return b, nil
}

// ── PlaceOrder ────────────────────────────────────────────────────────────────
//   1. Validate payment method, meal date, meal and drink (outside TX)
//   2. BEGIN TX
//      subscription: lock subscription, gate on the meal's type
//      one-time:     lock user, check balance covers meal + drink
//      allocate and create one order per line, consume the subscription
//   3. COMMIT, then notify student, kitchen and (at one portion left) staff

func (s *fulfillmentService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*dto.OrderResponse, error) {
	if in.PaymentMethod != model.PaymentOneTime && in.PaymentMethod != model.PaymentSubscription {
		return nil, ErrInvalidPaymentMethod
	}
	day := DateOf(in.MealDate)
	if day.Before(s.clock.today()) {
		return nil, ErrInvalidMealDate
	}
	meal, err := s.meals.FindByID(ctx, in.MealID)
	if err != nil {
		return nil, notFound(err, "meal")
	}
	if !meal.IsAvailable {
		return nil, ErrMealUnavailable
	}
	var drink *model.Meal
	if in.DrinkID != nil {
		if drink, err = s.meals.FindByID(ctx, *in.DrinkID); err != nil {
			return nil, notFound(err, "drink")
		}
		if drink.MealType != model.MealTypeDrink {
			return nil, ErrInvalidDrink
		}
		if !drink.IsAvailable {
			return nil, ErrMealUnavailable
		}
	}

	label, due := meal.Name, meal.Price
	if drink != nil {
		label = meal.Name + " with " + drink.Name
		due = due.Add(drink.Price)
	}

	var order, drinkOrder *model.Order
	box := &outbox{}
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var (
			sub *model.Subscription
			err error
		)
		if in.PaymentMethod == model.PaymentSubscription {
			if sub, err = s.subs.UsableTx(ctx, tx, in.UserID, meal.MealType, day); err != nil {
				return err
			}
		} else {
			user, err := s.users.FindByIDForUpdateTx(tx, in.UserID)
			if err != nil {
				return notFound(err, "user")
			}
			if user.Balance.LessThan(due) {
				return fmt.Errorf("%w: %s costs %s, balance is %s",
					ErrInsufficientBalance, label, due.StringFixed(2), user.Balance.StringFixed(2))
			}
		}

		if order, err = s.placeLine(ctx, tx, box, in, meal, day); err != nil {
			return err
		}
		if drink != nil {
			if drinkOrder, err = s.placeLine(ctx, tx, box, in, drink, day); err != nil {
				return err
			}
		}

		if sub != nil {
			if err := s.subs.Consume(ctx, tx, sub); err != nil {
				return err
			}
			box.toUser(in.UserID, "Order placed",
				fmt.Sprintf("%s on %s, paid by subscription. Meals left this week: %d.",
					label, formatDate(day), sub.MealsRemaining()),
				model.NotifyOrder)
		} else {
			box.toUser(in.UserID, "Order placed",
				fmt.Sprintf("%s on %s. Pay %s to confirm.", label, formatDate(day), due.StringFixed(2)),
				model.NotifyOrder)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.alerts.flush(ctx, box)
	ev := log.Info().
		Str("order_id", order.ID.String()).
		Str("meal_id", meal.ID.String()).
		Str("batch_id", order.BatchID.String()).
		Str("payment_method", order.PaymentMethod)
	if drinkOrder != nil {
		ev = ev.Str("drink_order_id", drinkOrder.ID.String())
	}
	ev.Msg("order: placed")

	resp := orderToResponse(order, meal.Name)
	if drinkOrder != nil {
		d := orderToResponse(drinkOrder, drink.Name)
		resp.Drink = &d
	}
	return &resp, nil
}

// placeLine takes one portion of m FEFO and records its order. Subscription
// lines are paid at price zero; one-time lines wait for PayOrder.
func (s *fulfillmentService) placeLine(ctx context.Context, tx *gorm.DB, box *outbox, in PlaceOrderInput, m *model.Meal, day time.Time) (*model.Order, error) {
	batch, err := s.Allocate(ctx, tx, m.ID, day)
	if err != nil {
		return nil, err
	}
	o := &model.Order{
		UserID:        in.UserID,
		MealID:        m.ID,
		BatchID:       &batch.ID,
		MealDate:      day,
		MealType:      m.MealType,
		PaymentMethod: in.PaymentMethod,
	}
	if in.PaymentMethod == model.PaymentSubscription {
		now := s.clock.now()
		o.Status = model.OrderPaid
		o.TotalPrice = decimal.Zero
		o.PaidAt = &now
	} else {
		o.Status = model.OrderPending
		o.TotalPrice = m.Price
	}
	if err := s.orders.CreateTx(tx, o); err != nil {
		return nil, err
	}

	box.toRoles([]string{model.RoleChef}, "New order",
		fmt.Sprintf("%s ordered for %s.", m.Name, formatDate(day)), model.NotifyOrder)
	if batch.Quantity == 1 {
		box.toRoles(staffRoles, "Low prepared stock",
			fmt.Sprintf("Only one portion of %s left in batch %s.", m.Name, batch.ID), model.NotifyInventory)
	}
	return o, nil
}

// ── Order state transitions ───────────────────────────────────────────────────

// PayOrder charges a pending one-time order to the owner's balance.
func (s *fulfillmentService) PayOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	var order *model.Order
	box := &outbox{}
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.FindByIDForUpdateTx(tx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if order.UserID != userID {
			return ErrForbidden
		}
		if order.Status != model.OrderPending {
			return ErrAlreadyProcessed
		}
		user, err := s.users.FindByIDForUpdateTx(tx, userID)
		if err != nil {
			return notFound(err, "user")
		}
		if user.Balance.LessThan(order.TotalPrice) {
			return fmt.Errorf("%w: order costs %s, balance is %s",
				ErrInsufficientBalance, order.TotalPrice.StringFixed(2), user.Balance.StringFixed(2))
		}
		balance := user.Balance.Sub(order.TotalPrice)
		if err := s.users.UpdateBalanceTx(tx, userID, balance); err != nil {
			return err
		}

		now := s.clock.now()
		order.Status = model.OrderPaid
		order.PaidAt = &now
		if err := s.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		box.toUser(userID, "Order paid",
			fmt.Sprintf("Charged %s. Balance: %s.", order.TotalPrice.StringFixed(2), balance.StringFixed(2)),
			model.NotifyPayment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.alerts.flush(ctx, box)
	return s.respond(ctx, order), nil
}

// ServeOrder is the kitchen handing a paid order over.
func (s *fulfillmentService) ServeOrder(ctx context.Context, staffID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	return s.markServed(ctx, orderID, func(o *model.Order) error {
		o.ServedBy = &staffID
		return nil
	})
}

// ReceiveOrder is the student confirming they picked up their own order.
func (s *fulfillmentService) ReceiveOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	return s.markServed(ctx, orderID, func(o *model.Order) error {
		if o.UserID != userID {
			return ErrForbidden
		}
		return nil
	})
}

func (s *fulfillmentService) markServed(ctx context.Context, orderID uuid.UUID, check func(o *model.Order) error) (*dto.OrderResponse, error) {
	var order *model.Order
	box := &outbox{}
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.FindByIDForUpdateTx(tx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if err := check(order); err != nil {
			return err
		}
		switch order.Status {
		case model.OrderServed:
			return ErrAlreadyProcessed
		case model.OrderPaid:
		default:
			return ErrNotPaid
		}
		now := s.clock.now()
		order.Status = model.OrderServed
		order.IsServed = true
		order.ServedAt = &now
		if err := s.orders.UpdateTx(tx, order); err != nil {
			return err
		}
		box.toUser(order.UserID, "Order served",
			fmt.Sprintf("Your order for %s has been served. Enjoy your meal!", formatDate(order.MealDate)),
			model.NotifyOrder)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.alerts.flush(ctx, box)
	return s.respond(ctx, order), nil
}

func (s *fulfillmentService) respond(ctx context.Context, o *model.Order) *dto.OrderResponse {
	name := ""
	if meal, err := s.meals.FindByID(ctx, o.MealID); err == nil {
		name = meal.Name
	}
	resp := orderToResponse(o, name)
	return &resp
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// Menu lists available meals that still have at least one portion on onDate.
func (s *fulfillmentService) Menu(ctx context.Context, mealType string, onDate time.Time) ([]dto.MenuItemResponse, error) {
	day := s.clock.today()
	if !onDate.IsZero() {
		day = DateOf(onDate)
	}
	meals, err := s.meals.List(ctx, repository.MealFilter{MealType: mealType, OnlyAvailable: true})
	if err != nil {
		return nil, err
	}
	out := make([]dto.MenuItemResponse, 0, len(meals))
	for i := range meals {
		m := &meals[i]
		batches, err := s.batches.ListEligible(ctx, m.ID, day)
		if err != nil {
			return nil, err
		}
		item := dto.MenuItemResponse{
			ID:          m.ID.String(),
			Name:        m.Name,
			Description: m.Description,
			MealType:    m.MealType,
			Price:       m.Price,
			Calories:    m.Calories,
			Allergens:   m.Allergens,
			Batches:     make([]dto.BatchResponse, 0, len(batches)),
		}
		for j := range batches {
			item.Available += batches[j].Quantity
			item.Batches = append(item.Batches, BatchToResponse(&batches[j]))
		}
		if item.Available > 0 {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fulfillmentService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]dto.OrderResponse, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		name := ""
		if orders[i].Meal != nil {
			name = orders[i].Meal.Name
		}
		out = append(out, orderToResponse(&orders[i], name))
	}
	return out, nil
}

func orderToResponse(o *model.Order, mealName string) dto.OrderResponse {
	r := dto.OrderResponse{
		ID:            o.ID.String(),
		UserID:        o.UserID.String(),
		MealID:        o.MealID.String(),
		Meal:          mealName,
		MealDate:      formatDate(o.MealDate),
		MealType:      o.MealType,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		TotalPrice:    o.TotalPrice,
		IsServed:      o.IsServed,
		ServedAt:      formatTimePtr(o.ServedAt),
		PaidAt:        formatTimePtr(o.PaidAt),
		CreatedAt:     formatTime(o.CreatedAt),
	}
	if o.BatchID != nil {
		id := o.BatchID.String()
		r.BatchID = &id
	}
	return r
}

// BatchToResponse renders a prepared batch for API output.
func BatchToResponse(b *model.PreparedBatch) dto.BatchResponse {
	r := dto.BatchResponse{
		ID:           b.ID.String(),
		MealID:       b.MealID.String(),
		Quantity:     b.Quantity,
		PreparedDate: formatDate(b.PreparedDate),
		Notes:        b.Notes,
	}
	if b.ExpiryDate != nil {
		d := formatDate(*b.ExpiryDate)
		r.ExpiryDate = &d
	}
	if b.PreparerID != nil {
		p := b.PreparerID.String()
		r.PreparerID = &p
	}
	return r
}

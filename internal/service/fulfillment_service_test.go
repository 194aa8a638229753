package service_test

import (
	"context"
	"testing"
	"time"

	"schoolfood/internal/model"
	"schoolfood/internal/repository"
	"schoolfood/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_FirstExpiringFirstOut(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	id1, id2 := uuid.New(), uuid.New()
	k.batches.add(id1, soup, 2, "2024-01-05")
	k.batches.add(id2, soup, 3, "2024-01-03")

	b, err := k.fulfillment.Allocate(context.Background(), nil, soup.ID, day("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, id2, b.ID)
	assert.Equal(t, 2, b.Quantity)
	assert.Equal(t, 2, k.batches.batches[id2].Quantity)
	assert.Equal(t, 2, k.batches.batches[id1].Quantity)
}

func TestAllocate_TieBreaksOnLowestID(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	a, b := uuid.New(), uuid.New()
	if !uuidLess(a, b) {
		a, b = b, a
	}
	k.batches.add(b, soup, 1, "2024-01-03")
	k.batches.add(a, soup, 1, "2024-01-03")

	got, err := k.fulfillment.Allocate(context.Background(), nil, soup.ID, day("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, a, got.ID)
}

func TestAllocate_SkipsExpiredAndEmptyBatches(t *testing.T) {
	k := newKitchen("2024-01-04")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	k.batches.add(uuid.New(), soup, 5, "2024-01-03")
	k.batches.add(uuid.New(), soup, 0, "2024-01-09")
	noExpiry := uuid.New()
	k.batches.batches[noExpiry] = &model.PreparedBatch{ID: noExpiry, MealID: soup.ID, Quantity: 4}

	n, err := k.fulfillment.AvailableQuantity(context.Background(), soup.ID, day("2024-01-04"))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = k.fulfillment.Allocate(context.Background(), nil, soup.ID, day("2024-01-04"))
	assert.ErrorIs(t, err, service.ErrNoStock)
}

func TestAvailableQuantity_MatchesAllocate(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	k.batches.add(uuid.New(), soup, 2, "2024-01-05")
	k.batches.add(uuid.New(), soup, 1, "2024-01-02")
	ctx := context.Background()
	on := day("2024-01-02")

	for {
		n, err := k.fulfillment.AvailableQuantity(ctx, soup.ID, on)
		require.NoError(t, err)
		_, allocErr := k.fulfillment.Allocate(ctx, nil, soup.ID, on)
		if n == 0 {
			assert.ErrorIs(t, allocErr, service.ErrNoStock)
			break
		}
		require.NoError(t, allocErr, "available=%d", n)
	}
	for _, b := range k.batches.batches {
		assert.Zero(t, b.Quantity)
	}
}

func TestAvailableQuantity_ExpiryIsInclusive(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	k.batches.add(uuid.New(), soup, 3, "2024-01-03")

	n, err := k.fulfillment.AvailableQuantity(context.Background(), soup.ID, day("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = k.fulfillment.AvailableQuantity(context.Background(), soup.ID, day("2024-01-04"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

// ── PlaceOrder ────────────────────────────────────────────────────────────────

func TestPlaceOrder_OneTimeIsPendingUntilPaid(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	k.batches.add(uuid.New(), soup, 3, "2024-01-03")
	student := k.users.add(model.RoleStudent, "200")
	ctx := context.Background()

	resp, err := k.fulfillment.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, resp.Status)
	assert.True(t, dec("150").Equal(resp.TotalPrice))
	assert.True(t, dec("200").Equal(k.users.users[student.ID].Balance), "placing does not charge")

	orderID := uuid.MustParse(resp.ID)
	_, err = k.fulfillment.ServeOrder(ctx, k.chef.ID, orderID)
	assert.ErrorIs(t, err, service.ErrNotPaid)

	paid, err := k.fulfillment.PayOrder(ctx, student.ID, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, paid.Status)
	assert.True(t, dec("50").Equal(k.users.users[student.ID].Balance))

	_, err = k.fulfillment.PayOrder(ctx, student.ID, orderID)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
	assert.True(t, dec("50").Equal(k.users.users[student.ID].Balance), "paying twice charges once")

	served, err := k.fulfillment.ServeOrder(ctx, k.chef.ID, orderID)
	require.NoError(t, err)
	assert.True(t, served.IsServed)
	assert.Equal(t, model.OrderServed, served.Status)

	_, err = k.fulfillment.ReceiveOrder(ctx, student.ID, orderID)
	assert.ErrorIs(t, err, service.ErrAlreadyProcessed)
}

func TestPlaceOrder_InsufficientBalanceAllocatesNothing(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	batchID := uuid.New()
	k.batches.add(batchID, soup, 3, "2024-01-03")
	student := k.users.add(model.RoleStudent, "100")

	_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)
	assert.Equal(t, 3, k.batches.batches[batchID].Quantity)
	assert.Empty(t, k.orders.orders)
}

func TestPlaceOrder_NoStock(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	student := k.users.add(model.RoleStudent, "500")

	_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	assert.ErrorIs(t, err, service.ErrNoStock)
	assert.Empty(t, k.orders.orders)
}

func TestPlaceOrder_RejectsPastDateAndUnknownMethod(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "150")
	student := k.users.add(model.RoleStudent, "500")

	_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-01"), PaymentMethod: model.PaymentOneTime,
	})
	assert.ErrorIs(t, err, service.ErrInvalidMealDate)

	_, err = k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: "cash",
	})
	assert.ErrorIs(t, err, service.ErrInvalidPaymentMethod)
}

func TestPlaceOrder_LowStockNoticeAtOnePortion(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "10")
	k.batches.add(uuid.New(), soup, 3, "2024-01-03")
	student := k.users.add(model.RoleStudent, "100")
	place := func() {
		_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
			UserID: student.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
		})
		require.NoError(t, err)
	}

	place()
	assert.Empty(t, k.notifier.titled("Low prepared stock"))
	place()
	assert.Len(t, k.notifier.titled("Low prepared stock"), 2, "chef and admin")
	assert.Len(t, k.notifier.titled("New order"), 2, "one per order to the chef")
}

func TestPlaceOrder_SubscriptionConsumesOneMeal(t *testing.T) {
	k := newKitchen("2024-01-02")
	porridge := k.meals.add("Porridge", model.MealTypeBreakfast, "120")
	k.batches.add(uuid.New(), porridge, 5, "2024-01-03")
	student := k.users.add(model.RoleStudent, "0")
	sub := k.subs.add(student.ID, model.MealTypeBreakfast, "2024-01-01", "2024-01-08", 0)
	ctx := context.Background()

	resp, err := k.fulfillment.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID: student.ID, MealID: porridge.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentSubscription,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, resp.Status)
	assert.True(t, resp.TotalPrice.IsZero())
	assert.Equal(t, 1, k.subs.subs[sub.ID].UsedMeals)
	assert.True(t, k.users.users[student.ID].Balance.IsZero())

	_, err = k.fulfillment.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID: student.ID, MealID: porridge.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentSubscription,
	})
	assert.ErrorIs(t, err, service.ErrSubscriptionUnavailable, "one subscription meal per type per day")
	assert.Equal(t, 1, k.subs.subs[sub.ID].UsedMeals)
}

func TestReceiveOrder_OnlyOwner(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "10")
	k.batches.add(uuid.New(), soup, 3, "2024-01-03")
	owner := k.users.add(model.RoleStudent, "100")
	other := k.users.add(model.RoleStudent, "100")
	ctx := context.Background()

	resp, err := k.fulfillment.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID: owner.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = k.fulfillment.PayOrder(ctx, other.ID, id)
	assert.ErrorIs(t, err, service.ErrForbidden)
	_, err = k.fulfillment.PayOrder(ctx, owner.ID, id)
	require.NoError(t, err)

	_, err = k.fulfillment.ReceiveOrder(ctx, other.ID, id)
	assert.ErrorIs(t, err, service.ErrForbidden)
	got, err := k.fulfillment.ReceiveOrder(ctx, owner.ID, id)
	require.NoError(t, err)
	assert.True(t, got.IsServed)
}

func TestMenu_ListsOnlyMealsWithPortions(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "10")
	k.meals.add("Stew", model.MealTypeLunch, "12")
	k.batches.add(uuid.New(), soup, 2, "2024-01-03")
	k.batches.add(uuid.New(), soup, 1, "2024-01-02")

	items, err := k.fulfillment.Menu(context.Background(), model.MealTypeLunch, day("2024-01-02"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Soup", items[0].Name)
	assert.Equal(t, 3, items[0].Available)

	items, err = k.fulfillment.Menu(context.Background(), model.MealTypeLunch, day("2024-01-03"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Available)
}

func TestListOrders_FiltersByUser(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "10")
	k.batches.add(uuid.New(), soup, 5, "2024-01-03")
	a := k.users.add(model.RoleStudent, "100")
	b := k.users.add(model.RoleStudent, "100")
	for _, u := range []*model.User{a, a, b} {
		_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
			UserID: u.ID, MealID: soup.ID, MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
		})
		require.NoError(t, err)
	}

	mine, err := k.fulfillment.ListOrders(context.Background(), repository.OrderFilter{UserID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := k.fulfillment.ListOrders(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMenu_ZeroDateMeansToday(t *testing.T) {
	k := newKitchen("2024-01-03")
	soup := k.meals.add("Soup", model.MealTypeLunch, "10")
	k.batches.add(uuid.New(), soup, 4, "2024-01-02")
	k.batches.add(uuid.New(), soup, 1, "2024-01-03")

	items, err := k.fulfillment.Menu(context.Background(), "", time.Time{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Available, "the batch that expired yesterday is not on today's menu")
}

// ── drink add-on ──────────────────────────────────────────────────────────────

func TestPlaceOrder_DrinkIsFreeOnSubscription(t *testing.T) {
	k := newKitchen("2024-01-02")
	porridge := k.meals.add("Porridge", model.MealTypeBreakfast, "120")
	tea := k.meals.add("Tea", model.MealTypeDrink, "30")
	k.batches.add(uuid.New(), porridge, 5, "2024-01-03")
	teaBatch := uuid.New()
	k.batches.add(teaBatch, tea, 2, "2024-01-02")
	student := k.users.add(model.RoleStudent, "0")
	sub := k.subs.add(student.ID, model.MealTypeBreakfast, "2024-01-01", "2024-01-08", 0)

	resp, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: porridge.ID, DrinkID: &tea.ID,
		MealDate: day("2024-01-02"), PaymentMethod: model.PaymentSubscription,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Drink)
	assert.Equal(t, model.MealTypeDrink, resp.Drink.MealType)
	assert.Equal(t, model.OrderPaid, resp.Drink.Status)
	assert.True(t, resp.Drink.TotalPrice.IsZero())
	assert.Equal(t, "Tea", resp.Drink.Meal)

	assert.Len(t, k.orders.orders, 2)
	assert.Equal(t, 1, k.batches.batches[teaBatch].Quantity)
	assert.Equal(t, 1, k.subs.subs[sub.ID].UsedMeals, "the drink does not use a subscription meal")
	assert.True(t, k.users.users[student.ID].Balance.IsZero())
	require.Len(t, k.notifier.to(student.ID), 1)
	assert.Contains(t, k.notifier.to(student.ID)[0].Message, "Porridge with Tea")
}

func TestPlaceOrder_OneTimeDrinkIsChargedOnPayment(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "120")
	juice := k.meals.add("Juice", model.MealTypeDrink, "30")
	k.batches.add(uuid.New(), soup, 5, "2024-01-03")
	k.batches.add(uuid.New(), juice, 5, "2024-01-03")
	student := k.users.add(model.RoleStudent, "150")
	ctx := context.Background()

	resp, err := k.fulfillment.PlaceOrder(ctx, service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, DrinkID: &juice.ID,
		MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Drink)
	assert.Equal(t, model.OrderPending, resp.Drink.Status)
	assert.True(t, dec("30").Equal(resp.Drink.TotalPrice))
	assert.True(t, dec("150").Equal(k.users.users[student.ID].Balance), "placing does not charge")

	_, err = k.fulfillment.PayOrder(ctx, student.ID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	_, err = k.fulfillment.PayOrder(ctx, student.ID, uuid.MustParse(resp.Drink.ID))
	require.NoError(t, err)
	assert.True(t, k.users.users[student.ID].Balance.IsZero())
}

func TestPlaceOrder_BalanceMustCoverMealAndDrink(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "120")
	juice := k.meals.add("Juice", model.MealTypeDrink, "30")
	soupBatch := uuid.New()
	k.batches.add(soupBatch, soup, 5, "2024-01-03")
	k.batches.add(uuid.New(), juice, 5, "2024-01-03")
	student := k.users.add(model.RoleStudent, "140")

	_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
		UserID: student.ID, MealID: soup.ID, DrinkID: &juice.ID,
		MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
	})
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)
	assert.Equal(t, 5, k.batches.batches[soupBatch].Quantity)
	assert.Empty(t, k.orders.orders)
}

func TestPlaceOrder_DrinkRejections(t *testing.T) {
	k := newKitchen("2024-01-02")
	soup := k.meals.add("Soup", model.MealTypeLunch, "120")
	stew := k.meals.add("Stew", model.MealTypeLunch, "90")
	cocoa := k.meals.add("Cocoa", model.MealTypeDrink, "20")
	cocoa.IsAvailable = false
	k.batches.add(uuid.New(), soup, 5, "2024-01-03")
	student := k.users.add(model.RoleStudent, "500")
	place := func(drinkID uuid.UUID) error {
		_, err := k.fulfillment.PlaceOrder(context.Background(), service.PlaceOrderInput{
			UserID: student.ID, MealID: soup.ID, DrinkID: &drinkID,
			MealDate: day("2024-01-02"), PaymentMethod: model.PaymentOneTime,
		})
		return err
	}

	assert.ErrorIs(t, place(stew.ID), service.ErrInvalidDrink)
	assert.ErrorIs(t, place(cocoa.ID), service.ErrMealUnavailable)
	assert.ErrorIs(t, place(uuid.New()), service.ErrNotFound)
	assert.Empty(t, k.orders.orders)
}

package service_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"schoolfood/internal/model"
	"schoolfood/internal/repository"
	"schoolfood/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. DB() returns nil so runTx calls the closure
// directly. Reads hand out copies, the way rows come back from a database.

func day(s string) time.Time {
	d, err := service.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fixedClock(s string) service.Clock {
	t := day(s).Add(9 * time.Hour)
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func uuidLess(a, b uuid.UUID) bool { return bytes.Compare(a[:], b[:]) < 0 }

// ── users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) add(role string, balance string) *model.User {
	u := &model.User{
		ID:       uuid.New(),
		Username: role + "-" + uuid.NewString()[:8],
		Role:     role,
		Balance:  dec(balance),
		Active:   true,
	}
	r.users[u.ID] = u
	return u
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Active && (u.Username == username || (u.Email != nil && *u.Email == username)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) ListByRole(_ context.Context, roles ...string) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Active && u.Role == role {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.User, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubUserRepo) UpdateBalanceTx(_ *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Balance = balance
	return nil
}

func (r *stubUserRepo) DB() *gorm.DB { return nil }

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── ingredients & movements ───────────────────────────────────────────────────

type stubIngredientRepo struct {
	items map[uuid.UUID]*model.IngredientStock
}

func newStubIngredientRepo() *stubIngredientRepo {
	return &stubIngredientRepo{items: make(map[uuid.UUID]*model.IngredientStock)}
}

func (r *stubIngredientRepo) add(name, qty, unit, min string) *model.IngredientStock {
	i := &model.IngredientStock{
		ID:          uuid.New(),
		Name:        name,
		Quantity:    dec(qty),
		Unit:        unit,
		MinQuantity: dec(min),
	}
	r.items[i.ID] = i
	return i
}

func (r *stubIngredientRepo) level(id uuid.UUID) decimal.Decimal { return r.items[id].Quantity }

func (r *stubIngredientRepo) Create(_ context.Context, i *model.IngredientStock) error {
	return r.CreateTx(nil, i)
}

func (r *stubIngredientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.IngredientStock, error) {
	i, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *stubIngredientRepo) FindByName(_ context.Context, name string) (*model.IngredientStock, error) {
	for _, i := range r.items {
		if i.Name == name {
			cp := *i
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubIngredientRepo) List(_ context.Context) ([]model.IngredientStock, error) {
	out := make([]model.IngredientStock, 0, len(r.items))
	for _, i := range r.items {
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *stubIngredientRepo) ListLowStock(ctx context.Context) ([]model.IngredientStock, error) {
	all, _ := r.List(ctx)
	var out []model.IngredientStock
	for _, i := range all {
		if i.IsLow() {
			out = append(out, i)
		}
	}
	return out, nil
}

func (r *stubIngredientRepo) CreateTx(_ *gorm.DB, i *model.IngredientStock) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	cp := *i
	r.items[i.ID] = &cp
	return nil
}

func (r *stubIngredientRepo) LockByIDsTx(_ *gorm.DB, ids []uuid.UUID) ([]model.IngredientStock, error) {
	var out []model.IngredientStock
	for _, id := range ids {
		if i, ok := r.items[id]; ok {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return uuidLess(out[a].ID, out[b].ID) })
	return out, nil
}

func (r *stubIngredientRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.IngredientStock, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubIngredientRepo) FindByNameForUpdateTx(_ *gorm.DB, name string) (*model.IngredientStock, error) {
	return r.FindByName(context.Background(), name)
}

func (r *stubIngredientRepo) SetQuantityTx(_ *gorm.DB, id uuid.UUID, qty decimal.Decimal, at time.Time) error {
	i, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if qty.IsNegative() {
		return errors.New("check constraint: quantity >= 0")
	}
	i.Quantity = qty
	i.LastUpdated = at
	return nil
}

func (r *stubIngredientRepo) UpdateTx(_ *gorm.DB, i *model.IngredientStock) error {
	cp := *i
	r.items[i.ID] = &cp
	return nil
}

func (r *stubIngredientRepo) DB() *gorm.DB { return nil }

var _ repository.IngredientRepository = (*stubIngredientRepo)(nil)

type stubMovementRepo struct {
	rows []model.IngredientMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.IngredientMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.rows = append(r.rows, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, f repository.MovementFilter) ([]model.IngredientMovement, int64, error) {
	var out []model.IngredientMovement
	for _, m := range r.rows {
		if f.IngredientID != nil && m.IngredientID != *f.IngredientID {
			continue
		}
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovementRepo) ofKind(kind string) []model.IngredientMovement {
	var out []model.IngredientMovement
	for _, m := range r.rows {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.MovementRepository = (*stubMovementRepo)(nil)

// ── meals, recipes, batches ───────────────────────────────────────────────────

type stubMealRepo struct {
	meals map[uuid.UUID]*model.Meal
}

func newStubMealRepo() *stubMealRepo {
	return &stubMealRepo{meals: make(map[uuid.UUID]*model.Meal)}
}

func (r *stubMealRepo) add(name, mealType, price string) *model.Meal {
	m := &model.Meal{ID: uuid.New(), Name: name, MealType: mealType, Price: dec(price), IsAvailable: true}
	r.meals[m.ID] = m
	return m
}

func (r *stubMealRepo) Create(_ context.Context, m *model.Meal) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.meals[m.ID] = m
	return nil
}

func (r *stubMealRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Meal, error) {
	m, ok := r.meals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *stubMealRepo) List(_ context.Context, f repository.MealFilter) ([]model.Meal, error) {
	var out []model.Meal
	for _, m := range r.meals {
		if f.MealType != "" && m.MealType != f.MealType {
			continue
		}
		if f.OnlyAvailable && !m.IsAvailable {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (r *stubMealRepo) Update(_ context.Context, m *model.Meal) error {
	r.meals[m.ID] = m
	return nil
}

var _ repository.MealRepository = (*stubMealRepo)(nil)

type stubRecipeRepo struct {
	entries     []model.RecipeEntry
	ingredients *stubIngredientRepo
}

func (r *stubRecipeRepo) add(meal *model.Meal, ing *model.IngredientStock, perPortion string) {
	r.entries = append(r.entries, model.RecipeEntry{
		ID:                 uuid.New(),
		MealID:             meal.ID,
		IngredientID:       ing.ID,
		QuantityPerPortion: dec(perPortion),
	})
}

func (r *stubRecipeRepo) Create(_ context.Context, e *model.RecipeEntry) error {
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubRecipeRepo) ListByMeal(_ context.Context, mealID uuid.UUID) ([]model.RecipeEntry, error) {
	var out []model.RecipeEntry
	for _, e := range r.entries {
		if e.MealID != mealID {
			continue
		}
		if ing, ok := r.ingredients.items[e.IngredientID]; ok {
			cp := *ing
			e.Ingredient = &cp
		}
		out = append(out, e)
	}
	return out, nil
}

var _ repository.RecipeRepository = (*stubRecipeRepo)(nil)

type stubBatchRepo struct {
	batches map[uuid.UUID]*model.PreparedBatch
}

func newStubBatchRepo() *stubBatchRepo {
	return &stubBatchRepo{batches: make(map[uuid.UUID]*model.PreparedBatch)}
}

func (r *stubBatchRepo) add(id uuid.UUID, meal *model.Meal, qty int, expiry string) *model.PreparedBatch {
	exp := day(expiry)
	b := &model.PreparedBatch{ID: id, MealID: meal.ID, Quantity: qty, PreparedDate: exp, ExpiryDate: &exp}
	r.batches[id] = b
	return b
}

func (r *stubBatchRepo) eligible(mealID uuid.UUID, onDate time.Time) []model.PreparedBatch {
	var out []model.PreparedBatch
	for _, b := range r.batches {
		if b.MealID == mealID && b.Eligible(onDate) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(a, c int) bool {
		if !out[a].ExpiryDate.Equal(*out[c].ExpiryDate) {
			return out[a].ExpiryDate.Before(*out[c].ExpiryDate)
		}
		return uuidLess(out[a].ID, out[c].ID)
	})
	return out
}

func (r *stubBatchRepo) CreateTx(_ *gorm.DB, b *model.PreparedBatch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *stubBatchRepo) ListEligible(_ context.Context, mealID uuid.UUID, onDate time.Time) ([]model.PreparedBatch, error) {
	return r.eligible(mealID, onDate), nil
}

func (r *stubBatchRepo) SumAvailable(_ context.Context, mealID uuid.UUID, onDate time.Time) (int, error) {
	total := 0
	for _, b := range r.eligible(mealID, onDate) {
		total += b.Quantity
	}
	return total, nil
}

func (r *stubBatchRepo) CountExpiredNonEmpty(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for _, b := range r.batches {
		if b.Quantity > 0 && b.ExpiryDate != nil && b.ExpiryDate.Before(today) {
			n++
		}
	}
	return n, nil
}

func (r *stubBatchRepo) ListActive(_ context.Context, onDate time.Time) ([]model.PreparedBatch, error) {
	var out []model.PreparedBatch
	for _, b := range r.batches {
		if b.Eligible(onDate) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(a, c int) bool {
		if out[a].MealID != out[c].MealID {
			return uuidLess(out[a].MealID, out[c].MealID)
		}
		if !out[a].ExpiryDate.Equal(*out[c].ExpiryDate) {
			return out[a].ExpiryDate.Before(*out[c].ExpiryDate)
		}
		return uuidLess(out[a].ID, out[c].ID)
	})
	return out, nil
}

func (r *stubBatchRepo) FindFirstEligibleForUpdateTx(_ *gorm.DB, mealID uuid.UUID, onDate time.Time) (*model.PreparedBatch, error) {
	el := r.eligible(mealID, onDate)
	if len(el) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &el[0], nil
}

func (r *stubBatchRepo) DecrementTx(_ *gorm.DB, id uuid.UUID) (bool, error) {
	b, ok := r.batches[id]
	if !ok || b.Quantity <= 0 {
		return false, nil
	}
	b.Quantity--
	return true, nil
}

var _ repository.BatchRepository = (*stubBatchRepo)(nil)

// ── orders & subscriptions ────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.MealDate != nil && !o.MealDate.Equal(*f.MealDate) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (r *stubOrderRepo) CountSubscriptionOrders(_ context.Context, _ *gorm.DB, userID uuid.UUID, mealType string, d time.Time) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.UserID == userID && o.MealType == mealType && o.PaymentMethod == model.PaymentSubscription && o.MealDate.Equal(d) {
			n++
		}
	}
	return n, nil
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubOrderRepo) UpdateTx(_ *gorm.DB, o *model.Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

type stubSubscriptionRepo struct {
	subs map[uuid.UUID]*model.Subscription
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{subs: make(map[uuid.UUID]*model.Subscription)}
}

func (r *stubSubscriptionRepo) add(userID uuid.UUID, mealType, start, end string, used int) *model.Subscription {
	s := &model.Subscription{
		ID: uuid.New(), UserID: userID, MealType: mealType,
		StartDate: day(start), EndDate: day(end),
		MealsPerWeek: service.MealsPerWeek, UsedMeals: used, IsActive: true,
	}
	r.subs[s.ID] = s
	return s
}

func (r *stubSubscriptionRepo) FindActive(_ context.Context, userID uuid.UUID, mealType string) (*model.Subscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID && s.MealType == mealType && s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSubscriptionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	var out []model.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSubscriptionRepo) DeactivateAllExpired(_ context.Context, today time.Time) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.IsActive && s.EndDate.Before(today) {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *stubSubscriptionRepo) CreateTx(_ *gorm.DB, s *model.Subscription) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

func (r *stubSubscriptionRepo) FindActiveForUpdateTx(_ *gorm.DB, userID uuid.UUID, mealType string) (*model.Subscription, error) {
	return r.FindActive(context.Background(), userID, mealType)
}

func (r *stubSubscriptionRepo) DeactivateExpiredTx(_ *gorm.DB, userID uuid.UUID, mealType string, today time.Time) (int64, error) {
	var n int64
	for _, s := range r.subs {
		if s.UserID == userID && s.MealType == mealType && s.IsActive && s.EndDate.Before(today) {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *stubSubscriptionRepo) UpdateTx(_ *gorm.DB, s *model.Subscription) error {
	cp := *s
	r.subs[s.ID] = &cp
	return nil
}

func (r *stubSubscriptionRepo) DB() *gorm.DB { return nil }

var _ repository.SubscriptionRepository = (*stubSubscriptionRepo)(nil)

// ── purchase requests & notifications ─────────────────────────────────────────

type stubPurchaseRepo struct {
	reqs map[uuid.UUID]*model.PurchaseRequest
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{reqs: make(map[uuid.UUID]*model.PurchaseRequest)}
}

func (r *stubPurchaseRepo) Create(_ context.Context, p *model.PurchaseRequest) error {
	return r.CreateTx(nil, p)
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	p, ok := r.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubPurchaseRepo) List(_ context.Context, status string) ([]model.PurchaseRequest, error) {
	var out []model.PurchaseRequest
	for _, p := range r.reqs {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPurchaseRepo) CreateTx(_ *gorm.DB, p *model.PurchaseRequest) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.reqs[p.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.PurchaseRequest, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubPurchaseRepo) UpdateTx(_ *gorm.DB, p *model.PurchaseRequest) error {
	cp := *p
	r.reqs[p.ID] = &cp
	return nil
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

var _ repository.PurchaseRequestRepository = (*stubPurchaseRepo)(nil)

type stubNotificationRepo struct {
	rows []model.Notification
}

func (r *stubNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	r.rows = append(r.rows, *n)
	return nil
}

func (r *stubNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.rows {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.NotificationRepository = (*stubNotificationRepo)(nil)

// ── notification sink ─────────────────────────────────────────────────────────

type sentNotice struct {
	UserID   uuid.UUID
	Title    string
	Message  string
	Category string
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentNotice
	slips []uuid.UUID
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, title, message, category string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotice{UserID: userID, Title: title, Message: message, Category: category})
	return nil
}

func (n *recordingNotifier) EnqueuePurchaseSlip(_ context.Context, requestID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.slips = append(n.slips, requestID)
	return n.err
}

func (n *recordingNotifier) to(userID uuid.UUID) []sentNotice {
	var out []sentNotice
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

func (n *recordingNotifier) titled(title string) []sentNotice {
	var out []sentNotice
	for _, s := range n.sent {
		if s.Title == title {
			out = append(out, s)
		}
	}
	return out
}

var (
	_ service.Notifier  = (*recordingNotifier)(nil)
	_ service.SlipQueue = (*recordingNotifier)(nil)
)

// ── fixture ───────────────────────────────────────────────────────────────────

// kitchen wires every service over one set of stubs.
type kitchen struct {
	users         *stubUserRepo
	ingredients   *stubIngredientRepo
	movements     *stubMovementRepo
	meals         *stubMealRepo
	recipes       *stubRecipeRepo
	batches       *stubBatchRepo
	orders        *stubOrderRepo
	subs          *stubSubscriptionRepo
	purchases     *stubPurchaseRepo
	notifications *stubNotificationRepo
	notifier      *recordingNotifier

	inventory     service.InventoryService
	preparation   service.PreparationService
	fulfillment   service.FulfillmentService
	subscriptions service.SubscriptionService
	purchase      service.PurchaseService
	account       service.AccountService

	chef  *model.User
	admin *model.User
}

func newKitchen(today string) *kitchen {
	k := &kitchen{
		users:         newStubUserRepo(),
		ingredients:   newStubIngredientRepo(),
		movements:     &stubMovementRepo{},
		meals:         newStubMealRepo(),
		batches:       newStubBatchRepo(),
		orders:        newStubOrderRepo(),
		subs:          newStubSubscriptionRepo(),
		purchases:     newStubPurchaseRepo(),
		notifications: &stubNotificationRepo{},
		notifier:      &recordingNotifier{},
	}
	k.recipes = &stubRecipeRepo{ingredients: k.ingredients}
	clock := fixedClock(today)

	k.inventory = service.NewInventoryService(k.ingredients, k.movements, k.users, k.notifier, clock)
	k.preparation = service.NewPreparationService(k.meals, service.NewRecipeService(k.recipes),
		k.ingredients, k.batches, k.inventory, k.users, k.notifier, clock, 1)
	k.subscriptions = service.NewSubscriptionService(k.subs, k.orders, k.users, k.notifier, clock,
		map[string]decimal.Decimal{model.MealTypeBreakfast: dec("200"), model.MealTypeLunch: dec("350")})
	k.fulfillment = service.NewFulfillmentService(k.orders, k.batches, k.meals, k.users, k.subscriptions, k.notifier, clock)
	k.purchase = service.NewPurchaseService(k.purchases, k.ingredients, k.inventory, k.users, k.notifier, k.notifier, clock)
	k.account = service.NewAccountService(k.users, k.notifications, k.notifier, dec("10000"))

	k.chef = k.users.add(model.RoleChef, "0")
	k.admin = k.users.add(model.RoleAdmin, "0")
	return k
}

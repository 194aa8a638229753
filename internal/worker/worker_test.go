package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"schoolfood/internal/infra"
	"schoolfood/internal/model"
	"schoolfood/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── stubs ─────────────────────────────────────────────────────────────────────

type stubUsers struct{ byID map[uuid.UUID]*model.User }

func (s *stubUsers) Create(context.Context, *model.User) error { return nil }
func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUsers) FindByUsername(context.Context, string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubUsers) ListByRole(context.Context, ...string) ([]model.User, error) { return nil, nil }
func (s *stubUsers) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.User, error) {
	return s.FindByID(context.Background(), id)
}
func (s *stubUsers) UpdateBalanceTx(*gorm.DB, uuid.UUID, decimal.Decimal) error { return nil }
func (s *stubUsers) DB() *gorm.DB                                               { return nil }

type stubNotifications struct {
	rows []model.Notification
	err  error
}

func (s *stubNotifications) Create(_ context.Context, n *model.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, *n)
	return nil
}
func (s *stubNotifications) ListByUser(context.Context, uuid.UUID, bool) ([]model.Notification, error) {
	return s.rows, nil
}
func (s *stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubRequests struct{ byID map[uuid.UUID]*model.PurchaseRequest }

func (s *stubRequests) Create(context.Context, *model.PurchaseRequest) error { return nil }
func (s *stubRequests) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseRequest, error) {
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubRequests) List(context.Context, string) ([]model.PurchaseRequest, error) { return nil, nil }
func (s *stubRequests) CreateTx(*gorm.DB, *model.PurchaseRequest) error               { return nil }
func (s *stubRequests) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.PurchaseRequest, error) {
	return s.FindByID(context.Background(), id)
}
func (s *stubRequests) UpdateTx(*gorm.DB, *model.PurchaseRequest) error { return nil }
func (s *stubRequests) DB() *gorm.DB                                    { return nil }

type sentMail struct{ to, subject, body, attachment string }

type fakeMailer struct {
	enabled bool
	err     error
	sent    []sentMail
}

func (m *fakeMailer) Enabled() bool { return m.enabled }
func (m *fakeMailer) SendNotification(to, title, message string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: title, body: message})
	return m.err
}
func (m *fakeMailer) SendPurchaseSlip(to, subject, body, pdfPath string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body, attachment: pdfPath})
	return m.err
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func strPtr(s string) *string { return &s }

// ── retry ─────────────────────────────────────────────────────────────────────

func TestWithRetry_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, func(attempt int) error {
		calls++
		if attempt == 0 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, func(int) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}

// ── notifications ─────────────────────────────────────────────────────────────

func TestNotificationWorker_StoresAndMails(t *testing.T) {
	student := &model.User{ID: uuid.New(), Username: "ana", Email: strPtr("ana@school.test")}
	store := &stubNotifications{}
	mailer := &fakeMailer{enabled: true, err: errors.New("smtp down")}
	w := NewNotificationWorker(store, &stubUsers{byID: map[uuid.UUID]*model.User{student.ID: student}}, mailer)

	err := w.Process(context.Background(), payload(t, NotificationJobPayload{
		UserID: student.ID.String(), Title: "Order placed", Message: "Porridge on 2024-01-02", Category: model.NotifyOrder,
	}))
	require.NoError(t, err, "a mail failure must not retry the job")

	require.Len(t, store.rows, 1)
	assert.Equal(t, student.ID, store.rows[0].UserID)
	assert.Equal(t, model.NotifyOrder, store.rows[0].Category)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ana@school.test", mailer.sent[0].to)
}

func TestNotificationWorker_StoreFailureIsRetried(t *testing.T) {
	w := NewNotificationWorker(&stubNotifications{err: errors.New("db down")}, &stubUsers{}, nil)
	err := w.Process(context.Background(), payload(t, NotificationJobPayload{UserID: uuid.NewString(), Title: "x"}))
	assert.Error(t, err)
}

func TestNotificationWorker_DropsMalformedPayload(t *testing.T) {
	store := &stubNotifications{}
	w := NewNotificationWorker(store, &stubUsers{}, nil)

	assert.NoError(t, w.Process(context.Background(), json.RawMessage(`{"user_id":`)))
	assert.NoError(t, w.Process(context.Background(), payload(t, NotificationJobPayload{UserID: "nope"})))
	assert.Empty(t, store.rows)
}

// ── purchase slips ────────────────────────────────────────────────────────────

func TestSlipWorker_RendersApprovedRequestAndMailsRequester(t *testing.T) {
	admin := &model.User{ID: uuid.New(), Username: "admin"}
	chef := &model.User{ID: uuid.New(), Username: "chef", Email: strPtr("chef@school.test")}
	approvedAt := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	req := &model.PurchaseRequest{
		ID: uuid.New(), IngredientName: "Milk", Quantity: decimal.RequireFromString("10"), Unit: "l",
		Status: model.PurchaseApproved, ApprovedBy: &admin.ID, ApprovedAt: &approvedAt, Requester: chef,
	}
	mailer := &fakeMailer{enabled: true}
	w := NewSlipWorker(
		&stubRequests{byID: map[uuid.UUID]*model.PurchaseRequest{req.ID: req}},
		&stubUsers{byID: map[uuid.UUID]*model.User{admin.ID: admin}},
		mailer, "/slips",
	)
	var rendered infra.SlipParties
	w.render = func(_ *model.PurchaseRequest, parties infra.SlipParties, dir string) (string, error) {
		rendered = parties
		return dir + "/purchase.pdf", nil
	}

	require.NoError(t, w.Process(context.Background(), payload(t, SlipJobPayload{RequestID: req.ID.String()})))
	assert.Equal(t, infra.SlipParties{Requester: "chef", Approver: "admin"}, rendered)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "chef@school.test", mailer.sent[0].to)
	assert.Equal(t, "/slips/purchase.pdf", mailer.sent[0].attachment)
	assert.Contains(t, mailer.sent[0].subject, "Milk")
}

func TestSlipWorker_SkipsPendingRequest(t *testing.T) {
	req := &model.PurchaseRequest{ID: uuid.New(), Status: model.PurchasePending}
	w := NewSlipWorker(&stubRequests{byID: map[uuid.UUID]*model.PurchaseRequest{req.ID: req}}, &stubUsers{}, nil, t.TempDir())
	w.render = func(*model.PurchaseRequest, infra.SlipParties, string) (string, error) {
		t.Fatal("pending request must not be rendered")
		return "", nil
	}
	assert.NoError(t, w.Process(context.Background(), payload(t, SlipJobPayload{RequestID: req.ID.String()})))
}

func TestSlipWorker_RenderFailureIsRetried(t *testing.T) {
	req := &model.PurchaseRequest{ID: uuid.New(), Status: model.PurchaseApproved}
	w := NewSlipWorker(&stubRequests{byID: map[uuid.UUID]*model.PurchaseRequest{req.ID: req}}, &stubUsers{}, nil, t.TempDir())
	w.render = func(*model.PurchaseRequest, infra.SlipParties, string) (string, error) {
		return "", errors.New("disk full")
	}
	assert.Error(t, w.Process(context.Background(), payload(t, SlipJobPayload{RequestID: req.ID.String()})))
}

// ── dispatcher ────────────────────────────────────────────────────────────────

func TestDispatcher_OpenBreakerFailsFast(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(func() error { return errors.New("redis down") })
	require.Equal(t, infra.CBOpen, cb.State())

	// rdb is nil: an open breaker never reaches Redis.
	d := NewDispatcher(nil, cb)
	err := d.Notify(context.Background(), uuid.New(), "Order placed", "msg", model.NotifyOrder)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.ErrorIs(t, d.EnqueuePurchaseSlip(context.Background(), uuid.New()), infra.ErrCircuitOpen)
	assert.Same(t, cb, d.Breaker())
}

func TestQueueFor(t *testing.T) {
	assert.Equal(t, QueueNotifications, queueFor(JobNotification))
	assert.Equal(t, QueuePurchaseSlips, queueFor(JobPurchaseSlip))
	assert.Empty(t, queueFor("unknown"))
}

// ── queue pop ─────────────────────────────────────────────────────────────────

func TestPopBackoff(t *testing.T) {
	ctx := context.Background()
	assert.Zero(t, popBackoff(ctx, redis.Nil), "an empty queue polls again at once")
	assert.Equal(t, popRetryDelay, popBackoff(ctx, errors.New("dial tcp: connection refused")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Zero(t, popBackoff(cancelled, context.Canceled))
}

// countingHook counts commands sent through a client.
type countingHook struct{ calls atomic.Int32 }

func (h *countingHook) DialHook(next redis.DialHook) redis.DialHook { return next }
func (h *countingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.calls.Add(1)
		return next(ctx, cmd)
	}
}
func (h *countingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRunWorker_WaitsWhileRedisIsDown(t *testing.T) {
	// Nothing listens on port 1, so every pop fails straight away.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()
	hook := &countingHook{}
	rdb.AddHook(hook)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	runWorker(ctx, rdb, 1, map[string]Processor{JobNotification: nil})

	calls := hook.calls.Load()
	assert.NotZero(t, calls)
	assert.LessOrEqual(t, calls, int32(2), "a failed pop pauses instead of spinning")
}

// ── housekeeping ──────────────────────────────────────────────────────────────

// countingSubscriptions implements only what housekeeping calls.
type countingSubscriptions struct {
	service.SubscriptionService
	calls atomic.Int32
}

func (s *countingSubscriptions) ExpireStale(context.Context) (int64, error) {
	s.calls.Add(1)
	return 2, nil
}

func TestHousekeeping_RunsImmediatelyAndStopsWithContext(t *testing.T) {
	subs := &countingSubscriptions{}
	ctx, cancel := context.WithCancel(context.Background())

	StartHousekeepingCron(ctx, HousekeepingConfig{Subscriptions: subs, Interval: time.Hour})
	assert.Eventually(t, func() bool { return subs.calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	cancel()
}

func TestRunHousekeeping_SkipsUnsetParts(t *testing.T) {
	subs := &countingSubscriptions{}
	runHousekeeping(context.Background(), HousekeepingConfig{Subscriptions: subs})
	assert.Equal(t, int32(1), subs.calls.Load())
	runHousekeeping(context.Background(), HousekeepingConfig{})
}

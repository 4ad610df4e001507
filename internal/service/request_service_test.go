package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"opsportal/internal/advisory"
	"opsportal/internal/database/databasetest"
	"opsportal/internal/logging"
	"opsportal/internal/model"
	"opsportal/internal/notify"
	"opsportal/internal/repository"
	"opsportal/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Fakes ---

type stubClassifier struct {
	urgency    model.Urgency
	notes      string
	err        error
	classified int32
	drafted    int32
}

func (s *stubClassifier) ClassifyUrgency(context.Context, string) (advisory.UrgencyEstimate, error) {
	atomic.AddInt32(&s.classified, 1)
	if s.err != nil {
		return advisory.UrgencyEstimate{}, s.err
	}
	return advisory.UrgencyEstimate{Urgency: s.urgency, Confidence: 0.9}, nil
}

func (s *stubClassifier) DraftApprovalNotes(context.Context, advisory.NotesContext) (string, error) {
	atomic.AddInt32(&s.drafted, 1)
	return s.notes, s.err
}

type sentMessage struct{ to, body string }

type smsRecorder struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (r *smsRecorder) Send(_ context.Context, to, body string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{to: to, body: body})
	if r.err != nil {
		return "", r.err
	}
	return "SM" + to, nil
}

func (r *smsRecorder) decisionMessages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentMessage
	for _, m := range r.sent {
		if strings.Contains(m.body, " has been ") {
			out = append(out, m)
		}
	}
	return out
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (e *eventRecorder) Publish(event string, _ interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

type brokenRequests struct {
	repository.RequestRepository
	err error
}

func (b *brokenRequests) Create(context.Context, model.Request) error { return b.err }

// --- Harness ---

type harness struct {
	db         *gorm.DB
	svc        service.RequestService
	classifier *stubClassifier
	sms        *smsRecorder
	events     *eventRecorder
	admin      *model.User
	staff      *model.User
	now        time.Time
}

type harnessOption func(*service.RequestServiceDeps, *harness)

func withClassifierDisabled() harnessOption {
	return func(d *service.RequestServiceDeps, _ *harness) {
		d.Advisor = advisory.Disabled(logging.Discard())
	}
}

func withRequests(wrap func(repository.RequestRepository) repository.RequestRepository) harnessOption {
	return func(d *service.RequestServiceDeps, _ *harness) {
		d.Requests = wrap(d.Requests)
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	db := databasetest.New(t)
	log := logging.Discard()

	h := &harness{
		db:         db,
		classifier: &stubClassifier{urgency: model.UrgencyCritical, notes: "Within budget. Recommend approval."},
		sms:        &smsRecorder{},
		events:     &eventRecorder{},
		now:        time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC),
	}

	users := repository.NewUserRepository(db)
	h.admin = &model.User{Username: "root", Email: "root@example.com", Phone: "+15550000001", Password: "x", Role: model.RoleAdmin}
	h.staff = &model.User{Username: "alice", Email: "alice@example.com", Phone: "+15550000002", Password: "x", Role: model.RoleStaff}
	require.NoError(t, users.Create(context.Background(), h.admin))
	require.NoError(t, users.Create(context.Background(), h.staff))

	deps := service.RequestServiceDeps{
		Requests:    repository.NewRequestRepository(db),
		Users:       users,
		Audit:       repository.NewAuditRepository(db),
		Tx:          repository.NewTransactionManager(db),
		Advisor:     advisory.NewClient(h.classifier, time.Second, log),
		Notifier:    notify.NewDispatcher(h.sms, time.Second, log),
		Publisher:   h.events,
		Logger:      log,
		AdminPhones: []string{"+15550000009", "+15550000001"},
		Now:         func() time.Time { return h.now },
	}
	for _, opt := range opts {
		opt(&deps, h)
	}
	h.svc = service.NewRequestService(deps)
	return h
}

func (h *harness) purchase(urgency model.Urgency) *model.PurchaseRequest {
	return &model.PurchaseRequest{
		RequestHeader: model.RequestHeader{Urgency: urgency},
		ItemName:      "Laptop",
		Description:   "Replacement for broken unit",
		Quantity:      3,
		UnitPrice:     decimal.RequireFromString("50.00"),
		TotalAmount:   decimal.RequireFromString("1"), // ignored
		Justification: "Current laptops fail daily",
	}
}

func (h *harness) submitPurchase(t *testing.T) model.Request {
	t.Helper()
	req, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyNormal), h.staff)
	require.NoError(t, err)
	return req
}

func (h *harness) auditCount(t *testing.T, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&model.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

// --- Submit ---

func TestSubmit_PurchaseTotalsAndPending(t *testing.T) {
	h := newHarness(t)

	req, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyNormal), h.staff)
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), model.KindPurchase, req.Base().ID)
	require.NoError(t, err)
	p := stored.(*model.PurchaseRequest)

	assert.True(t, p.TotalAmount.Equal(decimal.RequireFromString("150.00")), "total %s", p.TotalAmount)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Nil(t, p.ReviewedAt)
	assert.Empty(t, p.AdminNotes)
	assert.Equal(t, h.staff.ID, *p.RequesterID)
	assert.True(t, h.now.Equal(p.SubmittedAt))
	assert.EqualValues(t, 1, h.auditCount(t, model.ActionSubmitRequest))
	assert.Equal(t, []string{service.EventRequestSubmitted}, h.events.events)
}

func TestSubmit_AlertsEveryAdminOnce(t *testing.T) {
	h := newHarness(t)

	h.submitPurchase(t)

	require.Len(t, h.sms.sent, 2)
	recipients := []string{h.sms.sent[0].to, h.sms.sent[1].to}
	assert.ElementsMatch(t, []string{"+15550000009", "+15550000001"}, recipients)
	assert.Equal(t, "New Purchase Request submitted by alice. Please review in admin panel.", h.sms.sent[0].body)
}

func TestSubmit_ClassifierOverridesUrgency(t *testing.T) {
	h := newHarness(t)

	req, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyLow), h.staff)
	require.NoError(t, err)

	assert.Equal(t, model.UrgencyCritical, req.Base().Urgency)
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.classifier.classified))
}

func TestSubmit_ClassifierDownKeepsCallerUrgency(t *testing.T) {
	h := newHarness(t)
	h.classifier.err = errors.New("503 from upstream")

	req, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyHigh), h.staff)
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), model.KindPurchase, req.Base().ID)
	require.NoError(t, err)
	assert.Equal(t, model.UrgencyHigh, stored.Base().Urgency)
}

func TestSubmit_ReducedDeploymentSkipsClassifier(t *testing.T) {
	h := newHarness(t, withClassifierDisabled())

	req, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyHigh), h.staff)
	require.NoError(t, err)

	assert.Equal(t, model.UrgencyHigh, req.Base().Urgency)
	assert.Zero(t, atomic.LoadInt32(&h.classifier.classified))
}

func TestSubmit_OnlyPurchasesAreClassified(t *testing.T) {
	h := newHarness(t)

	req, err := h.svc.Submit(context.Background(), &model.CashDemand{
		RequestHeader: model.RequestHeader{Urgency: model.UrgencyLow},
		DemanderName:  "Alice",
		DemanderCode:  "E-17",
		Purpose:       "Travel advance",
		Description:   "Client visit",
		Amount:        decimal.RequireFromString("300"),
		Department:    "Sales",
	}, h.staff)
	require.NoError(t, err)

	assert.Equal(t, model.UrgencyLow, req.Base().Urgency)
	assert.Zero(t, atomic.LoadInt32(&h.classifier.classified))
	assert.Equal(t, model.DefaultPaymentMethod, req.(*model.CashDemand).PaymentMethod)
}

func TestSubmit_ExpenseLineAmountsIgnoreClient(t *testing.T) {
	h := newHarness(t)

	req, err := h.svc.Submit(context.Background(), &model.ExpenseRecord{
		Code:        "EXP-42",
		Department:  "Ops",
		TotalAmount: decimal.RequireFromString("1"),
		Items: []model.ExpenseLineItem{
			{Description: "Hotel", Quantity: 2, Rate: decimal.RequireFromString("80"), Amount: decimal.RequireFromString("5")},
			{Description: "Train", Quantity: 1, Rate: decimal.RequireFromString("45.5")},
		},
	}, h.staff)
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), model.KindExpense, req.Base().ID)
	require.NoError(t, err)
	rec := stored.(*model.ExpenseRecord)
	require.Len(t, rec.Items, 2)
	for _, item := range rec.Items {
		assert.True(t, item.Amount.Equal(item.Rate.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	assert.True(t, rec.TotalAmount.Equal(decimal.RequireFromString("205.5")))
}

func TestSubmit_ValidationErrorPersistsNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Submit(context.Background(), &model.ExpenseRecord{Code: "EXP-1", Department: "Ops"}, h.staff)

	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
	assert.Zero(t, h.auditCount(t, model.ActionSubmitRequest))
	assert.Empty(t, h.sms.sent)
}

func TestSubmit_PersistenceFailureIsHardErrorWithoutSideEffects(t *testing.T) {
	h := newHarness(t, withRequests(func(r repository.RequestRepository) repository.RequestRepository {
		return &brokenRequests{RequestRepository: r, err: errors.New("connection refused")}
	}))

	_, err := h.svc.Submit(context.Background(), h.purchase(model.UrgencyNormal), h.staff)

	require.Error(t, err)
	assert.True(t, service.IsPersistence(err))
	assert.Empty(t, h.sms.sent)
	assert.Empty(t, h.events.events)
}

func TestSubmit_PublicRegistrationHasNoRequester(t *testing.T) {
	h := newHarness(t)

	req, err := h.svc.Submit(context.Background(), &model.EmployeeRegistration{
		FirstName:  "Dana",
		LastName:   "Reyes",
		Email:      "dana@example.com",
		Phone:      "+15550003333",
		Department: "Ops",
		Position:   "Analyst",
		StartDate:  time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, req.Base().RequesterID)
	assert.Contains(t, h.sms.sent[0].body, "submitted by Dana Reyes")
}

// --- Decide ---

func TestDecide_ApprovesAndNotifiesRequester(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)

	got, err := h.svc.Decide(context.Background(), model.KindPurchase, req.Base().ID, model.StatusApproved, "Looks fine", h.admin.ID)
	require.NoError(t, err)

	b := got.Base()
	assert.Equal(t, model.StatusApproved, b.Status)
	require.NotNil(t, b.ReviewedAt)
	assert.True(t, h.now.Equal(*b.ReviewedAt))
	assert.Equal(t, h.admin.ID, *b.ReviewedBy)
	assert.Equal(t, "Looks fine", b.AdminNotes)
	assert.Zero(t, atomic.LoadInt32(&h.classifier.drafted))

	msgs := h.sms.decisionMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, h.staff.Phone, msgs[0].to)
	assert.Equal(t, "Your Purchase Request has been approved. Check your dashboard for details.", msgs[0].body)
	assert.EqualValues(t, 1, h.auditCount(t, model.ActionApproveRequest))
	assert.Contains(t, h.events.events, service.EventRequestDecided)
}

func TestDecide_SecondDecisionIsNoop(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)
	id := req.Base().ID

	first, err := h.svc.Decide(context.Background(), model.KindPurchase, id, model.StatusApproved, "ok", h.admin.ID)
	require.NoError(t, err)
	reviewedAt := *first.Base().ReviewedAt

	h.now = h.now.Add(time.Hour)
	second, err := h.svc.Decide(context.Background(), model.KindPurchase, id, model.StatusRejected, "changed my mind", h.admin.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, second.Base().Status)
	assert.True(t, reviewedAt.Equal(*second.Base().ReviewedAt))
	assert.Equal(t, "ok", second.Base().AdminNotes)
	assert.Len(t, h.sms.decisionMessages(), 1)
	assert.Zero(t, h.auditCount(t, model.ActionRejectRequest))
}

func TestDecide_ConcurrentApprovalsDispatchOnce(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)
	id := req.Base().ID

	const callers = 2
	results := make([]model.Request, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.svc.Decide(context.Background(), model.KindPurchase, id, model.StatusApproved, "ok", h.admin.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, model.StatusApproved, results[i].Base().Status)
	}
	assert.Len(t, h.sms.decisionMessages(), 1)
	assert.EqualValues(t, 1, h.auditCount(t, model.ActionApproveRequest))
}

func TestDecide_UnknownIDIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.submitPurchase(t)

	_, err := h.svc.Decide(context.Background(), model.KindPurchase, uuid.New(), model.StatusApproved, "", h.admin.ID)

	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Zero(t, h.auditCount(t, model.ActionApproveRequest))
	assert.Zero(t, atomic.LoadInt32(&h.classifier.drafted))
	assert.Empty(t, h.sms.decisionMessages())
}

func TestDecide_WrongKindIsNotFound(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)

	_, err := h.svc.Decide(context.Background(), model.KindCashDemand, req.Base().ID, model.StatusApproved, "", h.admin.ID)

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDecide_DispatcherFailureStillTransitions(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)
	h.sms.err = errors.New("gateway timeout")

	got, err := h.svc.Decide(context.Background(), model.KindPurchase, req.Base().ID, model.StatusRejected, "Over budget", h.admin.ID)
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), model.KindPurchase, req.Base().ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Base().Status)
	assert.Equal(t, model.StatusRejected, stored.Base().Status)
	assert.NotNil(t, stored.Base().ReviewedAt)
	assert.Len(t, h.sms.decisionMessages(), 1)
}

func TestDecide_DraftsNotesWhenEmpty(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)

	got, err := h.svc.Decide(context.Background(), model.KindPurchase, req.Base().ID, model.StatusApproved, "  ", h.admin.ID)
	require.NoError(t, err)

	assert.Equal(t, "Within budget. Recommend approval.", got.Base().AdminNotes)
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.classifier.drafted))
}

func TestDecide_DraftFailureLeavesNotesEmpty(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)
	h.classifier.err = errors.New("invalid api key")

	got, err := h.svc.Decide(context.Background(), model.KindPurchase, req.Base().ID, model.StatusApproved, "", h.admin.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusApproved, got.Base().Status)
	assert.Empty(t, got.Base().AdminNotes)
}

func TestDecide_InvalidDecision(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)

	_, err := h.svc.Decide(context.Background(), model.KindPurchase, req.Base().ID, model.StatusPending, "", h.admin.ID)

	assert.True(t, service.IsValidation(err))
}

func TestDecide_RegistrationNotifiesRegistrantPhone(t *testing.T) {
	h := newHarness(t)
	req, err := h.svc.Submit(context.Background(), &model.EmployeeRegistration{
		FirstName:  "Dana",
		LastName:   "Reyes",
		Email:      "dana@example.com",
		Phone:      "+15550003333",
		Department: "Ops",
		Position:   "Analyst",
		StartDate:  time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
	}, nil)
	require.NoError(t, err)

	_, err = h.svc.Decide(context.Background(), model.KindRegistration, req.Base().ID, model.StatusApproved, "Welcome", h.admin.ID)
	require.NoError(t, err)

	msgs := h.sms.decisionMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "+15550003333", msgs[0].to)
	assert.Contains(t, msgs[0].body, "Employee Registration has been approved")
}

// --- Delete & List ---

func TestDelete_RemovesRequestAndAudits(t *testing.T) {
	h := newHarness(t)
	req := h.submitPurchase(t)

	require.NoError(t, h.svc.Delete(context.Background(), model.KindPurchase, req.Base().ID, h.admin.ID))

	_, err := h.svc.Get(context.Background(), model.KindPurchase, req.Base().ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.EqualValues(t, 1, h.auditCount(t, model.ActionDeleteRequest))

	err = h.svc.Delete(context.Background(), model.KindPurchase, req.Base().ID, h.admin.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.svc.List(context.Background(), model.KindPurchase, repository.RequestFilter{Status: "Archived"})

	assert.True(t, service.IsValidation(err))
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingRepo "barberly/database/repository/booking"
	directoryRepo "barberly/database/repository/directory"
	"barberly/models"
	"barberly/services/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Monday 2 June 2025, 08:00 UTC.
var testNow = time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

const testDate = "2025-06-04" // Wednesday

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, bookingID string, amount float64, method models.PaymentMethod) (*models.PaymentResult, error) {
	args := m.Called(ctx, bookingID, amount, method)
	res, _ := args.Get(0).(*models.PaymentResult)
	return res, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, bookingID string, amount float64) (*models.RefundResult, error) {
	args := m.Called(ctx, bookingID, amount)
	res, _ := args.Get(0).(*models.RefundResult)
	return res, args.Error(1)
}

type recordingSink struct {
	mu   sync.Mutex
	sent []models.NotificationDispatch
	err  error
}

func (r *recordingSink) Enqueue(ctx context.Context, d models.NotificationDispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, d)
	return nil
}

func (r *recordingSink) take() []models.NotificationDispatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

type testWorld struct {
	svc     *DefaultBookingService
	repo    *bookingRepo.MemoryBookingRepo
	dir     *directoryRepo.MemoryDirectoryRepo
	gateway *mockGateway
	sink    *recordingSink
}

var (
	customer  = models.Actor{ID: "cust-1", Role: models.RoleCustomer}
	customer2 = models.Actor{ID: "cust-2", Role: models.RoleCustomer}
	indie     = models.Actor{ID: "indie-1", Role: models.RoleProvider}
	barber    = models.Actor{ID: "barber-1", Role: models.RoleProvider}
	barber2   = models.Actor{ID: "barber-2", Role: models.RoleProvider}
	owner     = models.Actor{ID: "owner-1", Role: models.RoleShopOwner}
	admin     = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	ctx := context.Background()

	dir := directoryRepo.NewMemoryDirectoryRepo()
	require.NoError(t, dir.UpsertShop(ctx, &models.Shop{ID: "shop-1", Name: "Fade Street", OwnerID: "owner-1"}))
	require.NoError(t, dir.UpsertService(ctx, &models.Service{
		ID: "svc-cut", Name: "Skin fade", Type: models.ServiceTypeShop, Duration: 30, Price: 20, Currency: "usd",
	}))
	require.NoError(t, dir.UpsertService(ctx, &models.Service{
		ID: "svc-home", Name: "Home cut", Type: models.ServiceTypeHome, Duration: 60, Price: 35, Currency: "usd",
	}))

	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
	for _, p := range []struct {
		id, name, shop string
	}{
		{"indie-1", "Baraka", ""},
		{"barber-1", "Juma", "shop-1"},
		{"barber-2", "Otieno", "shop-1"},
		{"owner-1", "Wanjiru", "shop-1"},
	} {
		require.NoError(t, dir.UpsertProvider(ctx, &models.Provider{
			ID:           p.id,
			DisplayName:  p.name,
			ShopID:       p.shop,
			Status:       models.ProviderActive,
			Capabilities: []models.ServiceType{models.ServiceTypeShop, models.ServiceTypeHome},
			ServiceIDs:   []string{"svc-cut", "svc-home"},
			Schedule:     scheduling.WeeklySchedule(p.id, 9*60, 17*60, weekdays...),
		}))
	}
	require.NoError(t, dir.UpsertCustomer(ctx, &models.Customer{ID: "cust-1", DisplayName: "Amani"}))
	require.NoError(t, dir.UpsertCustomer(ctx, &models.Customer{ID: "cust-2", DisplayName: "Neema"}))

	repo := bookingRepo.NewMemoryBookingRepo()
	gw := &mockGateway{}
	sink := &recordingSink{}
	svc, err := NewDefaultBookingService(repo, dir, gw, sink, zap.NewNop())
	require.NoError(t, err)
	svc.Clock = func() time.Time { return testNow }
	svc.Metrics = NewMetrics("test", nil)

	return &testWorld{svc: svc, repo: repo, dir: dir, gateway: gw, sink: sink}
}

func cashRequest(providerID, clock string) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		ProviderID:  providerID,
		ServiceID:   "svc-cut",
		ServiceType: models.ServiceTypeShop,
		Date:        testDate,
		Time:        clock,
		Payment:     models.PaymentMethod{Kind: models.PaymentCash},
	}
}

func (w *testWorld) create(t *testing.T, actor models.Actor, providerID, clock string) *models.Booking {
	t.Helper()
	b, err := w.svc.CreateBooking(context.Background(), actor, cashRequest(providerID, clock))
	require.NoError(t, err)
	w.sink.take()
	return b
}

func templates(ds []models.NotificationDispatch) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.RecipientID+":"+d.TemplateKey)
	}
	return out
}

func TestCreateBooking(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	b, err := w.svc.CreateBooking(ctx, customer, cashRequest("indie-1", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, 600, b.Start)
	assert.Equal(t, 630, b.End)
	assert.Equal(t, 30, b.Duration)
	assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
	assert.Regexp(t, `^BK-[0-9A-F]{8}$`, b.UID)
	assert.Equal(t, []string{"indie-1:" + TemplateRequested}, templates(w.sink.take()))

	b, err = w.svc.CreateBooking(ctx, customer, cashRequest("barber-1", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "shop-1", b.ShopID)
	assert.Equal(t, []string{"owner-1:" + TemplateRequestedForShop}, templates(w.sink.take()))

	_, err = w.svc.CreateBooking(ctx, customer, cashRequest("owner-1", "10:00"))
	require.NoError(t, err)
	sent := w.sink.take()
	require.Len(t, sent, 1)
	assert.Equal(t, models.RecipientShopOwner, sent[0].RecipientRole)
	assert.Equal(t, "Amani", sent[0].Fields[models.FieldCounterpartName])
}

func TestCreateBookingFailures(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	homeReq := cashRequest("indie-1", "10:00")
	homeReq.ServiceID = "svc-home"
	homeReq.ServiceType = models.ServiceTypeHome

	pastReq := cashRequest("indie-1", "10:00")
	pastReq.Date = "2025-05-30"

	sunday := cashRequest("indie-1", "10:00")
	sunday.Date = "2025-06-08"

	cases := []struct {
		name  string
		actor models.Actor
		req   models.CreateBookingRequest
		want  error
	}{
		{"provider cannot book", indie, cashRequest("indie-1", "10:00"), ErrAuthorization},
		{"unknown provider", customer, cashRequest("ghost", "10:00"), ErrNotFound},
		{"home booking without address", customer, homeReq, ErrValidation},
		{"past date", customer, pastReq, ErrValidation},
		{"before opening", customer, cashRequest("indie-1", "08:30"), ErrSlotUnavailable},
		{"off granularity", customer, cashRequest("indie-1", "10:05"), ErrSlotUnavailable},
		{"closed day", customer, sunday, ErrSlotUnavailable},
		{"bad time", customer, cashRequest("indie-1", "25:00"), ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.svc.CreateBooking(ctx, tc.actor, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, w.sink.take())
}

func TestCreateBookingConcurrentSingleWinner(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	const racers = 20
	for i := 0; i < racers; i++ {
		id := fmt.Sprintf("racer-%d", i)
		require.NoError(t, w.dir.UpsertCustomer(ctx, &models.Customer{ID: id, DisplayName: id}))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			actor := models.Actor{ID: fmt.Sprintf("racer-%d", i), Role: models.RoleCustomer}
			_, err := w.svc.CreateBooking(ctx, actor, cashRequest("barber-1", "11:00"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSlotUnavailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, racers-1, conflicts)

	occupying, err := w.repo.ListOccupying(ctx, "barber-1", testDate)
	require.NoError(t, err)
	assert.Len(t, occupying, 1)
}

func TestCreateBookingOverlapsRejected(t *testing.T) {
	w := newTestWorld(t)
	w.create(t, customer, "indie-1", "10:00")

	// 10:15 overlaps [10:00,10:30) and is no longer offered
	_, err := w.svc.CreateBooking(context.Background(), customer2, cashRequest("indie-1", "10:15"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = w.svc.CreateBooking(context.Background(), customer2, cashRequest("indie-1", "10:30"))
	assert.NoError(t, err)
}

func TestCreateBookingChargesCard(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	req := cashRequest("indie-1", "10:00")
	req.Payment = models.PaymentMethod{Kind: models.PaymentCard, Token: "pm_card_visa"}

	w.gateway.On("Charge", mock.Anything, mock.Anything, 20.0, req.Payment).
		Return(&models.PaymentResult{Reference: "pi_123", Status: models.PaymentPaid, Amount: 20, Currency: "usd"}, nil).Once()

	b, err := w.svc.CreateBooking(ctx, customer, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, b.PaymentStatus)
	assert.Equal(t, "pi_123", b.PaymentRef)
	assert.Equal(t, models.StatusPending, b.Status)
	w.gateway.AssertExpectations(t)
}

func TestCreateBookingChargeFailureVoidsBooking(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	req := cashRequest("indie-1", "10:00")
	req.Payment = models.PaymentMethod{Kind: models.PaymentCard, Token: "pm_card_declined"}
	w.gateway.On("Charge", mock.Anything, mock.Anything, 20.0, req.Payment).Return(nil, errors.New("card declined")).Once()

	_, err := w.svc.CreateBooking(ctx, customer, req)
	assert.ErrorIs(t, err, ErrExternalDependency)
	assert.Empty(t, w.sink.take())

	list, err := w.svc.ListCustomerBookings(ctx, customer, customer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCancelled, list[0].Status)
	assert.Equal(t, models.PaymentFailed, list[0].PaymentStatus)
	assert.Zero(t, w.repo.ClaimCount(list[0].ID))

	// the slot is open again
	_, err = w.svc.CreateBooking(ctx, customer2, cashRequest("indie-1", "10:00"))
	assert.NoError(t, err)
}

func TestAcceptBookingTwice(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")

	updated, err := w.svc.AcceptBooking(ctx, barber, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.NotNil(t, updated.ReviewedAt)
	assert.Equal(t,
		[]string{"cust-1:" + TemplateAccepted, "owner-1:" + TemplateAcceptedByProvider},
		templates(w.sink.take()))

	_, err = w.svc.AcceptBooking(ctx, barber, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Empty(t, w.sink.take())
}

func TestAcceptBookingConcurrent(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		already  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		actor := barber
		if i%2 == 1 {
			actor = owner
		}
		go func(actor models.Actor) {
			defer wg.Done()
			_, err := w.svc.AcceptBooking(ctx, actor, b.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if errors.Is(err, ErrAlreadyProcessed) {
				already++
			}
		}(actor)
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 9, already)

	customerNotes := 0
	for _, d := range w.sink.take() {
		if d.RecipientID == customer.ID {
			customerNotes++
		}
	}
	assert.Equal(t, 1, customerNotes)
}

func TestAcceptBookingAuthorization(t *testing.T) {
	w := newTestWorld(t)
	b := w.create(t, customer, "barber-1", "10:00")

	_, err := w.svc.AcceptBooking(context.Background(), barber2, b.ID)
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = w.svc.AcceptBooking(context.Background(), customer, b.ID)
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = w.svc.AcceptBooking(context.Background(), barber, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectShopAffiliatedNotifiesOwnerOnly(t *testing.T) {
	w := newTestWorld(t)
	b := w.create(t, customer, "barber-1", "10:00")

	updated, err := w.svc.RejectBooking(context.Background(), barber, b.ID, "double shift")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Equal(t, "double shift", updated.Reason)
	assert.Zero(t, w.repo.ClaimCount(b.ID))

	sent := w.sink.take()
	require.Len(t, sent, 1)
	assert.Equal(t, "owner-1", sent[0].RecipientID)
	assert.Equal(t, TemplateRejectedNeedsAction, sent[0].TemplateKey)
}

func TestRejectIndependentNotifiesCustomer(t *testing.T) {
	w := newTestWorld(t)
	b := w.create(t, customer, "indie-1", "10:00")

	_, err := w.svc.RejectBooking(context.Background(), indie, b.ID, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.svc.RejectBooking(context.Background(), indie, b.ID, "closed for repairs")
	require.NoError(t, err)
	assert.Equal(t, []string{"cust-1:" + TemplateRejected}, templates(w.sink.take()))
}

func TestReassignToSelfConfirms(t *testing.T) {
	w := newTestWorld(t)
	b := w.create(t, customer, "barber-1", "10:00")

	updated, err := w.svc.ReassignBooking(context.Background(), owner, b.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, "owner-1", updated.ProviderID)
	require.Len(t, updated.Reassignments, 1)
	assert.Equal(t, "barber-1", updated.Reassignments[0].FromProviderID)
	assert.Equal(t, "owner-1", updated.Reassignments[0].ToProviderID)

	sent := w.sink.take()
	require.Len(t, sent, 1)
	assert.Equal(t, customer.ID, sent[0].RecipientID)
	assert.Equal(t, TemplateConfirmed, sent[0].TemplateKey)
	assert.Equal(t, "Wanjiru", sent[0].Fields[models.FieldCounterpartName])

	// claims moved to the owner's calendar
	assert.Equal(t, 6, w.repo.ClaimCount(b.ID))
	owned, err := w.repo.ListOccupying(context.Background(), "owner-1", testDate)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestReassignAfterReject(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")

	_, err := w.svc.RejectBooking(ctx, barber, b.ID, "sick")
	require.NoError(t, err)
	w.sink.take()

	updated, err := w.svc.ReassignBooking(ctx, owner, b.ID, "barber-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Equal(t, "barber-2", updated.ProviderID)
	assert.Equal(t, models.StatusRejected, updated.Reassignments[0].FromStatus)
	assert.Equal(t,
		[]string{"barber-2:" + TemplateReassignedToYou, "cust-1:" + TemplateReassigned},
		templates(w.sink.take()))

	// the new provider can now accept
	_, err = w.svc.AcceptBooking(ctx, barber2, b.ID)
	assert.NoError(t, err)
}

func TestReassignFailures(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")
	w.create(t, customer2, "barber-2", "10:15")

	_, err := w.svc.ReassignBooking(ctx, owner, b.ID, "barber-2")
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = w.svc.ReassignBooking(ctx, barber, b.ID, "owner-1")
	assert.ErrorIs(t, err, ErrAuthorization)

	_, err = w.svc.ReassignBooking(ctx, owner, b.ID, "indie-1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.svc.ReassignBooking(ctx, owner, b.ID, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	indieBooking := w.create(t, customer, "indie-1", "12:00")
	for _, actor := range []models.Actor{owner, admin} {
		_, err = w.svc.ReassignBooking(ctx, actor, indieBooking.ID, "barber-2")
		assert.ErrorIs(t, err, ErrInvalidTransition, actor.ID)
	}

	current, err := w.svc.GetBooking(ctx, customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "barber-1", current.ProviderID)
	assert.Equal(t, models.StatusPending, current.Status)
	assert.Equal(t, 6, w.repo.ClaimCount(b.ID))
	assert.Empty(t, w.sink.take())
}

func cardBooking(t *testing.T, w *testWorld) *models.Booking {
	t.Helper()
	req := cashRequest("indie-1", "10:00")
	req.Payment = models.PaymentMethod{Kind: models.PaymentCard, Token: "pm_card_visa"}
	w.gateway.On("Charge", mock.Anything, mock.Anything, 20.0, req.Payment).
		Return(&models.PaymentResult{Reference: "pi_123", Status: models.PaymentPaid, Amount: 20, Currency: "usd"}, nil).Once()

	b, err := w.svc.CreateBooking(context.Background(), customer, req)
	require.NoError(t, err)
	w.sink.take()
	return b
}

func TestCancelRefundFailureLeavesBookingUntouched(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := cardBooking(t, w)

	_, err := w.svc.AcceptBooking(ctx, indie, b.ID)
	require.NoError(t, err)
	w.sink.take()

	w.gateway.On("Refund", mock.Anything, b.ID, 20.0).Return(nil, errors.New("gateway timeout")).Once()

	_, err = w.svc.CancelBooking(ctx, customer, b.ID, "plans changed")
	assert.ErrorIs(t, err, ErrExternalDependency)

	after, err := w.svc.GetBooking(ctx, customer, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, after.Status)
	assert.Equal(t, models.PaymentPaid, after.PaymentStatus)
	assert.Nil(t, after.Lease)
	assert.Equal(t, 6, w.repo.ClaimCount(b.ID))
	assert.Empty(t, w.sink.take())

	w.gateway.On("Refund", mock.Anything, b.ID, 20.0).
		Return(&models.RefundResult{Reference: "re_1", Amount: 20}, nil).Once()

	cancelled, err := w.svc.CancelBooking(ctx, customer, b.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, 20.0, cancelled.RefundedAmount)
	assert.Equal(t, customer.ID, cancelled.CancelledBy)
	assert.Nil(t, cancelled.Lease)
	assert.Zero(t, w.repo.ClaimCount(b.ID))
	assert.Equal(t, []string{"indie-1:" + TemplateCancelled}, templates(w.sink.take()))
	w.gateway.AssertExpectations(t)
}

func TestCancelDuringActiveLease(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := cardBooking(t, w)

	expires := testNow.Add(time.Minute)
	_, err := w.repo.CompareAndSwap(ctx, b.ID, b.Status, b.Version, models.BookingUpdate{
		Lease: &models.Lease{Operation: "cancel", ActorID: admin.ID, ExpiresAt: expires},
	})
	require.NoError(t, err)

	_, err = w.svc.CancelBooking(ctx, customer, b.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	_, err = w.svc.AcceptBooking(ctx, indie, b.ID)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	w.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelCashNotifiesCounterparty(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	b := w.create(t, customer, "barber-1", "10:00")
	_, err := w.svc.CancelBooking(ctx, customer, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"barber-1:" + TemplateCancelled, "owner-1:" + TemplateCancelled},
		templates(w.sink.take()))

	b = w.create(t, customer, "barber-1", "11:00")
	_, err = w.svc.CancelBooking(ctx, barber, b.ID, "emergency")
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"cust-1:" + TemplateCancelled, "owner-1:" + TemplateCancelled},
		templates(w.sink.take()))

	_, err = w.svc.CancelBooking(ctx, customer2, b.ID, "")
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = w.svc.CancelBooking(ctx, customer, b.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	w.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceLifecycleAndRating(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "indie-1", "10:00")

	_, err := w.svc.CompleteBooking(ctx, indie, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = w.svc.RateBooking(ctx, customer, b.ID, 5, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = w.svc.AcceptBooking(ctx, indie, b.ID)
	require.NoError(t, err)
	started, err := w.svc.StartBooking(ctx, indie, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, started.Status)
	w.sink.take()

	done, err := w.svc.CompleteBooking(ctx, models.SystemActor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
	assert.Zero(t, w.repo.ClaimCount(b.ID))
	assert.Equal(t, []string{"cust-1:" + TemplateRatePrompt}, templates(w.sink.take()))

	_, err = w.svc.RateBooking(ctx, customer, b.ID, 6, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = w.svc.RateBooking(ctx, customer2, b.ID, 5, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	rated, err := w.svc.RateBooking(ctx, customer, b.ID, 5, "  sharp fade ")
	require.NoError(t, err)
	assert.Equal(t, 5, rated.Rating)
	assert.Equal(t, "sharp fade", rated.Review)
	assert.Equal(t, models.StatusCompleted, rated.Status)

	_, err = w.svc.RateBooking(ctx, customer, rated.UID, 4, "")
	assert.ErrorIs(t, err, ErrAlreadyRated)
	assert.Empty(t, w.sink.take())
}

func TestMarkNoShow(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")

	_, err := w.svc.AcceptBooking(ctx, owner, b.ID)
	require.NoError(t, err)
	_, err = w.svc.MarkNoShow(ctx, barber, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = w.svc.StartBooking(ctx, barber, b.ID)
	require.NoError(t, err)
	w.sink.take()

	updated, err := w.svc.MarkNoShow(ctx, barber, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoShow, updated.Status)
	assert.Equal(t, []string{"cust-1:" + TemplateNoShow}, templates(w.sink.take()))
}

func TestNotificationFailureDoesNotBlockTransition(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")

	w.sink.err = errors.New("redis unavailable")
	updated, err := w.svc.AcceptBooking(ctx, barber, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	stored, err := w.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestGetAndListBookings(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()
	b := w.create(t, customer, "barber-1", "10:00")
	w.create(t, customer2, "barber-1", "11:00")

	for _, actor := range []models.Actor{customer, barber, owner, admin} {
		got, err := w.svc.GetBooking(ctx, actor, b.ID)
		require.NoError(t, err, actor.ID)
		assert.Equal(t, b.ID, got.ID)
	}
	byUID, err := w.svc.GetBooking(ctx, customer, b.UID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, byUID.ID)

	for _, actor := range []models.Actor{customer2, barber2, indie} {
		_, err := w.svc.GetBooking(ctx, actor, b.ID)
		assert.ErrorIs(t, err, ErrAuthorization, actor.ID)
	}

	mine, err := w.svc.ListCustomerBookings(ctx, customer, customer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	_, err = w.svc.ListCustomerBookings(ctx, customer2, customer.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	calendar, err := w.svc.ListProviderBookings(ctx, owner, "barber-1", testDate)
	require.NoError(t, err)
	require.Len(t, calendar, 2)
	assert.Equal(t, 600, calendar[0].Start)
	_, err = w.svc.ListProviderBookings(ctx, barber2, "barber-1", "")
	assert.ErrorIs(t, err, ErrAuthorization)
	_, err = w.svc.ListProviderBookings(ctx, barber, "barber-1", "June 4")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListAvailableSlots(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	closed, err := w.svc.ListAvailableSlots(ctx, "indie-1", "svc-cut", "2025-06-08")
	require.NoError(t, err)
	assert.Equal(t, models.DayUnavailable, closed.DayStatus)
	assert.Empty(t, closed.Slots)

	open, err := w.svc.ListAvailableSlots(ctx, "indie-1", "svc-cut", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.DayAvailable, open.DayStatus)
	assert.Len(t, open.Slots, 31) // 09:00 .. 16:30 every 15 minutes
	assert.Equal(t, "09:00", open.Slots[0].StartTime)
	assert.Equal(t, "16:30", open.Slots[len(open.Slots)-1].StartTime)

	w.create(t, customer, "indie-1", "10:00")
	after, err := w.svc.ListAvailableSlots(ctx, "indie-1", "svc-cut", testDate)
	require.NoError(t, err)
	starts := map[string]bool{}
	for _, s := range after.Slots {
		starts[s.StartTime] = true
	}
	assert.False(t, starts["09:45"])
	assert.False(t, starts["10:00"])
	assert.False(t, starts["10:15"])
	assert.True(t, starts["09:30"])
	assert.True(t, starts["10:30"])

	_, err = w.svc.ListAvailableSlots(ctx, "indie-1", "svc-nope", testDate)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = w.svc.ListAvailableSlots(ctx, "indie-1", "svc-cut", "tomorrow")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateSchedule(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	mondays := scheduling.WeeklySchedule("", 9*60, 12*60, time.Monday)
	_, err := w.svc.UpdateSchedule(ctx, barber2, "barber-1", mondays)
	assert.ErrorIs(t, err, ErrAuthorization)

	bad := mondays
	bad.Days = bad.Days[:6]
	_, err = w.svc.UpdateSchedule(ctx, owner, "barber-1", bad)
	assert.ErrorIs(t, err, ErrValidation)

	saved, err := w.svc.UpdateSchedule(ctx, owner, "barber-1", mondays)
	require.NoError(t, err)
	assert.Equal(t, "barber-1", saved.ProviderID)

	slots, err := w.svc.ListAvailableSlots(ctx, "barber-1", "svc-cut", testDate)
	require.NoError(t, err)
	assert.Equal(t, models.DayUnavailable, slots.DayStatus)
}

func TestRegisterProvider(t *testing.T) {
	w := newTestWorld(t)
	ctx := context.Background()

	shopOnly := &models.Provider{
		ID:           "barber-3",
		DisplayName:  "Kip",
		ShopID:       "shop-1",
		Capabilities: []models.ServiceType{models.ServiceTypeShop},
		ServiceIDs:   []string{"svc-cut", "svc-home"},
	}
	_, err := w.svc.RegisterProvider(ctx, admin, shopOnly)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.svc.RegisterProvider(ctx, owner, shopOnly)
	assert.ErrorIs(t, err, ErrAuthorization)

	shopOnly.ServiceIDs = []string{"svc-cut"}
	p, err := w.svc.RegisterProvider(ctx, admin, shopOnly)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderActive, p.Status)
	assert.Len(t, p.Schedule.Days, 7)

	stored, err := w.dir.GetProvider(ctx, "barber-3")
	require.NoError(t, err)
	assert.Equal(t, "shop-1", stored.ShopID)

	orphan := &models.Provider{
		ID:           "barber-4",
		DisplayName:  "Lee",
		ShopID:       "shop-missing",
		Capabilities: []models.ServiceType{models.ServiceTypeShop},
	}
	_, err = w.svc.RegisterProvider(ctx, admin, orphan)
	assert.ErrorIs(t, err, ErrNotFound)
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingRepo "barberly/database/repository/booking"
	directoryRepo "barberly/database/repository/directory"
	"barberly/models"
	"barberly/services/notification"
	"barberly/services/payment"
	"barberly/services/scheduling"

	"go.uber.org/zap"
)

// DefaultLeaseTTL bounds how long a cancellation may hold a booking while the
// refund call is in flight.
const DefaultLeaseTTL = 2 * time.Minute

const notifyTimeout = 3 * time.Second

// BookingService is the booking API consumed by the HTTP layer.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*models.Booking, error)
	AcceptBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	RejectBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	ReassignBooking(ctx context.Context, actor models.Actor, bookingID, targetProviderID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	StartBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	MarkNoShow(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	RateBooking(ctx context.Context, actor models.Actor, bookingID string, rating int, review string) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	ListCustomerBookings(ctx context.Context, actor models.Actor, customerID string) ([]models.Booking, error)
	ListProviderBookings(ctx context.Context, actor models.Actor, providerID, date string) ([]models.Booking, error)
	ListAvailableSlots(ctx context.Context, providerID, serviceID, date string) (*models.SlotsResult, error)
	UpdateSchedule(ctx context.Context, actor models.Actor, providerID string, schedule models.Schedule) (*models.Schedule, error)
	RegisterProvider(ctx context.Context, actor models.Actor, p *models.Provider) (*models.Provider, error)
}

// DefaultBookingService orchestrates the lifecycle rules, the stores and the
// payment and notification collaborators.
type DefaultBookingService struct {
	Repo         bookingRepo.BookingRepository
	Directory    directoryRepo.DirectoryRepository
	Payments     payment.Gateway
	RefundPolicy payment.RefundPolicy
	Notifier     notification.Sink
	Clock        func() time.Time
	Granularity  int
	Location     *time.Location
	LeaseTTL     time.Duration
	Logger       *zap.Logger
	Metrics      *Metrics
}

func NewDefaultBookingService(
	repo bookingRepo.BookingRepository,
	dir directoryRepo.DirectoryRepository,
	payments payment.Gateway,
	notifier notification.Sink,
	logger *zap.Logger,
) (*DefaultBookingService, error) {
	if repo == nil || dir == nil || payments == nil || notifier == nil {
		return nil, fmt.Errorf("booking service initialization error: repository, directory, payments and notifier are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Repo:         repo,
		Directory:    dir,
		Payments:     payments,
		RefundPolicy: payment.DefaultRefundPolicy,
		Notifier:     notifier,
		Clock:        time.Now,
		Granularity:  scheduling.DefaultGranularity,
		Location:     time.UTC,
		LeaseTTL:     DefaultLeaseTTL,
		Logger:       logger,
	}, nil
}

func (s *DefaultBookingService) now() time.Time {
	if s.Clock == nil {
		return time.Now().In(s.loc())
	}
	return s.Clock().In(s.loc())
}

func (s *DefaultBookingService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *DefaultBookingService) leaseTTL() time.Duration {
	if s.LeaseTTL <= 0 {
		return DefaultLeaseTTL
	}
	return s.LeaseTTL
}

// providerParty is the resolved provider side of a booking.
type providerParty struct {
	provider *models.Provider
	shop     *models.Shop
	res      Resolution
}

func (s *DefaultBookingService) resolveProvider(ctx context.Context, providerID string) (*providerParty, error) {
	p, err := s.Directory.GetProvider(ctx, providerID)
	if err != nil {
		return nil, directoryError(err, "providerNotFound", "provider %s", providerID)
	}
	var shop *models.Shop
	if p.ShopID != "" {
		shop, err = s.Directory.GetShop(ctx, p.ShopID)
		if err != nil {
			return nil, directoryError(err, "shopNotFound", "shop %s", p.ShopID)
		}
	}
	return &providerParty{provider: p, shop: shop, res: Resolve(p, shop)}, nil
}

func (s *DefaultBookingService) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, validationError("bookingIdRequired", "booking id is required")
	}
	var (
		b   *models.Booking
		err error
	)
	if strings.HasPrefix(bookingID, "BK-") {
		b, err = s.Repo.GetByUID(ctx, bookingID)
	} else {
		b, err = s.Repo.GetByID(ctx, bookingID)
	}
	if err != nil {
		return nil, repoError(err, bookingID)
	}
	return b, nil
}

// loadWithParty loads a booking and resolves its current provider.
func (s *DefaultBookingService) loadWithParty(ctx context.Context, bookingID string) (*models.Booking, *providerParty, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	pp, err := s.resolveProvider(ctx, b.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	return b, pp, nil
}

// commit persists tr against the version of b that was read. Losing the race
// reports AlreadyProcessed.
func (s *DefaultBookingService) commit(ctx context.Context, b *models.Booking, tr Transition) (*models.Booking, error) {
	updated, err := s.Repo.CompareAndSwap(ctx, b.ID, tr.From, b.Version, tr.Update)
	if err != nil {
		return nil, repoError(err, b.ID)
	}
	s.Logger.Info("Booking transition",
		zap.String("bookingID", b.ID),
		zap.String("transition", string(tr.Kind)),
		zap.String("from", string(tr.From)),
		zap.String("to", string(updated.Status)),
		zap.String("actorID", tr.Actor.ID),
		zap.String("actorRole", string(tr.Actor.Role)))
	return updated, nil
}

// releaseIfVacated drops the calendar claims of a booking that stopped
// occupying its slot. A failure is only logged: the claim reads as stale once
// its holder is no longer occupying.
func (s *DefaultBookingService) releaseIfVacated(ctx context.Context, before models.BookingStatus, after *models.Booking, providerID string) {
	if !before.Occupying() || after.Status.Occupying() {
		return
	}
	if err := s.Repo.ReleaseSlot(ctx, providerID, after.Date, after.ID); err != nil {
		s.Logger.Warn("Failed to release slot claim",
			zap.String("bookingID", after.ID),
			zap.String("providerID", providerID),
			zap.Error(err))
	}
}

// notify plans and enqueues the fan-out for a committed transition. It never
// fails the caller.
func (s *DefaultBookingService) notify(ctx context.Context, tr Transition, kind ProviderKind, shopOwnerID string, b *models.Booking, providerName string) {
	in := FanoutInput{
		Transition:   tr.Kind,
		ProviderKind: kind,
		Booking:      b,
		ShopOwnerID:  shopOwnerID,
		Actor:        tr.Actor,
		CustomerName: s.customerName(ctx, b.CustomerID),
		ProviderName: providerName,
	}
	dispatches := PlanNotifications(in)
	if len(dispatches) == 0 {
		return
	}

	// the request may be over by the time the sink answers
	base := context.WithoutCancel(ctx)
	for _, d := range dispatches {
		sendCtx, cancel := context.WithTimeout(base, notifyTimeout)
		err := s.Notifier.Enqueue(sendCtx, d)
		cancel()
		if err != nil {
			s.Metrics.incNotificationFailure(d.TemplateKey)
			s.Logger.Error("Failed to enqueue notification",
				zap.String("bookingID", b.ID),
				zap.String("template", d.TemplateKey),
				zap.String("recipient", d.RecipientID),
				zap.Error(err))
		}
	}
}

func (s *DefaultBookingService) customerName(ctx context.Context, customerID string) string {
	c, err := s.Directory.GetCustomer(ctx, customerID)
	if err != nil || c.DisplayName == "" {
		return "A customer"
	}
	return c.DisplayName
}

// CreateBooking validates the request against the provider's current open
// slots, commits the booking through the slot claim and charges card
// payments.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (b *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionCreate, err) }()

	if actor.Role != models.RoleCustomer || actor.ID == "" {
		return nil, authorizationError("only customers can request bookings")
	}
	if req.ProviderID == "" || req.ServiceID == "" {
		return nil, validationError("missingFields", "providerId and serviceId are required")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pp, err := s.resolveProvider(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	svc, err := s.Directory.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, directoryError(err, "serviceNotFound", "service %s", req.ServiceID)
	}

	now := s.now()
	var slots []models.TimeWindow
	if day, perr := scheduling.ParseDate(req.Date, s.loc()); perr == nil {
		existing, err := s.Repo.ListOccupying(ctx, pp.provider.ID, req.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings for provider %s: %w", pp.provider.ID, err)
		}
		slots = scheduling.ComputeSlots(scheduling.SlotQuery{
			Schedule:        pp.provider.Schedule,
			Date:            day,
			DurationMinutes: svc.Duration,
			Bookings:        existing,
			Now:             now,
			Granularity:     s.Granularity,
		})
	}

	b, tr, err := Create(CreateInput{
		Request:    req,
		Customer:   actor,
		Provider:   pp.provider,
		Service:    svc,
		Resolution: pp.res,
		Slots:      slots,
		Now:        now,
		Location:   s.loc(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, b); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			s.Metrics.incSlotConflict()
			return nil, slotUnavailableError("%s %s was just taken for provider %s", req.Date, req.Time, pp.provider.ID)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.Logger.Info("Booking created",
		zap.String("bookingID", b.ID),
		zap.String("uid", b.UID),
		zap.String("providerID", b.ProviderID),
		zap.String("date", b.Date),
		zap.String("window", b.Window().String()))

	if req.Payment.Kind == models.PaymentCard {
		b, err = s.chargeOnCreate(ctx, b, req.Payment)
		if err != nil {
			return nil, err
		}
	}

	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, b, pp.provider.DisplayName)
	return b, nil
}

// chargeOnCreate captures a card payment for a freshly created booking. A
// declined or failed charge voids the booking and frees its slot.
func (s *DefaultBookingService) chargeOnCreate(ctx context.Context, b *models.Booking, method models.PaymentMethod) (*models.Booking, error) {
	result, chargeErr := s.Payments.Charge(ctx, b.ID, b.Price, method)
	if chargeErr != nil {
		s.Metrics.incPaymentFailure("charge")
		s.Logger.Warn("Charge failed, voiding booking", zap.String("bookingID", b.ID), zap.Error(chargeErr))

		now := s.now()
		to := models.StatusCancelled
		by := models.SystemActor.ID
		reason := "payment failed"
		failed := models.PaymentFailed
		upd := models.BookingUpdate{
			Status:        &to,
			CancelledAt:   &now,
			CancelledBy:   &by,
			Reason:        &reason,
			PaymentStatus: &failed,
			UpdatedAt:     now,
		}
		if _, err := s.Repo.CompareAndSwap(ctx, b.ID, b.Status, b.Version, upd); err != nil {
			s.Logger.Error("Failed to void unpaid booking", zap.String("bookingID", b.ID), zap.Error(err))
		}
		if err := s.Repo.ReleaseSlot(ctx, b.ProviderID, b.Date, b.ID); err != nil {
			s.Logger.Warn("Failed to release slot claim", zap.String("bookingID", b.ID), zap.Error(err))
		}
		return nil, externalError("paymentFailed", chargeErr)
	}

	status := result.Status
	ref := result.Reference
	upd := models.BookingUpdate{PaymentStatus: &status, PaymentRef: &ref, UpdatedAt: s.now()}

	// the provider may already have answered; retry against the fresh version
	current := b
	for attempt := 0; attempt < 3; attempt++ {
		updated, err := s.Repo.CompareAndSwap(ctx, current.ID, current.Status, current.Version, upd)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, bookingRepo.ErrStaleBooking) {
			return nil, fmt.Errorf("failed to record payment for booking %s: %w", b.ID, err)
		}
		if current, err = s.Repo.GetByID(ctx, b.ID); err != nil {
			return nil, repoError(err, b.ID)
		}
	}
	return nil, fmt.Errorf("failed to record payment for booking %s: %w", b.ID, bookingRepo.ErrStaleBooking)
}

// AcceptBooking confirms a pending booking.
func (s *DefaultBookingService) AcceptBooking(ctx context.Context, actor models.Actor, bookingID string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionAccept, err) }()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, pp, err := s.loadWithParty(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tr, err := Accept(b, actor, pp.res, s.now())
	if err != nil {
		return nil, err
	}
	if updated, err = s.commit(ctx, b, tr); err != nil {
		return nil, err
	}
	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, updated, pp.provider.DisplayName)
	return updated, nil
}

// RejectBooking declines a pending booking and frees the provider's slot.
func (s *DefaultBookingService) RejectBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionReject, err) }()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, pp, err := s.loadWithParty(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tr, err := Reject(b, actor, pp.res, reason, s.now())
	if err != nil {
		return nil, err
	}
	if updated, err = s.commit(ctx, b, tr); err != nil {
		return nil, err
	}
	s.releaseIfVacated(ctx, tr.From, updated, b.ProviderID)
	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, updated, pp.provider.DisplayName)
	return updated, nil
}

// ReassignBooking moves a booking to another provider of the same shop after
// claiming the slot on the target's calendar.
func (s *DefaultBookingService) ReassignBooking(ctx context.Context, actor models.Actor, bookingID, targetProviderID string) (updated *models.Booking, err error) {
	kind := TransitionReassign
	defer func() { s.Metrics.observeTransition(kind, err) }()

	if strings.TrimSpace(targetProviderID) == "" {
		return nil, validationError("targetRequired", "a reassignment needs a target provider")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	b, pp, err := s.loadWithParty(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	target, err := s.Directory.GetProvider(ctx, targetProviderID)
	if err != nil {
		return nil, directoryError(err, "providerNotFound", "provider %s", targetProviderID)
	}
	now := s.now()
	tr, err := Reassign(b, actor, pp.res, target, now)
	if err != nil {
		return nil, err
	}
	kind = tr.Kind

	if err := s.checkTargetFree(ctx, b, target, now); err != nil {
		return nil, err
	}
	if err := s.Repo.ClaimSlot(ctx, target.ID, b.Date, b.Window(), b.ID); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			s.Metrics.incSlotConflict()
			return nil, slotUnavailableError("provider %s is no longer free on %s at %s", target.ID, b.Date, models.ClockString(b.Start))
		}
		return nil, fmt.Errorf("failed to claim slot for provider %s: %w", target.ID, err)
	}
	if updated, err = s.commit(ctx, b, tr); err != nil {
		if rerr := s.Repo.ReleaseSlot(ctx, target.ID, b.Date, b.ID); rerr != nil {
			s.Logger.Warn("Failed to release slot claim", zap.String("bookingID", b.ID), zap.Error(rerr))
		}
		return nil, err
	}
	if tr.From.Occupying() {
		if err := s.Repo.ReleaseSlot(ctx, b.ProviderID, b.Date, b.ID); err != nil {
			s.Logger.Warn("Failed to release previous provider's claim",
				zap.String("bookingID", b.ID), zap.String("providerID", b.ProviderID), zap.Error(err))
		}
	}
	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, updated, target.DisplayName)
	return updated, nil
}

// checkTargetFree re-runs the slot calculator for the target provider at the
// finest step, so any start on the target's open hours qualifies.
func (s *DefaultBookingService) checkTargetFree(ctx context.Context, b *models.Booking, target *models.Provider, now time.Time) error {
	day, err := scheduling.ParseDate(b.Date, s.loc())
	if err != nil {
		return fmt.Errorf("booking %s has a corrupt date: %w", b.ID, err)
	}
	existing, err := s.Repo.ListOccupying(ctx, target.ID, b.Date)
	if err != nil {
		return fmt.Errorf("failed to load bookings for provider %s: %w", target.ID, err)
	}
	slots := scheduling.ComputeSlots(scheduling.SlotQuery{
		Schedule:        target.Schedule,
		Date:            day,
		DurationMinutes: b.Duration,
		Bookings:        existing,
		Now:             now,
		Granularity:     models.TimeStepMinutes,
	})
	if !scheduling.ContainsStart(slots, b.Start) {
		s.Metrics.incSlotConflict()
		return slotUnavailableError("provider %s is not free on %s at %s", target.ID, b.Date, models.ClockString(b.Start))
	}
	return nil
}

// CancelBooking cancels a pending or confirmed booking. When money was
// captured the booking is leased, refunded and only then cancelled; a failed
// refund leaves the booking as it was.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionCancel, err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	b, pp, err := s.loadWithParty(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	startsAt, err := b.StartsAt(s.loc())
	if err != nil {
		return nil, fmt.Errorf("booking %s has a corrupt date: %w", b.ID, err)
	}
	now := s.now()
	tr, err := Cancel(b, actor, pp.res, reason, startsAt, now)
	if err != nil {
		return nil, err
	}

	refund := 0.0
	if b.PaymentStatus == models.PaymentPaid || b.PaymentStatus == models.PaymentPartiallyRefunded {
		policy := s.RefundPolicy
		if policy == nil {
			policy = payment.DefaultRefundPolicy
		}
		refund = policy(*b, startsAt, now)
	}

	if refund <= 0 {
		if updated, err = s.commit(ctx, b, tr); err != nil {
			return nil, err
		}
	} else if updated, err = s.cancelWithRefund(ctx, b, tr, refund, now); err != nil {
		return nil, err
	}

	s.releaseIfVacated(ctx, tr.From, updated, b.ProviderID)
	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, updated, pp.provider.DisplayName)
	return updated, nil
}

func (s *DefaultBookingService) cancelWithRefund(ctx context.Context, b *models.Booking, tr Transition, amount float64, now time.Time) (*models.Booking, error) {
	leaseUpd := models.BookingUpdate{
		Lease:     &models.Lease{Operation: "cancel", ActorID: tr.Actor.ID, ExpiresAt: now.Add(s.leaseTTL())},
		UpdatedAt: now,
	}
	leased, err := s.Repo.CompareAndSwap(ctx, b.ID, tr.From, b.Version, leaseUpd)
	if err != nil {
		return nil, repoError(err, b.ID)
	}

	result, refundErr := s.Payments.Refund(ctx, b.ID, amount)
	if refundErr != nil {
		s.Metrics.incPaymentFailure("refund")
		s.Logger.Warn("Refund failed, cancellation aborted",
			zap.String("bookingID", b.ID), zap.Float64("amount", amount), zap.Error(refundErr))
		release := models.BookingUpdate{ClearLease: true, UpdatedAt: s.now()}
		if _, err := s.Repo.CompareAndSwap(context.WithoutCancel(ctx), b.ID, leased.Status, leased.Version, release); err != nil {
			s.Logger.Error("Failed to clear cancellation lease", zap.String("bookingID", b.ID), zap.Error(err))
		}
		return nil, externalError("refundFailed", refundErr)
	}

	refunded := b.RefundedAmount + result.Amount
	status := models.PaymentPartiallyRefunded
	if refunded >= b.Price {
		status = models.PaymentRefunded
	}
	upd := tr.Update
	upd.ClearLease = true
	upd.PaymentStatus = &status
	upd.RefundedAmount = &refunded

	updated, err := s.Repo.CompareAndSwap(context.WithoutCancel(ctx), b.ID, leased.Status, leased.Version, upd)
	if err != nil {
		s.Logger.Error("Refund issued but cancellation not recorded",
			zap.String("bookingID", b.ID), zap.String("refundRef", result.Reference), zap.Error(err))
		return nil, repoError(err, b.ID)
	}
	s.Logger.Info("Booking refunded",
		zap.String("bookingID", b.ID),
		zap.String("refundRef", result.Reference),
		zap.Float64("amount", result.Amount))
	return updated, nil
}

// StartBooking marks a confirmed booking as in progress.
func (s *DefaultBookingService) StartBooking(ctx context.Context, actor models.Actor, bookingID string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionStart, err) }()
	return s.serviceStep(ctx, actor, bookingID, Start)
}

// CompleteBooking closes a booking and prompts the customer for a rating.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, actor models.Actor, bookingID string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionComplete, err) }()
	return s.serviceStep(ctx, actor, bookingID, Complete)
}

// MarkNoShow records a customer who never turned up.
func (s *DefaultBookingService) MarkNoShow(ctx context.Context, actor models.Actor, bookingID string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionNoShow, err) }()
	return s.serviceStep(ctx, actor, bookingID, MarkNoShow)
}

type serviceTransition func(b *models.Booking, actor models.Actor, res Resolution, now time.Time) (Transition, error)

func (s *DefaultBookingService) serviceStep(ctx context.Context, actor models.Actor, bookingID string, step serviceTransition) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, pp, err := s.loadWithParty(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tr, err := step(b, actor, pp.res, s.now())
	if err != nil {
		return nil, err
	}
	updated, err := s.commit(ctx, b, tr)
	if err != nil {
		return nil, err
	}
	s.releaseIfVacated(ctx, tr.From, updated, b.ProviderID)
	s.notify(ctx, tr, pp.res.Kind, pp.res.ShopOwnerID, updated, pp.provider.DisplayName)
	return updated, nil
}

// RateBooking stores the customer's single rating of a completed booking.
func (s *DefaultBookingService) RateBooking(ctx context.Context, actor models.Actor, bookingID string, rating int, review string) (updated *models.Booking, err error) {
	defer func() { s.Metrics.observeTransition(TransitionRate, err) }()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	tr, err := Rate(b, actor, rating, review, s.now())
	if err != nil {
		return nil, err
	}
	updated, err = s.commit(ctx, b, tr)
	if errors.Is(err, ErrAlreadyProcessed) {
		// a concurrent rating won
		return nil, alreadyRatedError(b.ID)
	}
	return updated, err
}

// GetBooking returns a booking to one of its parties. bookingID may be the
// internal id or the BK- reference.
func (s *DefaultBookingService) GetBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Privileged() || (actor.Role == models.RoleCustomer && actor.ID == b.CustomerID) {
		return b, nil
	}
	if isProviderSide(actor) {
		pp, err := s.resolveProvider(ctx, b.ProviderID)
		if err != nil {
			return nil, err
		}
		if pp.res.CanApprove(actor.ID) {
			return b, nil
		}
	}
	return nil, authorizationError("%s cannot view booking %s", actor.ID, b.ID)
}

// ListCustomerBookings lists a customer's bookings, newest first.
func (s *DefaultBookingService) ListCustomerBookings(ctx context.Context, actor models.Actor, customerID string) ([]models.Booking, error) {
	if !actor.Privileged() && !(actor.Role == models.RoleCustomer && actor.ID == customerID) {
		return nil, authorizationError("%s cannot list bookings of customer %s", actor.ID, customerID)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	bookings, err := s.Repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for customer %s: %w", customerID, err)
	}
	return bookings, nil
}

// ListProviderBookings lists a provider's calendar, optionally for one date.
func (s *DefaultBookingService) ListProviderBookings(ctx context.Context, actor models.Actor, providerID, date string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if date != "" {
		if _, err := scheduling.ParseDate(date, s.loc()); err != nil {
			return nil, validationError("invalidDate", "%v", err)
		}
	}
	pp, err := s.resolveProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !actor.Privileged() && !(isProviderSide(actor) && pp.res.CanApprove(actor.ID)) {
		return nil, authorizationError("%s cannot list bookings of provider %s", actor.ID, providerID)
	}
	bookings, err := s.Repo.ListByProvider(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for provider %s: %w", providerID, err)
	}
	return bookings, nil
}

// ListAvailableSlots returns the open windows of a provider for a service on
// date, together with the day's status so a closed day reads differently from
// a fully booked one.
func (s *DefaultBookingService) ListAvailableSlots(ctx context.Context, providerID, serviceID, date string) (*models.SlotsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	day, err := scheduling.ParseDate(date, s.loc())
	if err != nil {
		return nil, validationError("invalidDate", "%v", err)
	}
	p, err := s.Directory.GetProvider(ctx, providerID)
	if err != nil {
		return nil, directoryError(err, "providerNotFound", "provider %s", providerID)
	}
	svc, err := s.Directory.GetService(ctx, serviceID)
	if err != nil {
		return nil, directoryError(err, "serviceNotFound", "service %s", serviceID)
	}
	if !p.Offers(svc.ID) {
		return nil, validationError("serviceNotOffered", "provider %s does not offer service %s", p.ID, svc.ID)
	}

	result := &models.SlotsResult{
		ProviderID: p.ID,
		ServiceID:  svc.ID,
		Date:       date,
		DayStatus:  scheduling.DayFor(p.Schedule, day).Status,
		Slots:      []models.SlotView{},
	}
	if p.Status != models.ProviderActive {
		result.DayStatus = models.DayUnavailable
		return result, nil
	}

	existing, err := s.Repo.ListOccupying(ctx, p.ID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings for provider %s: %w", p.ID, err)
	}
	windows := scheduling.ComputeSlots(scheduling.SlotQuery{
		Schedule:        p.Schedule,
		Date:            day,
		DurationMinutes: svc.Duration,
		Bookings:        existing,
		Now:             s.now(),
		Granularity:     s.Granularity,
	})
	for _, w := range windows {
		result.Slots = append(result.Slots, models.SlotView{
			Start:     w.Start,
			End:       w.End,
			StartTime: models.ClockString(w.Start),
			EndTime:   models.ClockString(w.End),
		})
	}
	return result, nil
}

// UpdateSchedule replaces a provider's weekly schedule. Existing bookings are
// kept; only future slot computation changes.
func (s *DefaultBookingService) UpdateSchedule(ctx context.Context, actor models.Actor, providerID string, schedule models.Schedule) (*models.Schedule, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pp, err := s.resolveProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	allowed := actor.Role == models.RoleAdmin ||
		(isProviderSide(actor) && (actor.ID == providerID || actor.ID == pp.res.ShopOwnerID))
	if !allowed {
		return nil, authorizationError("%s cannot edit the schedule of provider %s", actor.ID, providerID)
	}
	if err := scheduling.ValidateSchedule(schedule); err != nil {
		return nil, validationError("invalidSchedule", "%v", err)
	}
	schedule.ProviderID = providerID
	schedule.UpdatedAt = s.now()
	if err := s.Directory.SaveSchedule(ctx, providerID, schedule); err != nil {
		return nil, directoryError(err, "providerNotFound", "provider %s", providerID)
	}
	s.Logger.Info("Schedule updated", zap.String("providerID", providerID), zap.String("actorID", actor.ID))
	return &schedule, nil
}

// RegisterProvider adds or replaces a provider record after checking that
// every offered service matches one of its capabilities.
func (s *DefaultBookingService) RegisterProvider(ctx context.Context, actor models.Actor, p *models.Provider) (*models.Provider, error) {
	if !actor.Privileged() {
		return nil, authorizationError("only admins can register providers")
	}
	if p == nil || strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.DisplayName) == "" {
		return nil, validationError("missingFields", "provider id and displayName are required")
	}
	switch p.Status {
	case "":
		p.Status = models.ProviderActive
	case models.ProviderActive, models.ProviderBlocked, models.ProviderOnLeave:
	default:
		return nil, validationError("invalidStatus", "provider status %q is not supported", p.Status)
	}
	if len(p.Capabilities) == 0 {
		return nil, validationError("capabilitiesRequired", "provider %s needs at least one service type", p.ID)
	}
	for _, c := range p.Capabilities {
		if !c.Valid() {
			return nil, validationError("invalidServiceType", "service type %q is not shopBased or homeBased", c)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for _, id := range p.ServiceIDs {
		svc, err := s.Directory.GetService(ctx, id)
		if err != nil {
			return nil, directoryError(err, "serviceNotFound", "service %s", id)
		}
		if !p.Supports(svc.Type) {
			return nil, validationError("capabilityMismatch", "provider %s cannot offer %s service %s", p.ID, svc.Type, id)
		}
	}
	if p.ShopID != "" {
		if _, err := s.Directory.GetShop(ctx, p.ShopID); err != nil {
			return nil, directoryError(err, "shopNotFound", "shop %s", p.ShopID)
		}
	}
	if len(p.Schedule.Days) == 0 {
		p.Schedule = scheduling.WeeklySchedule(p.ID, 0, 0)
	}
	if err := scheduling.ValidateSchedule(p.Schedule); err != nil {
		return nil, validationError("invalidSchedule", "%v", err)
	}

	now := s.now()
	p.Schedule.ProviderID = p.ID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := s.Directory.UpsertProvider(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save provider %s: %w", p.ID, err)
	}
	s.Logger.Info("Provider registered", zap.String("providerID", p.ID), zap.String("shopID", p.ShopID))
	return p, nil
}

// repoError translates booking store sentinels into booking errors.
func repoError(err error, bookingID string) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		return notFoundError("bookingNotFound", "booking %s not found", bookingID)
	case errors.Is(err, bookingRepo.ErrStaleBooking):
		return alreadyProcessedError("booking %s was modified concurrently", bookingID)
	case errors.Is(err, bookingRepo.ErrSlotTaken):
		return slotUnavailableError("the slot of booking %s is taken", bookingID)
	}
	return fmt.Errorf("booking %s: %w", bookingID, err)
}

func directoryError(err error, code, format string, args ...any) error {
	if errors.Is(err, directoryRepo.ErrNotFound) {
		return notFoundError(code, format+" not found", args...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

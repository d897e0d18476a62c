package booking

import (
	"strings"
	"time"

	"barberly/models"
	"barberly/services/scheduling"

	"github.com/google/uuid"
)

// TransitionKind names a lifecycle operation.
type TransitionKind string

const (
	TransitionCreate       TransitionKind = "create"
	TransitionAccept       TransitionKind = "accept"
	TransitionReject       TransitionKind = "reject"
	TransitionReassign     TransitionKind = "reassign"
	TransitionReassignSelf TransitionKind = "reassign_self"
	TransitionCancel       TransitionKind = "cancel"
	TransitionStart        TransitionKind = "start"
	TransitionComplete     TransitionKind = "complete"
	TransitionNoShow       TransitionKind = "no_show"
	TransitionRate         TransitionKind = "rate"
)

const (
	MinRating       = 1
	MaxRating       = 5
	maxReasonLength = 500
	maxReviewLength = 2000
)

// Transition is the outcome of a legal lifecycle step. Update holds exactly
// the fields to persist; the store applies it with a compare-and-set on From.
type Transition struct {
	Kind   TransitionKind
	From   models.BookingStatus
	To     models.BookingStatus
	Actor  models.Actor
	Update models.BookingUpdate
}

// CreateInput is everything Create needs; the caller loads it.
type CreateInput struct {
	Request    models.CreateBookingRequest
	Customer   models.Actor
	Provider   *models.Provider
	Service    *models.Service
	Resolution Resolution
	Slots      []models.TimeWindow // ComputeSlots result for the requested date
	Now        time.Time
	Location   *time.Location
}

// Create validates a booking request and builds the pending booking.
func Create(in CreateInput) (*models.Booking, Transition, error) {
	req := in.Request
	if in.Customer.Role != models.RoleCustomer || in.Customer.ID == "" {
		return nil, Transition{}, authorizationError("only customers can request bookings")
	}
	if !req.ServiceType.Valid() {
		return nil, Transition{}, validationError("invalidServiceType", "service type %q is not shopBased or homeBased", req.ServiceType)
	}
	if req.Payment.Kind != models.PaymentCard && req.Payment.Kind != models.PaymentCash {
		return nil, Transition{}, validationError("invalidPaymentMethod", "payment method %q is not supported", req.Payment.Kind)
	}
	if req.Payment.Kind == models.PaymentCard && req.Payment.Token == "" {
		return nil, Transition{}, validationError("missingPaymentToken", "card payments need a payment token")
	}
	day, err := scheduling.ParseDate(req.Date, in.Location)
	if err != nil {
		return nil, Transition{}, validationError("invalidDate", "%v", err)
	}
	start, err := scheduling.ParseClock(req.Time)
	if err != nil {
		return nil, Transition{}, validationError("invalidTime", "%v", err)
	}

	p, svc := in.Provider, in.Service
	if p.Status != models.ProviderActive {
		return nil, Transition{}, validationError("providerUnavailable", "provider %s is %s", p.ID, p.Status)
	}
	if !p.Offers(svc.ID) {
		return nil, Transition{}, validationError("serviceNotOffered", "provider %s does not offer service %s", p.ID, svc.ID)
	}
	if svc.Type != req.ServiceType || !p.Supports(req.ServiceType) {
		return nil, Transition{}, validationError("serviceTypeMismatch", "provider %s cannot deliver %s service %s", p.ID, req.ServiceType, svc.ID)
	}
	if req.ServiceType == models.ServiceTypeHome && !req.Address.Resolved() {
		return nil, Transition{}, validationError("addressRequired", "home-based bookings need a resolved address")
	}
	if svc.Duration <= 0 {
		return nil, Transition{}, validationError("invalidDuration", "service %s has no duration", svc.ID)
	}

	startsAt := day.Add(time.Duration(start) * time.Minute)
	if !startsAt.After(in.Now) {
		return nil, Transition{}, validationError("pastSlot", "%s %s is in the past", req.Date, req.Time)
	}
	if !scheduling.ContainsStart(in.Slots, start) {
		return nil, Transition{}, slotUnavailableError("%s %s is not an open slot for provider %s", req.Date, req.Time, p.ID)
	}

	id := uuid.New().String()
	b := &models.Booking{
		ID:            id,
		UID:           NewUID(id),
		CustomerID:    in.Customer.ID,
		ProviderID:    p.ID,
		ShopID:        in.Resolution.ShopID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		ServiceType:   req.ServiceType,
		Date:          req.Date,
		Start:         start,
		End:           start + svc.Duration,
		Duration:      svc.Duration,
		Status:        models.StatusPending,
		Occupying:     true,
		Price:         svc.Price,
		Currency:      svc.Currency,
		PaymentMethod: req.Payment.Kind,
		PaymentStatus: models.PaymentUnpaid,
		RequestedAt:   in.Now,
		UpdatedAt:     in.Now,
	}
	if req.ServiceType == models.ServiceTypeHome {
		addr := *req.Address
		b.Address = &addr
	}
	return b, Transition{Kind: TransitionCreate, To: models.StatusPending, Actor: in.Customer}, nil
}

// NewUID derives the human readable booking reference from its id.
func NewUID(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "BK-" + strings.ToUpper(compact)
}

// Accept moves a pending booking to confirmed.
func Accept(b *models.Booking, actor models.Actor, res Resolution, now time.Time) (Transition, error) {
	if !approves(actor, res) {
		return Transition{}, authorizationError("%s cannot accept booking %s", actor.ID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusPending {
		return Transition{}, alreadyProcessedError("booking %s is already %s", b.ID, b.Status)
	}
	to := models.StatusConfirmed
	return Transition{
		Kind:   TransitionAccept,
		From:   b.Status,
		To:     to,
		Actor:  actor,
		Update: models.BookingUpdate{Status: &to, ReviewedAt: &now, UpdatedAt: now},
	}, nil
}

// Reject records the provider declining a pending booking. A shop owner acting
// as the provider cannot reject: they either accept or reassign.
func Reject(b *models.Booking, actor models.Actor, res Resolution, reason string, now time.Time) (Transition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Transition{}, validationError("reasonRequired", "a rejection needs a reason")
	}
	if len(reason) > maxReasonLength {
		return Transition{}, validationError("reasonTooLong", "reason exceeds %d characters", maxReasonLength)
	}
	if !(actor.Role == models.RoleAdmin || (isProviderSide(actor) && actor.ID == b.ProviderID)) {
		return Transition{}, authorizationError("only the assigned provider can reject booking %s", b.ID)
	}
	if res.Kind == KindShopOwnerDirect {
		return Transition{}, transitionError("shop owners cannot reject their own booking %s; reassign it instead", b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusPending {
		return Transition{}, alreadyProcessedError("booking %s is already %s", b.ID, b.Status)
	}
	to := models.StatusRejected
	return Transition{
		Kind:   TransitionReject,
		From:   b.Status,
		To:     to,
		Actor:  actor,
		Update: models.BookingUpdate{Status: &to, Reason: &reason, ReviewedAt: &now, UpdatedAt: now},
	}, nil
}

// Reassign hands a pending or provider-rejected booking to another provider
// of the same shop. Handing it to the shop owner confirms it on the spot.
// Slot availability for target is the caller's concern.
func Reassign(b *models.Booking, actor models.Actor, res Resolution, target *models.Provider, now time.Time) (Transition, error) {
	if target == nil {
		return Transition{}, validationError("targetRequired", "a reassignment needs a target provider")
	}
	if !res.HasShop() {
		return Transition{}, transitionError("booking %s is with an independent provider and cannot be reassigned", b.ID)
	}
	if actor.Role != models.RoleAdmin && !(isProviderSide(actor) && actor.ID == res.ShopOwnerID) {
		return Transition{}, authorizationError("only the owner of shop %s can reassign booking %s", res.ShopID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusPending && b.Status != models.StatusRejected {
		return Transition{}, transitionError("booking %s is %s and cannot be reassigned", b.ID, b.Status)
	}
	if target.ID == b.ProviderID {
		return Transition{}, validationError("sameProvider", "booking %s is already assigned to %s", b.ID, target.ID)
	}
	if target.ShopID != res.ShopID {
		return Transition{}, validationError("foreignProvider", "provider %s is not part of shop %s", target.ID, res.ShopID)
	}
	if target.Status != models.ProviderActive {
		return Transition{}, validationError("providerUnavailable", "provider %s is %s", target.ID, target.Status)
	}
	if !target.Offers(b.ServiceID) || !target.Supports(b.ServiceType) {
		return Transition{}, validationError("serviceNotOffered", "provider %s cannot deliver service %s", target.ID, b.ServiceID)
	}

	kind, to := TransitionReassign, models.StatusPending
	upd := models.BookingUpdate{UpdatedAt: now}
	if target.ID == res.ShopOwnerID {
		kind, to = TransitionReassignSelf, models.StatusConfirmed
		upd.ReviewedAt = &now
	}
	targetID := target.ID
	upd.Status = &to
	upd.ProviderID = &targetID
	upd.AppendReassignment = &models.Reassignment{
		FromProviderID: b.ProviderID,
		ToProviderID:   target.ID,
		FromStatus:     b.Status,
		ActorID:        actor.ID,
		At:             now,
	}
	return Transition{Kind: kind, From: b.Status, To: to, Actor: actor, Update: upd}, nil
}

// Cancel ends a pending or confirmed booking. startsAt gates customer and
// provider cancellations; admins and the system may cancel late.
func Cancel(b *models.Booking, actor models.Actor, res Resolution, reason string, startsAt, now time.Time) (Transition, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLength {
		return Transition{}, validationError("reasonTooLong", "reason exceeds %d characters", maxReasonLength)
	}
	switch {
	case actor.Privileged():
	case actor.Role == models.RoleCustomer && actor.ID == b.CustomerID:
	case isProviderSide(actor) && res.CanApprove(actor.ID):
	default:
		return Transition{}, authorizationError("%s cannot cancel booking %s", actor.ID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusPending && b.Status != models.StatusConfirmed {
		return Transition{}, stateError(b, models.StatusCancelled)
	}
	if !actor.Privileged() && !now.Before(startsAt) {
		return Transition{}, transitionError("booking %s has already started", b.ID)
	}
	to := models.StatusCancelled
	by := actor.ID
	upd := models.BookingUpdate{Status: &to, CancelledAt: &now, CancelledBy: &by, UpdatedAt: now}
	if reason != "" {
		upd.Reason = &reason
	}
	return Transition{Kind: TransitionCancel, From: b.Status, To: to, Actor: actor, Update: upd}, nil
}

// Start marks a confirmed booking as being served.
func Start(b *models.Booking, actor models.Actor, res Resolution, now time.Time) (Transition, error) {
	if !serves(actor, res) {
		return Transition{}, authorizationError("%s cannot start booking %s", actor.ID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusConfirmed {
		return Transition{}, stateError(b, models.StatusInProgress)
	}
	to := models.StatusInProgress
	return Transition{
		Kind:   TransitionStart,
		From:   b.Status,
		To:     to,
		Actor:  actor,
		Update: models.BookingUpdate{Status: &to, StartedAt: &now, UpdatedAt: now},
	}, nil
}

// Complete closes a confirmed or in-progress booking and opens it for rating.
func Complete(b *models.Booking, actor models.Actor, res Resolution, now time.Time) (Transition, error) {
	if !serves(actor, res) {
		return Transition{}, authorizationError("%s cannot complete booking %s", actor.ID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusConfirmed && b.Status != models.StatusInProgress {
		return Transition{}, stateError(b, models.StatusCompleted)
	}
	to := models.StatusCompleted
	return Transition{
		Kind:   TransitionComplete,
		From:   b.Status,
		To:     to,
		Actor:  actor,
		Update: models.BookingUpdate{Status: &to, CompletedAt: &now, UpdatedAt: now},
	}, nil
}

// MarkNoShow records that the customer never turned up.
func MarkNoShow(b *models.Booking, actor models.Actor, res Resolution, now time.Time) (Transition, error) {
	if !serves(actor, res) {
		return Transition{}, authorizationError("%s cannot mark booking %s as no-show", actor.ID, b.ID)
	}
	if err := guardLease(b, now); err != nil {
		return Transition{}, err
	}
	if b.Status != models.StatusInProgress {
		return Transition{}, stateError(b, models.StatusNoShow)
	}
	to := models.StatusNoShow
	return Transition{
		Kind:   TransitionNoShow,
		From:   b.Status,
		To:     to,
		Actor:  actor,
		Update: models.BookingUpdate{Status: &to, CompletedAt: &now, UpdatedAt: now},
	}, nil
}

// Rate attaches the customer's rating to a completed booking, once.
func Rate(b *models.Booking, actor models.Actor, rating int, review string, now time.Time) (Transition, error) {
	if rating < MinRating || rating > MaxRating {
		return Transition{}, validationError("ratingOutOfRange", "rating must be between %d and %d", MinRating, MaxRating)
	}
	review = strings.TrimSpace(review)
	if len(review) > maxReviewLength {
		return Transition{}, validationError("reviewTooLong", "review exceeds %d characters", maxReviewLength)
	}
	if actor.Role != models.RoleCustomer || actor.ID != b.CustomerID {
		return Transition{}, authorizationError("only the customer of booking %s can rate it", b.ID)
	}
	if b.Status != models.StatusCompleted {
		return Transition{}, transitionError("booking %s is %s; only completed bookings can be rated", b.ID, b.Status)
	}
	if b.Rated() {
		return Transition{}, alreadyRatedError(b.ID)
	}
	return Transition{
		Kind:   TransitionRate,
		From:   b.Status,
		To:     b.Status,
		Actor:  actor,
		Update: models.BookingUpdate{Rating: &rating, Review: &review, RatedAt: &now, UpdatedAt: now},
	}, nil
}

func isProviderSide(actor models.Actor) bool {
	return actor.Role == models.RoleProvider || actor.Role == models.RoleShopOwner
}

// approves covers accept: the approval authority or an admin.
func approves(actor models.Actor, res Resolution) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return isProviderSide(actor) && res.CanApprove(actor.ID)
}

// serves covers start, complete and no-show, which the system may also drive.
func serves(actor models.Actor, res Resolution) bool {
	return actor.Privileged() || (isProviderSide(actor) && res.CanApprove(actor.ID))
}

func guardLease(b *models.Booking, now time.Time) error {
	if b.Lease.Active(now) {
		return alreadyProcessedError("booking %s has a %s in progress", b.ID, b.Lease.Operation)
	}
	return nil
}

func stateError(b *models.Booking, target models.BookingStatus) error {
	if b.Status == target {
		return alreadyProcessedError("booking %s is already %s", b.ID, b.Status)
	}
	return transitionError("booking %s cannot move from %s to %s", b.ID, b.Status, target)
}

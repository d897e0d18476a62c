package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
	StatusRejected   BookingStatus = "rejected_by_provider"
	StatusNoShow     BookingStatus = "no_show"
)

// OccupyingStatuses consume a provider's time window.
var OccupyingStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusInProgress}

// Occupying reports whether a booking in this status blocks its time window.
func (s BookingStatus) Occupying() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// Terminal reports whether no further lifecycle transition leaves this status.
// A provider rejection is only terminal when nobody can reassign it.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceTypeShop ServiceType = "shopBased"
	ServiceTypeHome ServiceType = "homeBased"
)

func (t ServiceType) Valid() bool {
	return t == ServiceTypeShop || t == ServiceTypeHome
}

// Address is the customer location for home-based bookings.
type Address struct {
	Line      string  `bson:"line" json:"line"`
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// Resolved reports whether the address was geocoded to a usable location.
func (a *Address) Resolved() bool {
	if a == nil || a.Line == "" {
		return false
	}
	if a.Latitude == 0 && a.Longitude == 0 {
		return false
	}
	return a.Latitude >= -90 && a.Latitude <= 90 && a.Longitude >= -180 && a.Longitude <= 180
}

// Reassignment is one entry of the append-only provider history of a booking.
type Reassignment struct {
	FromProviderID string        `bson:"fromProviderId" json:"fromProviderId"`
	ToProviderID   string        `bson:"toProviderId" json:"toProviderId"`
	FromStatus     BookingStatus `bson:"fromStatus" json:"fromStatus"`
	ActorID        string        `bson:"actorId" json:"actorId"`
	At             time.Time     `bson:"at" json:"at"`
}

// Lease marks a booking as held by an in-flight operation (e.g. a refund).
type Lease struct {
	Operation string    `bson:"operation" json:"operation"`
	ActorID   string    `bson:"actorId" json:"actorId"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Active reports whether the lease still holds at now.
func (l *Lease) Active(now time.Time) bool {
	return l != nil && now.Before(l.ExpiresAt)
}

// Booking is the central appointment record.
type Booking struct {
	ID             string         `bson:"id" json:"id"`                              // UUID
	UID            string         `bson:"uid" json:"uid"`                            // human readable, e.g. BK-1F3A9C2E
	CustomerID     string         `bson:"customer_id" json:"customerId"`             // customer who requested the booking
	ProviderID     string         `bson:"provider_id" json:"providerId"`             // currently assigned provider
	ShopID         string         `bson:"shop_id,omitempty" json:"shopId,omitempty"` // provider's shop at creation time
	ServiceID      string         `bson:"service_id" json:"serviceId"`
	ServiceName    string         `bson:"service_name" json:"serviceName"`
	ServiceType    ServiceType    `bson:"service_type" json:"serviceType"`
	Date           string         `bson:"date" json:"date"`                          // "YYYY-MM-DD"
	Start          int            `bson:"start" json:"start"`                        // minutes from midnight
	End            int            `bson:"end" json:"end"`                            // minutes from midnight
	Duration       int            `bson:"duration" json:"duration"`                  // minutes, copied from the service
	Status         BookingStatus  `bson:"status" json:"status"`
	Occupying      bool           `bson:"occupying" json:"-"`                        // mirrors Status.Occupying() for the partial unique index
	Price          float64        `bson:"price" json:"price"`
	Currency       string         `bson:"currency" json:"currency"`
	PaymentMethod  PaymentKind    `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus  PaymentStatus  `bson:"payment_status" json:"paymentStatus"`
	PaymentRef     string         `bson:"payment_ref,omitempty" json:"paymentRef,omitempty"`
	RefundedAmount float64        `bson:"refunded_amount,omitempty" json:"refundedAmount,omitempty"`
	Address        *Address       `bson:"address,omitempty" json:"address,omitempty"`
	Reason         string         `bson:"reason,omitempty" json:"reason,omitempty"`  // cancellation or rejection reason
	CancelledBy    string         `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`
	Rating         int            `bson:"rating,omitempty" json:"rating,omitempty"`
	Review         string         `bson:"review,omitempty" json:"review,omitempty"`
	RatedAt        *time.Time     `bson:"rated_at,omitempty" json:"ratedAt,omitempty"`
	Reassignments  []Reassignment `bson:"reassignments,omitempty" json:"reassignments,omitempty"`
	Lease          *Lease         `bson:"lease,omitempty" json:"-"`
	RequestedAt    time.Time      `bson:"requested_at" json:"requestedAt"`
	ReviewedAt     *time.Time     `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	StartedAt      *time.Time     `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	CompletedAt    *time.Time     `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CancelledAt    *time.Time     `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updatedAt"`
	Version        int            `bson:"version" json:"version"`
}

// Window returns the booked interval on its date.
func (b *Booking) Window() TimeWindow {
	return TimeWindow{Start: b.Start, End: b.Start + b.Duration}
}

// StartsAt returns the absolute start instant of the booking in loc.
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, b.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(b.Start) * time.Minute), nil
}

// Rated reports whether the customer already left a rating.
func (b *Booking) Rated() bool {
	return b.RatedAt != nil
}

// BookingUpdate lists every field a lifecycle transition may change.
// Nil fields are left untouched.
type BookingUpdate struct {
	Status             *BookingStatus
	ProviderID         *string
	ShopID             *string
	ReviewedAt         *time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancelledBy        *string
	Reason             *string
	Rating             *int
	Review             *string
	RatedAt            *time.Time
	PaymentStatus      *PaymentStatus
	PaymentRef         *string
	RefundedAmount     *float64
	AppendReassignment *Reassignment
	Lease              *Lease
	ClearLease         bool
	UpdatedAt          time.Time
}

// Apply mutates b in place. Version handling belongs to the store.
func (u BookingUpdate) Apply(b *Booking) {
	if u.Status != nil {
		b.Status = *u.Status
		b.Occupying = u.Status.Occupying()
	}
	if u.ProviderID != nil {
		b.ProviderID = *u.ProviderID
	}
	if u.ShopID != nil {
		b.ShopID = *u.ShopID
	}
	if u.ReviewedAt != nil {
		b.ReviewedAt = u.ReviewedAt
	}
	if u.StartedAt != nil {
		b.StartedAt = u.StartedAt
	}
	if u.CompletedAt != nil {
		b.CompletedAt = u.CompletedAt
	}
	if u.CancelledAt != nil {
		b.CancelledAt = u.CancelledAt
	}
	if u.CancelledBy != nil {
		b.CancelledBy = *u.CancelledBy
	}
	if u.Reason != nil {
		b.Reason = *u.Reason
	}
	if u.Rating != nil {
		b.Rating = *u.Rating
	}
	if u.Review != nil {
		b.Review = *u.Review
	}
	if u.RatedAt != nil {
		b.RatedAt = u.RatedAt
	}
	if u.PaymentStatus != nil {
		b.PaymentStatus = *u.PaymentStatus
	}
	if u.PaymentRef != nil {
		b.PaymentRef = *u.PaymentRef
	}
	if u.RefundedAmount != nil {
		b.RefundedAmount = *u.RefundedAmount
	}
	if u.AppendReassignment != nil {
		b.Reassignments = append(b.Reassignments, *u.AppendReassignment)
	}
	if u.ClearLease {
		b.Lease = nil
	} else if u.Lease != nil {
		l := *u.Lease
		b.Lease = &l
	}
	if !u.UpdatedAt.IsZero() {
		b.UpdatedAt = u.UpdatedAt
	}
}

// CreateBookingRequest is the customer-facing booking input.
type CreateBookingRequest struct {
	ProviderID  string        `json:"providerId"`
	ServiceID   string        `json:"serviceId"`
	ServiceType ServiceType   `json:"serviceType"`
	Date        string        `json:"date"` // "YYYY-MM-DD"
	Time        string        `json:"time"` // "HH:MM"
	Address     *Address      `json:"address,omitempty"`
	Payment     PaymentMethod `json:"payment"`
}

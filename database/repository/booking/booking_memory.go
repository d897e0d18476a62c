package bookingRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"barberly/models"
)

type claimKey struct {
	providerID string
	date       string
	bucket     int
}

type memoryClaim struct {
	bookingID string
	claimedAt time.Time
}

// MemoryBookingRepo is a process-local BookingRepository with the same claim
// and compare-and-set semantics as the Mongo implementation.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	claims   map[claimKey]memoryClaim
	now      func() time.Time
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{
		bookings: make(map[string]*models.Booking),
		claims:   make(map[claimKey]memoryClaim),
		now:      time.Now,
	}
}

// SetClock overrides the clock used for claim timestamps.
func (r *MemoryBookingRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *MemoryBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	if err := r.claimLocked(b.ProviderID, b.Date, b.Window(), b.ID); err != nil {
		return err
	}
	stored := clone(b)
	stored.Occupying = stored.Status.Occupying()
	r.bookings[b.ID] = stored
	return nil
}

func (r *MemoryBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return clone(b), nil
}

func (r *MemoryBookingRepo) GetByUID(ctx context.Context, uid string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.bookings {
		if b.UID == uid {
			return clone(b), nil
		}
	}
	return nil, ErrBookingNotFound
}

func (r *MemoryBookingRepo) ListOccupying(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	out := r.filter(func(b *models.Booking) bool {
		return b.ProviderID == providerID && b.Date == date && b.Status.Occupying()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *MemoryBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	out := r.filter(func(b *models.Booking) bool { return b.CustomerID == customerID })
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (r *MemoryBookingRepo) ListByProvider(ctx context.Context, providerID, date string) ([]models.Booking, error) {
	out := r.filter(func(b *models.Booking) bool {
		return b.ProviderID == providerID && (date == "" || b.Date == date)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (r *MemoryBookingRepo) filter(keep func(*models.Booking) bool) []models.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			out = append(out, *clone(b))
		}
	}
	return out
}

func (r *MemoryBookingRepo) CompareAndSwap(ctx context.Context, id string, expectedStatus models.BookingStatus, expectedVersion int, upd models.BookingUpdate) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	if b.Status != expectedStatus || b.Version != expectedVersion {
		return nil, ErrStaleBooking
	}

	next := clone(b)
	upd.Apply(next)
	if next.Occupying && (!b.Occupying || next.ProviderID != b.ProviderID) {
		// mirror the partial unique index on occupying start times
		for _, other := range r.bookings {
			if other.ID != id && other.Occupying && other.ProviderID == next.ProviderID &&
				other.Date == next.Date && other.Start == next.Start {
				return nil, fmt.Errorf("update booking %s: %w", id, ErrSlotTaken)
			}
		}
	}
	if upd.UpdatedAt.IsZero() {
		next.UpdatedAt = r.now()
	}
	next.Version++
	r.bookings[id] = next
	return clone(next), nil
}

func (r *MemoryBookingRepo) ClaimSlot(ctx context.Context, providerID, date string, window models.TimeWindow, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimLocked(providerID, date, window, bookingID)
}

func (r *MemoryBookingRepo) claimLocked(providerID, date string, window models.TimeWindow, bookingID string) error {
	buckets := claimBuckets(window)
	now := r.now()

	for _, bucket := range buckets {
		c, taken := r.claims[claimKey{providerID, date, bucket}]
		if !taken || c.bookingID == bookingID {
			continue
		}
		var holder *models.Booking
		if h, ok := r.bookings[c.bookingID]; ok {
			holder = h
		}
		if !claimIsStale(holder, providerID, date, c.claimedAt, now) {
			return fmt.Errorf("claim %s %s for provider %s: %w", date, window, providerID, ErrSlotTaken)
		}
	}

	for _, bucket := range buckets {
		r.claims[claimKey{providerID, date, bucket}] = memoryClaim{bookingID: bookingID, claimedAt: now}
	}
	return nil
}

func (r *MemoryBookingRepo) ReleaseSlot(ctx context.Context, providerID, date, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, c := range r.claims {
		if k.providerID == providerID && k.date == date && c.bookingID == bookingID {
			delete(r.claims, k)
		}
	}
	return nil
}

// ClaimCount returns how many buckets bookingID holds.
func (r *MemoryBookingRepo) ClaimCount(bookingID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, c := range r.claims {
		if c.bookingID == bookingID {
			n++
		}
	}
	return n
}

func clone(b *models.Booking) *models.Booking {
	c := *b
	if b.Reassignments != nil {
		c.Reassignments = append([]models.Reassignment(nil), b.Reassignments...)
	}
	if b.Lease != nil {
		l := *b.Lease
		c.Lease = &l
	}
	if b.Address != nil {
		a := *b.Address
		c.Address = &a
	}
	return &c
}

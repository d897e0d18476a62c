package bookingRepo

import (
	"context"
	"errors"

	"barberly/models"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrSlotTaken means an occupying booking already holds part of the window.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrStaleBooking means the booking changed since it was read.
	ErrStaleBooking = errors.New("booking was modified concurrently")
)

// BookingRepository persists bookings and serializes slot claims per provider.
type BookingRepository interface {
	// Create claims the booking's window for its provider and inserts it.
	// Overlapping occupying bookings make it fail with ErrSlotTaken.
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByUID(ctx context.Context, uid string) (*models.Booking, error)
	ListOccupying(ctx context.Context, providerID, date string) ([]models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
	// ListByProvider lists a provider's bookings; an empty date means all dates.
	ListByProvider(ctx context.Context, providerID, date string) ([]models.Booking, error)
	// CompareAndSwap applies upd only if the booking still has expectedStatus
	// and expectedVersion, bumping the version. It returns the updated booking.
	CompareAndSwap(ctx context.Context, id string, expectedStatus models.BookingStatus, expectedVersion int, upd models.BookingUpdate) (*models.Booking, error)
	// ClaimSlot reserves window for bookingID on the provider's calendar.
	ClaimSlot(ctx context.Context, providerID, date string, window models.TimeWindow, bookingID string) error
	// ReleaseSlot drops every claim bookingID holds on the provider's calendar.
	ReleaseSlot(ctx context.Context, providerID, date, bookingID string) error
}

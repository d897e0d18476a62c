package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CreateBooking   gin.HandlerFunc
	GetBooking      gin.HandlerFunc
	AcceptBooking   gin.HandlerFunc
	RejectBooking   gin.HandlerFunc
	ReassignBooking gin.HandlerFunc
	CancelBooking   gin.HandlerFunc
	StartBooking    gin.HandlerFunc
	CompleteBooking gin.HandlerFunc
	MarkNoShow      gin.HandlerFunc
	RateBooking     gin.HandlerFunc

	// Listing endpoints
	ListCustomerBookings gin.HandlerFunc
	ListProviderBookings gin.HandlerFunc

	// Provider endpoints
	ListAvailableSlots gin.HandlerFunc
	UpdateSchedule     gin.HandlerFunc

	// Admin endpoints
	RegisterProvider gin.HandlerFunc
}

// NewHandlerBundle wires every endpoint to the booking handler.
func NewHandlerBundle(h *BookingHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateBooking:        h.CreateBookingHandler,
		GetBooking:           h.GetBookingHandler,
		AcceptBooking:        h.AcceptBookingHandler,
		RejectBooking:        h.RejectBookingHandler,
		ReassignBooking:      h.ReassignBookingHandler,
		CancelBooking:        h.CancelBookingHandler,
		StartBooking:         h.StartBookingHandler,
		CompleteBooking:      h.CompleteBookingHandler,
		MarkNoShow:           h.MarkNoShowHandler,
		RateBooking:          h.RateBookingHandler,
		ListCustomerBookings: h.ListCustomerBookingsHandler,
		ListProviderBookings: h.ListProviderBookingsHandler,
		ListAvailableSlots:   h.ListAvailableSlotsHandler,
		UpdateSchedule:       h.UpdateScheduleHandler,
		RegisterProvider:     h.RegisterProviderHandler,
	}
}

package handlers

import (
	"context"
	"net/http"

	"barberly/middleware"
	"barberly/models"
	"barberly/services/booking"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking service over HTTP.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type reassignRequest struct {
	ProviderID string `json:"providerId" binding:"required"`
}

type rateRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}

func actorFrom(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Not authenticated")
	}
	return actor, ok
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
		return
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, "create booking", err)
		return
	}
	getLogger(c).Info("Booking requested", zap.String("bookingId", b.ID), zap.String("uid", b.UID))
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	b, err := h.Service.GetBooking(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, "get booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) AcceptBookingHandler(c *gin.Context) {
	h.transition(c, "accept booking", h.Service.AcceptBooking)
}

func (h *BookingHandler) StartBookingHandler(c *gin.Context) {
	h.transition(c, "start booking", h.Service.StartBooking)
}

func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	h.transition(c, "complete booking", h.Service.CompleteBooking)
}

func (h *BookingHandler) MarkNoShowHandler(c *gin.Context) {
	h.transition(c, "mark no-show", h.Service.MarkNoShow)
}

func (h *BookingHandler) RejectBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req reasonRequest
	// The reason is optional, so an empty body is fine.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
			return
		}
	}
	b, err := h.Service.RejectBooking(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, "reject booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req reasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
			return
		}
	}
	b, err := h.Service.CancelBooking(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, "cancel booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ReassignBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
		return
	}
	b, err := h.Service.ReassignBooking(c.Request.Context(), actor, c.Param("id"), req.ProviderID)
	if err != nil {
		writeError(c, "reassign booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) RateBookingHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
		return
	}
	b, err := h.Service.RateBooking(c.Request.Context(), actor, c.Param("id"), req.Rating, req.Review)
	if err != nil {
		writeError(c, "rate booking", err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ListCustomerBookingsHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	list, err := h.Service.ListCustomerBookings(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, "list customer bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) ListProviderBookingsHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	list, err := h.Service.ListProviderBookings(c.Request.Context(), actor, c.Param("id"), c.Query("date"))
	if err != nil {
		writeError(c, "list provider bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

type transitionFunc func(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)

// transition handles the body-less lifecycle endpoints.
func (h *BookingHandler) transition(c *gin.Context, op string, fn transitionFunc) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	b, err := fn(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

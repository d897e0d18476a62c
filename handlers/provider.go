package handlers

import (
	"net/http"

	"barberly/models"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListAvailableSlotsHandler is public: GET /api/providers/:id/slots?serviceId=&date=
func (h *BookingHandler) ListAvailableSlotsHandler(c *gin.Context) {
	serviceID := c.Query("serviceId")
	date := c.Query("date")
	if serviceID == "" || date == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalidQuery", "serviceId and date are required")
		return
	}
	res, err := h.Service.ListAvailableSlots(c.Request.Context(), c.Param("id"), serviceID, date)
	if err != nil {
		writeError(c, "list slots", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) UpdateScheduleHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var schedule models.Schedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
		return
	}
	saved, err := h.Service.UpdateSchedule(c.Request.Context(), actor, c.Param("id"), schedule)
	if err != nil {
		writeError(c, "update schedule", err)
		return
	}
	getLogger(c).Info("Schedule updated", zap.String("providerId", saved.ProviderID))
	c.JSON(http.StatusOK, saved)
}

func (h *BookingHandler) RegisterProviderHandler(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var p models.Provider
	if err := c.ShouldBindJSON(&p); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalidPayload", err.Error())
		return
	}
	saved, err := h.Service.RegisterProvider(c.Request.Context(), actor, &p)
	if err != nil {
		writeError(c, "register provider", err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

package handlers

import (
	"errors"
	"net/http"

	"barberly/services/booking"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(kind booking.ErrorKind) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindAuthorization:
		return http.StatusForbidden
	case booking.KindInvalidTransition, booking.KindSlotUnavailable,
		booking.KindAlreadyProcessed, booking.KindAlreadyRated:
		return http.StatusConflict
	case booking.KindExternalDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a booking failure onto the HTTP error envelope.
func writeError(c *gin.Context, op string, err error) {
	logger := getLogger(c)
	kind := booking.KindOf(err)
	status := statusFor(kind)

	code, message := string(kind), err.Error()
	var be *booking.BookingError
	if errors.As(err, &be) && be.Code != "" {
		code = be.Code
		message = be.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		if kind == "" {
			code, message = "internal", "Internal Server Error"
		}
	} else {
		logger.Info(op+" rejected", zap.String("kind", string(kind)), zap.String("code", code))
	}
	utils.JSONError(c, status, code, message)
}

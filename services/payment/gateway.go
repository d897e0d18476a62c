package payment

import (
	"context"
	"errors"
	"math"
	"time"

	"barberly/models"
)

// ErrDeclined is returned when the gateway refuses a charge.
var ErrDeclined = errors.New("payment declined")

// Gateway is the charge and refund capability keyed by booking id.
type Gateway interface {
	Charge(ctx context.Context, bookingID string, amount float64, method models.PaymentMethod) (*models.PaymentResult, error)
	Refund(ctx context.Context, bookingID string, amount float64) (*models.RefundResult, error)
}

// RefundPolicy decides how much of a captured payment goes back to the
// customer when a booking is cancelled at now.
type RefundPolicy func(b models.Booking, startsAt, now time.Time) float64

// DefaultRefundPolicy refunds in full up to a day before the appointment and
// half of the price afterwards. Nothing is refunded once the service started.
func DefaultRefundPolicy(b models.Booking, startsAt, now time.Time) float64 {
	paid := b.Price - b.RefundedAmount
	if paid <= 0 {
		return 0
	}
	switch lead := startsAt.Sub(now); {
	case lead >= 24*time.Hour:
		return paid
	case lead > 0:
		return roundCents(paid / 2)
	default:
		return 0
	}
}

// FullRefundPolicy always returns the whole captured amount.
func FullRefundPolicy(b models.Booking, _, _ time.Time) float64 {
	return math.Max(b.Price-b.RefundedAmount, 0)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// toMinorUnits converts an amount to the smallest currency unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

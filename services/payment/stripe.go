package payment

import (
	"context"
	"fmt"
	"time"

	"barberly/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

const bookingMetadataKey = "booking_id"

// StripeGateway charges cards through PaymentIntents tagged with the booking
// id, so refunds can locate the intent from the booking alone.
type StripeGateway struct {
	API      *client.API
	Currency string
	Logger   *zap.Logger
}

func NewStripeGateway(secretKey, currency string, logger *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{API: api, Currency: currency, Logger: logger}
}

func (g *StripeGateway) Charge(ctx context.Context, bookingID string, amount float64, method models.PaymentMethod) (*models.PaymentResult, error) {
	if method.Kind != models.PaymentCard {
		return &models.PaymentResult{Status: models.PaymentUnpaid, Amount: amount, Currency: g.Currency}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(toMinorUnits(amount)),
		Currency:      stripe.String(g.Currency),
		PaymentMethod: stripe.String(method.Token),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata(bookingMetadataKey, bookingID)
	params.SetIdempotencyKey("charge-" + bookingID)

	pi, err := g.API.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent for booking %s: %w", bookingID, err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.Logger.Warn("Card payment not captured",
			zap.String("bookingID", bookingID),
			zap.String("paymentIntent", pi.ID),
			zap.String("status", string(pi.Status)))
		return nil, fmt.Errorf("stripe: payment intent %s is %s: %w", pi.ID, pi.Status, ErrDeclined)
	}

	g.Logger.Info("Card payment successful", zap.String("bookingID", bookingID), zap.String("paymentIntent", pi.ID))
	return &models.PaymentResult{
		Reference: pi.ID,
		Status:    models.PaymentPaid,
		Amount:    fromMinorUnits(pi.Amount),
		Currency:  string(pi.Currency),
		ChargedAt: time.Unix(pi.Created, 0),
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, bookingID string, amount float64) (*models.RefundResult, error) {
	pi, err := g.findIntent(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(pi.ID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx
	params.AddMetadata(bookingMetadataKey, bookingID)
	params.SetIdempotencyKey("refund-" + bookingID)

	r, err := g.API.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund booking %s: %w", bookingID, err)
	}
	if r.Status == stripe.RefundStatusFailed || r.Status == stripe.RefundStatusCanceled {
		return nil, fmt.Errorf("stripe: refund %s for booking %s is %s", r.ID, bookingID, r.Status)
	}

	g.Logger.Info("Refund issued", zap.String("bookingID", bookingID), zap.String("refund", r.ID), zap.Int64("amount", r.Amount))
	return &models.RefundResult{
		Reference:  r.ID,
		Amount:     fromMinorUnits(r.Amount),
		RefundedAt: time.Unix(r.Created, 0),
	}, nil
}

func (g *StripeGateway) findIntent(ctx context.Context, bookingID string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentSearchParams{}
	params.Query = fmt.Sprintf("metadata['%s']:'%s' AND status:'succeeded'", bookingMetadataKey, bookingID)
	params.Context = ctx

	iter := g.API.PaymentIntents.Search(params)
	if iter.Next() {
		return iter.PaymentIntent(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe: search payment intent for booking %s: %w", bookingID, err)
	}
	return nil, fmt.Errorf("stripe: no captured payment for booking %s", bookingID)
}

package models

import "time"

type PaymentKind string

const (
	PaymentCard PaymentKind = "card"
	PaymentCash PaymentKind = "cash"
)

type PaymentStatus string

const (
	PaymentUnpaid            PaymentStatus = "unpaid"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentMethod is what the customer chose at checkout. Token is the
// gateway's payment method handle and is never persisted.
type PaymentMethod struct {
	Kind  PaymentKind `json:"kind"`
	Token string      `json:"token,omitempty"`
}

// PaymentResult is returned by a successful charge.
type PaymentResult struct {
	Reference string        `json:"reference"`
	Status    PaymentStatus `json:"status"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	ChargedAt time.Time     `json:"chargedAt"`
}

// RefundResult is returned by a successful refund.
type RefundResult struct {
	Reference  string    `json:"reference"`
	Amount     float64   `json:"amount"`
	RefundedAt time.Time `json:"refundedAt"`
}

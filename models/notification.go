package models

// Notification field keys carried by every dispatch.
const (
	FieldBookingUID      = "bookingUid"
	FieldServiceName     = "serviceName"
	FieldCounterpartName = "counterpartName"
	FieldDate            = "date"
	FieldTime            = "time"
)

// RecipientRole is the party a notification is addressed to.
type RecipientRole string

const (
	RecipientCustomer  RecipientRole = "customer"
	RecipientProvider  RecipientRole = "provider"
	RecipientShopOwner RecipientRole = "shop_owner"
)

// NotificationDispatch is one (recipient, template) pair produced by fan-out.
type NotificationDispatch struct {
	RecipientID   string            `json:"recipientId"`
	RecipientRole RecipientRole     `json:"recipientRole"`
	TemplateKey   string            `json:"templateKey"`
	Fields        map[string]string `json:"fields"`
	BookingID     string            `json:"bookingId"`
}

// NotificationPayload is the queued delivery job.
type NotificationPayload struct {
	RecipientID   string            `json:"recipientId"`
	RecipientRole RecipientRole     `json:"recipientRole"`
	TemplateKey   string            `json:"templateKey"`
	Fields        map[string]string `json:"fields"`
	BookingID     string            `json:"bookingId"`
}

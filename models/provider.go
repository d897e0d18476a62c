package models

import "time"

type ProviderStatus string

const (
	ProviderActive  ProviderStatus = "active"
	ProviderBlocked ProviderStatus = "blocked"
	ProviderOnLeave ProviderStatus = "onLeave"
)

// Provider is a bookable barber or freelancer. A shop owner who takes
// bookings personally has a provider record whose ID equals Shop.OwnerID.
type Provider struct {
	ID           string         `bson:"id" json:"id"`
	DisplayName  string         `bson:"display_name" json:"displayName"`
	ShopID       string         `bson:"shop_id,omitempty" json:"shopId,omitempty"` // empty for independent providers
	Status       ProviderStatus `bson:"status" json:"status"`
	Online       bool           `bson:"online" json:"online"`
	Capabilities []ServiceType  `bson:"capabilities" json:"capabilities"`
	ServiceIDs   []string       `bson:"service_ids" json:"serviceIds"`
	Schedule     Schedule       `bson:"schedule" json:"schedule"`
	FCMToken     string         `bson:"fcm_token,omitempty" json:"-"`
	CreatedAt    time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updatedAt"`
}

// Supports reports whether the provider can deliver services of type t.
func (p *Provider) Supports(t ServiceType) bool {
	for _, c := range p.Capabilities {
		if c == t {
			return true
		}
	}
	return false
}

// Offers reports whether serviceID is on the provider's menu.
func (p *Provider) Offers(serviceID string) bool {
	for _, id := range p.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// Shop groups affiliated providers under one owning account.
type Shop struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	OwnerID   string    `bson:"owner_id" json:"ownerId"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Service is an entry on a provider's menu.
type Service struct {
	ID       string      `bson:"id" json:"id"`
	Name     string      `bson:"name" json:"name"`
	Type     ServiceType `bson:"type" json:"type"`
	Duration int         `bson:"duration" json:"duration"` // minutes
	Price    float64     `bson:"price" json:"price"`
	Currency string      `bson:"currency" json:"currency"`
}

// Customer is the booking-relevant projection of a user profile.
type Customer struct {
	ID          string `bson:"id" json:"id"`
	DisplayName string `bson:"display_name" json:"displayName"`
	FCMToken    string `bson:"fcm_token,omitempty" json:"-"`
}

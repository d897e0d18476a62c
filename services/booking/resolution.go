package booking

import "barberly/models"

// ProviderKind classifies who stands behind a booking's provider.
type ProviderKind string

const (
	KindIndependent     ProviderKind = "independent"
	KindShopAffiliated  ProviderKind = "shop_affiliated"
	KindShopOwnerDirect ProviderKind = "shop_owner_direct"
)

// Resolution is computed once per booking operation and consumed by both the
// lifecycle checks and the notification fan-out.
type Resolution struct {
	Kind              ProviderKind
	ProviderID        string
	ShopID            string
	ShopOwnerID       string
	ApprovalAuthority []string
}

// Resolve classifies provider. shop must be the provider's shop, or nil for
// an independent provider.
func Resolve(provider *models.Provider, shop *models.Shop) Resolution {
	if provider.ShopID == "" || shop == nil {
		return Resolution{
			Kind:              KindIndependent,
			ProviderID:        provider.ID,
			ApprovalAuthority: []string{provider.ID},
		}
	}
	if shop.OwnerID == provider.ID {
		return Resolution{
			Kind:              KindShopOwnerDirect,
			ProviderID:        provider.ID,
			ShopID:            shop.ID,
			ShopOwnerID:       shop.OwnerID,
			ApprovalAuthority: []string{shop.OwnerID},
		}
	}
	return Resolution{
		Kind:              KindShopAffiliated,
		ProviderID:        provider.ID,
		ShopID:            shop.ID,
		ShopOwnerID:       shop.OwnerID,
		ApprovalAuthority: []string{provider.ID, shop.OwnerID},
	}
}

// CanApprove reports whether actorID holds approval authority.
func (r Resolution) CanApprove(actorID string) bool {
	for _, id := range r.ApprovalAuthority {
		if id == actorID {
			return true
		}
	}
	return false
}

// HasShop reports whether a shop owner stands behind the provider.
func (r Resolution) HasShop() bool {
	return r.Kind != KindIndependent
}

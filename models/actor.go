package models

// Role of the account performing an operation.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleProvider  Role = "provider"
	RoleShopOwner Role = "shop_owner"
	RoleAdmin     Role = "admin"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleProvider, RoleShopOwner, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor identifies who is driving a transition.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Privileged actors bypass party checks.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// SystemActor is used for transitions the service drives itself.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

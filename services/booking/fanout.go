package booking

import "barberly/models"

// Template keys understood by the notification renderer.
const (
	TemplateRequested            = "booking.requested"
	TemplateRequestedForShop     = "booking.requested_for_shop"
	TemplateAccepted             = "booking.accepted"
	TemplateAcceptedByProvider   = "booking.accepted_by_provider"
	TemplateRejected             = "booking.rejected"
	TemplateRejectedNeedsAction  = "booking.rejected_needs_action"
	TemplateReassignedToYou      = "booking.reassigned_to_you"
	TemplateReassignmentRecorded = "booking.reassignment_recorded"
	TemplateReassigned           = "booking.reassigned"
	TemplateConfirmed            = "booking.confirmed"
	TemplateCancelled            = "booking.cancelled"
	TemplateRatePrompt           = "booking.completed_rate_prompt"
	TemplateNoShow               = "booking.no_show"
)

// party selects a recipient relative to the booking and the acting account.
type party string

const (
	partyCustomer  party = "customer"
	partyProvider  party = "provider" // the provider assigned after the transition
	partyShopOwner party = "shop_owner"
	// partyCounterparty is whoever did not initiate: the provider when the
	// customer acts, the customer when the provider side acts, both otherwise.
	partyCounterparty party = "counterparty"
)

// RecipientRule is one row entry of the fan-out table.
type RecipientRule struct {
	Party    party
	Template string
}

// fanoutTable is the complete notification policy. A transition or provider
// kind missing from the table notifies nobody.
var fanoutTable = map[TransitionKind]map[ProviderKind][]RecipientRule{
	TransitionCreate: {
		KindIndependent:     {{partyProvider, TemplateRequested}},
		KindShopAffiliated:  {{partyShopOwner, TemplateRequestedForShop}},
		KindShopOwnerDirect: {{partyShopOwner, TemplateRequested}},
	},
	TransitionAccept: {
		KindIndependent:     {{partyCustomer, TemplateAccepted}},
		KindShopAffiliated:  {{partyCustomer, TemplateAccepted}, {partyShopOwner, TemplateAcceptedByProvider}},
		KindShopOwnerDirect: {{partyCustomer, TemplateAccepted}},
	},
	TransitionReject: {
		KindIndependent: {{partyCustomer, TemplateRejected}},
		// the shop owner may still reassign, so the customer hears nothing yet
		KindShopAffiliated: {{partyShopOwner, TemplateRejectedNeedsAction}},
	},
	TransitionReassign: {
		KindShopAffiliated: {
			{partyProvider, TemplateReassignedToYou},
			{partyShopOwner, TemplateReassignmentRecorded},
			{partyCustomer, TemplateReassigned},
		},
		KindShopOwnerDirect: {
			{partyProvider, TemplateReassignedToYou},
			{partyShopOwner, TemplateReassignmentRecorded},
			{partyCustomer, TemplateReassigned},
		},
	},
	TransitionReassignSelf: {
		KindShopAffiliated: {{partyCustomer, TemplateConfirmed}},
	},
	TransitionCancel: {
		KindIndependent:     {{partyCounterparty, TemplateCancelled}},
		KindShopAffiliated:  {{partyCounterparty, TemplateCancelled}, {partyShopOwner, TemplateCancelled}},
		KindShopOwnerDirect: {{partyCounterparty, TemplateCancelled}},
	},
	TransitionComplete: {
		KindIndependent:     {{partyCustomer, TemplateRatePrompt}},
		KindShopAffiliated:  {{partyCustomer, TemplateRatePrompt}},
		KindShopOwnerDirect: {{partyCustomer, TemplateRatePrompt}},
	},
	TransitionNoShow: {
		KindIndependent:     {{partyCustomer, TemplateNoShow}},
		KindShopAffiliated:  {{partyCustomer, TemplateNoShow}},
		KindShopOwnerDirect: {{partyCustomer, TemplateNoShow}},
	},
}

// FanoutInput describes a committed transition.
type FanoutInput struct {
	Transition   TransitionKind
	ProviderKind ProviderKind    // classification before the transition
	Booking      *models.Booking // state after the transition
	ShopOwnerID  string
	Actor        models.Actor
	CustomerName string
	ProviderName string          // display name of the provider assigned after the transition
}

// PlanNotifications maps a transition to its ordered, de-duplicated
// dispatches. The acting account is never notified of its own action.
func PlanNotifications(in FanoutInput) []models.NotificationDispatch {
	rules := fanoutTable[in.Transition][in.ProviderKind]
	if len(rules) == 0 {
		return nil
	}

	seen := map[string]bool{in.Actor.ID: true}
	var out []models.NotificationDispatch
	for _, rule := range rules {
		for _, r := range in.resolve(rule.Party) {
			if r.id == "" || seen[r.id] {
				continue
			}
			seen[r.id] = true
			out = append(out, models.NotificationDispatch{
				RecipientID:   r.id,
				RecipientRole: r.role,
				TemplateKey:   rule.Template,
				Fields:        in.fields(r.role),
				BookingID:     in.Booking.ID,
			})
		}
	}
	return out
}

type recipient struct {
	id   string
	role models.RecipientRole
}

func (in FanoutInput) resolve(p party) []recipient {
	customer := recipient{in.Booking.CustomerID, models.RecipientCustomer}
	provider := recipient{in.Booking.ProviderID, models.RecipientProvider}
	owner := recipient{in.ShopOwnerID, models.RecipientShopOwner}
	if in.ProviderKind == KindShopOwnerDirect && in.Booking.ProviderID == in.ShopOwnerID {
		provider.role = models.RecipientShopOwner
	}

	switch p {
	case partyCustomer:
		return []recipient{customer}
	case partyProvider:
		return []recipient{provider}
	case partyShopOwner:
		return []recipient{owner}
	case partyCounterparty:
		switch {
		case in.Actor.Role == models.RoleCustomer:
			return []recipient{provider}
		case in.Actor.Role == models.RoleProvider || in.Actor.Role == models.RoleShopOwner:
			return []recipient{customer}
		default:
			return []recipient{customer, provider}
		}
	}
	return nil
}

func (in FanoutInput) fields(role models.RecipientRole) map[string]string {
	counterpart := in.CustomerName
	if role == models.RecipientCustomer {
		counterpart = in.ProviderName
	}
	return map[string]string{
		models.FieldBookingUID:      in.Booking.UID,
		models.FieldServiceName:     in.Booking.ServiceName,
		models.FieldCounterpartName: counterpart,
		models.FieldDate:            in.Booking.Date,
		models.FieldTime:            models.ClockString(in.Booking.Start),
	}
}

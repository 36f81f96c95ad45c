package orders

import "github.com/djassa/djassa-backend/pkg/enums"

type transitionKey struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

type permissionKey struct {
	from enums.OrderStatus
	to   enums.OrderStatus
	role enums.ActorRole
}

// validTransitions is the complete edge set of the order state machine.
// Anything off this table is a state conflict regardless of role.
var validTransitions = map[transitionKey]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusConfirmed}:   {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusShipped}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}: {},
	{enums.OrderStatusShipped, enums.OrderStatusDelivered}:   {},
}

// allowedRoles narrows each valid edge to the roles that may drive it.
// Nobody may cancel a shipped order, so that edge never appears here.
var allowedRoles = map[permissionKey]struct{}{
	{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.RoleMerchant}:   {},
	{enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.RoleSystem}:     {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled, enums.RoleBuyer}:      {},
	{enums.OrderStatusPending, enums.OrderStatusCancelled, enums.RoleMerchant}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.RoleMerchant}:   {},
	{enums.OrderStatusConfirmed, enums.OrderStatusCancelled, enums.RoleMerchant}: {},
	{enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.RoleMerchant}:   {},
}

// statusOrder fixes the iteration order so valid-next listings are stable.
var statusOrder = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
	enums.OrderStatusCancelled,
}

// CanTransition reports whether the edge exists in the state machine.
func CanTransition(from, to enums.OrderStatus) bool {
	_, ok := validTransitions[transitionKey{from: from, to: to}]
	return ok
}

// RoleAllowed reports whether the role may drive an existing edge.
func RoleAllowed(from, to enums.OrderStatus, role enums.ActorRole) bool {
	_, ok := allowedRoles[permissionKey{from: from, to: to, role: role}]
	return ok
}

// ValidNextStatuses lists the reachable statuses from the given one. With a
// role it returns only the edges that role may drive; with nil it returns
// every edge in the machine.
func ValidNextStatuses(from enums.OrderStatus, role *enums.ActorRole) []enums.OrderStatus {
	next := make([]enums.OrderStatus, 0, 2)
	for _, to := range statusOrder {
		if !CanTransition(from, to) {
			continue
		}
		if role != nil && !RoleAllowed(from, to, *role) {
			continue
		}
		next = append(next, to)
	}
	return next
}

func statusStrings(statuses []enums.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}

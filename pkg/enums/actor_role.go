package enums

import "fmt"

// ActorRole identifies who is requesting an operation. Authentication happens
// upstream; the domain re-validates role-appropriateness per transition.
type ActorRole string

const (
	RoleBuyer    ActorRole = "buyer"
	RoleMerchant ActorRole = "merchant"
	// RoleSystem is used for transitions driven by settlement callbacks
	// rather than a human actor.
	RoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	RoleBuyer,
	RoleMerchant,
	RoleSystem,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}

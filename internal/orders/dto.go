package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/pkg/enums"
	"github.com/djassa/djassa-backend/pkg/pagination"
)

// Actor is the authenticated identity an upstream layer already verified.
// MerchantID is populated only for merchant actors.
type Actor struct {
	ID         uuid.UUID
	Role       enums.ActorRole
	MerchantID uuid.UUID
}

// HistoryRef is the value written into the audit trail's changed_by column.
func (a Actor) HistoryRef() string {
	if a.Role == enums.RoleSystem {
		return string(enums.RoleSystem)
	}
	return a.ID.String()
}

// UpdateStatusInput captures a requested order transition.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Actor          Actor
	Target         enums.OrderStatus
	TrackingNumber *string
	Reason         *string
	Note           *string
}

// ListInput carries the role-scoped listing filters.
type ListInput struct {
	Actor       Actor
	Status      *enums.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        pagination.Params
}

// ListFilter is the repository-level projection of ListInput.
type ListFilter struct {
	UserID      *uuid.UUID
	MerchantID  *uuid.UUID
	Status      *enums.OrderStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/api/middleware"
	"github.com/djassa/djassa-backend/api/responses"
	"github.com/djassa/djassa-backend/api/validators"
	"github.com/djassa/djassa-backend/internal/checkout"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

type checkoutLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	PaymentMethod string                `json:"payment_method" validate:"required"`
	Items         []checkoutLineRequest `json:"items" validate:"required,min=1,dive"`
}

// Checkout creates a pending order from the buyer's cart lines, reserving
// stock for every line in one transaction.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]checkout.LineInput, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, checkout.LineInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), checkout.CreateOrderInput{
			Actor:         actor,
			PaymentMethod: req.PaymentMethod,
			Lines:         lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

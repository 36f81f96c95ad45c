package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/api/responses"
	"github.com/djassa/djassa-backend/api/validators"
	"github.com/djassa/djassa-backend/internal/buybox"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/geo"
	"github.com/djassa/djassa-backend/pkg/logger"
)

// BuyBox ranks every merchant selling the requested product and returns
// the winning offer alongside the full scored list. The buyer's location
// arrives as optional lat/lng query parameters.
func BuyBox(svc buybox.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "buy box service unavailable"))
			return
		}

		rawProductID := strings.TrimSpace(chi.URLParam(r, "productId"))
		productID, err := uuid.Parse(rawProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		lat, err := validators.ParseQueryFloat(r, "lat")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if (lat == nil) != (lng == nil) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together"))
			return
		}

		var buyer *geo.LatLng
		if lat != nil {
			if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range"))
				return
			}
			buyer = &geo.LatLng{Lat: *lat, Lng: *lng}
		}

		result, err := svc.SelectWinner(r.Context(), productID, buyer)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

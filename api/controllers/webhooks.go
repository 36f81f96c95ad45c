package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/djassa/djassa-backend/api/responses"
	"github.com/djassa/djassa-backend/internal/payments"
	"github.com/djassa/djassa-backend/internal/payments/providers"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

// PaymentWebhook receives settlement callbacks from the mobile money
// providers. The payload is never trusted before its signature verifies,
// so this endpoint sits outside the actor middleware.
func PaymentWebhook(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		rawProvider := strings.TrimSpace(chi.URLParam(r, "provider"))
		provider, err := enums.ParsePaymentProvider(rawProvider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown provider"))
			return
		}

		var payload providers.WebhookPayload
		if err := decodeWebhookBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.HandleWebhook(r.Context(), provider, payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

// decodeWebhookBody is intentionally lenient about unknown fields; each
// provider sends its own extras around the fields we verify.
func decodeWebhookBody(r *http.Request, dest *providers.WebhookPayload) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body")
	}
	return nil
}

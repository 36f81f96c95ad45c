package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/djassa/djassa-backend/api/responses"
	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/pkg/enums"
	pkgerrors "github.com/djassa/djassa-backend/pkg/errors"
	"github.com/djassa/djassa-backend/pkg/logger"
)

// Identity is established by the gateway in front of this service. These
// headers are trusted blindly here; the domain layer still enforces
// role-appropriateness per operation.
const (
	userIDHeader     = "X-User-Id"
	userRoleHeader   = "X-User-Role"
	merchantIDHeader = "X-Merchant-Id"
)

type actorContextKey struct{}

// Actor extracts the authenticated identity from the gateway headers and
// stores it on the request context. Requests without a parseable identity
// are rejected before reaching any handler.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromHeaders(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.ID.String())
				ctx = logg.WithActorRole(ctx, string(actor.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the identity stored by the Actor middleware.
func ActorFromContext(ctx context.Context) (orders.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(orders.Actor)
	return actor, ok
}

func actorFromHeaders(r *http.Request) (orders.Actor, error) {
	rawID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if rawID == "" {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseActorRole(strings.TrimSpace(r.Header.Get(userRoleHeader)))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user role")
	}
	if role == enums.RoleSystem {
		// System transitions originate inside this service, never over HTTP.
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "system role is not accepted from clients")
	}

	actor := orders.Actor{ID: userID, Role: role}
	if role == enums.RoleMerchant {
		rawMerchant := strings.TrimSpace(r.Header.Get(merchantIDHeader))
		if rawMerchant == "" {
			return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "merchant identity missing")
		}
		merchantID, err := uuid.Parse(rawMerchant)
		if err != nil {
			return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid merchant id")
		}
		actor.MerchantID = merchantID
	}
	return actor, nil
}

package controllers

import (
	"net/http"

	"github.com/djassa/djassa-backend/api/responses"
	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/db"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/redis"
)

// HealthLive reports process liveness only.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady pings the backing stores and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		deps := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				deps["database"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "database ping failed", err)
				}
			} else {
				deps["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				deps["redis"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "redis ping failed", err)
				}
			} else {
				deps["redis"] = "up"
			}
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status":       state,
			"env":          cfg.App.Env,
			"dependencies": deps,
		})
	}
}

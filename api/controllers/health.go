package controllers

import (
	"net/http"

	"github.com/smartwish/kiosk-backend/api/responses"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db"
	pkgerrors "github.com/smartwish/kiosk-backend/pkg/errors"
	"github.com/smartwish/kiosk-backend/pkg/logger"
	"github.com/smartwish/kiosk-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SmartWish-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SmartWish-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "down"
				ready = false
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				ready = false
			} else {
				checks["redis"] = "up"
			}
		}

		if !ready {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

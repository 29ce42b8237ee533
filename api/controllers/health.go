package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/baladyapp/balady-backend/api/responses"
	"github.com/baladyapp/balady-backend/pkg/config"
	"github.com/baladyapp/balady-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Balady-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis with a short deadline. Any
// failing dependency flips the response to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Balady-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		for name, p := range map[string]pinger{"database": dbP, "redis": redisP} {
			if p == nil {
				checks[name] = "not configured"
				healthy = false
				continue
			}
			if err := p.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(ctx, "health.ready."+name, err)
				}
				checks[name] = "unavailable"
				healthy = false
				continue
			}
			checks[name] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": map[bool]string{true: "ready", false: "degraded"}[healthy],
			"checks": checks,
		})
	}
}

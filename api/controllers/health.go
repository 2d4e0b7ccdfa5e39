package controllers

import (
	"context"
	"net/http"

	"github.com/iscore-hr/helpdesk-backend/api/responses"
	"github.com/iscore-hr/helpdesk-backend/pkg/config"
	"github.com/iscore-hr/helpdesk-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type chatbotProbe interface {
	Health(ctx context.Context) bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HelpDesk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports the state of each backing dependency. The FAQ service
// being down degrades the response but never fails readiness, the chatbot is
// an optional surface.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger, faq chatbotProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HelpDesk-Env", cfg.App.Env)

		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
			"chatbot":  "ok",
		}
		ready := true

		if dbP == nil {
			checks["database"] = "not configured"
			ready = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
			ready = false
		}

		if redisP == nil {
			checks["redis"] = "not configured"
			ready = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			ready = false
		}

		if faq == nil || !faq.Health(r.Context()) {
			checks["chatbot"] = "unreachable"
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !ready {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			if logg != nil {
				ctx := logg.WithFields(r.Context(), map[string]any{"checks": checks})
				logg.Warn(ctx, "readiness check failed")
			}
		}

		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}

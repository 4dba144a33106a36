package controllers

import (
	"net/http"

	"github.com/angelmondragon/librarian-backend/api/responses"
	"github.com/angelmondragon/librarian-backend/pkg/config"
	"github.com/angelmondragon/librarian-backend/pkg/db"
	"github.com/angelmondragon/librarian-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Librarian-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness once the backing stores answer pings.
func HealthReady(cfg *config.Config, database *db.Client, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Librarian-Env", cfg.App.Env)

		checks := map[string]string{"database": "ok", "cache": "ok"}
		healthy := true

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				checks["database"] = "unreachable"
				healthy = false
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				checks["cache"] = "unreachable"
				healthy = false
			}
		}

		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}

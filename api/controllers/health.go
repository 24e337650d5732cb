package controllers

import (
	"net/http"

	"github.com/fleurly/fleurly-backend/api/responses"
	"github.com/fleurly/fleurly-backend/pkg/config"
	"github.com/fleurly/fleurly-backend/pkg/db"
	pkgerrors "github.com/fleurly/fleurly-backend/pkg/errors"
	"github.com/fleurly/fleurly-backend/pkg/logger"
	"github.com/fleurly/fleurly-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleurly-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the dependencies a serving instance needs. Nil pingers
// are skipped so partial wiring (tests, tooling) still works.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fleurly-Env", cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").
					WithDetails(map[string]string{"dependency": "database"})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}

		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]string{"dependency": "redis"})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/greenleague-backend/api/responses"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

const (
	envHeader         = "X-GreenLeague-Env"
	readyCheckTimeout = 2 * time.Second
)

// Pinger is any dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency. Nil pingers are reported as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		failed := map[string]any{}
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "disabled"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				failed[name] = err.Error()
				continue
			}
			checks[name] = "up"
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

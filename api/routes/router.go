package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/greenleague-backend/api/controllers"
	relationshipcontrollers "github.com/angelmondragon/greenleague-backend/api/controllers/relationships"
	"github.com/angelmondragon/greenleague-backend/api/middleware"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/config"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	relationshipQuerier relationships.Querier,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/pharmacies/{id}/top-manufacturers", relationshipcontrollers.PharmacyTopManufacturers(relationshipQuerier, logg))
		r.Get("/pharmacies/{id}/synergy", relationshipcontrollers.PharmacySynergy(relationshipQuerier, logg))
		r.Get("/strains/{id}/top-manufacturers", relationshipcontrollers.StrainTopManufacturers(relationshipQuerier, logg))
		r.Get("/relationships/summary/{kind}/{id}", relationshipcontrollers.RelationshipSummary(relationshipQuerier, logg))
	})

	return r
}

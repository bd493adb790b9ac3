package relationships

import (
	"net/http"

	"github.com/angelmondragon/greenleague-backend/api/responses"
	"github.com/angelmondragon/greenleague-backend/api/validators"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

// PharmacyTopManufacturers serves GET /api/v1/pharmacies/{id}/top-manufacturers.
func PharmacyTopManufacturers(service relationships.Querier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		pharmacyID, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		date, err := parseDate(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := parseLimit(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.TopManufacturersForPharmacy(ctx, pharmacyID, date, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// StrainTopManufacturers serves GET /api/v1/strains/{id}/top-manufacturers.
func StrainTopManufacturers(service relationships.Querier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		strainID, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		date, err := parseDate(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := parseLimit(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.TopManufacturersForStrain(ctx, strainID, date, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PharmacySynergy serves GET /api/v1/pharmacies/{id}/synergy.
func PharmacySynergy(service relationships.Querier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := parseSynergyRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := service.Synergy(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RelationshipSummary serves GET /api/v1/relationships/summary/{kind}/{id}.
func RelationshipSummary(service relationships.Querier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rawKind, err := parseSummaryKind(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		date, err := parseDate(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		kind, err := enums.ParseEntityKind(rawKind)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Summary(ctx, kind, id, date)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

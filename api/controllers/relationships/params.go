package relationships

import (
	"net/http"

	"github.com/angelmondragon/greenleague-backend/api/validators"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/go-chi/chi/v5"
)

type synergyQuery struct {
	ManufacturerID string `json:"manufacturer_id" validate:"omitempty,uuid"`
	ProductID      string `json:"product_id" validate:"omitempty,uuid"`
	StrainID       string `json:"strain_id" validate:"omitempty,uuid"`
	Date           string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type summaryPath struct {
	Kind string `json:"kind" validate:"required,oneof=pharmacy strain manufacturer"`
}

func parseLimit(r *http.Request) (int, error) {
	return validators.ParseQueryInt(r, "limit", relationships.DefaultTopLimit, 1, relationships.MaxTopLimit)
}

func parseDate(r *http.Request) (*types.StatDate, error) {
	return validators.ParseQueryDate(r, "date")
}

func parseSynergyRequest(r *http.Request) (relationships.SynergyRequest, error) {
	pharmacyID, err := validators.ParsePathUUID(r, "id")
	if err != nil {
		return relationships.SynergyRequest{}, err
	}

	query := r.URL.Query()
	params := synergyQuery{
		ManufacturerID: query.Get("manufacturer_id"),
		ProductID:      query.Get("product_id"),
		StrainID:       query.Get("strain_id"),
		Date:           query.Get("date"),
	}
	if err := validators.ValidateStruct(&params); err != nil {
		return relationships.SynergyRequest{}, err
	}

	req := relationships.SynergyRequest{PharmacyID: pharmacyID}
	if req.ManufacturerID, err = validators.ParseOptionalUUID(params.ManufacturerID, "manufacturer_id"); err != nil {
		return relationships.SynergyRequest{}, err
	}
	if req.ProductID, err = validators.ParseOptionalUUID(params.ProductID, "product_id"); err != nil {
		return relationships.SynergyRequest{}, err
	}
	if req.StrainID, err = validators.ParseOptionalUUID(params.StrainID, "strain_id"); err != nil {
		return relationships.SynergyRequest{}, err
	}
	if req.Date, err = validators.ParseOptionalDate(params.Date, "date"); err != nil {
		return relationships.SynergyRequest{}, err
	}
	return req, nil
}

func parseSummaryKind(r *http.Request) (string, error) {
	params := summaryPath{Kind: chi.URLParam(r, "kind")}
	if err := validators.ValidateStruct(&params); err != nil {
		return "", err
	}
	return params.Kind, nil
}

package relationships

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/greenleague-backend/api/responses"
	"github.com/angelmondragon/greenleague-backend/internal/relationships"
	"github.com/angelmondragon/greenleague-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuerier struct {
	topID    uuid.UUID
	topDate  *types.StatDate
	topLimit int
	synergy  relationships.SynergyRequest
	kind     enums.EntityKind
	err      error
}

func (s *stubQuerier) TopManufacturersForPharmacy(_ context.Context, id uuid.UUID, date *types.StatDate, limit int) (relationships.TopManufacturers, error) {
	s.topID, s.topDate, s.topLimit = id, date, limit
	return relationships.TopManufacturers{StatDate: date, Items: []relationships.TopManufacturer{{Name: "Acme", OrderCount: 2}}}, s.err
}

func (s *stubQuerier) TopManufacturersForStrain(_ context.Context, id uuid.UUID, date *types.StatDate, limit int) (relationships.TopManufacturers, error) {
	s.topID, s.topDate, s.topLimit = id, date, limit
	return relationships.TopManufacturers{StatDate: date, Items: []relationships.TopManufacturer{}}, s.err
}

func (s *stubQuerier) Synergy(_ context.Context, req relationships.SynergyRequest) (relationships.SynergyResult, error) {
	s.synergy = req
	return relationships.SynergyResult{HasPharmacyStrain: true, HasPharmacyProduct: true, HasFullSynergy: true}, s.err
}

func (s *stubQuerier) Summary(_ context.Context, kind enums.EntityKind, id uuid.UUID, date *types.StatDate) (relationships.Summary, error) {
	s.kind = kind
	return relationships.Summary{Kind: kind, ID: id, StatDate: date, ManufacturerCount: 3}, s.err
}

func newTestRouter(q relationships.Querier) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test"})
	r := chi.NewRouter()
	r.Get("/pharmacies/{id}/top-manufacturers", PharmacyTopManufacturers(q, logg))
	r.Get("/strains/{id}/top-manufacturers", StrainTopManufacturers(q, logg))
	r.Get("/pharmacies/{id}/synergy", PharmacySynergy(q, logg))
	r.Get("/relationships/summary/{kind}/{id}", RelationshipSummary(q, logg))
	return r
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) responses.APIError {
	t.Helper()
	var body responses.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestPharmacyTopManufacturersDefaults(t *testing.T) {
	q := &stubQuerier{}
	id := uuid.New()

	resp := serve(t, newTestRouter(q), "/pharmacies/"+id.String()+"/top-manufacturers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, id, q.topID)
	assert.Nil(t, q.topDate)
	assert.Equal(t, relationships.DefaultTopLimit, q.topLimit)

	var body struct {
		Data relationships.TopManufacturers `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "Acme", body.Data.Items[0].Name)
}

func TestPharmacyTopManufacturersDateAndLimit(t *testing.T) {
	q := &stubQuerier{}
	id := uuid.New()

	resp := serve(t, newTestRouter(q), "/pharmacies/"+id.String()+"/top-manufacturers?date=2026-03-04&limit=3")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, q.topDate)
	assert.Equal(t, "2026-03-04", q.topDate.String())
	assert.Equal(t, 3, q.topLimit)
}

func TestTopManufacturersRejectsBadInput(t *testing.T) {
	q := &stubQuerier{}
	router := newTestRouter(q)
	id := uuid.New().String()

	cases := map[string]string{
		"bad id":       "/pharmacies/not-a-uuid/top-manufacturers",
		"bad date":     "/pharmacies/" + id + "/top-manufacturers?date=03-04-2026",
		"limit high":   "/strains/" + id + "/top-manufacturers?limit=51",
		"limit zero":   "/strains/" + id + "/top-manufacturers?limit=0",
		"limit string": "/strains/" + id + "/top-manufacturers?limit=ten",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			resp := serve(t, router, target)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, resp).Code)
		})
	}
}

func TestStrainTopManufacturersEmpty(t *testing.T) {
	q := &stubQuerier{}
	id := uuid.New()

	resp := serve(t, newTestRouter(q), "/strains/"+id.String()+"/top-manufacturers")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, id, q.topID)
	assert.JSONEq(t, `{"data":{"stat_date":null,"items":[]}}`, resp.Body.String())
}

func TestPharmacySynergyParsesOptionalIDs(t *testing.T) {
	q := &stubQuerier{}
	pharmacyID, strainID, productID := uuid.New(), uuid.New(), uuid.New()

	target := "/pharmacies/" + pharmacyID.String() + "/synergy?strain_id=" + strainID.String() + "&product_id=" + productID.String()
	resp := serve(t, newTestRouter(q), target)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, pharmacyID, q.synergy.PharmacyID)
	require.NotNil(t, q.synergy.StrainID)
	assert.Equal(t, strainID, *q.synergy.StrainID)
	require.NotNil(t, q.synergy.ProductID)
	assert.Equal(t, productID, *q.synergy.ProductID)
	assert.Nil(t, q.synergy.ManufacturerID)
	assert.Nil(t, q.synergy.Date)
	assert.Contains(t, resp.Body.String(), `"has_full_synergy":true`)
}

func TestPharmacySynergyRejectsInvalidUUID(t *testing.T) {
	q := &stubQuerier{}
	target := "/pharmacies/" + uuid.New().String() + "/synergy?manufacturer_id=nope"

	resp := serve(t, newTestRouter(q), target)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	apiErr := decodeError(t, resp)
	assert.Equal(t, string(pkgerrors.CodeValidation), apiErr.Code)
	assert.Contains(t, apiErr.Details, "manufacturer_id")
}

func TestRelationshipSummary(t *testing.T) {
	q := &stubQuerier{}
	id := uuid.New()

	resp := serve(t, newTestRouter(q), "/relationships/summary/strain/"+id.String())
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.EntityKindStrain, q.kind)
	assert.Contains(t, resp.Body.String(), `"manufacturer_count":3`)
}

func TestRelationshipSummaryRejectsUnsupportedKind(t *testing.T) {
	router := newTestRouter(&stubQuerier{})
	for _, kind := range []string{"product", "store"} {
		resp := serve(t, router, "/relationships/summary/"+kind+"/"+uuid.New().String())
		require.Equal(t, http.StatusBadRequest, resp.Code, kind)
	}
}

func TestQuerierErrorsAreSurfaced(t *testing.T) {
	q := &stubQuerier{err: pkgerrors.New(pkgerrors.CodeInternal, "query failed")}

	resp := serve(t, newTestRouter(q), "/pharmacies/"+uuid.New().String()+"/top-manufacturers")
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "internal server error", decodeError(t, resp).Message)
}

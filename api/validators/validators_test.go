package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?limit=5&bad=abc&big=99", nil)

	v, err := ParseQueryInt(req, "limit", 10, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = ParseQueryInt(req, "missing", 10, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = ParseQueryInt(req, "bad", 10, 1, 50)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(req, "big", 10, 1, 50)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?date=2026-03-04&bad=03/04/2026", nil)

	date, err := ParseQueryDate(req, "date")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, "2026-03-04", date.String())

	none, err := ParseQueryDate(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = ParseQueryDate(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseOptionalUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseOptionalUUID(id.String(), "strain_id")
	require.NoError(t, err)
	assert.Equal(t, id, *got)

	got, err = ParseOptionalUUID(" ", "strain_id")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseOptionalUUID("nope", "strain_id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePathUUID(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParsePathUUID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParsePathUUID(req, "other")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestValidateStruct(t *testing.T) {
	type query struct {
		StrainID string `json:"strain_id" validate:"omitempty,uuid"`
		Kind     string `json:"kind" validate:"required,oneof=pharmacy strain"`
	}

	require.NoError(t, ValidateStruct(&query{Kind: "pharmacy"}))

	err := ValidateStruct(&query{StrainID: "nope", Kind: "pharmacy"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid uuid", details["strain_id"])

	err = ValidateStruct(&query{})
	details = pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["kind"])
}

package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryDate reads an optional YYYY-MM-DD parameter. Missing means nil.
func ParseQueryDate(r *http.Request, key string) (*types.StatDate, error) {
	return ParseOptionalDate(r.URL.Query().Get(key), key)
}

// ParseOptionalDate parses raw as YYYY-MM-DD; blank input yields nil.
func ParseOptionalDate(raw, field string) (*types.StatDate, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	date, err := types.ParseStatDate(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	return &date, nil
}

// ParseOptionalUUID parses raw as a uuid; blank input yields nil.
func ParseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid uuid").WithDetails(map[string]any{"field": field})
	}
	return &id, nil
}

// ParsePathUUID reads a required uuid route parameter.
func ParsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter required").WithDetails(map[string]any{"field": key})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid uuid").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

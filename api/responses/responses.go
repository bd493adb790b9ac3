package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
)

var errUnknown = errors.New("unknown error")

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessEnvelope{Data: data})
}

// WriteError maps err to its public envelope and status. Untyped errors are
// reported as internal without leaking their message. A nil logg skips logging.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errUnknown
	}
	typed := pkgerrors.Classify(err)
	status := pkgerrors.MetadataFor(typed.Code()).HTTPStatus

	if logg != nil {
		fields := pkgerrors.Dump(err).Fields()
		fields["status"] = status
		if details, ok := typed.Details().(map[string]any); ok {
			if field, ok := details["field"]; ok {
				fields["field"] = field
			}
		}
		logg.Error(logg.WithFields(ctx, fields), "request.error", err)
	}

	writeJSON(w, status, ErrorEnvelope{
		Error: APIError{
			Code:    string(typed.Code()),
			Message: typed.PublicMessage(),
			Details: typed.PublicDetails(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

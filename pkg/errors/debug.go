package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// transientPGClasses are SQLSTATE classes that describe the connection or server
// rather than the statement: connection exception, insufficient resources, operator intervention.
var transientPGClasses = []string{"08", "53", "57"}

// ErrorDump is a log-friendly breakdown of an error chain, including postgres detail when present.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Transient is true for deadlines and connection-class SQLSTATEs.
	Transient bool `json:"transient"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
		Transient:  errors.Is(err, context.DeadlineExceeded),
	}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}

	for _, class := range transientPGClasses {
		if strings.HasPrefix(d.PGCode, class) {
			d.Transient = true
		}
	}
	return d
}

// Fields flattens the dump into log fields, omitting empty postgres attributes.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error_message":   d.TopMessage,
		"error_chain":     d.Chain,
		"error_transient": d.Transient,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	optional := map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_column":     d.PGColumn,
		"pg_detail":     d.PGDetail,
		"pg_message":    d.PGMessage,
	}
	for key, value := range optional {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

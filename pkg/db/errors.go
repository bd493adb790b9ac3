package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// violation (Postgres or SQLite). When constraintName is provided, the helper
// looks for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsConnectivityError reports whether the error looks like a lost or refused
// connection rather than a statement-level failure.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range connectivityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var connectivityMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"database is closed",
	"context deadline exceeded",
	"i/o timeout",
}

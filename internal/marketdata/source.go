// Package marketdata adapts external order feeds to relationships.OrderSource.
package marketdata

import "github.com/angelmondragon/greenleague-backend/internal/relationships"

var (
	_ relationships.OrderSource = (*BigQuerySource)(nil)
	_ relationships.OrderSource = (*StaticSource)(nil)
)

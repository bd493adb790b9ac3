package relationships

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/greenleague-backend/internal/catalog"
	"github.com/angelmondragon/greenleague-backend/pkg/db/models"
	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDate = types.NewStatDate(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))

func setupRelationshipsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:relationships_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	if buf == nil {
		buf = &bytes.Buffer{}
	}
	return logger.New(logger.Options{ServiceName: "relationships-test", Output: buf})
}

// testCatalog seeds a small catalog and returns the ids by name.
type testCatalog struct {
	pharmacies    map[string]uuid.UUID
	manufacturers map[string]uuid.UUID
	products      map[string]uuid.UUID
	strains       map[string]uuid.UUID
}

func seedCatalog(t *testing.T, db *gorm.DB) testCatalog {
	t.Helper()

	seeded := testCatalog{
		pharmacies:    map[string]uuid.UUID{},
		manufacturers: map[string]uuid.UUID{},
		products:      map[string]uuid.UUID{},
		strains:       map[string]uuid.UUID{},
	}
	for _, name := range []string{"Green Leaf", "Blue Door"} {
		row := &models.Pharmacy{Name: name}
		require.NoError(t, db.Create(row).Error)
		seeded.pharmacies[name] = row.ID
	}
	for _, name := range []string{"Acme", "Bolt", "Cedar"} {
		row := &models.Manufacturer{Name: name}
		require.NoError(t, db.Create(row).Error)
		seeded.manufacturers[name] = row.ID
	}
	for _, name := range []string{"Acme Pre-Roll"} {
		row := &models.Product{Name: name}
		require.NoError(t, db.Create(row).Error)
		seeded.products[name] = row.ID
	}
	for _, name := range []string{"Blue Dream", "Sour Diesel"} {
		row := &models.Strain{Name: name}
		require.NoError(t, db.Create(row).Error)
		seeded.strains[name] = row.ID
	}
	return seeded
}

func listingOf(c testCatalog) catalog.Listing {
	return catalog.Listing{
		Pharmacies:    entries(c.pharmacies),
		Manufacturers: entries(c.manufacturers),
		Products:      entries(c.products),
		Strains:       entries(c.strains),
	}
}

func entries(byName map[string]uuid.UUID) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(byName))
	for name, id := range byName {
		out = append(out, catalog.Entry{ID: id, Name: name})
	}
	return out
}

func ptrID(id uuid.UUID) *uuid.UUID {
	return &id
}

func ptrFloat(v float64) *float64 {
	return &v
}

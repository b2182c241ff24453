package persistence

import (
	"testing"
	"time"

	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() StoreOption {
	return WithClock(func() time.Time { return fixedNow })
}

// newSQLiteDB opens an in-memory database with foreign keys enforced and the
// tax schema created. A single connection keeps the memory database alive.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open("file::memory:?_foreign_keys=1"), WithoutPreparedStatements())
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.DB.AutoMigrate(&tax.TaxCategory{}, &tax.Tax{}))
	require.NoError(t, db.DB.Exec(`CREATE TABLE tax_category_tax_rel (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tax_id INTEGER NOT NULL REFERENCES tax(id) ON DELETE CASCADE,
		taxcategory_id INTEGER NOT NULL REFERENCES tax_category(id) ON DELETE CASCADE,
		UNIQUE (tax_id, taxcategory_id)
	)`).Error)
	// product_tax stands in for another service table that protects taxes
	require.NoError(t, db.DB.Exec(`CREATE TABLE product_tax (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tax_id INTEGER NOT NULL REFERENCES tax(id) ON DELETE RESTRICT
	)`).Error)
	return db.DB
}

func int64Ptr(v int64) *int64 {
	return &v
}

func countRows(t *testing.T, db *gorm.DB, table string, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

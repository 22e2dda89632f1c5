package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGetTableColumns_SQLite(t *testing.T) {
	// Named in-memory DSN so parallel tests in this package don't share state.
	cfg := Config{
		Driver: "sqlite",
		Name:   "file:inspector_cols?mode=memory&cache=shared",
	}
	db, err := Connect(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, db)

	err = db.Exec("CREATE TABLE inventory_records (id TEXT PRIMARY KEY, serial TEXT, scanned INTEGER)").Error
	assert.NoError(t, err)

	columns, err := GetTableColumns(db, "inventory_records")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "text", colMap["serial"])
	assert.Equal(t, "integer", colMap["scanned"])

	// PRAGMA table_info returns an empty result for unknown tables,
	// so no error but no columns either.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	assert.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "CHAR(36)", "NO", "PRI", nil, "").
		AddRow("Serial", "VARCHAR(120)", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `inventory_records`").WillReturnRows(rows)

	columns, err := GetTableColumns(db, "inventory_records")
	assert.NoError(t, err)
	assert.Len(t, columns, 2)
	// Fields and types are normalized to lowercase.
	assert.Equal(t, "id", columns[0].Field)
	assert.Equal(t, "char(36)", columns[0].Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingTables(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: "file:inspector_missing?mode=memory&cache=shared"})
	assert.NoError(t, err)

	err = db.Exec("CREATE TABLE loads (id TEXT PRIMARY KEY)").Error
	assert.NoError(t, err)

	missing := MissingTables(db, "loads", "inventory_records", "scanning_sessions")
	assert.ElementsMatch(t, []string{"inventory_records", "scanning_sessions"}, missing)
}

// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"testing"

	"github.com/Luismorlan/mediamux/app_config"
	"github.com/Luismorlan/mediamux/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestDBPrefix         = "testonlydb_"
	TestDBNameCharLength = 8
)

// GormTransaction is the callback function used during db.Transaction in Gorm.
type GormTransaction func(tx *gorm.DB) error

func randomTestDBName() string {
	return TestDBPrefix + RandomAlphabetString(TestDBNameCharLength)
}

// GetDBConnection get a connection to the postgres database specified by config
func GetDBConnection(cfg app_config.DatabaseConfig) (*gorm.DB, error) {
	return getDB(postgres.Open(cfg.DSN()))
}

// Create a temp in-memory DB for testing, note that this function should only
// be called in a testing environment with test state manager testing.T.
// Every call gets its own database, the schema is migrated and the connection
// is closed when the test finishes.
func CreateTempDB(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	dbName := randomTestDBName()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := getDB(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("fail to create temp DB with name: %s, %s", dbName, err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatalf("fail to migrate temp DB %s: %s", dbName, err)
	}
	t.Cleanup(func() {
		// Proactively close instead of deferring to GC, the in-memory database
		// is released with its last connection.
		conn, _ := db.DB()
		conn.Close()
	})

	return db, dbName
}

func getDB(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// DatabaseSetupAndMigration creates or updates every table the services use.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	return db.AutoMigrate(model.AllModels()...)
}

package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resolutionengine/src/model"
)

// MainDB is the primary database connection used by the repositories. It is
// nil when durability is disabled (ENABLE_DB=false); the engine then keeps
// state in memory only and loses it on crash.
var MainDB *gorm.DB

// InitMainDB initializes the database connection and runs migrations.
// Call once at application startup.
func InitMainDB() error {
	config := GetConfig()

	db, err := gorm.Open(openDialector(config.DatabaseURL),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	MainDB = db

	logrus.Info("[database] MainDB connection established")

	if err := MainDB.AutoMigrate(
		&model.ExceptionOccurrence{},
		&model.EscalationRequest{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// openDialector picks the driver from the URL. Anything that is not a
// postgres URL is treated as a sqlite path, which covers local development
// (DATABASE_URL=local.db) without a running postgres.
func openDialector(databaseURL string) gorm.Dialector {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") || strings.Contains(databaseURL, "host=") {
		return postgres.Open(databaseURL)
	}
	return sqlite.Open(databaseURL)
}

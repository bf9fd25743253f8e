package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"keyregistry/internal/logger"
	"keyregistry/internal/models"
)

// Config returns the gorm settings shared by every dialector. Foreign key
// constraints are left to the schema owner because organizations and
// tokens reference each other.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// Open opens a database through any gorm dialector and pings it.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, Config())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return gdb, nil
}

// Connect opens the MySQL database named by dsn.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := Open(mysql.Open(dsn))
	if err != nil {
		return nil, err
	}
	logger.Info("database connected")
	return gdb, nil
}

// AutoMigrate migrates every registry model.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

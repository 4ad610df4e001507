package database

import (
	"fmt"
	"time"

	"opsportal/internal/config"
	"opsportal/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every table the portal owns, parents before children.
var Models = []interface{}{
	&model.User{},
	&model.AuditLog{},
	&model.PurchaseRequest{},
	&model.CashDemand{},
	&model.ExpenseRecord{},
	&model.ExpenseLineItem{},
	&model.EmployeeRegistration{},
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates the schema for Models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

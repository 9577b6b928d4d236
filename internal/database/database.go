package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fleetops/fleet-gateway/internal/config"
	"github.com/fleetops/fleet-gateway/internal/models"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes the postgres connection and runs migrations.
func Connect(cfg config.DatabaseConfig) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	var gormLogger logger.Interface
	switch cfg.LogLevel {
	case "silent":
		gormLogger = logger.Default.LogMode(logger.Silent)
	case "error":
		gormLogger = logger.Default.LogMode(logger.Error)
	case "info":
		gormLogger = logger.Default.LogMode(logger.Info)
	default:
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	DB = db

	return AutoMigrate()
}

// Use installs an already-open gorm DB (used by tests with sqlite).
func Use(db *gorm.DB) error {
	DB = db
	return AutoMigrate()
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Vehicle{},
		&models.Driver{},
		&models.MaintenanceRecord{},
		&models.WorkOrder{},
		&models.FuelTransaction{},
		&models.GPSPosition{},
		&models.Geofence{},
		&models.GeofenceAlert{},
		&models.ChargingStation{},
		&models.ChargingSession{},
		&models.Document{},
		&models.SafetyIncident{},
		&models.Inspection{},
		&models.WebhookEndpoint{},
		&models.Report{},
		&models.AuditLog{},
	)
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

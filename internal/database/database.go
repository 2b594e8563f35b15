package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Database wraps the GORM database connection.
type Database struct {
	*gorm.DB
}

// NewDatabase opens a PostgreSQL connection and configures the pool.
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Database{DB: db}, nil
}

// AutoMigrate runs automatic migration for all models.
func (db *Database) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.Category{},
		&models.Procurement{},
		&models.MLModel{},
		&models.Prediction{},
	)
}

// Close closes the database connection.
func (db *Database) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks the database connection.
func (db *Database) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Repositories bundles all repositories for dependency injection.
type Repositories struct {
	Procurements *ProcurementRepository
	Models       *ModelRepository
	Predictions  *PredictionRepository
}

// NewRepositories creates all repositories.
func NewRepositories(db *Database) *Repositories {
	return &Repositories{
		Procurements: NewProcurementRepository(db),
		Models:       NewModelRepository(db),
		Predictions:  NewPredictionRepository(db),
	}
}

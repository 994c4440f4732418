package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cepradar/server/internal/models"
)

// Database is the local snapshot store. It caches the last CEP list and
// valuation history fetched from the engine so the dashboard keeps rendering
// between polls and across restarts.
type Database struct {
	db *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Database{db: db}, nil
}

// RunMigrations creates or updates the snapshot tables.
func (d *Database) RunMigrations() error {
	return d.db.AutoMigrate(&models.CEPRecord{}, &models.Valuation{})
}

// ReplaceCEPs swaps the stored CEP snapshot for the given one. The engine's
// list is authoritative, so the swap is wholesale and transactional.
func (d *Database) ReplaceCEPs(records []models.CEPRecord) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.CEPRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear cep snapshot: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to store cep snapshot: %w", err)
		}
		return nil
	})
}

// ListCEPs returns the cached CEP snapshot, newest registrations first.
func (d *Database) ListCEPs() ([]models.CEPRecord, error) {
	var records []models.CEPRecord
	if err := d.db.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load cep snapshot: %w", err)
	}
	return records, nil
}

// DeleteCEP drops one record from the cached snapshot.
func (d *Database) DeleteCEP(id int64) error {
	if err := d.db.Delete(&models.CEPRecord{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete cep %d: %w", id, err)
	}
	return nil
}

// ReplaceValuations swaps the cached valuation history.
func (d *Database) ReplaceValuations(valuations []models.Valuation) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Valuation{}).Error; err != nil {
			return fmt.Errorf("failed to clear valuation cache: %w", err)
		}
		if len(valuations) == 0 {
			return nil
		}
		if err := tx.Create(&valuations).Error; err != nil {
			return fmt.Errorf("failed to store valuation cache: %w", err)
		}
		return nil
	})
}

// ListValuations returns the cached valuation history, newest first.
func (d *Database) ListValuations() ([]models.Valuation, error) {
	var valuations []models.Valuation
	if err := d.db.Order("created_at DESC").Find(&valuations).Error; err != nil {
		return nil, fmt.Errorf("failed to load valuation cache: %w", err)
	}
	return valuations, nil
}

// GetDB exposes the underlying gorm handle.
func (d *Database) GetDB() *gorm.DB {
	return d.db
}

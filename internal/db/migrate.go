package db

import (
	"errors"
	"fmt"

	"github.com/goodjobs/shiftbot/internal/config"
	"github.com/goodjobs/shiftbot/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Applicant{},
		&models.JobPosting{},
		&models.Application{},
		&models.DialogState{},
		&models.SequenceCounter{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin creates the bootstrap management account if it does not exist.
// An existing account with the same username is left untouched.
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Password == "" {
		return nil
	}

	var existing models.Applicant
	err := db.Where("line_user_id = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: check admin %q: %w", cfg.Username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("db: hash admin password: %w", err)
	}

	admin := models.Applicant{
		ID:             "USER-ADMIN-001",
		LineUserID:     cfg.Username,
		FullName:       "Administrator",
		HashedPassword: string(hash),
		IsAdmin:        true,
		Active:         true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("db: seed admin %q: %w", cfg.Username, err)
	}
	return nil
}

// Package applicant provides worker account operations keyed by the
// chat-platform user identifier.
package applicant

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goodjobs/shiftbot/internal/models"
	"github.com/goodjobs/shiftbot/internal/sequence"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no account exists for a chat user.
var ErrNotFound = errors.New("applicant: not found")

// RegisterOpts holds the validated registration fields. Email may be empty
// (the field is optional).
type RegisterOpts struct {
	FullName string
	Phone    string
	Address  string
	Email    string
}

// Register creates the account for lineUserID, or updates the mutable
// fields if one already exists. The name is kept on re-registration of an
// existing account only when the incoming name is empty.
func Register(db *gorm.DB, lineUserID string, opts RegisterOpts) (*models.Applicant, error) {
	var acct *models.Applicant
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing models.Applicant
		err := tx.Where("line_user_id = ?", lineUserID).First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"phone":      opts.Phone,
				"address":    opts.Address,
				"email":      opts.Email,
				"updated_at": time.Now(),
			}
			if opts.FullName != "" {
				updates["full_name"] = opts.FullName
			}
			if err := tx.Model(&models.Applicant{}).
				Where("line_user_id = ?", lineUserID).
				Updates(updates).Error; err != nil {
				return fmt.Errorf("update account: %w", err)
			}
			if err := tx.Where("line_user_id = ?", lineUserID).First(&existing).Error; err != nil {
				return fmt.Errorf("reload account: %w", err)
			}
			acct = &existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			n, err := sequence.NextIn(tx, sequence.ScopeUser)
			if err != nil {
				return err
			}
			created := models.Applicant{
				ID:         sequence.UserID(n),
				LineUserID: lineUserID,
				FullName:   opts.FullName,
				Phone:      opts.Phone,
				Address:    opts.Address,
				Email:      opts.Email,
				Active:     true,
			}
			if err := tx.Create(&created).Error; err != nil {
				return fmt.Errorf("insert account: %w", err)
			}
			acct = &created
			return nil
		default:
			return fmt.Errorf("check account: %w", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("applicant: register %s: %w", lineUserID, err)
	}
	log.Printf("applicant: registered %s as %s", lineUserID, acct.ID)
	return acct, nil
}

// UpdateField sets one mutable profile field. The name is immutable
// through this path.
func UpdateField(db *gorm.DB, lineUserID, field, value string) (*models.Applicant, error) {
	switch field {
	case "phone", "address", "email":
	default:
		return nil, fmt.Errorf("applicant: field %q is not editable", field)
	}

	result := db.Model(&models.Applicant{}).
		Where("line_user_id = ?", lineUserID).
		Updates(map[string]interface{}{field: value, "updated_at": time.Now()})
	if result.Error != nil {
		return nil, fmt.Errorf("applicant: update %s of %s: %w", field, lineUserID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return Get(db, lineUserID)
}

// Get retrieves the account for a chat user.
func Get(db *gorm.DB, lineUserID string) (*models.Applicant, error) {
	var acct models.Applicant
	if err := db.Where("line_user_id = ?", lineUserID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("applicant: get %s: %w", lineUserID, err)
	}
	return &acct, nil
}

// IsRegistered reports whether an account exists for a chat user.
func IsRegistered(db *gorm.DB, lineUserID string) bool {
	var count int64
	if err := db.Model(&models.Applicant{}).
		Where("line_user_id = ?", lineUserID).Count(&count).Error; err != nil {
		log.Printf("applicant: registration check for %s: %v", lineUserID, err)
		return false
	}
	return count > 0
}

// Delete removes an account together with every application it holds.
func Delete(db *gorm.DB, lineUserID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("line_user_id = ?", lineUserID).Delete(&models.Applicant{})
		if result.Error != nil {
			return fmt.Errorf("delete account: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("line_user_id = ?", lineUserID).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("applicant: delete %s: %w", lineUserID, err)
	}
	log.Printf("applicant: deleted account for %s", lineUserID)
	return nil
}

// ListWorkers returns all non-admin accounts, newest first.
func ListWorkers(db *gorm.DB) ([]models.Applicant, error) {
	var accts []models.Applicant
	if err := db.Where("is_admin = ?", false).
		Order("created_at DESC").Find(&accts).Error; err != nil {
		return nil, fmt.Errorf("applicant: list workers: %w", err)
	}
	return accts, nil
}

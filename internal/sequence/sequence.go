// Package sequence allocates monotonically increasing ordinals scoped to a
// key. Each scope owns one counter row; allocation locks the row FOR UPDATE
// so concurrent callers serialize per scope and ordinals come out dense,
// with no collisions and no dependence on the caller serializing calls.
package sequence

import (
	"fmt"
	"time"

	"github.com/goodjobs/shiftbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Global scope keys. Application scopes are per job per calendar day; see
// ApplicationScope.
const (
	ScopeJob  = "JOB"
	ScopeUser = "USER"
)

// Next allocates the next ordinal for scope in its own transaction.
func Next(db *gorm.DB, scope string) (int64, error) {
	var value int64
	err := db.Transaction(func(tx *gorm.DB) error {
		v, err := NextIn(tx, scope)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// NextIn allocates the next ordinal for scope inside an existing
// transaction, so callers can make allocation and insert atomic.
func NextIn(tx *gorm.DB, scope string) (int64, error) {
	// Ensure the counter row exists. Concurrent first allocations collapse
	// onto the same row via the conflict target.
	seed := models.SequenceCounter{Scope: scope, Value: 0}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, fmt.Errorf("sequence: seed counter %q: %w", scope, err)
	}

	var counter models.SequenceCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scope = ?", scope).First(&counter).Error; err != nil {
		return 0, fmt.Errorf("sequence: lock counter %q: %w", scope, err)
	}

	counter.Value++
	if err := tx.Model(&models.SequenceCounter{}).
		Where("scope = ?", scope).
		Update("value", counter.Value).Error; err != nil {
		return 0, fmt.Errorf("sequence: advance counter %q: %w", scope, err)
	}
	return counter.Value, nil
}

// JobID formats a job ordinal, e.g. JOB001.
func JobID(n int64) string {
	return fmt.Sprintf("JOB%03d", n)
}

// UserID formats an applicant ordinal, e.g. USER-001.
func UserID(n int64) string {
	return fmt.Sprintf("USER-%03d", n)
}

// ApplicationScope is the per-job-per-day counter key for application IDs.
func ApplicationScope(jobID string, day time.Time) string {
	return fmt.Sprintf("APP:%s:%s", jobID, day.UTC().Format("20060102"))
}

// ApplicationID formats a human-readable application identifier,
// e.g. JOB001-20260110-001.
func ApplicationID(jobID string, day time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%03d", jobID, day.UTC().Format("20060102"), n)
}

// Package ledger owns application records and their two rules: at most one
// application per (job, applicant) pair, and hard-delete cancellation.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/goodjobs/shiftbot/internal/models"
	"github.com/goodjobs/shiftbot/internal/sequence"
	"gorm.io/gorm"
)

// Handled negative outcomes. Callers branch on these to produce a
// user-facing explanation; they are not failures.
var (
	ErrNotRegistered  = errors.New("ledger: applicant is not registered")
	ErrJobNotFound    = errors.New("ledger: job not found")
	ErrInvalidShift   = errors.New("ledger: shift is not offered by this job")
	ErrAlreadyApplied = errors.New("ledger: applicant already holds an application for this job")
	ErrNotApplied     = errors.New("ledger: no application exists for this job")
)

// Apply records lineUserID taking shift on jobID. Preconditions are
// re-validated inside the transaction, so a duplicate delivery of the same
// trigger resolves to ErrAlreadyApplied instead of a second record. The
// identifier is allocated from the per-job-per-day sequence in the same
// transaction as the insert.
func Apply(db *gorm.DB, jobID, lineUserID, shift string, now time.Time) (*models.Application, error) {
	var app *models.Application
	err := db.Transaction(func(tx *gorm.DB) error {
		var acct models.Applicant
		if err := tx.Where("line_user_id = ?", lineUserID).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotRegistered
			}
			return fmt.Errorf("load applicant: %w", err)
		}

		var posting models.JobPosting
		if err := tx.Where("id = ?", jobID).First(&posting).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("load job: %w", err)
		}
		if !posting.HasShift(shift) {
			return ErrInvalidShift
		}

		var count int64
		if err := tx.Model(&models.Application{}).
			Where("job_id = ? AND line_user_id = ?", jobID, lineUserID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if count > 0 {
			return ErrAlreadyApplied
		}

		n, err := sequence.NextIn(tx, sequence.ApplicationScope(jobID, now))
		if err != nil {
			return err
		}

		app = &models.Application{
			ID:         sequence.ApplicationID(jobID, now, n),
			JobID:      jobID,
			LineUserID: lineUserID,
			UserName:   acct.FullName,
			Shift:      shift,
			AppliedAt:  now.UTC(),
		}
		if err := tx.Create(app).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrAlreadyApplied
			}
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
	if err != nil {
		if isHandled(err) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger: apply %s to %s: %w", lineUserID, jobID, err)
	}
	log.Printf("ledger: %s applied to %s shift %q as %s", lineUserID, jobID, shift, app.ID)
	return app, nil
}

// Cancel hard-deletes the application lineUserID holds on jobID and
// returns the removed record for confirmation messaging. A second cancel
// reports ErrNotApplied; repeat calls are deliberately not idempotent.
func Cancel(db *gorm.DB, jobID, lineUserID string) (*models.Application, error) {
	var app models.Application
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ? AND line_user_id = ?", jobID, lineUserID).
			First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotApplied
			}
			return fmt.Errorf("load application: %w", err)
		}
		if err := tx.Where("id = ?", app.ID).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotApplied) {
			return nil, ErrNotApplied
		}
		return nil, fmt.Errorf("ledger: cancel %s on %s: %w", lineUserID, jobID, err)
	}
	log.Printf("ledger: %s cancelled application %s", lineUserID, app.ID)
	return &app, nil
}

// GetForJob returns the application lineUserID holds on jobID, or
// ErrNotApplied when none exists.
func GetForJob(db *gorm.DB, jobID, lineUserID string) (*models.Application, error) {
	var app models.Application
	if err := db.Where("job_id = ? AND line_user_id = ?", jobID, lineUserID).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotApplied
		}
		return nil, fmt.Errorf("ledger: get application of %s for %s: %w", lineUserID, jobID, err)
	}
	return &app, nil
}

// ListByApplicant returns an applicant's applications, most recent first.
func ListByApplicant(db *gorm.DB, lineUserID string) ([]models.Application, error) {
	var apps []models.Application
	if err := db.Where("line_user_id = ?", lineUserID).
		Order("applied_at DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("ledger: list by applicant %s: %w", lineUserID, err)
	}
	return apps, nil
}

// ListByJob returns all applications against a job, oldest first so the
// numbering reads in allocation order.
func ListByJob(db *gorm.DB, jobID string) ([]models.Application, error) {
	var apps []models.Application
	if err := db.Where("job_id = ?", jobID).
		Order("applied_at ASC, id ASC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("ledger: list by job %s: %w", jobID, err)
	}
	return apps, nil
}

// isHandled reports whether err is one of the negative-outcome sentinels.
func isHandled(err error) bool {
	return errors.Is(err, ErrNotRegistered) ||
		errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrInvalidShift) ||
		errors.Is(err, ErrAlreadyApplied) ||
		errors.Is(err, ErrNotApplied)
}

// isDuplicateKey detects a unique-index violation from either backing
// driver. The (job_id, line_user_id) index is the storage-level backstop
// for the one-application invariant.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Package job provides job posting lifecycle operations.
package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/goodjobs/shiftbot/internal/models"
	"github.com/goodjobs/shiftbot/internal/sequence"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a job ID resolves to no posting.
var ErrNotFound = errors.New("job: not found")

// Geocoder resolves an address to coordinates. Absence of a result is not
// an error; implementations return ok=false when the address is unknown.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (lat, lon float64, ok bool, err error)
}

// CreateOpts holds parameters for publishing a new job posting.
type CreateOpts struct {
	Name             string
	Location         string
	Date             string // YYYY-MM-DD
	Shifts           []string
	LocationImageURL string
	Latitude         *float64
	Longitude        *float64
}

// Create publishes a job posting with an allocated JOB ordinal. When
// coordinates are missing and a geocoder is supplied, the location is
// resolved best-effort; a failed lookup does not block publication.
func Create(ctx context.Context, db *gorm.DB, geo Geocoder, opts CreateOpts) (*models.JobPosting, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("job: name is required")
	}
	if opts.Location == "" {
		return nil, fmt.Errorf("job: location is required")
	}
	if _, err := time.Parse("2006-01-02", opts.Date); err != nil {
		return nil, fmt.Errorf("job: date %q is not YYYY-MM-DD", opts.Date)
	}
	if len(opts.Shifts) == 0 {
		return nil, fmt.Errorf("job: at least one shift is required")
	}

	lat, lon := opts.Latitude, opts.Longitude
	if (lat == nil || lon == nil) && geo != nil {
		gLat, gLon, ok, err := geo.Lookup(ctx, opts.Location)
		if err != nil {
			log.Printf("job: geocode %q: %v", opts.Location, err)
		} else if ok {
			lat, lon = &gLat, &gLon
		}
	}

	var posting *models.JobPosting
	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := sequence.NextIn(tx, sequence.ScopeJob)
		if err != nil {
			return err
		}

		posting = &models.JobPosting{
			ID:               sequence.JobID(n),
			Name:             opts.Name,
			Location:         opts.Location,
			Date:             opts.Date,
			LocationImageURL: opts.LocationImageURL,
			Latitude:         lat,
			Longitude:        lon,
		}
		if err := posting.SetShiftList(opts.Shifts); err != nil {
			return fmt.Errorf("encode shifts: %w", err)
		}
		if err := tx.Create(posting).Error; err != nil {
			return fmt.Errorf("insert posting: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("job: create: %w", err)
	}
	return posting, nil
}

// Get retrieves a job posting by ID.
func Get(db *gorm.DB, id string) (*models.JobPosting, error) {
	var posting models.JobPosting
	if err := db.Where("id = ?", id).First(&posting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("job: get %s: %w", id, err)
	}
	return &posting, nil
}

// List returns all job postings ordered by work date.
func List(db *gorm.DB) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	if err := db.Order("date ASC, id ASC").Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("job: list: %w", err)
	}
	return postings, nil
}

// ListAvailable returns postings whose work date is today or later,
// ordered by date.
func ListAvailable(db *gorm.DB, now time.Time) ([]models.JobPosting, error) {
	today := now.UTC().Format("2006-01-02")
	var postings []models.JobPosting
	if err := db.Where("date >= ?", today).Order("date ASC, id ASC").Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("job: list available: %w", err)
	}
	return postings, nil
}

// Delete removes a job posting and all applications held against it.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&models.JobPosting{})
		if result.Error != nil {
			return fmt.Errorf("job: delete %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return fmt.Errorf("job: delete applications of %s: %w", id, err)
		}
		return nil
	})
}

package models

import (
	"encoding/json"
	"time"
)

// JobPosting is a shift-based job published through the management API.
// Date is a YYYY-MM-DD string; Shifts is a JSON array of shift labels in
// display order.
type JobPosting struct {
	ID               string `gorm:"primaryKey;size:32"`
	Name             string `gorm:"size:128;not null"`
	Location         string `gorm:"size:256;not null"`
	Date             string `gorm:"size:10;not null;index"`
	Shifts           string `gorm:"type:json;not null"`
	LocationImageURL string `gorm:"size:512"`
	Latitude         *float64
	Longitude        *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Applications []Application `gorm:"foreignKey:JobID"`
}

// ShiftList decodes the Shifts JSON array. A malformed value yields nil.
func (j *JobPosting) ShiftList() []string {
	if j.Shifts == "" {
		return nil
	}
	var shifts []string
	if err := json.Unmarshal([]byte(j.Shifts), &shifts); err != nil {
		return nil
	}
	return shifts
}

// SetShiftList encodes shift labels into the Shifts column.
func (j *JobPosting) SetShiftList(shifts []string) error {
	data, err := json.Marshal(shifts)
	if err != nil {
		return err
	}
	j.Shifts = string(data)
	return nil
}

// HasShift reports whether label is one of the job's declared shifts.
func (j *JobPosting) HasShift(label string) bool {
	for _, s := range j.ShiftList() {
		if s == label {
			return true
		}
	}
	return false
}

// Application records one applicant holding one shift on one job. The
// unique index on (job_id, line_user_id) backs the one-active-application
// invariant at the storage level; the ledger enforces it logically first.
type Application struct {
	ID         string    `gorm:"primaryKey;size:32"`
	JobID      string    `gorm:"size:32;not null;index;uniqueIndex:idx_job_user"`
	LineUserID string    `gorm:"size:64;not null;index;uniqueIndex:idx_job_user"`
	UserName   string    `gorm:"size:128"`
	Shift      string    `gorm:"size:64;not null"`
	AppliedAt  time.Time `gorm:"not null;index"`
	CreatedAt  time.Time

	Job JobPosting `gorm:"foreignKey:JobID"`
}

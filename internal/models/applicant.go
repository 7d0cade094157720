package models

import "time"

// Applicant is a worker account. Chat-platform users are keyed by
// LineUserID; management-API accounts carry a password hash instead.
// Email is optional and stored empty when the user skips or clears it.
type Applicant struct {
	ID             string `gorm:"primaryKey;size:32"`
	LineUserID     string `gorm:"size:64;uniqueIndex"`
	FullName       string `gorm:"size:128"`
	Phone          string `gorm:"size:16"`
	Address        string `gorm:"size:256"`
	Email          string `gorm:"size:128"`
	HashedPassword string `gorm:"size:128"`
	IsAdmin        bool   `gorm:"default:false;not null"`
	Active         bool   `gorm:"default:true;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

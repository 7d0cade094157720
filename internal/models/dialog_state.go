package models

import (
	"encoding/json"
	"time"
)

// Dialog kinds. At most one DialogState exists per (user, kind); absence
// means the user is not in that dialog.
const (
	DialogRegistration = "registration"
	DialogEditProfile  = "edit_profile"
)

// DialogState is one user's position in a multi-step conversation. Step is
// the current prompt tag; Data accumulates validated fields as a JSON
// object.
type DialogState struct {
	LineUserID string `gorm:"primaryKey;size:64"`
	Kind       string `gorm:"primaryKey;size:16"`
	Step       string `gorm:"size:32;not null"`
	Data       string `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index"`
}

// DataMap decodes the accumulated field map. A missing or malformed value
// yields an empty map, never nil.
func (s *DialogState) DataMap() map[string]string {
	m := make(map[string]string)
	if s.Data == "" {
		return m
	}
	if err := json.Unmarshal([]byte(s.Data), &m); err != nil {
		return make(map[string]string)
	}
	return m
}

// SetDataMap encodes the field map into the Data column.
func (s *DialogState) SetDataMap(m map[string]string) error {
	if len(m) == 0 {
		s.Data = ""
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.Data = string(data)
	return nil
}

// Package dialog drives the multi-step registration and profile-edit
// conversations. State lives in the shared database so any worker process
// can pick up the next utterance; nothing is held in process memory.
package dialog

import (
	"errors"
	"fmt"
	"time"

	"github.com/goodjobs/shiftbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetState loads the dialog state for (user, kind). A nil result with nil
// error means the user is not in that dialog.
func GetState(db *gorm.DB, lineUserID, kind string) (*models.DialogState, error) {
	var state models.DialogState
	err := db.Where("line_user_id = ? AND kind = ?", lineUserID, kind).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dialog: get state %s/%s: %w", lineUserID, kind, err)
	}
	return &state, nil
}

// PutState creates the dialog state for (user, kind), overwriting any
// existing row (upsert semantics).
func PutState(db *gorm.DB, lineUserID, kind, step string, data map[string]string) error {
	state := models.DialogState{
		LineUserID: lineUserID,
		Kind:       kind,
		Step:       step,
	}
	if err := state.SetDataMap(data); err != nil {
		return fmt.Errorf("dialog: encode state data: %w", err)
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "line_user_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"step", "data", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		return fmt.Errorf("dialog: put state %s/%s: %w", lineUserID, kind, err)
	}
	return nil
}

// UpdateState partially updates an existing state. Nil step or data leaves
// that column untouched. Returns false when no state exists.
func UpdateState(db *gorm.DB, lineUserID, kind string, step *string, data map[string]string) (bool, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if step != nil {
		updates["step"] = *step
	}
	if data != nil {
		holder := models.DialogState{}
		if err := holder.SetDataMap(data); err != nil {
			return false, fmt.Errorf("dialog: encode state data: %w", err)
		}
		updates["data"] = holder.Data
	}

	result := db.Model(&models.DialogState{}).
		Where("line_user_id = ? AND kind = ?", lineUserID, kind).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("dialog: update state %s/%s: %w", lineUserID, kind, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteState removes the state for (user, kind). Returns false when
// nothing existed; deletion of an absent state is a handled no-op.
func DeleteState(db *gorm.DB, lineUserID, kind string) (bool, error) {
	result := db.Where("line_user_id = ? AND kind = ?", lineUserID, kind).
		Delete(&models.DialogState{})
	if result.Error != nil {
		return false, fmt.Errorf("dialog: delete state %s/%s: %w", lineUserID, kind, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Abandon clears every dialog the user is in. The main-menu escape uses
// this so the menu keyword leaves no state behind from any step.
func Abandon(db *gorm.DB, lineUserID string) error {
	if err := db.Where("line_user_id = ?", lineUserID).
		Delete(&models.DialogState{}).Error; err != nil {
		return fmt.Errorf("dialog: abandon %s: %w", lineUserID, err)
	}
	return nil
}

// CleanupExpired deletes states idle longer than ttl and returns the count
// removed. Scheduled by the server's cron sweep.
func CleanupExpired(db *gorm.DB, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	result := db.Where("updated_at < ?", cutoff).Delete(&models.DialogState{})
	if result.Error != nil {
		return 0, fmt.Errorf("dialog: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

package dialog

import (
	"fmt"
	"log"

	"github.com/goodjobs/shiftbot/internal/applicant"
	"github.com/goodjobs/shiftbot/internal/line"
	"github.com/goodjobs/shiftbot/internal/models"
	"gorm.io/gorm"
)

// fieldLabels maps editable profile fields to their display names. The
// name is deliberately absent: it is immutable after registration.
var fieldLabels = map[string]string{
	"phone":   "電話",
	"address": "地址",
	"email":   "Email",
}

// StartEdit begins a single-step edit of one profile field. The previous
// value is shown so the user knows what they are replacing.
func StartEdit(db *gorm.DB, lineUserID, field string) ([]line.Message, error) {
	label, ok := fieldLabels[field]
	if !ok {
		return nil, fmt.Errorf("dialog: field %q is not editable", field)
	}

	acct, err := applicant.Get(db, lineUserID)
	if err != nil {
		return nil, err
	}

	if err := PutState(db, lineUserID, models.DialogEditProfile, field, nil); err != nil {
		return nil, err
	}

	current := currentValue(acct, field)
	if current == "" {
		current = "（未填寫）"
	}
	prompt := fmt.Sprintf("目前的%s：%s\n請輸入新的%s：", label, current, label)
	if field == "email" {
		prompt += "\n（輸入「清除」可清空）"
	}
	return []line.Message{line.NewText(prompt)}, nil
}

func handleEditStep(db *gorm.DB, state *models.DialogState, text string) (Result, error) {
	userID := state.LineUserID
	field := state.Step

	if IsCancelKeyword(text) {
		if _, err := DeleteState(db, userID, models.DialogEditProfile); err != nil {
			return Result{}, err
		}
		return Result{Handled: true, Done: true, Messages: []line.Message{
			line.NewText("已取消修改。"),
		}}, nil
	}

	var value string
	var err error
	switch field {
	case "phone":
		value, err = validatePhone(text)
		if err != nil {
			return reprompt("手機號碼格式錯誤，請輸入 09 開頭的 10 碼數字：")
		}
	case "address":
		value, err = validateAddress(text)
		if err != nil {
			return reprompt("地址不能為空，請重新輸入：")
		}
	case "email":
		value, err = validateEmail(text)
		if err != nil {
			return reprompt("電子郵件格式錯誤，請重新輸入（或輸入「清除」清空）：")
		}
	default:
		log.Printf("dialog: edit for %s at unknown field %q, resetting", userID, field)
		if _, err := DeleteState(db, userID, models.DialogEditProfile); err != nil {
			return Result{}, err
		}
		return Result{Handled: true, Done: true, Messages: []line.Message{
			line.NewText("修改流程發生錯誤，請重新開始。"),
		}}, nil
	}

	if _, err := applicant.UpdateField(db, userID, field, value); err != nil {
		return Result{}, err
	}
	if _, err := DeleteState(db, userID, models.DialogEditProfile); err != nil {
		return Result{}, err
	}

	shown := value
	if shown == "" {
		shown = "（未填寫）"
	}
	return Result{Handled: true, Done: true, Messages: []line.Message{
		line.NewText(fmt.Sprintf("✅ 已更新%s：%s", fieldLabels[field], shown)),
	}}, nil
}

func currentValue(acct *models.Applicant, field string) string {
	switch field {
	case "phone":
		return acct.Phone
	case "address":
		return acct.Address
	case "email":
		return acct.Email
	}
	return ""
}

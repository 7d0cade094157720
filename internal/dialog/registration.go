package dialog

import (
	"fmt"
	"log"

	"github.com/goodjobs/shiftbot/internal/applicant"
	"github.com/goodjobs/shiftbot/internal/line"
	"github.com/goodjobs/shiftbot/internal/models"
	"gorm.io/gorm"
)

// Registration steps, in order. The step names the field being prompted.
const (
	StepName    = "name"
	StepPhone   = "phone"
	StepAddress = "address"
	StepEmail   = "email"
)

// Result is the outcome of feeding one utterance to the active dialogs.
type Result struct {
	// Handled reports whether an active dialog consumed the text. When
	// false the caller falls through to keyword routing.
	Handled bool

	// Done reports that a dialog finished this turn (completed or
	// cancelled); the caller may append menu affordances.
	Done bool

	Messages []line.Message
}

// StartRegistration begins the registration dialog, overwriting any stale
// state from an earlier attempt.
func StartRegistration(db *gorm.DB, lineUserID string) ([]line.Message, error) {
	if err := PutState(db, lineUserID, models.DialogRegistration, StepName, nil); err != nil {
		return nil, err
	}
	return []line.Message{
		line.NewText("歡迎註冊！請輸入您的姓名："),
	}, nil
}

// HandleText feeds one text utterance to whichever dialog the user is in.
// Registration takes precedence over profile editing; a user is normally in
// at most one.
func HandleText(db *gorm.DB, lineUserID, text string) (Result, error) {
	reg, err := GetState(db, lineUserID, models.DialogRegistration)
	if err != nil {
		return Result{}, err
	}
	if reg != nil {
		return handleRegistrationStep(db, reg, text)
	}

	edit, err := GetState(db, lineUserID, models.DialogEditProfile)
	if err != nil {
		return Result{}, err
	}
	if edit != nil {
		return handleEditStep(db, edit, text)
	}

	return Result{}, nil
}

func handleRegistrationStep(db *gorm.DB, state *models.DialogState, text string) (Result, error) {
	userID := state.LineUserID

	if IsCancelKeyword(text) {
		if _, err := DeleteState(db, userID, models.DialogRegistration); err != nil {
			return Result{}, err
		}
		return Result{Handled: true, Done: true, Messages: []line.Message{
			line.NewText("已取消註冊。"),
		}}, nil
	}

	data := state.DataMap()

	switch state.Step {
	case StepName:
		name, err := validateName(text)
		if err != nil {
			return reprompt("姓名不能為空，請重新輸入：")
		}
		data["name"] = name
		return advance(db, userID, StepPhone, data,
			"請輸入您的手機號碼（例：0912345678）：")

	case StepPhone:
		phone, err := validatePhone(text)
		if err != nil {
			return reprompt("手機號碼格式錯誤，請輸入 09 開頭的 10 碼數字：")
		}
		data["phone"] = phone
		return advance(db, userID, StepAddress, data,
			"請輸入您的居住地址：")

	case StepAddress:
		address, err := validateAddress(text)
		if err != nil {
			return reprompt("地址不能為空，請重新輸入：")
		}
		data["address"] = address
		return advance(db, userID, StepEmail, data,
			"請輸入您的電子郵件（選填，可輸入「跳過」略過）：")

	case StepEmail:
		email, err := validateEmail(text)
		if err != nil {
			return reprompt("電子郵件格式錯誤，請重新輸入（或輸入「跳過」）：")
		}
		data["email"] = email
		return finishRegistration(db, userID, data)

	default:
		// Unknown step means a schema drift or a corrupted row. Reset
		// rather than trap the user.
		log.Printf("dialog: registration for %s at unknown step %q, resetting", userID, state.Step)
		if _, err := DeleteState(db, userID, models.DialogRegistration); err != nil {
			return Result{}, err
		}
		return Result{Handled: true, Done: true, Messages: []line.Message{
			line.NewText("註冊流程發生錯誤，請重新開始。"),
		}}, nil
	}
}

func finishRegistration(db *gorm.DB, lineUserID string, data map[string]string) (Result, error) {
	acct, err := applicant.Register(db, lineUserID, applicant.RegisterOpts{
		FullName: data["name"],
		Phone:    data["phone"],
		Address:  data["address"],
		Email:    data["email"],
	})
	if err != nil {
		return Result{}, err
	}
	if _, err := DeleteState(db, lineUserID, models.DialogRegistration); err != nil {
		return Result{}, err
	}

	email := acct.Email
	if email == "" {
		email = "（未填寫）"
	}
	summary := fmt.Sprintf("✅ 註冊完成！\n姓名：%s\n電話：%s\n地址：%s\nEmail：%s",
		acct.FullName, acct.Phone, acct.Address, email)
	return Result{Handled: true, Done: true, Messages: []line.Message{
		line.NewText(summary),
	}}, nil
}

// advance stores the accumulated data, moves to the next step, and prompts
// for it.
func advance(db *gorm.DB, lineUserID, nextStep string, data map[string]string, prompt string) (Result, error) {
	ok, err := UpdateState(db, lineUserID, models.DialogRegistration, &nextStep, data)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		// State vanished between read and write (TTL sweep or a
		// concurrent cancel). Treat as a fresh conversation.
		return Result{}, nil
	}
	return reprompt(prompt)
}

// reprompt replies without changing the stored step.
func reprompt(prompt string) (Result, error) {
	return Result{Handled: true, Messages: []line.Message{line.NewText(prompt)}}, nil
}

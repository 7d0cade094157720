package dialog

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldValidator = validator.New()

// Reserved keywords. Cancel aborts the active dialog; menu escapes to the
// main menu from any step; skip clears the optional email field.
var (
	cancelKeywords = []string{"取消", "cancel", "取消註冊", "取消修改"}
	menuKeywords   = []string{"選單", "menu", "menus", "工作", "jobs"}
	skipKeywords   = []string{"跳過", "skip", "略過", "清除", "清空"}
)

// Validation failures re-prompt the current step; they never advance the
// dialog or leave it.
var (
	errEmptyName    = errors.New("dialog: name is empty")
	errBadPhone     = errors.New("dialog: phone must be 10 digits starting with 09")
	errEmptyAddress = errors.New("dialog: address is empty")
	errBadEmail     = errors.New("dialog: email is malformed")
)

// IsCancelKeyword reports whether text aborts the active dialog.
func IsCancelKeyword(text string) bool {
	return matchKeyword(text, cancelKeywords)
}

// IsMenuKeyword reports whether text is the main-menu escape.
func IsMenuKeyword(text string) bool {
	return matchKeyword(text, menuKeywords)
}

// isSkipKeyword reports whether text clears the optional email field.
func isSkipKeyword(text string) bool {
	return text == "" || matchKeyword(text, skipKeywords)
}

func matchKeyword(text string, keywords []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, k := range keywords {
		if text == k {
			return true
		}
	}
	return false
}

// validateName requires a non-empty trimmed name.
func validateName(text string) (string, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		return "", errEmptyName
	}
	return name, nil
}

// validatePhone strips separators and requires exactly 10 digits starting
// with the national mobile prefix 09. No other normalization is applied.
func validatePhone(text string) (string, error) {
	phone := strings.TrimSpace(text)
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, " ", "")
	if len(phone) != 10 || !strings.HasPrefix(phone, "09") {
		return "", errBadPhone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return "", errBadPhone
		}
	}
	return phone, nil
}

// validateAddress requires a non-empty trimmed address.
func validateAddress(text string) (string, error) {
	address := strings.TrimSpace(text)
	if address == "" {
		return "", errEmptyAddress
	}
	return address, nil
}

// validateEmail returns the trimmed address, or empty when a skip keyword
// clears the optional field.
func validateEmail(text string) (string, error) {
	email := strings.TrimSpace(text)
	if isSkipKeyword(email) {
		return "", nil
	}
	if err := fieldValidator.Var(email, "email"); err != nil {
		return "", errBadEmail
	}
	return email, nil
}

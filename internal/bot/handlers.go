// Package bot routes inbound chat events to the application services and
// renders their outcomes as reply messages.
package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/goodjobs/shiftbot/internal/applicant"
	"github.com/goodjobs/shiftbot/internal/dialog"
	"github.com/goodjobs/shiftbot/internal/job"
	"github.com/goodjobs/shiftbot/internal/ledger"
	"github.com/goodjobs/shiftbot/internal/line"
)

// Handler turns one inbound event into reply messages. It is stateless;
// all conversation state lives in the database.
type Handler struct {
	DB *gorm.DB

	// Now is the clock used for date filtering and application stamps.
	// Nil means time.Now.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Text keywords usable outside any dialog.
var (
	registerKeywords    = []string{"註冊", "register", "會員註冊"}
	jobListKeywords     = []string{"工作列表", "list"}
	myApplicationsWords = []string{"已報班", "my_applications"}
)

// HandleText processes one text utterance. Routing order: the main-menu
// escape wins over everything, then the active dialog, then the keyword
// table, then the fallback hint.
func (h *Handler) HandleText(userID, text string) ([]line.Message, error) {
	if dialog.IsMenuKeyword(text) {
		if err := dialog.Abandon(h.DB, userID); err != nil {
			return nil, err
		}
		return []line.Message{mainMenu(applicant.IsRegistered(h.DB, userID))}, nil
	}

	result, err := dialog.HandleText(h.DB, userID, text)
	if err != nil {
		return nil, err
	}
	if result.Handled {
		msgs := result.Messages
		if result.Done {
			msgs = append(msgs, mainMenu(applicant.IsRegistered(h.DB, userID)))
		}
		return msgs, nil
	}

	switch {
	case matchesKeyword(text, registerKeywords):
		return h.startRegistration(userID)
	case matchesKeyword(text, jobListKeywords):
		return h.jobList(userID)
	case matchesKeyword(text, myApplicationsWords):
		return h.myApplications(userID)
	}

	return []line.Message{
		line.NewText("您好！請使用選單操作，或輸入「選單」查看服務項目。"),
		mainMenu(applicant.IsRegistered(h.DB, userID)),
	}, nil
}

// HandlePostback processes one decoded postback command.
func (h *Handler) HandlePostback(userID string, cmd line.Command) ([]line.Message, error) {
	switch cmd.Action {
	case "register":
		return h.startRegistration(userID)

	case "view_profile":
		return h.viewProfile(userID)

	case "edit_profile":
		return h.editProfile(userID, cmd)

	case "delete_registration":
		return h.deleteRegistration(userID, cmd)

	case "job":
		return h.jobAction(userID, cmd)

	default:
		return []line.Message{
			line.NewText("無法辨識的操作，請重新從選單開始。"),
			mainMenu(applicant.IsRegistered(h.DB, userID)),
		}, nil
	}
}

// startRegistration begins the registration dialog, or shows the existing
// profile when the user already has an account.
func (h *Handler) startRegistration(userID string) ([]line.Message, error) {
	acct, err := applicant.Get(h.DB, userID)
	switch {
	case err == nil:
		msgs := []line.Message{line.NewText("您已經完成註冊囉！")}
		return append(msgs, profileView(acct)...), nil
	case errors.Is(err, applicant.ErrNotFound):
		return dialog.StartRegistration(h.DB, userID)
	default:
		return nil, err
	}
}

func (h *Handler) viewProfile(userID string) ([]line.Message, error) {
	acct, err := applicant.Get(h.DB, userID)
	if errors.Is(err, applicant.ErrNotFound) {
		return h.notRegistered(), nil
	}
	if err != nil {
		return nil, err
	}
	return profileView(acct), nil
}

func (h *Handler) editProfile(userID string, cmd line.Command) ([]line.Message, error) {
	if !applicant.IsRegistered(h.DB, userID) {
		return h.notRegistered(), nil
	}
	switch cmd.Step {
	case "select_field", "":
		return []line.Message{editFieldSelection()}, nil
	case "input":
		return dialog.StartEdit(h.DB, userID, cmd.Field)
	default:
		return nil, fmt.Errorf("bot: unknown edit step %q", cmd.Step)
	}
}

func (h *Handler) deleteRegistration(userID string, cmd line.Command) ([]line.Message, error) {
	if !applicant.IsRegistered(h.DB, userID) {
		return h.notRegistered(), nil
	}
	switch cmd.Step {
	case "confirm", "":
		return []line.Message{deleteConfirmation()}, nil
	case "confirm_delete":
		if err := applicant.Delete(h.DB, userID); err != nil {
			if errors.Is(err, applicant.ErrNotFound) {
				return h.notRegistered(), nil
			}
			return nil, err
		}
		return []line.Message{
			line.NewText("✅ 已刪除您的帳號與所有應徵紀錄。"),
			mainMenu(false),
		}, nil
	default:
		return nil, fmt.Errorf("bot: unknown delete step %q", cmd.Step)
	}
}

func (h *Handler) jobAction(userID string, cmd line.Command) ([]line.Message, error) {
	switch cmd.Step {
	case "list", "":
		return h.jobList(userID)
	case "detail":
		return h.jobDetail(userID, cmd.JobID)
	case "apply":
		return h.jobApply(userID, cmd.JobID)
	case "select_shift":
		return h.jobSelectShift(userID, cmd.JobID, cmd.Shift)
	case "cancel":
		return h.jobCancel(userID, cmd.JobID)
	case "confirm_cancel":
		return h.jobConfirmCancel(userID, cmd.JobID)
	case "my_applications":
		return h.myApplications(userID)
	case "menu":
		return []line.Message{mainMenu(applicant.IsRegistered(h.DB, userID))}, nil
	default:
		return nil, fmt.Errorf("bot: unknown job step %q", cmd.Step)
	}
}

func (h *Handler) jobList(userID string) ([]line.Message, error) {
	postings, err := job.ListAvailable(h.DB, h.now())
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return []line.Message{line.NewText("目前沒有可應徵的工作，請稍後再來看看！")}, nil
	}

	appliedJobs, err := h.appliedJobSet(userID)
	if err != nil {
		return nil, err
	}

	header := fmt.Sprintf("🔍 目前共有 %d 個工作機會", len(postings))
	if len(postings) > maxJobCards {
		header += fmt.Sprintf("（顯示前 %d 筆）", maxJobCards)
		postings = postings[:maxJobCards]
	}

	msgs := []line.Message{line.NewText(header)}
	for i := range postings {
		msgs = append(msgs, jobCard(&postings[i], appliedJobs[postings[i].ID]))
	}
	return msgs, nil
}

func (h *Handler) jobDetail(userID, jobID string) ([]line.Message, error) {
	posting, err := job.Get(h.DB, jobID)
	if errors.Is(err, job.ErrNotFound) {
		return []line.Message{line.NewText("找不到這個工作，它可能已經下架了。")}, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = ledger.GetForJob(h.DB, jobID, userID)
	applied := err == nil
	if err != nil && !errors.Is(err, ledger.ErrNotApplied) {
		return nil, err
	}
	return []line.Message{jobDetail(posting, applied)}, nil
}

func (h *Handler) jobApply(userID, jobID string) ([]line.Message, error) {
	if !applicant.IsRegistered(h.DB, userID) {
		return h.notRegistered(), nil
	}

	posting, err := job.Get(h.DB, jobID)
	if errors.Is(err, job.ErrNotFound) {
		return []line.Message{line.NewText("找不到這個工作，它可能已經下架了。")}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := ledger.GetForJob(h.DB, jobID, userID); err == nil {
		return []line.Message{line.NewText("您已經應徵過這個工作囉！")}, nil
	} else if !errors.Is(err, ledger.ErrNotApplied) {
		return nil, err
	}

	return []line.Message{shiftSelection(posting)}, nil
}

func (h *Handler) jobSelectShift(userID, jobID, shift string) ([]line.Message, error) {
	app, err := ledger.Apply(h.DB, jobID, userID, shift, h.now())
	switch {
	case err == nil:
		posting, jobErr := job.Get(h.DB, jobID)
		name := jobID
		if jobErr == nil {
			name = posting.Name
		}
		return []line.Message{
			line.NewText(fmt.Sprintf("✅ 應徵成功！\n編號：%s\n工作：%s\n班次：%s",
				app.ID, name, app.Shift)),
			mainMenu(true),
		}, nil
	case errors.Is(err, ledger.ErrNotRegistered):
		return h.notRegistered(), nil
	case errors.Is(err, ledger.ErrJobNotFound):
		return []line.Message{line.NewText("找不到這個工作，它可能已經下架了。")}, nil
	case errors.Is(err, ledger.ErrInvalidShift):
		return []line.Message{line.NewText("這個班次不存在，請重新選擇。")}, nil
	case errors.Is(err, ledger.ErrAlreadyApplied):
		return []line.Message{line.NewText("您已經應徵過這個工作囉！")}, nil
	default:
		return nil, err
	}
}

func (h *Handler) jobCancel(userID, jobID string) ([]line.Message, error) {
	app, err := ledger.GetForJob(h.DB, jobID, userID)
	if errors.Is(err, ledger.ErrNotApplied) {
		return []line.Message{line.NewText("您尚未應徵這個工作。")}, nil
	}
	if err != nil {
		return nil, err
	}

	return []line.Message{
		line.NewButtons("取消應徵確認", "取消應徵",
			truncate(fmt.Sprintf("編號 %s（%s），確定要取消嗎？", app.ID, app.Shift), templateTextLimit),
			line.PostbackAction("確定取消",
				line.Command{Action: "job", Step: "confirm_cancel", JobID: jobID}.Encode()),
			line.PostbackAction("返回",
				line.Command{Action: "job", Step: "detail", JobID: jobID}.Encode()),
		),
	}, nil
}

func (h *Handler) jobConfirmCancel(userID, jobID string) ([]line.Message, error) {
	app, err := ledger.Cancel(h.DB, jobID, userID)
	if errors.Is(err, ledger.ErrNotApplied) {
		return []line.Message{line.NewText("您尚未應徵這個工作。")}, nil
	}
	if err != nil {
		return nil, err
	}
	return []line.Message{
		line.NewText(fmt.Sprintf("✅ 已取消應徵（編號 %s）。", app.ID)),
		mainMenu(true),
	}, nil
}

func (h *Handler) myApplications(userID string) ([]line.Message, error) {
	if !applicant.IsRegistered(h.DB, userID) {
		return h.notRegistered(), nil
	}

	apps, err := ledger.ListByApplicant(h.DB, userID)
	if err != nil {
		return nil, err
	}

	jobNames := make(map[string]string)
	for _, app := range apps {
		if _, seen := jobNames[app.JobID]; seen {
			continue
		}
		posting, err := job.Get(h.DB, app.JobID)
		if err == nil {
			jobNames[app.JobID] = posting.Name
		}
	}
	return []line.Message{applicationList(apps, jobNames)}, nil
}

// appliedJobSet returns the set of job IDs the user holds applications on.
func (h *Handler) appliedJobSet(userID string) (map[string]bool, error) {
	apps, err := ledger.ListByApplicant(h.DB, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(apps))
	for _, app := range apps {
		set[app.JobID] = true
	}
	return set, nil
}

// notRegistered prompts for registration before member-only operations.
func (h *Handler) notRegistered() []line.Message {
	return []line.Message{
		line.NewButtons("請先註冊", "尚未註冊",
			"這項服務需要先完成會員註冊",
			line.PostbackAction("開始註冊", line.Command{Action: "register"}.Encode()),
			line.PostbackAction("返回選單", line.Command{Action: "job", Step: "menu"}.Encode()),
		),
	}
}

func matchesKeyword(text string, keywords []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, k := range keywords {
		if text == k {
			return true
		}
	}
	return false
}

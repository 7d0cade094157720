package bot

import (
	"fmt"
	"strings"

	"github.com/goodjobs/shiftbot/internal/line"
	"github.com/goodjobs/shiftbot/internal/models"
)

const (
	// templateTextLimit is the platform cap on buttons-template body text.
	templateTextLimit = 60

	// maxJobCards caps job cards per reply, leaving one unit for the
	// header within the five-unit reply budget.
	maxJobCards = 4

	// maxTemplateActions is the platform cap on buttons per template.
	maxTemplateActions = 4
)

// truncate shortens s to at most limit runes, marking the cut with an
// ellipsis. Counting is rune-based; the platform counts characters, not
// bytes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// mainMenu is the top-level service menu. Registered and unregistered
// users see different affordances.
func mainMenu(registered bool) line.Message {
	var actions []line.Action
	if registered {
		actions = []line.Action{
			line.PostbackAction("查看工作機會", line.Command{Action: "job", Step: "list"}.Encode()),
			line.PostbackAction("我的應徵紀錄", line.Command{Action: "job", Step: "my_applications"}.Encode()),
			line.PostbackAction("個人資料", line.Command{Action: "view_profile"}.Encode()),
		}
	} else {
		actions = []line.Action{
			line.PostbackAction("查看工作機會", line.Command{Action: "job", Step: "list"}.Encode()),
			line.PostbackAction("會員註冊", line.Command{Action: "register"}.Encode()),
		}
	}
	return line.NewButtons("主選單", "主選單", "請選擇需要的服務", actions...)
}

// jobCard renders one posting as a buttons template. applied switches the
// primary action between applying and cancelling.
func jobCard(posting *models.JobPosting, applied bool) line.Message {
	body := fmt.Sprintf("%s\n日期：%s", posting.Location, posting.Date)
	if applied {
		body += "\n✅ 已應徵"
	}

	primary := line.PostbackAction("立即應徵",
		line.Command{Action: "job", Step: "apply", JobID: posting.ID}.Encode())
	if applied {
		primary = line.PostbackAction("取消應徵",
			line.Command{Action: "job", Step: "cancel", JobID: posting.ID}.Encode())
	}

	msg := line.NewButtons(
		fmt.Sprintf("%s %s", posting.Name, posting.Date),
		truncate(posting.Name, 40),
		truncate(body, templateTextLimit),
		line.PostbackAction("查看詳情",
			line.Command{Action: "job", Step: "detail", JobID: posting.ID}.Encode()),
		primary,
	)
	msg.Template.ThumbnailImageURL = posting.LocationImageURL
	return msg
}

// jobDetail renders the full posting card with shift info and a map link
// when coordinates are known.
func jobDetail(posting *models.JobPosting, applied bool) line.Message {
	shifts := strings.Join(posting.ShiftList(), "、")
	body := fmt.Sprintf("%s\n日期：%s\n班次：%s", posting.Location, posting.Date, shifts)
	if applied {
		body += "\n✅ 已應徵"
	}

	actions := make([]line.Action, 0, maxTemplateActions)
	if applied {
		actions = append(actions, line.PostbackAction("取消應徵",
			line.Command{Action: "job", Step: "cancel", JobID: posting.ID}.Encode()))
	} else {
		actions = append(actions, line.PostbackAction("立即應徵",
			line.Command{Action: "job", Step: "apply", JobID: posting.ID}.Encode()))
	}
	if posting.Latitude != nil && posting.Longitude != nil {
		actions = append(actions, line.URIAction("查看地圖",
			fmt.Sprintf("https://www.google.com/maps?q=%f,%f", *posting.Latitude, *posting.Longitude)))
	}
	actions = append(actions, line.PostbackAction("返回列表",
		line.Command{Action: "job", Step: "list"}.Encode()))

	msg := line.NewButtons(
		fmt.Sprintf("%s %s", posting.Name, posting.Date),
		truncate(posting.Name, 40),
		truncate(body, templateTextLimit),
		actions...,
	)
	msg.Template.ThumbnailImageURL = posting.LocationImageURL
	return msg
}

// shiftSelection renders one button per offered shift, capped at the
// platform's per-template action limit.
func shiftSelection(posting *models.JobPosting) line.Message {
	shifts := posting.ShiftList()
	if len(shifts) > maxTemplateActions {
		shifts = shifts[:maxTemplateActions]
	}
	actions := make([]line.Action, 0, len(shifts))
	for _, shift := range shifts {
		actions = append(actions, line.PostbackAction(truncate(shift, 20),
			line.Command{Action: "job", Step: "select_shift", JobID: posting.ID, Shift: shift}.Encode()))
	}
	return line.NewButtons(
		"選擇班次",
		truncate(posting.Name, 40),
		truncate(fmt.Sprintf("%s\n請選擇班次", posting.Date), templateTextLimit),
		actions...,
	)
}

// profileView renders the account summary with edit and delete entry
// points.
func profileView(acct *models.Applicant) []line.Message {
	email := acct.Email
	if email == "" {
		email = "（未填寫）"
	}
	summary := fmt.Sprintf("會員編號：%s\n姓名：%s\n電話：%s\n地址：%s\nEmail：%s",
		acct.ID, acct.FullName, acct.Phone, acct.Address, email)

	return []line.Message{
		line.NewText(summary),
		line.NewButtons("個人資料", "個人資料", "請選擇操作",
			line.PostbackAction("修改資料",
				line.Command{Action: "edit_profile", Step: "select_field"}.Encode()),
			line.PostbackAction("刪除帳號",
				line.Command{Action: "delete_registration", Step: "confirm"}.Encode()),
			line.PostbackAction("返回選單",
				line.Command{Action: "job", Step: "menu"}.Encode()),
		),
	}
}

// editFieldSelection offers the editable profile fields. The name is not
// offered; it is immutable after registration.
func editFieldSelection() line.Message {
	return line.NewButtons("修改資料", "修改資料", "請選擇要修改的欄位",
		line.PostbackAction("電話",
			line.Command{Action: "edit_profile", Step: "input", Field: "phone"}.Encode()),
		line.PostbackAction("地址",
			line.Command{Action: "edit_profile", Step: "input", Field: "address"}.Encode()),
		line.PostbackAction("Email",
			line.Command{Action: "edit_profile", Step: "input", Field: "email"}.Encode()),
	)
}

// deleteConfirmation double-checks before the account and its
// applications are removed.
func deleteConfirmation() line.Message {
	return line.NewButtons("刪除帳號確認", "刪除帳號",
		truncate("將一併刪除您的所有應徵紀錄，確定要刪除嗎？", templateTextLimit),
		line.PostbackAction("確定刪除",
			line.Command{Action: "delete_registration", Step: "confirm_delete"}.Encode()),
		line.PostbackAction("取消",
			line.Command{Action: "view_profile"}.Encode()),
	)
}

// applicationList renders the applicant's applications as a text summary.
func applicationList(apps []models.Application, jobNames map[string]string) line.Message {
	if len(apps) == 0 {
		return line.NewText("您目前沒有應徵紀錄。")
	}
	var b strings.Builder
	b.WriteString("📋 我的應徵紀錄\n")
	for _, app := range apps {
		name := jobNames[app.JobID]
		if name == "" {
			name = app.JobID
		}
		fmt.Fprintf(&b, "\n編號：%s\n工作：%s\n班次：%s\n", app.ID, name, app.Shift)
	}
	return line.NewText(strings.TrimRight(b.String(), "\n"))
}

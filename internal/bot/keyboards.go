package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-tracker/internal/routine"
)

const (
	btnCancelDialog    = "⏪ Cancel input"
	menuLabelToday     = "📋 Today"
	menuLabelAdd       = "➕ Add task"
	menuLabelTemplates = "♻️ Routine"
	menuLabelStats     = "📈 Stats"
)

type sourceButton struct {
	id    string
	label string
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelAdd),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTemplates),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// replyGrid lays labels out in rows of perRow and appends the cancel button.
func replyGrid(labels []string, perRow int) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, label := range labels {
		row = append(row, tgbotapi.NewKeyboardButton(label))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard(cats []routine.Category) tgbotapi.ReplyKeyboardMarkup {
	labels := make([]string, 0, len(cats))
	for _, c := range cats {
		labels = append(labels, c.Config.Label)
	}
	return replyGrid(labels, 2)
}

func daysKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyGrid([]string{"daily", "weekdays", "weekends", "mon,wed,fri", "tue,thu"}, 3)
}

func dateKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyGrid([]string{"today", "tomorrow"}, 2)
}

func hourKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyGrid([]string{"07:00", "09:00", "12:00", "15:00", "18:00", "20:00"}, 3)
}

func durationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return replyGrid([]string{"30min", "1h", "1.5h", "2h", "3h"}, 3)
}

// dayKeyboard has one toggle button per task and a navigation row.
func dayKeyboard(date string, tasks []routine.DayTask) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		mark := "⬜️"
		if task.Completed {
			mark = "✅"
		}
		label := fmt.Sprintf("%s %s %s", mark, routine.FormatHour(task.Hour), shortTitle(task.Title, 24))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, toggleData(task))))
	}

	prev, errPrev := routine.AddDays(date, -1)
	next, errNext := routine.AddDays(date, 1)
	if errPrev == nil && errNext == nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️", dayData(prev)),
			tgbotapi.NewInlineKeyboardButtonData("▶️", dayData(next)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func deleteKeyboard(kind routine.SourceKind, items []sourceButton) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, item := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+item.label, deleteData(kind, item.id)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard(kind routine.SourceKind, id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Delete", confirmData(kind, id)),
		tgbotapi.NewInlineKeyboardButtonData("↩️ Keep", cbCancel),
	))
}

func templateButtons(templates []routine.Template) []sourceButton {
	out := make([]sourceButton, 0, len(templates))
	for _, t := range templates {
		out = append(out, sourceButton{id: t.ID, label: shortTitle(t.Title, 28)})
	}
	return out
}

func oneOffButtons(oneoffs []routine.OneOff) []sourceButton {
	out := make([]sourceButton, 0, len(oneoffs))
	for _, o := range oneoffs {
		out = append(out, sourceButton{id: o.ID, label: o.Date[5:] + " " + shortTitle(o.Title, 22)})
	}
	return out
}

// resolveCategory matches input against a label or key, ignoring case.
func resolveCategory(cats []routine.Category, input string) (string, bool) {
	value := strings.TrimSpace(strings.ToLower(input))
	if value == "" {
		return "", false
	}
	for _, c := range cats {
		if strings.ToLower(c.Config.Label) == value || strings.ToLower(c.Key) == value {
			return c.Key, true
		}
	}
	return "", false
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

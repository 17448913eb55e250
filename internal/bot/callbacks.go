package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-tracker/internal/routine"
)

// Callback data stays under Telegram's 64 byte limit: the longest payload is
// a toggle of a template, "t:" plus a 56 byte ledger key.
const (
	cbTogglePrefix  = "t:"
	cbDayPrefix     = "d:"
	cbDeletePrefix  = "x:"
	cbConfirmPrefix = "y:"
	cbCancel        = "n"
)

type callbackAction int

const (
	actionNone callbackAction = iota
	actionToggle
	actionDay
	actionDelete
	actionConfirm
	actionCancel
)

type callback struct {
	action callbackAction
	key    routine.CompletionKey
	date   string
	kind   routine.SourceKind
	id     string
}

var errBadCallback = errors.New("malformed callback data")

func toggleData(task routine.DayTask) string {
	return cbTogglePrefix + task.Key()
}

func dayData(date string) string {
	return cbDayPrefix + date
}

func deleteData(kind routine.SourceKind, id string) string {
	return cbDeletePrefix + string(kind) + ":" + id
}

func confirmData(kind routine.SourceKind, id string) string {
	return cbConfirmPrefix + string(kind) + ":" + id
}

func parseCallback(data string) (callback, error) {
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		key, err := routine.ParseCompletionKey(strings.TrimPrefix(data, cbTogglePrefix))
		if err != nil {
			return callback{}, err
		}
		return callback{action: actionToggle, key: key}, nil
	case strings.HasPrefix(data, cbDayPrefix):
		date := strings.TrimPrefix(data, cbDayPrefix)
		if _, err := routine.ParseDate(date); err != nil {
			return callback{}, err
		}
		return callback{action: actionDay, date: date}, nil
	case strings.HasPrefix(data, cbDeletePrefix), strings.HasPrefix(data, cbConfirmPrefix):
		action := actionDelete
		if strings.HasPrefix(data, cbConfirmPrefix) {
			action = actionConfirm
		}
		parts := strings.SplitN(data[2:], ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return callback{}, errBadCallback
		}
		kind, err := routine.ParseSourceKind(parts[0])
		if err != nil {
			return callback{}, err
		}
		return callback{action: action, kind: kind, id: parts[1]}, nil
	case data == cbCancel:
		return callback{action: actionCancel}, nil
	default:
		return callback{}, errBadCallback
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	if !b.config.ChatAllowed(chatID) {
		b.answerCallback(cb.ID, "")
		return nil
	}

	parsed, err := parseCallback(cb.Data)
	if err != nil {
		log.Printf("callback %q: %v", cb.Data, err)
		b.answerCallback(cb.ID, "")
		return nil
	}

	switch parsed.action {
	case actionToggle:
		log.Printf("[info] callback toggle user=%d key=%s", cb.From.ID, parsed.key)
		done, err := b.planner.Toggle(ctx, parsed.key.Date, parsed.key.Kind, parsed.key.SourceID)
		if err != nil {
			b.answerCallback(cb.ID, "")
			return b.sendText(chatID, userMessage(err))
		}
		notice := "Marked as open"
		if done {
			notice = "Done ✅"
		}
		b.answerCallback(cb.ID, notice)
		return b.refreshDay(ctx, cb.Message, parsed.key.Date)
	case actionDay:
		b.answerCallback(cb.ID, "")
		return b.refreshDay(ctx, cb.Message, parsed.date)
	case actionDelete:
		log.Printf("[info] callback delete request user=%d %s=%s", cb.From.ID, parsed.kind, parsed.id)
		b.answerCallback(cb.ID, "")
		return b.askDeleteConfirmation(ctx, chatID, cb.From.ID, parsed.kind, parsed.id)
	case actionConfirm:
		b.answerCallback(cb.ID, "")
		req, ok := b.takeConfirmation(cb.From.ID)
		if !ok || req.kind != parsed.kind || req.sourceID != parsed.id {
			return b.sendText(chatID, "That request expired. Open the list again.")
		}
		return b.deleteSource(ctx, chatID, parsed.kind, parsed.id)
	case actionCancel:
		b.takeConfirmation(cb.From.ID)
		b.answerCallback(cb.ID, "Cancelled")
		return nil
	}
	b.answerCallback(cb.ID, "")
	return nil
}

func (b *Bot) refreshDay(ctx context.Context, msg *tgbotapi.Message, date string) error {
	text, markup, err := b.renderDay(ctx, date)
	if err != nil {
		return b.sendText(msg.Chat.ID, userMessage(err))
	}
	return b.editWithMarkup(msg.Chat.ID, msg.MessageID, text, markup)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, userID int64, kind routine.SourceKind, id string) error {
	var title string
	switch kind {
	case routine.KindTemplate:
		tpl, err := b.planner.Template(ctx, id)
		if err != nil {
			return b.sendText(chatID, userMessage(err))
		}
		title = tpl.Title
	case routine.KindOneOff:
		all, err := b.planner.OneOffs(ctx)
		if err != nil {
			return err
		}
		for _, o := range all {
			if o.ID == id {
				title = o.Title
			}
		}
		if title == "" {
			return b.sendText(chatID, "That task no longer exists.")
		}
	}

	b.setConfirmation(userID, confirmationRequest{kind: kind, sourceID: id})
	text := fmt.Sprintf("Delete \"%s\"?", escape(normalizeTitle(title)))
	if kind == routine.KindTemplate {
		text += "\nPast completions stay in the history."
	}
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard(kind, id))
}

func (b *Bot) deleteSource(ctx context.Context, chatID int64, kind routine.SourceKind, id string) error {
	var err error
	if kind == routine.KindTemplate {
		err = b.planner.DeleteTemplate(ctx, id)
	} else {
		err = b.planner.DeleteOneOff(ctx, id)
	}
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if err := b.sendText(chatID, "🗑 Deleted."); err != nil {
		return err
	}
	if kind == routine.KindTemplate {
		return b.sendTemplates(ctx, chatID)
	}
	return b.sendOneOffs(ctx, chatID)
}

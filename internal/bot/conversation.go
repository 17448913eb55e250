package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-tracker/internal/routine"
	"routine-tracker/internal/service"
)

func (b *Bot) startTemplateConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From, msg.Chat.ID); err != nil {
		return err
	}
	log.Printf("[info] start template conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{flow: flowTemplate, stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "♻️ New recurring task.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) startOneOffConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From, msg.Chat.ID); err != nil {
		return err
	}
	log.Printf("[info] start oneoff conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{flow: flowOneOff, stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task for a single day.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) startCategoryConversation(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{flow: flowCategory, stage: stageCategoryLabel})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Name of the new category?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.title = text
		cats, err := b.categorySvc.Ordered(ctx)
		if err != nil {
			return err
		}
		state.categories = cats
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category.", categoryKeyboard(cats))
	case stageCategory:
		key, ok := resolveCategory(state.categories, text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the categories below.", categoryKeyboard(state.categories))
		}
		state.category = key
		if state.flow == flowTemplate {
			state.stage = stageDays
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which days? e.g. <code>mon,wed,fri</code>, <code>weekdays</code>, <code>daily</code>.", daysKeyboard())
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Which day? <code>2026-10-12</code>, today or tomorrow.", dateKeyboard())
	case stageDays:
		days, err := routine.ParseRepeatDays(text)
		if err != nil || len(days) == 0 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Could not read the days. Try <code>mon,wed,fri</code>.", daysKeyboard())
		}
		state.days = days
		state.stage = stageHour
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Start hour? (0–23)", hourKeyboard())
	case stageDate:
		date, err := parseDateInput(text, b.today())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Use <code>YYYY-MM-DD</code>, today or tomorrow.", dateKeyboard())
		}
		state.date = date
		state.stage = stageHour
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Start hour? (0–23)", hourKeyboard())
	case stageHour:
		hour, err := parseHourInput(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The hour must be a whole number from 0 to 23.", hourKeyboard())
		}
		state.hour = hour
		state.stage = stageDuration
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏳ How long? e.g. <code>30min</code>, <code>1h</code>, <code>1.5h</code>.", durationKeyboard())
	case stageDuration:
		duration, err := parseDurationInput(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Could not read the duration. Try <code>45min</code> or <code>2h</code>.", durationKeyboard())
		}
		err = b.finishTask(ctx, msg.Chat.ID, state, duration)
		b.clearConversation(msg.From.ID)
		return err
	case stageCategoryLabel:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The name cannot be empty.", cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		cat, err := b.categorySvc.Create(ctx, text, routine.CategoryConfig{})
		if err != nil {
			return b.sendText(msg.Chat.ID, userMessage(err))
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ Category <b>%s</b> added.", escape(cat.Config.Label)))
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /newtemplate or /add.")
	}
}

func (b *Bot) finishTask(ctx context.Context, chatID int64, state *conversationState, duration float64) error {
	hour := state.hour
	if state.flow == flowTemplate {
		tpl, err := b.planner.CreateTemplate(ctx, service.TemplateInput{
			Title:      state.title,
			Category:   state.category,
			RepeatDays: state.days,
			Hour:       &hour,
			Duration:   &duration,
		})
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Could not save: %s", userMessage(err)))
		}
		text := fmt.Sprintf("✅ <b>%s</b> repeats on %s, %s.",
			escape(normalizeTitle(tpl.Title)), routine.FormatRepeatDays(tpl.RepeatDays), routine.FormatTimeRange(hour, duration))
		return b.sendText(chatID, text)
	}

	o, err := b.planner.CreateOneOff(ctx, service.OneOffInput{
		Title:    state.title,
		Category: state.category,
		Date:     state.date,
		Hour:     &hour,
		Duration: &duration,
	})
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save: %s", userMessage(err)))
	}
	if err := b.sendText(chatID, fmt.Sprintf("✅ <b>%s</b> added for %s, %s.",
		escape(normalizeTitle(o.Title)), o.Date, routine.FormatTimeRange(hour, duration))); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, o.Date)
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-tracker/internal/routine"
	"routine-tracker/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.config.ChatAllowed(msg.Chat.ID) {
		log.Printf("[info] ignored message from chat %d", msg.Chat.ID)
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.sendDay(ctx, msg.Chat.ID, b.today())
	case "day":
		return b.handleDay(ctx, msg)
	case "templates":
		return b.sendTemplates(ctx, msg.Chat.ID)
	case "oneoffs":
		return b.sendOneOffs(ctx, msg.Chat.ID)
	case "newtemplate":
		return b.startTemplateConversation(ctx, msg)
	case "add":
		return b.startOneOffConversation(ctx, msg)
	case "promote":
		return b.handlePromote(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "streak":
		return b.handleStreak(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "newcategory":
		return b.startCategoryConversation(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "mute":
		return b.handleMute(ctx, msg, true)
	case "unmute":
		return b.handleMute(ctx, msg, false)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From, msg.Chat.ID); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your daily routine.</b>\n\n%s", escape(name), commandList)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "• /today — today's tasks, tap to tick off\n" +
	"• /day &lt;date&gt; — any day (YYYY-MM-DD, today, tomorrow, yesterday)\n" +
	"• /templates — recurring tasks\n" +
	"• /newtemplate — add a recurring task\n" +
	"• /add — add a task for a single day\n" +
	"• /oneoffs — upcoming single-day tasks\n" +
	"• /promote &lt;date&gt; &lt;days&gt; — turn a day's single tasks into recurring ones\n" +
	"• /stats — last 7 days\n" +
	"• /streak — days in a row with everything done\n" +
	"• /categories, /newcategory — categories\n" +
	"• /report — the daily summary right now\n" +
	"• /mute, /unmute — daily summary on or off\n" +
	"• /cancel — abort the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+commandList)
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendDay(ctx, msg.Chat.ID, b.today())
	}
	date, err := parseDateInput(args, b.today())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Use a date like <code>2026-10-12</code>, today, tomorrow or yesterday.")
	}
	return b.sendDay(ctx, msg.Chat.ID, date)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, date string) error {
	text, markup, err := b.renderDay(ctx, date)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load the day: %s", escape(err.Error())))
	}
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) renderDay(ctx context.Context, date string) (string, tgbotapi.InlineKeyboardMarkup, error) {
	tasks, err := b.planner.DayTasks(ctx, date)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	cats, err := b.categorySvc.List(ctx)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	return formatDay(date, b.today(), tasks, cats), dayKeyboard(date, tasks), nil
}

func (b *Bot) sendTemplates(ctx context.Context, chatID int64) error {
	templates, err := b.planner.Templates(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load templates: %s", escape(err.Error())))
	}
	if len(templates) == 0 {
		return b.sendText(chatID, "No recurring tasks yet. Add one with /newtemplate.")
	}
	cats, err := b.categorySvc.List(ctx)
	if err != nil {
		return err
	}
	text := formatTemplates(templates, cats, b.today())
	return b.sendWithReplyMarkup(chatID, text, deleteKeyboard(routine.KindTemplate, templateButtons(templates)))
}

func (b *Bot) sendOneOffs(ctx context.Context, chatID int64) error {
	all, err := b.planner.OneOffs(ctx)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	upcoming := upcomingOneOffs(all, b.today())
	if len(upcoming) == 0 {
		return b.sendText(chatID, "No upcoming single-day tasks. Add one with /add.")
	}
	cats, err := b.categorySvc.List(ctx)
	if err != nil {
		return err
	}
	text := formatOneOffs(upcoming, cats)
	return b.sendWithReplyMarkup(chatID, text, deleteKeyboard(routine.KindOneOff, oneOffButtons(upcoming)))
}

func (b *Bot) handlePromote(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) < 2 {
		return b.sendText(msg.Chat.ID, "Usage: /promote &lt;date&gt; &lt;days&gt;, e.g. <code>/promote today mon,wed,fri</code>")
	}
	date, err := parseDateInput(fields[0], b.today())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Use a date like <code>2026-10-12</code>, today, tomorrow or yesterday.")
	}
	days, err := routine.ParseRepeatDays(strings.Join(fields[1:], " "))
	if err != nil || len(days) == 0 {
		return b.sendText(msg.Chat.ID, "Could not read the days. Try <code>mon,wed,fri</code>, <code>weekdays</code> or <code>daily</code>.")
	}

	onDate, err := b.planner.OneOffsOn(ctx, date)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(onDate))
	for _, o := range onDate {
		ids = append(ids, o.ID)
	}
	if len(ids) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("No single-day tasks on %s.", date))
	}

	created, err := b.planner.PromoteToTemplates(ctx, date, ids, days)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not promote: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("♻️ %d task(s) now repeat on %s.", len(created), routine.FormatRepeatDays(days)))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	stats, err := b.planner.Stats(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not compute stats: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatStats(stats))
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message) error {
	streak, err := b.planner.Streak(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not compute streak: %s", escape(err.Error())))
	}
	if streak == 0 {
		return b.sendText(msg.Chat.ID, "🔥 No streak yet. Finish every task of a day to start one.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔥 <b>%d</b> day(s) in a row with everything done.", streak))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	cats, err := b.categorySvc.Ordered(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load categories: %s", escape(err.Error())))
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range cats {
		suffix := ""
		if !cat.IsDefault {
			suffix = fmt.Sprintf(" <code>%s</code>", escape(cat.Key))
		}
		builder.WriteString(fmt.Sprintf("• %s%s\n", escape(cat.Config.Label), suffix))
	}
	builder.WriteString("\nAdd your own with /newcategory.")
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.reminderSvc.DailySummary(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the summary: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMute(ctx context.Context, msg *tgbotapi.Message, muted bool) error {
	if _, err := b.ensureUser(ctx, msg.From, msg.Chat.ID); err != nil {
		return err
	}
	user, err := b.userRepo.FindByTelegramID(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	if user.Muted == muted {
		if muted {
			return b.sendText(msg.Chat.ID, "🔕 Daily summary is already off.")
		}
		return b.sendText(msg.Chat.ID, "🔔 Daily summary is already on.")
	}
	if err := b.userRepo.SetMuted(ctx, msg.From.ID, muted); err != nil {
		return err
	}
	if muted {
		return b.sendText(msg.Chat.ID, "🔕 Daily summary is off. /unmute to turn it back on.")
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔔 Daily summary is on, every day at %s.", escape(b.config.ReportTime)))
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.sendDay(ctx, msg.Chat.ID, b.today())
	case strings.ToLower(menuLabelAdd):
		return true, b.startOneOffConversation(ctx, msg)
	case strings.ToLower(menuLabelTemplates):
		return true, b.sendTemplates(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	default:
		return false, nil
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "That task no longer exists."
	case errors.Is(err, service.ErrCategoryExists):
		return "A category with that name already exists."
	case errors.Is(err, service.ErrInvalidInput):
		return escape(strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": "))
	default:
		return "Something went wrong: " + escape(err.Error())
	}
}

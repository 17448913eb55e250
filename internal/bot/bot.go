package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"routine-tracker/internal/config"
	"routine-tracker/internal/model"
	"routine-tracker/internal/repository"
	"routine-tracker/internal/routine"
	"routine-tracker/internal/service"
)

type conversationFlow int

const (
	flowTemplate conversationFlow = iota
	flowOneOff
	flowCategory
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageCategory
	stageDays
	stageDate
	stageHour
	stageDuration
	stageCategoryLabel
)

type conversationState struct {
	flow       conversationFlow
	stage      conversationStage
	title      string
	category   string
	days       []time.Weekday
	date       string
	hour       int
	categories []routine.Category
}

type confirmationRequest struct {
	kind     routine.SourceKind
	sourceID string
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	planner       *service.PlannerService
	categorySvc   *service.CategoryService
	reminderSvc   *service.ReminderService
	config        *config.Config
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, planner *service.PlannerService, categorySvc *service.CategoryService, reminderSvc *service.ReminderService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		planner:       planner,
		categorySvc:   categorySvc,
		reminderSvc:   reminderSvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

// SendDailyReports sends today's summary to every subscribed user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	return b.broadcast(ctx, false)
}

// SendPendingReminders nudges subscribers while today still has open tasks.
func (b *Bot) SendPendingReminders(ctx context.Context) error {
	return b.broadcast(ctx, true)
}

func (b *Bot) broadcast(ctx context.Context, onlyPending bool) error {
	now := time.Now()
	if onlyPending {
		tasks, err := b.planner.DayTasks(ctx, b.planner.Today(now))
		if err != nil {
			return err
		}
		if len(tasks) == 0 || routine.AllCompleted(tasks) {
			log.Printf("[info] nothing pending, reminder skipped")
			return nil
		}
	}

	users, err := b.userRepo.ListSubscribed(ctx)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, now)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !b.config.ChatAllowed(user.ChatID) {
			continue
		}
		if err := b.sendText(user.ChatID, text); err != nil {
			log.Printf("send summary to %d: %v", user.TelegramID, err)
		}
	}
	log.Printf("[info] summary sent to %d users", len(users))
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User, chatID int64) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, chatID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) today() string {
	return b.planner.Today(time.Now())
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) editWithMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

// takeConfirmation returns and clears the pending request.
func (b *Bot) takeConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	delete(b.confirmations, userID)
	return req, ok
}

func escape(s string) string {
	return html.EscapeString(s)
}

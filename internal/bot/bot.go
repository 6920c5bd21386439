package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/frenchbot/internal/excel"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/internal/study"
	"github.com/example/frenchbot/internal/verify"
	"github.com/example/frenchbot/pkg/models"
)

// handlerTimeout bounds the work done for one update.
const handlerTimeout = 2 * time.Minute

// UserStore is the user data the bot manages directly.
type UserStore interface {
	Ensure(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateNotification(ctx context.Context, userID int64, enabled bool, hour int) error
}

// ReminderChecker sends a reminder on demand.
type ReminderChecker interface {
	RunManualCheck(ctx context.Context, userID int64) (bool, error)
}

// Deps are the services behind the bot's commands.
type Deps struct {
	Users    UserStore
	Study    *study.Service
	Verify   *verify.Module
	Importer *excel.Importer
}

// Bot represents the Telegram bot application
type Bot struct {
	api       *tgbotapi.BotAPI
	config    BotConfig
	admins    map[int64]bool
	users     UserStore
	study     *study.Service
	verify    *verify.Module
	importer  *excel.Importer
	reminders ReminderChecker
	sessions  *sessionStore
	http      *http.Client
	log       *logger.Logger
}

// New creates a new bot instance and authorizes it with Telegram.
func New(config BotConfig, deps Deps, log *logger.Logger) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	if log == nil {
		log = logger.NewNop()
	}
	defaults := DefaultConfig()
	if config.UpdateTimeout <= 0 {
		config.UpdateTimeout = defaults.UpdateTimeout
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = defaults.SessionTTL
	}
	if config.MaxImportSize <= 0 {
		config.MaxImportSize = defaults.MaxImportSize
	}

	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.Info("authorized on account", "username", api.Self.UserName)

	admins := make(map[int64]bool, len(config.AdminIDs))
	for _, id := range config.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		api:      api,
		config:   config,
		admins:   admins,
		users:    deps.Users,
		study:    deps.Study,
		verify:   deps.Verify,
		importer: deps.Importer,
		sessions: newSessionStore(config.SessionTTL, nil),
		http:     &http.Client{Timeout: time.Minute},
		log:      log.With("component", "bot"),
	}, nil
}

// SetReminderChecker enables the /remind command.
func (b *Bot) SetReminderChecker(rc ReminderChecker) {
	b.reminders = rc
}

// Start handles updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	sweep := time.NewTicker(b.config.SessionTTL / 2)
	defer sweep.Stop()

	b.log.Info("bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case <-sweep.C:
			if n := b.sessions.sweep(); n > 0 {
				b.log.Debug("dropped idle sessions", "count", n)
			}
		case update, ok := <-updates:
			if !ok {
				return errors.New("update channel closed")
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(_ context.Context, userID int64, count int) error {
	// private chats share the user's id
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🎯 Study now", CallbackData: callbackData(actionMenu, menuStudy)}}})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	b.log.Debug("reminder sent", "user_id", userID, "due", count)
	return nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

func (b *Bot) handleUpdate(parent context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(parent, handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// ensureUser registers the sender on first contact and refreshes the profile.
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	return b.users.Ensure(ctx, &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.isAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    9,
	})
}

func (b *Bot) sendHTML(chatID int64, text string, keyboard [][]MenuButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(keyboard) > 0 {
		msg.ReplyMarkup = createKeyboard(keyboard)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) editHTML(chatID int64, messageID int, text string, keyboard [][]MenuButton) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if len(keyboard) > 0 {
		markup := createKeyboard(keyboard)
		edit.ReplyMarkup = &markup
	}
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("failed to edit message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Debug("failed to answer callback", "error", err)
	}
}

// reportError tells the user something went wrong and logs the cause.
func (b *Bot) reportError(chatID int64, what string, err error) {
	b.log.Error(what, "chat_id", chatID, "error", err)
	b.sendHTML(chatID, "⚠️ Something went wrong, please try again later.", nil)
}

// download fetches an uploaded document.
func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/frenchbot/internal/excel"
	"github.com/example/frenchbot/internal/study"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	if _, err := b.ensureUser(ctx, message.From); err != nil {
		b.reportError(chatID, "failed to register user", err)
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	var awaiting bool
	b.sessions.update(message.From.ID, func(us *userSession) {
		awaiting = us.awaitingImport
		if awaiting && message.Document != nil {
			us.awaitingImport = false
		}
	})
	if awaiting {
		if message.Document == nil {
			b.sendHTML(chatID, "Please send the word list as an .xlsx or .csv document.", nil)
			return
		}
		b.handleImportDocument(ctx, message)
		return
	}

	b.sendHTML(chatID, "I don't understand. Choose an option:", mainMenuButtons())
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	userID, chatID := message.From.ID, message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.sendHTML(chatID, "Bienvenue! 👋\n\n"+b.help(userID), mainMenuButtons())
	case "help", "menu":
		b.sendHTML(chatID, b.help(userID), mainMenuButtons())
	case "study":
		b.startStudy(ctx, userID, chatID)
	case "plan":
		b.showPlan(ctx, userID, chatID)
	case "stats":
		b.showStats(ctx, userID, chatID)
	case "verify":
		b.startVerification(ctx, userID, chatID)
	case "level":
		b.handleLevelCommand(ctx, userID, chatID, args)
	case "goal":
		b.handleNumberSetting(ctx, chatID, args, "/goal &lt;5-100&gt;", func(n int) (string, error) {
			u, err := b.study.SetDailyGoal(ctx, userID, n)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Daily goal set to %d cards", u.DailyGoal), nil
		})
	case "limit":
		b.handleNumberSetting(ctx, chatID, args, "/limit &lt;n|0|999&gt;", func(n int) (string, error) {
			u, err := b.study.SetSessionLimit(ctx, userID, n)
			if err != nil {
				return "", err
			}
			switch {
			case !u.SessionLimit.Valid:
				return "✅ Sessions follow your daily goal", nil
			case u.SessionLimit.Int64 == study.UnlimitedSessionSetting:
				return "✅ Sessions are unlimited", nil
			default:
				return fmt.Sprintf("✅ Sessions are limited to %d cards", u.SessionLimit.Int64), nil
			}
		})
	case "newwords":
		b.handleNumberSetting(ctx, chatID, args, "/newwords &lt;0-50&gt;", func(n int) (string, error) {
			u, err := b.study.SetDailyNewWords(ctx, userID, n)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ %d new words will be kept ready", u.DailyNewWords), nil
		})
	case "notify":
		b.handleNotifyCommand(ctx, userID, chatID, args)
	case "time":
		b.handleTimeCommand(ctx, userID, chatID, args)
	case "remind":
		b.handleRemindCommand(ctx, userID, chatID)
	case "import":
		b.handleImportCommand(userID, chatID)
	default:
		b.sendHTML(chatID, "Unknown command. Use /help to see what I can do.", mainMenuButtons())
	}
}

func (b *Bot) help(userID int64) string {
	if b.isAdmin(userID) {
		return helpText + adminHelpText
	}
	return helpText
}

func (b *Bot) showPlan(ctx context.Context, userID, chatID int64) {
	res, err := b.study.Plan(ctx, userID)
	if err != nil {
		b.reportError(chatID, "failed to resolve plan", err)
		return
	}
	b.sendHTML(chatID, planText(res), [][]MenuButton{{{Text: "🎯 Study", CallbackData: callbackData(actionMenu, menuStudy)}}})
}

func (b *Bot) showStats(ctx context.Context, userID, chatID int64) {
	stats, err := b.study.Statistics(ctx, userID)
	if err != nil {
		b.reportError(chatID, "failed to load statistics", err)
		return
	}
	b.sendHTML(chatID, statsText(stats), mainMenuButtons())
}

func (b *Bot) handleLevelCommand(ctx context.Context, userID, chatID int64, args string) {
	if args == "" {
		b.sendHTML(chatID, "Please specify a level: /level &lt;A1..C2&gt;", nil)
		return
	}
	u, err := b.study.SetLevel(ctx, userID, args)
	if errors.Is(err, study.ErrInvalidSetting) {
		b.sendHTML(chatID, "Levels go from A1 to C2, e.g. /level B1", nil)
		return
	}
	if err != nil {
		b.reportError(chatID, "failed to set level", err)
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("✅ Level set to %s. It applies from tomorrow's plan.", u.CurrentLevel), nil)
}

// handleNumberSetting parses one integer argument and reports the outcome of apply.
func (b *Bot) handleNumberSetting(_ context.Context, chatID int64, args, usage string, apply func(n int) (string, error)) {
	n, err := strconv.Atoi(args)
	if err != nil {
		b.sendHTML(chatID, "Usage: "+usage, nil)
		return
	}
	text, err := apply(n)
	if errors.Is(err, study.ErrInvalidSetting) {
		b.sendHTML(chatID, "Usage: "+usage, nil)
		return
	}
	if err != nil {
		b.reportError(chatID, "failed to update setting", err)
		return
	}
	b.sendHTML(chatID, text, nil)
}

func (b *Bot) handleNotifyCommand(ctx context.Context, userID, chatID int64, args string) {
	var enabled bool
	switch strings.ToLower(args) {
	case "on":
		enabled = true
	case "off":
	default:
		b.sendHTML(chatID, "Please specify on or off: /notify on|off", nil)
		return
	}
	user, err := b.users.GetByID(ctx, userID)
	if err != nil {
		b.reportError(chatID, "failed to load user", err)
		return
	}
	if err := b.users.UpdateNotification(ctx, userID, enabled, user.NotificationHour); err != nil {
		b.reportError(chatID, "failed to update notifications", err)
		return
	}
	if enabled {
		b.sendHTML(chatID, fmt.Sprintf("✅ Reminders enabled at %d:00", user.NotificationHour), nil)
		return
	}
	b.sendHTML(chatID, "✅ Reminders disabled", nil)
}

func (b *Bot) handleTimeCommand(ctx context.Context, userID, chatID int64, args string) {
	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		b.sendHTML(chatID, "Please specify an hour between 0 and 23: /time &lt;hour&gt;", nil)
		return
	}
	if err := b.users.UpdateNotification(ctx, userID, true, hour); err != nil {
		b.reportError(chatID, "failed to update notification hour", err)
		return
	}
	b.sendHTML(chatID, fmt.Sprintf("✅ Reminders set for %d:00", hour), nil)
}

func (b *Bot) handleRemindCommand(ctx context.Context, userID, chatID int64) {
	if b.reminders == nil {
		b.sendHTML(chatID, "Reminders are turned off on this server.", nil)
		return
	}
	sent, err := b.reminders.RunManualCheck(ctx, userID)
	if err != nil {
		b.reportError(chatID, "manual reminder check failed", err)
		return
	}
	if !sent {
		b.sendHTML(chatID, "Nothing is due right now. 🎉", nil)
	}
}

func (b *Bot) handleImportCommand(userID, chatID int64) {
	if !b.isAdmin(userID) {
		b.sendHTML(chatID, "This command is only available for administrators.", nil)
		return
	}
	if b.importer == nil {
		b.sendHTML(chatID, "Import is not configured.", nil)
		return
	}
	b.sessions.update(userID, func(us *userSession) { us.awaitingImport = true })
	b.sendHTML(chatID, "Send me an .xlsx or .csv file with the columns:\nfrench, english, level, category, subcategory, part of speech, gender, example, notes", nil)
}

func (b *Bot) handleImportDocument(ctx context.Context, message *tgbotapi.Message) {
	chatID, doc := message.Chat.ID, message.Document
	if doc.FileSize > b.config.MaxImportSize {
		b.sendHTML(chatID, "The file is too large.", nil)
		return
	}
	body, err := b.download(ctx, doc.FileID)
	if err != nil {
		b.reportError(chatID, "failed to download import", err)
		return
	}
	defer body.Close()

	res, err := b.importer.Import(ctx, io.LimitReader(body, int64(b.config.MaxImportSize)), doc.FileName)
	if errors.Is(err, excel.ErrUnsupported) {
		b.sendHTML(chatID, "Only .xlsx and .csv files are supported.", nil)
		return
	}
	if err != nil {
		b.reportError(chatID, "import failed", err)
		return
	}
	b.log.Info("words imported", "admin_id", message.From.ID, "file", doc.FileName, "created", res.Created)
	b.sendHTML(chatID, importResultText(res), nil)
}

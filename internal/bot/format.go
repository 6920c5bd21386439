package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/excel"
	"github.com/example/frenchbot/internal/study"
	"github.com/example/frenchbot/internal/verify"
	"github.com/example/frenchbot/pkg/models"
)

// Callback actions
const (
	actionShow   = "show"
	actionRate   = "rate"
	actionBurn   = "burn"
	actionHint   = "hint"
	actionVerify = "vfy"
	actionMenu   = "menu"
)

// Menu targets
const (
	menuStudy  = 1
	menuStats  = 2
	menuPlan   = 3
	menuVerify = 4
)

var errBadCallback = errors.New("malformed callback data")

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// callbackData encodes an action and its numeric arguments, e.g. "rate:12:4".
func callbackData(action string, args ...int64) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, action)
	for _, a := range args {
		parts = append(parts, strconv.FormatInt(a, 10))
	}
	return strings.Join(parts, ":")
}

func parseCallback(data string) (string, []int64, error) {
	parts := strings.Split(data, ":")
	if parts[0] == "" {
		return "", nil, errBadCallback
	}
	args := make([]int64, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q", errBadCallback, data)
		}
		args = append(args, n)
	}
	return parts[0], args, nil
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Study", CallbackData: callbackData(actionMenu, menuStudy)},
			{Text: "📊 Statistics", CallbackData: callbackData(actionMenu, menuStats)},
		},
		{
			{Text: "🗓 Today's plan", CallbackData: callbackData(actionMenu, menuPlan)},
			{Text: "🧪 Verify mastery", CallbackData: callbackData(actionMenu, menuVerify)},
		},
	}
}

func frontButtons(cardID int64) [][]MenuButton {
	return [][]MenuButton{
		{{Text: "👀 Show answer", CallbackData: callbackData(actionShow, cardID)}},
		{
			{Text: "💡 Hint", CallbackData: callbackData(actionHint, cardID)},
			{Text: "🔥 Burn", CallbackData: callbackData(actionBurn, cardID)},
		},
	}
}

var ratingLabels = []string{"1 Forgot", "2 Hard", "3 Okay", "4 Good", "5 Easy"}

func ratingButtons(cardID int64) [][]MenuButton {
	row := make([]MenuButton, 0, len(ratingLabels))
	for i, label := range ratingLabels {
		row = append(row, MenuButton{Text: label, CallbackData: callbackData(actionRate, cardID, int64(i+1))})
	}
	return [][]MenuButton{
		row[:3],
		row[3:],
		{{Text: "🔥 Burn", CallbackData: callbackData(actionBurn, cardID)}},
	}
}

func verifyButtons(index int, options []string) [][]MenuButton {
	rows := make([][]MenuButton, 0, len(options))
	for i, opt := range options {
		rows = append(rows, []MenuButton{{Text: opt, CallbackData: callbackData(actionVerify, int64(index), int64(i))}})
	}
	return rows
}

const helpText = `🇫🇷 <b>French vocabulary trainer</b>

/study - start today's session
/plan - show today's deck plan
/stats - your progress
/verify - quiz your mastered words
/level &lt;A1..C2&gt; - set your level
/goal &lt;5-100&gt; - cards per day
/limit &lt;n|0|999&gt; - session size (0 follows the goal, 999 is unlimited)
/newwords &lt;0-50&gt; - new words kept ready per day
/notify on|off - daily reminders
/time &lt;0-23&gt; - reminder hour
/remind - check for due cards now
/help - this message`

const adminHelpText = "\n/import - upload an .xlsx or .csv word list"

func escape(s string) string {
	return html.EscapeString(s)
}

func wordDetails(w models.Word) string {
	var tags []string
	for _, t := range []string{w.Gender, w.PartOfSpeech} {
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return ""
	}
	return " <i>(" + html.EscapeString(strings.Join(tags, ", ")) + ")</i>"
}

func cardFront(card models.StudyCard, pos, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d/%d</b> · %s", pos, total, html.EscapeString(card.Word.Level))
	if card.Word.Category != "" {
		fmt.Fprintf(&b, " · %s", html.EscapeString(card.Word.Category))
	}
	if card.TimesSeen == 0 {
		b.WriteString(" · 🆕")
	}
	fmt.Fprintf(&b, "\n\n🇫🇷 <b>%s</b>%s", html.EscapeString(card.Word.French), wordDetails(card.Word))
	return b.String()
}

func cardBack(card models.StudyCard, pos, total int) string {
	var b strings.Builder
	b.WriteString(cardFront(card, pos, total))
	fmt.Fprintf(&b, "\n🇬🇧 %s", html.EscapeString(card.Word.English))
	if card.Word.ExampleSentence != "" {
		fmt.Fprintf(&b, "\n\n<i>%s</i>", html.EscapeString(card.Word.ExampleSentence))
	}
	if card.Word.Notes != "" {
		fmt.Fprintf(&b, "\n📝 %s", html.EscapeString(card.Word.Notes))
	}
	b.WriteString("\n\nHow well did you know it?")
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func nextReviewText(days int) string {
	switch days {
	case 0:
		return "later today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func outcomeText(out *study.Outcome) string {
	word := html.EscapeString(out.Card.Word.French)
	switch {
	case out.Burned:
		return fmt.Sprintf("🔥 <b>%s</b> is burned. It won't come back.", word)
	case out.NewlyMastered:
		return fmt.Sprintf("🏆 <b>%s</b> mastered! Next review %s.", word, nextReviewText(out.Card.IntervalDays))
	case out.IsCorrect:
		return fmt.Sprintf("✅ <b>%s</b> · next review %s.", word, nextReviewText(out.Card.IntervalDays))
	default:
		return fmt.Sprintf("❌ <b>%s</b> = %s · back %s.", word, html.EscapeString(out.Card.Word.English), nextReviewText(out.Card.IntervalDays))
	}
}

func sessionIntro(s *study.Session) string {
	var b strings.Builder
	b.WriteString(html.EscapeString(s.Summary))
	fmt.Fprintf(&b, "\n%d %s (%d review, %d new)", len(s.Cards), plural(len(s.Cards), "card", "cards"), s.ReviewCount, s.NewCount)
	if s.Assigned > 0 {
		fmt.Fprintf(&b, "\n➕ %d new %s added to your deck", s.Assigned, plural(s.Assigned, "word", "words"))
	}
	if s.Plan.Rationale != "" && !s.Fallback {
		fmt.Fprintf(&b, "\n\n<i>%s</i>", html.EscapeString(s.Plan.Rationale))
	}
	return b.String()
}

func sessionSummary(reviewed, correct int, streak *study.Streak) string {
	var b strings.Builder
	b.WriteString("🎉 <b>Session complete!</b>\n\n")
	fmt.Fprintf(&b, "Reviewed: %d\nCorrect: %d", reviewed, correct)
	if reviewed > 0 {
		fmt.Fprintf(&b, " (%d%%)", correct*100/reviewed)
	}
	if streak != nil && streak.Current > 0 {
		fmt.Fprintf(&b, "\n🔥 Streak: %d %s (best %d)", streak.Current, plural(streak.Current, "day", "days"), streak.Longest)
	}
	return b.String()
}

func planText(res deckplan.Resolution) string {
	p := res.Plan
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 <b>Plan for %s</b>\n\n", res.Day)
	fmt.Fprintf(&b, "Level: %s", p.LevelBand.Primary)
	if p.LevelBand.Support != "" {
		fmt.Fprintf(&b, " + %s support (up to %d%%)", p.LevelBand.Support, p.LevelBand.SupportCapPct)
	}
	fmt.Fprintf(&b, "\nMix: %d%% review / %d%% new", p.Mix.ReviewPct, p.Mix.NewPct)
	if len(p.FocusTags) > 0 {
		fmt.Fprintf(&b, "\nFocus: %s", html.EscapeString(strings.Join(p.FocusTags, ", ")))
	}
	if len(p.AvoidTags) > 0 {
		fmt.Fprintf(&b, "\nLater: %s", html.EscapeString(strings.Join(p.AvoidTags, ", ")))
	}
	if p.DifficultyBias != "" {
		fmt.Fprintf(&b, "\nDifficulty: %s", p.DifficultyBias)
	}
	fmt.Fprintf(&b, "\n\n<i>%s</i>", html.EscapeString(p.Rationale))
	if res.Fallback {
		b.WriteString("\n(standard plan)")
	}
	return b.String()
}

func statsText(s *study.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Your progress</b>\n\n")
	fmt.Fprintf(&b, "Level: %s · goal %d/day\n", s.Level, s.DailyGoal)
	fmt.Fprintf(&b, "Cards: %d (🆕 %d · 📖 %d · 🔁 %d · 🏆 %d · 🔥 %d)\n",
		s.TotalCards, s.NewCards, s.LearningCards, s.ReviewCards, s.MasteredCards, s.BurnedCards)
	fmt.Fprintf(&b, "Due now: %d\n", s.DueNow)
	fmt.Fprintf(&b, "Accuracy: %d%%\n", s.Accuracy)
	fmt.Fprintf(&b, "Last 7 days: %d reviews", s.WeekReviews)
	if s.WeekReviews > 0 {
		fmt.Fprintf(&b, ", %d%% correct", s.WeekAccuracy)
	}
	fmt.Fprintf(&b, "\nToday: %d reviewed in %d min\n", s.Today.CardsReviewed, s.Today.StudyMinutes)
	fmt.Fprintf(&b, "🔥 Streak: %d (best %d)", s.Streak.Current, s.Streak.Longest)
	return b.String()
}

func reminderText(count int) string {
	return fmt.Sprintf("⏰ You have %d %s due for review. Send /study to start.", count, plural(count, "card", "cards"))
}

func verifyQuestionText(q verify.Question, pos, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧪 <b>%d/%d</b> What does <b>%s</b> mean?", pos, total, html.EscapeString(q.Card.Word.French))
	if q.ContextSentence != "" {
		fmt.Fprintf(&b, "\n\n<i>%s</i>", html.EscapeString(q.ContextSentence))
	}
	return b.String()
}

func verifySummary(confirmed, demoted int) string {
	text := fmt.Sprintf("🧪 <b>Verification complete</b>\n\n✅ Confirmed: %d\n↩️ Back to learning: %d", confirmed, demoted)
	if demoted == 0 {
		text += "\n\nExcellent, your mastered words are solid."
	}
	return text
}

// maxImportErrors is how many row errors are listed after an import.
const maxImportErrors = 10

func importResultText(res *excel.ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📥 <b>Import finished</b>\n\nProcessed: %d\nCreated: %d\nUpdated: %d\nSkipped: %d",
		res.TotalProcessed, res.Created, res.Updated, res.Skipped)
	if len(res.Errors) > 0 {
		b.WriteString("\n\nErrors:")
		for i, e := range res.Errors {
			if i == maxImportErrors {
				fmt.Fprintf(&b, "\n... and %d more", len(res.Errors)-maxImportErrors)
				break
			}
			fmt.Fprintf(&b, "\n• %s", html.EscapeString(e))
		}
	}
	return b.String()
}

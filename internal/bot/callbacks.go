package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/frenchbot/internal/spaced_repetition"
	"github.com/example/frenchbot/internal/study"
	"github.com/example/frenchbot/internal/verify"
)

const staleCallback = "This card is no longer active"

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	action, args, err := parseCallback(callback.Data)
	if err != nil {
		b.log.Warn("ignoring callback", "data", callback.Data, "error", err)
		b.answerCallback(callback.ID, "")
		return
	}

	switch {
	case action == actionMenu && len(args) == 1:
		b.answerCallback(callback.ID, "")
		switch args[0] {
		case menuStudy:
			b.startStudy(ctx, userID, chatID)
		case menuStats:
			b.showStats(ctx, userID, chatID)
		case menuPlan:
			b.showPlan(ctx, userID, chatID)
		case menuVerify:
			b.startVerification(ctx, userID, chatID)
		}
	case action == actionShow && len(args) == 1:
		b.revealCard(callback, args[0])
	case action == actionRate && len(args) == 2:
		b.rateCard(ctx, callback, args[0], int(args[1]))
	case action == actionBurn && len(args) == 1:
		b.burnCard(ctx, callback, args[0])
	case action == actionHint && len(args) == 1:
		b.answerCallback(callback.ID, "")
		hint, err := b.study.Hint(ctx, userID, args[0])
		if err != nil {
			b.reportError(chatID, "failed to get hint", err)
			return
		}
		b.sendHTML(chatID, "💡 "+escape(hint), nil)
	case action == actionVerify && len(args) == 2:
		b.answerVerification(ctx, callback, int(args[0]), int(args[1]))
	default:
		b.log.Warn("unknown callback", "data", callback.Data, "message_id", messageID)
		b.answerCallback(callback.ID, "")
	}
}

func (b *Bot) startStudy(ctx context.Context, userID, chatID int64) {
	session, err := b.study.BuildSession(ctx, userID)
	if err != nil {
		b.reportError(chatID, "failed to build session", err)
		return
	}
	if session.Empty() {
		b.sendHTML(chatID, "🎉 Nothing to study right now. Come back later or import more words.", mainMenuButtons())
		return
	}

	b.sessions.update(userID, func(us *userSession) {
		us.study = &studyState{cards: session.Cards, started: time.Now()}
	})
	b.sendHTML(chatID, sessionIntro(session), nil)
	b.showCurrentCard(userID, chatID)
}

func (b *Bot) showCurrentCard(userID, chatID int64) {
	var (
		text   string
		cardID int64
		ok     bool
	)
	b.sessions.update(userID, func(us *userSession) {
		card, found := us.study.current()
		if !found {
			return
		}
		ok, cardID = true, card.ID
		text = cardFront(card, us.study.pos+1, len(us.study.cards))
	})
	if ok {
		b.sendHTML(chatID, text, frontButtons(cardID))
	}
}

func (b *Bot) revealCard(callback *tgbotapi.CallbackQuery, cardID int64) {
	var (
		text string
		ok   bool
	)
	b.sessions.update(callback.From.ID, func(us *userSession) {
		if !us.study.isCurrent(cardID) {
			return
		}
		card, _ := us.study.current()
		ok = true
		text = cardBack(card, us.study.pos+1, len(us.study.cards))
	})
	if !ok {
		b.answerCallback(callback.ID, staleCallback)
		return
	}
	b.answerCallback(callback.ID, "")
	b.editHTML(callback.Message.Chat.ID, callback.Message.MessageID, text, ratingButtons(cardID))
}

// claimCard marks the current card busy so a double tap is not recorded twice.
func (b *Bot) claimCard(userID, cardID int64) bool {
	var ok bool
	b.sessions.update(userID, func(us *userSession) {
		if us.study.isCurrent(cardID) {
			us.study.busy = true
			ok = true
		}
	})
	return ok
}

func (b *Bot) releaseCard(userID int64) {
	b.sessions.update(userID, func(us *userSession) {
		if us.study != nil {
			us.study.busy = false
		}
	})
}

func (b *Bot) rateCard(ctx context.Context, callback *tgbotapi.CallbackQuery, cardID int64, quality int) {
	userID, chatID := callback.From.ID, callback.Message.Chat.ID
	if !b.claimCard(userID, cardID) {
		b.answerCallback(callback.ID, staleCallback)
		return
	}

	out, err := b.study.SubmitAnswer(ctx, userID, cardID, quality)
	if err != nil {
		b.releaseCard(userID)
		switch {
		case errors.Is(err, spaced_repetition.ErrInvalidQuality):
			b.answerCallback(callback.ID, "Invalid rating")
		case errors.Is(err, study.ErrCardNotFound), errors.Is(err, study.ErrCardBurned):
			b.answerCallback(callback.ID, staleCallback)
			b.skipCard(ctx, userID, chatID)
		default:
			b.answerCallback(callback.ID, "")
			b.reportError(chatID, "failed to record answer", err)
		}
		return
	}

	b.answerCallback(callback.ID, "")
	b.editHTML(chatID, callback.Message.MessageID, outcomeText(out), nil)
	b.sessions.update(userID, func(us *userSession) {
		if us.study == nil {
			return
		}
		us.study.record(out.IsCorrect)
	})
	b.nextOrFinish(ctx, userID, chatID)
}

func (b *Bot) burnCard(ctx context.Context, callback *tgbotapi.CallbackQuery, cardID int64) {
	userID, chatID := callback.From.ID, callback.Message.Chat.ID
	if !b.claimCard(userID, cardID) {
		b.answerCallback(callback.ID, staleCallback)
		return
	}
	card, err := b.study.BurnCard(ctx, userID, cardID)
	if err != nil {
		b.releaseCard(userID)
		b.answerCallback(callback.ID, "")
		b.reportError(chatID, "failed to burn card", err)
		return
	}
	b.answerCallback(callback.ID, "🔥 Burned")
	b.editHTML(chatID, callback.Message.MessageID, "🔥 <b>"+escape(card.Word.French)+"</b> is burned. It won't come back.", nil)
	b.sessions.update(userID, func(us *userSession) {
		if us.study != nil {
			us.study.recordBurn()
		}
	})
	b.nextOrFinish(ctx, userID, chatID)
}

// skipCard moves past the current card without counting it as reviewed.
func (b *Bot) skipCard(ctx context.Context, userID, chatID int64) {
	b.sessions.update(userID, func(us *userSession) {
		if us.study != nil {
			us.study.advance()
		}
	})
	b.nextOrFinish(ctx, userID, chatID)
}

func (b *Bot) nextOrFinish(ctx context.Context, userID, chatID int64) {
	var (
		finished          bool
		reviewed, correct int
		started           time.Time
	)
	b.sessions.update(userID, func(us *userSession) {
		if us.study == nil || !us.study.done() {
			return
		}
		finished = true
		reviewed, correct, started = us.study.reviewed, us.study.correct, us.study.started
		us.study = nil
	})
	if !finished {
		b.showCurrentCard(userID, chatID)
		return
	}

	streak, err := b.study.FinishSession(ctx, userID, reviewed, correct, time.Since(started))
	if err != nil {
		b.log.Error("failed to finish session", "user_id", userID, "error", err)
	}
	b.sendHTML(chatID, sessionSummary(reviewed, correct, streak), mainMenuButtons())
}

func (b *Bot) startVerification(ctx context.Context, userID, chatID int64) {
	questions, err := b.verify.CreateTest(ctx, userID)
	if errors.Is(err, verify.ErrNotEnoughCards) {
		b.sendHTML(chatID, "🧪 You need at least 3 words in review or mastered to run a verification.", mainMenuButtons())
		return
	}
	if err != nil {
		b.reportError(chatID, "failed to create verification", err)
		return
	}
	b.sessions.update(userID, func(us *userSession) {
		us.verify = &verifyState{questions: questions}
	})
	b.showVerificationQuestion(userID, chatID)
}

func (b *Bot) showVerificationQuestion(userID, chatID int64) {
	var (
		text    string
		buttons [][]MenuButton
	)
	b.sessions.update(userID, func(us *userSession) {
		q, ok := us.verify.current()
		if !ok {
			return
		}
		text = verifyQuestionText(q, us.verify.pos+1, len(us.verify.questions))
		buttons = verifyButtons(us.verify.pos, q.Options)
	})
	if text != "" {
		b.sendHTML(chatID, text, buttons)
	}
}

func (b *Bot) answerVerification(ctx context.Context, callback *tgbotapi.CallbackQuery, index, choice int) {
	userID, chatID := callback.From.ID, callback.Message.Chat.ID

	var (
		q  verify.Question
		ok bool
	)
	b.sessions.update(userID, func(us *userSession) {
		v := us.verify
		if v == nil || v.busy || v.pos != index {
			return
		}
		q, ok = v.current()
		v.busy = ok
	})
	if !ok {
		b.answerCallback(callback.ID, "This question is no longer active")
		return
	}

	correct, err := b.verify.Answer(ctx, userID, q, choice)
	if err != nil {
		b.sessions.update(userID, func(us *userSession) {
			if us.verify != nil {
				us.verify.busy = false
			}
		})
		b.answerCallback(callback.ID, "")
		b.reportError(chatID, "failed to grade verification", err)
		return
	}

	b.answerCallback(callback.ID, "")
	text := "✅ <b>" + escape(q.Card.Word.French) + "</b> = " + escape(q.Card.Word.English)
	if !correct {
		text = "↩️ <b>" + escape(q.Card.Word.French) + "</b> = " + escape(q.Card.Word.English) + "\nBack to learning."
	}
	b.editHTML(chatID, callback.Message.MessageID, text, nil)

	var (
		finished           bool
		confirmed, demoted int
	)
	b.sessions.update(userID, func(us *userSession) {
		v := us.verify
		if v == nil {
			return
		}
		if correct {
			v.confirmed++
		} else {
			v.demoted++
		}
		v.pos++
		v.busy = false
		if v.done() {
			finished = true
			confirmed, demoted = v.confirmed, v.demoted
			us.verify = nil
		}
	})
	if finished {
		b.sendHTML(chatID, verifySummary(confirmed, demoted), mainMenuButtons())
		return
	}
	b.showVerificationQuestion(userID, chatID)
}

// Package verify quizzes learners on cards they claim to know and demotes the ones they miss.
package verify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/pkg/models"
)

const (
	// MaxQuestions is the size of one verification round
	MaxQuestions = 8
	// MinQuestions is the smallest round worth running
	MinQuestions = 3
	// Distractors is the number of wrong options per question
	Distractors = 3

	blank = "_______"
)

// ErrNotEnoughCards is returned when the user has too few reviewed cards to verify.
var ErrNotEnoughCards = errors.New("verify: not enough cards to verify")

type CardSource interface {
	VerificationCandidates(ctx context.Context, userID int64, limit int) ([]models.StudyCard, error)
}

type DistractorSource interface {
	Distractors(ctx context.Context, wordID int64, level string, count int) ([]string, error)
}

// Demoter sends a card back to learning.
type Demoter interface {
	DemoteCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error)
}

// Question is one multiple-choice item: pick the English meaning of a French word.
type Question struct {
	Card         models.StudyCard
	Options      []string
	CorrectIndex int
	// Example sentence with the word blanked out, empty when there is none
	ContextSentence string
}

// Result totals a graded round.
type Result struct {
	Total     int
	Confirmed int
	Demoted   []models.StudyCard
}

// Module builds and grades verification rounds.
type Module struct {
	cards   CardSource
	words   DistractorSource
	demoter Demoter
	log     *logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewModule creates a new verification module. rnd may be nil.
func NewModule(cards CardSource, words DistractorSource, demoter Demoter, rnd *rand.Rand, log *logger.Logger) *Module {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Module{
		cards:   cards,
		words:   words,
		demoter: demoter,
		rnd:     rnd,
		log:     log.With("component", "verify"),
	}
}

// CreateTest picks the least recently reviewed mastered and review cards and builds questions for them.
func (m *Module) CreateTest(ctx context.Context, userID int64) ([]Question, error) {
	candidates, err := m.cards.VerificationCandidates(ctx, userID, MaxQuestions)
	if err != nil {
		return nil, err
	}
	if len(candidates) < MinQuestions {
		return nil, ErrNotEnoughCards
	}

	questions := make([]Question, 0, len(candidates))
	for _, card := range candidates {
		wrong, err := m.words.Distractors(ctx, card.Word.ID, card.Word.Level, Distractors)
		if err != nil {
			return nil, fmt.Errorf("failed to get distractors: %w", err)
		}
		if len(wrong) == 0 {
			m.log.Debug("skipping card without distractors", "card_id", card.ID)
			continue
		}
		questions = append(questions, m.newQuestion(card, wrong))
	}
	if len(questions) < MinQuestions {
		return nil, ErrNotEnoughCards
	}
	return questions, nil
}

func (m *Module) newQuestion(card models.StudyCard, wrong []string) Question {
	options := append(append(make([]string, 0, len(wrong)+1), wrong...), card.Word.English)
	correct := len(options) - 1

	m.mu.Lock()
	m.rnd.Shuffle(len(options), func(i, j int) {
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
		options[i], options[j] = options[j], options[i]
	})
	m.mu.Unlock()

	return Question{
		Card:            card,
		Options:         options,
		CorrectIndex:    correct,
		ContextSentence: blankOut(card.Word.ExampleSentence, card.Word.French),
	}
}

// Answer grades one choice. A wrong choice demotes the card.
func (m *Module) Answer(ctx context.Context, userID int64, q Question, choice int) (bool, error) {
	if choice == q.CorrectIndex {
		return true, nil
	}
	if _, err := m.demoter.DemoteCard(ctx, userID, q.Card.ID); err != nil {
		return false, fmt.Errorf("failed to demote card %d: %w", q.Card.ID, err)
	}
	m.log.Info("card demoted after verification", "user_id", userID, "card_id", q.Card.ID, "word", q.Card.Word.French)
	return false, nil
}

// Grade scores a whole round. answers[i] is the chosen option of questions[i]; missing answers count as wrong.
func (m *Module) Grade(ctx context.Context, userID int64, questions []Question, answers []int) (*Result, error) {
	res := &Result{Total: len(questions)}
	for i, q := range questions {
		choice := -1
		if i < len(answers) {
			choice = answers[i]
		}
		ok, err := m.Answer(ctx, userID, q, choice)
		if err != nil {
			return nil, err
		}
		if ok {
			res.Confirmed++
		} else {
			res.Demoted = append(res.Demoted, q.Card)
		}
	}
	return res, nil
}

// blankOut hides the first case-insensitive occurrence of word in sentence.
// Articles are ignored so "le chat" still blanks "chat" in "Le chat dort."
func blankOut(sentence, word string) string {
	if sentence == "" || word == "" {
		return ""
	}
	for _, candidate := range []string{word, stripArticle(word)} {
		if candidate == "" {
			continue
		}
		if start, end, ok := indexFold(sentence, candidate); ok {
			return sentence[:start] + blank + sentence[end:]
		}
	}
	return ""
}

// indexFold returns the byte span of the first case-insensitive match of sub in s.
// Spans are measured in s itself, so case mappings that change byte length are safe.
func indexFold(s, sub string) (start, end int, ok bool) {
	n := utf8.RuneCountInString(sub)
	for i := range s {
		j := i
		for k := 0; k < n && j < len(s); k++ {
			_, size := utf8.DecodeRuneInString(s[j:])
			j += size
		}
		if strings.EqualFold(s[i:j], sub) {
			return i, j, true
		}
	}
	return 0, 0, false
}

func stripArticle(word string) string {
	for _, article := range []string{"le ", "la ", "les ", "l'", "un ", "une ", "des "} {
		if len(word) >= len(article) && strings.EqualFold(word[:len(article)], article) {
			return strings.TrimSpace(word[len(article):])
		}
	}
	return ""
}

package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/frenchbot/pkg/models"
)

// ErrInvalidQuality is returned for ratings outside 1..5.
var ErrInvalidQuality = errors.New("spaced_repetition: quality must be between 1 and 5")

// DefaultEaseFactor is the ease of a freshly assigned card.
const DefaultEaseFactor = 2.5

// QualityResponse is the learner's self-rating of a recall.
type QualityResponse int

const (
	// Forgot completely
	QualityForgot QualityResponse = 1
	// Wrong, but recognised after seeing the answer
	QualityHard QualityResponse = 2
	// Correct with difficulty
	QualityOkay QualityResponse = 3
	// Correct after some hesitation
	QualityGood QualityResponse = 4
	// Instant recall
	QualityEasy QualityResponse = 5
)

// ParseQuality converts a raw rating, rejecting anything outside 1..5.
func ParseQuality(q int) (QualityResponse, error) {
	if q < int(QualityForgot) || q > int(QualityEasy) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidQuality, q)
	}
	return QualityResponse(q), nil
}

// State is the part of a card the scheduler reads and writes.
type State struct {
	EaseFactor   float64
	IntervalDays int
	Repetition   int
	NextReview   time.Time
	LastReview   *time.Time
}

// Result is the updated state plus what the answer meant.
type Result struct {
	State
	IsCorrect bool
	Status    models.CardStatus
}

// SM2 implements the SuperMemo-2 variant used for vocabulary cards
type SM2 struct {
	// Ratings at or above this count as a successful recall
	PassThreshold int
	// Ease never drops below this
	MinEaseFactor float64
	// Longest interval in days
	MaxInterval int
	// Intervals after the first and second successful recall
	FirstInterval  int
	SecondInterval int
	// A card is mastered after this many consecutive recalls with at least MasteryEaseFactor
	MasteryRepetitions int
	MasteryEaseFactor  float64
	// A card with at least this interval is in review
	ReviewInterval int
}

// NewSM2 returns the scheduler with its default tunables
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:      3,
		MinEaseFactor:      1.3,
		MaxInterval:        180,
		FirstInterval:      1,
		SecondInterval:     3,
		MasteryRepetitions: 5,
		MasteryEaseFactor:  2.0,
		ReviewInterval:     7,
	}
}

// Schedule applies one rating to state at time now. It has no side effects.
func (sm *SM2) Schedule(state State, quality QualityResponse, now time.Time) (Result, error) {
	if _, err := ParseQuality(int(quality)); err != nil {
		return Result{}, err
	}

	q := float64(quality)
	isCorrect := int(quality) >= sm.PassThreshold

	interval := state.IntervalDays
	repetition := state.Repetition
	if isCorrect {
		switch repetition {
		case 0:
			interval = sm.FirstInterval
		case 1:
			interval = sm.SecondInterval
		default:
			interval = int(math.Round(float64(interval) * state.EaseFactor))
		}
		repetition++
	} else {
		repetition = 0
		interval = 1
	}

	ease := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ease < sm.MinEaseFactor {
		ease = sm.MinEaseFactor
	}

	if interval > sm.MaxInterval {
		interval = sm.MaxInterval
	}

	reviewed := now
	return Result{
		State: State{
			EaseFactor:   ease,
			IntervalDays: interval,
			Repetition:   repetition,
			NextReview:   DueAfter(now, interval),
			LastReview:   &reviewed,
		},
		IsCorrect: isCorrect,
		Status:    sm.StatusFor(repetition, ease, interval),
	}, nil
}

// DueAfter returns now plus a whole number of 24-hour days, independent of DST.
func DueAfter(now time.Time, days int) time.Time {
	return now.Add(time.Duration(days) * 24 * time.Hour)
}

// StatusFor derives the lifecycle status from the scheduling numbers.
func (sm *SM2) StatusFor(repetition int, easeFactor float64, intervalDays int) models.CardStatus {
	switch {
	case repetition == 0:
		return models.StatusLearning
	case repetition >= sm.MasteryRepetitions && easeFactor >= sm.MasteryEaseFactor:
		return models.StatusMastered
	case intervalDays >= sm.ReviewInterval:
		return models.StatusReview
	default:
		return models.StatusLearning
	}
}

// NewState is the scheduling state of a card assigned at now; it is due immediately.
func NewState(now time.Time) State {
	return State{
		EaseFactor: DefaultEaseFactor,
		NextReview: now,
	}
}

// Demote sends a card back to the start of learning, due at now. Ease is kept.
func Demote(state State, now time.Time) State {
	state.IntervalDays = 1
	state.Repetition = 0
	state.NextReview = now
	return state
}

// IsDue reports whether the card should be reviewed at now.
func IsDue(state State, now time.Time) bool {
	return !state.NextReview.After(now)
}

// StateOf extracts the scheduling state of a stored card.
func StateOf(card models.Card) State {
	return State{
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		Repetition:   card.Repetition,
		NextReview:   card.NextReview,
		LastReview:   card.LastReview,
	}
}

// Apply copies a scheduling state back onto a card.
func Apply(card *models.Card, state State) {
	card.EaseFactor = state.EaseFactor
	card.IntervalDays = state.IntervalDays
	card.Repetition = state.Repetition
	card.NextReview = state.NextReview
	card.LastReview = state.LastReview
}

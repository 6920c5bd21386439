package models

import "time"

// CardStatus is the lifecycle stage of a user's card.
type CardStatus string

const (
	StatusNew      CardStatus = "new"
	StatusLearning CardStatus = "learning"
	StatusReview   CardStatus = "review"
	StatusMastered CardStatus = "mastered"
	StatusBurned   CardStatus = "burned"
)

// Valid reports whether s is one of the known statuses.
func (s CardStatus) Valid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusReview, StatusMastered, StatusBurned:
		return true
	}
	return false
}

// Card holds the SM-2 scheduling state of one word for one user.
type Card struct {
	ID           int64      `json:"id" db:"id"`
	UserID       int64      `json:"user_id" db:"user_id"`
	WordID       int64      `json:"word_id" db:"word_id"`
	EaseFactor   float64    `json:"ease_factor" db:"ease_factor"`
	IntervalDays int        `json:"interval_days" db:"interval_days"`
	Repetition   int        `json:"repetition" db:"repetition"`
	NextReview   time.Time  `json:"next_review" db:"next_review"`
	LastReview   *time.Time `json:"last_review" db:"last_review"`
	TimesSeen    int        `json:"times_seen" db:"times_seen"`
	TimesCorrect int        `json:"times_correct" db:"times_correct"`
	TimesWrong   int        `json:"times_wrong" db:"times_wrong"`
	Status       CardStatus `json:"status" db:"status"`
	Mnemonic     string     `json:"mnemonic" db:"mnemonic"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// StudyCard is a card joined with its word.
type StudyCard struct {
	Card
	Word Word `json:"word" db:"word"`
}

// LevelPerformance is one card's counters tagged with its word level.
type LevelPerformance struct {
	Level        string `db:"level"`
	TimesSeen    int    `db:"times_seen"`
	TimesCorrect int    `db:"times_correct"`
}

package spaced_repetition

import "github.com/example/frenchbot/pkg/models"

// BurnedInterval is stored on manually burned cards so they never come due in practice.
const BurnedInterval = 999

// BurnPolicy retires over-learned cards from rotation after a correct answer.
type BurnPolicy struct {
	// Ease must be strictly above this
	MinEaseFactor float64
	// Interval must be strictly above this many days
	MinInterval int
	// Correct answers recorded before the current one
	MinTimesCorrect int
}

// DefaultBurnPolicy returns the stock thresholds.
func DefaultBurnPolicy() BurnPolicy {
	return BurnPolicy{
		MinEaseFactor:   3.0,
		MinInterval:     60,
		MinTimesCorrect: 4,
	}
}

// ShouldBurn reports whether a scheduled answer retires the card.
// timesCorrect is the card's counter before this answer was recorded.
func (p BurnPolicy) ShouldBurn(res Result, timesCorrect int) bool {
	return res.IsCorrect &&
		res.EaseFactor > p.MinEaseFactor &&
		res.IntervalDays > p.MinInterval &&
		timesCorrect >= p.MinTimesCorrect
}

// FinalStatus is the Reviewer's status with the burn override applied.
func (p BurnPolicy) FinalStatus(res Result, timesCorrect int) models.CardStatus {
	if p.ShouldBurn(res, timesCorrect) {
		return models.StatusBurned
	}
	return res.Status
}

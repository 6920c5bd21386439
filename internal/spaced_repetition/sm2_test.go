package spaced_repetition

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/frenchbot/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustSchedule(t *testing.T, sm *SM2, st State, q QualityResponse) Result {
	t.Helper()
	res, err := sm.Schedule(st, q, t0)
	require.NoError(t, err)
	return res
}

func TestScheduleCorrectThirdRecall(t *testing.T) {
	sm := NewSM2()
	res := mustSchedule(t, sm, State{EaseFactor: 2.5, IntervalDays: 6, Repetition: 2, NextReview: t0}, QualityGood)

	assert.True(t, res.IsCorrect)
	assert.Equal(t, 15, res.IntervalDays)
	assert.Equal(t, 3, res.Repetition)
	assert.InDelta(t, 2.5, res.EaseFactor, 1e-9)
	assert.Equal(t, models.StatusReview, res.Status)
	assert.Equal(t, t0.AddDate(0, 0, 15), res.NextReview)
	require.NotNil(t, res.LastReview)
	assert.Equal(t, t0, *res.LastReview)
}

func TestScheduleForgot(t *testing.T) {
	sm := NewSM2()
	res := mustSchedule(t, sm, State{EaseFactor: 2.5, IntervalDays: 40, Repetition: 6}, QualityForgot)

	assert.False(t, res.IsCorrect)
	assert.Equal(t, 0, res.Repetition)
	assert.Equal(t, 1, res.IntervalDays)
	assert.Equal(t, models.StatusLearning, res.Status)
	assert.InDelta(t, 2.5-0.54, res.EaseFactor, 1e-9)
}

func TestScheduleEaseFloor(t *testing.T) {
	sm := NewSM2()
	res := mustSchedule(t, sm, State{EaseFactor: 1.5, IntervalDays: 3, Repetition: 1}, QualityForgot)
	assert.Equal(t, 1.3, res.EaseFactor)
}

func TestScheduleFirstAndSecondIntervals(t *testing.T) {
	sm := NewSM2()

	first := mustSchedule(t, sm, NewState(t0), QualityOkay)
	assert.Equal(t, 1, first.IntervalDays)
	assert.Equal(t, 1, first.Repetition)
	assert.Equal(t, models.StatusLearning, first.Status)

	second := mustSchedule(t, sm, first.State, QualityOkay)
	assert.Equal(t, 3, second.IntervalDays)
	assert.Equal(t, 2, second.Repetition)
}

func TestScheduleEaseAdjustmentByQuality(t *testing.T) {
	sm := NewSM2()
	tests := []struct {
		q     QualityResponse
		delta float64
	}{
		{QualityForgot, -0.54},
		{QualityHard, -0.32},
		{QualityOkay, -0.14},
		{QualityGood, 0},
		{QualityEasy, 0.1},
	}
	for _, tt := range tests {
		res := mustSchedule(t, sm, State{EaseFactor: 2.5, IntervalDays: 10, Repetition: 3}, tt.q)
		assert.InDelta(t, 2.5+tt.delta, res.EaseFactor, 1e-9, "quality %d", tt.q)
	}
}

func TestScheduleIntervalCap(t *testing.T) {
	sm := NewSM2()
	res := mustSchedule(t, sm, State{EaseFactor: 2.8, IntervalDays: 150, Repetition: 8}, QualityEasy)
	assert.Equal(t, 180, res.IntervalDays)
}

func TestScheduleMastered(t *testing.T) {
	sm := NewSM2()
	res := mustSchedule(t, sm, State{EaseFactor: 2.5, IntervalDays: 3, Repetition: 4}, QualityGood)
	assert.Equal(t, 5, res.Repetition)
	assert.Equal(t, models.StatusMastered, res.Status)

	// Low ease keeps a long-running card in review.
	res = mustSchedule(t, sm, State{EaseFactor: 1.5, IntervalDays: 10, Repetition: 6}, QualityOkay)
	assert.Equal(t, models.StatusReview, res.Status)
}

func TestScheduleRejectsInvalidQuality(t *testing.T) {
	sm := NewSM2()
	for _, q := range []QualityResponse{0, 6, -1} {
		_, err := sm.Schedule(NewState(t0), q, t0)
		assert.True(t, errors.Is(err, ErrInvalidQuality), "quality %d", q)
	}
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality(4)
	require.NoError(t, err)
	assert.Equal(t, QualityGood, q)

	_, err = ParseQuality(9)
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

// Every state/quality combination must respect the ease floor, interval cap and lapse reset.
func TestScheduleInvariants(t *testing.T) {
	sm := NewSM2()
	eases := []float64{1.3, 1.7, 2.5, 3.2}
	intervals := []int{0, 1, 3, 15, 90, 180}
	reps := []int{0, 1, 2, 5, 12}

	for _, ef := range eases {
		for _, iv := range intervals {
			for _, rep := range reps {
				for q := QualityForgot; q <= QualityEasy; q++ {
					st := State{EaseFactor: ef, IntervalDays: iv, Repetition: rep, NextReview: t0}
					res := mustSchedule(t, sm, st, q)

					assert.GreaterOrEqual(t, res.EaseFactor, 1.3)
					assert.LessOrEqual(t, res.IntervalDays, 180)
					if q < QualityOkay {
						assert.Equal(t, 0, res.Repetition)
						assert.Equal(t, 1, res.IntervalDays)
					} else if rep >= 2 {
						assert.GreaterOrEqual(t, res.IntervalDays, min(iv, 180))
					}
				}
			}
		}
	}
}

func TestScheduleUsesFixedDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)
	// clocks spring forward on 2025-03-09
	now := time.Date(2025, 3, 8, 12, 0, 0, 0, loc)

	res, err := NewSM2().Schedule(State{EaseFactor: 2.5, IntervalDays: 6, Repetition: 2}, QualityGood, now)
	require.NoError(t, err)
	assert.Equal(t, 15*24*time.Hour, res.NextReview.Sub(now))
	assert.Equal(t, 13, res.NextReview.In(loc).Hour())
}

func TestDemote(t *testing.T) {
	last := t0.Add(-48 * time.Hour)
	st := Demote(State{EaseFactor: 2.7, IntervalDays: 45, Repetition: 6, LastReview: &last}, t0)

	assert.Equal(t, 1, st.IntervalDays)
	assert.Equal(t, 0, st.Repetition)
	assert.Equal(t, 2.7, st.EaseFactor)
	assert.True(t, IsDue(st, t0))
}

func TestStateRoundTripThroughCard(t *testing.T) {
	last := t0
	st := State{EaseFactor: 2.1, IntervalDays: 9, Repetition: 3, NextReview: t0.AddDate(0, 0, 9), LastReview: &last}

	var card models.Card
	Apply(&card, st)
	assert.Equal(t, st, StateOf(card))
}

package study

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/pkg/models"
)

// StatsWindowDays is the length of the recent-review window in Stats.
const StatsWindowDays = 7

// Streak is a user's run of consecutive study days.
type Streak struct {
	Current int
	Longest int
	Day     string
}

// NextStreak advances a streak for a session finished on today.
// Studying twice on the same day keeps the streak, a missed day restarts it.
func NextStreak(current, longest int, lastDay, today string) (int, int) {
	switch {
	case lastDay == today && current > 0:
	case lastDay != "":
		if gap, err := clock.DaysBetween(lastDay, today); err == nil && gap == 1 {
			current++
		} else {
			current = 1
		}
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

// StudyMinutes rounds a session duration up to whole minutes.
func StudyMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds() / 60))
}

// FinishSession records a completed session and advances the streak.
// Sessions without any reviewed card change nothing.
func (s *Service) FinishSession(ctx context.Context, userID int64, reviewed, correct int, duration time.Duration) (*Streak, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	today := s.Today()
	lastDay := ""
	if user.LastStudyDate.Valid {
		lastDay = user.LastStudyDate.String
	}
	if reviewed <= 0 {
		return &Streak{Current: user.CurrentStreak, Longest: user.LongestStreak, Day: lastDay}, nil
	}
	if correct > reviewed {
		correct = reviewed
	}

	if err := s.activity.RecordSession(ctx, userID, today, reviewed, correct, StudyMinutes(duration)); err != nil {
		return nil, err
	}

	current, longest := NextStreak(user.CurrentStreak, user.LongestStreak, lastDay, today)
	if err := s.users.UpdateStreak(ctx, userID, current, longest, today); err != nil {
		return nil, err
	}

	s.log.Info("session finished", "user_id", userID, "reviewed", reviewed, "correct", correct, "streak", current)
	return &Streak{Current: current, Longest: longest, Day: today}, nil
}

// Stats is the progress overview of a user.
type Stats struct {
	models.Statistics
	Accuracy     int
	Level        string
	DailyGoal    int
	Streak       Streak
	Today        models.DailyActivity
	WeekReviews  int
	WeekCorrect  int
	WeekAccuracy int
}

// Statistics gathers deck totals, streak, today's activity and the last week's reviews.
func (s *Service) Statistics(ctx context.Context, userID int64) (*Stats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	deck, err := s.cards.Statistics(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	today, err := s.activity.Get(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}
	total, correct, err := s.reviews.PeriodStats(ctx, userID, now.AddDate(0, 0, -StatsWindowDays), now.Add(time.Second), s.sm2.PassThreshold)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Statistics:  *deck,
		Accuracy:    deck.Accuracy(),
		Level:       user.CurrentLevel,
		DailyGoal:   ClampDailyGoal(user.DailyGoal),
		Streak:      Streak{Current: user.CurrentStreak, Longest: user.LongestStreak, Day: nullString(user.LastStudyDate)},
		Today:       *today,
		WeekReviews: total,
		WeekCorrect: correct,
	}
	if total > 0 {
		stats.WeekAccuracy = int(math.Round(float64(correct) / float64(total) * 100))
	}
	return stats, nil
}

func nullString(v sql.NullString) string {
	if v.Valid {
		return v.String
	}
	return ""
}

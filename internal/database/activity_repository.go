package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/frenchbot/pkg/models"
)

// ActivityRepository aggregates study sessions per user and day.
type ActivityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// RecordSession adds one finished session to the day's totals.
func (r *ActivityRepository) RecordSession(ctx context.Context, userID int64, day string, reviewed, correct, minutes int) error {
	query := r.db.Rebind(`
		INSERT INTO daily_activity (user_id, activity_date, cards_reviewed, cards_correct, study_minutes, sessions_count)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (user_id, activity_date) DO UPDATE SET
			cards_reviewed = daily_activity.cards_reviewed + excluded.cards_reviewed,
			cards_correct = daily_activity.cards_correct + excluded.cards_correct,
			study_minutes = daily_activity.study_minutes + excluded.study_minutes,
			sessions_count = daily_activity.sessions_count + 1`)
	if _, err := r.db.ExecContext(ctx, query, userID, day, reviewed, correct, minutes); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Get returns the totals for one day, zero values when nothing was recorded.
func (r *ActivityRepository) Get(ctx context.Context, userID int64, day string) (*models.DailyActivity, error) {
	var activity models.DailyActivity
	query := r.db.Rebind(`
		SELECT id, user_id, activity_date, cards_reviewed, cards_correct, study_minutes, sessions_count
		FROM daily_activity WHERE user_id = ? AND activity_date = ?`)
	err := r.db.GetContext(ctx, &activity, query, userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.DailyActivity{UserID: userID, ActivityDate: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &activity, nil
}

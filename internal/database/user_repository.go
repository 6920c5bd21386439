package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/frenchbot/pkg/models"
)

const userColumns = `id, username, first_name, last_name, is_admin, current_level, daily_goal, daily_new_words,
	session_limit, notification_enabled, notification_hour, current_streak, longest_streak, last_study_date,
	created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// Ensure inserts a user on first contact or refreshes the Telegram profile fields.
// Study settings of an existing user are left alone.
func (r *UserRepository) Ensure(ctx context.Context, user *models.User) (*models.User, error) {
	now := dbTime(time.Now())
	if user.CurrentLevel == "" {
		user.CurrentLevel = "A1"
	}
	if user.DailyGoal == 0 {
		user.DailyGoal = 20
	}
	if user.DailyNewWords == 0 {
		user.DailyNewWords = 10
	}
	query := r.db.Rebind(`
		INSERT INTO users (id, username, first_name, last_name, is_admin, current_level, daily_goal,
			daily_new_words, notification_enabled, notification_hour, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.IsAdmin, user.CurrentLevel,
		user.DailyGoal, user.DailyNewWords, user.NotificationEnabled, user.NotificationHour, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update user: %w", err)
	}
	return r.GetByID(ctx, user.ID)
}

// UpdateStudySettings stores the level, goal and session limit of a user.
func (r *UserRepository) UpdateStudySettings(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		UPDATE users SET current_level = ?, daily_goal = ?, daily_new_words = ?, session_limit = ?, updated_at = ?
		WHERE id = ?`)
	return r.exec(ctx, "failed to update study settings", query,
		user.CurrentLevel, user.DailyGoal, user.DailyNewWords, user.SessionLimit, dbTime(time.Now()), user.ID)
}

// UpdateNotification stores the reminder preferences of a user.
func (r *UserRepository) UpdateNotification(ctx context.Context, userID int64, enabled bool, hour int) error {
	query := r.db.Rebind(`UPDATE users SET notification_enabled = ?, notification_hour = ?, updated_at = ? WHERE id = ?`)
	return r.exec(ctx, "failed to update notification settings", query, enabled, hour, dbTime(time.Now()), userID)
}

// UpdateStreak stores streak counters and the day they were last advanced.
func (r *UserRepository) UpdateStreak(ctx context.Context, userID int64, current, longest int, lastStudyDate string) error {
	query := r.db.Rebind(`
		UPDATE users SET current_streak = ?, longest_streak = ?, last_study_date = ?, updated_at = ?
		WHERE id = ?`)
	return r.exec(ctx, "failed to update streak", query, current, longest, lastStudyDate, dbTime(time.Now()), userID)
}

// GetUsersForNotification returns users who want a reminder at the given hour
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := r.db.Rebind("SELECT " + userColumns + " FROM users WHERE notification_enabled = ? AND notification_hour = ? ORDER BY id")
	if err := r.db.SelectContext(ctx, &users, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %w", err)
	}
	return users, nil
}

func (r *UserRepository) exec(ctx context.Context, msg, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

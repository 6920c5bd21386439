package models

import (
	"database/sql"
	"time"
)

// User represents a Telegram user studying with the bot
type User struct {
	ID                  int64          `json:"id" db:"id"` // Telegram User ID
	Username            string         `json:"username" db:"username"`
	FirstName           string         `json:"first_name" db:"first_name"`
	LastName            string         `json:"last_name" db:"last_name"`
	IsAdmin             bool           `json:"is_admin" db:"is_admin"`
	CurrentLevel        string         `json:"current_level" db:"current_level"`
	DailyGoal           int            `json:"daily_goal" db:"daily_goal"`
	DailyNewWords       int            `json:"daily_new_words" db:"daily_new_words"`
	SessionLimit        sql.NullInt64  `json:"session_limit" db:"session_limit"` // NULL follows the daily goal
	NotificationEnabled bool           `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int            `json:"notification_hour" db:"notification_hour"` // 0-23 in the plan timezone
	CurrentStreak       int            `json:"current_streak" db:"current_streak"`
	LongestStreak       int            `json:"longest_streak" db:"longest_streak"`
	LastStudyDate       sql.NullString `json:"last_study_date" db:"last_study_date"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

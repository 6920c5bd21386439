package models

import "time"

// DailyActivity aggregates a user's study sessions for one calendar day
type DailyActivity struct {
	ID            int64  `json:"id" db:"id"`
	UserID        int64  `json:"user_id" db:"user_id"`
	ActivityDate  string `json:"activity_date" db:"activity_date"`
	CardsReviewed int    `json:"cards_reviewed" db:"cards_reviewed"`
	CardsCorrect  int    `json:"cards_correct" db:"cards_correct"`
	StudyMinutes  int    `json:"study_minutes" db:"study_minutes"`
	SessionsCount int    `json:"sessions_count" db:"sessions_count"`
}

// CardReview is one rating given to a card
type CardReview struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	CardID     int64     `json:"card_id" db:"card_id"`
	Quality    int       `json:"quality" db:"quality"`
	ReviewedAt time.Time `json:"reviewed_at" db:"reviewed_at"`
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/frenchbot/pkg/models"
)

// ReviewRepository keeps the log of individual ratings.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create appends one rating to the log
func (r *ReviewRepository) Create(ctx context.Context, review *models.CardReview) error {
	review.ReviewedAt = dbTime(review.ReviewedAt)
	query := r.db.Rebind(`
		INSERT INTO card_reviews (user_id, card_id, quality, reviewed_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`)
	err := r.db.QueryRowxContext(ctx, query, review.UserID, review.CardID, review.Quality, review.ReviewedAt).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// PeriodStats counts ratings and passing ratings given in [from, to).
func (r *ReviewRepository) PeriodStats(ctx context.Context, userID int64, from, to time.Time, passThreshold int) (total, correct int, err error) {
	var row struct {
		Total   int `db:"total"`
		Correct int `db:"correct"`
	}
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN quality >= ? THEN 1 ELSE 0 END), 0) AS correct
		FROM card_reviews
		WHERE user_id = ? AND reviewed_at >= ? AND reviewed_at < ?`)
	if err := r.db.GetContext(ctx, &row, query, passThreshold, userID, dbTime(from), dbTime(to)); err != nil {
		return 0, 0, fmt.Errorf("failed to get review stats: %w", err)
	}
	return row.Total, row.Correct, nil
}

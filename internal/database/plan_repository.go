package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PlanRepository caches one deck plan per user and calendar day.
type PlanRepository struct {
	db *sqlx.DB
}

func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// LoadPlan returns the stored plan text for the day, if any.
func (r *PlanRepository) LoadPlan(ctx context.Context, userID int64, day string) (string, bool, error) {
	var content string
	err := r.db.GetContext(ctx, &content,
		r.db.Rebind("SELECT plan FROM deck_plans WHERE user_id = ? AND plan_day = ?"), userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load deck plan: %w", err)
	}
	return content, true, nil
}

// SavePlan upserts the plan for the day; the last write wins.
func (r *PlanRepository) SavePlan(ctx context.Context, userID int64, day, content string) error {
	query := r.db.Rebind(`
		INSERT INTO deck_plans (user_id, plan_day, plan, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, plan_day) DO UPDATE SET
			plan = excluded.plan,
			updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, userID, day, content, dbTime(time.Now())); err != nil {
		return fmt.Errorf("failed to save deck plan: %w", err)
	}
	return nil
}

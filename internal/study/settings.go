package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/pkg/models"
)

// SetLevel changes the user's CEFR level. Plans already made today are kept.
func (s *Service) SetLevel(ctx context.Context, userID int64, level string) (*models.User, error) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if !deckplan.IsLevel(level) {
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidSetting, level)
	}
	return s.updateSettings(ctx, userID, func(u *models.User) { u.CurrentLevel = level })
}

// SetDailyGoal stores a clamped daily goal and returns the user.
func (s *Service) SetDailyGoal(ctx context.Context, userID int64, goal int) (*models.User, error) {
	if goal <= 0 {
		return nil, fmt.Errorf("%w: goal must be positive", ErrInvalidSetting)
	}
	return s.updateSettings(ctx, userID, func(u *models.User) { u.DailyGoal = ClampDailyGoal(goal) })
}

// SetSessionLimit stores the session limit. 0 follows the daily goal, UnlimitedSessionSetting removes the limit.
func (s *Service) SetSessionLimit(ctx context.Context, userID int64, limit int) (*models.User, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: session limit must not be negative", ErrInvalidSetting)
	}
	return s.updateSettings(ctx, userID, func(u *models.User) {
		switch {
		case limit == 0:
			u.SessionLimit = sql.NullInt64{}
		case limit == UnlimitedSessionSetting:
			u.SessionLimit = sql.NullInt64{Int64: UnlimitedSessionSetting, Valid: true}
		default:
			u.SessionLimit = sql.NullInt64{Int64: int64(EffectiveSessionLimit(&limit, 0)), Valid: true}
		}
	})
}

// SetDailyNewWords stores how many unseen cards are kept available.
func (s *Service) SetDailyNewWords(ctx context.Context, userID int64, n int) (*models.User, error) {
	if n < 0 || n > MaxDailyNewWords {
		return nil, fmt.Errorf("%w: new words must be between 0 and %d", ErrInvalidSetting, MaxDailyNewWords)
	}
	return s.updateSettings(ctx, userID, func(u *models.User) { u.DailyNewWords = n })
}

func (s *Service) updateSettings(ctx context.Context, userID int64, fn func(u *models.User)) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	fn(user)
	if err := s.users.UpdateStudySettings(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package cache

import (
	"context"

	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/logger"
)

// LayeredPlanStore reads through a fast store into the durable one.
// Failures of the fast store are logged and never surfaced.
type LayeredPlanStore struct {
	fast    deckplan.PlanStore
	durable deckplan.PlanStore
	log     *logger.Logger
}

func NewLayeredPlanStore(fast, durable deckplan.PlanStore, log *logger.Logger) *LayeredPlanStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &LayeredPlanStore{fast: fast, durable: durable, log: log.With("service", "LayeredPlanStore")}
}

func (s *LayeredPlanStore) LoadPlan(ctx context.Context, userID int64, day string) (string, bool, error) {
	content, ok, err := s.fast.LoadPlan(ctx, userID, day)
	if err != nil {
		s.log.Warn("fast plan store read failed", "user_id", userID, "day", day, "error", err)
	} else if ok {
		return content, true, nil
	}

	content, ok, err = s.durable.LoadPlan(ctx, userID, day)
	if err != nil || !ok {
		return content, ok, err
	}
	if err := s.fast.SavePlan(ctx, userID, day, content); err != nil {
		s.log.Warn("fast plan store backfill failed", "user_id", userID, "day", day, "error", err)
	}
	return content, true, nil
}

func (s *LayeredPlanStore) SavePlan(ctx context.Context, userID int64, day, content string) error {
	if err := s.durable.SavePlan(ctx, userID, day, content); err != nil {
		return err
	}
	if err := s.fast.SavePlan(ctx, userID, day, content); err != nil {
		s.log.Warn("fast plan store write failed", "user_id", userID, "day", day, "error", err)
	}
	return nil
}

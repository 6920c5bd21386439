package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/pkg/models"
)

// Session is one ready-to-study queue.
type Session struct {
	Plan         models.DeckPlan
	Day          string
	Cached       bool
	Fallback     bool
	Cards        []models.StudyCard
	DailyGoal    int
	SessionLimit int
	ReviewCount  int
	NewCount     int
	Assigned     int
	Summary      string
}

// Empty reports whether there is nothing to study.
func (s *Session) Empty() bool {
	return len(s.Cards) == 0
}

// BuildSession resolves today's plan for the user and selects the cards to study.
func (s *Service) BuildSession(ctx context.Context, userID int64) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	goal := ClampDailyGoal(user.DailyGoal)
	var stored *int
	if user.SessionLimit.Valid {
		v := int(user.SessionLimit.Int64)
		stored = &v
	}
	limit := EffectiveSessionLimit(stored, goal)

	res := s.resolvePlan(ctx, user)

	now := s.clock.Now()
	levels := s.candidateLevels(res.Plan)
	fetch := fetchLimit(limit)

	fresh, err := s.cards.NewCards(ctx, userID, levels, fetch)
	if err != nil {
		return nil, err
	}
	assigned, err := s.topUp(ctx, user, res.Plan, len(fresh))
	if err != nil {
		s.log.Warn("failed to assign new words", "user_id", userID, "error", err)
	}
	if assigned > 0 {
		if fresh, err = s.cards.NewCards(ctx, userID, levels, fetch); err != nil {
			return nil, err
		}
	}

	due, err := s.cards.DueCards(ctx, userID, now, levels, fetch)
	if err != nil {
		return nil, err
	}

	sel := deckplan.SelectQueue(due, fresh, res.Plan, deckplan.SelectOptions{
		DailyGoal:    goal,
		SessionLimit: limit,
		Policy:       s.policy,
	})
	queue := sel.Queue()
	if s.shuffle {
		s.rndMu.Lock()
		queue = deckplan.Shuffle(queue, s.rnd)
		s.rndMu.Unlock()
	}

	session := &Session{
		Plan:         res.Plan,
		Day:          res.Day,
		Cached:       res.Cached,
		Fallback:     res.Fallback,
		Cards:        queue,
		DailyGoal:    goal,
		SessionLimit: limit,
		Assigned:     assigned,
		Summary:      deckplan.Summary(res.Plan),
	}
	for _, c := range queue {
		if c.TimesSeen == 0 {
			session.NewCount++
		} else {
			session.ReviewCount++
		}
	}

	s.log.Info("session built",
		"user_id", userID, "day", res.Day, "cards", len(queue),
		"reviews", session.ReviewCount, "new", session.NewCount,
		"cached_plan", res.Cached, "fallback_plan", res.Fallback)
	return session, nil
}

// Plan returns today's deck plan for the user without building a queue.
func (s *Service) Plan(ctx context.Context, userID int64) (deckplan.Resolution, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return deckplan.Resolution{}, ErrUserNotFound
	}
	if err != nil {
		return deckplan.Resolution{}, err
	}
	return s.resolvePlan(ctx, user), nil
}

func (s *Service) resolvePlan(ctx context.Context, user *models.User) deckplan.Resolution {
	perf, err := s.cards.LevelPerformance(ctx, user.ID, deckplan.RecentCardWindow)
	if err != nil {
		// planning still works without a performance summary
		s.log.Warn("failed to load level performance", "user_id", user.ID, "error", err)
	}
	return s.planner.ResolvePlan(ctx, user.ID, user.CurrentLevel, deckplan.AccuracyByLevel(perf))
}

// candidateLevels are the word levels loaded from the store. nil loads every level.
func (s *Service) candidateLevels(plan models.DeckPlan) []string {
	switch s.policy {
	case deckplan.PolicyNone:
		return nil
	case deckplan.PolicyStrict:
		return []string{plan.LevelBand.Primary}
	default:
		return bandLevels(plan)
	}
}

// assignLevels are the levels new words are drawn from. Without a level
// filter the band still decides which words are worth assigning.
func (s *Service) assignLevels(plan models.DeckPlan) []string {
	if levels := s.candidateLevels(plan); len(levels) > 0 {
		return levels
	}
	return bandLevels(plan)
}

func bandLevels(plan models.DeckPlan) []string {
	levels := []string{plan.LevelBand.Primary}
	if plan.LevelBand.Support != "" {
		levels = append(levels, plan.LevelBand.Support)
	}
	return levels
}

// topUp assigns unassigned words from the plan's band until the user has
// dailyNewWords unseen cards available.
func (s *Service) topUp(ctx context.Context, user *models.User, plan models.DeckPlan, available int) (int, error) {
	want := user.DailyNewWords
	if want > MaxDailyNewWords {
		want = MaxDailyNewWords
	}
	need := want - available
	if need <= 0 {
		return 0, nil
	}

	words, err := s.words.Unassigned(ctx, user.ID, s.assignLevels(plan), need)
	if err != nil {
		return 0, err
	}
	if len(words) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	n, err := s.cards.AssignWords(ctx, user.ID, ids, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to assign words: %w", err)
	}
	return n, nil
}

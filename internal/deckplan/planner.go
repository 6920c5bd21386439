package deckplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/pkg/models"
)

// DefaultAdvisorTimeout bounds a single advisor call.
const DefaultAdvisorTimeout = 20 * time.Second

// PlanStore persists one serialised plan per user per calendar day.
// SavePlan overwrites an existing entry.
type PlanStore interface {
	LoadPlan(ctx context.Context, userID int64, day string) (string, bool, error)
	SavePlan(ctx context.Context, userID int64, day, content string) error
}

// AdvisorRequest is what the advisor sees about a learner.
type AdvisorRequest struct {
	CurrentLevel    string
	LevelAccuracy   *int
	AccuracyByLevel map[string]int
}

// Advisor proposes a plan as free-form text that should contain a JSON object.
type Advisor interface {
	ProposeDeckPlan(ctx context.Context, req AdvisorRequest) (string, error)
}

type Config struct {
	Location       *time.Location
	AdvisorTimeout time.Duration
}

// Resolution is a usable plan plus where it came from.
type Resolution struct {
	Plan     models.DeckPlan
	Day      string
	Cached   bool
	Fallback bool
}

// Planner resolves the deck plan of the day.
type Planner struct {
	store   PlanStore
	advisor Advisor
	clock   clock.Clock
	loc     *time.Location
	timeout time.Duration
	log     *logger.Logger
}

// NewPlanner wires a planner. advisor may be nil, in which case every new day gets the fallback plan.
func NewPlanner(store PlanStore, advisor Advisor, clk clock.Clock, cfg Config, log *logger.Logger) *Planner {
	if clk == nil {
		clk = clock.System{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AdvisorTimeout <= 0 {
		cfg.AdvisorTimeout = DefaultAdvisorTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Planner{
		store:   store,
		advisor: advisor,
		clock:   clk,
		loc:     cfg.Location,
		timeout: cfg.AdvisorTimeout,
		log:     log.With("component", "deckplan"),
	}
}

// Today is the current day key in the planner's timezone.
func (p *Planner) Today() string {
	return clock.DayKey(p.clock.Now(), p.loc)
}

// ResolvePlan returns today's plan for a user. It never fails: any cache or
// advisor problem degrades to DefaultPlan.
func (p *Planner) ResolvePlan(ctx context.Context, userID int64, currentLevel string, accuracyByLevel map[string]int) Resolution {
	day := p.Today()
	level := NormalizeLevel(currentLevel)

	if p.store != nil {
		content, ok, err := p.store.LoadPlan(ctx, userID, day)
		switch {
		case err != nil:
			p.log.Warn("failed to load cached plan", "user_id", userID, "day", day, "error", err)
		case ok:
			plan, err := ParsePlan(content)
			if err == nil {
				return Resolution{Plan: plan, Day: day, Cached: true}
			}
			p.log.Warn("discarding invalid cached plan", "user_id", userID, "day", day, "error", err)
		}
	}

	levelAccuracy := LevelAccuracy(accuracyByLevel, level)
	res := Resolution{Day: day}

	plan, err := p.generate(ctx, AdvisorRequest{
		CurrentLevel:    level,
		LevelAccuracy:   levelAccuracy,
		AccuracyByLevel: accuracyByLevel,
	})
	if err != nil {
		p.log.Info("using fallback plan", "user_id", userID, "day", day, "reason", err)
		plan = DefaultPlan(level, levelAccuracy)
		res.Fallback = true
	}
	res.Plan = plan

	p.persist(ctx, userID, day, plan)
	return res
}

func (p *Planner) generate(ctx context.Context, req AdvisorRequest) (models.DeckPlan, error) {
	if p.advisor == nil {
		return models.DeckPlan{}, fmt.Errorf("%w: no advisor configured", ErrAdvisoryUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := p.advisor.ProposeDeckPlan(callCtx, req)
		done <- reply{text, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-callCtx.Done():
		return models.DeckPlan{}, fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, callCtx.Err())
	}
	if r.err != nil {
		if errors.Is(r.err, ErrAdvisoryUnavailable) {
			return models.DeckPlan{}, r.err
		}
		return models.DeckPlan{}, fmt.Errorf("%w: %v", ErrAdvisoryUnavailable, r.err)
	}
	return ParsePlan(r.text)
}

func (p *Planner) persist(ctx context.Context, userID int64, day string, plan models.DeckPlan) {
	if p.store == nil {
		return
	}
	content, err := Encode(plan)
	if err != nil {
		p.log.Error("failed to encode plan", "user_id", userID, "error", err)
		return
	}
	if err := p.store.SavePlan(ctx, userID, day, content); err != nil {
		p.log.Warn("failed to cache plan", "user_id", userID, "day", day, "error", err)
	}
}

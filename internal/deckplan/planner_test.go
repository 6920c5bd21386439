package deckplan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/logger"
)

type memoryStore struct {
	mu      sync.Mutex
	plans   map[string]string
	loadErr error
	saveErr error
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{plans: make(map[string]string)}
}

func storeKey(userID int64, day string) string { return fmt.Sprintf("%d/%s", userID, day) }

func (s *memoryStore) LoadPlan(_ context.Context, userID int64, day string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return "", false, s.loadErr
	}
	v, ok := s.plans[storeKey(userID, day)]
	return v, ok, nil
}

func (s *memoryStore) SavePlan(_ context.Context, userID int64, day, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.plans[storeKey(userID, day)] = content
	return nil
}

type stubAdvisor struct {
	reply string
	err   error
	delay time.Duration
	calls int
	last  AdvisorRequest
}

func (a *stubAdvisor) ProposeDeckPlan(ctx context.Context, req AdvisorRequest) (string, error) {
	a.calls++
	a.last = req
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return a.reply, a.err
}

const advisorPlan = `{"targetLevel":"B1","levelBand":{"primary":"B1","support":"A2","supportCapPct":30},
"mix":{"reviewPct":60,"newPct":40},"focusTags":["food"],"rationale":"Mix in food vocabulary"}`

func newTestPlanner(t *testing.T, store PlanStore, advisor Advisor, now time.Time) (*Planner, *clock.Fixed) {
	t.Helper()
	loc, err := clock.LoadLocation(clock.DefaultTimezone)
	require.NoError(t, err)
	clk := clock.NewFixed(now)
	return NewPlanner(store, advisor, clk, Config{Location: loc, AdvisorTimeout: 50 * time.Millisecond}, logger.NewNop()), clk
}

func TestResolvePlanGeneratesThenCaches(t *testing.T) {
	store := newMemoryStore()
	advisor := &stubAdvisor{reply: "```json\n" + advisorPlan + "\n```"}
	p, _ := newTestPlanner(t, store, advisor, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC))

	acc := map[string]int{"B1": 62, "A2": 88}
	first := p.ResolvePlan(context.Background(), 42, "B1", acc)
	assert.False(t, first.Cached)
	assert.False(t, first.Fallback)
	assert.Equal(t, "2025-05-10", first.Day)
	assert.Equal(t, 30, first.Plan.LevelBand.SupportCapPct)
	assert.Equal(t, "B1", advisor.last.CurrentLevel)
	require.NotNil(t, advisor.last.LevelAccuracy)
	assert.Equal(t, 62, *advisor.last.LevelAccuracy)

	second := p.ResolvePlan(context.Background(), 42, "B1", acc)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Plan, second.Plan)
	assert.Equal(t, 1, advisor.calls)
	assert.Equal(t, 1, store.saves)
}

func TestResolvePlanDayBoundaryUsesReferenceTimezone(t *testing.T) {
	store := newMemoryStore()
	advisor := &stubAdvisor{reply: advisorPlan}
	// 03:30 UTC on the 11th is still the 10th in Toronto.
	p, clk := newTestPlanner(t, store, advisor, time.Date(2025, 5, 11, 3, 30, 0, 0, time.UTC))

	res := p.ResolvePlan(context.Background(), 1, "B1", nil)
	assert.Equal(t, "2025-05-10", res.Day)

	clk.Advance(2 * time.Hour)
	res = p.ResolvePlan(context.Background(), 1, "B1", nil)
	assert.Equal(t, "2025-05-11", res.Day)
	assert.False(t, res.Cached)
	assert.Equal(t, 2, advisor.calls)
}

func TestResolvePlanInvalidAdvisorReplyFallsBack(t *testing.T) {
	store := newMemoryStore()
	advisor := &stubAdvisor{reply: `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":20},"mix":{"reviewPct":70,"newPct":31},"rationale":"x"}`}
	p, _ := newTestPlanner(t, store, advisor, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC))

	res := p.ResolvePlan(context.Background(), 7, "A2", map[string]int{"A2": 40})
	assert.True(t, res.Fallback)
	assert.Equal(t, FallbackRationale, res.Plan.Rationale)
	assert.Equal(t, "A1", res.Plan.LevelBand.Support)
	assert.Equal(t, 70, res.Plan.Mix.ReviewPct)

	again := p.ResolvePlan(context.Background(), 7, "A2", nil)
	assert.True(t, again.Cached)
	assert.Equal(t, res.Plan, again.Plan)
}

func TestResolvePlanAdvisorFailures(t *testing.T) {
	tests := []struct {
		name    string
		advisor Advisor
	}{
		{"error", &stubAdvisor{err: errors.New("boom")}},
		{"timeout", &stubAdvisor{reply: advisorPlan, delay: time.Second}},
		{"no advisor", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPlanner(t, newMemoryStore(), tt.advisor, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC))
			res := p.ResolvePlan(context.Background(), 3, "A0", nil)
			assert.True(t, res.Fallback)
			assert.Equal(t, "A1", res.Plan.LevelBand.Primary)
			assert.Empty(t, res.Plan.LevelBand.Support)
		})
	}
}

func TestResolvePlanIgnoresStoreFailures(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("db down")
	store.saveErr = errors.New("db down")
	p, _ := newTestPlanner(t, store, &stubAdvisor{reply: advisorPlan}, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC))

	res := p.ResolvePlan(context.Background(), 3, "B1", nil)
	assert.False(t, res.Fallback)
	assert.Equal(t, "B1", res.Plan.LevelBand.Primary)
	assert.Equal(t, 1, store.saves)
}

func TestResolvePlanReplacesCorruptCache(t *testing.T) {
	store := newMemoryStore()
	store.plans[storeKey(5, "2025-05-10")] = "not json"
	advisor := &stubAdvisor{reply: advisorPlan}
	p, _ := newTestPlanner(t, store, advisor, time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC))

	res := p.ResolvePlan(context.Background(), 5, "B1", nil)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, advisor.calls)

	parsed, err := ParsePlan(store.plans[storeKey(5, "2025-05-10")])
	require.NoError(t, err)
	assert.Equal(t, res.Plan, parsed)
}

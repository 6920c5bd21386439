package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	data map[string]string
	err  error
}

func newMapStore() *mapStore { return &mapStore{data: map[string]string{}} }

func (m *mapStore) LoadPlan(_ context.Context, userID int64, day string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.data[fmt.Sprintf("%d/%s", userID, day)]
	return v, ok, nil
}

func (m *mapStore) SavePlan(_ context.Context, userID int64, day, content string) error {
	if m.err != nil {
		return m.err
	}
	m.data[fmt.Sprintf("%d/%s", userID, day)] = content
	return nil
}

func TestLayeredReadThrough(t *testing.T) {
	fast, durable := newMapStore(), newMapStore()
	durable.data["1/2025-01-01"] = "plan"
	s := NewLayeredPlanStore(fast, durable, nil)

	content, ok, err := s.LoadPlan(context.Background(), 1, "2025-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "plan", content)
	assert.Equal(t, "plan", fast.data["1/2025-01-01"])

	_, ok, err = s.LoadPlan(context.Background(), 1, "2025-01-02")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLayeredToleratesFastFailures(t *testing.T) {
	fast, durable := newMapStore(), newMapStore()
	fast.err = errors.New("connection refused")
	s := NewLayeredPlanStore(fast, durable, nil)

	require.NoError(t, s.SavePlan(context.Background(), 2, "2025-01-01", "p"))
	content, ok, err := s.LoadPlan(context.Background(), 2, "2025-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "p", content)
}

func TestLayeredSurfacesDurableFailures(t *testing.T) {
	fast, durable := newMapStore(), newMapStore()
	durable.err = errors.New("disk full")
	s := NewLayeredPlanStore(fast, durable, nil)

	assert.Error(t, s.SavePlan(context.Background(), 2, "2025-01-01", "p"))
	assert.Empty(t, fast.data)
}

func TestRedisPlanStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisPlanStore(RedisConfig{Addr: addr, KeyPrefix: fmt.Sprintf("test%d", time.Now().UnixNano()), TTL: time.Minute}, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, ok, err := s.LoadPlan(ctx, 1, "2025-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SavePlan(ctx, 1, "2025-01-01", `{"a":1}`))
	require.NoError(t, s.SavePlan(ctx, 1, "2025-01-01", `{"a":2}`))
	content, ok, err := s.LoadPlan(ctx, 1, "2025-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":2}`, content)
}

func TestNewRedisPlanStoreRequiresAddr(t *testing.T) {
	_, err := NewRedisPlanStore(RedisConfig{}, nil)
	assert.Error(t, err)
}

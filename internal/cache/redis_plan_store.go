// Package cache holds the optional Redis layer in front of the deck plan table.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/frenchbot/internal/logger"
)

// DefaultPlanTTL keeps a plan a little longer than the day it belongs to.
const DefaultPlanTTL = 48 * time.Hour

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisPlanStore keeps deck plans under prefix:deckplan:<user>:<day>.
type RedisPlanStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisPlanStore connects and pings the server.
func NewRedisPlanStore(cfg RedisConfig, log *logger.Logger) (*RedisPlanStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("missing redis address")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPlanTTL
	}
	if log == nil {
		log = logger.NewNop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPlanStore{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		log:    log.With("service", "RedisPlanStore"),
	}, nil
}

func (s *RedisPlanStore) key(userID int64, day string) string {
	if s.prefix == "" {
		return fmt.Sprintf("deckplan:%d:%s", userID, day)
	}
	return fmt.Sprintf("%s:deckplan:%d:%s", s.prefix, userID, day)
}

func (s *RedisPlanStore) LoadPlan(ctx context.Context, userID int64, day string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(userID, day)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get plan: %w", err)
	}
	return val, true, nil
}

func (s *RedisPlanStore) SavePlan(ctx context.Context, userID int64, day, content string) error {
	if err := s.rdb.Set(ctx, s.key(userID, day), content, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set plan: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisPlanStore) Close() error {
	return s.rdb.Close()
}

// Package config loads runtime settings from a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/internal/spaced_repetition"
)

const (
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"

	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

type Config struct {
	TelegramToken string
	AdminUserIDs  []int64
	LogMode       string

	DBType      string
	DBPath      string
	DatabaseURL string

	// Redis plan cache, disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	// Requests per second towards the LLM endpoint
	OpenAIRateLimit float64

	Timezone       string
	Location       *time.Location
	LevelPolicy    deckplan.LevelPolicy
	ShuffleQueue   bool
	AdvisorTimeout time.Duration
	BurnPolicy     spaced_repetition.BurnPolicy

	EnableScheduler       bool
	NotificationStartHour int
	NotificationEndHour   int
}

// Load reads envFile (if it exists) into the environment and builds a Config.
// Variables already set in the environment win over the file.
func Load(envFile string, log *logger.Logger) (*Config, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
			log.Debug("No env file found, using environment only", "file", envFile)
		}
	}

	burn := spaced_repetition.DefaultBurnPolicy()
	cfg := &Config{
		TelegramToken: getEnv("TELEGRAM_BOT_TOKEN", "", log),
		AdminUserIDs:  getEnvAsIDs("ADMIN_USER_IDS", log),
		LogMode:       getEnv("LOG_MODE", "dev", log),

		DBType:      strings.ToLower(getEnv("DB_TYPE", DBTypeSQLite, log)),
		DBPath:      getEnv("DB_PATH", "frenchbot.db", log),
		DatabaseURL: getEnv("DATABASE_URL", "", log),

		RedisAddr:     getEnv("REDIS_ADDR", "", log),
		RedisPassword: getEnv("REDIS_PASSWORD", "", log),
		RedisDB:       getEnvAsInt("REDIS_DB", 0, log),
		RedisPrefix:   getEnv("REDIS_PREFIX", "frenchbot", log),

		OpenAIKey:       getEnv("OPENAI_API_KEY", "", log),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "", log),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini", log),
		OpenAIRateLimit: getEnvAsFloat("OPENAI_RATE_LIMIT", 1, log),

		Timezone:       getEnv("PLAN_TIMEZONE", clock.DefaultTimezone, log),
		ShuffleQueue:   getEnvAsBool("SHUFFLE_QUEUE", true, log),
		AdvisorTimeout: getEnvAsDuration("ADVISOR_TIMEOUT", deckplan.DefaultAdvisorTimeout, log),
		BurnPolicy: spaced_repetition.BurnPolicy{
			MinEaseFactor:   getEnvAsFloat("AUTO_BURN_MIN_EASE", burn.MinEaseFactor, log),
			MinInterval:     getEnvAsInt("AUTO_BURN_MIN_INTERVAL", burn.MinInterval, log),
			MinTimesCorrect: getEnvAsInt("AUTO_BURN_MIN_CORRECT", burn.MinTimesCorrect, log),
		},

		EnableScheduler:       getEnvAsBool("ENABLE_SCHEDULER", true, log),
		NotificationStartHour: getEnvAsInt("NOTIFICATION_START_HOUR", DefaultNotificationStartHour, log),
		NotificationEndHour:   getEnvAsInt("NOTIFICATION_END_HOUR", DefaultNotificationEndHour, log),
	}

	policy, err := deckplan.ParseLevelPolicy(getEnv("LEVEL_POLICY", string(deckplan.PolicySupport), log))
	if err != nil {
		return nil, err
	}
	cfg.LevelPolicy = policy

	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DBType {
	case DBTypeSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH must be set for sqlite")
		}
	case DBTypePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return fmt.Errorf("notification hours must be within 0-23, got %d-%d", c.NotificationStartHour, c.NotificationEndHour)
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("NOTIFICATION_START_HOUR %d is after NOTIFICATION_END_HOUR %d", c.NotificationStartHour, c.NotificationEndHour)
	}
	if c.AdvisorTimeout <= 0 {
		return errors.New("ADVISOR_TIMEOUT must be positive")
	}
	return nil
}

// AIEnabled reports whether an LLM endpoint is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

// IsAdmin reports whether userID may run admin commands.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

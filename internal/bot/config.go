package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	Token    string
	AdminIDs []int64
	// Long-polling timeout in seconds
	UpdateTimeout int
	// Idle study and quiz state is dropped after this long
	SessionTTL time.Duration
	// Largest import document accepted, in bytes
	MaxImportSize int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() BotConfig {
	return BotConfig{
		UpdateTimeout: 60,
		SessionTTL:    2 * time.Hour,
		MaxImportSize: 5 << 20,
	}
}

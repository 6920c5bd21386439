package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/frenchbot/internal/logger"
)

func getEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		log.Debug("Environment variable not found, using default", "env_var", key, "default", defaultVal)
		return defaultVal
	}
	return strings.TrimSpace(val)
}

func getEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	valStr := getEnv(key, "", log)
	if valStr == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "value", valStr, "default", defaultVal)
		return defaultVal
	}
	return i
}

func getEnvAsFloat(key string, defaultVal float64, log *logger.Logger) float64 {
	valStr := getEnv(key, "", log)
	if valStr == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		log.Warn("Environment variable could not be parsed as float, using default", "env_var", key, "value", valStr, "default", defaultVal)
		return defaultVal
	}
	return f
}

func getEnvAsBool(key string, defaultVal bool, log *logger.Logger) bool {
	valStr := getEnv(key, "", log)
	if valStr == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "value", valStr, "default", defaultVal)
		return defaultVal
	}
	return b
}

func getEnvAsDuration(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	valStr := getEnv(key, "", log)
	if valStr == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		// Plain numbers are seconds.
		if secs, convErr := strconv.Atoi(valStr); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		log.Warn("Environment variable could not be parsed as duration, using default", "env_var", key, "value", valStr, "default", defaultVal)
		return defaultVal
	}
	return d
}

// getEnvAsIDs parses a comma separated list of Telegram user ids.
func getEnvAsIDs(key string, log *logger.Logger) []int64 {
	var ids []int64
	for _, part := range strings.Split(getEnv(key, "", log), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Warn("Skipping invalid id", "env_var", key, "value", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

package deckplan

// Levels is the fixed CEFR ordering plans are expressed in.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// DefaultLevel is used for unknown or pre-A1 levels.
const DefaultLevel = "A1"

// IsLevel reports whether level is one of Levels.
func IsLevel(level string) bool {
	return levelIndex(level) >= 0
}

// NormalizeLevel maps A0 and anything unknown to DefaultLevel.
func NormalizeLevel(level string) string {
	if IsLevel(level) {
		return level
	}
	return DefaultLevel
}

// OneLevelBelow returns the level immediately below, or "" for the lowest level.
func OneLevelBelow(level string) string {
	i := levelIndex(level)
	if i <= 0 {
		return ""
	}
	return Levels[i-1]
}

func levelIndex(level string) int {
	for i, l := range Levels {
		if l == level {
			return i
		}
	}
	return -1
}

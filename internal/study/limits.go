package study

import "github.com/example/frenchbot/internal/deckplan"

const (
	MinDailyGoal     = 5
	MaxDailyGoal     = 100
	DefaultDailyGoal = 20

	MinSessionLimit     = 5
	MaxSessionLimit     = 100
	DefaultSessionLimit = 25
	// UnlimitedSessionSetting is the stored session limit meaning "no limit".
	UnlimitedSessionSetting = 999

	MaxDailyNewWords = 50

	// fetch at most this many candidates per bucket for unlimited sessions
	unlimitedFetch = MaxDailyGoal * 20
	fetchFactor    = 4
)

// ClampDailyGoal keeps a goal within bounds; non-positive goals get the default.
func ClampDailyGoal(goal int) int {
	switch {
	case goal <= 0:
		return DefaultDailyGoal
	case goal < MinDailyGoal:
		return MinDailyGoal
	case goal > MaxDailyGoal:
		return MaxDailyGoal
	}
	return goal
}

// EffectiveSessionLimit resolves the stored session limit.
// Unset follows the daily goal, UnlimitedSessionSetting means no limit.
func EffectiveSessionLimit(stored *int, dailyGoal int) int {
	if stored == nil {
		return dailyGoal
	}
	switch v := *stored; {
	case v == UnlimitedSessionSetting:
		return deckplan.UnlimitedSession
	case v <= 0:
		return DefaultSessionLimit
	case v < MinSessionLimit:
		return MinSessionLimit
	case v > MaxSessionLimit:
		return MaxSessionLimit
	default:
		return v
	}
}

// fetchLimit is how many candidates of each bucket are loaded for a session.
func fetchLimit(sessionLimit int) int {
	if sessionLimit == deckplan.UnlimitedSession {
		return unlimitedFetch
	}
	return sessionLimit * fetchFactor
}

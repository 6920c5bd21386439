package deckplan

import (
	"math"

	"github.com/example/frenchbot/pkg/models"
)

// RecentCardWindow is how many recently updated cards feed AccuracyByLevel.
const RecentCardWindow = 200

// AccuracyByLevel returns the rounded correct percentage per level.
// Cards never answered and cards without a level are ignored.
func AccuracyByLevel(perf []models.LevelPerformance) map[string]int {
	type tally struct{ seen, correct int }
	totals := make(map[string]*tally)
	for _, p := range perf {
		if p.Level == "" || p.TimesSeen <= 0 {
			continue
		}
		t, ok := totals[p.Level]
		if !ok {
			t = &tally{}
			totals[p.Level] = t
		}
		t.seen += p.TimesSeen
		t.correct += p.TimesCorrect
	}

	out := make(map[string]int, len(totals))
	for level, t := range totals {
		out[level] = int(math.Round(float64(t.correct) / float64(t.seen) * 100))
	}
	return out
}

// LevelAccuracy looks up the accuracy for one level, nil when unknown.
func LevelAccuracy(byLevel map[string]int, level string) *int {
	v, ok := byLevel[level]
	if !ok {
		return nil
	}
	return &v
}

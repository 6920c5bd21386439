package deckplan

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/example/frenchbot/pkg/models"
)

// LevelPolicy decides which word levels may enter a queue.
type LevelPolicy string

const (
	// PolicySupport allows the primary level plus the capped support level.
	PolicySupport LevelPolicy = "support"
	// PolicyStrict allows the primary level only.
	PolicyStrict LevelPolicy = "strict"
	// PolicyNone ignores levels and takes candidates in priority order.
	PolicyNone LevelPolicy = "none"
)

// ParseLevelPolicy maps a config value to a policy. Empty means PolicySupport.
func ParseLevelPolicy(s string) (LevelPolicy, error) {
	switch p := LevelPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySupport, nil
	case PolicySupport, PolicyStrict, PolicyNone:
		return p, nil
	default:
		return "", fmt.Errorf("unknown level policy %q", s)
	}
}

// UnlimitedSession disables truncation when used as SelectOptions.SessionLimit.
const UnlimitedSession = -1

type SelectOptions struct {
	DailyGoal int
	// 0 follows DailyGoal, UnlimitedSession keeps everything selected
	SessionLimit int
	Policy       LevelPolicy
}

// Selection is the outcome of SelectQueue before any presentation shuffle.
type Selection struct {
	Reviews     []models.StudyCard
	New         []models.StudyCard
	ReviewQuota int
	NewQuota    int
	limit       int
}

// Queue returns reviews followed by new cards, truncated to the session limit.
func (s Selection) Queue() []models.StudyCard {
	queue := make([]models.StudyCard, 0, len(s.Reviews)+len(s.New))
	queue = append(queue, s.Reviews...)
	queue = append(queue, s.New...)
	if s.limit >= 0 && len(queue) > s.limit {
		queue = queue[:s.limit]
	}
	return queue
}

// Quotas splits a daily goal according to a plan's mix.
func Quotas(dailyGoal int, mix models.Mix) (review, fresh int) {
	if dailyGoal <= 0 {
		return 0, 0
	}
	review = int(math.Round(float64(dailyGoal) * float64(mix.ReviewPct) / 100))
	if review > dailyGoal {
		review = dailyGoal
	}
	if review < 0 {
		review = 0
	}
	fresh = dailyGoal - review
	return review, fresh
}

// SupportCap is the most support-level cards a bucket with the given quota may hold.
func SupportCap(quota, capPct int) int {
	if quota <= 0 || capPct <= 0 {
		return 0
	}
	return quota * capPct / 100
}

// SelectQueue composes a study queue from due and unseen candidates.
// The result depends only on its inputs.
func SelectQueue(due, fresh []models.StudyCard, plan models.DeckPlan, opts SelectOptions) Selection {
	if opts.Policy == "" {
		opts.Policy = PolicySupport
	}
	reviewQuota, newQuota := Quotas(opts.DailyGoal, plan.Mix)

	limit := opts.SessionLimit
	switch {
	case limit == 0:
		limit = opts.DailyGoal
	case limit < 0:
		limit = -1
	}

	dueSorted := sortCandidates(due, plan, func(c models.StudyCard) time.Time { return c.NextReview })
	reviews := pick(dueSorted, reviewQuota, plan.LevelBand, opts.Policy, nil)

	picked := make(map[int64]bool, len(reviews))
	for _, c := range reviews {
		picked[c.ID] = true
	}
	freshSorted := sortCandidates(fresh, plan, func(c models.StudyCard) time.Time { return c.CreatedAt })
	newCards := pick(freshSorted, newQuota, plan.LevelBand, opts.Policy, picked)

	return Selection{
		Reviews:     reviews,
		New:         newCards,
		ReviewQuota: reviewQuota,
		NewQuota:    newQuota,
		limit:       limit,
	}
}

// Shuffle returns a shuffled copy of queue for presentation.
func Shuffle(queue []models.StudyCard, rnd *rand.Rand) []models.StudyCard {
	out := make([]models.StudyCard, len(queue))
	copy(out, queue)
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func pick(sorted []models.StudyCard, quota int, band models.LevelBand, policy LevelPolicy, exclude map[int64]bool) []models.StudyCard {
	if quota <= 0 {
		return nil
	}
	var out []models.StudyCard
	take := func(match func(models.StudyCard) bool, maxN int) {
		n := 0
		for _, c := range sorted {
			if len(out) >= quota || n >= maxN {
				return
			}
			if exclude[c.ID] || !match(c) {
				continue
			}
			out = append(out, c)
			n++
		}
	}

	if policy == PolicyNone {
		take(func(models.StudyCard) bool { return true }, quota)
		return out
	}

	take(func(c models.StudyCard) bool { return c.Word.Level == band.Primary }, quota)

	if policy == PolicySupport && band.Support != "" && len(out) < quota {
		supportMax := SupportCap(quota, band.SupportCapPct)
		if need := quota - len(out); supportMax > need {
			supportMax = need
		}
		take(func(c models.StudyCard) bool { return c.Word.Level == band.Support }, supportMax)
	}
	return out
}

type tagMatch struct {
	focus bool
	avoid bool
}

// before orders focus matches first, then avoid matches last among equals.
func (m tagMatch) before(o tagMatch) (less, decided bool) {
	if m.focus != o.focus {
		return m.focus, true
	}
	if m.avoid != o.avoid {
		return !m.avoid, true
	}
	return false, false
}

func sortCandidates(cards []models.StudyCard, plan models.DeckPlan, when func(models.StudyCard) time.Time) []models.StudyCard {
	focus := lowerAll(plan.FocusTags)
	avoid := lowerAll(plan.AvoidTags)

	matches := make(map[int64]tagMatch, len(cards))
	for _, c := range cards {
		matches[c.ID] = matchTags(c.Word, focus, avoid)
	}

	out := make([]models.StudyCard, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if less, ok := matches[a.ID].before(matches[b.ID]); ok {
			return less
		}
		if ta, tb := when(a), when(b); !ta.Equal(tb) {
			return ta.Before(tb)
		}
		if a.Word.ID != b.Word.ID {
			return a.Word.ID < b.Word.ID
		}
		return a.ID < b.ID
	})
	return out
}

func matchTags(w models.Word, focus, avoid []string) tagMatch {
	fields := []string{strings.ToLower(w.Category), strings.ToLower(w.Subcategory)}
	return tagMatch{focus: matchesAny(fields, focus), avoid: matchesAny(fields, avoid)}
}

func matchesAny(fields, tags []string) bool {
	for _, tag := range tags {
		for _, f := range fields {
			if f != "" && strings.Contains(f, tag) {
				return true
			}
		}
	}
	return false
}

func lowerAll(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

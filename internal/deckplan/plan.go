package deckplan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/example/frenchbot/pkg/models"
)

const (
	// MaxSupportCapPct bounds how much of a quota the support level may fill.
	MaxSupportCapPct = 50

	// SupportAccuracyThreshold: below this accuracy at the current level the default plan adds support.
	SupportAccuracyThreshold = 70

	FallbackRationale = "Fallback plan"
)

var difficultyBiases = map[string]bool{"easy": true, "balanced": true, "hard": true}

// DefaultPlan is used whenever no valid generated or cached plan exists.
// levelAccuracy is the recent accuracy at the current level, nil when unknown.
func DefaultPlan(currentLevel string, levelAccuracy *int) models.DeckPlan {
	primary := NormalizeLevel(currentLevel)
	var support string
	if levelAccuracy != nil && *levelAccuracy < SupportAccuracyThreshold {
		support = OneLevelBelow(primary)
	}
	return models.DeckPlan{
		TargetLevel: primary,
		LevelBand: models.LevelBand{
			Primary:       primary,
			Support:       support,
			SupportCapPct: 20,
		},
		Mix:       models.Mix{ReviewPct: 70, NewPct: 30},
		Rationale: FallbackRationale,
	}
}

// Validate checks a typed plan and returns its normalised form.
func Validate(plan models.DeckPlan) (models.DeckPlan, error) {
	if !IsLevel(plan.TargetLevel) {
		return models.DeckPlan{}, fmt.Errorf("%w: target level %q", ErrInvalidPlan, plan.TargetLevel)
	}
	band := plan.LevelBand
	if !IsLevel(band.Primary) {
		return models.DeckPlan{}, fmt.Errorf("%w: primary level %q", ErrInvalidPlan, band.Primary)
	}
	if band.Support != "" {
		if !IsLevel(band.Support) {
			return models.DeckPlan{}, fmt.Errorf("%w: support level %q", ErrInvalidPlan, band.Support)
		}
		if OneLevelBelow(band.Primary) != band.Support {
			return models.DeckPlan{}, fmt.Errorf("%w: support %s is not one level below %s", ErrInvalidPlan, band.Support, band.Primary)
		}
	}
	if band.SupportCapPct < 0 || band.SupportCapPct > MaxSupportCapPct {
		return models.DeckPlan{}, fmt.Errorf("%w: supportCapPct %d out of range", ErrInvalidPlan, band.SupportCapPct)
	}

	mix := plan.Mix
	if mix.ReviewPct < 0 || mix.NewPct < 0 || mix.ReviewPct+mix.NewPct != 100 {
		return models.DeckPlan{}, fmt.Errorf("%w: mix %d/%d does not sum to 100", ErrInvalidPlan, mix.ReviewPct, mix.NewPct)
	}

	rationale := strings.TrimSpace(plan.Rationale)
	if rationale == "" {
		return models.DeckPlan{}, fmt.Errorf("%w: missing rationale", ErrInvalidPlan)
	}
	if plan.DifficultyBias != "" && !difficultyBiases[plan.DifficultyBias] {
		return models.DeckPlan{}, fmt.Errorf("%w: difficultyBias %q", ErrInvalidPlan, plan.DifficultyBias)
	}

	return models.DeckPlan{
		TargetLevel:    plan.TargetLevel,
		LevelBand:      band,
		Mix:            mix,
		FocusTags:      sanitizeTags(plan.FocusTags),
		AvoidTags:      sanitizeTags(plan.AvoidTags),
		DifficultyBias: plan.DifficultyBias,
		Rationale:      rationale,
	}, nil
}

// rawPlan mirrors models.DeckPlan loosely so missing fields and numeric strings can be told apart.
type rawPlan struct {
	TargetLevel *string `json:"targetLevel"`
	LevelBand   *struct {
		Primary       *string    `json:"primary"`
		Support       *string    `json:"support"`
		SupportCapPct *flexFloat `json:"supportCapPct"`
	} `json:"levelBand"`
	Mix *struct {
		ReviewPct *flexFloat `json:"reviewPct"`
		NewPct    *flexFloat `json:"newPct"`
	} `json:"mix"`
	FocusTags      []interface{} `json:"focusTags"`
	AvoidTags      []interface{} `json:"avoidTags"`
	DifficultyBias *string       `json:"difficultyBias"`
	Rationale      interface{}   `json:"rationale"`
}

// ParsePlan validates free-form advisor or cache text as a deck plan.
// Markdown fences and prose around the JSON object are ignored.
func ParsePlan(text string) (models.DeckPlan, error) {
	body := extractJSONObject(text)
	if body == "" {
		return models.DeckPlan{}, fmt.Errorf("%w: no JSON object found", ErrInvalidPlan)
	}

	var raw rawPlan
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return models.DeckPlan{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	if raw.TargetLevel == nil {
		return models.DeckPlan{}, fmt.Errorf("%w: missing targetLevel", ErrInvalidPlan)
	}
	if raw.LevelBand == nil || raw.LevelBand.Primary == nil {
		return models.DeckPlan{}, fmt.Errorf("%w: missing levelBand.primary", ErrInvalidPlan)
	}
	if raw.Mix == nil {
		return models.DeckPlan{}, fmt.Errorf("%w: missing mix", ErrInvalidPlan)
	}

	capPct, err := wholeNumber("levelBand.supportCapPct", raw.LevelBand.SupportCapPct)
	if err != nil {
		return models.DeckPlan{}, err
	}
	reviewPct, err := wholeNumber("mix.reviewPct", raw.Mix.ReviewPct)
	if err != nil {
		return models.DeckPlan{}, err
	}
	newPct, err := wholeNumber("mix.newPct", raw.Mix.NewPct)
	if err != nil {
		return models.DeckPlan{}, err
	}

	plan := models.DeckPlan{
		TargetLevel: *raw.TargetLevel,
		LevelBand: models.LevelBand{
			Primary:       *raw.LevelBand.Primary,
			SupportCapPct: capPct,
		},
		Mix:       models.Mix{ReviewPct: reviewPct, NewPct: newPct},
		FocusTags: stringEntries(raw.FocusTags),
		AvoidTags: stringEntries(raw.AvoidTags),
	}
	if raw.LevelBand.Support != nil {
		plan.LevelBand.Support = *raw.LevelBand.Support
	}
	if raw.DifficultyBias != nil {
		plan.DifficultyBias = *raw.DifficultyBias
	}
	if s, ok := raw.Rationale.(string); ok {
		plan.Rationale = s
	}

	return Validate(plan)
}

// Encode serialises a plan for the cache.
func Encode(plan models.DeckPlan) (string, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("failed to encode deck plan: %w", err)
	}
	return string(data), nil
}

// Summary is the one-line description shown to the learner.
func Summary(plan models.DeckPlan) string {
	band := plan.LevelBand.Primary
	if plan.LevelBand.Support != "" {
		band += " + " + plan.LevelBand.Support + " support"
	}
	return fmt.Sprintf("Today: %s · %d/%d review/new", band, plan.Mix.ReviewPct, plan.Mix.NewPct)
}

// flexFloat accepts JSON numbers and numeric strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

func wholeNumber(field string, v *flexFloat) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidPlan, field)
	}
	f := float64(*v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be a whole number", ErrInvalidPlan, field)
	}
	return int(f), nil
}

func stringEntries(values []interface{}) []string {
	var out []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

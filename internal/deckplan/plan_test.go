package deckplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/frenchbot/pkg/models"
)

func validPlan() models.DeckPlan {
	return models.DeckPlan{
		TargetLevel: "B1",
		LevelBand:   models.LevelBand{Primary: "B1", Support: "A2", SupportCapPct: 25},
		Mix:         models.Mix{ReviewPct: 60, NewPct: 40},
		FocusTags:   []string{"food", "travel"},
		AvoidTags:   []string{"politics"},
		Rationale:   "Consolidate B1 while keeping A2 warm",
	}
}

func TestPlanRoundTrip(t *testing.T) {
	plan := validPlan()
	plan.DifficultyBias = "balanced"

	encoded, err := Encode(plan)
	require.NoError(t, err)

	parsed, err := ParsePlan(encoded)
	require.NoError(t, err)
	assert.Equal(t, plan, parsed)
}

func TestParsePlanRejectsBadMix(t *testing.T) {
	_, err := ParsePlan(`{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},
		"mix":{"reviewPct":70,"newPct":31},"rationale":"x"}`)
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestParsePlanStripsFencesAndProse(t *testing.T) {
	text := "Here is the plan:\n```json\n" +
		`{"targetLevel":"A2","levelBand":{"primary":"A2","support":"A1","supportCapPct":"20"},` +
		`"mix":{"reviewPct":"70","newPct":30},"focusTags":["  food ", "", 3],"rationale":" ok "}` +
		"\n```\nGood luck!"

	plan, err := ParsePlan(text)
	require.NoError(t, err)
	assert.Equal(t, "A1", plan.LevelBand.Support)
	assert.Equal(t, 20, plan.LevelBand.SupportCapPct)
	assert.Equal(t, 70, plan.Mix.ReviewPct)
	assert.Equal(t, []string{"food"}, plan.FocusTags)
	assert.Nil(t, plan.AvoidTags)
	assert.Equal(t, "ok", plan.Rationale)
}

func TestParsePlanValidation(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", "sorry, I cannot help"},
		{"broken json", `{"targetLevel": "A1",`},
		{"missing target", `{"levelBand":{"primary":"A1","supportCapPct":0},"mix":{"reviewPct":50,"newPct":50},"rationale":"x"}`},
		{"unknown level", `{"targetLevel":"D1","levelBand":{"primary":"D1","supportCapPct":0},"mix":{"reviewPct":50,"newPct":50},"rationale":"x"}`},
		{"support two below", `{"targetLevel":"B2","levelBand":{"primary":"B2","support":"A2","supportCapPct":10},"mix":{"reviewPct":50,"newPct":50},"rationale":"x"}`},
		{"support above", `{"targetLevel":"A2","levelBand":{"primary":"A2","support":"B1","supportCapPct":10},"mix":{"reviewPct":50,"newPct":50},"rationale":"x"}`},
		{"cap too high", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":51},"mix":{"reviewPct":50,"newPct":50},"rationale":"x"}`},
		{"fractional pct", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"mix":{"reviewPct":50.5,"newPct":49.5},"rationale":"x"}`},
		{"negative pct", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"mix":{"reviewPct":-10,"newPct":110},"rationale":"x"}`},
		{"missing mix", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"rationale":"x"}`},
		{"empty rationale", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"mix":{"reviewPct":50,"newPct":50},"rationale":"  "}`},
		{"rationale not a string", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"mix":{"reviewPct":50,"newPct":50},"rationale":5}`},
		{"bad bias", `{"targetLevel":"A2","levelBand":{"primary":"A2","supportCapPct":10},"mix":{"reviewPct":50,"newPct":50},"difficultyBias":"brutal","rationale":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.json)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func TestDefaultPlan(t *testing.T) {
	low := 55
	high := 85

	plan := DefaultPlan("B1", &low)
	assert.Equal(t, "B1", plan.TargetLevel)
	assert.Equal(t, "A2", plan.LevelBand.Support)
	assert.Equal(t, 20, plan.LevelBand.SupportCapPct)
	assert.Equal(t, models.Mix{ReviewPct: 70, NewPct: 30}, plan.Mix)
	assert.Equal(t, FallbackRationale, plan.Rationale)

	assert.Empty(t, DefaultPlan("B1", &high).LevelBand.Support)
	assert.Empty(t, DefaultPlan("B1", nil).LevelBand.Support)

	a0 := DefaultPlan("A0", &low)
	assert.Equal(t, "A1", a0.LevelBand.Primary)
	assert.Empty(t, a0.LevelBand.Support)

	_, err := Validate(plan)
	assert.NoError(t, err)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, "A1", NormalizeLevel("A0"))
	assert.Equal(t, "A1", NormalizeLevel("zz"))
	assert.Equal(t, "C1", NormalizeLevel("C1"))
	assert.Equal(t, "B2", OneLevelBelow("C1"))
	assert.Equal(t, "", OneLevelBelow("A1"))
	assert.Equal(t, "", OneLevelBelow("nope"))
}

func TestAccuracyByLevel(t *testing.T) {
	got := AccuracyByLevel([]models.LevelPerformance{
		{Level: "A1", TimesSeen: 4, TimesCorrect: 3},
		{Level: "A1", TimesSeen: 2, TimesCorrect: 1},
		{Level: "A2", TimesSeen: 3, TimesCorrect: 2},
		{Level: "B1", TimesSeen: 0, TimesCorrect: 0},
		{Level: "", TimesSeen: 5, TimesCorrect: 5},
	})
	assert.Equal(t, map[string]int{"A1": 67, "A2": 67}, got)

	assert.Nil(t, LevelAccuracy(got, "B1"))
	require.NotNil(t, LevelAccuracy(got, "A1"))
	assert.Equal(t, 67, *LevelAccuracy(got, "A1"))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Today: B1 + A2 support · 60/40 review/new", Summary(validPlan()))
}

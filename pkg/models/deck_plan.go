package models

// LevelBand is the level window a day's cards are drawn from.
type LevelBand struct {
	Primary       string `json:"primary"`
	Support       string `json:"support,omitempty"`
	SupportCapPct int    `json:"supportCapPct"`
}

// Mix splits the daily goal between review and new cards.
type Mix struct {
	ReviewPct int `json:"reviewPct"`
	NewPct    int `json:"newPct"`
}

// DeckPlan is the per-user, per-day study plan.
type DeckPlan struct {
	TargetLevel    string    `json:"targetLevel"`
	LevelBand      LevelBand `json:"levelBand"`
	Mix            Mix       `json:"mix"`
	FocusTags      []string  `json:"focusTags,omitempty"`
	AvoidTags      []string  `json:"avoidTags,omitempty"`
	DifficultyBias string    `json:"difficultyBias,omitempty"`
	Rationale      string    `json:"rationale"`
}

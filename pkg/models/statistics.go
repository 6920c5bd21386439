package models

// Statistics summarises a user's deck
type Statistics struct {
	TotalCards    int `json:"total_cards" db:"total_cards"`
	NewCards      int `json:"new_cards" db:"new_cards"`
	LearningCards int `json:"learning_cards" db:"learning_cards"`
	ReviewCards   int `json:"review_cards" db:"review_cards"`
	MasteredCards int `json:"mastered_cards" db:"mastered_cards"`
	BurnedCards   int `json:"burned_cards" db:"burned_cards"`
	DueNow        int `json:"due_now" db:"due_now"`
	TimesSeen     int `json:"times_seen" db:"times_seen"`
	TimesCorrect  int `json:"times_correct" db:"times_correct"`
}

// Accuracy is the lifetime percentage of correct answers, 0 when nothing was answered.
func (s Statistics) Accuracy() int {
	if s.TimesSeen == 0 {
		return 0
	}
	return int(float64(s.TimesCorrect)/float64(s.TimesSeen)*100 + 0.5)
}

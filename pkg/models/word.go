package models

import "time"

// Word is a French vocabulary entry tagged with its CEFR level.
type Word struct {
	ID              int64     `json:"id" db:"id"`
	French          string    `json:"french" db:"french"`
	English         string    `json:"english" db:"english"`
	PartOfSpeech    string    `json:"part_of_speech" db:"part_of_speech"`
	Gender          string    `json:"gender" db:"gender"`
	Level           string    `json:"level" db:"level"`
	Category        string    `json:"category" db:"category"`
	Subcategory     string    `json:"subcategory" db:"subcategory"`
	ExampleSentence string    `json:"example_sentence" db:"example_sentence"`
	Notes           string    `json:"notes" db:"notes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/frenchbot/pkg/models"
)

const wordColumns = `id, french, english, part_of_speech, gender, level, category, subcategory, example_sentence, notes, created_at`

// WordRepository handles database operations for words
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	err := r.db.GetContext(ctx, &word, r.db.Rebind("SELECT "+wordColumns+" FROM words WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", err)
	}
	return &word, nil
}

// Upsert inserts a word or refreshes the entry with the same french text and level.
// It reports whether a new row was created.
func (r *WordRepository) Upsert(ctx context.Context, word *models.Word) (bool, error) {
	var existing int64
	err := r.db.GetContext(ctx, &existing,
		r.db.Rebind("SELECT id FROM words WHERE french = ? AND level = ?"), word.French, word.Level)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if word.CreatedAt.IsZero() {
			word.CreatedAt = time.Now()
		}
		word.CreatedAt = dbTime(word.CreatedAt)
		query := r.db.Rebind(`
			INSERT INTO words (french, english, part_of_speech, gender, level, category, subcategory, example_sentence, notes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`)
		err = r.db.QueryRowxContext(ctx, query,
			word.French, word.English, word.PartOfSpeech, word.Gender, word.Level,
			word.Category, word.Subcategory, word.ExampleSentence, word.Notes, word.CreatedAt,
		).Scan(&word.ID)
		if err != nil {
			return false, fmt.Errorf("failed to create word: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up word: %w", err)
	}

	word.ID = existing
	query := r.db.Rebind(`
		UPDATE words SET
			english = ?, part_of_speech = ?, gender = ?, category = ?,
			subcategory = ?, example_sentence = ?, notes = ?
		WHERE id = ?`)
	_, err = r.db.ExecContext(ctx, query,
		word.English, word.PartOfSpeech, word.Gender, word.Category,
		word.Subcategory, word.ExampleSentence, word.Notes, word.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update word: %w", err)
	}
	return false, nil
}

// CountByLevel returns how many words exist at each level.
func (r *WordRepository) CountByLevel(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Level string `db:"level"`
		Total int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT level, COUNT(*) AS total FROM words GROUP BY level"); err != nil {
		return nil, fmt.Errorf("failed to count words: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Level] = row.Total
	}
	return out, nil
}

// Unassigned returns words at the given levels the user has no card for yet, oldest first.
func (r *WordRepository) Unassigned(ctx context.Context, userID int64, levels []string, limit int) ([]models.Word, error) {
	if limit <= 0 || len(levels) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+wordColumns+` FROM words
		WHERE level IN (?)
		  AND id NOT IN (SELECT word_id FROM user_cards WHERE user_id = ?)
		ORDER BY id
		LIMIT ?`, levels, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build unassigned query: %w", err)
	}

	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get unassigned words: %w", err)
	}
	return words, nil
}

// Distractors returns English translations of other words, preferring the same level.
func (r *WordRepository) Distractors(ctx context.Context, wordID int64, level string, count int) ([]string, error) {
	query := r.db.Rebind(`
		SELECT english FROM words
		WHERE id <> ? AND english <> (SELECT english FROM words WHERE id = ?)
		ORDER BY CASE WHEN level = ? THEN 0 ELSE 1 END, RANDOM()
		LIMIT ?`)

	var out []string
	if err := r.db.SelectContext(ctx, &out, query, wordID, wordID, level, count*3); err != nil {
		return nil, fmt.Errorf("failed to get distractors: %w", err)
	}

	seen := make(map[string]bool, len(out))
	unique := out[:0]
	for _, s := range out {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	if len(unique) > count {
		unique = unique[:count]
	}
	return unique, nil
}

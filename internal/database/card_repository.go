package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/frenchbot/internal/spaced_repetition"
	"github.com/example/frenchbot/pkg/models"
)

const studyCardColumns = `
	c.id, c.user_id, c.word_id, c.ease_factor, c.interval_days, c.repetition,
	c.next_review, c.last_review, c.times_seen, c.times_correct, c.times_wrong,
	c.status, c.mnemonic, c.created_at, c.updated_at,
	w.id AS "word.id", w.french AS "word.french", w.english AS "word.english",
	w.part_of_speech AS "word.part_of_speech", w.gender AS "word.gender", w.level AS "word.level",
	w.category AS "word.category", w.subcategory AS "word.subcategory",
	w.example_sentence AS "word.example_sentence", w.notes AS "word.notes", w.created_at AS "word.created_at"`

// CardRepository stores the per-user scheduling state of words.
type CardRepository struct {
	db *sqlx.DB
}

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// AssignWords creates new cards for the given words, due at now.
// Words the user already has are skipped. It returns how many cards were created.
func (r *CardRepository) AssignWords(ctx context.Context, userID int64, wordIDs []int64, now time.Time) (int, error) {
	if len(wordIDs) == 0 {
		return 0, nil
	}
	state := spaced_repetition.NewState(dbTime(now))
	query := r.db.Rebind(`
		INSERT INTO user_cards (user_id, word_id, ease_factor, interval_days, repetition, next_review, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word_id) DO NOTHING`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := 0
	for i, wordID := range wordIDs {
		// Spread creation times so assignment order survives the created_at sort.
		createdAt := state.NextReview.Add(time.Duration(i) * time.Second)
		res, err := tx.ExecContext(ctx, query,
			userID, wordID, state.EaseFactor, state.IntervalDays, state.Repetition,
			state.NextReview, models.StatusNew, createdAt, createdAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to assign word %d: %w", wordID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit card assignment: %w", err)
	}
	return created, nil
}

// GetStudyCard returns one of the user's cards joined with its word.
func (r *CardRepository) GetStudyCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error) {
	var card models.StudyCard
	query := r.db.Rebind(`SELECT ` + studyCardColumns + `
		FROM user_cards c JOIN words w ON w.id = c.word_id
		WHERE c.user_id = ? AND c.id = ?`)
	err := r.db.GetContext(ctx, &card, query, userID, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// DueCards returns seen, unburned cards due at now, oldest due date first.
// An empty levels slice disables the level filter.
func (r *CardRepository) DueCards(ctx context.Context, userID int64, now time.Time, levels []string, limit int) ([]models.StudyCard, error) {
	return r.selectCards(ctx, userID, `c.times_seen > 0 AND c.next_review <= ?`, []interface{}{dbTime(now)},
		`c.next_review, c.word_id`, levels, limit)
}

// NewCards returns unseen, unburned cards in assignment order.
func (r *CardRepository) NewCards(ctx context.Context, userID int64, levels []string, limit int) ([]models.StudyCard, error) {
	return r.selectCards(ctx, userID, `c.times_seen = 0`, nil, `c.created_at, c.word_id`, levels, limit)
}

func (r *CardRepository) selectCards(ctx context.Context, userID int64, cond string, condArgs []interface{}, order string, levels []string, limit int) ([]models.StudyCard, error) {
	query := `SELECT ` + studyCardColumns + `
		FROM user_cards c JOIN words w ON w.id = c.word_id
		WHERE c.user_id = ? AND c.status <> ? AND ` + cond
	args := append([]interface{}{userID, models.StatusBurned}, condArgs...)
	if len(levels) > 0 {
		query += ` AND w.level IN (?)`
		args = append(args, levels)
	}
	query += ` ORDER BY ` + order + ` LIMIT ?`
	args = append(args, limit)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to build card query: %w", err)
	}

	var cards []models.StudyCard
	if err := r.db.SelectContext(ctx, &cards, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return cards, nil
}

// Update writes the full scheduling state and counters of a card.
func (r *CardRepository) Update(ctx context.Context, card *models.Card, now time.Time) error {
	card.UpdatedAt = dbTime(now)
	card.NextReview = dbTime(card.NextReview)
	if card.LastReview != nil {
		last := dbTime(*card.LastReview)
		card.LastReview = &last
	}

	query := r.db.Rebind(`
		UPDATE user_cards SET
			ease_factor = ?, interval_days = ?, repetition = ?, next_review = ?, last_review = ?,
			times_seen = ?, times_correct = ?, times_wrong = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		card.EaseFactor, card.IntervalDays, card.Repetition, card.NextReview, card.LastReview,
		card.TimesSeen, card.TimesCorrect, card.TimesWrong, card.Status, card.UpdatedAt,
		card.ID, card.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMnemonic caches a generated memory hint on the card.
func (r *CardRepository) SetMnemonic(ctx context.Context, userID, cardID int64, mnemonic string) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`UPDATE user_cards SET mnemonic = ? WHERE id = ? AND user_id = ?`),
		mnemonic, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to save mnemonic: %w", err)
	}
	return nil
}

// LevelPerformance returns counters of the user's most recently updated cards tagged with their level.
func (r *CardRepository) LevelPerformance(ctx context.Context, userID int64, limit int) ([]models.LevelPerformance, error) {
	query := r.db.Rebind(`
		SELECT w.level, c.times_seen, c.times_correct
		FROM user_cards c JOIN words w ON w.id = c.word_id
		WHERE c.user_id = ?
		ORDER BY c.updated_at DESC, c.id DESC
		LIMIT ?`)
	var perf []models.LevelPerformance
	if err := r.db.SelectContext(ctx, &perf, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to get level performance: %w", err)
	}
	return perf, nil
}

// Statistics summarises the user's deck at now.
func (r *CardRepository) Statistics(ctx context.Context, userID int64, now time.Time) (*models.Statistics, error) {
	query := r.db.Rebind(`
		SELECT
			COUNT(*) AS total_cards,
			COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0) AS new_cards,
			COALESCE(SUM(CASE WHEN status = 'learning' THEN 1 ELSE 0 END), 0) AS learning_cards,
			COALESCE(SUM(CASE WHEN status = 'review' THEN 1 ELSE 0 END), 0) AS review_cards,
			COALESCE(SUM(CASE WHEN status = 'mastered' THEN 1 ELSE 0 END), 0) AS mastered_cards,
			COALESCE(SUM(CASE WHEN status = 'burned' THEN 1 ELSE 0 END), 0) AS burned_cards,
			COALESCE(SUM(CASE WHEN status <> 'burned' AND times_seen > 0 AND next_review <= ? THEN 1 ELSE 0 END), 0) AS due_now,
			COALESCE(SUM(times_seen), 0) AS times_seen,
			COALESCE(SUM(times_correct), 0) AS times_correct
		FROM user_cards
		WHERE user_id = ?`)
	var stats models.Statistics
	if err := r.db.GetContext(ctx, &stats, query, dbTime(now), userID); err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}

// CountDue returns how many seen cards are due at now.
func (r *CardRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM user_cards
		WHERE user_id = ? AND status <> ? AND times_seen > 0 AND next_review <= ?`)
	if err := r.db.GetContext(ctx, &n, query, userID, models.StatusBurned, dbTime(now)); err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return n, nil
}

// VerificationCandidates returns mastered and review cards, least recently reviewed first.
func (r *CardRepository) VerificationCandidates(ctx context.Context, userID int64, limit int) ([]models.StudyCard, error) {
	query, args, err := sqlx.In(`SELECT `+studyCardColumns+`
		FROM user_cards c JOIN words w ON w.id = c.word_id
		WHERE c.user_id = ? AND c.status IN (?)
		ORDER BY CASE WHEN c.last_review IS NULL THEN 0 ELSE 1 END, c.last_review, c.id
		LIMIT ?`,
		userID, []models.CardStatus{models.StatusMastered, models.StatusReview}, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build verification query: %w", err)
	}
	var cards []models.StudyCard
	if err := r.db.SelectContext(ctx, &cards, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get verification cards: %w", err)
	}
	return cards, nil
}

package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/frenchbot/pkg/models"
)

var now = time.Date(2025, 4, 2, 14, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, id int64) *models.User {
	t.Helper()
	user, err := NewUserRepository(db).Ensure(context.Background(), &models.User{ID: id, Username: "marie", NotificationEnabled: true, NotificationHour: 9})
	require.NoError(t, err)
	return user
}

func seedWord(t *testing.T, db *sqlx.DB, french, english, level, category string) int64 {
	t.Helper()
	w := &models.Word{French: french, English: english, Level: level, Category: category, CreatedAt: now}
	_, err := NewWordRepository(db).Upsert(context.Background(), w)
	require.NoError(t, err)
	return w.ID
}

func TestWordUpsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewWordRepository(db)
	ctx := context.Background()

	w := &models.Word{French: "pomme", English: "apple", Level: "A1", Category: "food"}
	created, err := repo.Upsert(ctx, w)
	require.NoError(t, err)
	assert.True(t, created)

	again := &models.Word{French: "pomme", English: "an apple", Level: "A1", Notes: "feminine"}
	created, err = repo.Upsert(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, w.ID, again.ID)

	stored, err := repo.GetByID(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "an apple", stored.English)
	assert.Equal(t, "feminine", stored.Notes)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	counts, err := repo.CountByLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A1": 1}, counts)
}

func TestUnassignedAndDistractors(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1)
	ctx := context.Background()

	a := seedWord(t, db, "chat", "cat", "A1", "animals")
	b := seedWord(t, db, "chien", "dog", "A1", "animals")
	seedWord(t, db, "cheval", "horse", "A2", "animals")
	seedWord(t, db, "loi", "law", "B2", "politics")

	_, err := NewCardRepository(db).AssignWords(ctx, 1, []int64{a}, now)
	require.NoError(t, err)

	words, err := NewWordRepository(db).Unassigned(ctx, 1, []string{"A1", "A2"}, 10)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, b, words[0].ID)
	assert.Equal(t, "cheval", words[1].French)

	distractors, err := NewWordRepository(db).Distractors(ctx, a, "A1", 3)
	require.NoError(t, err)
	assert.Len(t, distractors, 3)
	assert.Equal(t, "dog", distractors[0])
	assert.NotContains(t, distractors, "cat")
}

func TestCardLifecycle(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1)
	ctx := context.Background()
	cards := NewCardRepository(db)

	w1 := seedWord(t, db, "pain", "bread", "A1", "food")
	w2 := seedWord(t, db, "fromage", "cheese", "A2", "food")
	w3 := seedWord(t, db, "vin", "wine", "A1", "food")

	n, err := cards.AssignWords(ctx, 1, []int64{w1, w2, w3}, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = cards.AssignWords(ctx, 1, []int64{w1}, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	fresh, err := cards.NewCards(ctx, 1, []string{"A1"}, 10)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	assert.Equal(t, "pain", fresh[0].Word.French)
	assert.Equal(t, "vin", fresh[1].Word.French)
	assert.Equal(t, models.StatusNew, fresh[0].Status)
	assert.Equal(t, 2.5, fresh[0].EaseFactor)

	all, err := cards.NewCards(ctx, 1, nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Review the first card: it becomes due tomorrow.
	c := fresh[0].Card
	last := now
	c.TimesSeen, c.TimesCorrect = 1, 1
	c.Repetition, c.IntervalDays = 1, 1
	c.NextReview = now.AddDate(0, 0, 1)
	c.LastReview = &last
	c.Status = models.StatusLearning
	require.NoError(t, cards.Update(ctx, &c, now))

	due, err := cards.DueCards(ctx, 1, now, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = cards.DueCards(ctx, 1, now.AddDate(0, 0, 2), []string{"A1"}, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, c.ID, due[0].ID)
	assert.Equal(t, 1, due[0].Repetition)
	require.NotNil(t, due[0].LastReview)
	assert.True(t, now.Equal(*due[0].LastReview))

	got, err := cards.GetStudyCard(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "bread", got.Word.English)

	_, err = cards.GetStudyCard(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, cards.SetMnemonic(ctx, 1, c.ID, "bread rhymes with pain"))
	got, err = cards.GetStudyCard(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "bread rhymes with pain", got.Mnemonic)

	// Burned cards are never candidates.
	c.Status = models.StatusBurned
	require.NoError(t, cards.Update(ctx, &c, now))
	due, err = cards.DueCards(ctx, 1, now.AddDate(0, 0, 2), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	stats, err := cards.Statistics(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 2, stats.NewCards)
	assert.Equal(t, 1, stats.BurnedCards)
	assert.Equal(t, 100, stats.Accuracy())

	missing := models.Card{ID: 999, UserID: 1}
	assert.ErrorIs(t, cards.Update(ctx, &missing, now), ErrNotFound)
}

func TestLevelPerformanceAndVerificationCandidates(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1)
	ctx := context.Background()
	cards := NewCardRepository(db)

	ids := []int64{
		seedWord(t, db, "un", "one", "A1", "numbers"),
		seedWord(t, db, "deux", "two", "A1", "numbers"),
		seedWord(t, db, "trois", "three", "A2", "numbers"),
	}
	_, err := cards.AssignWords(ctx, 1, ids, now)
	require.NoError(t, err)

	list, err := cards.NewCards(ctx, 1, nil, 10)
	require.NoError(t, err)
	statuses := []models.CardStatus{models.StatusMastered, models.StatusReview, models.StatusLearning}
	for i, sc := range list {
		c := sc.Card
		last := now.Add(-time.Duration(i+1) * time.Hour)
		c.LastReview = &last
		c.TimesSeen, c.TimesCorrect = 4, i+1
		c.Status = statuses[i]
		require.NoError(t, cards.Update(ctx, &c, now.Add(time.Duration(i)*time.Minute)))
	}

	perf, err := cards.LevelPerformance(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, perf, 2)
	assert.Equal(t, "A2", perf[0].Level)
	assert.Equal(t, 3, perf[0].TimesCorrect)

	candidates, err := cards.VerificationCandidates(ctx, 1, 8)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	// "deux" was reviewed longer ago than "un".
	assert.Equal(t, "deux", candidates[0].Word.French)
	assert.Equal(t, "un", candidates[1].Word.French)

	due, err := cards.CountDue(ctx, 1, now)
	require.NoError(t, err)
	assert.Equal(t, 3, due)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, 42)
	assert.Equal(t, "A1", user.CurrentLevel)
	assert.Equal(t, 20, user.DailyGoal)
	assert.False(t, user.SessionLimit.Valid)

	user.CurrentLevel = "B1"
	user.DailyGoal = 30
	user.SessionLimit = sql.NullInt64{Int64: 999, Valid: true}
	require.NoError(t, repo.UpdateStudySettings(ctx, user))

	// A second /start keeps study settings.
	again, err := repo.Ensure(ctx, &models.User{ID: 42, Username: "marie_d"})
	require.NoError(t, err)
	assert.Equal(t, "marie_d", again.Username)
	assert.Equal(t, "B1", again.CurrentLevel)
	assert.Equal(t, int64(999), again.SessionLimit.Int64)

	require.NoError(t, repo.UpdateStreak(ctx, 42, 3, 5, "2025-04-02"))
	require.NoError(t, repo.UpdateNotification(ctx, 42, true, 18))

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 5, got.LongestStreak)
	assert.Equal(t, "2025-04-02", got.LastStudyDate.String)

	users, err := repo.GetUsersForNotification(ctx, 18)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(42), users[0].ID)

	users, err = repo.GetUsersForNotification(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = repo.GetByID(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateNotification(ctx, 7, false, 1), ErrNotFound)
}

func TestPlanRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1)
	repo := NewPlanRepository(db)
	ctx := context.Background()

	_, ok, err := repo.LoadPlan(ctx, 1, "2025-04-02")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SavePlan(ctx, 1, "2025-04-02", `{"v":1}`))
	require.NoError(t, repo.SavePlan(ctx, 1, "2025-04-02", `{"v":2}`))

	content, ok, err := repo.LoadPlan(ctx, 1, "2025-04-02")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"v":2}`, content)

	_, ok, err = repo.LoadPlan(ctx, 1, "2025-04-03")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActivityAndReviews(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1)
	ctx := context.Background()

	activity := NewActivityRepository(db)
	require.NoError(t, activity.RecordSession(ctx, 1, "2025-04-02", 10, 7, 4))
	require.NoError(t, activity.RecordSession(ctx, 1, "2025-04-02", 5, 5, 2))

	day, err := activity.Get(ctx, 1, "2025-04-02")
	require.NoError(t, err)
	assert.Equal(t, 15, day.CardsReviewed)
	assert.Equal(t, 12, day.CardsCorrect)
	assert.Equal(t, 6, day.StudyMinutes)
	assert.Equal(t, 2, day.SessionsCount)

	empty, err := activity.Get(ctx, 1, "2025-04-01")
	require.NoError(t, err)
	assert.Zero(t, empty.SessionsCount)

	wordID := seedWord(t, db, "eau", "water", "A1", "food")
	_, err = NewCardRepository(db).AssignWords(ctx, 1, []int64{wordID}, now)
	require.NoError(t, err)
	list, err := NewCardRepository(db).NewCards(ctx, 1, nil, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	reviews := NewReviewRepository(db)
	for i, q := range []int{5, 2, 4} {
		r := &models.CardReview{UserID: 1, CardID: list[0].ID, Quality: q, ReviewedAt: now.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, reviews.Create(ctx, r))
		assert.NotZero(t, r.ID)
	}

	total, correct, err := reviews.PeriodStats(ctx, 1, now, now.Add(2*time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, correct)
}

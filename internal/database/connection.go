package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/frenchbot/internal/config"
)

const (
	driverSQLite   = "sqlite3"
	driverPostgres = "postgres"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("database: not found")

// Connect opens the database selected by cfg and makes sure the schema exists.
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.DBType {
	case config.DBTypePostgres:
		return Open(driverPostgres, cfg.DatabaseURL)
	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return Open(driverSQLite, cfg.DBPath)
	}
}

// Open connects with the given driver and creates missing tables.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == driverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory SQLite database.
func OpenMemory() (*sqlx.DB, error) {
	return Open(driverSQLite, ":memory:")
}

var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT false,
			current_level TEXT NOT NULL DEFAULT 'A1',
			daily_goal INTEGER NOT NULL DEFAULT 20,
			daily_new_words INTEGER NOT NULL DEFAULT 10,
			session_limit INTEGER,
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_study_date TEXT,
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL
		)`},
	{"words", `
		CREATE TABLE IF NOT EXISTS words (
			id {{serial}},
			french TEXT NOT NULL,
			english TEXT NOT NULL,
			part_of_speech TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			subcategory TEXT NOT NULL DEFAULT '',
			example_sentence TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL,
			UNIQUE(french, level)
		)`},
	{"user_cards", `
		CREATE TABLE IF NOT EXISTS user_cards (
			id {{serial}},
			user_id BIGINT NOT NULL REFERENCES users(id),
			word_id BIGINT NOT NULL REFERENCES words(id),
			ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetition INTEGER NOT NULL DEFAULT 0,
			next_review {{ts}} NOT NULL,
			last_review {{ts}},
			times_seen INTEGER NOT NULL DEFAULT 0,
			times_correct INTEGER NOT NULL DEFAULT 0,
			times_wrong INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'new',
			mnemonic TEXT NOT NULL DEFAULT '',
			created_at {{ts}} NOT NULL,
			updated_at {{ts}} NOT NULL,
			UNIQUE(user_id, word_id)
		)`},
	{"user_cards_due_index", `CREATE INDEX IF NOT EXISTS idx_user_cards_due ON user_cards(user_id, next_review)`},
	{"deck_plans", `
		CREATE TABLE IF NOT EXISTS deck_plans (
			user_id BIGINT NOT NULL REFERENCES users(id),
			plan_day TEXT NOT NULL,
			plan TEXT NOT NULL,
			updated_at {{ts}} NOT NULL,
			PRIMARY KEY (user_id, plan_day)
		)`},
	{"daily_activity", `
		CREATE TABLE IF NOT EXISTS daily_activity (
			id {{serial}},
			user_id BIGINT NOT NULL REFERENCES users(id),
			activity_date TEXT NOT NULL,
			cards_reviewed INTEGER NOT NULL DEFAULT 0,
			cards_correct INTEGER NOT NULL DEFAULT 0,
			study_minutes INTEGER NOT NULL DEFAULT 0,
			sessions_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(user_id, activity_date)
		)`},
	{"card_reviews", `
		CREATE TABLE IF NOT EXISTS card_reviews (
			id {{serial}},
			user_id BIGINT NOT NULL REFERENCES users(id),
			card_id BIGINT NOT NULL REFERENCES user_cards(id),
			quality INTEGER NOT NULL,
			reviewed_at {{ts}} NOT NULL
		)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	serial, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "TIMESTAMP"
	if db.DriverName() == driverPostgres {
		serial, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMPTZ"
	}
	replacer := strings.NewReplacer("{{serial}}", serial, "{{ts}}", ts)

	for _, t := range schema {
		if _, err := db.Exec(replacer.Replace(t.ddl)); err != nil {
			return fmt.Errorf("failed to create %s: %w", t.name, err)
		}
	}
	return nil
}

// dbTime normalises timestamps before they are written or compared.
// SQLite compares them as text, so every value must share one zone and precision.
func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Package study runs study sessions: it builds the day's queue, records answers
// and keeps streaks and daily activity.
package study

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/internal/spaced_repetition"
	"github.com/example/frenchbot/pkg/models"
)

var (
	ErrCardNotFound   = errors.New("study: card not found")
	ErrUserNotFound   = errors.New("study: user not found")
	ErrCardBurned     = errors.New("study: card is burned")
	ErrInvalidSetting = errors.New("study: invalid setting")
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateStudySettings(ctx context.Context, user *models.User) error
	UpdateStreak(ctx context.Context, userID int64, current, longest int, lastStudyDate string) error
}

type CardStore interface {
	AssignWords(ctx context.Context, userID int64, wordIDs []int64, now time.Time) (int, error)
	GetStudyCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error)
	DueCards(ctx context.Context, userID int64, now time.Time, levels []string, limit int) ([]models.StudyCard, error)
	NewCards(ctx context.Context, userID int64, levels []string, limit int) ([]models.StudyCard, error)
	Update(ctx context.Context, card *models.Card, now time.Time) error
	SetMnemonic(ctx context.Context, userID, cardID int64, mnemonic string) error
	LevelPerformance(ctx context.Context, userID int64, limit int) ([]models.LevelPerformance, error)
	Statistics(ctx context.Context, userID int64, now time.Time) (*models.Statistics, error)
}

type WordStore interface {
	Unassigned(ctx context.Context, userID int64, levels []string, limit int) ([]models.Word, error)
}

type ActivityStore interface {
	RecordSession(ctx context.Context, userID int64, day string, reviewed, correct, minutes int) error
	Get(ctx context.Context, userID int64, day string) (*models.DailyActivity, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.CardReview) error
	PeriodStats(ctx context.Context, userID int64, from, to time.Time, passThreshold int) (total, correct int, err error)
}

// HintGenerator produces a memory hint for a word. It must not fail.
type HintGenerator interface {
	GenerateMnemonicWithFallback(ctx context.Context, word models.Word) string
}

// Stores groups the persistence dependencies of the service.
type Stores struct {
	Users    UserStore
	Cards    CardStore
	Words    WordStore
	Activity ActivityStore
	Reviews  ReviewStore
}

type Options struct {
	Policy   deckplan.LevelPolicy
	Shuffle  bool
	Burn     spaced_repetition.BurnPolicy
	Location *time.Location
	// Hints may be nil, stored word data is used instead
	Hints HintGenerator
	Rand  *rand.Rand
}

// Service implements study sessions on top of the stores, the planner and the Reviewer.
type Service struct {
	users    UserStore
	cards    CardStore
	words    WordStore
	activity ActivityStore
	reviews  ReviewStore
	planner  *deckplan.Planner
	sm2      *spaced_repetition.SM2
	burn     spaced_repetition.BurnPolicy
	policy   deckplan.LevelPolicy
	shuffle  bool
	hints    HintGenerator
	loc      *time.Location
	clock    clock.Clock
	log      *logger.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewService wires a study service.
func NewService(stores Stores, planner *deckplan.Planner, clk clock.Clock, opts Options, log *logger.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Policy == "" {
		opts.Policy = deckplan.PolicySupport
	}
	if opts.Burn == (spaced_repetition.BurnPolicy{}) {
		opts.Burn = spaced_repetition.DefaultBurnPolicy()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		users:    stores.Users,
		cards:    stores.Cards,
		words:    stores.Words,
		activity: stores.Activity,
		reviews:  stores.Reviews,
		planner:  planner,
		sm2:      spaced_repetition.NewSM2(),
		burn:     opts.Burn,
		policy:   opts.Policy,
		shuffle:  opts.Shuffle,
		hints:    opts.Hints,
		loc:      opts.Location,
		clock:    clk,
		log:      log.With("component", "study"),
		rnd:      opts.Rand,
	}
}

// Today is the current day key in the service's timezone.
func (s *Service) Today() string {
	return clock.DayKey(s.clock.Now(), s.loc)
}

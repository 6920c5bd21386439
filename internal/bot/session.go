package bot

import (
	"sync"
	"time"

	"github.com/example/frenchbot/internal/verify"
	"github.com/example/frenchbot/pkg/models"
)

// studyState walks one study queue.
type studyState struct {
	cards    []models.StudyCard
	pos      int
	reviewed int
	correct  int
	started  time.Time
	// set while an answer for the current card is being saved
	busy bool
}

func (s *studyState) current() (models.StudyCard, bool) {
	if s == nil || s.pos >= len(s.cards) {
		return models.StudyCard{}, false
	}
	return s.cards[s.pos], true
}

// isCurrent reports whether cardID is the card on screen and free to answer.
func (s *studyState) isCurrent(cardID int64) bool {
	c, ok := s.current()
	return ok && c.ID == cardID && !s.busy
}

func (s *studyState) advance() {
	s.pos++
	s.busy = false
}

// record counts an answered card and moves on.
func (s *studyState) record(correct bool) {
	s.reviewed++
	if correct {
		s.correct++
	}
	s.advance()
}

// recordBurn counts a burned card as reviewed but not correct.
func (s *studyState) recordBurn() {
	s.record(false)
}

func (s *studyState) done() bool {
	return s == nil || s.pos >= len(s.cards)
}

// verifyState walks one verification quiz.
type verifyState struct {
	questions []verify.Question
	pos       int
	confirmed int
	demoted   int
	busy      bool
}

func (v *verifyState) current() (verify.Question, bool) {
	if v == nil || v.pos >= len(v.questions) {
		return verify.Question{}, false
	}
	return v.questions[v.pos], true
}

func (v *verifyState) done() bool {
	return v == nil || v.pos >= len(v.questions)
}

type userSession struct {
	study          *studyState
	verify         *verifyState
	awaitingImport bool
	touched        time.Time
}

// sessionStore keeps per-user conversation state. All access goes through update.
type sessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	users map[int64]*userSession
}

func newSessionStore(ttl time.Duration, now func() time.Time) *sessionStore {
	if now == nil {
		now = time.Now
	}
	return &sessionStore{ttl: ttl, now: now, users: make(map[int64]*userSession)}
}

// update runs fn on the user's session under the store lock. Expired sessions start over.
func (s *sessionStore) update(userID int64, fn func(us *userSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	us, ok := s.users[userID]
	if !ok || (s.ttl > 0 && now.Sub(us.touched) > s.ttl) {
		us = &userSession{}
		s.users[userID] = us
	}
	us.touched = now
	fn(us)
}

// sweep drops sessions idle for longer than the ttl and returns how many were dropped.
func (s *sessionStore) sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	dropped := 0
	for id, us := range s.users {
		if now.Sub(us.touched) > s.ttl {
			delete(s.users, id)
			dropped++
		}
	}
	return dropped
}

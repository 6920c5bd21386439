package study

import (
	"context"
	"errors"
	"time"

	"github.com/example/frenchbot/internal/ai"
	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/internal/spaced_repetition"
	"github.com/example/frenchbot/pkg/models"
)

// Outcome describes what one answer did to a card.
type Outcome struct {
	Card      models.StudyCard
	Quality   spaced_repetition.QualityResponse
	IsCorrect bool
	Status    models.CardStatus
	Burned    bool
	// NewlyMastered is set when this answer moved the card into mastered
	NewlyMastered bool
}

// SubmitAnswer rates a card, reschedules it and records the rating.
func (s *Service) SubmitAnswer(ctx context.Context, userID, cardID int64, quality int) (*Outcome, error) {
	q, err := spaced_repetition.ParseQuality(quality)
	if err != nil {
		return nil, err
	}
	card, err := s.loadCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card.Status == models.StatusBurned {
		return nil, ErrCardBurned
	}

	now := s.clock.Now()
	res, err := s.sm2.Schedule(spaced_repetition.StateOf(card.Card), q, now)
	if err != nil {
		return nil, err
	}
	previous := card.Status
	status := s.burn.FinalStatus(res, card.TimesCorrect)

	spaced_repetition.Apply(&card.Card, res.State)
	card.Status = status
	card.TimesSeen++
	if res.IsCorrect {
		card.TimesCorrect++
	} else {
		card.TimesWrong++
	}

	if err := s.cards.Update(ctx, &card.Card, now); err != nil {
		return nil, s.cardError(err)
	}

	review := &models.CardReview{UserID: userID, CardID: cardID, Quality: int(q), ReviewedAt: now}
	if err := s.reviews.Create(ctx, review); err != nil {
		s.log.Warn("failed to log review", "user_id", userID, "card_id", cardID, "error", err)
	}

	s.log.Debug("answer recorded", "user_id", userID, "card_id", cardID,
		"quality", int(q), "status", status, "interval", card.IntervalDays)

	return &Outcome{
		Card:          *card,
		Quality:       q,
		IsCorrect:     res.IsCorrect,
		Status:        status,
		Burned:        status == models.StatusBurned,
		NewlyMastered: status == models.StatusMastered && previous != models.StatusMastered,
	}, nil
}

// BurnCard retires a card from rotation without going through the Reviewer.
func (s *Service) BurnCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error) {
	return s.mutate(ctx, userID, cardID, func(card *models.Card, now time.Time) {
		card.Status = models.StatusBurned
		card.IntervalDays = spaced_repetition.BurnedInterval
		card.NextReview = spaced_repetition.DueAfter(now, spaced_repetition.BurnedInterval)
	})
}

// DemoteCard sends a card back to learning, due now.
func (s *Service) DemoteCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error) {
	return s.mutate(ctx, userID, cardID, func(card *models.Card, now time.Time) {
		spaced_repetition.Apply(card, spaced_repetition.Demote(spaced_repetition.StateOf(*card), now))
		card.Status = models.StatusLearning
	})
}

// ResetCard forgets all progress on a card, including a burn.
func (s *Service) ResetCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error) {
	return s.mutate(ctx, userID, cardID, func(card *models.Card, now time.Time) {
		spaced_repetition.Apply(card, spaced_repetition.NewState(now))
		card.Status = models.StatusNew
		card.TimesSeen = 0
		card.TimesCorrect = 0
		card.TimesWrong = 0
	})
}

// Hint returns the card's memory hint, generating and caching one on first use.
func (s *Service) Hint(ctx context.Context, userID, cardID int64) (string, error) {
	card, err := s.loadCard(ctx, userID, cardID)
	if err != nil {
		return "", err
	}
	if card.Mnemonic != "" {
		return card.Mnemonic, nil
	}
	if s.hints == nil {
		return ai.FallbackHint(card.Word), nil
	}

	hint := s.hints.GenerateMnemonicWithFallback(ctx, card.Word)
	if err := s.cards.SetMnemonic(ctx, userID, cardID, hint); err != nil {
		s.log.Warn("failed to cache mnemonic", "card_id", cardID, "error", err)
	}
	return hint, nil
}

func (s *Service) mutate(ctx context.Context, userID, cardID int64, fn func(card *models.Card, now time.Time)) (*models.StudyCard, error) {
	card, err := s.loadCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	fn(&card.Card, now)
	if err := s.cards.Update(ctx, &card.Card, now); err != nil {
		return nil, s.cardError(err)
	}
	return card, nil
}

func (s *Service) loadCard(ctx context.Context, userID, cardID int64) (*models.StudyCard, error) {
	card, err := s.cards.GetStudyCard(ctx, userID, cardID)
	if err != nil {
		return nil, s.cardError(err)
	}
	return card, nil
}

func (s *Service) cardError(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrCardNotFound
	}
	return err
}

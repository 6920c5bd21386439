package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/pkg/models"
)

// runTimeout bounds one reminder sweep.
const runTimeout = 5 * time.Minute

// Notifier sends the reminder message
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, dueCount int) error
}

type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

type DueCounter interface {
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
}

type Config struct {
	Location  *time.Location
	StartHour int
	EndHour   int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	cards     DueCounter
	clock     clock.Clock
	cfg       Config
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(notifier Notifier, users UserSource, cards DueCounter, clk clock.Clock, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if clk == nil {
		clk = clock.System{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		notifier:  notifier,
		users:     users,
		cards:     cards,
		clock:     clk,
		cfg:       cfg,
		log:       log.With("component", "scheduler"),
	}
}

// Start runs the reminder sweep at the top of every hour
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron("0 * * * *").Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.CheckAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("scheduler started", "timezone", s.cfg.Location.String(),
		"start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckAndSendReminders notifies users whose reminder hour is now and who have due cards.
// It returns how many reminders were sent.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) int {
	now := s.clock.Now()
	hour := now.In(s.cfg.Location).Hour()
	if hour < s.cfg.StartHour || hour > s.cfg.EndHour {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start_hour", s.cfg.StartHour, "end_hour", s.cfg.EndHour)
		return 0
	}

	users, err := s.users.GetUsersForNotification(ctx, hour)
	if err != nil {
		s.log.Error("failed to get users for notification", "hour", hour, "error", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		due, err := s.cards.CountDue(ctx, user.ID, now)
		if err != nil {
			s.log.Warn("failed to count due cards", "user_id", user.ID, "error", err)
			continue
		}
		if due == 0 {
			continue
		}
		// Don't announce more than the user's daily goal
		if user.DailyGoal > 0 && due > user.DailyGoal {
			due = user.DailyGoal
		}
		if err := s.notifier.SendReminder(ctx, user.ID, due); err != nil {
			s.log.Warn("failed to send reminder", "user_id", user.ID, "error", err)
			continue
		}
		sent++
	}

	s.log.Info("reminders sent", "hour", hour, "candidates", len(users), "sent", sent)
	return sent
}

// RunManualCheck sends a reminder to one user right away if anything is due.
// It reports whether a reminder was sent.
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	due, err := s.cards.CountDue(ctx, userID, s.clock.Now())
	if err != nil {
		return false, err
	}
	if due == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminder(ctx, userID, due); err != nil {
		return false, err
	}
	return true, nil
}

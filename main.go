package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/frenchbot/internal/ai"
	"github.com/example/frenchbot/internal/bot"
	"github.com/example/frenchbot/internal/cache"
	"github.com/example/frenchbot/internal/clock"
	"github.com/example/frenchbot/internal/config"
	"github.com/example/frenchbot/internal/database"
	"github.com/example/frenchbot/internal/deckplan"
	"github.com/example/frenchbot/internal/excel"
	"github.com/example/frenchbot/internal/logger"
	"github.com/example/frenchbot/internal/scheduler"
	"github.com/example/frenchbot/internal/study"
	"github.com/example/frenchbot/internal/verify"
)

func main() {
	cfg, err := config.Load(".env", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Bot exited with error", "error", err)
	}
	log.Info("Bot stopped successfully")
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Database ready", "type", cfg.DBType)

	users := database.NewUserRepository(db)
	words := database.NewWordRepository(db)
	cards := database.NewCardRepository(db)

	var plans deckplan.PlanStore = database.NewPlanRepository(db)
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisPlanStore(cache.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
		}, log)
		if err != nil {
			// the database alone is enough to serve plans
			log.Warn("Redis unavailable, plans are served from the database", "error", err)
		} else {
			defer redisStore.Close()
			plans = cache.NewLayeredPlanStore(redisStore, plans, log)
		}
	}

	var (
		advisor deckplan.Advisor
		hints   study.HintGenerator
	)
	if cfg.AIEnabled() {
		client, err := ai.New(ai.Config{
			APIKey:    cfg.OpenAIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.OpenAIModel,
			RateLimit: cfg.OpenAIRateLimit,
		}, log)
		if err != nil {
			return err
		}
		advisor, hints = ai.NewAdvisor(client), client
		log.Info("AI advisor enabled", "model", cfg.OpenAIModel)
	} else {
		log.Info("OPENAI_API_KEY not set, using fallback plans")
	}

	clk := clock.System{}
	planner := deckplan.NewPlanner(plans, advisor, clk, deckplan.Config{
		Location:       cfg.Location,
		AdvisorTimeout: cfg.AdvisorTimeout,
	}, log)

	studySvc := study.NewService(study.Stores{
		Users:    users,
		Cards:    cards,
		Words:    words,
		Activity: database.NewActivityRepository(db),
		Reviews:  database.NewReviewRepository(db),
	}, planner, clk, study.Options{
		Policy:   cfg.LevelPolicy,
		Shuffle:  cfg.ShuffleQueue,
		Burn:     cfg.BurnPolicy,
		Location: cfg.Location,
		Hints:    hints,
	}, log)

	importer, err := excel.NewImporter(words, excel.DefaultImportConfig(), log)
	if err != nil {
		return err
	}

	botCfg := bot.DefaultConfig()
	botCfg.Token = cfg.TelegramToken
	botCfg.AdminIDs = cfg.AdminUserIDs
	b, err := bot.New(botCfg, bot.Deps{
		Users:    users,
		Study:    studySvc,
		Verify:   verify.NewModule(cards, words, studySvc, nil, log),
		Importer: importer,
	}, log)
	if err != nil {
		return err
	}

	if cfg.EnableScheduler {
		sched := scheduler.New(b, users, cards, clk, scheduler.Config{
			Location:  cfg.Location,
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
		}, log)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
		b.SetReminderChecker(sched)
	}

	log.Info("Bot started. Press Ctrl+C to stop.")
	return b.Start(ctx)
}

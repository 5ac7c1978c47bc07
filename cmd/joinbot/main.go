package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/joinbot/core/config"
	"github.com/m3rciful/joinbot/core/database"
	"github.com/m3rciful/joinbot/core/dispatch"
	"github.com/m3rciful/joinbot/core/flow"
	"github.com/m3rciful/joinbot/core/logger"
	"github.com/m3rciful/joinbot/core/review"
	"github.com/m3rciful/joinbot/core/store"
	"github.com/m3rciful/joinbot/core/telegram"
	"log/slog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("joinbot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	startedAt := time.Now()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, cfg.Database); err != nil {
		return err
	}

	st := store.NewSQL(db, cfg.Database.Driver)
	defer func() {
		if err := st.Close(); err != nil {
			logger.Store.Error("close failed",
				slog.String("event", "store.close"),
				slog.String("err", err.Error()),
			)
		}
	}()

	bot, err := telegram.NewBot(cfg)
	if err != nil {
		return err
	}
	gw := telegram.NewGateway(bot)

	machine := &flow.Machine{
		ChannelLink:   cfg.Community.ChannelLink,
		ReviewGroupID: cfg.Community.ReviewGroupID,
	}
	orchestrator := review.New(st, gw, review.Config{
		ReviewGroupID:    cfg.Community.ReviewGroupID,
		MainGroupID:      cfg.Community.MainGroupID,
		ShowApprovalNote: cfg.Review.ShowApprovalNote,
	})
	dispatcher := dispatch.New(st, gw, machine, orchestrator, dispatch.Config{
		ChannelID: cfg.Community.ChannelID,
	})

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = telegram.Run(ctx, cfg, bot, dispatcher)

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}

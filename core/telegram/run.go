// Package telegram is the transport layer: bot construction, pollers,
// middlewares and the route table feeding the dispatcher.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/joinbot/core/config"
	"github.com/m3rciful/joinbot/core/dispatch"
	"github.com/m3rciful/joinbot/core/logger"
	"github.com/m3rciful/joinbot/core/telegram/middleware"
	"log/slog"
)

// NewBot constructs the telebot instance with the configured poller and
// the tuned HTTP client.
func NewBot(cfg *config.Config) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			attrs := []slog.Attr{
				slog.String("event", "tg.handler"),
				slog.String("err", err.Error()),
			}
			if c != nil && c.Chat() != nil {
				attrs = append(attrs, slog.Int64("chat_id", c.Chat().ID))
			}
			logger.TG.LogAttrs(context.Background(), slog.LevelError, "handler error", attrs...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}
	return bot, nil
}

// Run wires middlewares and routes and serves updates until ctx is done.
func Run(ctx context.Context, cfg *config.Config, bot *tele.Bot, d *dispatch.Dispatcher) error {
	logMode(ctx, cfg, bot)

	if strings.EqualFold(cfg.Telegram.RunMode, config.RunModeLongpoll) {
		if err := deleteWebhook(cfg.Telegram.Token, false); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}

	bot.Use(middleware.Recover)
	if cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[strings.ToLower(strings.TrimSpace(kind))] = struct{}{}
		}
		bot.Use(middleware.RateLimit(middleware.RateLimitOptions{
			Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:  exclude,
		}))
	}
	bot.Use(middleware.Logging)

	registerRoutes(bot, d)

	if err := bot.SetCommands([]tele.Command{
		{Text: "start", Description: "Apply for membership"},
		{Text: "profile", Description: "View or edit your application"},
	}); err != nil {
		logger.TG.Warn("failed to publish command menu",
			slog.String("event", "set_commands"),
			slog.String("err", err.Error()),
		)
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

func logMode(ctx context.Context, cfg *config.Config, bot *tele.Bot) {
	switch p := bot.Poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	default:
		timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
		if timeoutSec <= 0 {
			timeoutSec = 10
		}
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", timeoutSec),
		)
	}
}

// deleteWebhook clears a leftover webhook registration before long polling
// starts; Telegram refuses getUpdates while a webhook is set.
func deleteWebhook(token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}

package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/joinbot/core/dispatch"
	"github.com/m3rciful/joinbot/core/logger"
	"github.com/m3rciful/joinbot/core/telegram/middleware"
	"log/slog"
)

// registerRoutes binds the fixed route set to the dispatcher. Text input is
// only meaningful in private chats; decision buttons arrive from the review
// group via callbacks.
func registerRoutes(bot *tele.Bot, d *dispatch.Dispatcher) {
	textHandler := func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil || chat.Type != tele.ChatPrivate {
			return nil
		}
		ctx := middleware.Ctx(c)
		if err := d.HandleText(ctx, chat.ID, c.Text()); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelError, "text handling failed",
				slog.String("event", "tg.text"),
				slog.Int64("chat_id", chat.ID),
				slog.String("err", err.Error()),
			)
		}
		return nil
	}

	bot.Handle("/start", textHandler)
	bot.Handle("/profile", textHandler)
	bot.Handle(tele.OnText, textHandler)

	bot.Handle(tele.OnCallback, func(c tele.Context) error {
		cb := c.Callback()
		sender := c.Sender()
		if cb == nil || sender == nil {
			return nil
		}
		// Telebot prefixes unique-button data with \f; raw buttons arrive
		// verbatim. Either way the payload is the plain action token.
		data := strings.TrimSpace(strings.TrimPrefix(cb.Data, "\f"))
		messageID := 0
		if cb.Message != nil {
			messageID = cb.Message.ID
		}
		// Stop the client spinner regardless of the outcome.
		defer func() { _ = c.Respond(&tele.CallbackResponse{}) }()

		ctx := middleware.Ctx(c)
		if err := d.HandleCallback(ctx, sender.ID, messageID, data); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelError, "callback handling failed",
				slog.String("event", "tg.callback"),
				slog.Int64("user_id", sender.ID),
				slog.String("cb_key", logger.SanitizeLimit(data, 128)),
				slog.String("err", err.Error()),
			)
		}
		return nil
	})
}

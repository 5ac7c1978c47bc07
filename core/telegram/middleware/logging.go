package middleware

import (
	"context"
	"strings"

	"github.com/m3rciful/joinbot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Logging builds the per-update request context (rid, update metadata) and
// logs a single receipt line.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		chatID, userID := int64(0), int64(0)
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}

		rid := logger.BuildRID(upd.ID, chatID, userID)
		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.TG)
		StoreContext(c, ctx)

		attrs := []slog.Attr{
			slog.String("event", "update.received"),
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
		}
		if chatID != 0 {
			attrs = append(attrs, slog.Int64("chat_id", chatID))
		}
		if userID != 0 {
			attrs = append(attrs, slog.Int64("user_id", userID))
		}
		switch {
		case upd.Callback != nil:
			data := strings.TrimPrefix(upd.Callback.Data, "\f")
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(data, 128)))
		case upd.Message != nil:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "update", attrs...)

		return next(c)
	}
}

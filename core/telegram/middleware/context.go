// Package middleware holds the global bot middlewares: panic recovery,
// per-user rate limiting and update receipt logging.
package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

const ctxStoreKey = "joinbot_ctx"

// StoreContext attaches a request context to the telebot context so
// handlers downstream can retrieve it.
func StoreContext(c tele.Context, ctx context.Context) {
	c.Set(ctxStoreKey, ctx)
}

// Ctx returns the request context stored by the logging middleware, or a
// fresh background context when none is set.
func Ctx(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxStoreKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// Package keyboard converts the transport-neutral button grid into
// telebot inline keyboards.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/joinbot/core/gateway"
)

// Inline builds a telebot markup from rows of gateway buttons. URL buttons
// open links; the rest carry raw callback data. Returns nil for an empty
// grid so callers can pass the result straight to send options.
func Inline(rows [][]gateway.Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btn := tele.InlineButton{Text: b.Text}
			if b.URL != "" {
				btn.URL = b.URL
			} else {
				btn.Data = b.Action
			}
			r = append(r, btn)
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

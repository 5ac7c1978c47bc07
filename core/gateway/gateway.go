// Package gateway defines the messaging surface the bot logic talks to.
// Keeping it free of transport types lets flow and review logic be tested
// without a live Telegram connection.
package gateway

import "context"

// Button is a single inline keyboard button. Either Action (callback data)
// or URL is set, never both.
type Button struct {
	Text   string
	Action string
	URL    string
}

// Message is an outbound message with an optional inline keyboard.
// Keyboard rows render in order. Silent suppresses the client notification.
type Message struct {
	Text     string
	Keyboard [][]Button
	Silent   bool
}

// Row builds a single keyboard row.
func Row(buttons ...Button) []Button { return buttons }

// Gateway sends messages and queries chat membership on behalf of the bot.
type Gateway interface {
	// Send delivers a message to the given chat.
	Send(ctx context.Context, chatID int64, msg Message) error

	// Edit replaces the text and keyboard of a previously sent message.
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error

	// CreateInvite creates a single-use invite link for the chat.
	CreateInvite(ctx context.Context, chatID int64, label string) (string, error)

	// IsMember reports whether the user participates in the chat as a
	// member, administrator or creator.
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)

	// DisplayName resolves a human-readable name for the user, preferring
	// the @username when one is set.
	DisplayName(ctx context.Context, chatID, userID int64) string
}

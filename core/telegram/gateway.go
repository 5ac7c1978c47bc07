package telegram

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/joinbot/core/gateway"
	"github.com/m3rciful/joinbot/core/telegram/keyboard"
)

// botGateway implements the messaging gateway on top of telebot. All calls
// are synchronous; the tuned HTTP client below handles transient retries.
type botGateway struct {
	bot *tele.Bot
}

// NewGateway wraps a bot into the gateway boundary the core packages use.
func NewGateway(bot *tele.Bot) gateway.Gateway {
	return &botGateway{bot: bot}
}

func (g *botGateway) Send(ctx context.Context, chatID int64, msg gateway.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{DisableNotification: msg.Silent}
	if markup := keyboard.Inline(msg.Keyboard); markup != nil {
		opts.ReplyMarkup = markup
	}
	if _, err := g.bot.Send(tele.ChatID(chatID), msg.Text, opts); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (g *botGateway) Edit(ctx context.Context, chatID int64, messageID int, msg gateway.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ref := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	opts := &tele.SendOptions{}
	if markup := keyboard.Inline(msg.Keyboard); markup != nil {
		opts.ReplyMarkup = markup
	}
	if _, err := g.bot.Edit(ref, msg.Text, opts); err != nil {
		return fmt.Errorf("edit %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

func (g *botGateway) CreateInvite(ctx context.Context, chatID int64, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	link, err := g.bot.CreateInviteLink(tele.ChatID(chatID), &tele.ChatInviteLink{
		Name:        label,
		MemberLimit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("create invite for %d: %w", chatID, err)
	}
	return link.InviteLink, nil
}

func (g *botGateway) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	member, err := g.bot.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("chat member of %d: %w", chatID, err)
	}
	switch member.Role {
	case tele.Member, tele.Administrator, tele.Creator:
		return true, nil
	}
	return false, nil
}

func (g *botGateway) DisplayName(ctx context.Context, chatID, userID int64) string {
	fallback := "user " + strconv.FormatInt(userID, 10)
	if ctx.Err() != nil {
		return fallback
	}
	member, err := g.bot.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil || member.User == nil {
		return fallback
	}
	u := member.User
	if u.Username != "" {
		return "@" + u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" {
		return fallback
	}
	return name
}

// Package dispatch routes inbound updates: it loads the chat record,
// hands the input to the conversation machine or the review orchestrator,
// commits the resulting writes and only then performs the sends.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"log/slog"

	"github.com/m3rciful/joinbot/core/flow"
	"github.com/m3rciful/joinbot/core/gateway"
	"github.com/m3rciful/joinbot/core/logger"
	"github.com/m3rciful/joinbot/core/review"
	"github.com/m3rciful/joinbot/core/store"
)

const msgDeliveryFailed = "Something went wrong while sending the reply. Please try again."

// Config carries the chat ids the dispatcher needs for routing decisions.
type Config struct {
	// ChannelID is the channel whose membership gates /start.
	ChannelID int64
}

// Dispatcher wires store, flow machine and review orchestrator together.
type Dispatcher struct {
	store  store.Store
	gw     gateway.Gateway
	flow   *flow.Machine
	review *review.Orchestrator
	cfg    Config
}

func New(s store.Store, gw gateway.Gateway, m *flow.Machine, r *review.Orchestrator, cfg Config) *Dispatcher {
	return &Dispatcher{store: s, gw: gw, flow: m, review: r, cfg: cfg}
}

// HandleText processes a text message from a private chat. chatID doubles
// as the sender id.
func (d *Dispatcher) HandleText(ctx context.Context, chatID int64, text string) error {
	state, err := d.currentState(ctx, chatID)
	if err != nil {
		return err
	}

	// A parked review decision consumes the reviewer's next message as
	// the reason, regardless of its content.
	if state.Kind == store.KindAwaitingReason {
		err := d.review.Resolve(ctx, chatID, state, text)
		if errors.Is(err, review.ErrAlreadyDecided) || errors.Is(err, review.ErrInviteFailed) {
			logger.Dispatch.Info("review outcome",
				slog.String("event", "dispatch.text"),
				slog.Int64("chat_id", chatID),
				slog.String("outcome", err.Error()),
			)
			return nil
		}
		return err
	}

	switch command(text) {
	case "/start":
		member, err := d.gw.IsMember(ctx, d.cfg.ChannelID, chatID)
		if err != nil {
			return fmt.Errorf("channel membership: %w", err)
		}
		return d.runFlow(ctx, chatID, func(app store.Application) flow.Outcome {
			return d.flow.Start(app, member)
		})
	case "/profile":
		return d.runFlow(ctx, chatID, func(app store.Application) flow.Outcome {
			return d.flow.Profile(app)
		})
	}

	return d.runFlow(ctx, chatID, func(app store.Application) flow.Outcome {
		return d.flow.Text(app, text)
	})
}

// HandleCallback processes an inline button press. actorID is the pressing
// user; for review decisions messageID locates the group notice to edit.
func (d *Dispatcher) HandleCallback(ctx context.Context, actorID int64, messageID int, data string) error {
	if dec, applicantID, ok := flow.ParseDecisionAction(data); ok {
		err := d.review.HandleAction(ctx, actorID, messageID, dec, applicantID)
		if errors.Is(err, review.ErrUnauthorized) {
			logger.Dispatch.Warn("decision by non-member",
				slog.String("event", "dispatch.callback"),
				slog.Int64("user_id", actorID),
				slog.Int64("applicant_id", applicantID),
			)
			return nil
		}
		return err
	}

	return d.runFlow(ctx, actorID, func(app store.Application) flow.Outcome {
		return d.flow.Choice(app, data)
	})
}

func (d *Dispatcher) currentState(ctx context.Context, chatID int64) (store.ConversationState, error) {
	app, err := d.store.Get(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Idle(), nil
	}
	if err != nil {
		return store.Idle(), fmt.Errorf("load state: %w", err)
	}
	return app.State, nil
}

// runFlow evaluates the machine against a stable record snapshot inside
// the per-chat transaction, commits, then sends. A storage failure sends
// nothing, so the update stays retryable.
func (d *Dispatcher) runFlow(ctx context.Context, chatID int64, run func(store.Application) flow.Outcome) error {
	var o flow.Outcome
	err := d.store.Update(ctx, chatID, func(tx *store.Tx) error {
		o = run(tx.Application())
		if o.Writes != (store.Writes{}) {
			tx.Apply(o.Writes)
		}
		if o.ChangeState {
			tx.SetState(o.State)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply outcome: %w", err)
	}
	logger.Flow.Debug("outcome committed",
		slog.String("event", "flow.outcome"),
		slog.Int64("chat_id", chatID),
		slog.Bool("state_change", o.ChangeState),
		slog.String("state", o.State.Token()),
		slog.Int("sends", len(o.Out)),
	)
	return d.deliver(ctx, chatID, o.Out)
}

// deliver performs the sends of a committed outcome. Failures do not roll
// anything back; the origin chat gets an apology and the error surfaces to
// the caller for logging.
func (d *Dispatcher) deliver(ctx context.Context, originChat int64, out []flow.Outbound) error {
	var result *multierror.Error
	for _, msg := range out {
		target := msg.ChatID
		if target == 0 {
			target = originChat
		}
		if err := d.gw.Send(ctx, target, msg.Message); err != nil {
			result = multierror.Append(result, fmt.Errorf("send to %d: %w", target, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		_ = d.gw.Send(ctx, originChat, gateway.Message{Text: msgDeliveryFailed})
		return err
	}
	return nil
}

func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

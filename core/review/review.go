// Package review orchestrates the two-phase decision protocol: a reviewer
// claims an application with an approve or reject button, then supplies a
// reason as their next message, which commits the decision and fans out
// the notifications.
package review

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
	"github.com/m3rciful/joinbot/core/store"
)

var (
	// ErrUnauthorized marks an action by someone outside the review group.
	ErrUnauthorized = errors.New("actor is not a review group member")
	// ErrAlreadyDecided marks a resolution that lost the race to another
	// reviewer.
	ErrAlreadyDecided = errors.New("application already decided")
	// ErrInviteFailed marks an approval whose invite link could not be
	// created. The approval itself stays committed.
	ErrInviteFailed = errors.New("invite link creation failed")
)

// approveKeyword is the "no comment" sentinel the reason prompt suggests.
// It is never stored or shown as an approval note.
const approveKeyword = "approve"

// Config carries the chat ids and policy knobs the orchestrator needs.
type Config struct {
	// ReviewGroupID is the group whose members may decide applications.
	ReviewGroupID int64
	// MainGroupID is the community group invite links point into.
	MainGroupID int64
	// ShowApprovalNote controls whether approval reasons are shown to the
	// applicant and the audit report.
	ShowApprovalNote bool
}

// Orchestrator executes review decisions against the store and the
// messaging gateway.
type Orchestrator struct {
	store store.Store
	gw    gateway.Gateway
	cfg   Config
}

func New(s store.Store, gw gateway.Gateway, cfg Config) *Orchestrator {
	return &Orchestrator{store: s, gw: gw, cfg: cfg}
}

// HandleAction processes an approve or reject button press in the review
// group. It claims the application for the reviewer by parking the pending
// decision in the reviewer's conversation state and asking them for a
// reason in private. The claim is display only; racing reviewers are
// resolved at commit time.
func (o *Orchestrator) HandleAction(ctx context.Context, reviewerID int64, noticeMessageID int, d store.Decision, applicantID int64) error {
	ok, err := o.gw.IsMember(ctx, o.cfg.ReviewGroupID, reviewerID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		_ = o.gw.Send(ctx, reviewerID, gateway.Message{Text: "You are not allowed to review applications."})
		return ErrUnauthorized
	}

	app, err := o.store.Get(ctx, applicantID)
	if errors.Is(err, store.ErrNotFound) {
		_ = o.gw.Send(ctx, reviewerID, gateway.Message{Text: "This application no longer exists."})
		return nil
	}
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}

	err = o.store.Update(ctx, reviewerID, func(tx *store.Tx) error {
		tx.SetState(store.AwaitingReason(d, applicantID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("park decision: %w", err)
	}

	prompt := "Send the rejection reason for " + app.Name + "."
	if d == store.DecisionApprove {
		prompt = "Send an approval note for " + app.Name +
			", or the word \"approve\" to approve without one."
	}
	if err := o.gw.Send(ctx, reviewerID, gateway.Message{Text: prompt}); err != nil {
		return fmt.Errorf("reason prompt: %w", err)
	}

	// Replace the group notice so other reviewers see the claim. Buttons
	// stay off while the reason is pending.
	reviewer := o.gw.DisplayName(ctx, o.cfg.ReviewGroupID, reviewerID)
	claimed := gateway.Message{
		Text: "Application under review by " + reviewer + "\n\n" + flow.Summary(app),
	}
	if err := o.gw.Edit(ctx, o.cfg.ReviewGroupID, noticeMessageID, claimed); err != nil {
		logger.Review.Warn("claim notice edit failed",
			slog.String("event", "review.claim"),
			slog.Int64("reviewer_id", reviewerID),
			slog.Int64("applicant_id", applicantID),
			slog.String("err", err.Error()),
		)
	}

	logger.Review.Info("application claimed",
		slog.String("event", "review.claim"),
		slog.Int64("reviewer_id", reviewerID),
		slog.Int64("applicant_id", applicantID),
		slog.String("decision", string(d)),
	)
	return nil
}

// Resolve commits the decision parked in the reviewer's state using their
// next message as the reason. The decision kind and applicant id come from
// the state token, never from the message body.
func (o *Orchestrator) Resolve(ctx context.Context, reviewerID int64, st store.ConversationState, reason string) error {
	d, applicantID := st.Decision, st.ApplicantID
	reason = strings.TrimSpace(reason)

	note := reason
	if d == store.DecisionApprove && strings.EqualFold(reason, approveKeyword) {
		note = ""
	}

	reviewer := o.gw.DisplayName(ctx, o.cfg.ReviewGroupID, reviewerID)

	var (
		app         store.Application
		missing     bool
		conflict    bool
		retryInvite bool
	)
	err := o.store.Update(ctx, applicantID, func(tx *store.Tx) error {
		if !tx.Exists() {
			missing = true
			return nil
		}
		app = tx.Application()
		if app.Status != store.StatusPending {
			// First committer wins. The only re-entry allowed is the
			// same approve decision retrying a failed invite.
			if app.Status == store.StatusApproved && app.InviteLink == "" && d == store.DecisionApprove {
				retryInvite = true
				return nil
			}
			conflict = true
			return nil
		}
		status := store.StatusApproved
		if d == store.DecisionReject {
			status = store.StatusRejected
		}
		tx.Apply(store.Writes{
			Status:         store.Set(status),
			DecisionReason: store.Set(note),
			ReviewedByID:   store.Set(reviewerID),
			ReviewedByName: store.Set(reviewer),
		})
		app = tx.Application()
		return nil
	})
	if err != nil {
		// Reviewer state stays parked so resending the reason retries.
		return fmt.Errorf("commit decision: %w", err)
	}

	if err := o.clearReviewerState(ctx, reviewerID); err != nil {
		return err
	}

	switch {
	case missing:
		_ = o.gw.Send(ctx, reviewerID, gateway.Message{Text: "This application no longer exists."})
		return nil
	case conflict:
		by := app.ReviewedByName
		if by == "" {
			by = "another reviewer"
		}
		_ = o.gw.Send(ctx, reviewerID, gateway.Message{
			Text: "This application was already handled by " + by + ".",
		})
		logger.Review.Info("decision lost the race",
			slog.String("event", "review.resolve"),
			slog.String("outcome", "conflict"),
			slog.Int64("reviewer_id", reviewerID),
			slog.Int64("applicant_id", applicantID),
		)
		return ErrAlreadyDecided
	}

	logger.Review.Info("decision committed",
		slog.String("event", "review.resolve"),
		slog.Int64("reviewer_id", reviewerID),
		slog.Int64("applicant_id", applicantID),
		slog.String("decision", string(d)),
	)

	if d == store.DecisionReject {
		return o.fanOutRejection(ctx, app, reviewer, reviewerID)
	}
	return o.approve(ctx, app, reviewer, reviewerID, note, retryInvite)
}

func (o *Orchestrator) clearReviewerState(ctx context.Context, reviewerID int64) error {
	err := o.store.Update(ctx, reviewerID, func(tx *store.Tx) error {
		tx.ClearState()
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear reviewer state: %w", err)
	}
	return nil
}

// approve creates the one-time invite and fans out the notifications. On
// invite failure the applicant is told nothing; the reviewer is asked to
// press approve again, which re-enters the invite path.
func (o *Orchestrator) approve(ctx context.Context, app store.Application, reviewer string, reviewerID int64, note string, retry bool) error {
	label := fmt.Sprintf("Invite for %s (ID: %d)", app.Name, app.ChatID)
	link, err := o.gw.CreateInvite(ctx, o.cfg.MainGroupID, label)
	if err != nil {
		logger.Review.Error("invite creation failed",
			slog.String("event", "review.invite"),
			slog.Int64("applicant_id", app.ChatID),
			slog.String("err", err.Error()),
		)
		_ = o.gw.Send(ctx, reviewerID, gateway.Message{
			Text: "The application is approved, but the invite link could not be created. " +
				"Press the approve button again to retry.",
		})
		return fmt.Errorf("%w: %v", ErrInviteFailed, err)
	}

	var result *multierror.Error

	err = o.store.Update(ctx, app.ChatID, func(tx *store.Tx) error {
		tx.Apply(store.Writes{InviteLink: store.Set(link)})
		return nil
	})
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("persist invite link: %w", err))
	}

	applicantText := "Congratulations, " + app.Name + "! Your application has been approved."
	if o.cfg.ShowApprovalNote && note != "" {
		applicantText += "\n\nNote from the reviewer: " + note
	}
	applicantText += "\n\nThe button below is a personal one-time invite."
	applicantErr := o.gw.Send(ctx, app.ChatID, gateway.Message{
		Text: applicantText,
		Keyboard: [][]gateway.Button{
			gateway.Row(gateway.Button{Text: "Join the group", URL: link}),
		},
	})
	if applicantErr != nil {
		result = multierror.Append(result, fmt.Errorf("applicant notice: %w", applicantErr))
		logger.Review.Error("applicant notice failed",
			slog.String("event", "review.notify"),
			slog.Int64("applicant_id", app.ChatID),
			slog.String("err", applicantErr.Error()),
		)
	}

	// The reviewer confirmation reflects what actually reached the
	// applicant. An undelivered invite must not read as a success.
	confirmation := "Approved " + app.Name + " and sent them an invite."
	if retry {
		confirmation = "Invite for " + app.Name + " created on retry and sent."
	}
	if applicantErr != nil {
		confirmation = app.Name + " is approved and the invite link is ready, but they could " +
			"not be notified. Please send them the link directly: " + link
	}
	if err := o.gw.Send(ctx, reviewerID, gateway.Message{Text: confirmation}); err != nil {
		result = multierror.Append(result, fmt.Errorf("reviewer confirmation: %w", err))
	}

	audit := fmt.Sprintf("Application of %s (ID: %d) approved by %s.", app.Name, app.ChatID, reviewer)
	if o.cfg.ShowApprovalNote && note != "" {
		audit += "\nNote: " + note
	}
	err = o.gw.Send(ctx, o.cfg.ReviewGroupID, gateway.Message{Text: audit, Silent: true})
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("audit report: %w", err))
	}

	return result.ErrorOrNil()
}

func (o *Orchestrator) fanOutRejection(ctx context.Context, app store.Application, reviewer string, reviewerID int64) error {
	var result *multierror.Error

	applicantText := "Unfortunately your application was not approved this time."
	if app.DecisionReason != "" {
		applicantText += "\n\nReason: " + app.DecisionReason
	}
	applicantText += "\n\nYou can edit your profile with /profile and resubmit."
	applicantErr := o.gw.Send(ctx, app.ChatID, gateway.Message{Text: applicantText})
	if applicantErr != nil {
		result = multierror.Append(result, fmt.Errorf("applicant notice: %w", applicantErr))
		logger.Review.Error("applicant notice failed",
			slog.String("event", "review.notify"),
			slog.Int64("applicant_id", app.ChatID),
			slog.String("err", applicantErr.Error()),
		)
	}

	confirmation := "Rejected " + app.Name + "."
	if applicantErr != nil {
		confirmation = "Rejected " + app.Name + ", but they could not be notified. " +
			"Please contact them directly."
	}
	if err := o.gw.Send(ctx, reviewerID, gateway.Message{Text: confirmation}); err != nil {
		result = multierror.Append(result, fmt.Errorf("reviewer confirmation: %w", err))
	}

	audit := fmt.Sprintf("Application of %s (ID: %d) rejected by %s.", app.Name, app.ChatID, reviewer)
	if app.DecisionReason != "" {
		audit += "\nReason: " + app.DecisionReason
	}
	if err := o.gw.Send(ctx, o.cfg.ReviewGroupID, gateway.Message{Text: audit, Silent: true}); err != nil {
		result = multierror.Append(result, fmt.Errorf("audit report: %w", err))
	}

	return result.ErrorOrNil()
}

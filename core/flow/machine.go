// Package flow implements the onboarding and profile-editing dialogue as a
// pure state machine. Every entry point takes the current record and an
// input and returns an Outcome describing the writes, the state change and
// the messages to send. Persisting and sending is the dispatcher's job.
package flow

import (
	"strconv"
	"strings"

	"github.com/m3rciful/joinbot/core/gateway"
	"github.com/m3rciful/joinbot/core/store"
	"github.com/m3rciful/joinbot/core/validate"
)

// Callback actions the inline keyboards emit.
const (
	ActionVerifyLinkedIn   = "verify_linkedin"
	ActionVerifyResume     = "verify_resume"
	ActionVerifyReferral   = "verify_member"
	ActionViewProfile      = "view_profile"
	ActionEditProfile      = "edit_profile"
	ActionEditVerification = "edit_verification"
	ActionResubmit         = "resubmit_profile"

	actionEditFieldPrefix = "edit_"
	actionApprovePrefix   = "approve_"
	actionRejectPrefix    = "reject_"
)

// DecisionAction builds the callback data for a review decision button.
func DecisionAction(d store.Decision, applicantID int64) string {
	prefix := actionApprovePrefix
	if d == store.DecisionReject {
		prefix = actionRejectPrefix
	}
	return prefix + strconv.FormatInt(applicantID, 10)
}

// ParseDecisionAction recognizes approve/reject callback data and extracts
// the applicant chat id.
func ParseDecisionAction(data string) (store.Decision, int64, bool) {
	var (
		d   store.Decision
		raw string
	)
	switch {
	case strings.HasPrefix(data, actionApprovePrefix):
		d, raw = store.DecisionApprove, data[len(actionApprovePrefix):]
	case strings.HasPrefix(data, actionRejectPrefix):
		d, raw = store.DecisionReject, data[len(actionRejectPrefix):]
	default:
		return "", 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return d, id, true
}

var editableFields = map[string]store.Field{
	"name":       store.FieldName,
	"company":    store.FieldCompany,
	"expertise":  store.FieldExpertise,
	"email":      store.FieldEmail,
	"motivation": store.FieldMotivation,
}

// Outbound is a message the dispatcher must send after the transaction
// commits. ChatID zero targets the chat the input came from.
type Outbound struct {
	ChatID int64
	gateway.Message
}

// Outcome is the full effect of one input: an optional state change, an
// optional set of record writes and the messages to send.
type Outcome struct {
	ChangeState bool
	State       store.ConversationState
	Writes      store.Writes
	Out         []Outbound
}

func (o *Outcome) setState(s store.ConversationState) {
	o.ChangeState = true
	o.State = s
}

func (o *Outcome) reply(msg gateway.Message) {
	o.Out = append(o.Out, Outbound{Message: msg})
}

func (o *Outcome) send(chatID int64, msg gateway.Message) {
	o.Out = append(o.Out, Outbound{ChatID: chatID, Message: msg})
}

// Machine drives the applicant-facing dialogue. It is stateless; all
// per-chat state lives in the record.
type Machine struct {
	// ChannelLink is the public join link shown to non-members on /start.
	ChannelLink string
	// ReviewGroupID receives submission notices.
	ReviewGroupID int64
}

// Start handles /start. The dispatcher resolves channel membership before
// calling.
func (m *Machine) Start(app store.Application, isChannelMember bool) Outcome {
	var o Outcome
	if !isChannelMember {
		o.reply(gateway.Message{
			Text: msgJoinChannelFirst,
			Keyboard: [][]gateway.Button{
				gateway.Row(gateway.Button{Text: "Join the channel", URL: m.ChannelLink}),
			},
		})
		return o
	}
	if app.Name != "" {
		o.reply(mainMenu())
		return o
	}
	o.setState(store.Onboarding(store.StepName))
	o.reply(gateway.Message{Text: msgAskName})
	return o
}

// Profile handles /profile and the view_profile button.
func (m *Machine) Profile(app store.Application) Outcome {
	var o Outcome
	if app.Name == "" {
		o.reply(gateway.Message{Text: msgRegisterFirst})
		return o
	}
	o.reply(profileView(app))
	return o
}

// Text handles free-form text according to the current conversation state.
func (m *Machine) Text(app store.Application, text string) Outcome {
	text = strings.TrimSpace(text)

	switch app.State.Kind {
	case store.KindOnboarding:
		return m.onboardingText(app, text)
	case store.KindEditing:
		return m.editText(app, text)
	case store.KindCompleted:
		var o Outcome
		o.reply(gateway.Message{Text: msgAlreadySubmitted})
		return o
	default:
		var o Outcome
		o.reply(gateway.Message{Text: msgUseStart})
		return o
	}
}

func (m *Machine) onboardingText(app store.Application, text string) Outcome {
	var o Outcome
	switch app.State.Step {
	case store.StepName:
		o.Writes = store.Writes{Name: store.Set(text)}
		o.setState(store.Onboarding(store.StepCompany))
		o.reply(gateway.Message{Text: msgAskCompany})
	case store.StepCompany:
		o.Writes = store.Writes{Company: store.Set(text)}
		o.setState(store.Onboarding(store.StepExpertise))
		o.reply(gateway.Message{Text: msgAskExpertise})
	case store.StepExpertise:
		o.Writes = store.Writes{Expertise: store.Set(text)}
		o.setState(store.Onboarding(store.StepEmail))
		o.reply(gateway.Message{Text: msgAskEmail})
	case store.StepEmail:
		o.Writes = store.Writes{Email: store.Set(text)}
		o.setState(store.Onboarding(store.StepMotivation))
		o.reply(gateway.Message{Text: msgAskMotivation})
	case store.StepMotivation:
		o.Writes = store.Writes{Motivation: store.Set(text)}
		o.setState(store.Onboarding(store.StepVerification))
		o.reply(verificationMenu())
	case store.StepVerification:
		o.reply(verificationMenu())
	case store.StepLinkedIn:
		if !validate.LinkedInURL(text) {
			o.reply(gateway.Message{Text: msgBadLinkedIn})
			return o
		}
		return m.finalize(app, store.MethodLinkedIn, text, "")
	case store.StepResume:
		if !validate.URL(text) {
			o.reply(gateway.Message{Text: msgBadResumeURL})
			return o
		}
		return m.finalize(app, store.MethodResume, text, "")
	case store.StepReferralName:
		o.Writes = store.Writes{VerifyRefName: store.Set(text)}
		o.setState(store.Onboarding(store.StepReferralID))
		o.reply(gateway.Message{Text: msgAskReferralID})
	case store.StepReferralID:
		return m.finalize(app, store.MethodReferral, text, app.VerifyRefName)
	}
	return o
}

func (m *Machine) editText(app store.Application, text string) Outcome {
	var o Outcome
	switch app.State.Field {
	case store.FieldName:
		o.Writes = store.Writes{Name: store.Set(text)}
	case store.FieldCompany:
		o.Writes = store.Writes{Company: store.Set(text)}
	case store.FieldExpertise:
		o.Writes = store.Writes{Expertise: store.Set(text)}
	case store.FieldEmail:
		o.Writes = store.Writes{Email: store.Set(text)}
	case store.FieldMotivation:
		o.Writes = store.Writes{Motivation: store.Set(text)}
	default:
		o.reply(gateway.Message{Text: msgUseStart})
		return o
	}
	o.setState(store.ProfileMenu())

	o.Writes.ApplyTo(&app)
	o.reply(profileView(app))
	return o
}

// finalize records the verification payload, resets any previous review
// outcome and announces the submission to the review group.
func (m *Machine) finalize(app store.Application, method store.Method, value, refName string) Outcome {
	var o Outcome
	o.Writes = store.ClearReview()
	o.Writes.VerifyMethod = store.Set(method)
	o.Writes.VerifyValue = store.Set(value)
	o.Writes.VerifyRefName = store.Set(refName)
	o.setState(store.Completed())

	o.Writes.ApplyTo(&app)
	app.State = store.Completed()

	o.reply(gateway.Message{Text: msgSubmitted})
	o.reply(profileView(app))
	o.send(m.ReviewGroupID, submissionNotice(app))
	return o
}

// Choice handles inline keyboard callbacks other than review decisions.
func (m *Machine) Choice(app store.Application, action string) Outcome {
	var o Outcome
	switch action {
	case ActionVerifyLinkedIn:
		o.setState(store.Onboarding(store.StepLinkedIn))
		o.reply(gateway.Message{Text: msgAskLinkedIn})
	case ActionVerifyResume:
		o.setState(store.Onboarding(store.StepResume))
		o.reply(gateway.Message{Text: msgAskResume})
	case ActionVerifyReferral:
		o.setState(store.Onboarding(store.StepReferralName))
		o.reply(gateway.Message{Text: msgAskReferralName})
	case ActionViewProfile:
		return m.Profile(app)
	case ActionEditProfile:
		if app.Name == "" {
			o.reply(gateway.Message{Text: msgRegisterFirst})
			return o
		}
		o.setState(store.ProfileMenu())
		o.reply(editMenu())
	case ActionEditVerification:
		o.setState(store.Onboarding(store.StepVerification))
		o.reply(verificationMenu())
	case ActionResubmit:
		return m.resubmit(app)
	default:
		if field, ok := editableFields[strings.TrimPrefix(action, actionEditFieldPrefix)]; ok && strings.HasPrefix(action, actionEditFieldPrefix) {
			o.setState(store.Editing(field))
			o.reply(gateway.Message{Text: editPrompt(field)})
			return o
		}
		o.reply(gateway.Message{Text: msgUseStart})
	}
	return o
}

// resubmit resets the review outcome of an already complete profile and
// re-announces it. The conversation state is left untouched.
func (m *Machine) resubmit(app store.Application) Outcome {
	var o Outcome
	if !app.ProfileComplete() {
		o.reply(gateway.Message{Text: msgCompleteFirst})
		return o
	}
	o.Writes = store.ClearReview()

	o.Writes.ApplyTo(&app)
	o.reply(gateway.Message{Text: msgResubmitted})
	o.send(m.ReviewGroupID, submissionNotice(app))
	return o
}

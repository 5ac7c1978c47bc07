package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a conversation state.
type Kind int

const (
	KindIdle Kind = iota
	KindOnboarding
	KindEditing
	KindProfileMenu
	KindCompleted
	KindAwaitingReason
)

// Step is a single onboarding question the bot is waiting an answer for.
type Step string

const (
	StepName         Step = "AWAIT_NAME"
	StepCompany      Step = "AWAIT_COMPANY"
	StepExpertise    Step = "AWAIT_EXPERTISE"
	StepEmail        Step = "AWAIT_EMAIL"
	StepMotivation   Step = "AWAIT_MOTIVATION"
	StepVerification Step = "AWAIT_VERIFICATION"
	StepLinkedIn     Step = "AWAIT_LINKEDIN"
	StepResume       Step = "AWAIT_RESUME"
	StepReferralName Step = "AWAIT_REFERRAL_NAME"
	StepReferralID   Step = "AWAIT_REFERRAL_ID"
)

// Field names a profile answer that can be edited after onboarding.
type Field string

const (
	FieldName       Field = "NAME"
	FieldCompany    Field = "COMPANY"
	FieldExpertise  Field = "EXPERTISE"
	FieldEmail      Field = "EMAIL"
	FieldMotivation Field = "MOTIVATION"
)

// Decision is the verdict a reviewer is composing a reason for.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

const (
	tokenProfileMenu   = "PROFILE_EDIT"
	tokenCompleted     = "COMPLETED"
	editPrefix         = "EDIT_"
	approveReasonToken = "AWAIT_APPROVE_REASON_"
	rejectReasonToken  = "AWAIT_REJECT_REASON_"
)

// ConversationState is what the bot expects next from a chat. The zero
// value means idle.
type ConversationState struct {
	Kind     Kind
	Step     Step
	Field    Field
	Decision Decision

	// ApplicantID is set for KindAwaitingReason: the chat whose
	// application the pending reason belongs to.
	ApplicantID int64
}

func Idle() ConversationState        { return ConversationState{} }
func ProfileMenu() ConversationState { return ConversationState{Kind: KindProfileMenu} }
func Completed() ConversationState   { return ConversationState{Kind: KindCompleted} }

func Onboarding(step Step) ConversationState {
	return ConversationState{Kind: KindOnboarding, Step: step}
}

func Editing(field Field) ConversationState {
	return ConversationState{Kind: KindEditing, Field: field}
}

func AwaitingReason(d Decision, applicantID int64) ConversationState {
	return ConversationState{Kind: KindAwaitingReason, Decision: d, ApplicantID: applicantID}
}

func (s ConversationState) IsIdle() bool { return s.Kind == KindIdle }

// Token serializes the state for storage. Idle serializes to "".
func (s ConversationState) Token() string {
	switch s.Kind {
	case KindIdle:
		return ""
	case KindOnboarding:
		return string(s.Step)
	case KindEditing:
		return editPrefix + string(s.Field)
	case KindProfileMenu:
		return tokenProfileMenu
	case KindCompleted:
		return tokenCompleted
	case KindAwaitingReason:
		prefix := approveReasonToken
		if s.Decision == DecisionReject {
			prefix = rejectReasonToken
		}
		return prefix + strconv.FormatInt(s.ApplicantID, 10)
	}
	return ""
}

var onboardingSteps = map[Step]bool{
	StepName: true, StepCompany: true, StepExpertise: true,
	StepEmail: true, StepMotivation: true, StepVerification: true,
	StepLinkedIn: true, StepResume: true,
	StepReferralName: true, StepReferralID: true,
}

var editFields = map[Field]bool{
	FieldName: true, FieldCompany: true, FieldExpertise: true,
	FieldEmail: true, FieldMotivation: true,
}

// ParseState is the inverse of Token. Unknown tokens are an error so a
// corrupted record surfaces instead of silently resetting a dialogue.
func ParseState(token string) (ConversationState, error) {
	switch {
	case token == "":
		return Idle(), nil
	case token == tokenProfileMenu:
		return ProfileMenu(), nil
	case token == tokenCompleted:
		return Completed(), nil
	case strings.HasPrefix(token, approveReasonToken):
		return parseReason(DecisionApprove, token[len(approveReasonToken):])
	case strings.HasPrefix(token, rejectReasonToken):
		return parseReason(DecisionReject, token[len(rejectReasonToken):])
	case strings.HasPrefix(token, editPrefix):
		f := Field(token[len(editPrefix):])
		if !editFields[f] {
			return Idle(), fmt.Errorf("unknown edit field in state %q", token)
		}
		return Editing(f), nil
	}
	if step := Step(token); onboardingSteps[step] {
		return Onboarding(step), nil
	}
	return Idle(), fmt.Errorf("unknown conversation state %q", token)
}

func parseReason(d Decision, raw string) (ConversationState, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Idle(), fmt.Errorf("bad applicant id in state token: %w", err)
	}
	return AwaitingReason(d, id), nil
}

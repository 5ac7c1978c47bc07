// Package store persists membership applications and the conversation
// state attached to each private chat. One record per chat identity.
package store

import "time"

// Status is the review outcome of an application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Method identifies how the applicant chose to verify themselves.
type Method string

const (
	MethodNone     Method = ""
	MethodLinkedIn Method = "linkedin"
	MethodResume   Method = "resume"
	MethodReferral Method = "referral"
)

// Application is the full per-chat record: profile answers, verification
// payload, review outcome and the current conversation state.
type Application struct {
	ChatID int64
	State  ConversationState

	Name       string
	Company    string
	Expertise  string
	Email      string
	Motivation string

	VerifyMethod  Method
	VerifyValue   string
	VerifyRefName string

	Status         Status
	DecisionReason string
	ReviewedByID   int64
	ReviewedByName string
	InviteLink     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileComplete reports whether every onboarding answer and a
// verification payload have been collected.
func (a Application) ProfileComplete() bool {
	return a.Name != "" && a.Company != "" && a.Expertise != "" &&
		a.Email != "" && a.Motivation != "" && a.VerifyMethod != MethodNone
}

// VerificationLabel renders the verification payload for profile and
// review summaries.
func (a Application) VerificationLabel() string {
	switch a.VerifyMethod {
	case MethodLinkedIn:
		return "LinkedIn: " + a.VerifyValue
	case MethodResume:
		return "Resume: " + a.VerifyValue
	case MethodReferral:
		return "Referral: " + a.VerifyRefName + " (" + a.VerifyValue + ")"
	default:
		return "not provided"
	}
}

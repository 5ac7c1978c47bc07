package store

import "time"

// Opt marks a field for update. The zero value leaves the field alone.
type Opt[T any] struct {
	set bool
	val T
}

// Set wraps a value into an applied Opt.
func Set[T any](v T) Opt[T] { return Opt[T]{set: true, val: v} }

// Writes is a partial update of an application record. Only fields wrapped
// with Set are touched.
type Writes struct {
	Name       Opt[string]
	Company    Opt[string]
	Expertise  Opt[string]
	Email      Opt[string]
	Motivation Opt[string]

	VerifyMethod  Opt[Method]
	VerifyValue   Opt[string]
	VerifyRefName Opt[string]

	Status         Opt[Status]
	DecisionReason Opt[string]
	ReviewedByID   Opt[int64]
	ReviewedByName Opt[string]
	InviteLink     Opt[string]
}

// ClearReview resets the review outcome back to a fresh pending
// submission. Used when an applicant resubmits after a rejection.
func ClearReview() Writes {
	return Writes{
		Status:         Set(StatusPending),
		DecisionReason: Set(""),
		ReviewedByID:   Set(int64(0)),
		ReviewedByName: Set(""),
		InviteLink:     Set(""),
	}
}

// ApplyTo merges the writes into the given record. Used by Tx on commit
// and by callers that need to preview the post-write record.
func (w Writes) ApplyTo(a *Application) {
	setStr := func(dst *string, o Opt[string]) {
		if o.set {
			*dst = o.val
		}
	}
	setStr(&a.Name, w.Name)
	setStr(&a.Company, w.Company)
	setStr(&a.Expertise, w.Expertise)
	setStr(&a.Email, w.Email)
	setStr(&a.Motivation, w.Motivation)
	setStr(&a.VerifyValue, w.VerifyValue)
	setStr(&a.VerifyRefName, w.VerifyRefName)
	setStr(&a.DecisionReason, w.DecisionReason)
	setStr(&a.ReviewedByName, w.ReviewedByName)
	setStr(&a.InviteLink, w.InviteLink)

	if w.VerifyMethod.set {
		a.VerifyMethod = w.VerifyMethod.val
	}
	if w.Status.set {
		a.Status = w.Status.val
	}
	if w.ReviewedByID.set {
		a.ReviewedByID = w.ReviewedByID.val
	}
}

// touch advances updated_at. Stamps are held at microsecond resolution,
// matching the storage columns, and the new stamp is strictly later than
// the previous one even when the clock has not moved past the last write.
func touch(a *Application, now time.Time) {
	now = now.Truncate(time.Microsecond)
	if !now.After(a.UpdatedAt) {
		now = a.UpdatedAt.Add(time.Microsecond)
	}
	a.UpdatedAt = now
}

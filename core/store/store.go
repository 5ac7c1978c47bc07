package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no record exists for the chat.
var ErrNotFound = errors.New("application not found")

// Store is the persistence contract. Update runs fn against a snapshot of
// the record under a per-chat lock and commits whatever fn changed, so
// concurrent updates of the same chat serialize into read-modify-write.
type Store interface {
	Get(ctx context.Context, chatID int64) (Application, error)
	Update(ctx context.Context, chatID int64, fn func(*Tx) error) error
	Close() error
}

// Tx is the mutable view handed to an Update callback. Records are created
// lazily: updating a chat that has no record yet starts from a fresh
// pending application.
type Tx struct {
	app    Application
	exists bool
	dirty  bool
	now    time.Time
}

func newTx(app Application, exists bool, now time.Time) *Tx {
	if !exists {
		app.Status = StatusPending
		app.CreatedAt = now.Truncate(time.Microsecond)
		app.UpdatedAt = app.CreatedAt
	}
	return &Tx{app: app, exists: exists, now: now}
}

// Application returns the current view of the record.
func (tx *Tx) Application() Application { return tx.app }

// Exists reports whether the record was present before this update.
// Callers that must not create records can bail out when it is false.
func (tx *Tx) Exists() bool { return tx.exists }

// State returns the current conversation state.
func (tx *Tx) State() ConversationState { return tx.app.State }

// Apply merges a partial update into the record.
func (tx *Tx) Apply(w Writes) {
	w.ApplyTo(&tx.app)
	touch(&tx.app, tx.now)
	tx.dirty = true
}

// SetState replaces the conversation state.
func (tx *Tx) SetState(s ConversationState) {
	tx.app.State = s
	touch(&tx.app, tx.now)
	tx.dirty = true
}

// ClearState resets the conversation state to idle.
func (tx *Tx) ClearState() { tx.SetState(Idle()) }

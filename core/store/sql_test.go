package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m3rciful/joinbot/core/database"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	cfg := database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "joinbot.db"),
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.RunMigrations(db, cfg); err != nil {
		t.Fatal(err)
	}
	return NewSQL(db, cfg.Driver)
}

func TestSQLGetMissing(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.Get(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	err := s.Update(ctx, 42, func(tx *Tx) error {
		tx.Apply(Writes{
			Name: Set("Jane Doe"), Company: Set("Acme"),
			Expertise: Set("Go"), Email: Set("j@a.t"),
			Motivation:    Set("community"),
			VerifyMethod:  Set(MethodReferral),
			VerifyValue:   Set("314"),
			VerifyRefName: Set("Bob"),
		})
		tx.SetState(Completed())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	app, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "Jane Doe" || app.Company != "Acme" || app.Motivation != "community" {
		t.Errorf("profile fields lost: %+v", app)
	}
	if app.VerifyMethod != MethodReferral || app.VerifyValue != "314" || app.VerifyRefName != "Bob" {
		t.Errorf("verification fields lost: %+v", app)
	}
	if app.State.Kind != KindCompleted {
		t.Errorf("state = %+v", app.State)
	}
	if app.Status != StatusPending {
		t.Errorf("status = %q", app.Status)
	}
	// Unwritten fields come back from NULL columns as empty.
	if app.DecisionReason != "" || app.InviteLink != "" || app.ReviewedByID != 0 || app.ReviewedByName != "" {
		t.Errorf("empty fields did not round-trip: %+v", app)
	}
	if app.CreatedAt.IsZero() || app.UpdatedAt.Before(app.CreatedAt) {
		t.Errorf("timestamps: created=%v updated=%v", app.CreatedAt, app.UpdatedAt)
	}
}

func TestSQLStateTokenPersistence(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	err := s.Update(ctx, 11, func(tx *Tx) error {
		tx.SetState(AwaitingReason(DecisionReject, 42))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	app, err := s.Get(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	st := app.State
	if st.Kind != KindAwaitingReason || st.Decision != DecisionReject || st.ApplicantID != 42 {
		t.Errorf("parked decision did not survive the store: %+v", st)
	}
}

func TestSQLInsertThenUpdate(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.Update(ctx, 7, func(tx *Tx) error {
		tx.Apply(Writes{Name: Set("Jane Doe")})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	before, err := s.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Update(ctx, 7, func(tx *Tx) error {
		tx.Apply(Writes{Company: Set("Acme")})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	after, err := s.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}

	if after.Name != "Jane Doe" || after.Company != "Acme" {
		t.Errorf("second write clobbered the record: %+v", after)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("created_at changed on update: %v then %v", before.CreatedAt, after.CreatedAt)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v then %v", before.UpdatedAt, after.UpdatedAt)
	}
}

func TestSQLCallbackErrorDiscardsWrites(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, 8, func(tx *Tx) error {
		tx.Apply(Writes{Name: Set("should not persist")})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := s.Get(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record persisted despite error: %v", err)
	}
}

func TestSQLUpdatedAtMonotonic(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		if err := s.Update(ctx, 9, func(tx *Tx) error {
			tx.Apply(Writes{Motivation: Set("again")})
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		app, err := s.Get(ctx, 9)
		if err != nil {
			t.Fatal(err)
		}
		stamp := app.UpdatedAt.UnixMicro()
		if stamp <= prev {
			t.Fatalf("updated_at did not advance: %d then %d", prev, stamp)
		}
		prev = stamp
	}
}

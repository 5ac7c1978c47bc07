package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemory()
	if _, err := s.Get(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryLazyCreate(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	err := s.Update(ctx, 42, func(tx *Tx) error {
		if tx.Application().Status != StatusPending {
			t.Errorf("fresh record status = %q, want pending", tx.Application().Status)
		}
		tx.Apply(Writes{Name: Set("Jane Doe")})
		tx.SetState(Onboarding(StepCompany))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	app, err := s.Get(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if app.Name != "Jane Doe" || app.State.Step != StepCompany {
		t.Errorf("unexpected record: %+v", app)
	}
	if app.CreatedAt.IsZero() || app.UpdatedAt.Before(app.CreatedAt) {
		t.Errorf("timestamps not set: created=%v updated=%v", app.CreatedAt, app.UpdatedAt)
	}
}

func TestMemoryCallbackErrorDiscardsWrites(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, 7, func(tx *Tx) error {
		tx.Apply(Writes{Name: Set("should not persist")})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if _, err := s.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record persisted despite error: %v", err)
	}
}

func TestMemoryUpdatedAtMonotonic(t *testing.T) {
	s := NewMemory()
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

func TestMemoryConcurrentUpdatesSerialize(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	counts := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Update(ctx, 5, func(tx *Tx) error {
				if tx.Application().Status == StatusPending {
					counts[i]++
				}
				tx.Apply(Writes{Status: Set(StatusApproved)})
				return nil
			})
		}(i)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != 1 {
		t.Errorf("expected exactly one worker to observe pending, got %d", total)
	}
}

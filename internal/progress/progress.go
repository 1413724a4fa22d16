// Package progress saves and restores an in-flight wizard draft so a user
// can resume where they left off.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/tripwise/internal/kv"
)

// Snapshot is the persisted form of a draft.
type Snapshot[T any] struct {
	CurrentStep int       `json:"currentStep"`
	Reached     int       `json:"reached,omitempty"`
	Data        T         `json:"data"`
	LastSaved   time.Time `json:"lastSaved"`
}

// Bridge reads and writes the single saved draft under kv.KeyFormProgress.
type Bridge[T any] struct {
	kv  kv.Store
	now func() time.Time
}

func New[T any](s kv.Store) *Bridge[T] {
	return &Bridge[T]{kv: s, now: time.Now}
}

func (b *Bridge[T]) Save(ctx context.Context, step, reached int, data T) error {
	snap := Snapshot[T]{
		CurrentStep: step,
		Reached:     reached,
		Data:        data,
		LastSaved:   b.now().UTC(),
	}

	if err := kv.SetJSON(ctx, b.kv, kv.KeyFormProgress, snap); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}

	return nil
}

// Load returns false when nothing usable is saved.
func (b *Bridge[T]) Load(ctx context.Context) (Snapshot[T], bool, error) {
	var snap Snapshot[T]

	ok, err := kv.GetJSON(ctx, b.kv, kv.KeyFormProgress, &snap)
	if err != nil {
		return Snapshot[T]{}, false, fmt.Errorf("loading progress: %w", err)
	}

	if !ok {
		return Snapshot[T]{}, false, nil
	}

	return snap, true, nil
}

func (b *Bridge[T]) Clear(ctx context.Context) error {
	if err := b.kv.Remove(ctx, kv.KeyFormProgress); err != nil {
		return fmt.Errorf("clearing progress: %w", err)
	}

	return nil
}

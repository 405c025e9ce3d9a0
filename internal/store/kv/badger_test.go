package kv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/session"
)

func newTestStore(t *testing.T) *Badger {
	t.Helper()
	store, err := Open(t.TempDir(), "casino")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func round(id, account string, created time.Time) *session.Round {
	seed := engine.DeriveSeed(engine.Seed{7}, uint64(created.UnixNano()))
	return &session.Round{
		ID:         id,
		Account:    account,
		Variant:    games.VariantWheel,
		Params:     map[string]any{"segments": 10, "risk": "low"},
		Stake:      decimal.Zero,
		Commitment: engine.HashSeed(seed),
		Seed:       &seed,
		State:      session.StateCreated,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestStoreBasicOperations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	r := round("r1", "alice", now)
	if err := store.Create(ctx, r); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, r); !errors.Is(err, session.ErrRoundExists) {
		t.Errorf("expected ErrRoundExists, got %v", err)
	}

	r.State = session.StateAborted
	r.AbortReason = "cancelled"
	if err := store.Update(ctx, r); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != session.StateAborted || got.AbortReason != "cancelled" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.Commitment != r.Commitment {
		t.Error("commitment changed in storage")
	}
	if got.Params["risk"] != "low" {
		t.Errorf("params not persisted: %v", got.Params)
	}
}

func TestStoreNotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, session.ErrRoundNotFound) {
		t.Errorf("expected ErrRoundNotFound, got %v", err)
	}
	if err := store.Update(ctx, round("missing", "alice", time.Now())); !errors.Is(err, session.ErrRoundNotFound) {
		t.Errorf("expected ErrRoundNotFound on update, got %v", err)
	}
	if err := store.Create(ctx, round("", "alice", time.Now())); !errors.Is(err, ErrKeyEmpty) {
		t.Errorf("expected ErrKeyEmpty, got %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		if err := store.Create(ctx, round(id, "alice", base.Add(time.Duration(i)*time.Millisecond))); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	// "ali" shares a key prefix with "alice" but is another account.
	if err := store.Create(ctx, round("other", "ali", base.Add(time.Hour))); err != nil {
		t.Fatalf("Create(other) error = %v", err)
	}

	rounds, err := store.ListByAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(rounds) != len(want) {
		t.Fatalf("expected %d rounds, got %d", len(want), len(rounds))
	}
	for i, r := range rounds {
		if r.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], r.ID)
		}
	}

	empty, err := store.ListByAccount(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByAccount() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no rounds, got %d", len(empty))
	}
}

func TestStoreInMemory(t *testing.T) {
	store, err := Open("", "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.Create(context.Background(), round("m1", "bob", time.Now())); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Get(context.Background(), "m1"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

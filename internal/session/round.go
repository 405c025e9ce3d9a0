package session

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/ledger"
	"github.com/MJE43/pf-casino-engine/internal/replay"
)

// State of a round. Rounds only move forward through the states below.
type State string

const (
	StateCreated   State = "created"
	StateCommitted State = "committed"
	StateRevealed  State = "revealed"
	StateSettled   State = "settled"
	StateClosed    State = "closed"
	StateAborted   State = "aborted"
)

var stateRank = map[State]int{
	StateCreated:   0,
	StateCommitted: 1,
	StateRevealed:  2,
	StateSettled:   3,
	StateClosed:    4,
}

// CanTransition reports whether a round in s may move to next. Aborted is
// reachable from every non-terminal state.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateAborted {
		return true
	}
	from, ok := stateRank[s]
	to, ok2 := stateRank[next]
	return ok && ok2 && to == from+1
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateAborted
}

// SeedExposed reports whether a round in s may publish its seed.
func (s State) SeedExposed() bool {
	return s == StateRevealed || s == StateSettled || s == StateClosed
}

// Round is one play cycle. Seed is persisted from creation but only exposed
// through Public once the round is revealed.
type Round struct {
	ID            string               `json:"id"`
	Account       string               `json:"account"`
	Variant       games.Variant        `json:"variant"`
	Params        map[string]any       `json:"params,omitempty"`
	Wagers        []bets.Wager         `json:"wagers,omitempty"`
	Stake         decimal.Decimal      `json:"stake"`
	Commitment    engine.Commitment    `json:"commitment"`
	Seed          *engine.Seed         `json:"seed,omitempty"`
	State         State                `json:"state"`
	ReservationID ledger.ReservationID `json:"reservation_id,omitempty"`
	Released      bool                 `json:"released,omitempty"`
	Outcome       *games.Outcome       `json:"outcome,omitempty"`
	Evaluation    *bets.Evaluation     `json:"evaluation,omitempty"`
	Payout        *decimal.Decimal     `json:"payout,omitempty"`
	AbortReason   string               `json:"abort_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CommittedAt *time.Time `json:"committed_at,omitempty"`
	RevealedAt  *time.Time `json:"revealed_at,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// Clone returns a copy that shares no mutable slices or maps with r.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	c := *r
	c.Params = maps.Clone(r.Params)
	c.Wagers = append([]bets.Wager(nil), r.Wagers...)
	if r.Seed != nil {
		seed := *r.Seed
		c.Seed = &seed
	}
	if r.Payout != nil {
		payout := *r.Payout
		c.Payout = &payout
	}
	return &c
}

// Public is the caller-facing copy: the seed is withheld until reveal.
func (r *Round) Public() *Round {
	c := r.Clone()
	if !r.State.SeedExposed() {
		c.Seed = nil
	}
	return c
}

// Proof returns the reveal proof, or false while the seed is secret.
func (r *Round) Proof() (replay.Proof, bool) {
	if !r.State.SeedExposed() || r.Seed == nil {
		return replay.Proof{}, false
	}
	return replay.Proof{
		Commitment: r.Commitment,
		Seed:       *r.Seed,
		Variant:    r.Variant,
		Params:     r.Params,
	}, true
}

// ReplayInput is the public record needed to recompute the round offline.
func (r *Round) ReplayInput() replay.Input {
	in := replay.Input{
		Commitment: r.Commitment,
		Variant:    r.Variant,
		Params:     r.Params,
		Wagers:     r.Wagers,
	}
	if r.Seed != nil {
		in.Seed = *r.Seed
	}
	return in
}

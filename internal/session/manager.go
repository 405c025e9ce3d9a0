// Package session drives a round through commit, reveal and settlement.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/ledger"
	"github.com/MJE43/pf-casino-engine/internal/replay"
)

const (
	reasonCancelled = "cancelled"
	reasonRefunded  = "refunded"
)

// Revelation is the result of a reveal.
type Revelation struct {
	Round      *Round          `json:"round"`
	Outcome    games.Outcome   `json:"outcome"`
	Evaluation bets.Evaluation `json:"evaluation"`
	Payout     decimal.Decimal `json:"payout"`
	Proof      replay.Proof    `json:"proof"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for round timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRandom sets the secure byte source seeds are drawn from.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) { m.random = r }
}

// WithLogger sets the logger. Seeds are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager owns the round lifecycle. Rounds of one account are serialized;
// rounds of different accounts run in parallel.
type Manager struct {
	store    RoundStore
	ledger   ledger.Ledger
	audit    AuditSink
	random   io.Reader
	now      func() time.Time
	log      *slog.Logger
	accounts *keyedMutex
}

// NewManager wires a Manager. A nil audit sink discards records.
func NewManager(store RoundStore, l ledger.Ledger, audit AuditSink, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		ledger:   l,
		audit:    audit,
		random:   rand.Reader,
		now:      time.Now,
		log:      slog.Default(),
		accounts: newKeyedMutex(),
	}
	if m.audit == nil {
		m.audit = DiscardAudit
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartRound validates the game and mints a committed seed.
func (m *Manager) StartRound(ctx context.Context, account string, variant games.Variant, params map[string]any) (*Round, error) {
	const op = "start_round"

	if strings.TrimSpace(account) == "" {
		return nil, &Error{Kind: KindInvalidInput, Op: op, Field: "account", Err: errors.New("account is required")}
	}
	game, err := games.Lookup(variant)
	if err != nil {
		return nil, newError(KindInvalidInput, op, "", err)
	}
	if err := game.Validate(params); err != nil {
		return nil, newError(KindInvalidInput, op, "", err)
	}

	seed, commitment, err := engine.Commit(m.random)
	if err != nil {
		return nil, newError(KindCollaborator, op, "", err)
	}

	now := m.now().UTC()
	r := &Round{
		ID:         uuid.NewString(),
		Account:    account,
		Variant:    variant,
		Params:     maps.Clone(params),
		Stake:      decimal.Zero,
		Commitment: commitment,
		Seed:       &seed,
		State:      StateCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.store.Create(ctx, r); err != nil {
		return nil, newError(KindCollaborator, op, r.ID, err)
	}

	m.log.Info("round created", "round_id", r.ID, "account", account, "variant", variant, "commitment", commitment.String())
	return r.Public(), nil
}

// PlaceWagers locks the wager list and reserves the total stake.
func (m *Manager) PlaceWagers(ctx context.Context, id string, specs []bets.WagerSpec) (*Round, error) {
	const op = "place_wagers"

	r, unlock, err := m.lockRound(ctx, op, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if r.State != StateCreated {
		return nil, stateError(op, r, "wagers are final once committed")
	}

	wagers, err := bets.ParseWagers(specs)
	if err != nil {
		return nil, newError(KindInvalidInput, op, r.ID, err)
	}
	if err := bets.ValidateFor(r.Variant, r.Params, wagers); err != nil {
		return nil, newError(KindInvalidInput, op, r.ID, err)
	}

	stake := bets.TotalStake(wagers)
	reservation, err := m.ledger.Reserve(ctx, r.Account, stake)
	if err != nil {
		return nil, ledgerError(op, r.ID, err)
	}

	committed, err := m.advance(ctx, op, r, StateCommitted, func(next *Round) {
		next.Wagers = wagers
		next.Stake = stake
		next.ReservationID = reservation
	})
	if err != nil {
		// The reservation id was never persisted; release it even if ctx is done.
		if rerr := m.ledger.Release(context.WithoutCancel(ctx), reservation); rerr != nil {
			m.log.Error("release after failed commit", "round_id", r.ID, "reservation_id", reservation, "error", rerr)
		}
		return nil, err
	}

	m.log.Info("round committed", "round_id", r.ID, "commitment", r.Commitment.String(), "stake", stake.String(), "wagers", len(wagers))
	m.record(ctx, committed, AuditCommitted, "")
	return committed.Public(), nil
}

// Reveal verifies the seed, computes the outcome and payout, and settles with
// the ledger. A round left in revealed or settled by a collaborator failure
// resumes from its persisted outcome; a closed round returns its result again.
func (m *Manager) Reveal(ctx context.Context, id string) (*Revelation, error) {
	const op = "reveal"

	r, unlock, err := m.lockRound(ctx, op, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	switch r.State {
	case StateCreated:
		return nil, stateError(op, r, "no wagers placed")
	case StateAborted:
		return nil, stateError(op, r, "round aborted: "+r.AbortReason)
	}

	if r.State == StateCommitted {
		res, err := replay.Replay(r.ReplayInput())
		if err != nil {
			return nil, m.abortDefect(ctx, op, r, err)
		}
		r, err = m.advance(ctx, op, r, StateRevealed, func(next *Round) {
			next.Outcome = &res.Outcome
		})
		if err != nil {
			return nil, err
		}
		m.log.Info("round revealed", "round_id", r.ID, "variant", r.Variant, "metric", r.Outcome.Metric())
	}

	if r.State == StateRevealed {
		if r.Outcome == nil {
			return nil, m.abortDefect(ctx, op, r, errors.New("revealed round has no outcome"))
		}
		eval, err := bets.Evaluate(*r.Outcome, r.Wagers)
		if err != nil {
			return nil, m.abortDefect(ctx, op, r, err)
		}
		payout := eval.TotalPayout
		r, err = m.advance(ctx, op, r, StateSettled, func(next *Round) {
			next.Evaluation = &eval
			next.Payout = &payout
		})
		if err != nil {
			return nil, err
		}
	}

	if r.State == StateSettled {
		if err := m.ledger.Settle(ctx, r.ReservationID, *r.Payout); err != nil {
			m.log.Warn("ledger settle failed, round stays settled", "round_id", r.ID, "reservation_id", r.ReservationID, "error", err)
			return nil, newError(KindCollaborator, op, r.ID, err)
		}
		r, err = m.advance(ctx, op, r, StateClosed, nil)
		if err != nil {
			return nil, err
		}
		m.log.Info("round closed", "round_id", r.ID, "stake", r.Stake.String(), "payout", r.Payout.String())
		m.record(ctx, r, AuditClosed, "")
	}

	return revelation(r), nil
}

// Cancel aborts a round that has no wagers yet.
func (m *Manager) Cancel(ctx context.Context, id string) (*Round, error) {
	const op = "cancel"

	r, unlock, err := m.lockRound(ctx, op, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if r.State != StateCreated {
		return nil, stateError(op, r, "only created rounds can be cancelled, committed rounds need a refund")
	}

	aborted, err := m.advance(ctx, op, r, StateAborted, func(next *Round) {
		next.AbortReason = reasonCancelled
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("round cancelled", "round_id", r.ID)
	m.record(ctx, aborted, AuditAborted, "")
	return aborted.Public(), nil
}

// Refund aborts a committed round and releases its reservation. It also
// retries the release of an aborted round whose release failed earlier.
func (m *Manager) Refund(ctx context.Context, id string) (*Round, error) {
	const op = "refund"

	r, unlock, err := m.lockRound(ctx, op, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	switch {
	case r.State == StateCommitted:
		r, err = m.advance(ctx, op, r, StateAborted, func(next *Round) {
			next.AbortReason = reasonRefunded
		})
		if err != nil {
			return nil, err
		}
	case r.State == StateAborted && r.ReservationID != "" && !r.Released:
	default:
		return nil, stateError(op, r, "nothing to refund")
	}

	r, err = m.release(ctx, op, r)
	if err != nil {
		return nil, err
	}
	m.log.Info("round refunded", "round_id", r.ID, "stake", r.Stake.String())
	m.record(ctx, r, AuditRefunded, "")
	return r.Public(), nil
}

// Get returns the caller-facing view of a round.
func (m *Manager) Get(ctx context.Context, id string) (*Round, error) {
	r, err := m.load(ctx, "get", id)
	if err != nil {
		return nil, err
	}
	return r.Public(), nil
}

// List returns the account's rounds, newest first.
func (m *Manager) List(ctx context.Context, account string) ([]*Round, error) {
	rounds, err := m.store.ListByAccount(ctx, account)
	if err != nil {
		return nil, newError(KindCollaborator, "list", "", err)
	}
	out := make([]*Round, len(rounds))
	for i, r := range rounds {
		out[i] = r.Public()
	}
	return out, nil
}

func (m *Manager) load(ctx context.Context, op, id string) (*Round, error) {
	r, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrRoundNotFound) {
		return nil, newError(KindNotFound, op, id, err)
	}
	if err != nil {
		return nil, newError(KindCollaborator, op, id, err)
	}
	return r, nil
}

// lockRound takes the account lock of round id and returns the round as read
// under that lock.
func (m *Manager) lockRound(ctx context.Context, op, id string) (*Round, func(), error) {
	r, err := m.load(ctx, op, id)
	if err != nil {
		return nil, nil, err
	}
	unlock := m.accounts.Lock(r.Account)

	r, err = m.load(ctx, op, id)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return r, unlock, nil
}

// advance persists the transition of cur to next. cur is left untouched.
func (m *Manager) advance(ctx context.Context, op string, cur *Round, next State, apply func(*Round)) (*Round, error) {
	if !cur.State.CanTransition(next) {
		return nil, stateError(op, cur, fmt.Sprintf("cannot move from %s to %s", cur.State, next))
	}

	nr := cur.Clone()
	if apply != nil {
		apply(nr)
	}
	now := m.now().UTC()
	nr.State = next
	nr.UpdatedAt = now
	switch next {
	case StateCommitted:
		nr.CommittedAt = &now
	case StateRevealed:
		nr.RevealedAt = &now
	case StateSettled:
		nr.SettledAt = &now
	case StateClosed:
		nr.ClosedAt = &now
	}

	if err := m.store.Update(ctx, nr); err != nil {
		return nil, newError(KindCollaborator, op, cur.ID, err)
	}
	return nr, nil
}

func (m *Manager) release(ctx context.Context, op string, r *Round) (*Round, error) {
	if r.ReservationID == "" || r.Released {
		return r, nil
	}
	// Once started, the release and its bookkeeping finish regardless of ctx.
	ctx = context.WithoutCancel(ctx)
	if err := m.ledger.Release(ctx, r.ReservationID); err != nil {
		m.log.Warn("ledger release failed", "round_id", r.ID, "reservation_id", r.ReservationID, "error", err)
		return nil, newError(KindCollaborator, op, r.ID, err)
	}

	nr := r.Clone()
	nr.Released = true
	nr.UpdatedAt = m.now().UTC()
	if err := m.store.Update(ctx, nr); err != nil {
		return nil, newError(KindCollaborator, op, r.ID, err)
	}
	return nr, nil
}

// abortDefect moves r to aborted after an integrity failure, records the
// defect and releases the stake. The seed is never exposed.
func (m *Manager) abortDefect(ctx context.Context, op string, r *Round, cause error) error {
	m.log.Error("integrity failure, aborting round", "round_id", r.ID, "commitment", r.Commitment.String(), "error", cause)

	aborted, err := m.advance(ctx, op, r, StateAborted, func(next *Round) {
		next.AbortReason = cause.Error()
		next.Outcome = nil
		next.Evaluation = nil
		next.Payout = nil
	})
	if err != nil {
		return newError(KindIntegrity, op, r.ID, errors.Join(cause, err))
	}
	m.record(ctx, aborted, AuditDefect, cause.Error())

	if _, err := m.release(ctx, op, aborted); err != nil {
		m.log.Error("release after integrity failure", "round_id", r.ID, "error", err)
	}
	return newError(KindIntegrity, op, r.ID, cause)
}

func (m *Manager) record(ctx context.Context, r *Round, event AuditEvent, defect string) {
	entry := AuditEntry{
		RoundID:    r.ID,
		Account:    r.Account,
		Event:      event,
		Commitment: r.Commitment,
		Variant:    r.Variant,
		Params:     r.Params,
		Wagers:     r.Wagers,
		Outcome:    r.Outcome,
		Payout:     r.Payout,
		Defect:     defect,
		CreatedAt:  r.CreatedAt,
		RecordedAt: m.now().UTC(),
	}
	if r.State.SeedExposed() {
		entry.Seed = r.Seed
	}
	if err := m.audit.Append(ctx, entry); err != nil {
		m.log.Error("audit append failed", "round_id", r.ID, "event", event, "error", err)
	}
}

func revelation(r *Round) *Revelation {
	proof, _ := r.Proof()
	rev := &Revelation{Round: r.Public(), Proof: proof}
	if r.Outcome != nil {
		rev.Outcome = *r.Outcome
	}
	if r.Evaluation != nil {
		rev.Evaluation = *r.Evaluation
	}
	if r.Payout != nil {
		rev.Payout = *r.Payout
	}
	return rev
}

func stateError(op string, r *Round, reason string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, RoundID: r.ID, Err: fmt.Errorf("round is %s: %s", r.State, reason)}
}

func ledgerError(op, roundID string, err error) *Error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return newError(KindInsufficientFunds, op, roundID, err)
	case errors.Is(err, ledger.ErrInvalidAmount):
		return &Error{Kind: KindInvalidInput, Op: op, RoundID: roundID, Field: "amount", Err: err}
	default:
		return newError(KindCollaborator, op, roundID, err)
	}
}

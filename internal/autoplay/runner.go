// Package autoplay plays rounds back to back through the session manager,
// optionally steering the stake with a JavaScript strategy.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/session"
)

// State represents the runner's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateFinished State = "finished"
	StateError    State = "error"
)

var (
	ErrRunning     = errors.New("autoplay is already running")
	ErrNotRunning  = errors.New("autoplay is not running")
	ErrInvalidPlan = errors.New("invalid autoplay plan")
)

// Player is the part of *session.Manager the runner drives.
type Player interface {
	StartRound(ctx context.Context, account string, variant games.Variant, params map[string]any) (*session.Round, error)
	PlaceWagers(ctx context.Context, id string, specs []bets.WagerSpec) (*session.Round, error)
	Reveal(ctx context.Context, id string) (*session.Revelation, error)
}

// Plan describes an autoplay run. Rounds of zero plays until stopped.
type Plan struct {
	Account      string           `json:"account" validate:"required"`
	Variant      games.Variant    `json:"variant" validate:"required"`
	Params       map[string]any   `json:"params,omitempty"`
	Wagers       []bets.WagerSpec `json:"wagers" validate:"required,min=1"`
	Rounds       int              `json:"rounds" validate:"gte=0"`
	Interval     time.Duration    `json:"interval"`
	Strategy     string           `json:"strategy,omitempty"`
	StartBalance decimal.Decimal  `json:"start_balance"`
	StopOnWin    bool             `json:"stop_on_win,omitempty"`
}

// Snapshot is a serializable view of the runner.
type Snapshot struct {
	State     State      `json:"state"`
	Error     string     `json:"error,omitempty"`
	Stats     Statistics `json:"stats"`
	LastRound string     `json:"last_round,omitempty"`
	NextBet   float64    `json:"next_bet"`
	Logs      []LogEntry `json:"logs,omitempty"`
}

// Runner executes one Plan at a time.
type Runner struct {
	player Player
	log    *slog.Logger

	mu        sync.RWMutex
	state     State
	err       error
	stats     *Statistics
	lastRound string
	nextBet   float64
	cancel    context.CancelFunc
	done      chan struct{}
	vm        *vm
}

func NewRunner(player Player, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		player: player,
		log:    logger.With("component", "autoplay"),
		state:  StateIdle,
		stats:  NewStatistics(decimal.Zero),
	}
}

// Start validates the plan, loads the strategy and begins playing in the
// background. The run ends when ctx is cancelled, Stop is called, the plan's
// round count is reached or the strategy calls stop().
func (r *Runner) Start(ctx context.Context, plan Plan) error {
	if err := validatePlan(plan); err != nil {
		return err
	}

	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return ErrRunning
	}

	var strategy *vm
	if plan.Strategy != "" {
		strategy = newVM()
		if err := strategy.load(plan.Strategy); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.state = StateRunning
	r.err = nil
	r.stats = NewStatistics(plan.StartBalance)
	r.lastRound = ""
	r.nextBet = 1
	r.cancel = cancel
	r.done = make(chan struct{})
	r.vm = strategy
	done := r.done
	r.mu.Unlock()

	r.log.Info("autoplay started", "account", plan.Account, "variant", plan.Variant, "rounds", plan.Rounds)
	go func() {
		defer close(done)
		defer cancel()
		r.loop(runCtx, plan, strategy)
	}()
	return nil
}

// Stop cancels a running plan and waits for the current round to finish.
func (r *Runner) Stop() error {
	r.mu.RLock()
	if r.state != StateRunning {
		r.mu.RUnlock()
		return ErrNotRunning
	}
	cancel, done, strategy := r.cancel, r.done, r.vm
	r.mu.RUnlock()

	cancel()
	if strategy != nil {
		strategy.interrupt()
	}
	<-done
	return nil
}

// Wait blocks until the current run ends and returns its error, if any.
func (r *Runner) Wait() error {
	r.mu.RLock()
	done := r.done
	r.mu.RUnlock()
	if done == nil {
		return nil
	}
	<-done

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

func (r *Runner) State() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		State:     r.state,
		Stats:     *r.stats,
		LastRound: r.lastRound,
		NextBet:   r.nextBet,
	}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	if r.vm != nil {
		snap.Logs = r.vm.getLogs()
	}
	return snap
}

func (r *Runner) loop(ctx context.Context, plan Plan, strategy *vm) {
	multiplier := 1.0

	for played := 0; plan.Rounds == 0 || played < plan.Rounds; played++ {
		if ctx.Err() != nil {
			r.finish(StateStopped, nil)
			return
		}

		wagers, err := scaleWagers(plan.Wagers, multiplier)
		if err != nil {
			r.finish(StateError, err)
			return
		}

		rev, err := r.play(ctx, plan, wagers)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(StateStopped, nil)
				return
			}
			r.finish(StateError, err)
			return
		}

		win := rev.Payout.IsPositive()
		r.mu.Lock()
		r.stats.Record(rev.Round.Stake, rev.Payout, win)
		r.lastRound = rev.Round.ID
		stats := *r.stats
		r.mu.Unlock()

		if strategy != nil {
			strategy.set(varsFrom(stats, win, multiplier))
			next, err := strategy.dobet()
			if err != nil {
				if ctx.Err() != nil {
					r.finish(StateStopped, nil)
					return
				}
				r.finish(StateError, err)
				return
			}
			if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
				r.finish(StateError, fmt.Errorf("nextbet must be a finite number > 0, got %v", next))
				return
			}
			multiplier = next
			r.mu.Lock()
			r.nextBet = next
			r.mu.Unlock()

			if strategy.stopped() {
				r.finish(StateStopped, nil)
				return
			}
		}
		if plan.StopOnWin && win {
			r.finish(StateStopped, nil)
			return
		}

		if plan.Interval > 0 {
			timer := time.NewTimer(plan.Interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				r.finish(StateStopped, nil)
				return
			case <-timer.C:
			}
		}
	}
	r.finish(StateFinished, nil)
}

func (r *Runner) play(ctx context.Context, plan Plan, wagers []bets.WagerSpec) (*session.Revelation, error) {
	round, err := r.player.StartRound(ctx, plan.Account, plan.Variant, plan.Params)
	if err != nil {
		return nil, err
	}
	if _, err := r.player.PlaceWagers(ctx, round.ID, wagers); err != nil {
		return nil, err
	}
	// Committed rounds are finished even when the run is being stopped.
	return r.player.Reveal(context.WithoutCancel(ctx), round.ID)
}

func (r *Runner) finish(state State, err error) {
	r.mu.Lock()
	r.state = state
	r.err = err
	stats := *r.stats
	r.mu.Unlock()

	if err != nil {
		r.log.Error("autoplay failed", "bets", stats.Bets, "error", err)
		return
	}
	r.log.Info("autoplay ended", "state", state, "bets", stats.Bets, "profit", stats.Profit.String())
}

func varsFrom(s Statistics, win bool, multiplier float64) vars {
	return vars{
		Win:        win,
		Balance:    s.Balance.InexactFloat64(),
		Profit:     s.Profit.InexactFloat64(),
		LastPayout: s.LastPayout.InexactFloat64(),
		LastStake:  s.LastStake.InexactFloat64(),
		Bets:       s.Bets,
		Wins:       s.Wins,
		Losses:     s.Losses,
		WinStreak:  s.WinStreak,
		LoseStreak: s.LoseStreak,
		NextBet:    multiplier,
	}
}

// scaleWagers multiplies every amount by m, rounded to cents.
func scaleWagers(specs []bets.WagerSpec, m float64) ([]bets.WagerSpec, error) {
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return nil, fmt.Errorf("stake multiplier %v is not finite", m)
	}
	factor := decimal.NewFromFloat(m)
	out := lo.Map(specs, func(s bets.WagerSpec, _ int) bets.WagerSpec {
		s.Amount = s.Amount.Mul(factor).Round(2)
		return s
	})
	if lo.ContainsBy(out, func(s bets.WagerSpec) bool { return !s.Amount.IsPositive() }) {
		return nil, fmt.Errorf("stake multiplier %v rounds a wager to zero", m)
	}
	return out, nil
}

func validatePlan(p Plan) error {
	switch {
	case p.Account == "":
		return fmt.Errorf("%w: account is required", ErrInvalidPlan)
	case len(p.Wagers) == 0:
		return fmt.Errorf("%w: at least one wager is required", ErrInvalidPlan)
	case p.Rounds < 0:
		return fmt.Errorf("%w: rounds must be >= 0", ErrInvalidPlan)
	case p.Interval < 0:
		return fmt.Errorf("%w: interval must be >= 0", ErrInvalidPlan)
	}
	if _, err := games.Lookup(p.Variant); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return nil
}

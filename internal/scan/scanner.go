// Package scan simulates many rounds from derived seeds to measure the
// return-to-player of a wager list.
package scan

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
)

const (
	defaultBatchSize = 4096
	defaultHitLimit  = 1000
	// MaxCount bounds a single scan.
	MaxCount = 10_000_000
)

// Request describes a simulation. Round i plays with DeriveSeed(BaseSeed, Start+i).
type Request struct {
	Variant    games.Variant    `json:"variant" validate:"required"`
	Params     map[string]any   `json:"params,omitempty"`
	Wagers     []bets.WagerSpec `json:"wagers" validate:"required,min=1,dive"`
	BaseSeed   engine.Seed      `json:"base_seed"`
	Start      uint64           `json:"start"`
	Count      uint64           `json:"count" validate:"required,min=1"`
	TargetOp   TargetOp         `json:"target_op,omitempty"`
	TargetVal  float64          `json:"target_val,omitempty"`
	TargetVal2 float64          `json:"target_val2,omitempty"` // for "between" and "outside"
	Tolerance  float64          `json:"tolerance,omitempty"`
	Limit      int              `json:"limit,omitempty"`
	TimeoutMs  int              `json:"timeout_ms,omitempty"`
}

// Hit is a round whose payout multiple matched the target.
type Hit struct {
	Index    uint64          `json:"index"`
	Metric   float64         `json:"metric"`
	Multiple float64         `json:"multiple"`
	Payout   decimal.Decimal `json:"payout"`
}

// Summary contains aggregate statistics
type Summary struct {
	TotalEvaluated uint64            `json:"total_evaluated"`
	HitsFound      int               `json:"hits_found"`
	Wins           uint64            `json:"wins"`
	TotalStake     decimal.Decimal   `json:"total_stake"`
	TotalPayout    decimal.Decimal   `json:"total_payout"`
	RTP            float64           `json:"rtp"`
	MaxMultiple    float64           `json:"max_multiple"`
	Frequency      map[string]uint64 `json:"frequency"`
	TimedOut       bool              `json:"timed_out,omitempty"`
}

// Result contains the complete scan results
type Result struct {
	Hits          []Hit   `json:"hits"`
	Summary       Summary `json:"summary"`
	EngineVersion string  `json:"engine_version"`
	Echo          Request `json:"echo"`
}

// Config tunes a Scanner. Zero values pick defaults.
type Config struct {
	Workers       int
	BatchSize     uint64
	EngineVersion string
}

// Scanner fans rounds out over a worker pool.
type Scanner struct {
	workerCount   int
	batchSize     uint64
	engineVersion string
}

// NewScanner creates a scanner; by default one worker per CPU.
func NewScanner(cfg Config) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.EngineVersion == "" {
		cfg.EngineVersion = "dev"
	}
	return &Scanner{workerCount: cfg.Workers, batchSize: cfg.BatchSize, engineVersion: cfg.EngineVersion}
}

type job struct {
	start, end uint64 // end exclusive
}

// partial is one worker's share of the summary.
type partial struct {
	evaluated   uint64
	wins        uint64
	stake       decimal.Decimal
	payout      decimal.Decimal
	maxMultiple float64
	frequency   map[string]uint64
	err         error
}

// Scan plays req.Count rounds and aggregates the outcome.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	game, err := games.Lookup(req.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGameNotFound, err)
	}
	if err := game.Validate(req.Params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Count == 0 || req.Count > MaxCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRange, MaxCount)
	}
	if req.Start+req.Count < req.Start {
		return nil, fmt.Errorf("%w: range overflows", ErrInvalidRange)
	}
	if req.TargetOp != "" && !req.TargetOp.Valid() {
		return nil, fmt.Errorf("%w: unknown target op %q", ErrInvalidRequest, req.TargetOp)
	}

	wagers, err := bets.ParseWagers(req.Wagers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := bets.ValidateFor(req.Variant, req.Params, wagers); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	stake := bets.TotalStake(wagers)

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	var target *TargetEvaluator
	if req.TargetOp != "" {
		tolerance := req.Tolerance
		if tolerance == 0 {
			tolerance = 1e-9
		}
		target = NewTargetEvaluator(req.TargetOp, req.TargetVal, req.TargetVal2, tolerance)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultHitLimit
	}

	// runCtx also stops the pool when a worker fails.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job, s.workerCount*2)
	hits := make(chan Hit, 1024)
	partials := make(chan partial, s.workerCount)

	var wg sync.WaitGroup
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := s.work(runCtx, jobs, hits, game, req, wagers, stake, target)
			if p.err != nil {
				cancel()
			}
			partials <- p
		}()
	}

	go s.generateJobs(runCtx, jobs, req.Start, req.Start+req.Count)
	go func() {
		wg.Wait()
		close(hits)
		close(partials)
	}()

	collected := collectHits(hits, limit)

	summary := Summary{
		TotalStake:  decimal.Zero,
		TotalPayout: decimal.Zero,
		Frequency:   make(map[string]uint64),
	}
	for p := range partials {
		if p.err != nil && err == nil {
			err = p.err
		}
		summary.TotalEvaluated += p.evaluated
		summary.Wins += p.wins
		summary.TotalStake = summary.TotalStake.Add(p.stake)
		summary.TotalPayout = summary.TotalPayout.Add(p.payout)
		if p.maxMultiple > summary.MaxMultiple {
			summary.MaxMultiple = p.maxMultiple
		}
		for k, v := range p.frequency {
			summary.Frequency[k] += v
		}
	}
	if err != nil {
		return nil, err
	}

	summary.HitsFound = collected.found
	summary.TimedOut = ctx.Err() != nil
	if summary.TotalStake.IsPositive() {
		summary.RTP = summary.TotalPayout.Div(summary.TotalStake).InexactFloat64()
	}

	return &Result{
		Hits:          collected.hits,
		Summary:       summary,
		EngineVersion: s.engineVersion,
		Echo:          req,
	}, nil
}

func (s *Scanner) work(
	ctx context.Context,
	jobs <-chan job,
	hits chan<- Hit,
	game games.Game,
	req Request,
	wagers []bets.Wager,
	stake decimal.Decimal,
	target *TargetEvaluator,
) partial {
	p := partial{stake: decimal.Zero, payout: decimal.Zero, frequency: make(map[string]uint64)}

	for {
		var j job
		var ok bool
		select {
		case j, ok = <-jobs:
			if !ok {
				return p
			}
		case <-ctx.Done():
			return p
		}

		for i := j.start; i < j.end; i++ {
			if ctx.Err() != nil {
				return p
			}

			outcome, err := game.Generate(engine.DeriveSeed(req.BaseSeed, i), req.Params)
			if err != nil {
				p.err = fmt.Errorf("round %d: %w", i, err)
				return p
			}
			eval, err := bets.Evaluate(outcome, wagers)
			if err != nil {
				p.err = fmt.Errorf("round %d: %w", i, err)
				return p
			}

			p.evaluated++
			p.stake = p.stake.Add(stake)
			p.payout = p.payout.Add(eval.TotalPayout)
			if eval.TotalPayout.IsPositive() {
				p.wins++
			}
			metric := outcome.Metric()
			p.frequency[strconv.FormatFloat(metric, 'f', -1, 64)]++

			multiple := eval.TotalPayout.Div(stake).InexactFloat64()
			if multiple > p.maxMultiple {
				p.maxMultiple = multiple
			}

			if target != nil && target.Matches(multiple) {
				select {
				case hits <- Hit{Index: i, Metric: metric, Multiple: multiple, Payout: eval.TotalPayout}:
				case <-ctx.Done():
					return p
				}
			}
		}
	}
}

// generateJobs creates job batches for optimal throughput
func (s *Scanner) generateJobs(ctx context.Context, jobs chan<- job, start, end uint64) {
	defer close(jobs)

	for current := start; current < end; {
		batchEnd := current + s.batchSize
		if batchEnd > end || batchEnd < current {
			batchEnd = end
		}

		select {
		case jobs <- job{start: current, end: batchEnd}:
			current = batchEnd
		case <-ctx.Done():
			return
		}
	}
}

type collectedHits struct {
	hits  []Hit
	found int
}

// collectHits keeps the limit lowest-index hits so the result does not depend
// on worker scheduling.
func collectHits(hits <-chan Hit, limit int) collectedHits {
	var out collectedHits
	buf := make([]Hit, 0, limit)

	trim := func() {
		sort.Slice(buf, func(i, j int) bool { return buf[i].Index < buf[j].Index })
		if len(buf) > limit {
			buf = buf[:limit]
		}
	}

	for h := range hits {
		out.found++
		buf = append(buf, h)
		if len(buf) >= 2*limit {
			trim()
		}
	}
	trim()
	out.hits = buf
	return out
}

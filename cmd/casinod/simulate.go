package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/pf-casino-engine/internal/api"
	"github.com/MJE43/pf-casino-engine/internal/engine"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/scan"
)

func newSimulateCmd(root *rootOptions) *cobra.Command {
	var (
		file      string
		variant   string
		params    string
		wagers    string
		baseSeed  string
		start     uint64
		count     uint64
		targetOp  string
		targetVal float64
		limit     int
		timeout   time.Duration
		workers   int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play many rounds from derived seeds and report the RTP",
		Example: `  casinod simulate --variant roulette --wagers '[{"shape":"color","color":"red","amount":"1"}]' --count 100000
  casinod simulate --file request.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}

			var req scan.Request
			if file != "" {
				data, err := readInput(cmd, file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &req); err != nil {
					return fmt.Errorf("decode %s: %w", file, err)
				}
			} else {
				req = scan.Request{
					Variant:   games.Variant(variant),
					Start:     start,
					Count:     count,
					TargetOp:  scan.TargetOp(targetOp),
					TargetVal: targetVal,
					Limit:     limit,
				}
				if params != "" {
					if err := json.Unmarshal([]byte(params), &req.Params); err != nil {
						return fmt.Errorf("--params: %w", err)
					}
				}
				if err := json.Unmarshal([]byte(wagers), &req.Wagers); err != nil {
					return fmt.Errorf("--wagers: %w", err)
				}
				if baseSeed != "" {
					if req.BaseSeed, err = engine.ParseSeed(baseSeed); err != nil {
						return err
					}
				}
			}
			if timeout > 0 {
				req.TimeoutMs = int(timeout.Milliseconds())
			}
			if workers <= 0 {
				workers = cfg.Scan.Workers
			}

			scanner := scan.NewScanner(scan.Config{
				Workers:       workers,
				BatchSize:     cfg.Scan.BatchSize,
				EngineVersion: api.EngineVersion,
			})
			began := time.Now()
			res, err := scanner.Scan(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info("simulation finished",
				"variant", req.Variant,
				"rounds", res.Summary.TotalEvaluated,
				"rtp", res.Summary.RTP,
				"hits", res.Summary.HitsFound,
				"duration", time.Since(began),
			)
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&file, "file", "", "simulation request as JSON, - for stdin")
	f.StringVar(&variant, "variant", string(games.VariantRoulette), "game variant")
	f.StringVar(&params, "params", "", "game params as a JSON object")
	f.StringVar(&wagers, "wagers", "", "wagers as a JSON array")
	f.StringVar(&baseSeed, "base-seed", "", "64 hex characters; defaults to the zero seed")
	f.Uint64Var(&start, "start", 0, "first derived round index")
	f.Uint64Var(&count, "count", 10_000, "rounds to play")
	f.StringVar(&targetOp, "target-op", "", "hit filter on the payout multiple: eq, gt, ge, lt, le, between, outside")
	f.Float64Var(&targetVal, "target-val", 0, "hit filter value")
	f.IntVar(&limit, "limit", 0, "maximum hits to return")
	f.DurationVar(&timeout, "timeout", 0, "stop early after this long")
	f.IntVar(&workers, "workers", 0, "worker goroutines, defaults to scan.workers or GOMAXPROCS")
	cmd.MarkFlagsOneRequired("file", "wagers")
	return cmd
}


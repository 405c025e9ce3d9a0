package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MJE43/pf-casino-engine/internal/audit"
	"github.com/MJE43/pf-casino-engine/internal/autoplay"
	"github.com/MJE43/pf-casino-engine/internal/games"
	"github.com/MJE43/pf-casino-engine/internal/ledger"
	"github.com/MJE43/pf-casino-engine/internal/session"
)

type autoplayReport struct {
	autoplay.Snapshot
	Balance decimal.Decimal `json:"balance"`
}

func newAutoplayCmd(root *rootOptions) *cobra.Command {
	var (
		planFile  string
		account   string
		variant   string
		params    string
		wagers    string
		rounds    int
		strategy  string
		balance   string
		interval  time.Duration
		stopOnWin bool
	)
	cmd := &cobra.Command{
		Use:   "autoplay",
		Short: "Run a betting strategy against an in-process engine",
		Long: "Plays rounds against an in-memory engine and ledger. A strategy script may define\n" +
			"dobet(), read win, balance and profit, set nextbet as a stake multiplier and call stop().",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, err := root.load()
			if err != nil {
				return err
			}

			var plan autoplay.Plan
			if planFile != "" {
				data, err := readInput(cmd, planFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &plan); err != nil {
					return fmt.Errorf("decode %s: %w", planFile, err)
				}
			} else {
				plan = autoplay.Plan{
					Account:   account,
					Variant:   games.Variant(variant),
					Rounds:    rounds,
					Interval:  interval,
					StopOnWin: stopOnWin,
				}
				if params != "" {
					if err := json.Unmarshal([]byte(params), &plan.Params); err != nil {
						return fmt.Errorf("--params: %w", err)
					}
				}
				if err := json.Unmarshal([]byte(wagers), &plan.Wagers); err != nil {
					return fmt.Errorf("--wagers: %w", err)
				}
			}
			if strategy != "" {
				src, err := os.ReadFile(strategy)
				if err != nil {
					return err
				}
				plan.Strategy = string(src)
			}

			start, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("--balance: %w", err)
			}
			plan.StartBalance = start

			wallet := ledger.NewMemory(map[string]decimal.Decimal{plan.Account: start})
			mgr := session.NewManager(session.NewMemoryStore(), wallet, audit.NewLog(log), session.WithLogger(log))
			runner := autoplay.NewRunner(mgr, log)

			if err := runner.Start(cmd.Context(), plan); err != nil {
				return err
			}
			runErr := runner.Wait()

			if err := printJSON(cmd.OutOrStdout(), autoplayReport{
				Snapshot: runner.State(),
				Balance:  wallet.Balance(plan.Account),
			}); err != nil {
				return err
			}
			return runErr
		},
	}
	f := cmd.Flags()
	f.StringVar(&planFile, "plan", "", "autoplay plan as JSON, - for stdin")
	f.StringVar(&account, "account", "player", "account to play as")
	f.StringVar(&variant, "variant", string(games.VariantRoulette), "game variant")
	f.StringVar(&params, "params", "", "game params as a JSON object")
	f.StringVar(&wagers, "wagers", "", "base wagers as a JSON array")
	f.IntVar(&rounds, "rounds", 100, "rounds to play, 0 plays until interrupted")
	f.StringVar(&strategy, "strategy", "", "strategy script file")
	f.StringVar(&balance, "balance", "1000", "opening balance")
	f.DurationVar(&interval, "interval", 0, "pause between rounds")
	f.BoolVar(&stopOnWin, "stop-on-win", false, "stop after the first winning round")
	cmd.MarkFlagsOneRequired("plan", "wagers")
	return cmd
}

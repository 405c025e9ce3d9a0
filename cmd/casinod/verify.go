package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/MJE43/pf-casino-engine/internal/api"
	"github.com/MJE43/pf-casino-engine/internal/bets"
	"github.com/MJE43/pf-casino-engine/internal/replay"
	"github.com/MJE43/pf-casino-engine/internal/session"
	"github.com/MJE43/pf-casino-engine/internal/store"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		file    string
		roundID string
		dbPath  string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a round offline and print the reproduced payout",
		Long: "Replays a round from a JSON record (--file, \"-\" for stdin) holding seed, commitment,\n" +
			"variant, params, wagers and an optional payout, or from the SQLite audit log (--round).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				in     replay.Input
				payout *decimal.Decimal
				err    error
			)
			switch {
			case file != "":
				in, payout, err = verifyInputFromFile(cmd, file)
			case roundID != "":
				cfg, log, lerr := root.load()
				if lerr != nil {
					return lerr
				}
				if dbPath == "" {
					dbPath = cfg.Store.Path
				}
				db, oerr := store.NewSQLite(dbPath, log)
				if oerr != nil {
					return oerr
				}
				defer db.Close()
				trail, terr := db.AuditTrail(cmd.Context(), roundID)
				if terr != nil {
					return terr
				}
				in, payout, err = verifyInputFromTrail(roundID, trail)
			default:
				return errors.New("one of --file or --round is required")
			}
			if err != nil {
				return err
			}

			res, err := replay.Replay(in)
			if err != nil {
				return err
			}
			out := api.VerifyResponse{Result: res, EngineVersion: api.EngineVersion}
			if payout != nil {
				matches := res.Payout.Equal(*payout)
				out.Matches = &matches
			}
			if err := printJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if out.Matches != nil && !*out.Matches {
				return fmt.Errorf("payout mismatch: recorded %s, reproduced %s", payout, res.Payout)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "round record as JSON, - for stdin")
	cmd.Flags().StringVar(&roundID, "round", "", "round id to load from the audit log")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database, defaults to store.path")
	cmd.MarkFlagsMutuallyExclusive("file", "round")
	return cmd
}

func verifyInputFromFile(cmd *cobra.Command, path string) (replay.Input, *decimal.Decimal, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return replay.Input{}, nil, err
	}
	var req api.VerifyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return replay.Input{}, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	wagers, err := bets.ParseWagers(req.Wagers)
	if err != nil {
		return replay.Input{}, nil, err
	}
	return replay.Input{
		Seed:       req.Seed,
		Commitment: req.Commitment,
		Variant:    req.Variant,
		Params:     req.Params,
		Wagers:     wagers,
	}, req.Payout, nil
}

// verifyInputFromTrail picks the last record carrying the revealed seed.
func verifyInputFromTrail(roundID string, trail []session.AuditEntry) (replay.Input, *decimal.Decimal, error) {
	for i := len(trail) - 1; i >= 0; i-- {
		e := trail[i]
		if e.Seed == nil {
			continue
		}
		return replay.Input{
			Seed:       *e.Seed,
			Commitment: e.Commitment,
			Variant:    e.Variant,
			Params:     e.Params,
			Wagers:     e.Wagers,
		}, e.Payout, nil
	}
	if len(trail) == 0 {
		return replay.Input{}, nil, fmt.Errorf("round %s has no audit records", roundID)
	}
	return replay.Input{}, nil, fmt.Errorf("round %s has not been revealed", roundID)
}

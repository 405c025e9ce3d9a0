package api

import (
	"encoding/csv"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

var exportHeader = []string{
	"id", "state", "variant", "commitment", "seed", "stake", "payout", "created_at", "closed_at",
}

// GET /api/v1/accounts/{account}/rounds/export.csv
func (s *Server) handleExportRounds(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	rounds, err := s.rounds.List(r.Context(), account)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+account+`_rounds.csv"`)
	w.Header().Set("X-Engine-Version", EngineVersion)

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, rd := range rounds {
		var seed, payout, closed string
		if rd.Seed != nil {
			seed = rd.Seed.String()
		}
		if rd.Payout != nil {
			payout = rd.Payout.StringFixed(2)
		}
		if rd.ClosedAt != nil {
			closed = rd.ClosedAt.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			rd.ID,
			string(rd.State),
			string(rd.Variant),
			rd.Commitment.String(),
			seed,
			rd.Stake.StringFixed(2),
			payout,
			rd.CreatedAt.UTC().Format(time.RFC3339Nano),
			closed,
		}
		if err := cw.Write(row); err != nil {
			s.logger.Warn("csv export aborted", "account", account, "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Warn("csv export aborted", "account", account, "error", err)
	}
}
